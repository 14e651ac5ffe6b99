package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pathsocial/internal/models"
)

// formatMoment renders a moment as a header line and an indented body:
//
//	♪ Bob Smith · 2h ago
//	    Listening to Bohemian Rhapsody - Queen
//
// author may be nil when the user cannot be resolved.
func formatMoment(m *models.Moment, author *models.User, now time.Time) string {
	name := "unknown user"
	if author != nil {
		name = author.DisplayName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s · %s\n", m.Type.Icon(), name, m.RelativeTime(now))

	body := m.Type.Prefix()
	if m.Content != "" {
		body += " " + m.Content
	}
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintf(&b, "    %s\n", line)
	}
	if m.HasImage() {
		fmt.Fprintf(&b, "    [image] %s\n", m.ImagePath)
	}
	return b.String()
}
