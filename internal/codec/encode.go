package codec

import (
	"bytes"
	"strings"

	"github.com/dmitrijs2005/pathsocial/internal/models"
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escape(s string) string {
	return escaper.Replace(s)
}

func quote(s string) string {
	return `"` + escape(s) + `"`
}

// Encode renders the snapshot as a document. The output is deterministic for
// a given snapshot.
func Encode(s Snapshot) []byte {
	var b bytes.Buffer

	b.WriteString("{\n")
	b.WriteString(`  "users": [`)
	for i, u := range s.Users {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n")
		writeUser(&b, u)
	}
	b.WriteString("\n  ],\n")

	b.WriteString(`  "moments": [`)
	for i, m := range s.Moments {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n")
		writeMoment(&b, m)
	}
	b.WriteString("\n  ]\n")
	b.WriteString("}\n")

	return b.Bytes()
}

func writeUser(b *bytes.Buffer, u *models.User) {
	b.WriteString("    {\n")
	writeField(b, "id", quote(u.ID), false)
	writeField(b, "username", quote(u.Username), false)
	writeField(b, "password", quote(u.Password), false)
	writeField(b, "displayName", quote(u.DisplayName), false)

	ids := u.FriendIDs()
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = quote(id)
	}
	writeField(b, "friendIds", "["+strings.Join(quoted, ", ")+"]", true)
	b.WriteString("    }")
}

func writeMoment(b *bytes.Buffer, m *models.Moment) {
	imagePath := "null"
	if m.HasImage() {
		imagePath = quote(m.ImagePath)
	}

	b.WriteString("    {\n")
	writeField(b, "id", quote(m.ID), false)
	writeField(b, "userId", quote(m.UserID), false)
	writeField(b, "type", quote(string(m.Type)), false)
	writeField(b, "content", quote(m.Content), false)
	writeField(b, "imagePath", imagePath, false)
	writeField(b, "timestamp", quote(FormatTimestamp(m.Timestamp)), true)
	b.WriteString("    }")
}

func writeField(b *bytes.Buffer, key, raw string, last bool) {
	b.WriteString(`      "`)
	b.WriteString(key)
	b.WriteString(`": `)
	b.WriteString(raw)
	if !last {
		b.WriteString(",")
	}
	b.WriteString("\n")
}
