package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Moment is a single timestamped post.
//
// Every field is fixed at construction except ImagePath, which the store
// rewrites once when it copies the attached image into managed storage.
type Moment struct {
	// ID is a uuid assigned at creation.
	ID string

	// UserID references the author.
	UserID string

	Type MomentType

	// Content is free text. For friendship moments it holds the friend's
	// display name.
	Content string

	// ImagePath points to a local image file. Empty means no image and is
	// persisted as null.
	ImagePath string

	// Timestamp is the creation time in the local zone.
	Timestamp time.Time
}

// NewMoment creates a moment stamped with the current time.
func NewMoment(userID string, t MomentType, content string) *Moment {
	return NewMomentWithImage(userID, t, content, "")
}

// NewMomentWithImage creates a moment carrying a reference to an image file.
func NewMomentWithImage(userID string, t MomentType, content, imagePath string) *Moment {
	return RestoreMoment(uuid.New().String(), userID, t, content, imagePath, time.Now())
}

// RestoreMoment rebuilds a moment loaded from storage.
func RestoreMoment(id, userID string, t MomentType, content, imagePath string, ts time.Time) *Moment {
	return &Moment{
		ID:        id,
		UserID:    userID,
		Type:      t,
		Content:   content,
		ImagePath: imagePath,
		Timestamp: ts,
	}
}

func (m *Moment) HasImage() bool {
	return m.ImagePath != ""
}

// FormattedTime renders the creation time as "15:04".
func (m *Moment) FormattedTime() string {
	return m.Timestamp.Format("15:04")
}

// FormattedDate renders the creation date as "02 Jan 2006".
func (m *Moment) FormattedDate() string {
	return m.Timestamp.Format("02 Jan 2006")
}

// RelativeTime renders the age of the moment relative to now: "Just now",
// "5m ago", "2h ago", "3d ago", and the formatted date after a week.
func (m *Moment) RelativeTime(now time.Time) string {
	minutes := int64(now.Sub(m.Timestamp) / time.Minute)
	if minutes < 1 {
		return "Just now"
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%dd ago", days)
	}
	return m.FormattedDate()
}

// Clone returns a copy.
func (m *Moment) Clone() *Moment {
	c := *m
	return &c
}
