// Package codec encodes the social graph to its text document and back.
//
// # Format
//
// The document is a brace-delimited object with two sections, "users" and
// "moments", each an array of records:
//
//	{
//	  "users": [
//	    {
//	      "id": "…",
//	      "username": "…",
//	      "password": "…",
//	      "displayName": "…",
//	      "friendIds": ["…", "…"]
//	    }
//	  ],
//	  "moments": [
//	    {
//	      "id": "…",
//	      "userId": "…",
//	      "type": "MUSIC",
//	      "content": "…",
//	      "imagePath": null,
//	      "timestamp": "2024-12-21T14:30:05.123"
//	    }
//	  ]
//	}
//
// Record fields are positional: a record whose leading keys are not exactly
// the ones above, in that order, is skipped. Inside strings backslash, double
// quote, newline, carriage return and tab are escaped as \\ \" \n \r \t.
//
// An imagePath of null means the moment has no image. A stored empty string
// means the same thing and is written back as null.
//
// # Decoding
//
// Decoding is a lexer/parser pair. A fault inside one record (an unknown
// escape, a stray character, a missing comma or colon) drops only that record
// with ErrRecordSyntax. A record that parses but does not match the expected
// shape is dropped too, with ErrRecordShape or ErrRecordValue. Dropped records are listed in the returned Report and the
// rest of the document still loads. Faults outside any record, such as a
// broken section or an unterminated string that runs to the end of the text,
// fail the whole document with ErrMalformedDocument.
package codec

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pathsocial/internal/models"
)

var (
	// ErrMalformedDocument means the text is not a parseable document.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrRecordSyntax means a record could not be parsed and was skipped.
	ErrRecordSyntax = errors.New("unreadable record")

	// ErrRecordShape means a record's fields do not follow the positional pattern.
	ErrRecordShape = errors.New("record does not match field pattern")

	// ErrRecordValue means a field has the right key but an unusable value.
	ErrRecordValue = errors.New("invalid record value")
)

// TimestampLayout is the local date-time layout used for moment timestamps.
// It has no zone offset; values are interpreted in the local zone.
const TimestampLayout = "2006-01-02T15:04:05.999999999"

// minute precision, accepted on decode only
const shortTimestampLayout = "2006-01-02T15:04"

const (
	sectionUsers   = "users"
	sectionMoments = "moments"
)

var (
	userFields   = []string{"id", "username", "password", "displayName", "friendIds"}
	momentFields = []string{"id", "userId", "type", "content", "imagePath", "timestamp"}
)

// Snapshot is the complete persisted state. Users are in registration order,
// moments newest first as stored.
type Snapshot struct {
	Users   []*models.User
	Moments []*models.Moment
}

// RecordError describes one record left out of a decoded snapshot.
type RecordError struct {
	Section string
	Index   int
	Line    int
	Err     error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("%s[%d] (line %d): %v", e.Section, e.Index, e.Line, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// Report lists what decoding dropped or altered.
type Report struct {
	// Skipped holds records omitted from the snapshot.
	Skipped []RecordError

	// Truncated holds ids of users whose stored friend list exceeded
	// models.MaxFriends and was cut on load.
	Truncated []string
}

// Clean reports whether the document loaded without any loss.
func (r Report) Clean() bool {
	return len(r.Skipped) == 0 && len(r.Truncated) == 0
}

// FormatTimestamp renders t with TimestampLayout in the local zone.
func FormatTimestamp(t time.Time) string {
	return t.In(time.Local).Format(TimestampLayout)
}

// ParseTimestamp parses a stored timestamp in the local zone. Second,
// sub-second and minute precision are accepted.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err == nil {
		return t, nil
	}
	if t2, err2 := time.ParseInLocation(shortTimestampLayout, s, time.Local); err2 == nil {
		return t2, nil
	}
	return time.Time{}, err
}
