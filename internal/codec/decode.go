package codec

import (
	"fmt"

	"github.com/dmitrijs2005/pathsocial/internal/models"
)

// Decode parses a document into a snapshot. Records that do not match the
// positional field pattern are dropped and listed in the report. Friend ids
// are replayed through (*models.User).AddFriend, so duplicates and self
// references disappear and lists longer than models.MaxFriends are cut.
func Decode(data []byte) (Snapshot, Report, error) {
	var (
		snap   Snapshot
		report Report
	)

	root, err := parse(data)
	if err != nil {
		return snap, report, err
	}

	users, err := section(root, sectionUsers)
	if err != nil {
		return snap, report, err
	}
	moments, err := section(root, sectionMoments)
	if err != nil {
		return snap, report, err
	}

	snap.Users = make([]*models.User, 0, len(users))
	for i, rec := range users {
		u, truncated, err := decodeUser(rec)
		if err != nil {
			report.Skipped = append(report.Skipped, RecordError{Section: sectionUsers, Index: i, Line: rec.line, Err: err})
			continue
		}
		if truncated {
			report.Truncated = append(report.Truncated, u.ID)
		}
		snap.Users = append(snap.Users, u)
	}

	snap.Moments = make([]*models.Moment, 0, len(moments))
	for i, rec := range moments {
		m, err := decodeMoment(rec)
		if err != nil {
			report.Skipped = append(report.Skipped, RecordError{Section: sectionMoments, Index: i, Line: rec.line, Err: err})
			continue
		}
		snap.Moments = append(snap.Moments, m)
	}

	return snap, report, nil
}

// section returns the records of a top-level array. A missing section is
// empty; a section that is not an array makes the document malformed.
func section(root value, name string) ([]value, error) {
	v, ok := root.lookup(name)
	if !ok {
		return nil, nil
	}
	if v.kind != valList {
		return nil, fmt.Errorf("%w: line %d: section %q is a %s, want list", ErrMalformedDocument, v.line, name, v.kind)
	}
	return v.items, nil
}

// matchFields checks that rec is an object whose leading keys are exactly
// keys, in order. Trailing extra keys are ignored.
func matchFields(rec value, keys []string) error {
	if rec.kind == valBroken {
		return fmt.Errorf("%w: %w", ErrRecordSyntax, rec.err)
	}
	if rec.kind != valObject {
		return fmt.Errorf("%w: record is a %s", ErrRecordShape, rec.kind)
	}
	if len(rec.fields) < len(keys) {
		return fmt.Errorf("%w: %d fields, want %d", ErrRecordShape, len(rec.fields), len(keys))
	}
	for i, k := range keys {
		if rec.fields[i].key != k {
			return fmt.Errorf("%w: field %d is %q, want %q", ErrRecordShape, i, rec.fields[i].key, k)
		}
	}
	return nil
}

func stringField(rec value, i int) (string, error) {
	f := rec.fields[i]
	if f.val.kind != valString {
		return "", fmt.Errorf("%w: %q is a %s, want string", ErrRecordValue, f.key, f.val.kind)
	}
	return f.val.text, nil
}

func decodeUser(rec value) (*models.User, bool, error) {
	if err := matchFields(rec, userFields); err != nil {
		return nil, false, err
	}

	var strs [4]string
	for i := range strs {
		s, err := stringField(rec, i)
		if err != nil {
			return nil, false, err
		}
		strs[i] = s
	}

	friends := rec.fields[4].val
	if friends.kind != valList {
		return nil, false, fmt.Errorf("%w: \"friendIds\" is a %s, want list", ErrRecordValue, friends.kind)
	}
	ids := make([]string, 0, len(friends.items))
	for _, item := range friends.items {
		if item.kind != valString {
			return nil, false, fmt.Errorf("%w: friend id is a %s, want string", ErrRecordValue, item.kind)
		}
		if item.text != "" {
			ids = append(ids, item.text)
		}
	}

	u := models.RestoreUser(strs[0], strs[1], strs[2], strs[3])
	truncated := false
	for _, id := range ids {
		if u.AddFriend(id) {
			continue
		}
		if !u.CanAddFriend() && !u.IsFriend(id) && id != u.ID {
			truncated = true
		}
	}
	return u, truncated, nil
}

func decodeMoment(rec value) (*models.Moment, error) {
	if err := matchFields(rec, momentFields); err != nil {
		return nil, err
	}

	id, err := stringField(rec, 0)
	if err != nil {
		return nil, err
	}
	userID, err := stringField(rec, 1)
	if err != nil {
		return nil, err
	}
	typeName, err := stringField(rec, 2)
	if err != nil {
		return nil, err
	}
	mt, err := models.ParseMomentType(typeName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecordValue, err)
	}
	content, err := stringField(rec, 3)
	if err != nil {
		return nil, err
	}

	// "" and null both mean no image; the encoder writes null for either.
	var imagePath string
	switch img := rec.fields[4].val; img.kind {
	case valNull:
	case valString:
		imagePath = img.text
	default:
		return nil, fmt.Errorf("%w: \"imagePath\" is a %s, want string or null", ErrRecordValue, img.kind)
	}

	rawTS, err := stringField(rec, 5)
	if err != nil {
		return nil, err
	}
	ts, err := ParseTimestamp(rawTS)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp %q: %v", ErrRecordValue, rawTS, err)
	}

	return models.RestoreMoment(id, userID, mt, content, imagePath, ts), nil
}
