package models

import (
	"errors"
	"fmt"
)

// MomentType classifies a moment. The string value is the persisted name.
type MomentType string

const (
	MomentTypeAwake      MomentType = "AWAKE"
	MomentTypeAsleep     MomentType = "ASLEEP"
	MomentTypeMusic      MomentType = "MUSIC"
	MomentTypePhoto      MomentType = "PHOTO"
	MomentTypeLocation   MomentType = "LOCATION"
	MomentTypeThought    MomentType = "THOUGHT"
	MomentTypeFriendship MomentType = "FRIENDSHIP"
)

var ErrUnknownMomentType = errors.New("unknown moment type")

type momentTypeInfo struct {
	icon        string
	displayName string
	prefix      string
}

// declaration order, used for listings
var momentTypes = []MomentType{
	MomentTypeAwake,
	MomentTypeAsleep,
	MomentTypeMusic,
	MomentTypePhoto,
	MomentTypeLocation,
	MomentTypeThought,
	MomentTypeFriendship,
}

var momentTypeInfos = map[MomentType]momentTypeInfo{
	MomentTypeAwake:      {icon: "☀", displayName: "Awake", prefix: "Just woke up"},
	MomentTypeAsleep:     {icon: "🌙", displayName: "Asleep", prefix: "Going to sleep"},
	MomentTypeMusic:      {icon: "♪", displayName: "Music", prefix: "Listening to"},
	MomentTypePhoto:      {icon: "📷", displayName: "Photo", prefix: "Shared a photo"},
	MomentTypeLocation:   {icon: "📍", displayName: "Location", prefix: "Checked in at"},
	MomentTypeThought:    {icon: "💭", displayName: "Thought", prefix: "Thinking about"},
	MomentTypeFriendship: {icon: "♥", displayName: "Friendship", prefix: "Is now friends with"},
}

// ParseMomentType resolves a persisted name.
func ParseMomentType(name string) (MomentType, error) {
	t := MomentType(name)
	if _, ok := momentTypeInfos[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMomentType, name)
	}
	return t, nil
}

// Valid reports whether t is one of the declared types.
func (t MomentType) Valid() bool {
	_, ok := momentTypeInfos[t]
	return ok
}

func (t MomentType) Icon() string { return momentTypeInfos[t].icon }

func (t MomentType) DisplayName() string { return momentTypeInfos[t].displayName }

// Prefix is the sentence opener used when rendering the moment content.
func (t MomentType) Prefix() string { return momentTypeInfos[t].prefix }

// UserSelectable is false for types that only the system creates.
func (t MomentType) UserSelectable() bool {
	return t.Valid() && t != MomentTypeFriendship
}

// UserMomentTypes lists the types a user may share, in declaration order.
func UserMomentTypes() []MomentType {
	out := make([]MomentType, 0, len(momentTypes))
	for _, t := range momentTypes {
		if t.UserSelectable() {
			out = append(out, t)
		}
	}
	return out
}
