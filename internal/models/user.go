package models

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxFriends is the upper bound of a user's friend list.
const MaxFriends = 50

// User is a registered account.
//
// ID, Username and Password never change after creation. DisplayName is a
// free label. The friend list keeps friending order and is only reachable
// through the methods below.
type User struct {
	// ID is a uuid assigned at registration.
	ID string

	// Username is the login handle, unique case-insensitively.
	Username string

	// Password is stored verbatim and compared case-sensitively.
	Password string

	// DisplayName is shown on moments and in search results.
	DisplayName string

	friendIDs []string
}

// NewUser creates a user with a fresh id and no friends.
func NewUser(username, password, displayName string) *User {
	return RestoreUser(uuid.New().String(), username, password, displayName)
}

// RestoreUser rebuilds a user loaded from storage.
func RestoreUser(id, username, password, displayName string) *User {
	return &User{
		ID:          id,
		Username:    username,
		Password:    password,
		DisplayName: displayName,
		friendIDs:   []string{},
	}
}

// FriendIDs returns a copy of the friend list in friending order.
func (u *User) FriendIDs() []string {
	return slices.Clone(u.friendIDs)
}

func (u *User) FriendCount() int {
	return len(u.friendIDs)
}

// CanAddFriend reports whether the friend list is below MaxFriends.
func (u *User) CanAddFriend() bool {
	return len(u.friendIDs) < MaxFriends
}

func (u *User) IsFriend(id string) bool {
	return slices.Contains(u.friendIDs, id)
}

// AddFriend appends id to the friend list. It is a no-op returning false when
// the list is full, id is already present or id is the user's own id.
func (u *User) AddFriend(id string) bool {
	if !u.CanAddFriend() || u.IsFriend(id) || id == u.ID {
		return false
	}
	u.friendIDs = append(u.friendIDs, id)
	return true
}

// Authenticate matches the username case-insensitively and the password exactly.
func (u *User) Authenticate(username, password string) bool {
	return strings.EqualFold(u.Username, username) && u.Password == password
}

// Initials returns up to two upper-case letters for an avatar: the first
// letters of the first and last words of the display name, or the first
// letter of the username when the display name is blank.
func (u *User) Initials() string {
	parts := strings.Fields(u.DisplayName)
	switch {
	case len(parts) >= 2:
		return strings.ToUpper(firstRune(parts[0]) + firstRune(parts[len(parts)-1]))
	case len(parts) == 1:
		return strings.ToUpper(firstRune(parts[0]))
	default:
		return strings.ToUpper(firstRune(u.Username))
	}
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	c := *u
	c.friendIDs = slices.Clone(u.friendIDs)
	if c.friendIDs == nil {
		c.friendIDs = []string{}
	}
	return &c
}

func firstRune(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}
