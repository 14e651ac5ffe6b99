package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser_AssignsIDAndEmptyFriends(t *testing.T) {
	a := NewUser("alice", "pw", "Alice")
	b := NewUser("alice", "pw", "Alice")

	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
	require.NotNil(t, a.FriendIDs())
	require.Empty(t, a.FriendIDs())
	require.True(t, a.CanAddFriend())
}

func TestAddFriend_Rules(t *testing.T) {
	u := RestoreUser("u1", "bob", "pw", "Bob")

	require.True(t, u.AddFriend("u2"))
	require.False(t, u.AddFriend("u2"), "duplicate id must be rejected")
	require.False(t, u.AddFriend("u1"), "self reference must be rejected")
	require.Equal(t, []string{"u2"}, u.FriendIDs())
	require.True(t, u.IsFriend("u2"))
	require.False(t, u.IsFriend("u3"))
}

func TestAddFriend_Capacity(t *testing.T) {
	u := RestoreUser("me", "bob", "pw", "Bob")
	for i := 0; i < MaxFriends; i++ {
		require.True(t, u.AddFriend(fmt.Sprintf("f%d", i)))
	}

	require.False(t, u.CanAddFriend())
	require.False(t, u.AddFriend("one-too-many"))
	require.Equal(t, MaxFriends, u.FriendCount())
}

func TestFriendIDs_ReturnsCopy(t *testing.T) {
	u := RestoreUser("me", "bob", "pw", "Bob")
	u.AddFriend("x")

	ids := u.FriendIDs()
	ids[0] = "mutated"

	assert.Equal(t, []string{"x"}, u.FriendIDs())
}

func TestClone_IsIndependent(t *testing.T) {
	u := RestoreUser("me", "bob", "pw", "Bob")
	u.AddFriend("x")

	c := u.Clone()
	c.AddFriend("y")
	c.DisplayName = "Robert"

	assert.Equal(t, []string{"x"}, u.FriendIDs())
	assert.Equal(t, "Bob", u.DisplayName)
	assert.Equal(t, []string{"x", "y"}, c.FriendIDs())
}

func TestAuthenticate(t *testing.T) {
	u := RestoreUser("me", "Bob", "Secret", "Bob")

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"exact", "Bob", "Secret", true},
		{"username case-insensitive", "bOB", "Secret", true},
		{"password case-sensitive", "Bob", "secret", false},
		{"wrong username", "alice", "Secret", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, u.Authenticate(tt.username, tt.password))
		})
	}
}

func TestInitials(t *testing.T) {
	tests := []struct {
		username    string
		displayName string
		want        string
	}{
		{"alice", "Alice Johnson", "AJ"},
		{"alice", "alice mary johnson", "AJ"},
		{"bob", "Bob", "B"},
		{"charlie", "   ", "C"},
		{"émile", "", "É"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			u := RestoreUser("id", tt.username, "pw", tt.displayName)
			assert.Equal(t, tt.want, u.Initials())
		})
	}
}
