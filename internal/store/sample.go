package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/pathsocial/internal/models"
)

// SamplePassword is the password of every bootstrap user.
const SamplePassword = "password"

type sampleUser struct {
	username    string
	displayName string
}

type sampleMoment struct {
	author  int
	kind    models.MomentType
	content string
	age     time.Duration
}

var sampleUsers = []sampleUser{
	{"alice", "Alice Johnson"},
	{"bob", "Bob Smith"},
	{"charlie", "Charlie Brown"},
}

// sampleFriendships pairs indexes into sampleUsers.
var sampleFriendships = [][2]int{{0, 1}, {0, 2}}

// sampleMoments is ordered oldest first.
var sampleMoments = []sampleMoment{
	{0, models.MomentTypeAwake, "Ready for a productive day!", 3 * time.Hour},
	{1, models.MomentTypeMusic, "Bohemian Rhapsody - Queen", 2 * time.Hour},
	{2, models.MomentTypeLocation, "Central Park, NYC", time.Hour},
	{0, models.MomentTypeThought, "The weather is beautiful today", 30 * time.Minute},
}

// seedLocked replaces the in-memory state with the bootstrap sample.
func (s *Store) seedLocked() {
	s.users = nil
	s.byID = make(map[string]*models.User)
	s.moments = nil
	s.sessionID = ""

	users := make([]*models.User, 0, len(sampleUsers))
	for _, su := range sampleUsers {
		u := models.NewUser(su.username, SamplePassword, su.displayName)
		users = append(users, u)
		s.insertUserLocked(u)
	}

	for _, pair := range sampleFriendships {
		a, b := users[pair[0]], users[pair[1]]
		a.AddFriend(b.ID)
		b.AddFriend(a.ID)
	}

	now := s.now()
	for _, sm := range sampleMoments {
		m := models.RestoreMoment(uuid.NewString(), users[sm.author].ID, sm.kind, sm.content, "", now.Add(-sm.age))
		s.prependMomentLocked(m)
	}
}
