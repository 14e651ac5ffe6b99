package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pathsocial/internal/models"
	"github.com/dmitrijs2005/pathsocial/internal/store"
)

var errNotLoggedIn = errors.New("you are not logged in (use 'login')")

func (s *Shell) currentUser() (*models.User, error) {
	u, ok := s.store.CurrentUser()
	if !ok {
		return nil, errNotLoggedIn
	}
	return u, nil
}

func (s *Shell) register(ctx context.Context) error {
	username, err := s.promptRequired(ctx, "Username")
	if err != nil {
		return err
	}
	password, err := s.promptPassword(ctx)
	if err != nil {
		return err
	}
	displayName, err := s.promptRequired(ctx, "Display name")
	if err != nil {
		return err
	}

	u, err := s.store.Register(ctx, username, password, displayName)
	if err != nil {
		return err
	}
	s.println("Registered", u.Username+". You can now log in.")
	return nil
}

func (s *Shell) login(ctx context.Context, args []string) error {
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		var err error
		if username, err = s.promptRequired(ctx, "Username"); err != nil {
			return err
		}
	}
	password, err := s.promptPassword(ctx)
	if err != nil {
		return err
	}

	u, err := s.store.Login(ctx, username, password)
	if err != nil {
		return err
	}
	s.println("Welcome,", u.DisplayName+"!")
	return nil
}

func (s *Shell) logout() error {
	if _, err := s.currentUser(); err != nil {
		return err
	}
	s.store.Logout()
	s.println("Logged out.")
	return nil
}

func (s *Shell) whoami() error {
	u, err := s.currentUser()
	if err != nil {
		return err
	}
	s.println(formatUser(u))
	return nil
}

func (s *Shell) search(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: search <query>")
	}
	users := s.store.SearchUsers(strings.Join(args, " "))
	if len(users) == 0 {
		s.println("No users found.")
		return nil
	}
	cur, _ := s.store.CurrentUser()
	for _, u := range users {
		line := formatUser(u)
		if cur != nil && cur.IsFriend(u.ID) {
			line += "  (friend)"
		}
		s.println(line)
	}
	return nil
}

func (s *Shell) friends() error {
	u, err := s.currentUser()
	if err != nil {
		return err
	}
	friends, err := s.store.Friends(u.ID)
	if err != nil {
		return err
	}
	s.printf("Friends (%d/%d)\n", len(friends), models.MaxFriends)
	if len(friends) == 0 {
		s.println("No friends yet. Try 'search' and 'addfriend'.")
		return nil
	}
	for _, f := range friends {
		s.println(" ", formatUser(f))
	}
	return nil
}

func (s *Shell) addFriend(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: addfriend <username>")
	}
	u, err := s.currentUser()
	if err != nil {
		return err
	}
	friend, err := s.store.UserByUsername(args[0])
	if err != nil {
		return err
	}
	if err := s.store.AddFriend(ctx, u.ID, friend.ID); err != nil {
		return err
	}
	s.println("You and", friend.DisplayName, "are now friends.")
	return nil
}

// share handles "share <type> <text...> [-img path]".
func (s *Shell) share(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: share <type> <text> [-img path] (see 'types')")
	}
	u, err := s.currentUser()
	if err != nil {
		return err
	}

	kind, err := models.ParseMomentType(strings.ToUpper(args[0]))
	if err != nil {
		return err
	}
	if !kind.UserSelectable() {
		return store.ErrReservedMomentType
	}

	var words []string
	var image string
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		if rest[i] == "-img" {
			if i+1 >= len(rest) {
				return errors.New("-img needs a path")
			}
			image = rest[i+1]
			i++
			continue
		}
		words = append(words, rest[i])
	}

	m := models.NewMomentWithImage(u.ID, kind, strings.Join(words, " "), image)
	stored, err := s.store.AddMoment(ctx, m)
	if err != nil {
		return err
	}
	if image != "" && stored.ImagePath == image {
		s.println("Note: the image could not be copied, the original file is referenced instead.")
	}
	s.println("Shared:")
	s.print(formatMoment(stored, u, s.now()))
	return nil
}

func (s *Shell) timeline() error {
	if _, err := s.currentUser(); err != nil {
		return err
	}
	moments := s.store.TimelineMoments()
	if len(moments) == 0 {
		s.println("Your timeline is empty. Share a moment or add friends.")
		return nil
	}
	s.printMoments(moments)
	return nil
}

func (s *Shell) profile(args []string) error {
	var u *models.User
	var err error
	if len(args) > 0 {
		u, err = s.store.UserByUsername(args[0])
	} else {
		u, err = s.currentUser()
	}
	if err != nil {
		return err
	}

	s.printf("[%s] %s\n", u.Initials(), formatUser(u))
	s.printf("Friends: %d/%d\n", u.FriendCount(), models.MaxFriends)

	moments := s.store.UserMoments(u.ID)
	if len(moments) == 0 {
		s.println("No moments yet.")
		return nil
	}
	s.printMoments(moments)
	return nil
}

func (s *Shell) types() {
	for _, t := range models.UserMomentTypes() {
		s.printf("  %s %-9s %s\n", t.Icon(), strings.ToLower(string(t)), t.Prefix())
	}
}

func (s *Shell) stats() error {
	st := s.store.Stats()
	status := s.store.LoadStatus()
	s.printf("Users: %d  Moments: %d  Logged in: %t\n", st.Users, st.Moments, st.LoggedIn)
	s.printf("Loaded from: %s\n", status.Source)
	if status.Err != nil {
		s.printf("Load error: %v\n", status.Err)
	}
	if n := len(status.Report.Skipped); n > 0 {
		s.printf("Records skipped on load: %d\n", n)
	}
	if status.SetAsidePath != "" {
		s.printf("Unreadable data file kept at: %s\n", status.SetAsidePath)
	}

	samples, err := s.store.Metrics().Gather()
	if err != nil {
		return err
	}
	for _, sample := range samples {
		s.println(" ", sample.String())
	}
	return nil
}

func (s *Shell) reset(ctx context.Context) error {
	answer, err := s.prompt(ctx, "This erases all users, moments and images. Type 'yes' to continue")
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "yes") {
		s.println("Reset cancelled.")
		return nil
	}
	if err := s.store.ClearAllData(ctx); err != nil {
		s.printErr(err)
	}
	s.println("All data erased. Sample users restored (password:", store.SamplePassword+").")
	return nil
}

// printMoments resolves authors once per user.
func (s *Shell) printMoments(moments []*models.Moment) {
	authors := make(map[string]*models.User)
	now := s.now()
	for _, m := range moments {
		author, ok := authors[m.UserID]
		if !ok {
			author, _ = s.store.UserByID(m.UserID)
			authors[m.UserID] = author
		}
		s.print(formatMoment(m, author, now))
	}
}

func (s *Shell) print(text string) {
	s.printf("%s", text)
}

func formatUser(u *models.User) string {
	return fmt.Sprintf("%s (@%s)", u.DisplayName, u.Username)
}
