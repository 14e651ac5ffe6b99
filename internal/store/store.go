package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/pathsocial/internal/codec"
	"github.com/dmitrijs2005/pathsocial/internal/logging"
	"github.com/dmitrijs2005/pathsocial/internal/metrics"
	"github.com/dmitrijs2005/pathsocial/internal/models"
	"github.com/dmitrijs2005/pathsocial/internal/notify"
	"github.com/dmitrijs2005/pathsocial/internal/persistence"
	"github.com/dmitrijs2005/pathsocial/internal/watch"
)

// Persister is the file layer the store writes through.
// *persistence.Manager implements it.
type Persister interface {
	Load(ctx context.Context) (codec.Snapshot, codec.Report, error)
	Save(ctx context.Context, snap codec.Snapshot) error
	CopyImage(ctx context.Context, src string) (string, error)
	Wipe(ctx context.Context) error
	SetAside(ctx context.Context) (string, error)
}

var _ Persister = (*persistence.Manager)(nil)

type Options struct {
	Persister Persister
	Detector  watch.Detector

	// Logger defaults to a discarding logger.
	Logger logging.Logger

	// Metrics defaults to a fresh private instance.
	Metrics *metrics.Metrics

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// LoadSource tells where the state present after Open came from.
type LoadSource int

const (
	// LoadedFromFile means the data file was read successfully.
	LoadedFromFile LoadSource = iota
	// Seeded means no data file existed and the bootstrap sample was written.
	Seeded
	// LoadFailed means the data file could not be read or parsed and the
	// store started empty. The file is set aside before the first save.
	LoadFailed
)

func (s LoadSource) String() string {
	switch s {
	case LoadedFromFile:
		return "file"
	case Seeded:
		return "sample"
	case LoadFailed:
		return "failed"
	default:
		return fmt.Sprintf("LoadSource(%d)", int(s))
	}
}

// LoadStatus describes the initial load.
type LoadStatus struct {
	Source LoadSource
	Report codec.Report
	Err    error
	// SetAsidePath is where the unreadable file was moved, once that happened.
	SetAsidePath string
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	Users    int
	Moments  int
	LoggedIn bool
}

type Store struct {
	mu sync.Mutex

	persister Persister
	detector  watch.Detector
	logger    logging.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	// users keeps registration order; byID indexes the same pointers.
	users []*models.User
	byID  map[string]*models.User
	// moments is stored newest insertion first.
	moments   []*models.Moment
	sessionID string

	loadStatus LoadStatus
	// setAsidePending is true while an unreadable data file has not yet been
	// moved out of the way of the next save.
	setAsidePending bool

	events *notify.Broker[ChangeEvent]
	state  atomic.Int32
}

// Open builds a store and loads the data file. When no file exists the
// bootstrap sample is created and saved. When the file exists but cannot be
// loaded the store starts empty and leaves the file alone; the first save
// renames it with a .corrupt-<timestamp> suffix instead of overwriting it.
// LoadStatus reports which case applied.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Persister == nil {
		return nil, fmt.Errorf("%w: persister is required", ErrInvalidInput)
	}
	if opts.Detector == nil {
		return nil, fmt.Errorf("%w: detector is required", ErrInvalidInput)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	s := &Store{
		persister: opts.Persister,
		detector:  opts.Detector,
		logger:    opts.Logger.With("component", "store"),
		metrics:   opts.Metrics,
		now:       opts.Clock,
		byID:      make(map[string]*models.User),
		events:    notify.NewBroker[ChangeEvent](),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, report, err := s.persister.Load(ctx)
	switch {
	case err == nil:
		s.applyLocked(snap)
		s.loadStatus = LoadStatus{Source: LoadedFromFile, Report: report}
		s.logger.Info(ctx, "data loaded", "users", len(s.users), "moments", len(s.moments))
	case errors.Is(err, persistence.ErrNoData):
		s.seedLocked()
		s.loadStatus = LoadStatus{Source: Seeded}
		s.logger.Info(ctx, "no data file, bootstrap sample created")
		s.persistLocked(ctx)
	default:
		s.loadStatus = LoadStatus{Source: LoadFailed, Err: err}
		s.setAsidePending = true
		s.logger.Error(ctx, "load failed, starting empty", "error", err)
	}
	// Taken even after a failed load so a later external fix is picked up.
	s.detector.RecordBaseline()
	s.updateGaugesLocked()

	return s, nil
}

// LoadStatus reports the outcome of the load performed by Open.
func (s *Store) LoadStatus() LoadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadStatus
}

// Close unsubscribes every observer.
func (s *Store) Close() {
	s.events.Close()
}

// Register creates a user. Username, password and display name must not be
// blank; the username must be unique regardless of case. Registering does
// not change the session.
func (s *Store) Register(ctx context.Context, username, password, displayName string) (*models.User, error) {
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)
	if username == "" || password == "" || displayName == "" {
		return nil, fmt.Errorf("%w: username, password and display name are required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByUsernameLocked(username) != nil {
		return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
	}

	u := models.NewUser(username, password, displayName)
	s.insertUserLocked(u)
	s.logger.Info(ctx, "user registered", "user_id", u.ID, "username", u.Username)
	s.persistLocked(ctx)

	return u.Clone(), nil
}

// Login starts a session for the user whose username matches regardless of
// case and whose password matches exactly. A failed attempt leaves any
// existing session in place.
func (s *Store) Login(ctx context.Context, username, password string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Authenticate(username, password) {
			s.sessionID = u.ID
			s.metrics.ObserveLogin(true)
			s.logger.Info(ctx, "logged in", "user_id", u.ID)
			return u.Clone(), nil
		}
	}

	s.metrics.ObserveLogin(false)
	s.logger.Debug(ctx, "login rejected", "username", username)
	return nil, ErrInvalidCredentials
}

// Logout ends the session. It is a no-op when nobody is logged in.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = ""
}

// CurrentUser returns the logged-in user.
func (s *Store) CurrentUser() (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.currentLocked()
	if u == nil {
		return nil, false
	}
	return u.Clone(), true
}

func (s *Store) UserByID(id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return u.Clone(), nil
}

// UserByUsername looks a user up by username, ignoring case.
func (s *Store) UserByUsername(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findByUsernameLocked(strings.TrimSpace(username))
	if u == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return u.Clone(), nil
}

// Friends returns the friends of userID in friending order. Ids that no
// longer resolve to a user are skipped.
func (s *Store) Friends(userID string) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	ids := u.FriendIDs()
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if f, ok := s.byID[id]; ok {
			out = append(out, f.Clone())
		}
	}
	return out, nil
}

// SearchUsers returns users whose username or display name contains query,
// ignoring case, in registration order. The logged-in user is never
// included and a blank query matches nothing.
func (s *Store) SearchUsers(query string) []*models.User {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.User
	for _, u := range s.users {
		if u.ID == s.sessionID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.DisplayName), q) {
			out = append(out, u.Clone())
		}
	}
	return out
}

// AddFriend makes userID and friendID friends of each other and records a
// friendship moment authored by userID at the head of the moment list.
// Nothing changes when an error is returned.
func (s *Store) AddFriend(ctx context.Context, userID, friendID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	f, ok := s.byID[friendID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, friendID)
	}
	if u.ID == f.ID {
		return ErrSelfFriend
	}
	if u.IsFriend(f.ID) || f.IsFriend(u.ID) {
		return ErrAlreadyFriends
	}
	if !u.CanAddFriend() {
		return fmt.Errorf("%w: %s has %d friends", ErrFriendLimit, u.Username, u.FriendCount())
	}
	if !f.CanAddFriend() {
		return fmt.Errorf("%w: %s has %d friends", ErrFriendLimit, f.Username, f.FriendCount())
	}

	u.AddFriend(f.ID)
	f.AddFriend(u.ID)

	m := models.RestoreMoment(uuid.NewString(), u.ID, models.MomentTypeFriendship, f.DisplayName, "", s.now())
	s.prependMomentLocked(m)

	s.logger.Info(ctx, "friendship created", "user_id", u.ID, "friend_id", f.ID)
	s.persistLocked(ctx)
	return nil
}

// AddMoment stores a user-created moment at the head of the moment list and
// returns the stored copy. The moment's id and timestamp are filled in when
// missing. An attached image is copied into managed storage first; when the
// copy fails the moment keeps its original image path.
func (s *Store) AddMoment(ctx context.Context, m *models.Moment) (*models.Moment, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil moment", ErrInvalidInput)
	}
	if m.Type == models.MomentTypeFriendship {
		return nil, ErrReservedMomentType
	}
	if !m.Type.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidInput, models.ErrUnknownMomentType, m.Type)
	}
	if strings.TrimSpace(m.Content) == "" && !m.HasImage() {
		return nil, fmt.Errorf("%w: moment content is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[m.UserID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, m.UserID)
	}

	stored := m.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.Timestamp.IsZero() {
		stored.Timestamp = s.now()
	}
	if stored.HasImage() {
		path, err := s.persister.CopyImage(ctx, stored.ImagePath)
		s.metrics.ObserveImageCopy(err)
		if err != nil {
			s.logger.Warn(ctx, "image copy failed, keeping original path", "path", stored.ImagePath, "error", err)
		} else {
			stored.ImagePath = path
		}
	}

	s.prependMomentLocked(stored)
	s.logger.Info(ctx, "moment added", "moment_id", stored.ID, "user_id", stored.UserID, "type", string(stored.Type))
	s.persistLocked(ctx)

	return stored.Clone(), nil
}

// TimelineMoments returns the moments of the logged-in user and their
// friends, newest first. It is empty when nobody is logged in.
func (s *Store) TimelineMoments() []*models.Moment {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.currentLocked()
	if u == nil {
		return nil
	}

	visible := make(map[string]struct{}, u.FriendCount()+1)
	visible[u.ID] = struct{}{}
	for _, id := range u.FriendIDs() {
		visible[id] = struct{}{}
	}

	return s.collectLocked(func(m *models.Moment) bool {
		_, ok := visible[m.UserID]
		return ok
	})
}

// UserMoments returns every moment authored by userID, newest first.
func (s *Store) UserMoments(userID string) []*models.Moment {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collectLocked(func(m *models.Moment) bool {
		return m.UserID == userID
	})
}

// ClearAllData wipes the data file and managed images, logs out, recreates
// the bootstrap sample and saves it. The reset happens even when the wipe
// fails; the wipe error is returned afterwards.
func (s *Store) ClearAllData(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wipeErr := s.persister.Wipe(ctx)
	if wipeErr != nil {
		s.logger.Error(ctx, "wipe failed", "error", wipeErr)
		wipeErr = fmt.Errorf("wipe: %w", wipeErr)
	}

	s.seedLocked()
	s.logger.Info(ctx, "data reset to bootstrap sample")
	s.persistLocked(ctx)

	return wipeErr
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Users:    len(s.users),
		Moments:  len(s.moments),
		LoggedIn: s.currentLocked() != nil,
	}
}

// Metrics returns the instruments the store reports to.
func (s *Store) Metrics() *metrics.Metrics {
	return s.metrics
}

func (s *Store) currentLocked() *models.User {
	if s.sessionID == "" {
		return nil
	}
	return s.byID[s.sessionID]
}

func (s *Store) findByUsernameLocked(username string) *models.User {
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u
		}
	}
	return nil
}

func (s *Store) insertUserLocked(u *models.User) {
	s.users = append(s.users, u)
	s.byID[u.ID] = u
}

func (s *Store) prependMomentLocked(m *models.Moment) {
	s.moments = slices.Insert(s.moments, 0, m)
}

// collectLocked clones matching moments sorted newest first. The sort is
// stable so equal timestamps keep storage order.
func (s *Store) collectLocked(keep func(*models.Moment) bool) []*models.Moment {
	var out []*models.Moment
	for _, m := range s.moments {
		if keep(m) {
			out = append(out, m.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Moment) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out
}

// applyLocked replaces the collections with a decoded snapshot. The session
// id is left for the caller to re-resolve.
func (s *Store) applyLocked(snap codec.Snapshot) {
	s.users = make([]*models.User, 0, len(snap.Users))
	s.byID = make(map[string]*models.User, len(snap.Users))
	for _, u := range snap.Users {
		if _, dup := s.byID[u.ID]; dup {
			continue
		}
		s.insertUserLocked(u)
	}
	s.moments = slices.Clone(snap.Moments)
}

// persistLocked writes the full state. A data file that failed to load is
// set aside first, and nothing is written while that fails. Failures are
// logged and counted; the baseline only moves after a successful write.
func (s *Store) persistLocked(ctx context.Context) {
	s.updateGaugesLocked()
	if s.setAsidePending {
		path, err := s.persister.SetAside(ctx)
		if err != nil {
			s.metrics.ObserveSave(err)
			s.logger.Error(ctx, "unreadable data file could not be set aside, save skipped", "error", err)
			return
		}
		s.setAsidePending = false
		s.loadStatus.SetAsidePath = path
	}

	err := s.persister.Save(ctx, codec.Snapshot{Users: s.users, Moments: s.moments})
	s.metrics.ObserveSave(err)
	if err != nil {
		s.logger.Error(ctx, "save failed", "error", err)
		return
	}
	s.detector.RecordBaseline()
}

func (s *Store) updateGaugesLocked() {
	s.metrics.SetCounts(len(s.users), len(s.moments))
}
