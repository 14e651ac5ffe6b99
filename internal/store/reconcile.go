package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pathsocial/internal/notify"
)

// State is the phase the reconciler is in.
type State int32

const (
	StateIdle State = iota
	StateChecking
	StateReloading
	StateNotifying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateReloading:
		return "reloading"
	case StateNotifying:
		return "notifying"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ChangeEvent is published after the state was reloaded from a file written
// by another process.
type ChangeEvent struct {
	At time.Time
	// SessionEnded is set when the logged-in user no longer exists in the
	// reloaded data and the session was cleared.
	SessionEnded bool
}

// Subscribe registers for change events. Delivery never blocks the
// reconciler: a subscriber that has not consumed its pending event misses
// later ones until it does.
func (s *Store) Subscribe() *notify.Subscription[ChangeEvent] {
	return s.events.Subscribe()
}

func (s *Store) Unsubscribe(sub *notify.Subscription[ChangeEvent]) {
	s.events.Unsubscribe(sub)
}

// State returns the current reconciler phase.
func (s *Store) State() State {
	return State(s.state.Load())
}

func (s *Store) setState(st State) {
	s.state.Store(int32(st))
}

// Reconcile runs one check. When the data file was changed by someone else
// it reloads it, re-resolves the session by user id, publishes a ChangeEvent
// and reports true. A failed reload keeps the current state. Nothing is
// reloaded or published once ctx is done.
func (s *Store) Reconcile(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.setState(StateChecking)
	defer s.setState(StateIdle)

	ev, changed, err := s.reload(ctx)
	if err != nil || !changed {
		return false, err
	}

	if err := ctx.Err(); err != nil {
		return true, err
	}
	s.setState(StateNotifying)
	n := s.events.Publish(ev)
	s.logger.Debug(ctx, "change event published", "delivered", n, "session_ended", ev.SessionEnded)

	return true, nil
}

func (s *Store) reload(ctx context.Context) (ChangeEvent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.detector.HasExternalChange() {
		return ChangeEvent{}, false, nil
	}

	s.setState(StateReloading)
	snap, _, err := s.persister.Load(ctx)
	s.metrics.ObserveReload(err)
	if err != nil {
		s.logger.Warn(ctx, "reload failed, keeping current state", "error", err)
		return ChangeEvent{}, false, fmt.Errorf("reload: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return ChangeEvent{}, false, err
	}

	s.applyLocked(snap)
	s.setAsidePending = false
	s.detector.RecordBaseline()
	s.updateGaugesLocked()

	ev := ChangeEvent{At: s.now()}
	if s.sessionID != "" && s.byID[s.sessionID] == nil {
		s.logger.Info(ctx, "session user removed by external change, logged out", "user_id", s.sessionID)
		s.sessionID = ""
		ev.SessionEnded = true
	}
	s.logger.Info(ctx, "external change reloaded", "users", len(s.users), "moments", len(s.moments))

	return ev, true, nil
}

// Watch calls Reconcile every interval until ctx is done. Errors are logged
// and the loop keeps going.
func (s *Store) Watch(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Debug(ctx, "watching for external changes", "interval", interval)
	for {
		select {
		case <-ticker.C:
			if _, err := s.Reconcile(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn(ctx, "reconcile failed", "error", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
