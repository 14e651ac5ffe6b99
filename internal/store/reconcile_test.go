package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/pathsocial/internal/models"
	"github.com/dmitrijs2005/pathsocial/internal/persistence"
)

// advance pushes the data file's modification time forward so the change is
// visible regardless of filesystem timestamp granularity.
func advance(t *testing.T, m *persistence.Manager, by time.Duration) {
	t.Helper()
	at := time.Now().Add(by)
	require.NoError(t, os.Chtimes(m.DataPath(), at, at))
}

func receive(t *testing.T, ch <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no change event")
		return ChangeEvent{}
	}
}

func assertNoEvent(t *testing.T, ch <-chan ChangeEvent) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected change event %+v", ev)
	default:
	}
}

func TestReconcile_OwnWritesAreNotExternal(t *testing.T) {
	ctx := context.Background()
	s, _ := openOnDisk(t, t.TempDir())
	sub := s.Subscribe()

	mustRegister(t, s, "dave")

	changed, err := s.Reconcile(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	assertNoEvent(t, sub.C())
	assert.Equal(t, StateIdle, s.State())
}

func TestReconcile_ExternalWrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writer, m := openOnDisk(t, dir)
	reader, _ := openOnDisk(t, dir)
	sub := reader.Subscribe()

	dave := mustRegister(t, writer, "dave")
	advance(t, m, time.Minute)

	changed, err := reader.Reconcile(ctx)
	require.NoError(t, err)
	require.True(t, changed)

	ev := receive(t, sub.C())
	assert.False(t, ev.SessionEnded)
	assert.False(t, ev.At.IsZero())

	got, err := reader.UserByID(dave.ID)
	require.NoError(t, err)
	assert.Equal(t, "dave", got.Username)

	changed, err = reader.Reconcile(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "one advance is reported once")
	assertNoEvent(t, sub.C())
}

func TestReconcile_SessionKeptWhenUserStillExists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writer, m := openOnDisk(t, dir)
	reader, _ := openOnDisk(t, dir)
	alice := mustLogin(t, reader, "alice", "password")

	mustRegister(t, writer, "dave")
	advance(t, m, time.Minute)

	changed, err := reader.Reconcile(ctx)
	require.NoError(t, err)
	require.True(t, changed)

	cur, ok := reader.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, alice.ID, cur.ID)
}

func TestReconcile_SessionEndedWhenUserRemoved(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writer, m := openOnDisk(t, dir)
	reader, _ := openOnDisk(t, dir)
	mustLogin(t, reader, "alice", "password")
	sub := reader.Subscribe()

	require.NoError(t, writer.ClearAllData(ctx))
	advance(t, m, time.Minute)

	changed, err := reader.Reconcile(ctx)
	require.NoError(t, err)
	require.True(t, changed)

	ev := receive(t, sub.C())
	assert.True(t, ev.SessionEnded)
	_, ok := reader.CurrentUser()
	assert.False(t, ok)
	assert.Empty(t, reader.TimelineMoments())
}

func TestReconcile_ReloadFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.store
	mustLogin(t, s, "alice", SamplePassword)
	before := s.Stats()
	sub := s.Subscribe()

	loadErr := errors.New("truncated read")
	f.persister.loadErr = loadErr
	f.detector.arm()

	changed, err := s.Reconcile(ctx)
	assert.ErrorIs(t, err, loadErr)
	assert.False(t, changed)
	assert.Equal(t, before, s.Stats())
	assert.Equal(t, StateIdle, s.State())
	assertNoEvent(t, sub.C())
	assert.Equal(t, 1.0, metricValue(t, f.metrics, "pathsocial_reloads_total", `result="error"`))
}

func TestReconcile_States(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.store

	var during State
	f.persister.onLoad = func() { during = s.State() }
	f.detector.arm()

	changed, err := s.Reconcile(ctx)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, StateReloading, during)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 1.0, metricValue(t, f.metrics, "pathsocial_reloads_total", `result="ok"`))
}

// Two stores share one directory. One keeps writing while the other reloads,
// reads and writes at the same time. Run with -race.
func TestReconcile_ConcurrentWithMutations(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writer, m := openOnDisk(t, dir)
	reader, _ := openOnDisk(t, dir)
	alice := mustLogin(t, reader, "alice", SamplePassword)

	const rounds = 40
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			u, err := writer.Register(ctx, fmt.Sprintf("w%d", i), "pw", "Writer")
			if !assert.NoError(t, err) {
				return
			}
			_, err = writer.AddMoment(ctx, models.NewMoment(u.ID, models.MomentTypeThought, "from writer"))
			assert.NoError(t, err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := reader.Reconcile(ctx)
			assert.NoError(t, err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := reader.AddMoment(ctx, models.NewMoment(alice.ID, models.MomentTypeThought, "from reader"))
			assert.NoError(t, err)
			_, _ = reader.Register(ctx, fmt.Sprintf("r%d", i), "pw", "Reader")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			for _, mo := range reader.TimelineMoments() {
				_, err := reader.UserByID(mo.UserID)
				assert.NoError(t, err, "timeline moment with unknown author")
			}
			reader.SearchUsers("w")
			reader.Stats()
		}
	}()

	wg.Wait()

	mustRegister(t, writer, "last")
	advance(t, m, time.Minute)
	changed, err := reader.Reconcile(ctx)
	require.NoError(t, err)
	require.True(t, changed)

	assert.Equal(t, writer.Stats().Users, reader.Stats().Users)
	assert.Equal(t, writer.Stats().Moments, reader.Stats().Moments)
	cur, ok := reader.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, alice.ID, cur.ID)
}

func TestReconcile_Cancelled(t *testing.T) {
	f := newFixture(t)
	s := f.store
	sub := s.Subscribe()
	loads := f.persister.loadCount()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.detector.arm()

	changed, err := s.Reconcile(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, changed)
	assert.Equal(t, loads, f.persister.loadCount(), "no reload after cancellation")
	assertNoEvent(t, sub.C())
}

func TestWatch(t *testing.T) {
	f := newFixture(t)
	s := f.store
	sub := s.Subscribe()
	defer s.Unsubscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, 5*time.Millisecond) }()

	f.detector.arm()
	receive(t, sub.C())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}

	loads := f.persister.loadCount()
	f.detector.arm()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, loads, f.persister.loadCount(), "no reload after the loop stopped")
	assertNoEvent(t, sub.C())
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	f := newFixture(t)
	s := f.store
	first := s.Subscribe()
	second := s.Subscribe()
	s.Unsubscribe(first)

	f.detector.arm()
	changed, err := s.Reconcile(context.Background())
	require.NoError(t, err)
	require.True(t, changed)

	_, open := <-first.C()
	assert.False(t, open)
	receive(t, second.C())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "checking", StateChecking.String())
	assert.Equal(t, "reloading", StateReloading.String())
	assert.Equal(t, "notifying", StateNotifying.String())
	assert.Equal(t, "State(9)", State(9).String())
}
