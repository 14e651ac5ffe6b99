package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/pathsocial/internal/codec"
	"github.com/dmitrijs2005/pathsocial/internal/logging"
	"github.com/dmitrijs2005/pathsocial/internal/models"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := New(filepath.Join(t.TempDir(), ".pathsocial"), logging.Discard())
	require.NoError(t, err)
	return m
}

func TestNew_CreatesDirectories(t *testing.T) {
	m := newManager(t)

	fi, err := os.Stat(m.ImagesDir())
	require.NoError(t, err)
	require.True(t, fi.IsDir())
	require.Equal(t, DataFileName, filepath.Base(m.DataPath()))
	require.Equal(t, filepath.Dir(m.DataPath()), filepath.Dir(m.ImagesDir()))
}

func TestLoad_NoDataFile(t *testing.T) {
	m := newManager(t)

	_, _, err := m.Load(context.Background())
	require.ErrorIs(t, err, ErrNoData)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	u := models.NewUser("bob", "pw", "Bob")
	mo := models.RestoreMoment("m1", u.ID, models.MomentTypeMusic, "Song X", "", time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local))
	require.NoError(t, m.Save(ctx, codec.Snapshot{Users: []*models.User{u}, Moments: []*models.Moment{mo}}))

	snap, report, err := m.Load(ctx)
	require.NoError(t, err)
	require.True(t, report.Clean())
	require.Len(t, snap.Users, 1)
	require.Equal(t, u.ID, snap.Users[0].ID)
	require.Len(t, snap.Moments, 1)
	require.Equal(t, "Song X", snap.Moments[0].Content)
}

func TestLoad_MalformedIsDistinguishableFromFresh(t *testing.T) {
	m := newManager(t)
	require.NoError(t, os.WriteFile(m.DataPath(), []byte(`{"users": [`), 0o600))

	_, _, err := m.Load(context.Background())
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNoData))
	require.True(t, errors.Is(err, codec.ErrMalformedDocument))
}

func TestCopyImage(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	srcDir := t.TempDir()

	t.Run("keeps extension and source", func(t *testing.T) {
		src := filepath.Join(srcDir, "beach.png")
		require.NoError(t, os.WriteFile(src, []byte("png"), 0o600))

		dst, err := m.CopyImage(ctx, src)
		require.NoError(t, err)
		assert.Equal(t, m.ImagesDir(), filepath.Dir(dst))
		assert.Equal(t, ".png", filepath.Ext(dst))
		assert.NotEqual(t, "beach", strings.TrimSuffix(filepath.Base(dst), ".png"))

		b, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "png", string(b))
		_, err = os.Stat(src)
		assert.NoError(t, err, "source must stay in place")
	})

	t.Run("defaults to jpg", func(t *testing.T) {
		src := filepath.Join(srcDir, "noext")
		require.NoError(t, os.WriteFile(src, []byte("raw"), 0o600))

		dst, err := m.CopyImage(ctx, src)
		require.NoError(t, err)
		assert.Equal(t, ".jpg", filepath.Ext(dst))
	})

	t.Run("unique names", func(t *testing.T) {
		src := filepath.Join(srcDir, "same.gif")
		require.NoError(t, os.WriteFile(src, []byte("gif"), 0o600))

		a, err := m.CopyImage(ctx, src)
		require.NoError(t, err)
		b, err := m.CopyImage(ctx, src)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("managed path unchanged", func(t *testing.T) {
		src := filepath.Join(srcDir, "x.jpg")
		require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))
		managed, err := m.CopyImage(ctx, src)
		require.NoError(t, err)

		again, err := m.CopyImage(ctx, managed)
		require.NoError(t, err)
		assert.Equal(t, managed, again)
	})

	t.Run("missing source keeps original path", func(t *testing.T) {
		src := filepath.Join(srcDir, "gone.jpg")

		got, err := m.CopyImage(ctx, src)
		require.Error(t, err)
		assert.Equal(t, src, got)
	})

	t.Run("empty path", func(t *testing.T) {
		got, err := m.CopyImage(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestWipe(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	require.NoError(t, m.Save(ctx, codec.Snapshot{}))
	require.NoError(t, os.WriteFile(filepath.Join(m.ImagesDir(), "a.jpg"), []byte("a"), 0o600))

	require.NoError(t, m.Wipe(ctx))

	_, err := os.Stat(m.DataPath())
	require.True(t, errors.Is(err, os.ErrNotExist))
	entries, err := os.ReadDir(m.ImagesDir())
	require.NoError(t, err)
	require.Empty(t, entries)

	require.NoError(t, m.Wipe(ctx), "wiping twice is fine")
}

func TestSetAside(t *testing.T) {
	ctx := context.Background()

	t.Run("no document", func(t *testing.T) {
		m := newManager(t)
		path, err := m.SetAside(ctx)
		require.NoError(t, err)
		assert.Empty(t, path)
	})

	t.Run("document renamed and kept", func(t *testing.T) {
		m := newManager(t)
		garbage := []byte(`{"users": [`)
		require.NoError(t, os.WriteFile(m.DataPath(), garbage, 0o600))

		path, err := m.SetAside(ctx)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(filepath.Base(path), DataFileName+".corrupt-"), path)
		assert.Equal(t, filepath.Dir(m.DataPath()), filepath.Dir(path))

		kept, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, garbage, kept)

		_, _, err = m.Load(ctx)
		assert.ErrorIs(t, err, ErrNoData)
	})
}
