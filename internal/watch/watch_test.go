package watch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func newFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	return path
}

func TestMTimeDetector_MissingFileNeverChanges(t *testing.T) {
	d := NewMTimeDetector(filepath.Join(t.TempDir(), "absent.json"))

	require.False(t, d.HasExternalChange())
	d.RecordBaseline()
	require.False(t, d.HasExternalChange())
	require.True(t, d.Baseline().IsZero())
}

func TestMTimeDetector_NoChangeAfterBaseline(t *testing.T) {
	path := newFile(t)
	d := NewMTimeDetector(path)
	d.RecordBaseline()

	require.False(t, d.HasExternalChange())
	require.False(t, d.HasExternalChange())
}

func TestMTimeDetector_ExistingFileBeforeBaseline(t *testing.T) {
	d := NewMTimeDetector(newFile(t))

	require.True(t, d.HasExternalChange())
}

func TestMTimeDetector_ReportsEachAdvanceOnce(t *testing.T) {
	path := newFile(t)
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	touch(t, path, base)

	d := NewMTimeDetector(path)
	d.RecordBaseline()
	require.Equal(t, base, d.Baseline().Truncate(time.Second))

	touch(t, path, base.Add(2*time.Second))
	require.True(t, d.HasExternalChange())
	require.False(t, d.HasExternalChange(), "same advance must be reported once")

	touch(t, path, base.Add(4*time.Second))
	require.True(t, d.HasExternalChange())
	require.False(t, d.HasExternalChange())

	d.RecordBaseline()
	require.False(t, d.HasExternalChange())
}

func TestMTimeDetector_OlderTimeIsNotAChange(t *testing.T) {
	path := newFile(t)
	base := time.Now().Truncate(time.Second)
	touch(t, path, base)

	d := NewMTimeDetector(path)
	d.RecordBaseline()

	touch(t, path, base.Add(-time.Minute))
	require.False(t, d.HasExternalChange())
}

func TestMTimeDetector_StatErrorFailsClosed(t *testing.T) {
	d := NewMTimeDetector("whatever")
	d.stat = func(string) (fs.FileInfo, error) {
		return nil, errors.New("permission denied")
	}

	require.False(t, d.HasExternalChange())
	d.RecordBaseline()
	require.True(t, d.Baseline().IsZero())
}
