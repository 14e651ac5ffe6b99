// Package persistence stores the social graph on disk.
//
// One installation owns a base directory holding the data document
// (DataFileName) and a directory of managed images (ImagesDirName). The
// document format is defined by package codec.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/pathsocial/internal/codec"
	"github.com/dmitrijs2005/pathsocial/internal/filex"
	"github.com/dmitrijs2005/pathsocial/internal/logging"
)

const (
	DataFileName  = "data.json"
	ImagesDirName = "images"

	defaultImageExt = ".jpg"

	// corruptSuffix is appended, with a timestamp, to a data document that
	// is moved aside.
	corruptSuffix   = ".corrupt-"
	corruptStampFmt = "20060102-150405.000"
)

// ErrNoData is returned by Load when no data file exists yet.
var ErrNoData = errors.New("no data file")

// Manager reads and writes the data document and the managed image directory.
// It holds no in-memory state besides paths, so it is safe for concurrent use;
// callers serialize writes.
type Manager struct {
	dataPath  string
	imagesDir string
	logger    logging.Logger
}

// New prepares baseDir and its image subdirectory.
func New(baseDir string, logger logging.Logger) (*Manager, error) {
	base, err := filex.EnsureDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}
	images, err := filex.EnsureDir(filepath.Join(base, ImagesDirName))
	if err != nil {
		return nil, fmt.Errorf("prepare images dir: %w", err)
	}

	return &Manager{
		dataPath:  filepath.Join(base, DataFileName),
		imagesDir: images,
		logger:    logger.With("component", "persistence"),
	}, nil
}

// DataPath is the location of the data document.
func (m *Manager) DataPath() string {
	return m.dataPath
}

// ImagesDir is the directory managed images are copied into.
func (m *Manager) ImagesDir() string {
	return m.imagesDir
}

// Save encodes the snapshot and replaces the data document atomically.
func (m *Manager) Save(ctx context.Context, snap codec.Snapshot) error {
	if err := filex.WriteFileAtomic(m.dataPath, codec.Encode(snap), 0o600); err != nil {
		return fmt.Errorf("save %s: %w", m.dataPath, err)
	}
	m.logger.Debug(ctx, "data saved", "users", len(snap.Users), "moments", len(snap.Moments))
	return nil
}

// Load reads and decodes the data document. A missing document yields
// ErrNoData; read and syntax failures are returned wrapped. Records dropped
// during decoding are logged and described in the report.
func (m *Manager) Load(ctx context.Context) (codec.Snapshot, codec.Report, error) {
	data, err := os.ReadFile(m.dataPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return codec.Snapshot{}, codec.Report{}, ErrNoData
		}
		return codec.Snapshot{}, codec.Report{}, fmt.Errorf("read %s: %w", m.dataPath, err)
	}

	snap, report, err := codec.Decode(data)
	if err != nil {
		return codec.Snapshot{}, codec.Report{}, fmt.Errorf("decode %s: %w", m.dataPath, err)
	}

	for _, skipped := range report.Skipped {
		m.logger.Warn(ctx, "record skipped", "record", skipped.Error())
	}
	for _, id := range report.Truncated {
		m.logger.Warn(ctx, "friend list truncated", "user_id", id)
	}
	m.logger.Debug(ctx, "data loaded", "users", len(snap.Users), "moments", len(snap.Moments))

	return snap, report, nil
}

// CopyImage copies src into the image directory under a fresh unique name
// that keeps the original extension (.jpg when there is none) and returns the
// new path. The source file is never modified.
//
// An empty src returns "". A path already inside the image directory is
// returned unchanged. On failure the original path is returned together with
// the error, so callers can keep referencing it.
func (m *Manager) CopyImage(ctx context.Context, src string) (string, error) {
	if src == "" {
		return "", nil
	}
	if m.isManaged(src) {
		return src, nil
	}

	dst := filepath.Join(m.imagesDir, uuid.New().String()+imageExt(src))
	if err := filex.CopyFile(src, dst); err != nil {
		return src, fmt.Errorf("copy image: %w", err)
	}

	m.logger.Debug(ctx, "image copied", "from", src, "to", dst)
	return dst, nil
}

// SetAside renames the data document to data.json.corrupt-<timestamp> so the
// next Save does not overwrite it, and returns the new path. It returns ""
// when there is no document.
func (m *Manager) SetAside(ctx context.Context) (string, error) {
	dst := m.dataPath + corruptSuffix + time.Now().Format(corruptStampFmt)
	if err := os.Rename(m.dataPath, dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("set aside %s: %w", m.dataPath, err)
	}

	m.logger.Warn(ctx, "data file set aside", "path", dst)
	return dst, nil
}

// Wipe removes the data document and every managed image.
func (m *Manager) Wipe(ctx context.Context) error {
	var errs []error
	if err := os.Remove(m.dataPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove data file: %w", err))
	}
	if err := filex.ClearDir(m.imagesDir); err != nil {
		errs = append(errs, fmt.Errorf("clear images: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	m.logger.Info(ctx, "data wiped")
	return nil
}

func (m *Manager) isManaged(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(m.imagesDir, abs)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..")
}

func imageExt(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" || ext == base || ext == "." {
		return defaultImageExt
	}
	return ext
}
