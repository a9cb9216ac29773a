// Package staging owns the private per-attempt directories a conversion works in.
package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	framesDirName = "frames"
	sourceDirName = "source"
	fallbackVideo = "video"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Area is the directory tree of one conversion attempt.
type Area struct {
	Root string
}

// SourceDir holds the downloaded video, apart from frames and archive.
func (a Area) SourceDir() string {
	return filepath.Join(a.Root, sourceDirName)
}

// VideoPath is where the downloaded source video is written. Names that do not resolve to a
// plain file name, such as "." or "..", fall back to a fixed one.
func (a Area) VideoPath(fileName string) string {
	base := filepath.Base(fileName)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		base = fallbackVideo
	}
	return filepath.Join(a.SourceDir(), base)
}

func (a Area) FramesDir() string {
	return filepath.Join(a.Root, framesDirName)
}

func (a Area) ArchivePath(archiveName string) string {
	return filepath.Join(a.Root, filepath.Base(archiveName))
}

type Manager struct {
	baseDir string
	logger  *zap.Logger
	now     func() time.Time
}

func NewManager(baseDir string, logger *zap.Logger) *Manager {
	return &Manager{baseDir: baseDir, logger: logger, now: time.Now}
}

// NewArea names a fresh staging area for userID. Nothing is created on disk.
// The uuid suffix keeps two attempts started in the same millisecond for the same user apart.
func (m *Manager) NewArea(userID string) Area {
	user := unsafeChars.ReplaceAllString(userID, "_")
	name := fmt.Sprintf("%s_%s_%s", m.now().UTC().Format("20060102150405.000"), user, uuid.NewString())
	return Area{Root: filepath.Join(m.baseDir, name)}
}

// CreateDir creates path and any missing parents. Existing directories are fine.
func (m *Manager) CreateDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", path, err)
	}
	return nil
}

// RemoveTree deletes path depth-first. A missing path is not an error. A failure on one
// entry is logged and does not stop the removal of its siblings or parents; all such
// failures are returned joined.
func (m *Manager) RemoveTree(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		m.logger.Warn("stat staging path failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return m.remove(path, info)
}

func (m *Manager) remove(path string, info os.FileInfo) error {
	var errs []error

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			m.logger.Warn("read staging dir failed", zap.String("path", path), zap.Error(err))
			errs = append(errs, fmt.Errorf("read dir %s: %w", path, err))
		}
		for _, entry := range entries {
			child := filepath.Join(path, entry.Name())
			childInfo, err := entry.Info()
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				m.logger.Warn("stat staging entry failed", zap.String("path", child), zap.Error(err))
				errs = append(errs, fmt.Errorf("stat %s: %w", child, err))
				continue
			}
			if err := m.remove(child, childInfo); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.logger.Warn("remove staging entry failed", zap.String("path", path), zap.Error(err))
		errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
	}

	return errors.Join(errs...)
}
