package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"github.com/ManuGH/stemsplit/internal/log"
)

const spoolSuffix = ".part"

// Spool keeps selected files on disk between selection and upload.
type Spool struct {
	dir string
}

// NewSpool creates the spool directory if needed.
func NewSpool(dir string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Spool{dir: dir}, nil
}

// Dir returns the spool directory.
func (s *Spool) Dir() string { return s.dir }

// Store copies at most maxBytes from r into a new spool file. The file only
// becomes visible once fully written.
func (s *Spool) Store(sessionID string, r io.Reader, maxBytes int64) (string, int64, error) {
	name := filepath.Base(sessionID) + "-" + uuid.NewString() + spoolSuffix
	path := filepath.Join(s.dir, name)

	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600), renameio.WithTempDir(s.dir))
	if err != nil {
		return "", 0, fmt.Errorf("create spool file: %w", err)
	}
	defer func() { _ = pf.Cleanup() }()

	n, err := io.Copy(pf, io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", 0, fmt.Errorf("write spool file: %w", err)
	}
	if n > maxBytes {
		return "", 0, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, maxBytes)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return "", 0, fmt.Errorf("commit spool file: %w", err)
	}
	return path, n, nil
}

// Open opens a spooled file for reading.
func (s *Spool) Open(path string) (*os.File, error) {
	if !s.owns(path) {
		return nil, fmt.Errorf("path %q is outside the spool", path)
	}
	// #nosec G304 -- path is produced by Store and confined to the spool dir
	return os.Open(path)
}

// Remove deletes a spooled file. Missing files are ignored.
func (s *Spool) Remove(path string) {
	if path == "" || !s.owns(path) {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger := log.WithComponent("spool")
		logger.Warn().Err(err).Str(log.FieldPath, path).Msg("failed to remove spool file")
	}
}

// Purge removes leftovers from a previous run.
func (s *Spool) Purge() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read spool dir: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), spoolSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *Spool) owns(path string) bool {
	rel, err := filepath.Rel(s.dir, filepath.Clean(path))
	return err == nil && !strings.HasPrefix(rel, "..") && !strings.ContainsRune(rel, filepath.Separator)
}
