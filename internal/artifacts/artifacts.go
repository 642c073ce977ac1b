// Package artifacts stores failure diagnostics captured from a page.
package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

const (
	ScreenshotFile = "screenshot.png"
	SnapshotFile   = "dom.html.br"
)

// Store writes artifacts under dir/<run id>/<scenario>/.
type Store struct {
	dir     string
	quality int
	logger  *zap.Logger
}

var _ harness.ArtifactSink = (*Store)(nil)

// New creates a Store rooted at dir.
func New(dir string, logger *zap.Logger) *Store {
	return &Store{
		dir:     dir,
		quality: brotli.DefaultCompression,
		logger:  logger.Named("artifacts"),
	}
}

// Dir returns the directory a scenario's artifacts are written to.
func (s *Store) Dir(runID, scenario string) string {
	return filepath.Join(s.dir, safeName(runID), safeName(scenario))
}

// Capture writes a screenshot and a compressed DOM snapshot of page. Each
// capture is independent: the paths of those that succeeded are returned
// alongside the joined errors of those that did not.
func (s *Store) Capture(ctx context.Context, runID, scenario string, page harness.Page) ([]string, error) {
	dir := s.Dir(runID, scenario)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	var paths []string
	var errs []error

	if shot, err := page.Screenshot(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to capture screenshot: %w", err))
	} else {
		path := filepath.Join(dir, ScreenshotFile)
		if err := os.WriteFile(path, shot, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("failed to write screenshot: %w", err))
		} else {
			paths = append(paths, path)
		}
	}

	if content, err := page.Content(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to capture DOM: %w", err))
	} else {
		path := filepath.Join(dir, SnapshotFile)
		if err := s.writeSnapshot(path, content); err != nil {
			errs = append(errs, err)
		} else {
			paths = append(paths, path)
		}
	}

	s.logger.Debug("Captured failure artifacts.",
		zap.String("scenario", scenario),
		zap.Strings("paths", paths),
		zap.Int("errors", len(errs)))
	return paths, errors.Join(errs...)
}

func (s *Store) writeSnapshot(path, content string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	bw := brotli.NewWriterLevel(f, s.quality)
	if _, err := io.WriteString(bw, content); err != nil {
		_ = bw.Close()
		_ = f.Close()
		return fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := bw.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decompresses a DOM snapshot written by Capture.
func ReadSnapshot(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read snapshot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, brotli.NewReader(bytes.NewReader(data))); err != nil {
		return "", fmt.Errorf("failed to decompress snapshot %s: %w", path, err)
	}
	return buf.String(), nil
}

// safeName keeps a path element from escaping its parent.
func safeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
