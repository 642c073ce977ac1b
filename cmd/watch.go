package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitecheck/internal/config"
)

const watchDebounce = 500 * time.Millisecond

// watchSuite runs the suite, then runs it again whenever a scenario file
// changes, until ctx is cancelled. Failed runs do not stop the loop.
func watchSuite(ctx context.Context, cfg *config.Config, opts runOptions, logger *zap.Logger, out io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	dirs := watchDirs(append(append([]string{}, cfg.Scenarios.Paths...), opts.files...))
	if len(dirs) == 0 {
		return errors.New("--watch needs at least one scenario path (--file or scenarios.paths)")
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	logger.Info("Watching scenario files.", zap.Strings("dirs", dirs))

	runOnce := func() {
		if _, err := runSuite(ctx, cfg, opts, logger, out); err != nil && !errors.Is(err, ErrScenariosFailed) {
			logger.Error("Scenario run failed.", zap.Error(err))
		}
	}
	runOnce()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isScenarioFile(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("Scenario file changed.", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			debounce = time.After(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error.", zap.Error(err))
		case <-debounce:
			debounce = nil
			runOnce()
		}
	}
}

// watchDirs returns the directories to watch: each path if it is a
// directory, its parent otherwise, so editors that replace files are seen.
func watchDirs(paths []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, p := range paths {
		dir := p
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			dir = filepath.Dir(p)
		}
		dir = filepath.Clean(dir)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs
}

func isScenarioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
