// File: internal/observability/follow.go
package observability

import (
	"context"
	"fmt"
	"io"

	"github.com/hpcloud/tail"
)

// FollowOptions controls how Follow reads a log file.
type FollowOptions struct {
	// Follow keeps reading as the file grows, surviving rotation.
	Follow bool
	// FromStart replays the existing contents before new lines. When false
	// and Follow is set, only lines written after the call are delivered.
	FromStart bool
}

// Follow streams the lines of path to handle until the file is exhausted
// (when not following), ctx is cancelled, or handle returns an error.
func Follow(ctx context.Context, path string, opts FollowOptions, handle func(line string) error) error {
	cfg := tail.Config{
		Follow:    opts.Follow,
		ReOpen:    opts.Follow,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	}
	if opts.Follow && !opts.FromStart {
		cfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	defer func() {
		t.Stop()
		t.Cleanup()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				// The channel closes at EOF when not following.
				return nil
			}
			if line.Err != nil {
				return fmt.Errorf("failed to read log line: %w", line.Err)
			}
			if err := handle(line.Text); err != nil {
				return err
			}
		}
	}
}
