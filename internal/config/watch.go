package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Watch reloads the configuration whenever file is written, created or
// renamed into place. The directory is watched rather than the file so
// editors that replace the file on save keep working. Invalid revisions are
// logged and skipped. Only the latest revision is kept when the reader falls
// behind. The channel is closed when ctx ends.
func Watch(ctx context.Context, cmd *cobra.Command, file string, log zerolog.Logger) (<-chan Config, error) {
	if file == "" {
		return nil, fmt.Errorf("watch config: no file")
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch config: %w", err)
	}

	out := make(chan Config, 1)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				c, err := Load(cmd, abs)
				if err != nil {
					log.Warn().Err(err).Str("file", abs).Msg("config reload failed")
					continue
				}
				log.Info().Str("file", abs).Int("regions", len(c.Regions)).Msg("config reloaded")
				publish(out, c)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("config watcher error")
			}
		}
	}()
	return out, nil
}

// publish replaces any unread revision with c.
func publish(out chan Config, c Config) {
	for {
		select {
		case out <- c:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}
