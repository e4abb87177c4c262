package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a file must stay quiet before it is imported.
const settleDelay = 200 * time.Millisecond

// Watch imports every .usi or .csa file created or written in dir into box
// until ctx is cancelled. Writes are collected until the directory has been
// quiet for settleDelay so a file written in pieces is imported once.
func (l *Library) Watch(ctx context.Context, box, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	l.logger.Info("watcher: started", slog.String("inbox", dir), slog.String("box", box))

	pending := make(map[string]struct{})
	var settle *time.Timer
	var settleCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			l.logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			l.importPending(ctx, box, paths)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isRecord(ev.Name) || ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			pending[ev.Name] = struct{}{}
			if settle == nil {
				settle = time.NewTimer(settleDelay)
				settleCh = settle.C
			} else {
				settle.Reset(settleDelay)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// importPending imports files one by one so a bad record does not hold back
// the others.
func (l *Library) importPending(ctx context.Context, box string, paths []string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if _, err := l.Import(ctx, box, []string{p}); err != nil {
			l.logger.Warn("watcher: import failed",
				slog.String("path", filepath.Base(p)), slog.String("error", err.Error()))
		}
	}
}
