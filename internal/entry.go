// Package internal wires configuration, logging, storage and the catalog
// into the tapedeck commands.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/tapedeck/internal/shell"
	"github.com/hailam/tapedeck/internal/storage"
)

// start applies the options, builds the logger and opens the library.
func start(opts []Option) (*application, *Library, func(), error) {
	app := &application{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger, closeLog, err := newLogger(cfg.Log, app.stderr)
	if err != nil {
		return nil, nil, nil, err
	}
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("storage_dir", cfg.Storage.Dir),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.Bool("require_opening", cfg.Grouping.RequireOpening),
		slog.Int("close_after", cfg.Grouping.CloseAfter),
		slog.String("log_level", cfg.Log.Level.String()))

	lib, err := OpenLibrary(cfg, logger)
	if err != nil {
		closeLog()
		return nil, nil, nil, err
	}

	cleanup := func() {
		if err := lib.Close(); err != nil {
			logger.Error("close library", slog.String("error", err.Error()))
		}
		closeLog()
	}
	return app, lib, cleanup, nil
}

// RunShell runs the interactive shell on the configured streams.
func RunShell(ctx context.Context, opts ...Option) error {
	app, lib, cleanup, err := start(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	sh := shell.New(lib.Engine(), lib, app.stdout, slog.Default())
	return sh.Run(ctx, app.stdin)
}

// RunImport converts the game records and stores them in box.
func RunImport(ctx context.Context, box string, paths []string, opts ...Option) error {
	app, lib, cleanup, err := start(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	indexes, err := lib.Import(ctx, box, paths)
	for i, index := range indexes {
		fmt.Fprintf(app.stdout, "%s -> %s/%d\n", paths[i], box, index)
	}
	return err
}

// RunWatch imports records dropped into the inbox until interrupted.
func RunWatch(ctx context.Context, box string, opts ...Option) error {
	app, lib, cleanup, err := start(opts)
	if err != nil {
		return err
	}
	defer cleanup()
	logger := slog.Default()

	inbox := app.config.Watch.Inbox
	if inbox == "" {
		if inbox, err = storage.GetInboxDir(); err != nil {
			return fmt.Errorf("inbox dir: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return lib.Watch(gCtx, box, inbox)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Watcher error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// RunDump prints every tape of a box.
func RunDump(ctx context.Context, box string, opts ...Option) error {
	app, lib, cleanup, err := start(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	return lib.Dump(box, app.stdout)
}

// RunSearch prints the catalog hits for a pattern.
func RunSearch(ctx context.Context, pattern string, limit int, opts ...Option) error {
	app, lib, cleanup, err := start(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	hits, err := lib.Search(pattern, limit)
	if err != nil {
		return err
	}
	for _, h := range hits {
		fmt.Fprintf(app.stdout, "%s/%d\t%s\tply %d\t%s\n", h.Box, h.Index, h.Source, h.Ply, h.Match)
	}
	if len(hits) == 0 {
		fmt.Fprintln(app.stdout, "no matches")
	}
	return nil
}

// RunList prints the stored boxes.
func RunList(ctx context.Context, opts ...Option) error {
	app, lib, cleanup, err := start(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	boxes, err := lib.ListBoxes()
	if err != nil {
		return err
	}
	for _, b := range boxes {
		fmt.Fprintf(app.stdout, "%s\t%d tapes\t%s\n", b.Name, b.Tapes, b.Updated.Format("2006-01-02 15:04"))
	}
	return nil
}

// RunReindex rebuilds the catalog of a box, or of every box when box is
// empty.
func RunReindex(ctx context.Context, box string, opts ...Option) error {
	app, lib, cleanup, err := start(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	names := []string{box}
	if box == "" {
		boxes, err := lib.ListBoxes()
		if err != nil {
			return err
		}
		names = names[:0]
		for _, b := range boxes {
			names = append(names, b.Name)
		}
	}

	var errs []error
	for _, name := range names {
		n, err := lib.Reindex(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		fmt.Fprintf(app.stdout, "%s: %d tapes indexed\n", name, n)
	}
	return errors.Join(errs...)
}

// RunDelete removes a box from storage and the catalog.
func RunDelete(ctx context.Context, box string, opts ...Option) error {
	app, lib, cleanup, err := start(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := lib.DeleteBox(box); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "deleted %s\n", box)
	return nil
}
