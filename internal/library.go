package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/tapedeck/internal/catalog"
	"github.com/hailam/tapedeck/internal/config"
	"github.com/hailam/tapedeck/internal/note"
	"github.com/hailam/tapedeck/internal/position"
	"github.com/hailam/tapedeck/internal/replay"
	"github.com/hailam/tapedeck/internal/shell"
	"github.com/hailam/tapedeck/internal/storage"
	"github.com/hailam/tapedeck/internal/tape"
	"github.com/hailam/tapedeck/internal/usi"
)

// Library keeps tapes in storage boxes and mirrors them into the catalog.
type Library struct {
	store   *storage.Storage
	catalog *catalog.DB
	engine  *replay.Engine
	logger  *slog.Logger
	workers int

	// mu serializes appends so box indexes match catalog rows.
	mu sync.Mutex
}

// OpenLibrary opens the storage and catalog named by the configuration.
func OpenLibrary(cfg *config.Config, logger *slog.Logger) (*Library, error) {
	store, err := storage.Open(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	path := cfg.Catalog.Path
	if path == "" {
		if path, err = storage.GetCatalogPath(); err != nil {
			store.Close()
			return nil, fmt.Errorf("catalog path: %w", err)
		}
	}
	cat, err := catalog.Open(path)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init catalog: %w", err)
	}

	return &Library{
		store:   store,
		catalog: cat,
		engine:  replay.New(cfg.Grouping.Grouping(), logger),
		logger:  logger,
		workers: cfg.Import.Workers,
	}, nil
}

// Close closes the catalog and the storage.
func (l *Library) Close() error {
	return errors.Join(l.catalog.Close(), l.store.Close())
}

// Engine returns the replay engine built from the configured grouping.
func (l *Library) Engine() *replay.Engine {
	return l.engine
}

// SaveTape appends a tape to a box and indexes it. It returns the tape's
// index in the box.
func (l *Library) SaveTape(box string, t *tape.Tape, source string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	index, err := l.store.AppendTape(box, storage.NewTapeRecord(t, source))
	if err != nil {
		return 0, err
	}
	if err := l.index(box, index, t, source); err != nil {
		return index, err
	}
	return index, nil
}

// LoadTape loads one stored tape with its caret at 0.
func (l *Library) LoadTape(box string, index int) (*tape.Tape, error) {
	rec, err := l.store.LoadTape(box, index)
	if err != nil {
		return nil, err
	}
	return rec.Tape()
}

// SaveSession stores the shell's deck.
func (l *Library) SaveSession(sess *storage.Session) error {
	return l.store.SaveSession(sess)
}

// LoadSession loads the shell's deck, or nil when none was saved.
func (l *Library) LoadSession() (*storage.Session, error) {
	return l.store.LoadSession()
}

// ListBoxes returns the headers of every stored box.
func (l *Library) ListBoxes() ([]storage.BoxInfo, error) {
	return l.store.ListBoxes()
}

// DeleteBox removes a box from storage and the catalog.
func (l *Library) DeleteBox(box string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.DeleteBox(box); err != nil {
		return err
	}
	return l.catalog.DeleteBox(box)
}

// index replays a tape on a scratch position and writes its moves into the
// catalog. A tape that stops replaying early is indexed up to that point.
func (l *Library) index(box string, index int, t *tape.Tape, source string) error {
	scratch := tape.FromStore(t.Store())
	moves, out, err := l.engine.ReplayAll(scratch, position.NewStartPosition())
	if err != nil {
		l.logger.Warn("index: replay stopped",
			slog.String("box", box), slog.Int("index", index), slog.String("error", err.Error()))
	} else if out.Result == replay.RolledBack {
		l.logger.Warn("index: touch rejected",
			slog.String("box", box), slog.Int("index", index), slog.String("note", out.Rejected.String()))
	}

	rows := make([]catalog.MoveRow, 0, len(moves))
	for n, m := range moves {
		row := catalog.MoveRow{N: n, Sign: m.String()}
		if u, err := usi.FromMove(m); err == nil {
			row.USI = u.String()
		}
		rows = append(rows, row)
	}

	ops := make([]string, 0, t.Len())
	for _, n := range t.Store().Notes() {
		ops = append(ops, n.Op.String())
	}

	return l.catalog.Upsert(catalog.TapeRow{
		Box:    box,
		Index:  index,
		Source: source,
		Ply:    scratch.Ply(),
		Len:    t.Len(),
		Ope:    strings.Join(ops, " "),
	}, rows)
}

// Reindex rebuilds the catalog rows of a box from storage.
func (l *Library) Reindex(box string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.store.LoadBox(box)
	if err != nil {
		return 0, err
	}
	if err := l.catalog.DeleteBox(box); err != nil {
		return 0, err
	}
	for i, rec := range records {
		t, err := rec.Tape()
		if err != nil {
			return i, fmt.Errorf("tape %d: %w", i, err)
		}
		if err := l.index(box, i, t, rec.Source); err != nil {
			return i, fmt.Errorf("tape %d: %w", i, err)
		}
	}
	return len(records), nil
}

// isRecord reports whether a file name looks like a game record.
func isRecord(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".usi", ".csa":
		return true
	}
	return false
}

// ConvertFile reads a game record and converts it into a tape played from the
// start position. Files ending in .csa are read as CSA, anything else as USI
// moves. The caret is left at the end.
func ConvertFile(path string) (*tape.Tape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := usi.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var notes []note.Note
	if strings.EqualFold(filepath.Ext(path), ".csa") {
		notes, err = usi.ConvertCSA(position.NewStartPosition(), strings.NewReader(text), 1)
	} else {
		var moves []usi.Move
		if moves, err = usi.ParseFile(strings.NewReader(text)); err == nil {
			notes, err = usi.Convert(position.NewStartPosition(), moves, 1)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	t := tape.New()
	if err := tape.NewEditor(t).RecordNotes(notes...); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Import converts game records concurrently, then stores them in the box in
// the order given. It returns the box index of each file.
func (l *Library) Import(ctx context.Context, box string, paths []string) ([]int, error) {
	if err := storage.ValidateBoxName(box); err != nil {
		return nil, fmt.Errorf("box name %q: %w", box, err)
	}

	tapes := make([]*tape.Tape, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			t, err := ConvertFile(path)
			if err != nil {
				return err
			}
			tapes[i] = t
			l.logger.Debug("import: converted", slog.String("path", path), slog.Int("notes", t.Len()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	indexes := make([]int, 0, len(tapes))
	for i, t := range tapes {
		index, err := l.SaveTape(box, t, filepath.Base(paths[i]))
		if err != nil {
			return indexes, fmt.Errorf("save %s: %w", paths[i], err)
		}
		indexes = append(indexes, index)
		l.logger.Info("import: stored",
			slog.String("path", paths[i]), slog.String("box", box), slog.Int("index", index))
	}
	return indexes, nil
}

// Dump writes every tape of a box: a header line, then the notes.
func (l *Library) Dump(box string, w io.Writer) error {
	records, err := l.store.LoadBox(box)
	if err != nil {
		return err
	}

	p := shell.NewPrinter(w)
	for i, rec := range records {
		t, err := rec.Tape()
		if err != nil {
			return fmt.Errorf("tape %d: %w", i, err)
		}
		fmt.Fprintf(w, "%s/%d source=%s ply=%d len=%d\n", box, i, rec.Source, rec.Ply, rec.Len)
		fmt.Fprintln(w, p.Notes(t.Store().Notes()))
	}
	return nil
}

// Search looks a pattern up in the catalog. A USI move is matched against
// indexed moves; anything else is a run of note signs matched against
// operation tracks.
func (l *Library) Search(pattern string, limit int) ([]catalog.Hit, error) {
	pattern = strings.TrimSpace(pattern)
	if m, err := usi.Parse(pattern); err == nil {
		return l.catalog.SearchMove(m.String(), limit)
	}
	return l.catalog.SearchNotes(pattern, limit)
}
