package internal

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hailam/tapedeck/internal/config"
	"github.com/hailam/tapedeck/internal/note"
	"github.com/hailam/tapedeck/internal/tape"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewDefault()
	cfg.Log.Level = slog.LevelError
	cfg.Storage.Dir = filepath.Join(dir, "db")
	cfg.Catalog.Path = filepath.Join(dir, "catalog.db")
	cfg.Watch.Inbox = filepath.Join(dir, "inbox")
	return cfg
}

func testLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := OpenLibrary(testConfig(t), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func writeRecord(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportAndSearch(t *testing.T) {
	lib := testLibrary(t)
	dir := t.TempDir()
	a := writeRecord(t, dir, "a.usi", "7g7f 3c3d\n")
	b := writeRecord(t, dir, "b.usi", "position startpos moves 2g2f 8c8d\n7g7f\n")

	indexes, err := lib.Import(context.Background(), "games", []string{a, b})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(indexes) != 2 || indexes[0] != 0 || indexes[1] != 1 {
		t.Fatalf("indexes = %v, want [0 1]", indexes)
	}

	hits, err := lib.Search("7g7f", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits for 7g7f, got %+v", hits)
	}
	if hits[0].Source != "a.usi" || hits[0].Ply != 1 || hits[0].Match != "[1] 7g#26 7f#26 [2]" {
		t.Errorf("Unexpected first hit: %+v", hits[0])
	}
	if hits[1].Source != "b.usi" || hits[1].Ply != 3 {
		t.Errorf("Unexpected second hit: %+v", hits[1])
	}

	hits, err = lib.Search("3c 3d", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Source != "a.usi" || hits[0].Ply != 3 {
		t.Errorf("Unexpected note hits: %+v", hits)
	}
}

func TestImportFailureStoresNothing(t *testing.T) {
	lib := testLibrary(t)
	dir := t.TempDir()
	good := writeRecord(t, dir, "good.usi", "7g7f\n")
	bad := writeRecord(t, dir, "bad.usi", "7g7f 7g7f\n")

	if _, err := lib.Import(context.Background(), "games", []string{good, bad}); err == nil {
		t.Fatal("Expected import of an illegal record to fail")
	}
	boxes, err := lib.ListBoxes()
	if err != nil {
		t.Fatal(err)
	}
	if len(boxes) != 0 {
		t.Errorf("Expected no boxes after a failed import, got %+v", boxes)
	}

	if _, err := lib.Import(context.Background(), "bad/name", []string{good}); err == nil {
		t.Error("Expected invalid box name to fail")
	}
}

func TestDumpAndReindex(t *testing.T) {
	lib := testLibrary(t)
	a := writeRecord(t, t.TempDir(), "a.usi", "7g7f 3c3d\n")
	if _, err := lib.Import(context.Background(), "games", []string{a}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := lib.Dump("games", &buf); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	want := "games/0 source=a.usi ply=3 len=8\n[1] 7g#26 7f#26 [2] [2] 3c#35 3d#35 [3]\n"
	if buf.String() != want {
		t.Errorf("Dump = %q, want %q", buf.String(), want)
	}

	n, err := lib.Reindex("games")
	if err != nil || n != 1 {
		t.Fatalf("Reindex = %d, %v", n, err)
	}
	hits, _ := lib.Search("3c3d", 0)
	if len(hits) != 1 || hits[0].Ply != 2 {
		t.Errorf("Unexpected hits after reindex: %+v", hits)
	}

	if err := lib.DeleteBox("games"); err != nil {
		t.Fatal(err)
	}
	if hits, _ := lib.Search("3c3d", 0); len(hits) != 0 {
		t.Errorf("Expected no hits after delete, got %+v", hits)
	}
	if err := lib.Dump("games", &buf); err == nil {
		t.Error("Expected dump of a deleted box to fail")
	}
}

func TestSaveTapeKeepsUnreplayableTape(t *testing.T) {
	lib := testLibrary(t)

	// No opening phase change: the tape is stored but no move is indexed.
	notes, err := note.ParseLine("7g 7f")
	if err != nil {
		t.Fatal(err)
	}
	tp := tape.New()
	if err := tape.NewEditor(tp).RecordNotes(notes...); err != nil {
		t.Fatal(err)
	}

	index, err := lib.SaveTape("scratch", tp, "shell")
	if err != nil {
		t.Fatalf("SaveTape failed: %v", err)
	}
	loaded, err := lib.LoadTape("scratch", index)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Store().String() != tp.Store().String() || loaded.Caret().Position() != 0 {
		t.Errorf("loaded tape = %s", loaded)
	}

	hits, err := lib.Search("7g 7f", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Box != "scratch" || hits[0].Ply != 1 {
		t.Errorf("Unexpected hits: %+v", hits)
	}
	if hits, _ := lib.Search("7g7f", 0); len(hits) != 0 {
		t.Errorf("Expected no move hits, got %+v", hits)
	}
	if !strings.Contains(loaded.Sign(), "7g 7f") {
		t.Errorf("loaded sign = %q", loaded.Sign())
	}
}

func TestImportCSA(t *testing.T) {
	lib := testLibrary(t)
	path := writeRecord(t, t.TempDir(), "game.csa", "V2.2\n+\n+7776FU\n-3334FU\n%TORYO\n")

	if _, err := lib.Import(context.Background(), "csa", []string{path}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	hits, err := lib.Search("3c3d", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Source != "game.csa" {
		t.Errorf("Unexpected hits: %+v", hits)
	}
	if hits, _ := lib.Search("resign", 0); len(hits) != 1 || hits[0].Ply != 3 {
		t.Errorf("Expected the resignation at ply 3, got %+v", hits)
	}
}
