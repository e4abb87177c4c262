package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/hailam/tapedeck/internal/position"
	"github.com/hailam/tapedeck/internal/replay"
	"github.com/hailam/tapedeck/internal/storage"
	"github.com/hailam/tapedeck/internal/tape"
	"github.com/hailam/tapedeck/internal/usi"
)

type memBoxes struct {
	tapes map[string][]tape.Tracks
	sess  *storage.Session
}

func newMemBoxes() *memBoxes {
	return &memBoxes{tapes: make(map[string][]tape.Tracks)}
}

func (m *memBoxes) SaveTape(box string, t *tape.Tape, _ string) (int, error) {
	m.tapes[box] = append(m.tapes[box], tape.EncodeTracks(t.Store()))
	return len(m.tapes[box]) - 1, nil
}

func (m *memBoxes) LoadTape(box string, index int) (*tape.Tape, error) {
	tracks := m.tapes[box]
	if index < 0 || index >= len(tracks) {
		return nil, storage.ErrBoxNotFound
	}
	s, err := tracks[index].Decode()
	if err != nil {
		return nil, err
	}
	return tape.FromStore(s), nil
}

func (m *memBoxes) SaveSession(sess *storage.Session) error {
	m.sess = sess
	return nil
}

func (m *memBoxes) LoadSession() (*storage.Session, error) {
	return m.sess, nil
}

func run(t *testing.T, sh *Shell, out *bytes.Buffer, script string) []string {
	t.Helper()
	out.Reset()
	if err := sh.Run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

func afterMoves(t *testing.T, line string) *position.Position {
	t.Helper()
	pos := position.NewStartPosition()
	moves, err := usi.ParseLine(line)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := usi.Convert(pos, moves, 1); err != nil {
		t.Fatal(err)
	}
	return pos
}

func TestShellRecordAndUndo(t *testing.T) {
	var out bytes.Buffer
	sh := New(replay.NewDefault(), nil, &out, nil)

	lines := run(t, sh, &out, `
usi 7g7f 3c3d
ply
bestmove
undo
ply
`)
	want := []string{
		"recorded 8",
		"ply 3",
		"bestmove 3c3d",
		"undone [2] 3c#35 3d#35 [3]",
		"ply 2",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("output:\n%s\nwant:\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}
	if !sh.Position().Equal(afterMoves(t, "7g7f")) {
		t.Errorf("position after undo:\n%s", sh.Position())
	}
}

func TestShellRecordRejected(t *testing.T) {
	var out bytes.Buffer
	sh := New(replay.NewDefault(), nil, &out, nil)

	lines := run(t, sh, &out, "record [1] 7g#26 7f#26 [2]\nrecord 5e\n")
	if lines[0] != "recorded 4" {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "error: ") || !strings.Contains(lines[1], "5e") {
		t.Errorf("expected rejection error, got %q", lines[1])
	}
	if got := sh.Deck().Learning.Len(); got != 4 {
		t.Errorf("learning length = %d, want 4", got)
	}
	if got := sh.Deck().Learning.Caret().Position(); got != 4 {
		t.Errorf("caret = %d, want 4", got)
	}
}

func TestShellRecordRejectedKeepsTail(t *testing.T) {
	var out bytes.Buffer
	sh := New(replay.NewDefault(), nil, &out, nil)

	run(t, sh, &out, "usi 7g7f\nturn\nscrub 2\nturn\n")
	before := sh.Deck().Learning.Sign()
	if got := sh.Deck().Learning.Caret().Position(); got != 2 {
		t.Fatalf("caret = %d, want 2", got)
	}

	// The pawn is held, so touching the occupied 3c is refused.
	lines := run(t, sh, &out, "record 3c\n")
	if !strings.HasPrefix(lines[0], "error: ") {
		t.Errorf("expected rejection error, got %q", lines[0])
	}
	if got := sh.Deck().Learning.Sign(); got != before {
		t.Errorf("learning = %q, want %q", got, before)
	}
	if got := sh.Deck().Learning.Caret().Position(); got != 2 {
		t.Errorf("caret = %d, want 2", got)
	}
}

func TestShellBackAndScrub(t *testing.T) {
	var out bytes.Buffer
	sh := New(replay.NewDefault(), nil, &out, nil)

	run(t, sh, &out, "usi 7g7f\nback 2\n")
	if sh.Deck().Learning.Len() != 2 {
		t.Fatalf("learning length = %d, want 2", sh.Deck().Learning.Len())
	}
	if sh.Position().Fingertip().IsEmpty() {
		t.Fatal("expected the pawn to be held after backing over 7f")
	}

	// Turning and scrubbing over 7g puts the pawn back without deleting.
	run(t, sh, &out, "turn\nscrub 1\n")
	if !sh.Position().Equal(position.NewStartPosition()) {
		t.Errorf("position after scrubbing back:\n%s", sh.Position())
	}
	if sh.Deck().Learning.Len() != 2 {
		t.Errorf("scrubbing must not delete, length = %d", sh.Deck().Learning.Len())
	}
}

func TestShellTrainingDeck(t *testing.T) {
	var out bytes.Buffer
	boxes := newMemBoxes()
	sh := New(replay.NewDefault(), boxes, &out, nil)

	lines := run(t, sh, &out, "usi 7g7f 3c3d\nsave games\nnew\nload games 0\n")
	if lines[1] != "saved games/0" || lines[3] != "loaded games/0: 8 notes" {
		t.Fatalf("unexpected output: %q", lines)
	}

	lines = run(t, sh, &out, "step all\nbestmove\n")
	if len(lines) != 4 {
		t.Fatalf("expected two moves, an overflow and a best move, got %q", lines)
	}
	if !strings.HasPrefix(lines[0], "Closed") || !strings.HasPrefix(lines[1], "Closed") || lines[2] != "Overflow" {
		t.Errorf("unexpected step output: %q", lines)
	}
	if lines[3] != "bestmove 3c3d" {
		t.Errorf("bestmove line = %q", lines[3])
	}

	lines = run(t, sh, &out, "rewind\n")
	if lines[0] != "rewound [2] 3c#35 3d#35 [3]" {
		t.Errorf("rewind line = %q", lines[0])
	}
	if got := sh.Deck().Training.Caret().Position(); got != 4 {
		t.Errorf("training caret = %d, want 4", got)
	}

	run(t, sh, &out, "session save\nnew\nsession load\n")
	if got := sh.Deck().Learning.Len(); got != 4 {
		t.Errorf("restored learning length = %d, want 4", got)
	}
	if got := sh.Deck().Training.Caret().Position(); got != 4 {
		t.Errorf("restored training caret = %d, want 4", got)
	}
	if !sh.Position().Equal(afterMoves(t, "7g7f")) {
		t.Errorf("restored position:\n%s", sh.Position())
	}
}

func TestShellErrors(t *testing.T) {
	var out bytes.Buffer
	sh := New(replay.NewDefault(), nil, &out, nil)

	lines := run(t, sh, &out, "frobnicate\nsave games\nback x\nquit\nply\n")
	if len(lines) != 3 {
		t.Fatalf("expected three errors and nothing after quit, got %q", lines)
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "error: ") {
			t.Errorf("expected error line, got %q", l)
		}
	}
}

func TestPrinterTape(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)

	tp := tape.New()
	if p.Tape(tp) != ">" {
		t.Errorf("empty tape = %q", p.Tape(tp))
	}

	m, err := tape.ParseMove("[1] 7g 7f [2]")
	if err != nil {
		t.Fatal(err)
	}
	if err := tape.NewEditor(tp).RecordMove(m); err != nil {
		t.Fatal(err)
	}
	if got := p.Tape(tp); got != "[1] 7g 7f [2] >" {
		t.Errorf("tape at end = %q", got)
	}
	tp.Caret().LookBack()
	if got := p.Tape(tp); got != "[1] 7g 7f <[2]" {
		t.Errorf("tape looking back = %q", got)
	}
}
