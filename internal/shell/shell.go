// Package shell implements a line-oriented protocol for recording and
// replaying tapes interactively.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/tapedeck/internal/note"
	"github.com/hailam/tapedeck/internal/position"
	"github.com/hailam/tapedeck/internal/replay"
	"github.com/hailam/tapedeck/internal/storage"
	"github.com/hailam/tapedeck/internal/tape"
	"github.com/hailam/tapedeck/internal/usi"
)

// ErrUsage is returned for a command with missing or bad arguments.
var ErrUsage = errors.New("shell: usage")

// Boxes is where the shell saves and loads tapes and its session.
type Boxes interface {
	SaveTape(box string, t *tape.Tape, source string) (int, error)
	LoadTape(box string, index int) (*tape.Tape, error)
	SaveSession(sess *storage.Session) error
	LoadSession() (*storage.Session, error)
}

// Shell drives one deck over a physical position. The learning tape is the
// one being edited; the training tape is only read.
type Shell struct {
	engine   *replay.Engine
	deck     *replay.Deck
	position *position.Position
	box      string

	boxes   Boxes
	out     io.Writer
	printer *Printer
	logger  *slog.Logger
}

// New creates a shell writing to out. boxes may be nil, in which case the
// save and load commands fail.
func New(e *replay.Engine, boxes Boxes, out io.Writer, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Shell{
		engine:  e,
		boxes:   boxes,
		out:     out,
		printer: NewPrinter(out),
		logger:  logger,
	}
	s.reset(tape.New())
	return s
}

// reset starts over from the start position with an empty learning tape.
func (s *Shell) reset(training *tape.Tape) {
	s.position = position.NewStartPosition()
	s.deck = replay.NewDeck(s.engine, training, tape.New())
}

// Position returns the current physical position.
func (s *Shell) Position() *position.Position {
	return s.position
}

// Deck returns the shell's deck.
func (s *Shell) Deck() *replay.Deck {
	return s.deck
}

// Run reads commands from in until "quit", the end of input or ctx is done.
// Command errors are printed and do not stop the loop.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		quit, err := s.Execute(line)
		if err != nil {
			s.logger.Debug("shell: command failed", slog.String("line", line), slog.String("error", err.Error()))
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

// Execute runs one command line. It reports true when the line asks to quit.
func (s *Shell) Execute(line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}
	cmd := parts[0]
	args := parts[1:]

	var err error
	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		s.handleHelp()
	case "new":
		s.reset(tape.New())
		s.box = ""
		fmt.Fprintln(s.out, "ok")
	case "record":
		err = s.handleRecord(args)
	case "usi", "position":
		err = s.handleUSI(line)
	case "back":
		err = s.handleBack(args)
	case "undo":
		err = s.handleUndo(args)
	case "delete":
		s.handleDelete()
	case "turn":
		s.deck.Learning.Caret().LookBack()
		fmt.Fprintf(s.out, "caret %s\n", s.deck.Learning.Caret())
	case "scrub":
		err = s.handleScrub(args)
	case "step":
		err = s.handleStep(args)
	case "sync":
		err = s.handleSync(args)
	case "rewind":
		err = s.handleRewind()
	case "show", "d":
		s.handleShow()
	case "ply":
		fmt.Fprintf(s.out, "ply %d\n", s.deck.Learning.Ply())
	case "bestmove":
		err = s.handleBestMove()
	case "load":
		err = s.handleLoad(args)
	case "save":
		err = s.handleSave(args)
	case "session":
		err = s.handleSession(args)
	default:
		err = fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
	return false, err
}

func (s *Shell) handleHelp() {
	fmt.Fprintln(s.out, "new                      start over from the start position")
	fmt.Fprintln(s.out, "record <note>...         record notes onto the learning tape and touch them")
	fmt.Fprintln(s.out, "usi <move>...            convert USI moves into notes and record them")
	fmt.Fprintln(s.out, "back [n]                 undo n notes")
	fmt.Fprintln(s.out, "undo [n]                 undo n moves")
	fmt.Fprintln(s.out, "delete                   drop the notes ahead of the caret")
	fmt.Fprintln(s.out, "turn                     look back along the learning tape")
	fmt.Fprintln(s.out, "scrub [n]                touch n notes along the learning tape")
	fmt.Fprintln(s.out, "step [n|all]             replay moves from the training tape")
	fmt.Fprintln(s.out, "sync <n>                 copy n notes from the training tape")
	fmt.Fprintln(s.out, "rewind                   take back the last learned move")
	fmt.Fprintln(s.out, "show                     print the position and both tapes")
	fmt.Fprintln(s.out, "ply                      print the current ply")
	fmt.Fprintln(s.out, "bestmove                 print the last learned move in USI form")
	fmt.Fprintln(s.out, "load <box> <index>       load a stored tape for training")
	fmt.Fprintln(s.out, "save [box]               store the learning tape")
	fmt.Fprintln(s.out, "session save|load        persist or restore this deck")
	fmt.Fprintln(s.out, "quit")
}

// count parses an optional repeat count.
func count(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: bad count %q", ErrUsage, args[0])
	}
	return n, nil
}

// handleRecord touches the board with each note and records the accepted
// ones. A rejected note is not recorded and stops the command.
func (s *Shell) handleRecord(args []string) error {
	notes, err := note.ParseLine(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		return fmt.Errorf("%w: record <note>...", ErrUsage)
	}

	ed := tape.NewEditor(s.deck.Learning)
	for i, n := range notes {
		if !s.position.Touch(n) {
			return fmt.Errorf("%w: %s (recorded %d of %d)", replay.ErrIllegalTouch, n, i, len(notes))
		}
		if err := ed.RecordNote(n); err != nil {
			s.position.Touch(n)
			return err
		}
	}
	fmt.Fprintf(s.out, "recorded %d\n", len(notes))
	return nil
}

// handleUSI converts USI moves at the current ply and records their notes.
func (s *Shell) handleUSI(line string) error {
	moves, err := usi.ParseLine(strings.TrimPrefix(line, "usi"))
	if err != nil {
		return err
	}
	if len(moves) == 0 {
		return fmt.Errorf("%w: usi <move>...", ErrUsage)
	}

	notes, convErr := usi.Convert(s.position, moves, s.deck.Learning.Ply())
	if err := tape.NewEditor(s.deck.Learning).RecordNotes(notes...); err != nil {
		return err
	}
	if convErr != nil {
		return convErr
	}
	fmt.Fprintf(s.out, "recorded %d\n", len(notes))
	return nil
}

func (s *Shell) handleBack(args []string) error {
	n, err := count(args, 1)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		nt, ok, err := s.engine.UndoNote(s.deck.Learning, s.position)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		fmt.Fprintf(s.out, "undone %s\n", s.printer.Note(nt))
	}
	return nil
}

func (s *Shell) handleUndo(args []string) error {
	n, err := count(args, 1)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		undone, err := s.engine.UndoMove(s.deck.Learning, s.position)
		if err != nil {
			return err
		}
		if len(undone) == 0 {
			break
		}
		fmt.Fprintf(s.out, "undone %s\n", s.printer.Notes(undone))
	}
	return nil
}

func (s *Shell) handleDelete() {
	n, ok := tape.NewEditor(s.deck.Learning).DeleteOneNote()
	if !ok {
		fmt.Fprintln(s.out, "nothing to delete")
		return
	}
	fmt.Fprintf(s.out, "deleted from %s\n", s.printer.Note(n))
}

func (s *Shell) handleScrub(args []string) error {
	n, err := count(args, 1)
	if err != nil {
		return err
	}
	done, err := s.engine.ForceNotes(s.deck.Learning, s.position, n)
	fmt.Fprintf(s.out, "scrubbed %d, caret %s\n", done, s.deck.Learning.Caret())
	return err
}

func (s *Shell) handleStep(args []string) error {
	n := 1
	if len(args) > 0 && args[0] == "all" {
		n = -1
	} else {
		var err error
		if n, err = count(args, 1); err != nil {
			return err
		}
	}

	for i := 0; n < 0 || i < n; i++ {
		out, err := s.deck.Step(s.position)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s\n", out)
		if out.Result != replay.Closed {
			break
		}
	}
	return nil
}

func (s *Shell) handleSync(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: sync <n>", ErrUsage)
	}
	n, err := count(args, 1)
	if err != nil {
		return err
	}
	done, err := s.deck.SyncNotes(n, s.position)
	fmt.Fprintf(s.out, "synced %d\n", done)
	return err
}

func (s *Shell) handleRewind() error {
	undone, err := s.deck.Rewind(s.position)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "rewound %s\n", s.printer.Notes(undone))
	return nil
}

func (s *Shell) handleShow() {
	fmt.Fprint(s.out, s.position.String())
	fmt.Fprintf(s.out, "training: %s\n", s.printer.Tape(s.deck.Training))
	fmt.Fprintf(s.out, "learning: %s\n", s.printer.Tape(s.deck.Learning))
	fmt.Fprintf(s.out, "ply: %d\n", s.deck.Learning.Ply())
}

// handleBestMove replays the learning tape from the start on a scratch
// position and reports the last move behind the caret in USI form.
func (s *Shell) handleBestMove() error {
	scratch := tape.FromStore(s.deck.Learning.Store())
	moves, _, err := s.engine.ReplayAll(scratch, position.NewStartPosition())
	if err != nil {
		return err
	}

	caret := s.deck.Learning.Caret().Position()
	for i := len(moves) - 1; i >= 0; i-- {
		if moves[i].Span.Max() >= caret {
			continue
		}
		m, err := usi.FromMove(moves[i])
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "bestmove %s\n", m)
		return nil
	}
	fmt.Fprintln(s.out, "bestmove none")
	return nil
}

func (s *Shell) needBoxes() error {
	if s.boxes == nil {
		return errors.New("shell: no storage")
	}
	return nil
}

func (s *Shell) handleLoad(args []string) error {
	if err := s.needBoxes(); err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: load <box> <index>", ErrUsage)
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: bad index %q", ErrUsage, args[1])
	}

	t, err := s.boxes.LoadTape(args[0], index)
	if err != nil {
		return err
	}
	s.reset(t)
	s.box = args[0]
	fmt.Fprintf(s.out, "loaded %s/%d: %d notes\n", args[0], index, t.Len())
	return nil
}

func (s *Shell) handleSave(args []string) error {
	if err := s.needBoxes(); err != nil {
		return err
	}
	box := s.box
	if len(args) > 0 {
		box = args[0]
	}
	if box == "" {
		return fmt.Errorf("%w: save <box>", ErrUsage)
	}

	index, err := s.boxes.SaveTape(box, s.deck.Learning, "shell")
	if err != nil {
		return err
	}
	s.box = box
	fmt.Fprintf(s.out, "saved %s/%d\n", box, index)
	return nil
}

func (s *Shell) handleSession(args []string) error {
	if err := s.needBoxes(); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: session save|load", ErrUsage)
	}

	switch args[0] {
	case "save":
		sess := &storage.Session{
			Training:      tape.EncodeTracks(s.deck.Training.Store()),
			TrainingCaret: storage.SaveCaret(s.deck.Training.Caret()),
			Learning:      tape.EncodeTracks(s.deck.Learning.Store()),
			LearningCaret: storage.SaveCaret(s.deck.Learning.Caret()),
			Box:           s.box,
			Saved:         time.Now(),
		}
		if err := s.boxes.SaveSession(sess); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "session saved")
	case "load":
		sess, err := s.boxes.LoadSession()
		if err != nil {
			return err
		}
		if sess == nil {
			fmt.Fprintln(s.out, "no session")
			return nil
		}
		if err := s.restore(sess); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "session loaded, caret %s\n", s.deck.Learning.Caret())
	default:
		return fmt.Errorf("%w: session save|load", ErrUsage)
	}
	return nil
}

// restore rebuilds the deck from a session. The position is recovered by
// touching the learning notes from position 0 up to the caret.
func (s *Shell) restore(sess *storage.Session) error {
	training, err := sess.Training.Decode()
	if err != nil {
		return err
	}
	learning, err := sess.Learning.Decode()
	if err != nil {
		return err
	}

	pos := position.NewStartPosition()
	lc := sess.LearningCaret.Restore()
	for _, n := range learning.Slice(0, lc.Position()) {
		if !pos.Touch(n) {
			return fmt.Errorf("%w: session note %s", replay.ErrIllegalTouch, n)
		}
	}

	tt := tape.FromStore(training)
	*tt.Caret() = sess.TrainingCaret.Restore()
	lt := tape.FromStore(learning)
	*lt.Caret() = lc

	s.position = pos
	s.deck = replay.NewDeck(s.engine, tt, lt)
	s.box = sess.Box
	return nil
}
