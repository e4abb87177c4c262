package tape

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hailam/tapedeck/internal/board"
	"github.com/hailam/tapedeck/internal/note"
)

// noneValue stands for "no identity" in an identity track.
const noneValue = -1

// Tracks is the persisted form of a store: for each half, a space separated
// identity track and a parallel operation track, both in index order.
type Tracks struct {
	PositiveID  string `json:"positive_id"`
	PositiveOpe string `json:"positive_ope"`
	NegativeID  string `json:"negative_id"`
	NegativeOpe string `json:"negative_ope"`
}

// EncodeTracks renders a store as tracks.
func EncodeTracks(s *Store) Tracks {
	var tr Tracks
	tr.PositiveID, tr.PositiveOpe = encodeHalf(s.positive)
	tr.NegativeID, tr.NegativeOpe = encodeHalf(s.negative)
	return tr
}

func encodeHalf(notes []note.Note) (string, string) {
	ids := make([]string, len(notes))
	ops := make([]string, len(notes))
	for i, n := range notes {
		if n.HasID() {
			ids[i] = strconv.Itoa(int(n.ID))
		} else {
			ids[i] = strconv.Itoa(noneValue)
		}
		ops[i] = n.Op.String()
	}
	return strings.Join(ids, " "), strings.Join(ops, " ")
}

// Decode rebuilds the store the tracks describe.
func (tr Tracks) Decode() (*Store, error) {
	positive, err := decodeHalf(tr.PositiveID, tr.PositiveOpe)
	if err != nil {
		return nil, fmt.Errorf("tape: positive tracks: %w", err)
	}
	negative, err := decodeHalf(tr.NegativeID, tr.NegativeOpe)
	if err != nil {
		return nil, fmt.Errorf("tape: negative tracks: %w", err)
	}
	return &Store{positive: positive, negative: negative}, nil
}

func decodeHalf(idTrack, opeTrack string) ([]note.Note, error) {
	ids := strings.Fields(idTrack)
	ops := strings.Fields(opeTrack)
	if len(ids) != len(ops) {
		return nil, fmt.Errorf("track length mismatch: %d identities, %d operations", len(ids), len(ops))
	}

	notes := make([]note.Note, len(ops))
	for i := range ops {
		num, err := strconv.Atoi(ids[i])
		if err != nil {
			return nil, fmt.Errorf("identity %d: %w", i, err)
		}
		op, err := note.ParseOp(ops[i])
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		id := board.PieceID(num)
		if num == noneValue {
			id = board.NoID
		} else if !id.IsValid() {
			return nil, fmt.Errorf("identity %d: out of range: %d", i, num)
		}
		notes[i] = note.Note{ID: id, Op: op}
	}
	return notes, nil
}
