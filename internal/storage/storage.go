package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dgraph-io/badger/v4"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hailam/tapedeck/internal/tape"
)

// Storage keys. A box named "games" keeps its header under "box/games" and
// its tapes under "box/games/tape/000000", "box/games/tape/000001", ...
const (
	keySession = "session"
	boxPrefix  = "box/"
)

// ErrBoxNotFound is returned when loading a box that was never saved.
var ErrBoxNotFound = errors.New("storage: box not found")

var boxNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateBoxName checks that a name can be used as a box key.
func ValidateBoxName(name string) error {
	return validation.Validate(name,
		validation.Required,
		validation.Length(1, 64),
		validation.Match(boxNamePattern).Error("must contain only letters, digits, '_', '.' or '-'"),
	)
}

// BoxInfo is the header of a box.
type BoxInfo struct {
	Name    string    `json:"name"`
	Tapes   int       `json:"tapes"`
	Updated time.Time `json:"updated"`
}

// TapeRecord is one stored tape.
type TapeRecord struct {
	Tracks tape.Tracks `json:"tracks"`
	// Source names where the tape came from, e.g. the imported file.
	Source string    `json:"source,omitempty"`
	Ply    int       `json:"ply"`
	Len    int       `json:"len"`
	Saved  time.Time `json:"saved"`
}

// NewTapeRecord captures a tape for storing.
func NewTapeRecord(t *tape.Tape, source string) TapeRecord {
	return TapeRecord{
		Tracks: tape.EncodeTracks(t.Store()),
		Source: source,
		Ply:    t.Ply(),
		Len:    t.Len(),
		Saved:  time.Now(),
	}
}

// Tape rebuilds the stored tape with its caret at 0.
func (r TapeRecord) Tape() (*tape.Tape, error) {
	s, err := r.Tracks.Decode()
	if err != nil {
		return nil, err
	}
	return tape.FromStore(s), nil
}

// CaretState is the persisted form of a caret.
type CaretState struct {
	Position int  `json:"position"`
	Negative bool `json:"negative"`
}

// SaveCaret captures a caret.
func SaveCaret(c *tape.Caret) CaretState {
	return CaretState{Position: c.Position(), Negative: c.Facing() == tape.Negative}
}

// Restore returns the caret the state describes.
func (cs CaretState) Restore() tape.Caret {
	f := tape.Positive
	if cs.Negative {
		f = tape.Negative
	}
	return tape.NewCaretFacing(cs.Position, f)
}

// Session is the working deck of the interactive shell.
type Session struct {
	Training      tape.Tracks `json:"training"`
	TrainingCaret CaretState  `json:"training_caret"`
	Learning      tape.Tracks `json:"learning"`
	LearningCaret CaretState  `json:"learning_caret"`
	Box           string      `json:"box,omitempty"`
	Saved         time.Time   `json:"saved"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// Open opens the database in dir, or in the platform data directory when dir
// is empty.
func Open(dir string) (*Storage, error) {
	if dir == "" {
		var err error
		if dir, err = GetDatabaseDir(); err != nil {
			return nil, err
		}
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", dir, err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func boxKey(name string) []byte {
	return []byte(boxPrefix + name)
}

func tapePrefix(name string) []byte {
	return []byte(boxPrefix + name + "/tape/")
}

func tapeKey(name string, index int) []byte {
	return fmt.Appendf(tapePrefix(name), "%06d", index)
}

func getJSON(txn *badger.Txn, key []byte, v any) (bool, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// deleteTapes removes every tape key of a box.
func deleteTapes(txn *badger.Txn, name string) error {
	prefix := tapePrefix(name)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// SaveBox replaces the contents of a box with the given tapes.
func (s *Storage) SaveBox(name string, records []TapeRecord) error {
	if err := ValidateBoxName(name); err != nil {
		return fmt.Errorf("storage: box name %q: %w", name, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := deleteTapes(txn, name); err != nil {
			return err
		}
		for i, r := range records {
			if err := setJSON(txn, tapeKey(name, i), r); err != nil {
				return err
			}
		}
		return setJSON(txn, boxKey(name), BoxInfo{Name: name, Tapes: len(records), Updated: time.Now()})
	})
}

// AppendTape adds one tape at the end of a box, creating the box if needed.
// It returns the index of the new tape.
func (s *Storage) AppendTape(name string, r TapeRecord) (int, error) {
	if err := ValidateBoxName(name); err != nil {
		return 0, fmt.Errorf("storage: box name %q: %w", name, err)
	}

	var index int
	err := s.db.Update(func(txn *badger.Txn) error {
		info := BoxInfo{Name: name}
		if _, err := getJSON(txn, boxKey(name), &info); err != nil {
			return err
		}
		index = info.Tapes
		if err := setJSON(txn, tapeKey(name, index), r); err != nil {
			return err
		}
		info.Tapes++
		info.Updated = time.Now()
		return setJSON(txn, boxKey(name), info)
	})
	return index, err
}

// LoadBox returns the tapes of a box in index order.
func (s *Storage) LoadBox(name string) ([]TapeRecord, error) {
	var records []TapeRecord

	err := s.db.View(func(txn *badger.Txn) error {
		var info BoxInfo
		found, err := getJSON(txn, boxKey(name), &info)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrBoxNotFound, name)
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = tapePrefix(name)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var r TapeRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return fmt.Errorf("storage: tape %s: %w", it.Item().Key(), err)
			}
			records = append(records, r)
		}
		return nil
	})

	return records, err
}

// LoadTape returns one tape of a box.
func (s *Storage) LoadTape(name string, index int) (TapeRecord, error) {
	var r TapeRecord
	err := s.db.View(func(txn *badger.Txn) error {
		found, err := getJSON(txn, tapeKey(name, index), &r)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s/%d", ErrBoxNotFound, name, index)
		}
		return nil
	})
	return r, err
}

// ListBoxes returns the headers of every box, ordered by name.
func (s *Storage) ListBoxes() ([]BoxInfo, error) {
	var boxes []BoxInfo

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(boxPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := string(item.Key()[len(boxPrefix):])
			if ValidateBoxName(name) != nil {
				// A tape key, not a header.
				continue
			}
			var info BoxInfo
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &info)
			}); err != nil {
				return err
			}
			boxes = append(boxes, info)
		}
		return nil
	})

	return boxes, err
}

// DeleteBox removes a box and its tapes.
func (s *Storage) DeleteBox(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := deleteTapes(txn, name); err != nil {
			return err
		}
		return txn.Delete(boxKey(name))
	})
}

// SaveSession stores the shell's working deck.
func (s *Storage) SaveSession(sess *Session) error {
	sess.Saved = time.Now()
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, []byte(keySession), sess)
	})
}

// LoadSession loads the shell's working deck. It returns nil when none was
// saved.
func (s *Storage) LoadSession() (*Session, error) {
	var sess Session
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, []byte(keySession), &sess)
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return &sess, nil
}
