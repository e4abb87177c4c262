// Package catalog indexes stored tapes in SQLite so they can be found by the
// notes or the moves they contain.
package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tapes (
	box        TEXT NOT NULL,
	idx        INTEGER NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	ply        INTEGER NOT NULL DEFAULT 1,
	len        INTEGER NOT NULL DEFAULT 0,
	ope        TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (box, idx)
);

CREATE TABLE IF NOT EXISTS moves (
	box  TEXT NOT NULL,
	idx  INTEGER NOT NULL,
	n    INTEGER NOT NULL,
	usi  TEXT NOT NULL,
	sign TEXT NOT NULL,
	UNIQUE(box, idx, n),
	FOREIGN KEY (box, idx) REFERENCES tapes(box, idx) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_moves_usi ON moves(usi);
`

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// TapeRow is one indexed tape.
type TapeRow struct {
	Box       string
	Index     int
	Source    string
	Ply       int
	Len       int
	Ope       string
	UpdatedAt time.Time
}

// MoveRow is one move of an indexed tape, numbered from 0.
type MoveRow struct {
	N    int
	USI  string
	Sign string
}

// Hit is one search result.
type Hit struct {
	Box    string
	Index  int
	Source string
	Ply    int
	// Match is the matching move sign, or the operation track for note
	// searches.
	Match string
}

// Upsert inserts or replaces a tape and its moves within a transaction.
func (db *DB) Upsert(row TapeRow, moves []MoveRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now()
	}
	_, err = tx.Exec(`
		INSERT INTO tapes (box, idx, source, ply, len, ope, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(box, idx) DO UPDATE SET
			source     = excluded.source,
			ply        = excluded.ply,
			len        = excluded.len,
			ope        = excluded.ope,
			updated_at = excluded.updated_at
	`, row.Box, row.Index, row.Source, row.Ply, row.Len, row.Ope, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: upsert tape: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM moves WHERE box = ? AND idx = ?`, row.Box, row.Index); err != nil {
		return fmt.Errorf("catalog: clear moves: %w", err)
	}
	if len(moves) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO moves (box, idx, n, usi, sign) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("catalog: prepare move insert: %w", err)
		}
		defer stmt.Close()
		for _, m := range moves {
			if _, err := stmt.Exec(row.Box, row.Index, m.N, m.USI, m.Sign); err != nil {
				return fmt.Errorf("catalog: insert move: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteBox removes every tape of a box.
func (db *DB) DeleteBox(box string) error {
	if _, err := db.conn.Exec(`DELETE FROM tapes WHERE box = ?`, box); err != nil {
		return fmt.Errorf("catalog: delete box: %w", err)
	}
	return nil
}

// Count returns the number of indexed tapes.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM tapes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return n, nil
}

// escapeLike escapes the LIKE wildcards in s.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// SearchNotes finds tapes whose operation track contains the run of note
// signs, e.g. "7g 7f". Results are ordered by box and index.
func (db *DB) SearchNotes(run string, limit int) ([]Hit, error) {
	run = strings.Join(strings.Fields(run), " ")
	if run == "" {
		return nil, nil
	}
	rows, err := db.conn.Query(`
		SELECT box, idx, source, ply, ope FROM tapes
		WHERE ope LIKE ? ESCAPE '\'
		ORDER BY box, idx
		LIMIT ?
	`, "%"+escapeLike(run)+"%", limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("catalog: search notes: %w", err)
	}
	return scanHits(rows)
}

// SearchMove finds the tapes that contain a USI move, one hit per occurrence.
func (db *DB) SearchMove(usi string, limit int) ([]Hit, error) {
	rows, err := db.conn.Query(`
		SELECT t.box, t.idx, t.source, m.n + 1, m.sign
		FROM moves m JOIN tapes t ON t.box = m.box AND t.idx = m.idx
		WHERE m.usi = ?
		ORDER BY t.box, t.idx, m.n
		LIMIT ?
	`, usi, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("catalog: search move: %w", err)
	}
	return scanHits(rows)
}

func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func scanHits(rows *sql.Rows) ([]Hit, error) {
	defer rows.Close()
	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Box, &h.Index, &h.Source, &h.Ply, &h.Match); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
