// Package ledger keeps a history of every specimen label placed.
//
// The history lives in a SQLite database next to the parameters file. It
// answers "which image got MUS-COL-00042 and where" and lets users spot
// gaps left by runs whose drawing was later undone. The ledger is
// informational: the sequence counter in the parameters file stays the
// source of truth for numbering.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ironsheep/specimen-labels/internal/placement"
)

// FileName is the name of the database inside the data directory.
const FileName = "ledger.db"

// timeLayout is fixed width so placed_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const createLabels = `CREATE TABLE IF NOT EXISTS labels (
    label_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    source TEXT NOT NULL,
    number INTEGER NOT NULL,
    label TEXT NOT NULL,
    layer_name TEXT NOT NULL,
    x REAL NOT NULL,
    y REAL NOT NULL,
    rect_x1 INTEGER NOT NULL DEFAULT 0,
    rect_y1 INTEGER NOT NULL DEFAULT 0,
    rect_x2 INTEGER NOT NULL DEFAULT 0,
    rect_y2 INTEGER NOT NULL DEFAULT 0,
    placed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_labels_number ON labels (number);
CREATE INDEX IF NOT EXISTS idx_labels_run ON labels (run_id);`

// Entry is one row of the history.
type Entry struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	Number    int       `json:"number"`
	Label     string    `json:"label"`
	LayerName string    `json:"layer_name"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	PlacedAt  time.Time `json:"placed_at"`

	Rect image.Rectangle `json:"rect"`
}

// Ledger records placed labels. It implements placement.Recorder.
type Ledger struct {
	db *sql.DB
}

var _ placement.Recorder = (*Ledger)(nil)

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// One process writes at a time; a single connection avoids SQLITE_BUSY
	// between our own goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createLabels); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores one placed label.
func (l *Ledger) Record(ctx context.Context, rec placement.Record) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO labels (label_id, run_id, source, number, label, layer_name, x, y,
                             rect_x1, rect_y1, rect_x2, rect_y2, placed_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), rec.RunID, rec.Source, rec.Number, rec.Label, rec.LayerName,
		rec.X, rec.Y, rec.Rect.Min.X, rec.Rect.Min.Y, rec.Rect.Max.X, rec.Rect.Max.Y,
		rec.PlacedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to record label %s: %w", rec.Label, err)
	}
	return nil
}

// Query filters the history. Zero values mean "no filter".
type Query struct {
	RunID string
	// Source matches the image path exactly.
	Source string
	// Label matches labels containing this substring.
	Label string
	// Limit caps the number of rows; 0 means 100.
	Limit int
}

// List returns entries matching q, most recent first.
func (l *Ledger) List(ctx context.Context, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT label_id, run_id, source, number, label, layer_name, x, y,
                     rect_x1, rect_y1, rect_x2, rect_y2, placed_at
              FROM labels WHERE 1=1`
	var args []interface{}
	if q.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, q.RunID)
	}
	if q.Source != "" {
		query += ` AND source = ?`
		args = append(args, q.Source)
	}
	if q.Label != "" {
		query += ` AND label LIKE ?`
		args = append(args, "%"+q.Label+"%")
	}
	query += ` ORDER BY placed_at DESC, number DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var placedAt string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Source, &e.Number, &e.Label, &e.LayerName, &e.X, &e.Y,
			&e.Rect.Min.X, &e.Rect.Min.Y, &e.Rect.Max.X, &e.Rect.Max.Y, &placedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		e.PlacedAt, err = time.Parse(timeLayout, placedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q in ledger: %w", placedAt, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Gap is a run of sequence numbers that were never recorded.
type Gap struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Gaps reports numbers missing between the lowest and highest recorded
// number.
func (l *Ledger) Gaps(ctx context.Context) ([]Gap, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT DISTINCT number FROM labels ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	gaps := make([]Gap, 0)
	prev, first := 0, true
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		if !first && n > prev+1 {
			gaps = append(gaps, Gap{From: prev + 1, To: n - 1})
		}
		prev, first = n, false
	}
	return gaps, rows.Err()
}
