package export

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/AmirHoseinTaherkhani/object-mapping/mapping"
)

// schema.sql creates the runs and trajectory_records tables
//
//go:embed schema.sql
var schemaSQL string

// Run describes one exported run
type Run struct {
	RunID     string
	CreatedAt time.Time
	Frames    int
	Records   int
}

// SQLiteStore keeps the records of every exported run in a SQLite database
type SQLiteStore struct {
	log logs.Log
	db  *sql.DB
}

// OpenSQLite opens or creates the database at path
func OpenSQLite(log logs.Log, path string) (*SQLiteStore, error) {

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating schema: %w", err)
	}

	return &SQLiteStore{log: log, db: db}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Export stores the records as a new run
func (s *SQLiteStore) Export(ctx context.Context, records []mapping.Record, summary mapping.Summary) error {

	id, err := s.WriteRun(ctx, records, summary)
	if err != nil {
		return err
	}

	s.log.Infof("Saved %v records as run %v", len(records), id)

	return nil
}

// WriteRun stores the records under a new run id in one transaction and
// returns the id
func (s *SQLiteStore) WriteRun(ctx context.Context, records []mapping.Record, summary mapping.Summary) (string, error) {

	runID := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, frames, records) VALUES (?, ?, ?, ?)`,
		runID, time.Now().UnixNano(), summary.Frames, len(records))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trajectory_records (
			run_id, frame, track_id, class_name, confidence,
			pixel_x, pixel_y, world_x, world_y
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx, runID, r.Frame, r.TrackID, r.ClassName, r.Confidence,
			r.PixelX, r.PixelY, r.WorldX, r.WorldY)
		if err != nil {
			return "", fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("error committing run: %w", err)
	}

	return runID, nil
}

// Runs lists the exported runs, oldest first
func (s *SQLiteStore) Runs(ctx context.Context) ([]Run, error) {

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, created_at, frames, records FROM runs ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			created int64
		)
		if err := rows.Scan(&r.RunID, &created, &r.Frames, &r.Records); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = time.Unix(0, created)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// Records returns the records of a run in the order they were produced
func (s *SQLiteStore) Records(ctx context.Context, runID string) ([]mapping.Record, error) {

	rows, err := s.db.QueryContext(ctx, `
		SELECT frame, track_id, class_name, confidence, pixel_x, pixel_y, world_x, world_y
		FROM trajectory_records
		WHERE run_id = ?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []mapping.Record
	for rows.Next() {
		var r mapping.Record
		if err := rows.Scan(&r.Frame, &r.TrackID, &r.ClassName, &r.Confidence,
			&r.PixelX, &r.PixelY, &r.WorldX, &r.WorldY); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}
