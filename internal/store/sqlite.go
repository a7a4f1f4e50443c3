package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lox/inningcast/internal/frame"
)

// FeaturesTable holds the most recently written feature table.
const FeaturesTable = "features"

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

func New(db *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

// Run describes one pipeline invocation recorded alongside its output.
type Run struct {
	ID               int64
	StartedAt        time.Time
	FinishedAt       time.Time
	DeliveriesSource string
	MatchesSource    string
	VenuesSource     string
	WeatherMode      string
	RowCount         int
	ColumnCount      int
}

// WriteFeatures replaces the features table with f and appends run to the
// run log, in one transaction. Numeric columns are stored as REAL, the rest
// as TEXT; null cells are stored as NULL.
func (s *Store) WriteFeatures(ctx context.Context, f *frame.Frame, run Run) (int64, error) {
	cols := f.Columns()
	numeric := make([]bool, len(cols))
	defs := make([]string, len(cols))
	for i, c := range cols {
		numeric[i] = f.IsNumeric(c)
		typ := "TEXT"
		if numeric[i] {
			typ = "REAL"
		}
		defs[i] = quoteIdent(c) + " " + typ
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(FeaturesTable)); err != nil {
		return 0, errors.Wrap(err, "drop features")
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(FeaturesTable), strings.Join(defs, ", "))); err != nil {
		return 0, errors.Wrap(err, "create features")
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(FeaturesTable),
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for i := 0; i < f.Len(); i++ {
		for j, cell := range f.Row(i) {
			args[j] = sqlValue(cell, numeric[j])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, errors.Wrapf(err, "insert row %d", i)
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (started_at, finished_at, deliveries_source, matches_source, venues_source, weather_mode, row_count, column_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.DeliveriesSource, run.MatchesSource, run.VenuesSource, run.WeatherMode, f.Len(), len(cols))
	if err != nil {
		return 0, errors.Wrap(err, "record run")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "run id")
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	s.log.Debug("features stored", zap.Int64("run_id", id), zap.Int("rows", f.Len()), zap.Int("columns", len(cols)))
	return id, nil
}

// ReadFeatures loads the features table back into a frame. REAL values are
// formatted the same way the pipeline formats them.
func (s *Store) ReadFeatures(ctx context.Context) (*frame.Frame, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(FeaturesTable))
	if err != nil {
		return nil, errors.Wrap(err, "query features")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := frame.New(cols...)
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]sql.NullString, len(cols))
		for i, v := range raw {
			row[i] = cellValue(v)
		}
		if err := out.Append(row); err != nil {
			return nil, err
		}
	}
	return out, rows.Err()
}

// Runs returns the run log, most recent first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, deliveries_source, matches_source, venues_source, weather_mode, row_count, column_count
		FROM runs
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var deliveries, matches, venues, mode sql.NullString
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &deliveries, &matches, &venues, &mode, &r.RowCount, &r.ColumnCount); err != nil {
			return nil, err
		}
		r.DeliveriesSource = deliveries.String
		r.MatchesSource = matches.String
		r.VenuesSource = venues.String
		r.WeatherMode = mode.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func sqlValue(cell sql.NullString, numeric bool) any {
	if !cell.Valid {
		return nil
	}
	if numeric {
		if v, err := strconv.ParseFloat(strings.TrimSpace(cell.String), 64); err == nil {
			return v
		}
	}
	return cell.String
}

func cellValue(v any) sql.NullString {
	switch t := v.(type) {
	case nil:
		return frame.Null()
	case float64:
		return frame.Float(t)
	case int64:
		return frame.Int(t)
	case []byte:
		return frame.String(string(t))
	case string:
		return frame.String(t)
	default:
		return frame.String(fmt.Sprint(t))
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
