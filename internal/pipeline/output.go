package pipeline

import (
	"bufio"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/lox/inningcast/internal/frame"
	"github.com/lox/inningcast/internal/store"
)

// IsSQLite reports whether path selects the SQLite sink.
func IsSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Write stores the feature table at path. CSV output goes to a temporary
// file beside path and is renamed into place, so a failed write leaves any
// previous file untouched. SQLite output replaces the features table inside
// one transaction.
func Write(ctx context.Context, path string, f *frame.Frame, run store.Run, log *zap.Logger) error {
	if IsSQLite(path) {
		return writeSQLite(ctx, path, f, run, log)
	}
	return writeCSV(path, f)
}

func writeCSV(path string, f *frame.Frame) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := frame.WriteCSV(w, f); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write output")
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write output")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close output")
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrap(err, "chmod output")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "rename output")
	}
	return nil
}

func writeSQLite(ctx context.Context, path string, f *frame.Frame, run store.Run, log *zap.Logger) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer db.Close()

	db.ExecContext(ctx, "PRAGMA journal_mode=WAL")
	db.ExecContext(ctx, "PRAGMA busy_timeout=5000")

	st := store.New(db, log)
	if err := st.Migrate(ctx); err != nil {
		return errors.Wrap(err, "migrate")
	}
	id, err := st.WriteFeatures(ctx, f, run)
	if err != nil {
		return errors.Wrap(err, "store features")
	}
	log.Info("features written to database", zap.String("path", path), zap.Int64("run_id", id))
	return nil
}
