package main

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lox/inningcast/internal/frame"
	"github.com/lox/inningcast/internal/store"
)

func writeDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "features.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	st := store.New(db, zap.NewNop())
	require.NoError(t, st.Migrate(context.Background()))

	f, err := frame.ReadCSV(strings.NewReader("venue,inning_score\nEden Gardens,171\nWankhede Stadium,\n"))
	require.NoError(t, err)
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err = st.WriteFeatures(context.Background(), f, store.Run{
		StartedAt:     started,
		FinishedAt:    started.Add(1500 * time.Millisecond),
		MatchesSource: "matches.csv",
		WeatherMode:   "fallback",
	})
	require.NoError(t, err)
	return path
}

func TestRunsCmd_ListsRuns(t *testing.T) {
	var out bytes.Buffer
	cmd := &RunsCmd{DB: writeDatabase(t), out: &out}
	require.NoError(t, cmd.Run(context.Background(), zap.NewNop()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "2024-03-01T10:00:00Z")
	assert.Contains(t, lines[1], "1.5s")
	assert.Contains(t, lines[1], "fallback")
	assert.Contains(t, lines[1], "matches.csv")
}

func TestRunsCmd_DumpsFeatures(t *testing.T) {
	var out bytes.Buffer
	cmd := &RunsCmd{DB: writeDatabase(t), Features: true, out: &out}
	require.NoError(t, cmd.Run(context.Background(), zap.NewNop()))

	assert.Equal(t, "venue,inning_score\nEden Gardens,171\nWankhede Stadium,\n", out.String())
}
