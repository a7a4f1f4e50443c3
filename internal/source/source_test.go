package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &r))
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestFetch_LocalFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "matches.csv")
	require.NoError(t, os.WriteFile(p, []byte("id\n1\n"), 0o644))

	data, err := Fetch(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(data))
}

func TestFetch_MissingFile(t *testing.T) {
	_, err := Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestIsSpreadsheet(t *testing.T) {
	tests := []struct {
		location string
		want     bool
	}{
		{"venues.xlsx", true},
		{"data/Venues.XLSX", true},
		{"ftp://ftp.example.org/pub/venues.xlsm", true},
		{"venues.csv", false},
		{"ftp://ftp.example.org/pub/matches.csv", false},
		{"venues", false},
	}
	for _, tt := range tests {
		if got := IsSpreadsheet(tt.location); got != tt.want {
			t.Errorf("IsSpreadsheet(%q) = %v, want %v", tt.location, got, tt.want)
		}
	}
}

func TestDecode_Spreadsheet(t *testing.T) {
	data := writeWorkbook(t, [][]any{
		{"Stadium", "Year", "Latitude", "Longitude", "Country"},
		{"Eden Gardens", 2008, 22.5646, 88.3433, "India"},
		{"Newlands", 2009, -33.9275, 18.4102},
	})

	f, err := Decode("venues.xlsx", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"Stadium", "Year", "Latitude", "Longitude", "Country"}, f.Columns())
	require.Equal(t, 2, f.Len())
	assert.Equal(t, "Eden Gardens", f.Get(0, "Stadium").String)
	assert.Equal(t, "2008", f.Get(0, "Year").String)
	assert.Equal(t, "-33.9275", f.Get(1, "Latitude").String)
	assert.False(t, f.Get(1, "Country").Valid)
}

func TestDecode_CSV(t *testing.T) {
	f, err := Decode("matches.csv", []byte("id,venue\n1,Eden Gardens\n"))
	require.NoError(t, err)
	assert.Equal(t, "Eden Gardens", f.Get(0, "venue").String)
}

func TestDecode_BadWorkbook(t *testing.T) {
	_, err := Decode("venues.xlsx", []byte("not a zip"))
	assert.Error(t, err)
}
