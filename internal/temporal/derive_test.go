package temporal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/inningcast/internal/frame"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2008-04-18", "2008-04-18", true},
		{"18/04/2008", "2008-04-18", true},
		{"8/4/2008", "2008-04-08", true},
		{"05/04/2017", "2017-04-05", true},
		{"18/04/08", "2008-04-18", true},
		{"18-04-2008", "2008-04-18", true},
		{"04/18/2008", "2008-04-18", true},
		{"12-31-2019", "2019-12-31", true},
		{"4/18/08", "2008-04-18", true},
		{"13/13/2008", "", false},
		{"2008-04-18 19:30:00", "2008-04-18", true},
		{"18 April 2008", "2008-04-18", true},
		{" 2020-01-11 ", "2020-01-11", true},
		{"April 18th", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseDate(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
	}
}

func mustFrame(t *testing.T, csv string) *frame.Frame {
	t.Helper()
	f, err := frame.ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return f
}

func values(t *testing.T, f *frame.Frame, col string) []string {
	t.Helper()
	cells, err := f.Column(col)
	require.NoError(t, err)
	out := make([]string, len(cells))
	for i, c := range cells {
		if c.Valid {
			out[i] = c.String
		} else {
			out[i] = "<null>"
		}
	}
	return out
}

func TestParseDates(t *testing.T) {
	f := mustFrame(t, "id,date\n1,18/04/2008\n2,2017-04-05\n")

	out, err := ParseDates(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"2008-04-18", "2017-04-05"}, values(t, out, ColDate))
	assert.Equal(t, []string{"2008", "2017"}, values(t, out, ColYear))
	assert.Equal(t, "18/04/2008", f.Get(0, ColDate).String, "input must not be modified")

	mixed, err := ParseDates(mustFrame(t, "id,date\n1,05/04/2017\n2,04/18/2008\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2017-04-05", "2008-04-18"}, values(t, mixed, ColDate))

	_, err = ParseDates(mustFrame(t, "id,date\n1,someday\n"))
	assert.Error(t, err)
}

func TestDerive_DaysSinceLastMatch(t *testing.T) {
	f := mustFrame(t, "id,venue,date,season\n"+
		"2,V,2020-01-11,2020\n"+
		"1,V,2020-01-01,2020\n")

	out, err := Derive(f)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, values(t, out, "id"))
	assert.Equal(t, []string{"365", "10"}, values(t, out, ColDaysSince))
	assert.Equal(t, []string{"<null>", "2020-01-01"}, values(t, out, ColLastMatch))
}

func TestDerive_SeasonCountResets(t *testing.T) {
	f := mustFrame(t, "id,venue,date,season\n"+
		"1,V,2020-04-01,2020\n"+
		"5,W,2020-04-02,2020\n"+
		"2,V,2020-04-10,2020\n"+
		"3,V,2020-05-01,2020\n"+
		"4,V,2021-04-03,2021\n")

	out, err := Derive(f)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, values(t, out, "id"))
	assert.Equal(t, []string{"1", "2", "3", "1", "1"}, values(t, out, ColSeasonCount))
	assert.Equal(t, []string{"365", "9", "21", "337", "365"}, values(t, out, ColDaysSince))
}

func TestDerive_SameDayKeepsInputOrder(t *testing.T) {
	f := mustFrame(t, "id,inning,venue,date,season\n"+
		"1,1,V,2020-01-01,2020\n"+
		"1,2,V,2020-01-01,2020\n")

	out, err := Derive(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, values(t, out, "inning"))
	assert.Equal(t, []string{"365", "0"}, values(t, out, ColDaysSince))
	assert.Equal(t, []string{"1", "2"}, values(t, out, ColSeasonCount))
}

func TestDerive_Deterministic(t *testing.T) {
	csv := "id,venue,date,season\n" +
		"3,B,2020-02-01,2020\n1,A,2020-01-01,2020\n2,A,2020-01-01,2020\n4,B,2019-12-01,2019\n"

	first, err := Derive(mustFrame(t, csv))
	require.NoError(t, err)
	second, err := Derive(mustFrame(t, csv))
	require.NoError(t, err)

	for _, col := range first.Columns() {
		assert.Equal(t, values(t, first, col), values(t, second, col), col)
	}
}

func TestDerive_MissingColumn(t *testing.T) {
	_, err := Derive(mustFrame(t, "id,venue,date\n1,V,2020-01-01\n"))
	assert.Error(t, err)
}
