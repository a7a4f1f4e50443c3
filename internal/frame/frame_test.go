package frame

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sqlNull = sql.NullString

func mustRead(t *testing.T, s string) *Frame {
	t.Helper()
	f, err := ReadCSV(strings.NewReader(s))
	require.NoError(t, err)
	return f
}

func column(t *testing.T, f *Frame, name string) []string {
	t.Helper()
	vals, err := f.Column(name)
	require.NoError(t, err)
	out := make([]string, len(vals))
	for i, v := range vals {
		if v.Valid {
			out[i] = v.String
		} else {
			out[i] = "<null>"
		}
	}
	return out
}

func TestReadCSV_MissingTokens(t *testing.T) {
	f := mustRead(t, "a,b,c\n1,,NA\nNaN,x,N/A\n")

	assert.Equal(t, []string{"a", "b", "c"}, f.Columns())
	assert.Equal(t, []string{"1", "<null>"}, column(t, f, "a"))
	assert.Equal(t, []string{"<null>", "x"}, column(t, f, "b"))
	assert.Equal(t, []string{"<null>", "<null>"}, column(t, f, "c"))
}

func TestReadCSV_StripsBOM(t *testing.T) {
	f := mustRead(t, "\ufeffid,venue\n1,Eden Gardens\n")
	assert.True(t, f.Has("id"))
}

func TestFromRecords_PadsShortRows(t *testing.T) {
	f, err := FromRecords([]string{"a", "b"}, [][]string{{"1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"<null>"}, column(t, f, "b"))

	_, err = FromRecords([]string{"a"}, [][]string{{"1", "2"}})
	assert.Error(t, err)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	in := "id,venue,score\n1,\"Wankhede Stadium, Mumbai\",180\n2,,\n"
	f := mustRead(t, in)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f))
	assert.Equal(t, in, buf.String())
}

func TestJoin_Inner(t *testing.T) {
	matches := mustRead(t, "id,venue\n1,A\n2,B\n3,C\n")
	scores := mustRead(t, "match_id,inning,inning_score\n1,1,150\n1,2,149\n3.0,1,200\n")

	out, err := Join(matches, scores, JoinSpec{Kind: Inner, LeftOn: []string{"id"}, RightOn: []string{"match_id"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "venue", "match_id", "inning", "inning_score"}, out.Columns())
	assert.Equal(t, []string{"1", "1", "3"}, column(t, out, "id"))
	assert.Equal(t, []string{"150", "149", "200"}, column(t, out, "inning_score"))
}

func TestJoin_LeftKeepsUnmatchedAndSuffixesOverlap(t *testing.T) {
	left := mustRead(t, "venue,Year,city\nA,2020,Delhi\nZ,2020,Pune\n")
	right := mustRead(t, "venue,Year,city,Latitude\nA,2020,New Delhi,28.6\n")

	out, err := Join(left, right, JoinSpec{Kind: Left, LeftOn: []string{"venue", "Year"}, RightOn: []string{"venue", "Year"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"venue", "Year", "city_x", "city_y", "Latitude"}, out.Columns())
	assert.Equal(t, []string{"28.6", "<null>"}, column(t, out, "Latitude"))
	assert.Equal(t, []string{"New Delhi", "<null>"}, column(t, out, "city_y"))
}

func TestJoin_NullKeysNeverMatch(t *testing.T) {
	left := mustRead(t, "k,v\n,1\n")
	right := mustRead(t, "k,w\n,2\n")

	out, err := Join(left, right, JoinSpec{Kind: Inner, LeftOn: []string{"k"}, RightOn: []string{"k"}})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestJoin_MissingKeyColumn(t *testing.T) {
	left := mustRead(t, "a\n1\n")
	right := mustRead(t, "b\n1\n")
	_, err := Join(left, right, JoinSpec{LeftOn: []string{"a"}, RightOn: []string{"a"}})
	assert.Error(t, err)
}

func TestDropDuplicates_KeepsFirst(t *testing.T) {
	f := mustRead(t, "id,inning,tag\n1,1,first\n1,2,x\n1,1,second\n2,1,y\n")

	out, err := f.DropDuplicates("id", "inning")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "x", "y"}, column(t, out, "tag"))
}

func TestDrop_IgnoresUnknown(t *testing.T) {
	f := mustRead(t, "a,b,c\n1,2,3\n")
	out := f.Drop("b", "nope")
	assert.Equal(t, []string{"a", "c"}, out.Columns())
	assert.Equal(t, []string{"3"}, column(t, out, "c"))
}

func TestSetColumn_AppendsAndOverwrites(t *testing.T) {
	f := mustRead(t, "a\n1\n2\n")
	require.NoError(t, f.SetColumn("b", []sqlNull{String("x"), Null()}))
	require.NoError(t, f.SetColumn("a", []sqlNull{Int(7), Float(2.5)}))

	assert.Equal(t, []string{"7", "2.5"}, column(t, f, "a"))
	assert.Equal(t, []string{"x", "<null>"}, column(t, f, "b"))
	assert.Error(t, f.SetColumn("c", []sqlNull{Null()}))
}

func TestIsNumeric(t *testing.T) {
	f := mustRead(t, "n,s,empty\n1.5,a,\n,2,\n3,b,\n")
	assert.True(t, f.IsNumeric("n"))
	assert.False(t, f.IsNumeric("s"))
	assert.False(t, f.IsNumeric("empty"))
	assert.False(t, f.IsNumeric("missing"))
}
