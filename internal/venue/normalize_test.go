package venue

import (
	"database/sql"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"M. Chinnaswamy Stadium", "M Chinnaswamy Stadium"},
		{"M. Chinnaswamy Stadium, Bengaluru", "M Chinnaswamy Stadium"},
		{"Punjab Cricket Association Stadium, Mohali", "IS Bindra Stadium"},
		{"Subrata Roy Sahara Stadium", "Maharashtra Cricket Association Stadium"},
		{"Eden Gardens", "Eden Gardens"},
		{"Lord's", "Lord's"},
		{"m. chinnaswamy stadium", "m. chinnaswamy stadium"},
		{"Wankhede Stadium ", "Wankhede Stadium "},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Unknown Oval"}
	for _, a := range Table() {
		inputs = append(inputs, a.Raw, a.Canonical)
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestNormalizeCell_KeepsNull(t *testing.T) {
	if got := NormalizeCell(sql.NullString{}); got.Valid {
		t.Errorf("NormalizeCell(null) = %+v, want null", got)
	}
	got := NormalizeCell(sql.NullString{String: "Feroz Shah Kotla", Valid: true})
	if got.String != "Feroz Shah Kotla Ground" {
		t.Errorf("NormalizeCell = %q, want Feroz Shah Kotla Ground", got.String)
	}
}

func TestTable_Sorted(t *testing.T) {
	tbl := Table()
	if len(tbl) != len(canonical) {
		t.Fatalf("len(Table()) = %d, want %d", len(tbl), len(canonical))
	}
	for i := 1; i < len(tbl); i++ {
		if tbl[i-1].Raw >= tbl[i].Raw {
			t.Errorf("Table not sorted at %d: %q >= %q", i, tbl[i-1].Raw, tbl[i].Raw)
		}
	}
}
