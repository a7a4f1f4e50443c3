// Package venue maps the stadium names used in match records to the names
// used by the venue reference data.
package venue

import (
	"database/sql"
	"sort"
)

// canonical is keyed by exact raw name. Self-mapping entries are deliberate:
// they record that the name was checked against the reference data.
var canonical = map[string]string{
	"Rajiv Gandhi International Stadium, Uppal":           "Rajiv Gandhi International Stadium",
	"M. Chinnaswamy Stadium":                              "M Chinnaswamy Stadium",
	"M. Chinnaswamy Stadium, Bengaluru":                   "M Chinnaswamy Stadium",
	"Holkar Cricket Stadium":                              "Holkar Cricket Stadium",
	"Maharashtra Cricket Association Stadium":             "Maharashtra Cricket Association Stadium",
	"Subrata Roy Sahara Stadium":                          "Maharashtra Cricket Association Stadium",
	"Wankhede Stadium":                                    "Wankhede Stadium",
	"Wankhede Stadium, Mumbai":                            "Wankhede Stadium",
	"Feroz Shah Kotla Ground":                             "Feroz Shah Kotla Ground",
	"Feroz Shah Kotla":                                    "Feroz Shah Kotla Ground",
	"Eden Gardens":                                        "Eden Gardens",
	"Punjab Cricket Association Stadium, Mohali":          "IS Bindra Stadium",
	"M. A. Chidambaram Stadium":                           "M. A. Chidambaram Stadium",
	"Sardar Patel Stadium, Motera":                        "Sardar Patel Stadium, Motera",
	"Himachal Pradesh Cricket Association Stadium":        "Himachal Pradesh Cricket Association Stadium",
	"JSCA International Stadium Complex":                  "JSCA International Stadium Complex",
	"Barabati Stadium":                                    "Barabati Stadium",
	"Saurashtra Cricket Association Stadium":              "Saurashtra Cricket Association Stadium",
	"Shaheed Veer Narayan Singh International Stadium":    "Shaheed Veer Narayan Singh International Stadium",
	"Dr. Y.S. Rajasekhara Reddy ACA-VDCA Cricket Stadium": "Dr. Y.S. Rajasekhara Reddy ACA-VDCA Cricket Stadium",
	"ACA-VDCA Stadium":                                    "Dr. Y.S. Rajasekhara Reddy ACA-VDCA Cricket Stadium",
	"Sheikh Zayed Stadium":                                "Sheikh Zayed Cricket Stadium",
}

// Normalize returns the canonical name for raw, or raw itself when it has no
// entry. Matching is exact: no trimming, no case folding.
func Normalize(raw string) string {
	if c, ok := canonical[raw]; ok {
		return c
	}
	return raw
}

// NormalizeCell applies Normalize to a present cell and leaves nulls alone.
func NormalizeCell(v sql.NullString) sql.NullString {
	if !v.Valid {
		return v
	}
	v.String = Normalize(v.String)
	return v
}

type Alias struct {
	Raw       string
	Canonical string
}

// Table lists every mapping sorted by raw name.
func Table() []Alias {
	out := make([]Alias, 0, len(canonical))
	for raw, c := range canonical {
		out = append(out, Alias{Raw: raw, Canonical: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Raw < out[j].Raw })
	return out
}
