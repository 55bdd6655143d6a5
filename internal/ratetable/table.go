package ratetable

import "strings"

// Well-known column names from the source workbook.
const (
	ColLenders    = "Lenders"
	ColProduct    = "Product"
	ColRegion     = "Region"
	ColLowerSlab  = "Lower Slab (In Cr.)"
	ColHigherSlab = "Higher Slab (In Cr.)"
)

// Value is a single cell. Blank or unparseable-numeric cells where a number
// was expected have IsNum == false.
type Value struct {
	Raw   string
	Num   float64
	IsNum bool
}

// Empty reports whether the cell carries no content.
func (v Value) Empty() bool {
	return v.Raw == "" && !v.IsNum
}

// Row is one rate table row, keyed by column name.
type Row map[string]Value

// Lender returns the trimmed lender cell.
func (r Row) Lender() string { return r[ColLenders].Raw }

// Product returns the trimmed product cell.
func (r Row) Product() string { return r[ColProduct].Raw }

// Region returns the trimmed region cell.
func (r Row) Region() string { return r[ColRegion].Raw }

// LowerSlab returns the lower slab bound, false when the cell is missing or
// non-numeric.
func (r Row) LowerSlab() (float64, bool) {
	v := r[ColLowerSlab]
	return v.Num, v.IsNum
}

// HigherSlab returns the upper slab bound, false when the cell is missing or
// non-numeric.
func (r Row) HigherSlab() (float64, bool) {
	v := r[ColHigherSlab]
	return v.Num, v.IsNum
}

// Table is an immutable snapshot of the rate table. Columns preserves the
// header order of the source file; consumers must not mutate a Table after
// it has been published.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// isKeyColumn reports whether name is one of the three key columns or the
// two slab columns. These never serve as payin or rate sources.
func isKeyColumn(name string) bool {
	switch name {
	case ColLenders, ColProduct, ColRegion, ColLowerSlab, ColHigherSlab:
		return true
	}
	return false
}

// matchesAny reports whether the lowercased column name contains any of the
// given keywords.
func matchesAny(name string, keywords ...string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
