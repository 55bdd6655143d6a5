package ratetable

import (
	"errors"
	"math"
)

var (
	// ErrNoData means no row matches the lender/product/region triple.
	ErrNoData = errors.New("no data found for the given lender, product and region")
	// ErrNoSlab means no slab covers the amount, or the covering row has no
	// usable payin or rate column.
	ErrNoSlab = errors.New("no matching slab found for amount")
)

// Result is a completed payin calculation.
type Result struct {
	Lender      string   `json:"lender"`
	Product     string   `json:"product"`
	Region      string   `json:"region"`
	InputAmount float64  `json:"input_amount"`
	PayinAmount float64  `json:"payin_amount"`
	SlabInfo    SlabInfo `json:"slab_info"`
}

// SlabInfo describes the slab the amount fell into. HigherSlab is nil when
// the slab is open-ended.
type SlabInfo struct {
	LowerSlab  float64  `json:"lower_slab"`
	HigherSlab *float64 `json:"higher_slab"`
}

// Calculate resolves the payin for an amount (in Cr.) against the exact
// lender/product/region triple. The first row whose slab contains the amount
// wins; a missing lower bound reads as 0 and a missing upper bound as +Inf,
// both bounds inclusive.
func (t *Table) Calculate(lender, product, region string, amount float64) (*Result, error) {
	matched := false

	for _, row := range t.Rows {
		if row.Lender() != lender || row.Product() != product || row.Region() != region {
			continue
		}
		matched = true

		lower, hasLower := row.LowerSlab()
		if !hasLower {
			lower = 0
		}
		higher, hasHigher := row.HigherSlab()
		if !hasHigher {
			higher = math.Inf(1)
		}

		if amount < lower || amount > higher {
			continue
		}

		payin, ok := t.payinFor(row, amount)
		if !ok {
			// Only the first covering slab is consulted
			return nil, ErrNoSlab
		}

		result := &Result{
			Lender:      lender,
			Product:     product,
			Region:      region,
			InputAmount: amount,
			PayinAmount: payin,
			SlabInfo:    SlabInfo{LowerSlab: lower},
		}
		if hasHigher {
			result.SlabInfo.HigherSlab = &higher
		}
		return result, nil
	}

	if !matched {
		return nil, ErrNoData
	}
	return nil, ErrNoSlab
}

// payinFor resolves the payin value for a slab row. The first column in
// header order whose name mentions payin or amount wins, with a missing cell
// reading as 0. Without such a column the first rate/percentage/% column
// applies to the amount: values above 1 read as percents, the rest as
// fractions.
func (t *Table) payinFor(row Row, amount float64) (float64, bool) {
	for _, col := range t.Columns {
		if isKeyColumn(col) {
			continue
		}
		if matchesAny(col, "payin", "amount") {
			if v := row[col]; v.IsNum {
				return v.Num, true
			}
			return 0, true
		}
	}

	for _, col := range t.Columns {
		if isKeyColumn(col) {
			continue
		}
		if matchesAny(col, "rate", "percentage", "%") {
			v := row[col]
			if !v.IsNum {
				return 0, false
			}
			if v.Num > 1 {
				return amount * (v.Num / 100), true
			}
			return amount * v.Num, true
		}
	}

	return 0, false
}
