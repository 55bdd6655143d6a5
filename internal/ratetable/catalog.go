package ratetable

import "sort"

// distinct collects the sorted, de-duplicated, non-empty values that pick
// produces for rows passing the filter.
func (t *Table) distinct(filter func(Row) bool, pick func(Row) string) []string {
	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		if filter != nil && !filter(row) {
			continue
		}
		v := pick(row)
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Lenders returns all distinct lenders.
func (t *Table) Lenders() []string {
	return t.distinct(nil, Row.Lender)
}

// Products returns all distinct products.
func (t *Table) Products() []string {
	return t.distinct(nil, Row.Product)
}

// Regions returns all distinct regions.
func (t *Table) Regions() []string {
	return t.distinct(nil, Row.Region)
}

// ProductsFor returns the distinct products offered by one lender. An
// unknown lender yields an empty list, not an error.
func (t *Table) ProductsFor(lender string) []string {
	return t.distinct(func(r Row) bool {
		return r.Lender() == lender
	}, Row.Product)
}

// RegionsFor returns the distinct regions for a lender and product pair.
func (t *Table) RegionsFor(lender, product string) []string {
	return t.distinct(func(r Row) bool {
		return r.Lender() == lender && r.Product() == product
	}, Row.Region)
}
