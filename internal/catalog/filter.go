package catalog

import (
	"strconv"
	"strings"
)

// FilterAll is the wire value of the "all categories" filter.
const FilterAll = "all"

// Filter selects the products of one category or of all categories.
type Filter struct {
	categoryID int64
}

// AllCategories returns the filter matching every product.
func AllCategories() Filter { return Filter{} }

// ByCategory returns a filter matching products of the given category.
func ByCategory(id int64) Filter { return Filter{categoryID: id} }

// ParseFilter reads a filter from a query value. Empty, "all" and unparsable values select all
// categories.
func ParseFilter(raw string) Filter {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, FilterAll) {
		return AllCategories()
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return AllCategories()
	}
	return ByCategory(id)
}

// IsAll reports whether the filter matches every category.
func (f Filter) IsAll() bool { return f.categoryID == 0 }

// CategoryID returns the selected category id.
func (f Filter) CategoryID() (int64, bool) {
	return f.categoryID, f.categoryID != 0
}

// String returns the query value for the filter.
func (f Filter) String() string {
	if f.IsAll() {
		return FilterAll
	}
	return strconv.FormatInt(f.categoryID, 10)
}

// Match reports whether p passes the filter.
func (f Filter) Match(p Product) bool {
	return f.IsAll() || p.CategoryID == f.categoryID
}

// FilterProducts returns the products matching f in their original order.
func FilterProducts(products []Product, f Filter) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// FindCategory returns the category with the given id.
func FindCategory(categories []Category, id int64) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// FindProduct returns the product with the given id.
func FindProduct(products []Product, id int64) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// CategoryNames indexes category names by id.
func CategoryNames(categories []Category) map[int64]string {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}
