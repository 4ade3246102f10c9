package models

import "strings"

// SortField names a column guitars can be ordered by.
type SortField string

const (
	SortByModel SortField = "model"
	SortByBrand SortField = "brand"
	SortByPrice SortField = "price"
)

// SortDirection is either ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortField maps the accepted query aliases onto a SortField.
// Unknown values fall back to ordering by model.
func ParseSortField(s string) SortField {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "price":
		return SortByPrice
	case "brand", "brandname", "manufacturer":
		return SortByBrand
	default:
		return SortByModel
	}
}

// ParseSortDirection is case-insensitive and defaults to ascending.
func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(s), string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}

// GuitarSort orders a listing by a single key.
type GuitarSort struct {
	Field     SortField
	Direction SortDirection
}

// DefaultSort orders by model ascending.
func DefaultSort() GuitarSort {
	return GuitarSort{Field: SortByModel, Direction: SortAsc}
}

// Less orders a before b. Ties fall back to ascending id so listings are stable.
func (s GuitarSort) Less(a, b Guitar) bool {
	var cmp int
	switch s.Field {
	case SortByPrice:
		switch {
		case a.Price < b.Price:
			cmp = -1
		case a.Price > b.Price:
			cmp = 1
		}
	case SortByBrand:
		cmp = strings.Compare(a.Brand.Name, b.Brand.Name)
	default:
		cmp = strings.Compare(a.Model, b.Model)
	}
	if cmp == 0 {
		return a.ID < b.ID
	}
	if s.Direction == SortDesc {
		return cmp > 0
	}
	return cmp < 0
}

// GuitarFilter restricts a guitar listing. Zero values mean no restriction
// on that dimension; every supplied predicate must hold.
type GuitarFilter struct {
	UserID     string
	Model      string // case-insensitive substring
	BrandLike  string // case-insensitive substring
	BrandNames []string
	Types      []string
	Strings    []int
	Conditions []string
	MinPrice   *float64
	MaxPrice   *float64
	// Search matches model or brand name as a case-insensitive substring.
	// It combines with the other fields.
	Search string
}

// Matches evaluates the filter against a single guitar with its brand loaded.
func (f GuitarFilter) Matches(g Guitar) bool {
	if f.UserID != "" && g.UserID != f.UserID {
		return false
	}
	if f.Model != "" && !containsFold(g.Model, f.Model) {
		return false
	}
	if f.BrandLike != "" && !containsFold(g.Brand.Name, f.BrandLike) {
		return false
	}
	if len(f.BrandNames) > 0 && !contains(f.BrandNames, g.Brand.Name) {
		return false
	}
	if len(f.Types) > 0 && !contains(f.Types, g.Type) {
		return false
	}
	if len(f.Strings) > 0 && !contains(f.Strings, g.Strings) {
		return false
	}
	if len(f.Conditions) > 0 && !contains(f.Conditions, g.Condition) {
		return false
	}
	if f.MinPrice != nil && g.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && g.Price > *f.MaxPrice {
		return false
	}
	if f.Search != "" && !containsFold(g.Model, f.Search) && !containsFold(g.Brand.Name, f.Search) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
