package services

// MaxPageSize is the largest limit a listing accepts.
const MaxPageSize = 100

// PageMeta describes where a page sits in the full result set.
type PageMeta struct {
	Page         int  `json:"page"`
	Limit        int  `json:"limit"`
	TotalGuitars int  `json:"totalGuitars"`
	TotalPages   int  `json:"totalPages"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

// ValidatePagination checks page and limit before any query runs.
func ValidatePagination(page, limit int) error {
	if page < 1 {
		return ErrInvalidPage
	}
	if limit < 1 || limit > MaxPageSize {
		return ErrInvalidLimit
	}
	return nil
}

// Paginate slices items to [(page-1)*limit, page*limit). The bounds must
// already have passed ValidatePagination. The returned slice is never nil.
func Paginate[T any](items []T, page, limit int) ([]T, PageMeta) {
	total := len(items)
	totalPages := (total + limit - 1) / limit
	meta := PageMeta{
		Page:         page,
		Limit:        limit,
		TotalGuitars: total,
		TotalPages:   totalPages,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}

	start := (page - 1) * limit
	if start >= total {
		return []T{}, meta
	}
	end := min(start+limit, total)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, meta
}
