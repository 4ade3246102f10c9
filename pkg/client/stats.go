package client

import (
	"math"

	"stringtracker/internal/models"
)

// PriceStats summarizes the prices of a listing.
type PriceStats struct {
	Count   int
	Min     float64
	Max     float64
	Average float64
}

// ComputePriceStats returns the price summary of guitars. ok is false for an
// empty slice.
func ComputePriceStats(guitars []models.Guitar) (stats PriceStats, ok bool) {
	if len(guitars) == 0 {
		return PriceStats{}, false
	}
	stats = PriceStats{Count: len(guitars), Min: guitars[0].Price, Max: guitars[0].Price}
	var sum float64
	for _, g := range guitars {
		sum += g.Price
		stats.Min = math.Min(stats.Min, g.Price)
		stats.Max = math.Max(stats.Max, g.Price)
	}
	stats.Average = sum / float64(len(guitars))
	return stats, true
}

// ClosestToAverage returns the guitar whose price is nearest to the average,
// the earliest one on ties, or nil for an empty slice.
func ClosestToAverage(guitars []models.Guitar) *models.Guitar {
	stats, ok := ComputePriceStats(guitars)
	if !ok {
		return nil
	}
	best := 0
	for i := range guitars {
		if math.Abs(guitars[i].Price-stats.Average) < math.Abs(guitars[best].Price-stats.Average) {
			best = i
		}
	}
	return &guitars[best]
}

// PriceCategory highlights a guitar within a listing.
type PriceCategory string

const (
	CategoryLowest  PriceCategory = "lowest"
	CategoryHighest PriceCategory = "highest"
	CategoryAverage PriceCategory = "closest-to-average"
)

// Categorize labels the cheapest and most expensive guitars, and the one
// closest to the average price, keyed by guitar id. A guitar may carry
// several labels; unlabeled guitars are absent from the map.
func Categorize(guitars []models.Guitar) map[uint][]PriceCategory {
	labels := make(map[uint][]PriceCategory)
	stats, ok := ComputePriceStats(guitars)
	if !ok {
		return labels
	}
	for _, g := range guitars {
		if g.Price == stats.Min {
			labels[g.ID] = append(labels[g.ID], CategoryLowest)
		}
		if g.Price == stats.Max {
			labels[g.ID] = append(labels[g.ID], CategoryHighest)
		}
	}
	closest := ClosestToAverage(guitars)
	labels[closest.ID] = append(labels[closest.ID], CategoryAverage)
	return labels
}
