// Package pricing computes recommended retail prices from supplier
// cost and market data. Everything here is pure: no I/O, no clock, no
// randomness, so identical inputs always produce identical quotes.
package pricing

import (
	"math"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/pkg/errors"
)

// Quote is a recommended retail price for a supplier-sourced product
type Quote struct {
	Price         float64 `json:"price"`
	Margin        float64 `json:"margin"`
	MarkupPercent float64 `json:"markup_percent"`
}

// Recommend computes the recommended price for a product.
//
// The category's average markup (or the global average for unknown
// categories) is clamped into the competition level's band, applied to
// the supplier cost, and optionally rounded to a psychological price
// point. A result whose margin falls below the configured minimum is
// refused, never silently adjusted.
func Recommend(supplierCost float64, category string, competition domain.CompetitionLevel, md *domain.MarketData) (Quote, error) {
	if supplierCost <= 0 {
		return Quote{}, &errors.ErrValidation{Field: "supplierCost", Message: "must be positive"}
	}
	if !competition.IsValid() {
		return Quote{}, &errors.ErrValidation{Field: "competitionLevel", Message: "must be low, medium or high"}
	}

	markup, ok := md.CategoryMarkups[category]
	if !ok {
		markup = md.GlobalAverageMarkup
	}

	band, ok := md.CompetitionBands[competition]
	if !ok {
		return Quote{}, &errors.ErrValidation{Field: "competitionLevel", Message: "no band configured"}
	}
	markup = clamp(markup, band.MinMarkup, band.MaxMarkup)

	price := round2(supplierCost * (1 + markup/100))
	if md.PsychologicalPricing {
		price = psychologicalRound(price)
	}

	margin := round2(price - supplierCost)
	if margin < md.MinimumMargin {
		return Quote{}, &errors.ErrMarginTooLow{Margin: margin, Minimum: md.MinimumMargin}
	}

	return Quote{
		Price:         price,
		Margin:        margin,
		MarkupPercent: markup,
	}, nil
}

// BundleTotal prices a multi-unit line, applying the configured bundle
// discount for quantities above one. The margin floor applies to the
// whole bundle.
func BundleTotal(unitPrice, unitCost float64, qty int, md *domain.MarketData) (float64, error) {
	if qty < 1 {
		return 0, &errors.ErrValidation{Field: "qty", Message: "must be at least 1"}
	}

	total := unitPrice * float64(qty)
	if qty > 1 && md.BundleDiscount > 0 {
		total = total * (1 - md.BundleDiscount/100)
	}
	total = round2(total)

	margin := total - unitCost*float64(qty)
	if margin < md.MinimumMargin*float64(qty) {
		return 0, &errors.ErrMarginTooLow{Margin: round2(margin), Minimum: md.MinimumMargin * float64(qty)}
	}

	return total, nil
}

// psychologicalRound moves a price to the nearest whole unit minus one
// cent, e.g. 16.00 -> 15.99 and 19.70 -> 19.99.
func psychologicalRound(price float64) float64 {
	rounded := math.Round(price) - 0.01
	if rounded <= 0 {
		return price
	}
	return round2(rounded)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
