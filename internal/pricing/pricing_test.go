package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/pkg/errors"
)

func testMarketData() *domain.MarketData {
	return &domain.MarketData{
		Version: 1,
		CategoryMarkups: map[string]float64{
			"Beauté & Bien-être": 60,
			"Électronique":       35,
			"Mode & Accessoires": 80,
		},
		GlobalAverageMarkup: 50,
		CompetitionBands: map[domain.CompetitionLevel]domain.CompetitionBand{
			domain.CompetitionLow:    {MinMarkup: 50, MaxMarkup: 100},
			domain.CompetitionMedium: {MinMarkup: 30, MaxMarkup: 60},
			domain.CompetitionHigh:   {MinMarkup: 15, MaxMarkup: 40},
		},
		MinimumMargin:        2,
		TargetMargin:         10,
		BundleDiscount:       5,
		PsychologicalPricing: true,
	}
}

func TestRecommend(t *testing.T) {
	md := testMarketData()

	t.Run("worked example", func(t *testing.T) {
		// cost 10, category markup 60, medium band 30-60 keeps 60,
		// raw 16.00, psychological rounding gives 15.99
		quote, err := Recommend(10, "Beauté & Bien-être", domain.CompetitionMedium, md)
		require.NoError(t, err)
		assert.Equal(t, 15.99, quote.Price)
		assert.Equal(t, 5.99, quote.Margin)
		assert.Equal(t, 60.0, quote.MarkupPercent)
	})

	t.Run("unknown category falls back to global average", func(t *testing.T) {
		quote, err := Recommend(10, "Inconnu", domain.CompetitionMedium, md)
		require.NoError(t, err)
		assert.Equal(t, 50.0, quote.MarkupPercent)
		assert.Equal(t, 14.99, quote.Price)
	})

	t.Run("markup clamped to band minimum", func(t *testing.T) {
		// category markup 35 is below the low-competition band floor of 50
		quote, err := Recommend(10, "Électronique", domain.CompetitionLow, md)
		require.NoError(t, err)
		assert.Equal(t, 50.0, quote.MarkupPercent)
	})

	t.Run("markup clamped to band maximum", func(t *testing.T) {
		// category markup 80 exceeds the high-competition band cap of 40
		quote, err := Recommend(10, "Mode & Accessoires", domain.CompetitionHigh, md)
		require.NoError(t, err)
		assert.Equal(t, 40.0, quote.MarkupPercent)
	})

	t.Run("deterministic", func(t *testing.T) {
		first, err := Recommend(23.45, "Électronique", domain.CompetitionHigh, md)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := Recommend(23.45, "Électronique", domain.CompetitionHigh, md)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("markup always within band", func(t *testing.T) {
		costs := []float64{0.5, 1, 9.99, 42, 250}
		categories := []string{"Beauté & Bien-être", "Électronique", "Mode & Accessoires", "Inconnu"}
		levels := []domain.CompetitionLevel{domain.CompetitionLow, domain.CompetitionMedium, domain.CompetitionHigh}

		for _, cost := range costs {
			for _, cat := range categories {
				for _, level := range levels {
					quote, err := Recommend(cost, cat, level, md)
					if err != nil {
						var marginErr *errors.ErrMarginTooLow
						require.ErrorAs(t, err, &marginErr)
						continue
					}
					band := md.CompetitionBands[level]
					assert.GreaterOrEqual(t, quote.MarkupPercent, band.MinMarkup)
					assert.LessOrEqual(t, quote.MarkupPercent, band.MaxMarkup)
				}
			}
		}
	})

	t.Run("refuses margin below minimum", func(t *testing.T) {
		strict := testMarketData()
		strict.MinimumMargin = 100

		_, err := Recommend(10, "Beauté & Bien-être", domain.CompetitionMedium, strict)
		var marginErr *errors.ErrMarginTooLow
		require.ErrorAs(t, err, &marginErr)
		assert.Equal(t, 100.0, marginErr.Minimum)
	})

	t.Run("rounding disabled keeps raw price", func(t *testing.T) {
		plain := testMarketData()
		plain.PsychologicalPricing = false

		quote, err := Recommend(10, "Beauté & Bien-être", domain.CompetitionMedium, plain)
		require.NoError(t, err)
		assert.Equal(t, 16.0, quote.Price)
	})

	t.Run("rejects non-positive cost", func(t *testing.T) {
		_, err := Recommend(0, "Électronique", domain.CompetitionLow, md)
		var validationErr *errors.ErrValidation
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("rejects unknown competition level", func(t *testing.T) {
		_, err := Recommend(10, "Électronique", domain.CompetitionLevel("extreme"), md)
		var validationErr *errors.ErrValidation
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestBundleTotal(t *testing.T) {
	md := testMarketData()

	t.Run("applies discount above one unit", func(t *testing.T) {
		total, err := BundleTotal(15.99, 10, 3, md)
		require.NoError(t, err)
		// 47.97 minus 5 percent
		assert.Equal(t, 45.57, total)
	})

	t.Run("single unit undiscounted", func(t *testing.T) {
		total, err := BundleTotal(15.99, 10, 1, md)
		require.NoError(t, err)
		assert.Equal(t, 15.99, total)
	})

	t.Run("refuses bundle below margin floor", func(t *testing.T) {
		_, err := BundleTotal(10.5, 10, 4, md)
		var marginErr *errors.ErrMarginTooLow
		require.ErrorAs(t, err, &marginErr)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := BundleTotal(15.99, 10, 0, md)
		var validationErr *errors.ErrValidation
		require.ErrorAs(t, err, &validationErr)
	})
}
