package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/repository"
)

// MarketDataPayload is the administrator-editable pricing configuration
type MarketDataPayload struct {
	Version              int                        `json:"version,omitempty"`
	CategoryMarkups      map[string]float64         `json:"category_markups"`
	GlobalAverageMarkup  float64                    `json:"global_average_markup" binding:"required,min=0"`
	CompetitionBands     map[string]CompetitionBand `json:"competition_bands" binding:"required"`
	ProviderCommissions  map[string]float64         `json:"provider_commissions,omitempty"`
	MinimumMargin        float64                    `json:"minimum_margin" binding:"min=0"`
	TargetMargin         float64                    `json:"target_margin" binding:"min=0"`
	BundleDiscount       float64                    `json:"bundle_discount" binding:"min=0,max=100"`
	PsychologicalPricing bool                       `json:"psychological_pricing"`
	UpdatedAt            string                     `json:"updated_at,omitempty"`
}

type CompetitionBand struct {
	MinMarkup float64 `json:"min_markup"`
	MaxMarkup float64 `json:"max_markup"`
}

func toMarketDataPayload(md *domain.MarketData) MarketDataPayload {
	bands := make(map[string]CompetitionBand, len(md.CompetitionBands))
	for level, band := range md.CompetitionBands {
		bands[string(level)] = CompetitionBand{MinMarkup: band.MinMarkup, MaxMarkup: band.MaxMarkup}
	}
	return MarketDataPayload{
		Version:              md.Version,
		CategoryMarkups:      md.CategoryMarkups,
		GlobalAverageMarkup:  md.GlobalAverageMarkup,
		CompetitionBands:     bands,
		ProviderCommissions:  md.ProviderCommissions,
		MinimumMargin:        md.MinimumMargin,
		TargetMargin:         md.TargetMargin,
		BundleDiscount:       md.BundleDiscount,
		PsychologicalPricing: md.PsychologicalPricing,
		UpdatedAt:            md.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// HandleGetMarketData handles GET /v1/market-data
func HandleGetMarketData(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		md, err := repos.MarketData.Get(c.Request.Context())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toMarketDataPayload(md))
	}
}

// HandlePutMarketData handles PUT /v1/market-data. Each write stores a
// new version; the pricing engine always reads the latest.
func HandlePutMarketData(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload MarketDataPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		bands := make(map[domain.CompetitionLevel]domain.CompetitionBand, len(payload.CompetitionBands))
		for raw, band := range payload.CompetitionBands {
			level := domain.CompetitionLevel(raw)
			if !level.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid competition level: " + raw})
				return
			}
			if band.MinMarkup > band.MaxMarkup {
				c.JSON(http.StatusBadRequest, gin.H{"error": "band min_markup above max_markup: " + raw})
				return
			}
			bands[level] = domain.CompetitionBand{MinMarkup: band.MinMarkup, MaxMarkup: band.MaxMarkup}
		}

		md := &domain.MarketData{
			CategoryMarkups:      payload.CategoryMarkups,
			GlobalAverageMarkup:  payload.GlobalAverageMarkup,
			CompetitionBands:     bands,
			ProviderCommissions:  payload.ProviderCommissions,
			MinimumMargin:        payload.MinimumMargin,
			TargetMargin:         payload.TargetMargin,
			BundleDiscount:       payload.BundleDiscount,
			PsychologicalPricing: payload.PsychologicalPricing,
		}
		if err := repos.MarketData.Put(c.Request.Context(), md); err != nil {
			respondError(c, logger, err)
			return
		}

		logger.Info("Market data updated", zap.Int("version", md.Version))
		c.JSON(http.StatusOK, toMarketDataPayload(md))
	}
}
