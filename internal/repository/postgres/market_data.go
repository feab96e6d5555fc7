package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/pkg/errors"
)

type marketDataRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMarketDataRepository creates a new market data repository
func NewMarketDataRepository(db *sql.DB, logger *zap.Logger) *marketDataRepository {
	return &marketDataRepository{
		db:     db,
		logger: logger,
	}
}

// Get returns the latest market data version
func (r *marketDataRepository) Get(ctx context.Context) (*domain.MarketData, error) {
	query := `
		SELECT version, data, updated_at FROM market_data
		ORDER BY version DESC LIMIT 1
	`

	var version int
	var data []byte
	var updatedAt time.Time

	err := r.db.QueryRowContext(ctx, query).Scan(&version, &data, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "market data", ID: "current"}
	}
	if err != nil {
		r.logger.Error("Failed to get market data", zap.Error(err))
		return nil, err
	}

	var md domain.MarketData
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, err
	}
	md.Version = version
	md.UpdatedAt = updatedAt

	return &md, nil
}

// Put stores a new market data version on top of the current one
func (r *marketDataRepository) Put(ctx context.Context, md *domain.MarketData) error {
	current, err := r.Get(ctx)
	if err == nil {
		md.Version = current.Version + 1
	} else if md.Version == 0 {
		md.Version = 1
	}
	md.UpdatedAt = time.Now()

	data, err := json.Marshal(md)
	if err != nil {
		return err
	}

	query := `INSERT INTO market_data (version, data, updated_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, md.Version, data, md.UpdatedAt); err != nil {
		r.logger.Error("Failed to store market data", zap.Error(err))
		return err
	}

	return nil
}
