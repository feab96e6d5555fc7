package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/config"
	"github.com/vendio/dropship-core/internal/repository"
)

// Open connects to postgres using the database config
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewRepositories creates the postgres-backed repository set
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Supplier:       NewSupplierRepository(db, logger),
		Relation:       NewRelationRepository(db, logger),
		Recommendation: NewRecommendationRepository(db, logger),
		DropshipOrder:  NewDropshipOrderRepository(db, logger),
		MarketData:     NewMarketDataRepository(db, logger),
		OrderEvent:     NewOrderEventRepository(db, logger),
	}
}
