package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/pkg/errors"
)

type recommendationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRecommendationRepository creates a new recommendation repository
func NewRecommendationRepository(db *sql.DB, logger *zap.Logger) *recommendationRepository {
	return &recommendationRepository{
		db:     db,
		logger: logger,
	}
}

const recommendationColumns = `
	id, supplier_id, provider, title, category, supplier_cost, competition,
	external_id, external_url, image_url, suggested_price, suggested_margin,
	state, seen_at, reviewed_at, imported_at, local_product_id,
	created_at, updated_at
`

func (r *recommendationRepository) Create(ctx context.Context, rec *domain.Recommendation) error {
	query := `
		INSERT INTO recommendations (` + recommendationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	now := time.Now()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.SupplierID,
		rec.Provider,
		rec.Title,
		rec.Category,
		rec.SupplierCost,
		rec.Competition,
		rec.ExternalID,
		rec.ExternalURL,
		rec.ImageURL,
		rec.SuggestedPrice,
		rec.SuggestedMargin,
		rec.State,
		rec.SeenAt,
		rec.ReviewedAt,
		rec.ImportedAt,
		rec.LocalProductID,
		rec.CreatedAt,
		rec.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create recommendation", zap.Error(err))
		return err
	}

	return nil
}

func (r *recommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Recommendation, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations WHERE id = $1`

	rec, err := r.scanRecommendation(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "recommendation", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get recommendation by ID", zap.Error(err))
		return nil, err
	}

	return rec, nil
}

func (r *recommendationRepository) Update(ctx context.Context, rec *domain.Recommendation) error {
	query := `
		UPDATE recommendations
		SET title = $2, category = $3, supplier_cost = $4, competition = $5,
			suggested_price = $6, suggested_margin = $7, state = $8,
			seen_at = $9, reviewed_at = $10, imported_at = $11,
			local_product_id = $12, updated_at = $13
		WHERE id = $1
	`

	rec.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Title,
		rec.Category,
		rec.SupplierCost,
		rec.Competition,
		rec.SuggestedPrice,
		rec.SuggestedMargin,
		rec.State,
		rec.SeenAt,
		rec.ReviewedAt,
		rec.ImportedAt,
		rec.LocalProductID,
		rec.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update recommendation", zap.Error(err))
		return err
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return &errors.ErrNotFound{Resource: "recommendation", ID: rec.ID.String()}
	}

	return nil
}

func (r *recommendationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM recommendations WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete recommendation", zap.Error(err))
		return err
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return &errors.ErrNotFound{Resource: "recommendation", ID: id.String()}
	}

	return nil
}

func (r *recommendationRepository) List(ctx context.Context, limit, offset int) ([]*domain.Recommendation, error) {
	query := `
		SELECT ` + recommendationColumns + ` FROM recommendations
		ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list recommendations", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	recs := make([]*domain.Recommendation, 0)
	for rows.Next() {
		rec, err := r.scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

func (r *recommendationRepository) scanRecommendation(row rowScanner) (*domain.Recommendation, error) {
	var rec domain.Recommendation
	var externalURL, imageURL sql.NullString
	var seenAt, reviewedAt, importedAt sql.NullTime
	var localProductID uuid.NullUUID

	err := row.Scan(
		&rec.ID,
		&rec.SupplierID,
		&rec.Provider,
		&rec.Title,
		&rec.Category,
		&rec.SupplierCost,
		&rec.Competition,
		&rec.ExternalID,
		&externalURL,
		&imageURL,
		&rec.SuggestedPrice,
		&rec.SuggestedMargin,
		&rec.State,
		&seenAt,
		&reviewedAt,
		&importedAt,
		&localProductID,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if externalURL.Valid {
		rec.ExternalURL = &externalURL.String
	}
	if imageURL.Valid {
		rec.ImageURL = &imageURL.String
	}
	if seenAt.Valid {
		rec.SeenAt = &seenAt.Time
	}
	if reviewedAt.Valid {
		rec.ReviewedAt = &reviewedAt.Time
	}
	if importedAt.Valid {
		rec.ImportedAt = &importedAt.Time
	}
	if localProductID.Valid {
		rec.LocalProductID = &localProductID.UUID
	}

	return &rec, nil
}
