package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/repository"
	"github.com/vendio/dropship-core/pkg/errors"
)

type relationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRelationRepository creates a new relation repository
func NewRelationRepository(db *sql.DB, logger *zap.Logger) *relationRepository {
	return &relationRepository{
		db:     db,
		logger: logger,
	}
}

const relationColumns = `
	id, product_id, supplier_id, provider, external_id, external_url,
	supplier_price, supplier_currency, last_sync_at, created_at, updated_at
`

func (r *relationRepository) Create(ctx context.Context, relation *domain.Relation) error {
	query := `
		INSERT INTO relations (` + relationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	now := time.Now()
	if relation.ID == uuid.Nil {
		relation.ID = uuid.New()
	}
	if relation.CreatedAt.IsZero() {
		relation.CreatedAt = now
	}
	relation.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		relation.ID,
		relation.ProductID,
		relation.SupplierID,
		relation.Provider,
		relation.ExternalID,
		relation.ExternalURL,
		relation.SupplierPrice,
		relation.SupplierCurrency,
		relation.LastSyncAt,
		relation.CreatedAt,
		relation.UpdatedAt,
	)

	if err != nil {
		// relations has a unique index on (product_id, provider, external_id)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &errors.ErrConflict{
				Resource: "relation",
				Message:  "product already linked to this supplier SKU",
			}
		}
		r.logger.Error("Failed to create relation", zap.Error(err))
		return err
	}

	return nil
}

func (r *relationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Relation, error) {
	query := `SELECT ` + relationColumns + ` FROM relations WHERE id = $1`

	relation, err := r.scanRelation(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "relation", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get relation by ID", zap.Error(err))
		return nil, err
	}

	return relation, nil
}

func (r *relationRepository) GetByTriple(ctx context.Context, productID uuid.UUID, provider, externalID string) (*domain.Relation, error) {
	query := `
		SELECT ` + relationColumns + ` FROM relations
		WHERE product_id = $1 AND provider = $2 AND external_id = $3
	`

	relation, err := r.scanRelation(r.db.QueryRowContext(ctx, query, productID, provider, externalID))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "relation", ID: externalID}
	}
	if err != nil {
		r.logger.Error("Failed to get relation by triple", zap.Error(err))
		return nil, err
	}

	return relation, nil
}

func (r *relationRepository) Find(ctx context.Context, filter repository.RelationFilter, limit, offset int) ([]*domain.Relation, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filter.ProductID != nil {
		where += ` AND product_id = $` + itoa(idx)
		args = append(args, *filter.ProductID)
		idx++
	}
	if filter.Provider != "" {
		where += ` AND provider = $` + itoa(idx)
		args = append(args, filter.Provider)
		idx++
	}
	if filter.ExternalID != "" {
		where += ` AND external_id = $` + itoa(idx)
		args = append(args, filter.ExternalID)
		idx++
	}

	query := `SELECT ` + relationColumns + ` FROM relations` + where +
		` ORDER BY created_at LIMIT $` + itoa(idx) + ` OFFSET $` + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to find relations", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	relations := make([]*domain.Relation, 0)
	for rows.Next() {
		relation, err := r.scanRelation(rows)
		if err != nil {
			return nil, err
		}
		relations = append(relations, relation)
	}

	return relations, rows.Err()
}

func (r *relationRepository) UpdateSync(ctx context.Context, id uuid.UUID, price float64, syncedAt time.Time) error {
	query := `
		UPDATE relations
		SET supplier_price = $2, last_sync_at = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, price, syncedAt, time.Now())
	if err != nil {
		r.logger.Error("Failed to update relation sync", zap.Error(err))
		return err
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return &errors.ErrNotFound{Resource: "relation", ID: id.String()}
	}

	return nil
}

func (r *relationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM relations WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete relation", zap.Error(err))
		return err
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return &errors.ErrNotFound{Resource: "relation", ID: id.String()}
	}

	return nil
}

func (r *relationRepository) scanRelation(row rowScanner) (*domain.Relation, error) {
	var relation domain.Relation
	var externalURL sql.NullString
	var lastSyncAt sql.NullTime

	err := row.Scan(
		&relation.ID,
		&relation.ProductID,
		&relation.SupplierID,
		&relation.Provider,
		&relation.ExternalID,
		&externalURL,
		&relation.SupplierPrice,
		&relation.SupplierCurrency,
		&lastSyncAt,
		&relation.CreatedAt,
		&relation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if externalURL.Valid {
		relation.ExternalURL = &externalURL.String
	}
	if lastSyncAt.Valid {
		relation.LastSyncAt = &lastSyncAt.Time
	}

	return &relation, nil
}
