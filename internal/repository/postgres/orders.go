package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/pkg/errors"
)

type dropshipOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDropshipOrderRepository creates a new dropship order repository
func NewDropshipOrderRepository(db *sql.DB, logger *zap.Logger) *dropshipOrderRepository {
	return &dropshipOrderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `
	id, customer_order_id, supplier_id, provider, items, shipping, status,
	external_ref, idempotency_token, retry_count, next_attempt_at,
	last_tracked_at, failure_reason, created_at, updated_at
`

func (r *dropshipOrderRepository) Create(ctx context.Context, order *domain.DropshipOrder) error {
	query := `
		INSERT INTO dropship_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	items, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	shipping, err := json.Marshal(order.Shipping)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.CustomerOrderID,
		order.SupplierID,
		order.Provider,
		items,
		shipping,
		order.Status,
		order.ExternalRef,
		order.IdempotencyToken,
		order.RetryCount,
		order.NextAttemptAt,
		order.LastTrackedAt,
		order.FailureReason,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create dropship order", zap.Error(err))
		return err
	}

	return nil
}

func (r *dropshipOrderRepository) Update(ctx context.Context, order *domain.DropshipOrder) error {
	query := `
		UPDATE dropship_orders
		SET status = $2, external_ref = $3, retry_count = $4,
			next_attempt_at = $5, last_tracked_at = $6, failure_reason = $7,
			updated_at = $8
		WHERE id = $1
	`

	order.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.Status,
		order.ExternalRef,
		order.RetryCount,
		order.NextAttemptAt,
		order.LastTrackedAt,
		order.FailureReason,
		order.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update dropship order", zap.Error(err))
		return err
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return &errors.ErrNotFound{Resource: "dropship order", ID: order.ID.String()}
	}

	return nil
}

func (r *dropshipOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DropshipOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM dropship_orders WHERE id = $1`

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "dropship order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get dropship order by ID", zap.Error(err))
		return nil, err
	}

	return order, nil
}

func (r *dropshipOrderRepository) GetByCustomerAndSupplier(ctx context.Context, customerOrderID string, supplierID uuid.UUID) (*domain.DropshipOrder, error) {
	query := `
		SELECT ` + orderColumns + ` FROM dropship_orders
		WHERE customer_order_id = $1 AND supplier_id = $2
	`

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, customerOrderID, supplierID))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "dropship order", ID: customerOrderID}
	}
	if err != nil {
		r.logger.Error("Failed to get dropship order by customer and supplier", zap.Error(err))
		return nil, err
	}

	return order, nil
}

func (r *dropshipOrderRepository) ListByStatus(ctx context.Context, status domain.DropshipOrderStatus, limit, offset int) ([]*domain.DropshipOrder, error) {
	query := `
		SELECT ` + orderColumns + ` FROM dropship_orders
		WHERE status = $1 ORDER BY created_at LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list dropship orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return r.collectOrders(rows)
}

func (r *dropshipOrderRepository) ListDueForRetry(ctx context.Context, now time.Time, limit int) ([]*domain.DropshipOrder, error) {
	query := `
		SELECT ` + orderColumns + ` FROM dropship_orders
		WHERE status = $1 AND retry_count > 0
			AND (next_attempt_at IS NULL OR next_attempt_at <= $2)
		ORDER BY next_attempt_at LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, domain.OrderStatusPending, now, limit)
	if err != nil {
		r.logger.Error("Failed to list orders due for retry", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return r.collectOrders(rows)
}

func (r *dropshipOrderRepository) collectOrders(rows *sql.Rows) ([]*domain.DropshipOrder, error) {
	orders := make([]*domain.DropshipOrder, 0)
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *dropshipOrderRepository) scanOrder(row rowScanner) (*domain.DropshipOrder, error) {
	var order domain.DropshipOrder
	var items, shipping []byte
	var externalRef, failureReason sql.NullString
	var nextAttemptAt, lastTrackedAt sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.CustomerOrderID,
		&order.SupplierID,
		&order.Provider,
		&items,
		&shipping,
		&order.Status,
		&externalRef,
		&order.IdempotencyToken,
		&order.RetryCount,
		&nextAttemptAt,
		&lastTrackedAt,
		&failureReason,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(shipping, &order.Shipping); err != nil {
		return nil, err
	}
	if externalRef.Valid {
		order.ExternalRef = &externalRef.String
	}
	if failureReason.Valid {
		order.FailureReason = &failureReason.String
	}
	if nextAttemptAt.Valid {
		order.NextAttemptAt = &nextAttemptAt.Time
	}
	if lastTrackedAt.Valid {
		order.LastTrackedAt = &lastTrackedAt.Time
	}

	return &order, nil
}
