package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/domain/credentials"
	"github.com/vendio/dropship-core/internal/repository"
	"github.com/vendio/dropship-core/pkg/errors"
)

type supplierRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *sql.DB, logger *zap.Logger) *supplierRepository {
	return &supplierRepository{
		db:     db,
		logger: logger,
	}
}

const supplierColumns = `
	id, name, provider, country, website, description, commission,
	shipping_days, min_order_qty, categories, contact_email, contact_phone,
	gdpr_compliant, terms_accepted, status, rating, total_products,
	total_revenue, active_stores, created_at, updated_at
`

func (r *supplierRepository) Create(ctx context.Context, supplier *domain.Supplier) error {
	query := `
		INSERT INTO suppliers (` + supplierColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	now := time.Now()
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = now
	}
	supplier.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		supplier.ID,
		supplier.Name,
		supplier.Provider,
		supplier.Country,
		supplier.Website,
		supplier.Description,
		supplier.Commission,
		supplier.ShippingDays,
		supplier.MinOrderQty,
		pq.Array(supplier.Categories),
		supplier.ContactEmail,
		supplier.ContactPhone,
		supplier.GDPRCompliant,
		supplier.TermsAccepted,
		supplier.Status,
		supplier.Rating,
		supplier.TotalProducts,
		supplier.TotalRevenue,
		supplier.ActiveStores,
		supplier.CreatedAt,
		supplier.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create supplier", zap.Error(err))
		return err
	}

	return nil
}

func (r *supplierRepository) Update(ctx context.Context, supplier *domain.Supplier) error {
	query := `
		UPDATE suppliers
		SET name = $2, provider = $3, country = $4, website = $5,
			description = $6, commission = $7, shipping_days = $8,
			min_order_qty = $9, categories = $10, contact_email = $11,
			contact_phone = $12, gdpr_compliant = $13, terms_accepted = $14,
			status = $15, rating = $16, total_products = $17,
			total_revenue = $18, active_stores = $19, updated_at = $20
		WHERE id = $1
	`

	supplier.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		supplier.ID,
		supplier.Name,
		supplier.Provider,
		supplier.Country,
		supplier.Website,
		supplier.Description,
		supplier.Commission,
		supplier.ShippingDays,
		supplier.MinOrderQty,
		pq.Array(supplier.Categories),
		supplier.ContactEmail,
		supplier.ContactPhone,
		supplier.GDPRCompliant,
		supplier.TermsAccepted,
		supplier.Status,
		supplier.Rating,
		supplier.TotalProducts,
		supplier.TotalRevenue,
		supplier.ActiveStores,
		supplier.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update supplier", zap.Error(err))
		return err
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return &errors.ErrNotFound{Resource: "supplier", ID: supplier.ID.String()}
	}

	return nil
}

func (r *supplierRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = $1`

	supplier, err := r.scanSupplier(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "supplier", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get supplier by ID", zap.Error(err))
		return nil, err
	}

	return supplier, nil
}

func (r *supplierRepository) GetByName(ctx context.Context, name string) (*domain.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE lower(name) = lower($1)`

	supplier, err := r.scanSupplier(r.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "supplier", ID: name}
	}
	if err != nil {
		r.logger.Error("Failed to get supplier by name", zap.Error(err))
		return nil, err
	}

	return supplier, nil
}

func (r *supplierRepository) List(ctx context.Context, filter repository.SupplierFilter, limit, offset int) ([]*domain.Supplier, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filter.Status != nil {
		where += ` AND status = $` + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.Country != "" {
		where += ` AND lower(country) = lower($` + itoa(idx) + `)`
		args = append(args, filter.Country)
		idx++
	}
	if filter.Search != "" {
		where += ` AND (name ILIKE '%' || $` + itoa(idx) + ` || '%' OR description ILIKE '%' || $` + itoa(idx) + ` || '%')`
		args = append(args, filter.Search)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM suppliers`+where, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count suppliers", zap.Error(err))
		return nil, 0, err
	}

	query := `SELECT ` + supplierColumns + ` FROM suppliers` + where +
		` ORDER BY created_at DESC LIMIT $` + itoa(idx) + ` OFFSET $` + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list suppliers", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	suppliers := make([]*domain.Supplier, 0)
	for rows.Next() {
		supplier, err := r.scanSupplier(rows)
		if err != nil {
			return nil, 0, err
		}
		suppliers = append(suppliers, supplier)
	}

	return suppliers, total, rows.Err()
}

func (r *supplierRepository) SetCredentials(ctx context.Context, id uuid.UUID, sealed credentials.Sealed) error {
	query := `
		INSERT INTO supplier_credentials (supplier_id, sealed, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (supplier_id) DO UPDATE SET sealed = $2, updated_at = $3
	`

	_, err := r.db.ExecContext(ctx, query, id, string(sealed), time.Now())
	if err != nil {
		// The sealed blob is ciphertext, but keep it out of logs anyway.
		r.logger.Error("Failed to store supplier credentials",
			zap.String("supplier_id", id.String()),
		)
		return err
	}
	return nil
}

func (r *supplierRepository) GetCredentials(ctx context.Context, id uuid.UUID) (credentials.Sealed, error) {
	query := `SELECT sealed FROM supplier_credentials WHERE supplier_id = $1`

	var sealed string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&sealed)
	if err == sql.ErrNoRows {
		return "", &errors.ErrNotFound{Resource: "supplier credentials", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get supplier credentials",
			zap.String("supplier_id", id.String()),
		)
		return "", err
	}

	return credentials.Sealed(sealed), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *supplierRepository) scanSupplier(row rowScanner) (*domain.Supplier, error) {
	var supplier domain.Supplier
	var website, contactPhone sql.NullString
	var categories pq.StringArray

	err := row.Scan(
		&supplier.ID,
		&supplier.Name,
		&supplier.Provider,
		&supplier.Country,
		&website,
		&supplier.Description,
		&supplier.Commission,
		&supplier.ShippingDays,
		&supplier.MinOrderQty,
		&categories,
		&supplier.ContactEmail,
		&contactPhone,
		&supplier.GDPRCompliant,
		&supplier.TermsAccepted,
		&supplier.Status,
		&supplier.Rating,
		&supplier.TotalProducts,
		&supplier.TotalRevenue,
		&supplier.ActiveStores,
		&supplier.CreatedAt,
		&supplier.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	supplier.Categories = categories
	if website.Valid {
		supplier.Website = &website.String
	}
	if contactPhone.Valid {
		supplier.ContactPhone = &contactPhone.String
	}

	return &supplier, nil
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
