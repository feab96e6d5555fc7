// Package memory provides in-process implementations of the repository
// interfaces. Used by unit tests and local development; behavior
// mirrors the postgres implementations, including the conflict and
// not-found contracts.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/domain/credentials"
	"github.com/vendio/dropship-core/internal/repository"
	"github.com/vendio/dropship-core/pkg/errors"
)

// NewRepositories creates a fully in-memory repository set
func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		Supplier:       NewSupplierRepository(),
		Relation:       NewRelationRepository(),
		Recommendation: NewRecommendationRepository(),
		DropshipOrder:  NewDropshipOrderRepository(),
		MarketData:     NewMarketDataRepository(),
		OrderEvent:     NewOrderEventRepository(),
	}
}

type supplierRepository struct {
	mu          sync.RWMutex
	suppliers   map[uuid.UUID]*domain.Supplier
	credentials map[uuid.UUID]credentials.Sealed
}

func NewSupplierRepository() *supplierRepository {
	return &supplierRepository{
		suppliers:   make(map[uuid.UUID]*domain.Supplier),
		credentials: make(map[uuid.UUID]credentials.Sealed),
	}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *domain.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = now
	}
	supplier.UpdatedAt = now

	cp := *supplier
	r.suppliers[supplier.ID] = &cp
	return nil
}

func (r *supplierRepository) Update(ctx context.Context, supplier *domain.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.suppliers[supplier.ID]; !ok {
		return &errors.ErrNotFound{Resource: "supplier", ID: supplier.ID.String()}
	}
	supplier.UpdatedAt = time.Now()
	cp := *supplier
	r.suppliers[supplier.ID] = &cp
	return nil
}

func (r *supplierRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	supplier, ok := r.suppliers[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "supplier", ID: id.String()}
	}
	cp := *supplier
	return &cp, nil
}

func (r *supplierRepository) GetByName(ctx context.Context, name string) (*domain.Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, supplier := range r.suppliers {
		if strings.EqualFold(supplier.Name, name) {
			cp := *supplier
			return &cp, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "supplier", ID: name}
}

func (r *supplierRepository) List(ctx context.Context, filter repository.SupplierFilter, limit, offset int) ([]*domain.Supplier, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Supplier, 0, len(r.suppliers))
	for _, supplier := range r.suppliers {
		if filter.Status != nil && supplier.Status != *filter.Status {
			continue
		}
		if filter.Country != "" && !strings.EqualFold(supplier.Country, filter.Country) {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(supplier.Name), needle) &&
				!strings.Contains(strings.ToLower(supplier.Description), needle) {
				continue
			}
		}
		cp := *supplier
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *supplierRepository) SetCredentials(ctx context.Context, id uuid.UUID, sealed credentials.Sealed) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.suppliers[id]; !ok {
		return &errors.ErrNotFound{Resource: "supplier", ID: id.String()}
	}
	r.credentials[id] = sealed
	return nil
}

func (r *supplierRepository) GetCredentials(ctx context.Context, id uuid.UUID) (credentials.Sealed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sealed, ok := r.credentials[id]
	if !ok {
		return "", &errors.ErrNotFound{Resource: "supplier credentials", ID: id.String()}
	}
	return sealed, nil
}

type relationRepository struct {
	mu        sync.RWMutex
	relations map[uuid.UUID]*domain.Relation
}

func NewRelationRepository() *relationRepository {
	return &relationRepository{relations: make(map[uuid.UUID]*domain.Relation)}
}

func (r *relationRepository) Create(ctx context.Context, relation *domain.Relation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.relations {
		if existing.ProductID == relation.ProductID &&
			existing.Provider == relation.Provider &&
			existing.ExternalID == relation.ExternalID {
			return &errors.ErrConflict{
				Resource: "relation",
				Message:  "product already linked to this supplier SKU",
			}
		}
	}

	now := time.Now()
	if relation.ID == uuid.Nil {
		relation.ID = uuid.New()
	}
	if relation.CreatedAt.IsZero() {
		relation.CreatedAt = now
	}
	relation.UpdatedAt = now

	cp := *relation
	r.relations[relation.ID] = &cp
	return nil
}

func (r *relationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Relation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	relation, ok := r.relations[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "relation", ID: id.String()}
	}
	cp := *relation
	return &cp, nil
}

func (r *relationRepository) GetByTriple(ctx context.Context, productID uuid.UUID, provider, externalID string) (*domain.Relation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, relation := range r.relations {
		if relation.ProductID == productID && relation.Provider == provider && relation.ExternalID == externalID {
			cp := *relation
			return &cp, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "relation", ID: externalID}
}

func (r *relationRepository) Find(ctx context.Context, filter repository.RelationFilter, limit, offset int) ([]*domain.Relation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Relation, 0)
	for _, relation := range r.relations {
		if filter.ProductID != nil && relation.ProductID != *filter.ProductID {
			continue
		}
		if filter.Provider != "" && relation.Provider != filter.Provider {
			continue
		}
		if filter.ExternalID != "" && relation.ExternalID != filter.ExternalID {
			continue
		}
		cp := *relation
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *relationRepository) UpdateSync(ctx context.Context, id uuid.UUID, price float64, syncedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	relation, ok := r.relations[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "relation", ID: id.String()}
	}
	relation.SupplierPrice = price
	relation.LastSyncAt = &syncedAt
	relation.UpdatedAt = time.Now()
	return nil
}

func (r *relationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.relations[id]; !ok {
		return &errors.ErrNotFound{Resource: "relation", ID: id.String()}
	}
	delete(r.relations, id)
	return nil
}

type recommendationRepository struct {
	mu              sync.RWMutex
	recommendations map[uuid.UUID]*domain.Recommendation
}

func NewRecommendationRepository() *recommendationRepository {
	return &recommendationRepository{recommendations: make(map[uuid.UUID]*domain.Recommendation)}
}

func (r *recommendationRepository) Create(ctx context.Context, rec *domain.Recommendation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	cp := *rec
	r.recommendations[rec.ID] = &cp
	return nil
}

func (r *recommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Recommendation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.recommendations[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "recommendation", ID: id.String()}
	}
	cp := *rec
	return &cp, nil
}

func (r *recommendationRepository) Update(ctx context.Context, rec *domain.Recommendation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recommendations[rec.ID]; !ok {
		return &errors.ErrNotFound{Resource: "recommendation", ID: rec.ID.String()}
	}
	rec.UpdatedAt = time.Now()
	cp := *rec
	r.recommendations[rec.ID] = &cp
	return nil
}

func (r *recommendationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recommendations[id]; !ok {
		return &errors.ErrNotFound{Resource: "recommendation", ID: id.String()}
	}
	delete(r.recommendations, id)
	return nil
}

func (r *recommendationRepository) List(ctx context.Context, limit, offset int) ([]*domain.Recommendation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Recommendation, 0, len(r.recommendations))
	for _, rec := range r.recommendations {
		cp := *rec
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

type dropshipOrderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.DropshipOrder
}

func NewDropshipOrderRepository() *dropshipOrderRepository {
	return &dropshipOrderRepository{orders: make(map[uuid.UUID]*domain.DropshipOrder)}
}

func (r *dropshipOrderRepository) Create(ctx context.Context, order *domain.DropshipOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	cp := cloneOrder(order)
	r.orders[order.ID] = cp
	return nil
}

func (r *dropshipOrderRepository) Update(ctx context.Context, order *domain.DropshipOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; !ok {
		return &errors.ErrNotFound{Resource: "dropship order", ID: order.ID.String()}
	}
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *dropshipOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DropshipOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "dropship order", ID: id.String()}
	}
	return cloneOrder(order), nil
}

func (r *dropshipOrderRepository) GetByCustomerAndSupplier(ctx context.Context, customerOrderID string, supplierID uuid.UUID) (*domain.DropshipOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.CustomerOrderID == customerOrderID && order.SupplierID == supplierID {
			return cloneOrder(order), nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "dropship order", ID: customerOrderID}
}

func (r *dropshipOrderRepository) ListByStatus(ctx context.Context, status domain.DropshipOrderStatus, limit, offset int) ([]*domain.DropshipOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.DropshipOrder, 0)
	for _, order := range r.orders {
		if order.Status == status {
			matched = append(matched, cloneOrder(order))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *dropshipOrderRepository) ListDueForRetry(ctx context.Context, now time.Time, limit int) ([]*domain.DropshipOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.DropshipOrder, 0)
	for _, order := range r.orders {
		if order.Status != domain.OrderStatusPending || order.RetryCount == 0 {
			continue
		}
		if order.NextAttemptAt != nil && order.NextAttemptAt.After(now) {
			continue
		}
		matched = append(matched, cloneOrder(order))
		if len(matched) == limit {
			break
		}
	}
	return matched, nil
}

func cloneOrder(order *domain.DropshipOrder) *domain.DropshipOrder {
	cp := *order
	cp.Items = append([]domain.DropshipOrderItem(nil), order.Items...)
	return &cp
}

type marketDataRepository struct {
	mu   sync.RWMutex
	data *domain.MarketData
}

func NewMarketDataRepository() *marketDataRepository {
	return &marketDataRepository{}
}

func (r *marketDataRepository) Get(ctx context.Context) (*domain.MarketData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.data == nil {
		return nil, &errors.ErrNotFound{Resource: "market data", ID: "current"}
	}
	cp := *r.data
	return &cp, nil
}

func (r *marketDataRepository) Put(ctx context.Context, md *domain.MarketData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.data != nil {
		md.Version = r.data.Version + 1
	} else if md.Version == 0 {
		md.Version = 1
	}
	md.UpdatedAt = time.Now()
	cp := *md
	r.data = &cp
	return nil
}

type orderEventRepository struct {
	mu     sync.RWMutex
	events []*domain.OrderEvent
}

func NewOrderEventRepository() *orderEventRepository {
	return &orderEventRepository{}
}

func (r *orderEventRepository) Create(ctx context.Context, event *domain.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	cp := *event
	r.events = append(r.events, &cp)
	return nil
}

func (r *orderEventRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.OrderEvent, 0)
	for _, event := range r.events {
		if event.DropshipOrderID == orderID {
			cp := *event
			matched = append(matched, &cp)
		}
	}
	return matched, nil
}
