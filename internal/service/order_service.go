package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vendio/dropship-core/internal/adapter"
	"github.com/vendio/dropship-core/internal/config"
	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/repository"
	"github.com/vendio/dropship-core/pkg/errors"
	"github.com/vendio/dropship-core/pkg/locks"
)

type OrderService struct {
	repos    *repository.Repositories
	adapters *adapter.Registry
	locks    *locks.Arena
	cfg      config.DropshipConfig
	logger   *zap.Logger
}

// NewOrderService creates the order automation service. All writes to a
// single dropship order are serialized through the lock arena, so a
// placement retry and a tracking poll can never apply a stale
// transition against each other.
func NewOrderService(repos *repository.Repositories, adapters *adapter.Registry, arena *locks.Arena, cfg config.DropshipConfig, logger *zap.Logger) *OrderService {
	return &OrderService{
		repos:    repos,
		adapters: adapters,
		locks:    arena,
		cfg:      cfg,
		logger:   logger,
	}
}

// IdempotencyToken derives the deterministic submission token for a
// (customer order, supplier) pair. Retried placements reuse the same
// token, so providers that deduplicate on it can never create a second
// remote order.
func IdempotencyToken(customerOrderID string, supplierID uuid.UUID) string {
	sum := sha256.Sum256([]byte(customerOrderID + ":" + supplierID.String()))
	return hex.EncodeToString(sum[:])
}

// PlaceOrder partitions a customer order's line items by supplier,
// creates one dropship order per supplier and submits each to its
// adapter. Suppliers are submitted concurrently; a failed submission
// leaves its order pending with backoff scheduled rather than failing
// the whole call. Safe to invoke repeatedly for the same customer
// order.
func (s *OrderService) PlaceOrder(ctx context.Context, customerOrder CustomerOrder) ([]*domain.DropshipOrder, error) {
	if customerOrder.ID == "" {
		return nil, &errors.ErrValidation{Field: "id", Message: "required"}
	}
	if len(customerOrder.Items) == 0 {
		return nil, &errors.ErrValidation{Field: "items", Message: "at least one item required"}
	}

	groups, err := s.partitionBySupplier(ctx, customerOrder)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		// No dropship line items in this purchase
		return nil, nil
	}

	orders := make([]*domain.DropshipOrder, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			order, err := s.placeForSupplier(gctx, customerOrder, group)
			if err != nil {
				return err
			}
			orders[i] = order
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return orders, nil
}

type supplierGroup struct {
	supplierID uuid.UUID
	provider   string
	items      []domain.DropshipOrderItem
}

func (s *OrderService) partitionBySupplier(ctx context.Context, customerOrder CustomerOrder) ([]supplierGroup, error) {
	bySupplier := make(map[uuid.UUID]*supplierGroup)

	for _, item := range customerOrder.Items {
		productID := item.ProductID
		relations, err := s.repos.Relation.Find(ctx, repository.RelationFilter{ProductID: &productID}, 1, 0)
		if err != nil {
			return nil, err
		}
		if len(relations) == 0 {
			// Not a dropship product
			continue
		}
		rel := relations[0]

		group, ok := bySupplier[rel.SupplierID]
		if !ok {
			group = &supplierGroup{supplierID: rel.SupplierID, provider: rel.Provider}
			bySupplier[rel.SupplierID] = group
		}
		group.items = append(group.items, domain.DropshipOrderItem{
			ExternalID: rel.ExternalID,
			Title:      item.Title,
			Quantity:   item.Quantity,
			UnitCost:   rel.SupplierPrice,
		})
	}

	groups := make([]supplierGroup, 0, len(bySupplier))
	for _, group := range bySupplier {
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].supplierID.String() < groups[j].supplierID.String()
	})
	return groups, nil
}

func (s *OrderService) placeForSupplier(ctx context.Context, customerOrder CustomerOrder, group supplierGroup) (*domain.DropshipOrder, error) {
	token := IdempotencyToken(customerOrder.ID, group.supplierID)
	unlock := s.locks.Lock("dropship-order:" + token)
	defer unlock()

	order, err := s.repos.DropshipOrder.GetByCustomerAndSupplier(ctx, customerOrder.ID, group.supplierID)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); !ok {
			return nil, err
		}
		order = &domain.DropshipOrder{
			CustomerOrderID:  customerOrder.ID,
			SupplierID:       group.supplierID,
			Provider:         group.provider,
			Items:            group.items,
			Shipping:         customerOrder.Shipping,
			Status:           domain.OrderStatusPending,
			IdempotencyToken: token,
		}
		if err := s.repos.DropshipOrder.Create(ctx, order); err != nil {
			return nil, err
		}
		s.recordEvent(ctx, order.ID, "order_created", map[string]interface{}{
			"customer_order_id": customerOrder.ID,
			"supplier_id":       group.supplierID.String(),
		})
	}

	// Already past placement; nothing to submit again
	if order.Status != domain.OrderStatusPending {
		return order, nil
	}

	s.submit(ctx, order)
	return order, nil
}

// submit attempts one remote submission. The caller must hold the
// order's lock. State is mutated on the passed order and persisted.
func (s *OrderService) submit(ctx context.Context, order *domain.DropshipOrder) {
	prov, err := s.adapters.Get(order.Provider)
	if err != nil {
		s.markSubmitFailure(ctx, order, err)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.AdapterTimeout)
	defer cancel()

	result, err := prov.Submit(callCtx, adapter.OrderPayload{
		SupplierID:      order.SupplierID,
		CustomerOrderID: order.CustomerOrderID,
		Items:           order.Items,
		Shipping:        order.Shipping,
	}, order.IdempotencyToken)

	if err != nil {
		s.markSubmitFailure(ctx, order, err)
		return
	}

	order.Status = domain.OrderStatusSubmitted
	order.ExternalRef = &result.ExternalRef
	order.NextAttemptAt = nil
	if err := s.repos.DropshipOrder.Update(ctx, order); err != nil {
		s.logger.Error("Failed to persist submitted order",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return
	}

	s.recordEvent(ctx, order.ID, "order_submitted", map[string]interface{}{
		"external_ref": result.ExternalRef,
		"attempt":      order.RetryCount + 1,
	})
	s.logger.Info("Dropship order submitted",
		zap.String("order_id", order.ID.String()),
		zap.String("provider", order.Provider),
		zap.String("external_ref", result.ExternalRef),
	)
}

func (s *OrderService) markSubmitFailure(ctx context.Context, order *domain.DropshipOrder, cause error) {
	order.RetryCount++
	reason := cause.Error()
	order.FailureReason = &reason

	if order.RetryCount >= s.cfg.MaxAttempts {
		// Budget exhausted: terminal failure, surfaced through the
		// administrator queue instead of further automatic retries.
		order.Status = domain.OrderStatusFailed
		order.NextAttemptAt = nil
		exhausted := &errors.ErrRetryExhausted{
			OrderID:  order.ID.String(),
			Attempts: order.RetryCount,
			Last:     cause,
		}
		reason = exhausted.Error()
		order.FailureReason = &reason
		s.logger.Error("Dropship order placement exhausted retries",
			zap.String("order_id", order.ID.String()),
			zap.Int("attempts", order.RetryCount),
		)
	} else {
		next := time.Now().Add(s.backoff(order.RetryCount))
		order.NextAttemptAt = &next
	}

	if err := s.repos.DropshipOrder.Update(ctx, order); err != nil {
		s.logger.Error("Failed to persist placement failure",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return
	}

	s.recordEvent(ctx, order.ID, "submit_failed", map[string]interface{}{
		"attempt": order.RetryCount,
		"reason":  reason,
		"status":  order.Status,
	})
}

// backoff returns base * 2^(attempt-1), capped at the configured max
func (s *OrderService) backoff(attempt int) time.Duration {
	delay := s.cfg.RetryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= s.cfg.RetryMaxDelay {
			return s.cfg.RetryMaxDelay
		}
	}
	if delay > s.cfg.RetryMaxDelay {
		return s.cfg.RetryMaxDelay
	}
	return delay
}

// RetryPending re-submits pending orders whose backoff has elapsed.
// Called by the background worker loop.
func (s *OrderService) RetryPending(ctx context.Context) error {
	due, err := s.repos.DropshipOrder.ListDueForRetry(ctx, time.Now(), 50)
	if err != nil {
		return err
	}

	for _, stale := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		unlock := s.locks.Lock("dropship-order:" + stale.IdempotencyToken)
		order, err := s.repos.DropshipOrder.GetByID(ctx, stale.ID)
		if err != nil {
			unlock()
			continue
		}
		if order.Status == domain.OrderStatusPending {
			s.submit(ctx, order)
		}
		unlock()
	}

	return nil
}

// TrackOrders polls adapter status for each order and applies forward
// transitions. The sweep is cancellable as a batch: each per-order
// transition commits independently, so abandoning the sweep never
// corrupts an already-applied transition.
func (s *OrderService) TrackOrders(ctx context.Context, orderIDs []uuid.UUID) []TrackingResult {
	results := make([]TrackingResult, 0, len(orderIDs))

	for _, id := range orderIDs {
		if ctx.Err() != nil {
			break
		}
		results = append(results, s.trackOne(ctx, id))
	}

	return results
}

// lockOrder acquires an order's write lock and returns the order as it
// stands under the lock. The arena is keyed by the idempotency token in
// every path, so a placement retry, a tracking poll and a cancellation
// against the same order always serialize on one mutex. The pre-lock
// read only resolves the token; the order is re-read once the lock is
// held.
func (s *OrderService) lockOrder(ctx context.Context, id uuid.UUID) (*domain.DropshipOrder, func(), error) {
	order, err := s.repos.DropshipOrder.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.locks.Lock("dropship-order:" + order.IdempotencyToken)
	order, err = s.repos.DropshipOrder.GetByID(ctx, id)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return order, unlock, nil
}

func (s *OrderService) trackOne(ctx context.Context, id uuid.UUID) TrackingResult {
	order, unlock, err := s.lockOrder(ctx, id)
	if err != nil {
		return TrackingResult{OrderID: id, Error: err.Error()}
	}
	defer unlock()

	if order.ExternalRef == nil || order.Status.IsTerminal() {
		return TrackingResult{OrderID: id, Status: order.Status}
	}

	prov, err := s.adapters.Get(order.Provider)
	if err != nil {
		return TrackingResult{OrderID: id, Status: order.Status, Error: err.Error()}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.AdapterTimeout)
	defer cancel()

	remote, err := prov.Status(callCtx, order.SupplierID, *order.ExternalRef)
	now := time.Now()
	order.LastTrackedAt = &now

	if err != nil {
		if updateErr := s.repos.DropshipOrder.Update(ctx, order); updateErr != nil {
			s.logger.Error("Failed to persist tracking timestamp",
				zap.String("order_id", id.String()),
				zap.Error(updateErr),
			)
		}
		return TrackingResult{OrderID: id, Status: order.Status, Error: err.Error()}
	}

	next := remote.LocalStatus()
	switch {
	case next == "":
		// Unknown remote vocabulary: log and leave state untouched
		s.logger.Warn("Unknown remote order status",
			zap.String("order_id", id.String()),
			zap.String("remote_status", string(remote)),
		)
	case next == domain.OrderStatusCancelled:
		if order.Status.CanTransitionTo(domain.OrderStatusCancelled) {
			s.applyTracking(ctx, order, next, remote)
		}
	case next.Rank() > order.Status.Rank() && order.Status.CanTransitionTo(next):
		// Forward transitions only: stale or duplicated remote
		// statuses can never rewind local state.
		s.applyTracking(ctx, order, next, remote)
	}

	if err := s.repos.DropshipOrder.Update(ctx, order); err != nil {
		return TrackingResult{OrderID: id, Status: order.Status, Error: err.Error()}
	}

	return TrackingResult{OrderID: id, Status: order.Status}
}

func (s *OrderService) applyTracking(ctx context.Context, order *domain.DropshipOrder, next domain.DropshipOrderStatus, remote domain.RemoteStatus) {
	from := order.Status
	order.Status = next
	s.recordEvent(ctx, order.ID, "status_change", map[string]interface{}{
		"from":          from,
		"to":            next,
		"remote_status": remote,
	})
}

// Cancel cancels a dropship order with its supplier. Providers without
// a cancel endpoint degrade to a local-only cancellation.
func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID) (*domain.DropshipOrder, error) {
	order, unlock, err := s.lockOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if order.Status == domain.OrderStatusCancelled {
		return order, nil
	}
	if !order.Status.CanTransitionTo(domain.OrderStatusCancelled) {
		return nil, &errors.ErrInvalidStateTransition{
			From: order.Status,
			To:   domain.OrderStatusCancelled,
		}
	}

	remoteCancelled := false
	if order.ExternalRef != nil {
		prov, err := s.adapters.Get(order.Provider)
		if err != nil {
			return nil, err
		}

		callCtx, cancel := context.WithTimeout(ctx, s.cfg.AdapterTimeout)
		defer cancel()

		ok, err := prov.Cancel(callCtx, order.SupplierID, *order.ExternalRef)
		if err != nil {
			provErr, isProvider := err.(*errors.ErrExternalProvider)
			if !isProvider || !provErr.Unsupported {
				return nil, err
			}
			// No cancel endpoint: mark cancelled locally only
		} else {
			remoteCancelled = ok
		}
	}

	order.Status = domain.OrderStatusCancelled
	if err := s.repos.DropshipOrder.Update(ctx, order); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, order.ID, "order_cancelled", map[string]interface{}{
		"remote_cancelled": remoteCancelled,
	})
	return order, nil
}

// Get returns a dropship order by ID
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*domain.DropshipOrder, error) {
	return s.repos.DropshipOrder.GetByID(ctx, id)
}

// ActiveOrders returns the IDs of orders still in flight with their
// suppliers, the default working set for a tracking sweep.
func (s *OrderService) ActiveOrders(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, status := range []domain.DropshipOrderStatus{
		domain.OrderStatusSubmitted,
		domain.OrderStatusConfirmed,
		domain.OrderStatusShipped,
	} {
		orders, err := s.repos.DropshipOrder.ListByStatus(ctx, status, 200, 0)
		if err != nil {
			return nil, err
		}
		for _, order := range orders {
			ids = append(ids, order.ID)
		}
	}
	return ids, nil
}

// FailedOrders returns the administrator error queue: orders that
// exhausted their placement retries.
func (s *OrderService) FailedOrders(ctx context.Context, limit, offset int) ([]*domain.DropshipOrder, error) {
	return s.repos.DropshipOrder.ListByStatus(ctx, domain.OrderStatusFailed, limit, offset)
}

func (s *OrderService) recordEvent(ctx context.Context, orderID uuid.UUID, eventType string, data map[string]interface{}) {
	event := &domain.OrderEvent{
		DropshipOrderID: orderID,
		EventType:       eventType,
		EventData:       data,
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to record order event",
			zap.String("order_id", orderID.String()),
			zap.String("event_type", eventType),
		)
	}
}
