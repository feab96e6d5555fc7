package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vendio/dropship-core/internal/adapter"
	"github.com/vendio/dropship-core/internal/config"
	"github.com/vendio/dropship-core/internal/domain"
	"github.com/vendio/dropship-core/internal/repository"
	"github.com/vendio/dropship-core/internal/repository/memory"
	"github.com/vendio/dropship-core/pkg/errors"
	"github.com/vendio/dropship-core/pkg/locks"
)

// fakeAdapter is a scripted in-memory supplier. It deduplicates remote
// orders on the idempotency token the way a real provider would.
type fakeAdapter struct {
	mu          sync.Mutex
	provider    string
	refsByToken map[string]string
	submitCalls int
	submitErr   error
	statuses    []domain.RemoteStatus
	statusIdx   int
	cancelErr   error

	// When set, Submit signals submitStarted and parks until
	// submitProceed closes. Lets a test hold a submission in flight.
	submitStarted chan struct{}
	submitProceed chan struct{}
}

func newFakeAdapter(provider string) *fakeAdapter {
	return &fakeAdapter{
		provider:    provider,
		refsByToken: make(map[string]string),
	}
}

func (f *fakeAdapter) Provider() string {
	return f.provider
}

func (f *fakeAdapter) Submit(ctx context.Context, payload adapter.OrderPayload, idempotencyToken string) (adapter.SubmitResult, error) {
	f.mu.Lock()
	started, proceed := f.submitStarted, f.submitProceed
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
		<-proceed
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.submitCalls++
	if f.submitErr != nil {
		return adapter.SubmitResult{}, f.submitErr
	}
	if ref, ok := f.refsByToken[idempotencyToken]; ok {
		return adapter.SubmitResult{ExternalRef: ref}, nil
	}
	ref := fmt.Sprintf("%s-EXT-%d", f.provider, len(f.refsByToken)+1)
	f.refsByToken[idempotencyToken] = ref
	return adapter.SubmitResult{ExternalRef: ref}, nil
}

func (f *fakeAdapter) Status(ctx context.Context, supplierID uuid.UUID, externalRef string) (domain.RemoteStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.statusIdx >= len(f.statuses) {
		return domain.RemoteStatusUnknown, nil
	}
	status := f.statuses[f.statusIdx]
	f.statusIdx++
	return status, nil
}

func (f *fakeAdapter) Cancel(ctx context.Context, supplierID uuid.UUID, externalRef string) (bool, error) {
	if f.cancelErr != nil {
		return false, f.cancelErr
	}
	return true, nil
}

func (f *fakeAdapter) remoteOrderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refsByToken)
}

type orderFixture struct {
	repos   *repository.Repositories
	svc     *OrderService
	fake    *fakeAdapter
	s1      *domain.Supplier
	s2      *domain.Supplier
	p1      uuid.UUID
	p2      uuid.UUID
	p3      uuid.UUID
}

func newOrderFixture(t *testing.T, maxAttempts int) *orderFixture {
	t.Helper()
	ctx := context.Background()
	repos := memory.NewRepositories()

	s1 := &domain.Supplier{Name: "Alpha Goods", Provider: "fake", Country: "CN", Status: domain.SupplierStatusActive}
	s2 := &domain.Supplier{Name: "Beta Trade", Provider: "fake", Country: "US", Status: domain.SupplierStatusActive}
	require.NoError(t, repos.Supplier.Create(ctx, s1))
	require.NoError(t, repos.Supplier.Create(ctx, s2))

	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()
	for _, rel := range []*domain.Relation{
		{ProductID: p1, SupplierID: s1.ID, Provider: "fake", ExternalID: "SKU-1", SupplierPrice: 4, SupplierCurrency: "USD"},
		{ProductID: p2, SupplierID: s1.ID, Provider: "fake", ExternalID: "SKU-2", SupplierPrice: 6, SupplierCurrency: "USD"},
		{ProductID: p3, SupplierID: s2.ID, Provider: "fake", ExternalID: "SKU-3", SupplierPrice: 9, SupplierCurrency: "USD"},
	} {
		require.NoError(t, repos.Relation.Create(ctx, rel))
	}

	fake := newFakeAdapter("fake")
	cfg := config.DropshipConfig{
		AdapterTimeout: time.Second,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  time.Second,
		MaxAttempts:    maxAttempts,
	}
	svc := NewOrderService(repos, adapter.NewRegistry(fake), locks.NewArena(), cfg, zap.NewNop())

	return &orderFixture{repos: repos, svc: svc, fake: fake, s1: s1, s2: s2, p1: p1, p2: p2, p3: p3}
}

func (f *orderFixture) customerOrder() CustomerOrder {
	return CustomerOrder{
		ID: "C1",
		Items: []CustomerOrderItem{
			{ProductID: f.p1, Title: "Lampe LED", Quantity: 2},
			{ProductID: f.p2, Title: "Coussin", Quantity: 1},
			{ProductID: f.p3, Title: "Montre", Quantity: 1},
		},
		Shipping: domain.ShippingInfo{
			Name:       "Marie Dupont",
			Street:     "1 rue de la Paix",
			City:       "Paris",
			PostalCode: "75002",
			Country:    "FR",
		},
	}
}

func TestPlaceOrderPartitionsBySupplier(t *testing.T) {
	f := newOrderFixture(t, 3)

	orders, err := f.svc.PlaceOrder(context.Background(), f.customerOrder())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	bySupplier := map[uuid.UUID]*domain.DropshipOrder{}
	for _, order := range orders {
		bySupplier[order.SupplierID] = order
		assert.Equal(t, domain.OrderStatusSubmitted, order.Status)
		require.NotNil(t, order.ExternalRef)
		assert.Zero(t, order.RetryCount)
	}

	require.Len(t, bySupplier[f.s1.ID].Items, 2)
	require.Len(t, bySupplier[f.s2.ID].Items, 1)
	assert.Equal(t, "SKU-3", bySupplier[f.s2.ID].Items[0].ExternalID)
	assert.Equal(t, 2, f.fake.remoteOrderCount())
}

func TestPlaceOrderIsIdempotent(t *testing.T) {
	f := newOrderFixture(t, 3)
	ctx := context.Background()

	first, err := f.svc.PlaceOrder(ctx, f.customerOrder())
	require.NoError(t, err)
	second, err := f.svc.PlaceOrder(ctx, f.customerOrder())
	require.NoError(t, err)

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, *first[i].ExternalRef, *second[i].ExternalRef)
	}
	// The provider saw one remote order per supplier, not per call
	assert.Equal(t, 2, f.fake.remoteOrderCount())
}

func TestPlaceOrderFailureSchedulesRetry(t *testing.T) {
	f := newOrderFixture(t, 3)
	f.fake.submitErr = &errors.ErrExternalProvider{Provider: "fake", Message: "timeout"}

	orders, err := f.svc.PlaceOrder(context.Background(), f.customerOrder())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	for _, order := range orders {
		assert.Equal(t, domain.OrderStatusPending, order.Status)
		assert.Equal(t, 1, order.RetryCount)
		assert.Nil(t, order.ExternalRef)
		require.NotNil(t, order.NextAttemptAt)
	}
}

func TestRetryExhaustionIsTerminal(t *testing.T) {
	f := newOrderFixture(t, 2)
	ctx := context.Background()
	f.fake.submitErr = &errors.ErrExternalProvider{Provider: "fake", Message: "unreachable"}

	orders, err := f.svc.PlaceOrder(ctx, f.customerOrder())
	require.NoError(t, err)

	// One more sweep exhausts the budget of 2
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, f.svc.RetryPending(ctx))

	for _, placed := range orders {
		order, err := f.repos.DropshipOrder.GetByID(ctx, placed.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusFailed, order.Status)
		assert.Equal(t, 2, order.RetryCount)
		require.NotNil(t, order.FailureReason)
		assert.Contains(t, *order.FailureReason, "retries exhausted")
	}

	// Terminal failures are not picked up again
	callsBefore := f.fake.submitCalls
	require.NoError(t, f.svc.RetryPending(ctx))
	assert.Equal(t, callsBefore, f.fake.submitCalls)

	failed, err := f.svc.FailedOrders(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, failed, 2)
}

func TestRetryPendingRecovers(t *testing.T) {
	f := newOrderFixture(t, 5)
	ctx := context.Background()

	f.fake.submitErr = &errors.ErrExternalProvider{Provider: "fake", Message: "timeout"}
	orders, err := f.svc.PlaceOrder(ctx, f.customerOrder())
	require.NoError(t, err)

	f.fake.submitErr = nil
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, f.svc.RetryPending(ctx))

	for _, placed := range orders {
		order, err := f.repos.DropshipOrder.GetByID(ctx, placed.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusSubmitted, order.Status)
		require.NotNil(t, order.ExternalRef)
	}
}

func TestTrackOrdersNeverRegresses(t *testing.T) {
	f := newOrderFixture(t, 3)
	ctx := context.Background()

	orders, err := f.svc.PlaceOrder(ctx, f.customerOrder())
	require.NoError(t, err)
	orderID := orders[0].ID

	// Delivered arrives first, then a stale shipped
	f.fake.statuses = []domain.RemoteStatus{domain.RemoteStatusDelivered, domain.RemoteStatusShipped}

	results := f.svc.TrackOrders(ctx, []uuid.UUID{orderID})
	require.Len(t, results, 1)
	assert.Equal(t, domain.OrderStatusDelivered, results[0].Status)

	results = f.svc.TrackOrders(ctx, []uuid.UUID{orderID})
	require.Len(t, results, 1)
	assert.Equal(t, domain.OrderStatusDelivered, results[0].Status)

	order, err := f.repos.DropshipOrder.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, order.Status)
	require.NotNil(t, order.LastTrackedAt)
}

func TestTrackOrdersAdvancesThroughProgression(t *testing.T) {
	f := newOrderFixture(t, 3)
	ctx := context.Background()

	orders, err := f.svc.PlaceOrder(ctx, f.customerOrder())
	require.NoError(t, err)
	orderID := orders[0].ID

	f.fake.statuses = []domain.RemoteStatus{
		domain.RemoteStatusConfirmed,
		domain.RemoteStatusShipped,
		domain.RemoteStatusDelivered,
	}

	want := []domain.DropshipOrderStatus{
		domain.OrderStatusConfirmed,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
	}
	for _, expected := range want {
		results := f.svc.TrackOrders(ctx, []uuid.UUID{orderID})
		require.Len(t, results, 1)
		assert.Equal(t, expected, results[0].Status)
	}
}

func TestTrackOrdersBatchCancellable(t *testing.T) {
	f := newOrderFixture(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orders, err := f.svc.PlaceOrder(context.Background(), f.customerOrder())
	require.NoError(t, err)

	ids := []uuid.UUID{orders[0].ID, orders[1].ID}
	results := f.svc.TrackOrders(ctx, ids)
	assert.Empty(t, results)
}

func TestCancelDegradesWhenUnsupported(t *testing.T) {
	f := newOrderFixture(t, 3)
	ctx := context.Background()
	f.fake.cancelErr = &errors.ErrExternalProvider{Provider: "fake", Message: "no endpoint", Unsupported: true}

	orders, err := f.svc.PlaceOrder(ctx, f.customerOrder())
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, orders[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
}

func TestCancelOnDeliveredIsRejected(t *testing.T) {
	f := newOrderFixture(t, 3)
	ctx := context.Background()

	orders, err := f.svc.PlaceOrder(ctx, f.customerOrder())
	require.NoError(t, err)

	f.fake.statuses = []domain.RemoteStatus{domain.RemoteStatusDelivered}
	f.svc.TrackOrders(ctx, []uuid.UUID{orders[0].ID})

	_, err = f.svc.Cancel(ctx, orders[0].ID)
	var transitionErr *errors.ErrInvalidStateTransition
	require.ErrorAs(t, err, &transitionErr)
}

func TestCancelSerializesWithInFlightSubmit(t *testing.T) {
	f := newOrderFixture(t, 5)
	ctx := context.Background()

	f.fake.submitErr = &errors.ErrExternalProvider{Provider: "fake", Message: "timeout"}
	orders, err := f.svc.PlaceOrder(ctx, CustomerOrder{
		ID:       "C3",
		Items:    []CustomerOrderItem{{ProductID: f.p1, Title: "Lampe LED", Quantity: 1}},
		Shipping: domain.ShippingInfo{Name: "A", Street: "B", City: "C", PostalCode: "D", Country: "FR"},
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	orderID := orders[0].ID

	f.fake.mu.Lock()
	f.fake.submitErr = nil
	f.fake.submitStarted = make(chan struct{})
	f.fake.submitProceed = make(chan struct{})
	f.fake.mu.Unlock()

	time.Sleep(5 * time.Millisecond)
	retryDone := make(chan error, 1)
	go func() { retryDone <- f.svc.RetryPending(ctx) }()

	// The retry sweep now holds the order's lock with its submit in
	// flight at the provider.
	<-f.fake.submitStarted

	cancelDone := make(chan error, 1)
	go func() {
		_, err := f.svc.Cancel(ctx, orderID)
		cancelDone <- err
	}()

	// Give Cancel time to park on the same lock, then let the submit
	// land.
	time.Sleep(10 * time.Millisecond)
	close(f.fake.submitProceed)

	require.NoError(t, <-retryDone)
	require.NoError(t, <-cancelDone)

	// Cancel ran strictly after the submit committed, so the
	// cancellation is the final state and the remote order was placed
	// exactly once.
	order, err := f.repos.DropshipOrder.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)
	assert.Equal(t, 1, f.fake.remoteOrderCount())
}

func TestIdempotencyTokenDeterministic(t *testing.T) {
	supplierID := uuid.New()
	first := IdempotencyToken("C1", supplierID)
	second := IdempotencyToken("C1", supplierID)
	other := IdempotencyToken("C2", supplierID)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64)
}

func TestPlaceOrderWithoutDropshipItems(t *testing.T) {
	f := newOrderFixture(t, 3)

	orders, err := f.svc.PlaceOrder(context.Background(), CustomerOrder{
		ID:       "C2",
		Items:    []CustomerOrderItem{{ProductID: uuid.New(), Title: "Local only", Quantity: 1}},
		Shipping: domain.ShippingInfo{Name: "A", Street: "B", City: "C", PostalCode: "D", Country: "FR"},
	})
	require.NoError(t, err)
	assert.Empty(t, orders)
}
