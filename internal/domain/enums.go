package domain

// DropshipOrderStatus represents the status of a dropship shadow order
type DropshipOrderStatus string

const (
	OrderStatusPending   DropshipOrderStatus = "PENDING"
	OrderStatusSubmitted DropshipOrderStatus = "SUBMITTED"
	OrderStatusConfirmed DropshipOrderStatus = "CONFIRMED"
	OrderStatusFailed    DropshipOrderStatus = "FAILED"
	OrderStatusShipped   DropshipOrderStatus = "SHIPPED"
	OrderStatusCancelled DropshipOrderStatus = "CANCELLED"
	OrderStatusDelivered DropshipOrderStatus = "DELIVERED"
)

func (s DropshipOrderStatus) String() string {
	return string(s)
}

// IsValid checks if the order status is valid
func (s DropshipOrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusSubmitted,
		OrderStatusConfirmed,
		OrderStatusFailed,
		OrderStatusShipped,
		OrderStatusCancelled,
		OrderStatusDelivered:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is expected
func (s DropshipOrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFailed, OrderStatusCancelled, OrderStatusDelivered:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is valid. The
// FAILED -> PENDING retry path is legal here; whether the retry budget
// still allows it is the order service's decision.
func (s DropshipOrderStatus) CanTransitionTo(next DropshipOrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusSubmitted || next == OrderStatusFailed || next == OrderStatusCancelled
	case OrderStatusSubmitted:
		return next == OrderStatusConfirmed ||
			next == OrderStatusFailed ||
			next == OrderStatusShipped ||
			next == OrderStatusCancelled ||
			next == OrderStatusDelivered
	case OrderStatusConfirmed:
		return next == OrderStatusShipped || next == OrderStatusCancelled || next == OrderStatusDelivered
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	case OrderStatusFailed:
		return next == OrderStatusPending
	case OrderStatusCancelled, OrderStatusDelivered:
		return false // Terminal states
	default:
		return false
	}
}

// Rank orders statuses along the delivery progression. Tracking only
// ever moves an order to a higher rank, so stale or duplicated remote
// statuses can never rewind local state. Failed and cancelled sit
// outside the progression and are handled explicitly.
func (s DropshipOrderStatus) Rank() int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusSubmitted:
		return 1
	case OrderStatusConfirmed:
		return 2
	case OrderStatusShipped:
		return 3
	case OrderStatusDelivered:
		return 4
	default:
		return -1
	}
}

// RecommendationState represents the review state of a product candidate
type RecommendationState string

const (
	RecommendationNew      RecommendationState = "NEW"
	RecommendationSeen     RecommendationState = "SEEN"
	RecommendationReviewed RecommendationState = "REVIEWED"
	RecommendationApproved RecommendationState = "APPROVED"
	RecommendationRejected RecommendationState = "REJECTED"
	RecommendationImported RecommendationState = "IMPORTED"
)

func (s RecommendationState) String() string {
	return string(s)
}

// IsValid checks if the recommendation state is valid
func (s RecommendationState) IsValid() bool {
	switch s {
	case RecommendationNew,
		RecommendationSeen,
		RecommendationReviewed,
		RecommendationApproved,
		RecommendationRejected,
		RecommendationImported:
		return true
	default:
		return false
	}
}

// Decided reports whether an approve/reject decision has been recorded
func (s RecommendationState) Decided() bool {
	return s == RecommendationApproved || s == RecommendationRejected || s == RecommendationImported
}

// CompetitionLevel buckets a product's market competition
type CompetitionLevel string

const (
	CompetitionLow    CompetitionLevel = "low"
	CompetitionMedium CompetitionLevel = "medium"
	CompetitionHigh   CompetitionLevel = "high"
)

// IsValid checks if the competition level is valid
func (l CompetitionLevel) IsValid() bool {
	switch l {
	case CompetitionLow, CompetitionMedium, CompetitionHigh:
		return true
	default:
		return false
	}
}

// SupplierStatus is the supplier lifecycle status. Suppliers are never
// hard-deleted, only suspended.
type SupplierStatus string

const (
	SupplierStatusActive    SupplierStatus = "ACTIVE"
	SupplierStatusSuspended SupplierStatus = "SUSPENDED"
)

// IsValid checks if the supplier status is valid
func (s SupplierStatus) IsValid() bool {
	return s == SupplierStatusActive || s == SupplierStatusSuspended
}

func (s SupplierStatus) String() string {
	return string(s)
}

// RemoteStatus is the normalized vocabulary adapters translate
// provider-specific order statuses into.
type RemoteStatus string

const (
	RemoteStatusReceived   RemoteStatus = "RECEIVED"
	RemoteStatusConfirmed  RemoteStatus = "CONFIRMED"
	RemoteStatusShipped    RemoteStatus = "SHIPPED"
	RemoteStatusDelivered  RemoteStatus = "DELIVERED"
	RemoteStatusCancelled  RemoteStatus = "CANCELLED"
	RemoteStatusUnknown    RemoteStatus = "UNKNOWN"
)

// LocalStatus maps the remote vocabulary onto the local state machine.
// Unknown remote statuses map to the empty status and apply no
// transition.
func (s RemoteStatus) LocalStatus() DropshipOrderStatus {
	switch s {
	case RemoteStatusReceived:
		return OrderStatusSubmitted
	case RemoteStatusConfirmed:
		return OrderStatusConfirmed
	case RemoteStatusShipped:
		return OrderStatusShipped
	case RemoteStatusDelivered:
		return OrderStatusDelivered
	case RemoteStatusCancelled:
		return OrderStatusCancelled
	default:
		return ""
	}
}
