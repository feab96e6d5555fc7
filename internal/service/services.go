package service

// Services bundles the application services handed to the HTTP layer
// and the background workers.
type Services struct {
	Supplier       *SupplierService
	Relation       *RelationService
	Recommendation *RecommendationService
	Order          *OrderService
}
