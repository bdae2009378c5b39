package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Payments() PaymentRepository
	Shipments() ShippingRepository
	History() OrderStatusHistoryRepository
	Items() MarketplaceItemRepository
	Inventory() InventoryRepository
	Cart() CartRepository
	ServiceOffers() ServiceOfferRepository
	Verifications() VerificationRepository
	Users() UserRepository
	AuditLogs() AuditLogRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
