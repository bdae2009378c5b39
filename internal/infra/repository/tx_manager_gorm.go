package repository

import (
	"context"

	repo "marketplace/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	tx *gorm.DB
}

func (r *txReposGorm) Orders() repo.OrderRepository         { return NewOrderGormRepository(r.tx) }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository { return NewOrderItemGormRepository(r.tx) }
func (r *txReposGorm) Payments() repo.PaymentRepository     { return NewPaymentGormRepository(r.tx) }
func (r *txReposGorm) Shipments() repo.ShippingRepository   { return NewShippingGormRepository(r.tx) }
func (r *txReposGorm) History() repo.OrderStatusHistoryRepository {
	return NewOrderStatusHistoryGormRepository(r.tx)
}
func (r *txReposGorm) Items() repo.MarketplaceItemRepository {
	return NewMarketplaceItemGormRepository(r.tx)
}
func (r *txReposGorm) Inventory() repo.InventoryRepository { return NewInventoryGormRepository(r.tx) }
func (r *txReposGorm) Cart() repo.CartRepository           { return NewCartGormRepository(r.tx) }
func (r *txReposGorm) ServiceOffers() repo.ServiceOfferRepository {
	return NewServiceOfferGormRepository(r.tx)
}
func (r *txReposGorm) Verifications() repo.VerificationRepository {
	return NewVerificationGormRepository(r.tx)
}
func (r *txReposGorm) Users() repo.UserRepository         { return NewUserGormRepository(r.tx) }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository { return NewAuditLogGormRepository(r.tx) }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		return fn(&txReposGorm{tx: tx})
	})
}
