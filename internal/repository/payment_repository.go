package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/sales-api/internal/model"
)

// PaymentRepository 支付流水仓储接口（只追加，不更新不删除；
// 结算路径上的插入在订单仓储的事务里完成，这里负责审计读取）
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	ListByOrder(ctx context.Context, orderID int64) ([]*model.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付流水仓储
func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepository{db: db} }

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]*model.Payment, error) {
	var res []*model.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("payment_date ASC").
		Find(&res).Error
	return res, err
}
