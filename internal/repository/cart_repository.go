package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/sales-api/internal/model"
)

// CartRepository 购物车仓储接口（结算核心只读行项、改锁定状态，不做行项编辑）
type CartRepository interface {
	// GetPendingByUser 取用户当前可编辑的购物车（带行项）
	GetPendingByUser(ctx context.Context, userID int64) (*model.Cart, error)

	// UpdateStatus pending <-> locked 状态流转
	UpdateStatus(ctx context.Context, cartID int64, status string) error
}

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) CartRepository { return &cartRepository{db: db} }

func (r *cartRepository) GetPendingByUser(ctx context.Context, userID int64) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("CartItems").
		Where("user_id = ? AND status = ?", userID, model.CartStatusPending).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) UpdateStatus(ctx context.Context, cartID int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("cart_id = ?", cartID).
		Update("status", status).Error
}
