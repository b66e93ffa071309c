package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/sales-api/internal/model"
)

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// CreateFromCart 创建订单并同事务锁定购物车
	CreateFromCart(ctx context.Context, order *model.Order) error

	// GetByOrderID 根据订单ID查询订单
	GetByOrderID(ctx context.Context, orderID int64) (*model.Order, error)

	// GetWithCartItems 查询订单并带出购物车行项（对账金额的数据源）
	GetWithCartItems(ctx context.Context, orderID int64) (*model.Order, error)

	// GetByUserID 根据用户ID查询订单列表
	GetByUserID(ctx context.Context, userID int64, limit int) ([]*model.Order, error)

	// HasOpenOrder 该购物车是否已有未关闭订单
	HasOpenOrder(ctx context.Context, cartID int64) (bool, error)

	// Update 保存订单字段修改（仅限 pending_payment 阶段的编辑）
	Update(ctx context.Context, order *model.Order) error

	// Settle 状态 CAS + 追加支付流水，单事务执行；
	// 返回 false 表示订单已不在 pending_payment，本次为幂等空操作
	Settle(ctx context.Context, orderID int64, toStatus string, payment *model.Payment) (bool, error)

	// CancelPending 用户/管理员取消：pending_payment 才允许，成功后解锁购物车
	CancelPending(ctx context.Context, orderID int64) (bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepository{db: db} }

func (r *orderRepository) CreateFromCart(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return tx.Model(&model.Cart{}).
			Where("cart_id = ?", order.CartID).
			Update("status", model.CartStatusLocked).Error
	})
}

func (r *orderRepository) GetByOrderID(ctx context.Context, orderID int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetWithCartItems(ctx context.Context, orderID int64) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Cart.CartItems").
		Where("order_id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Cart.CartItems").
		Where("user_id = ?", userID).
		Order("order_date DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) HasOpenOrder(ctx context.Context, cartID int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("cart_id = ? AND order_status NOT IN ?", cartID,
			[]string{model.OrderStatusPaid, model.OrderStatusCancelled}).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// Settle 的并发约束：两个回调同时到达时只有一个 CAS 生效、只插一条流水，
// 另一个看到 RowsAffected==0 走幂等分支。比 SELECT ... FOR UPDATE 更通用，
// sqlite 与 postgres 行为一致。
func (r *orderRepository) Settle(ctx context.Context, orderID int64, toStatus string, payment *model.Payment) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Order{}).
			Where("order_id = ? AND order_status = ?", orderID, model.OrderStatusPendingPayment).
			Update("order_status", toStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		return tx.Create(payment).Error
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *orderRepository) CancelPending(ctx context.Context, orderID int64) (bool, error) {
	cancelled := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.Where("order_id = ?", orderID).First(&order).Error; err != nil {
			return err
		}
		res := tx.Model(&model.Order{}).
			Where("order_id = ? AND order_status = ?", orderID, model.OrderStatusPendingPayment).
			Update("order_status", model.OrderStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		cancelled = true
		// 解锁购物车，用户可以用同一批行项重新下单
		return tx.Model(&model.Cart{}).
			Where("cart_id = ? AND status = ?", order.CartID, model.CartStatusLocked).
			Update("status", model.CartStatusPending).Error
	})
	if err != nil {
		return false, err
	}
	return cancelled, nil
}
