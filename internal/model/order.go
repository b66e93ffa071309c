package model

import (
	"time"
)

// Order 订单模型（由 pending 购物车转化而来，创建时同步锁定购物车）
type Order struct {
	OrderID        int64  `json:"order_id" gorm:"primaryKey;autoIncrement"`
	CartID         int64  `json:"cart_id" gorm:"index;not null"`
	UserID         int64  `json:"user_id" gorm:"index:idx_order_user_date;not null"`
	PaymentMethod  string `json:"payment_method" gorm:"type:varchar(32);not null"`
	BillingAddress string `json:"billing_address" gorm:"type:varchar(255);not null"`
	// 状态只允许结算状态机、或 pending_payment 阶段的用户/管理员操作改写
	OrderStatus string    `json:"order_status" gorm:"type:varchar(20);index;not null;default:pending_payment"`
	OrderDate   time.Time `json:"order_date" gorm:"index:idx_order_user_date;not null"`

	Cart     *Cart     `json:"cart,omitempty" gorm:"foreignKey:CartID"`
	Payments []Payment `json:"payments,omitempty" gorm:"foreignKey:OrderID"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderStatus 订单状态常量（互斥，任一时刻只有一个成立；订单不删除，取消也是状态流转）
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusCancelled      = "cancelled"
	OrderStatusFailed         = "failed"
)
