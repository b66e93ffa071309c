package model

import "time"

// Cart 购物车（pending 可编辑，下单后转 locked；订单取消时解锁回 pending）
type Cart struct {
	CartID    int64     `json:"cart_id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id" gorm:"index;not null"`
	Status    string    `json:"status" gorm:"type:varchar(16);index;not null;default:pending"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CartItems []CartItem `json:"cart_items,omitempty" gorm:"foreignKey:CartID"`
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}

// CartStatus 购物车状态常量
const (
	CartStatusPending = "pending"
	CartStatusLocked  = "locked"
)

// CartItem 购物车行项；Price 是加购时刻的快照单价，
// 结算对账金额 = sum(Price×Quantity)，不在结算时回查商品目录价
type CartItem struct {
	CartItemID int64   `json:"cart_item_id" gorm:"primaryKey;autoIncrement"`
	CartID     int64   `json:"cart_id" gorm:"index;not null"`
	ProductID  int64   `json:"product_id" gorm:"index;not null"`
	Quantity   int     `json:"quantity" gorm:"not null"`
	Price      float64 `json:"price" gorm:"type:decimal(18,2);not null"`
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
