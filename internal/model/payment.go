package model

import "time"

// Payment 支付流水（append-only 审计记录，一次回调一条；
// 订单是否已支付以 Order.OrderStatus 为准，不以流水是否存在为准）
type Payment struct {
	PaymentID     int64     `json:"payment_id" gorm:"primaryKey;autoIncrement"`
	OrderID       int64     `json:"order_id" gorm:"index;not null"`
	Amount        float64   `json:"amount" gorm:"type:decimal(18,2);not null"` // 结算币种原始单位，非网关的 x100 编码
	PaymentDate   time.Time `json:"payment_date" gorm:"not null"`
	PaymentStatus string    `json:"payment_status" gorm:"type:varchar(16);not null"`
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}

// PaymentStatus 支付流水结果常量
const (
	PaymentStatusSuccess = "Success"
	PaymentStatusFail    = "Fail"
)
