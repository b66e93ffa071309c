package model

import "time"

// User 用户模型（订单/购物车的归属方，密码存 bcrypt 哈希）
type User struct {
	UserID    int64     `json:"user_id" gorm:"primaryKey;autoIncrement"`
	Username  string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	Email     string    `json:"email" gorm:"type:varchar(128);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(128);not null"`
	Role      string    `json:"role" gorm:"type:varchar(16);not null;default:Customer"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// Role 常量
const (
	RoleCustomer = "Customer"
	RoleAdmin    = "Admin"
)
