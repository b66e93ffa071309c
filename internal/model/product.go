package model

// Product 商品（仅作为购物车行项的外键目标，目录管理不在本服务范围）
type Product struct {
	ProductID   int64   `json:"product_id" gorm:"primaryKey;autoIncrement"`
	ProductName string  `json:"product_name" gorm:"type:varchar(128);not null"`
	Price       float64 `json:"price" gorm:"type:decimal(18,2);not null"`
	ImageURL    string  `json:"image_url,omitempty" gorm:"type:varchar(255)"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
