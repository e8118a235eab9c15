package models

import "time"

// Category 消费类别
// 类别按需创建：记账时填写的新类别名会自动入库，name 上的唯一索引
// 保证并发下 find-or-insert 不会产生重复记录
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 设置表名
func (Category) TableName() string {
	return "categories"
}

// 默认消费类别
const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryShopping      = "Shopping"
	CategoryBills         = "Bills"
	CategoryEntertainment = "Entertainment"
	CategoryOther         = "Other"
)

// DefaultCategories 获取默认消费类别列表（仅用于初始化种子数据）
func DefaultCategories() []string {
	return []string{
		CategoryFood,
		CategoryTransport,
		CategoryShopping,
		CategoryBills,
		CategoryEntertainment,
		CategoryOther,
	}
}
