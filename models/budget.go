package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget 月度预算模型
// month 固定存储每月第一天；category_id 为 NULL 表示对当月总支出生效的
// 总预算。唯一索引建在 (user_id, month, category_key) 上：MySQL 的唯一
// 索引不约束 NULL 值，若直接用 category_id，同一月份可以插入多条总预算，
// 因此用生成列把 NULL 折算成 0 再参与索引，总预算也能在唯一键上撞出改写
type Budget struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"user_id" gorm:"not null;uniqueIndex:idx_budget_user_month_category"`
	Month       time.Time       `json:"month" gorm:"type:date;not null;uniqueIndex:idx_budget_user_month_category"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	CategoryID  *uint           `json:"category_id" gorm:"index"`
	CategoryKey uint            `json:"-" gorm:"->;type:bigint unsigned GENERATED ALWAYS AS (coalesce(category_id, 0)) STORED;uniqueIndex:idx_budget_user_month_category"`
	Category    *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	User        User            `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Budget) TableName() string {
	return "budgets"
}

// IsOverall 是否为总预算（未绑定类别）
func (b *Budget) IsOverall() bool {
	return b.CategoryID == nil
}
