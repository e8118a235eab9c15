package service

import (
	"errors"
	"time"

	"expensetracker/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// DefaultMonths 仪表盘月度趋势默认回看的月数
	DefaultMonths = 6
	// MaxMonths 月度趋势最长回看的月数，超出则截断
	MaxMonths = 36

	// UncategorizedLabel 未分类消费在统计中的展示名
	UncategorizedLabel = "Uncategorized"

	// monthLabelLayout 月份标签格式，如 "Nov 2025"
	monthLabelLayout = "Jan 2006"
)

// ErrInvalidMonths months 参数非法（必须为正整数）
var ErrInvalidMonths = errors.New("months 必须为正整数")

// MonthTotal 某个自然月的支出合计
type MonthTotal struct {
	Month time.Time
	Total decimal.Decimal
}

// CategoryTotal 某个类别的支出合计
type CategoryTotal struct {
	Label string
	Total decimal.Decimal
}

// BudgetStatus 预算执行状态
// Set 为 false 表示"未设置"（与金额为 0 是两回事），此时其余字段无意义
type BudgetStatus struct {
	Set     bool    `json:"set"`
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
	Alert   bool    `json:"alert"`
}

// BudgetScope 预算作用范围：总预算或某个类别的预算
// 显式区分两种情况，避免用可空指针承载语义
type BudgetScope struct {
	overall    bool
	categoryID uint
}

// OverallScope 总预算范围（对当月全部支出生效）
func OverallScope() BudgetScope {
	return BudgetScope{overall: true}
}

// CategoryScope 指定类别的预算范围
func CategoryScope(categoryID uint) BudgetScope {
	return BudgetScope{categoryID: categoryID}
}

// IsOverall 是否为总预算范围
func (s BudgetScope) IsOverall() bool {
	return s.overall
}

// CategoryID 返回类别ID，仅当非总预算范围时 ok 为 true
func (s BudgetScope) CategoryID() (uint, bool) {
	if s.overall {
		return 0, false
	}
	return s.categoryID, true
}

// MonthFloor 取所在自然月的第一天 00:00:00
func MonthFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthSequence 生成以 end 所在月结尾、连续 n 个自然月的序列（升序）
func MonthSequence(end time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	last := MonthFloor(end)
	months := make([]time.Time, n)
	for i := 0; i < n; i++ {
		months[i] = last.AddDate(0, i-(n-1), 0)
	}
	return months
}

// FillTimeline 把稀疏的按月合计对齐到连续的月份序列上
// 数据库分组查询只会返回有记录的月份，没有消费的月份必须补 0，
// 不能在趋势图上静默缺失
func FillTimeline(months []time.Time, rows []MonthTotal) (labels []string, totals []float64) {
	byMonth := make(map[time.Time]decimal.Decimal, len(rows))
	for _, r := range rows {
		byMonth[MonthFloor(r.Month)] = r.Total
	}

	labels = make([]string, 0, len(months))
	totals = make([]float64, 0, len(months))
	for _, m := range months {
		labels = append(labels, m.Format(monthLabelLayout))
		totals = append(totals, byMonth[m].InexactFloat64())
	}
	return labels, totals
}

// EvaluateBudget 计算预算执行状态
// budget 为 nil 表示未设置；金额 <= 0 的预算视为未设置/非法，
// 不做除法也不触发提醒
func EvaluateBudget(budget *models.Budget, monthTotal decimal.Decimal) BudgetStatus {
	if budget == nil || budget.Amount.LessThanOrEqual(decimal.Zero) {
		return BudgetStatus{}
	}

	percent := monthTotal.Div(budget.Amount).Mul(decimal.NewFromInt(100))
	return BudgetStatus{
		Set:     true,
		Amount:  budget.Amount.InexactFloat64(),
		Percent: percent.InexactFloat64(),
		Alert:   monthTotal.GreaterThanOrEqual(budget.Amount),
	}
}

// Overview 仪表盘聚合结果
type Overview struct {
	TotalOverall   float64      `json:"total_overall"`
	CategoryLabels []string     `json:"category_labels"`
	CategoryTotals []float64    `json:"category_totals"`
	Months         []string     `json:"months"`
	MonthlyTotals  []float64    `json:"monthly_totals"`
	MonthTotal     float64      `json:"month_total"`
	Budget         BudgetStatus `json:"budget"`
}

// DashboardService 仪表盘聚合服务
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService 创建仪表盘聚合服务
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// Overview 计算指定用户的仪表盘数据
// months 为月度趋势回看月数；now 由调用方传入，便于测试固定"今天"
func (s *DashboardService) Overview(userID uint, months int, now time.Time) (*Overview, error) {
	if months <= 0 {
		return nil, ErrInvalidMonths
	}
	if months > MaxMonths {
		months = MaxMonths
	}

	total, err := s.OverallTotal(userID)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.CategoryBreakdown(userID)
	if err != nil {
		return nil, err
	}
	catLabels := make([]string, 0, len(breakdown))
	catTotals := make([]float64, 0, len(breakdown))
	for _, ct := range breakdown {
		catLabels = append(catLabels, ct.Label)
		catTotals = append(catTotals, ct.Total.InexactFloat64())
	}

	monthSeq := MonthSequence(now, months)
	rows, err := s.monthlyTotals(userID, monthSeq[0])
	if err != nil {
		return nil, err
	}
	labels, totals := FillTimeline(monthSeq, rows)

	monthTotal, err := s.CurrentMonthTotal(userID, now)
	if err != nil {
		return nil, err
	}

	budget, err := s.FindBudget(userID, MonthFloor(now), OverallScope())
	if err != nil {
		return nil, err
	}

	return &Overview{
		TotalOverall:   total.InexactFloat64(),
		CategoryLabels: catLabels,
		CategoryTotals: catTotals,
		Months:         labels,
		MonthlyTotals:  totals,
		MonthTotal:     monthTotal.InexactFloat64(),
		Budget:         EvaluateBudget(budget, monthTotal),
	}, nil
}

// sumRow SUM 查询的扫描目标
// decimal.Decimal 自身是结构体，直接 Scan 会走结构体反射路径，
// 因此统一包一层并用 AS total 对齐列名
type sumRow struct {
	Total decimal.Decimal
}

// OverallTotal 用户全部历史支出合计
func (s *DashboardService) OverallTotal(userID uint) (decimal.Decimal, error) {
	var row sumRow
	err := s.db.Model(&models.Expense{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error
	return row.Total, err
}

// CategoryBreakdown 按类别汇总支出，金额降序
// 未分类消费归入 Uncategorized
func (s *DashboardService) CategoryBreakdown(userID uint) ([]CategoryTotal, error) {
	type row struct {
		Label string
		Total decimal.Decimal
	}
	var rows []row
	err := s.db.Model(&models.Expense{}).
		Select("COALESCE(categories.name, ?) AS label, SUM(expenses.amount) AS total", UncategorizedLabel).
		Joins("LEFT JOIN categories ON categories.id = expenses.category_id").
		Where("expenses.user_id = ?", userID).
		Group("label").
		Order("total DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]CategoryTotal, 0, len(rows))
	for _, r := range rows {
		result = append(result, CategoryTotal{Label: r.Label, Total: r.Total})
	}
	return result, nil
}

// monthlyTotals 查询 from 起每个有记录月份的支出合计（稀疏结果）
func (s *DashboardService) monthlyTotals(userID uint, from time.Time) ([]MonthTotal, error) {
	type row struct {
		Month string
		Total decimal.Decimal
	}
	var rows []row
	err := s.db.Model(&models.Expense{}).
		Select("DATE_FORMAT(date, '%Y-%m-01') AS month, SUM(amount) AS total").
		Where("user_id = ? AND date >= ?", userID, from).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]MonthTotal, 0, len(rows))
	for _, r := range rows {
		m, err := time.ParseInLocation("2006-01-02", r.Month, from.Location())
		if err != nil {
			return nil, err
		}
		result = append(result, MonthTotal{Month: m, Total: r.Total})
	}
	return result, nil
}

// CurrentMonthTotal 当月支出合计（date 在当月第一天及之后）
func (s *DashboardService) CurrentMonthTotal(userID uint, now time.Time) (decimal.Decimal, error) {
	var row sumRow
	err := s.db.Model(&models.Expense{}).
		Where("user_id = ? AND date >= ?", userID, MonthFloor(now)).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error
	return row.Total, err
}

// MonthRangeTotal 指定自然月内的支出合计
func (s *DashboardService) MonthRangeTotal(userID uint, month time.Time) (decimal.Decimal, error) {
	start := MonthFloor(month)
	end := start.AddDate(0, 1, 0)

	var row sumRow
	err := s.db.Model(&models.Expense{}).
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error
	return row.Total, err
}

// CategoryMonthTotal 指定类别在某自然月内的支出合计
func (s *DashboardService) CategoryMonthTotal(userID, categoryID uint, month time.Time) (decimal.Decimal, error) {
	start := MonthFloor(month)
	end := start.AddDate(0, 1, 0)

	var row sumRow
	err := s.db.Model(&models.Expense{}).
		Where("user_id = ? AND category_id = ? AND date >= ? AND date < ?", userID, categoryID, start, end).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error
	return row.Total, err
}

// FindBudget 查找指定月份、指定范围的预算，未设置返回 (nil, nil)
func (s *DashboardService) FindBudget(userID uint, month time.Time, scope BudgetScope) (*models.Budget, error) {
	query := s.db.Where("user_id = ? AND month = ?", userID, MonthFloor(month))
	if id, ok := scope.CategoryID(); ok {
		query = query.Where("category_id = ?", id)
	} else {
		query = query.Where("category_id IS NULL")
	}

	var budget models.Budget
	if err := query.First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &budget, nil
}
