package api

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"expensetracker/config"
	"expensetracker/database"
	"expensetracker/middleware"
	"expensetracker/models"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// expensePageSize 消费记录列表固定分页大小
const expensePageSize = 20

// dateLayout 日期字段格式
const dateLayout = "2006-01-02"

// ExpenseHandler 消费记录处理器
type ExpenseHandler struct{}

// NewExpenseHandler 创建消费记录处理器
func NewExpenseHandler() *ExpenseHandler {
	return &ExpenseHandler{}
}

// CreateExpenseRequest 创建消费记录请求
type CreateExpenseRequest struct {
	Title       string          `json:"title" binding:"required,max=200" example:"Lunch"`
	Amount      decimal.Decimal `json:"amount" binding:"required" example:"99.99"`
	Category    string          `json:"category" example:"Food"` // 类别名称，不存在则自动创建；留空表示未分类
	Date        string          `json:"date" binding:"required" example:"2025-11-15"`
	Description string          `json:"description" example:"Noodles with friends"`
}

// UpdateExpenseRequest 更新消费记录请求，未携带的字段保持原值
type UpdateExpenseRequest struct {
	Title       string           `json:"title" example:"Lunch"`
	Amount      *decimal.Decimal `json:"amount" example:"99.99"`
	Category    string           `json:"category" example:"Food"`
	Date        string           `json:"date" example:"2025-11-15"`
	Description string           `json:"description" example:"Noodles with friends"`
}

// ExpenseListRequest 消费记录列表请求
type ExpenseListRequest struct {
	Page      int    `form:"page" example:"1"`
	Q         string `form:"q" example:"lunch"` // 模糊匹配标题/描述/类别名
	StartDate string `form:"start_date" example:"2025-01-01"`
	EndDate   string `form:"end_date" example:"2025-12-31"`
}

// Create 创建消费记录
// @Summary 创建消费记录
// @Description 创建一条新的消费记录。若该记录所在月份设置了总预算或对应类别预算，且记入后当月支出达到预算，返回数据中会附带一条非阻塞的超支提醒（记录本身始终保存）。
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "消费记录信息"
// @Success 200 {object} Response "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if !req.Amount.IsPositive() {
		BadRequest(c, "金额必须大于 0")
		return
	}

	// 解析日期
	date, err := time.ParseInLocation(dateLayout, req.Date, time.Local)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2006-01-02")
		return
	}

	expense := models.Expense{
		UserID:      userID,
		Title:       req.Title,
		Amount:      req.Amount,
		Date:        date,
		Description: req.Description,
	}

	// 类别按名称解析：不存在则自动创建
	// 只写 CategoryID，避免 GORM 连带改写 categories 表
	var cat *models.Category
	if req.Category != "" {
		var err error
		cat, err = getOrCreateCategory(req.Category)
		if err != nil {
			BadRequest(c, SafeErrorMessage(err, "类别解析失败"))
			return
		}
		expense.CategoryID = &cat.ID
	}

	if err := database.DB.Create(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建消费记录失败"))
		return
	}
	expense.Category = cat

	// 预算超支检查：只提醒，不拦截
	warning := h.budgetWarning(userID, &expense)

	SuccessWithMessage(c, "创建成功", gin.H{
		"expense":        expense,
		"budget_warning": warning,
	})
}

// budgetWarning 对新记录所在月份重算支出并对照预算，超过则返回提醒文案
// 检查总预算与记录所属类别的预算；任何一步失败都只记日志，不影响主流程
func (h *ExpenseHandler) budgetWarning(userID uint, expense *models.Expense) string {
	svc := service.NewDashboardService(database.DB)
	month := service.MonthFloor(expense.Date)

	monthTotal, err := svc.MonthRangeTotal(userID, month)
	if err != nil {
		log.Printf("预算检查失败: %v", err)
		return ""
	}

	budget, err := svc.FindBudget(userID, month, service.OverallScope())
	if err != nil {
		log.Printf("预算检查失败: %v", err)
		return ""
	}
	if status := service.EvaluateBudget(budget, monthTotal); status.Alert {
		warning := fmt.Sprintf("%s 支出已达 %s，达到当月总预算 %s 的 %.1f%%",
			month.Format("2006-01"), monthTotal.String(), budget.Amount.String(), status.Percent)
		h.notifyBudgetExceeded(userID, warning)
		return warning
	}

	// 记录有类别时再核对该类别的预算
	if expense.CategoryID != nil {
		catBudget, err := svc.FindBudget(userID, month, service.CategoryScope(*expense.CategoryID))
		if err != nil {
			log.Printf("预算检查失败: %v", err)
			return ""
		}
		catTotal, err := svc.CategoryMonthTotal(userID, *expense.CategoryID, month)
		if err != nil {
			log.Printf("预算检查失败: %v", err)
			return ""
		}
		if status := service.EvaluateBudget(catBudget, catTotal); status.Alert {
			warning := fmt.Sprintf("%s「%s」支出已达 %s，达到该类别预算 %s 的 %.1f%%",
				month.Format("2006-01"), expense.CategoryName(), catTotal.String(),
				catBudget.Amount.String(), status.Percent)
			h.notifyBudgetExceeded(userID, warning)
			return warning
		}
	}

	return ""
}

// notifyBudgetExceeded 启用邮件提醒时异步发送超支通知
func (h *ExpenseHandler) notifyBudgetExceeded(userID uint, warning string) {
	cfg := config.GlobalConfig
	if cfg == nil || !cfg.Email.Enabled {
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil || user.Email == "" {
		return
	}

	emailService := service.NewEmailService(&cfg.Email)
	go func() {
		if err := emailService.SendBudgetAlertEmail(user.Email, user.Username, warning); err != nil {
			log.Printf("发送预算提醒邮件失败: %v", err)
		}
	}()
}

// List 获取消费记录列表
// @Summary 获取消费记录列表
// @Description 获取当前用户的消费记录列表，按日期倒序，固定每页 20 条。支持 q 关键词（匹配标题/描述/类别名）与日期范围筛选（含起止当天）。
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param q query string false "关键词"
// @Param start_date query string false "开始日期 (2025-01-01)"
// @Param end_date query string false "结束日期 (2025-12-31)"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Expense}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}

	query := database.DB.Model(&models.Expense{}).Where("expenses.user_id = ?", userID)

	// 关键词筛选：标题、描述或类别名的子串
	if req.Q != "" {
		like := "%" + req.Q + "%"
		query = query.
			Joins("LEFT JOIN categories ON categories.id = expenses.category_id").
			Where("expenses.title LIKE ? OR expenses.description LIKE ? OR categories.name LIKE ?", like, like, like)
	}

	// 日期范围筛选（含起止当天）
	if req.StartDate != "" {
		if start, err := time.ParseInLocation(dateLayout, req.StartDate, time.Local); err == nil {
			query = query.Where("expenses.date >= ?", start)
		}
	}
	if req.EndDate != "" {
		if end, err := time.ParseInLocation(dateLayout, req.EndDate, time.Local); err == nil {
			query = query.Where("expenses.date <= ?", end)
		}
	}

	// 获取总数
	var total int64
	query.Count(&total)

	// 获取列表
	var expenses []models.Expense
	offset := (req.Page - 1) * expensePageSize
	if err := query.Preload("Category").
		Order("expenses.date DESC").
		Offset(offset).Limit(expensePageSize).
		Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: expensePageSize,
		List:     expenses,
	})
}

// Get 获取单条消费记录
// @Summary 获取单条消费记录
// @Description 根据ID获取消费记录详情。记录不存在或属于其他用户时统一返回 404。
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response{data=models.Expense} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Preload("Category").
		Where("id = ? AND user_id = ?", id, userID).
		First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	Success(c, expense)
}

// Update 更新消费记录
// @Summary 更新消费记录
// @Description 更新指定的消费记录，仅允许更新本人记录；类别名不存在会自动创建
// @Tags 消费记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Param request body UpdateExpenseRequest true "消费记录信息"
// @Success 200 {object} Response{data=models.Expense} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 更新字段
	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			BadRequest(c, "金额必须大于 0")
			return
		}
		updates["amount"] = *req.Amount
	}
	if req.Category != "" {
		cat, err := getOrCreateCategory(req.Category)
		if err != nil {
			BadRequest(c, SafeErrorMessage(err, "类别解析失败"))
			return
		}
		updates["category_id"] = cat.ID
	}
	if req.Date != "" {
		date, err := time.ParseInLocation(dateLayout, req.Date, time.Local)
		if err != nil {
			BadRequest(c, "日期格式错误，应为: 2006-01-02")
			return
		}
		updates["date"] = date
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&expense).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新失败"))
			return
		}
	}

	// 重新获取更新后的记录
	database.DB.Preload("Category").First(&expense, expense.ID)
	SuccessWithMessage(c, "更新成功", expense)
}

// Delete 删除消费记录
// @Summary 删除消费记录
// @Description 删除指定的消费记录，仅允许删除本人记录
// @Tags 消费记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "消费记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	if err := database.DB.Delete(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
