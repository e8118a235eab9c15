package api

import (
	"strconv"
	"time"

	"expensetracker/database"
	"expensetracker/middleware"
	"expensetracker/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// monthLayout 预算月份参数格式
const monthLayout = "2006-01"

// BudgetHandler 月度预算处理器
type BudgetHandler struct{}

// NewBudgetHandler 创建月度预算处理器
func NewBudgetHandler() *BudgetHandler {
	return &BudgetHandler{}
}

// SaveBudgetRequest 设置预算请求
type SaveBudgetRequest struct {
	Month    string          `json:"month" binding:"required" example:"2025-11"`
	Amount   decimal.Decimal `json:"amount" binding:"required" example:"1000.00"`
	Category string          `json:"category" example:"Food"` // 留空表示当月总预算
}

// Save 设置月度预算
// @Summary 设置月度预算
// @Description 为指定月份设置预算。同一用户、同一月份、同一类别（或总预算）最多一条，重复提交为原子性的改写而非报错。
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SaveBudgetRequest true "预算信息"
// @Success 200 {object} Response{data=models.Budget} "设置成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets [post]
func (h *BudgetHandler) Save(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req SaveBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if !req.Amount.IsPositive() {
		BadRequest(c, "预算金额必须大于 0")
		return
	}

	monthStart, err := time.ParseInLocation(monthLayout, req.Month, time.Local)
	if err != nil {
		BadRequest(c, "月份格式错误，应为: 2006-01")
		return
	}

	budget := models.Budget{
		UserID: userID,
		Month:  monthStart,
		Amount: req.Amount,
	}

	// 只写 CategoryID，避免 GORM 连带改写 categories 表
	var cat *models.Category
	if req.Category != "" {
		cat, err = getOrCreateCategory(req.Category)
		if err != nil {
			BadRequest(c, SafeErrorMessage(err, "类别解析失败"))
			return
		}
		budget.CategoryID = &cat.ID
	}

	// 单条原子 upsert：并发写同一 (user, month, category) 在唯一索引上
	// 合并为改写。总预算的 category_id 为 NULL，靠 category_key 生成列
	// 参与同一个唯一索引，同样只发一条语句
	err = database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "month"}, {Name: "category_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(&budget).Error
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "保存预算失败"))
		return
	}

	budget.Category = cat
	SuccessWithMessage(c, "预算已保存", budget)
}

// List 获取预算列表
// @Summary 获取预算列表
// @Description 获取当前用户的全部预算，按月份倒序
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Budget} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var budgets []models.Budget
	if err := database.DB.Preload("Category").
		Where("user_id = ?", userID).
		Order("month DESC").
		Find(&budgets).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, budgets)
}

// Delete 删除预算
// @Summary 删除预算
// @Description 删除指定的预算，仅允许删除本人预算
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var budget models.Budget
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&budget).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}

	if err := database.DB.Delete(&budget).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
