package api

import (
	"errors"
	"strconv"
	"time"

	"expensetracker/database"
	"expensetracker/middleware"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 仪表盘处理器
type DashboardHandler struct{}

// NewDashboardHandler 创建仪表盘处理器
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// GetDashboard 获取仪表盘数据
// @Summary 获取仪表盘数据
// @Description 返回当前用户的历史总支出、按类别汇总（金额降序，未分类归入 Uncategorized）、连续的月度支出趋势（无消费的月份补 0）、当月支出与当月总预算执行状态。
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Param months query int false "月度趋势回看月数" default(6)
// @Success 200 {object} Response{data=service.Overview} "获取成功"
// @Failure 400 {object} Response "months 参数非法"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	months := service.DefaultMonths
	if raw := c.Query("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			BadRequest(c, "months 参数必须为整数")
			return
		}
		months = parsed
	}

	svc := service.NewDashboardService(database.DB)
	overview, err := svc.Overview(userID, months, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrInvalidMonths) {
			BadRequest(c, err.Error())
			return
		}
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, overview)
}

// GetMonthTotal 获取当月支出合计
// @Summary 获取当月支出合计
// @Description 返回当前用户本月（自然月第一天起）的支出合计
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/statistics/month-total [get]
func (h *DashboardHandler) GetMonthTotal(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	svc := service.NewDashboardService(database.DB)
	total, err := svc.CurrentMonthTotal(userID, time.Now())
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, gin.H{
		"month_total": total.InexactFloat64(),
	})
}
