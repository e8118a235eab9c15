package api

import (
	"errors"
	"strings"

	"expensetracker/database"
	"expensetracker/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryHandler 消费类别处理器
type CategoryHandler struct{}

// NewCategoryHandler 创建消费类别处理器
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// List 获取消费类别列表
// @Summary 获取消费类别列表
// @Description 获取所有可用的消费类别，按名称升序排列
// @Tags 消费类别
// @Produce json
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Failure 500 {object} Response "服务器内部错误"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	var list []models.Category
	if err := database.DB.Order("name ASC").Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, list)
}

// getOrCreateCategory 按名称查找类别，不存在则创建
// 幂等：并发下撞到 name 唯一索引时回查一次拿到已存在的记录
func getOrCreateCategory(name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("类别名称不能为空")
	}

	var cat models.Category
	err := database.DB.Where("name = ?", name).First(&cat).Error
	if err == nil {
		return &cat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cat = models.Category{Name: name}
	if createErr := database.DB.Create(&cat).Error; createErr != nil {
		// 并发创建撞唯一索引：以数据库中已有的为准
		if retryErr := database.DB.Where("name = ?", name).First(&cat).Error; retryErr == nil {
			return &cat, nil
		}
		return nil, createErr
	}
	return &cat, nil
}
