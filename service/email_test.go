package service

import (
	"testing"

	"expensetracker/config"

	"github.com/stretchr/testify/assert"
)

func newTestEmailService() *EmailService {
	return NewEmailService(&config.EmailConfig{})
}

func TestGenerateBudgetAlertEmailBody(t *testing.T) {
	s := newTestEmailService()
	body := s.generateBudgetAlertEmailBody("张三", "2025-11 支出已达 120.00，达到当月总预算 100.00 的 120.0%")
	assert.Contains(t, body, "张三")
	assert.Contains(t, body, "120.0%")
	assert.Contains(t, body, "预算提醒")
	assert.Contains(t, body, "消费记录已正常保存")
}

func TestSendBudgetAlertEmail_Disabled(t *testing.T) {
	s := newTestEmailService()

	// 未启用邮件服务直接报错，不会尝试连接 SMTP
	err := s.SendBudgetAlertEmail("a@example.com", "张三", "提醒内容")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "未启用")
}
