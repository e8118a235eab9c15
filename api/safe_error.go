package api

import (
	"expensetracker/config"
)

// SafeErrorMessage 错误写进响应前过一道脱敏：release 模式只回 fallback，
// 调试模式保留原始错误便于排查。实现在 config 包，这里挂一个包内别名
// 方便 handler 直接调用
func SafeErrorMessage(err error, fallback string) string {
	return config.SafeErrorMessage(err, fallback)
}
