package marginalia

import (
	"go.uber.org/zap"
)

// Logger 全局日志记录器，默认丢弃所有输出
var Logger = zap.NewNop()

// SetLogger 设置自定义日志记录器
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	Logger = logger
}
