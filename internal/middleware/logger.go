package middleware

import (
	"fmt"
	"net/url"
	"strings"

	"learning_aid_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const redacted = "REDACTED"

// redactQuery 访问日志中隐藏查询参数里的访问令牌
func redactQuery(path string) string {
	i := strings.IndexByte(path, '?')
	if i < 0 {
		return path
	}
	query, err := url.ParseQuery(path[i+1:])
	if err != nil {
		// 无法解析时整段丢弃，避免原样落盘
		return path[:i]
	}
	if !query.Has(util.AccessTokenQuery) {
		return path
	}
	query.Set(util.AccessTokenQuery, redacted)
	return path[:i+1] + query.Encode()
}

// AccessLogFormatter matches gin's default line with the token query masked.
func AccessLogFormatter(param gin.LogFormatterParams) string {
	if param.Latency > 0 {
		param.Latency = param.Latency.Truncate(1000)
	}
	return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v\n%s",
		param.TimeStamp.Format("2006/01/02 - 15:04:05"),
		param.StatusCode,
		param.Latency,
		param.ClientIP,
		param.Method,
		redactQuery(param.Path),
		param.ErrorMessage,
	)
}

func AccessLogger() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{Formatter: AccessLogFormatter})
}
