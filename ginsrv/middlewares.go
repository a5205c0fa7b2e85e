package ginsrv

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorFormatterMiddleware renders failed responses as {"message": ...}. The last error
// attached with c.Error wins; otherwise the status text is used.
func ErrorFormatterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < http.StatusBadRequest || c.Writer.Written() {
			return
		}

		message := http.StatusText(c.Writer.Status())
		if last := c.Errors.Last(); last != nil {
			message = last.Error()
		}
		c.JSON(c.Writer.Status(), gin.H{"message": message})
	}
}

// LoggerMiddleware logs one line per request.
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
			return
		}
		logger.Debug("request served", fields...)
	}
}

// RecoveryMiddleware turns panics into a 500 and logs them.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.Status(http.StatusInternalServerError)
		c.Abort()
	})
}
