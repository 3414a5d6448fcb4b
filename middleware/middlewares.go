package middleware

import (
	"net/http"
	"time"

	"github.com/leapzhao/json-docstore/logger"
	"github.com/leapzhao/json-docstore/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLogger 请求日志中间件
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		requestID := c.GetString("request_id")
		if requestID == "" {
			requestID = "unknown"
		}

		latency := time.Since(start)
		log := logger.WithContext(requestID)
		log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Int64("content_length", c.Request.ContentLength).
			Int("body_size", c.Writer.Size()).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Strs("errors", c.Errors.Errors()).
			Msg("HTTP Request")

		// 记录慢请求
		if latency > time.Second {
			log.Warn().
				Dur("latency", latency).
				Str("path", path).
				Msg("Slow request detected")
		}
	}
}

// RequestID 请求ID中间件
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

// Recovery 恢复中间件
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := c.GetString("request_id")
				log := logger.WithContext(requestID)

				log.Error().
					Interface("error", err).
					Str("path", c.Request.URL.Path).
					Str("method", c.Request.Method).
					Msg("Panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, model.ErrorResponse{
					Error:     "INTERNAL_SERVER_ERROR",
					Message:   "An unexpected error occurred",
					RequestID: requestID,
				})
			}
		}()

		c.Next()
	}
}

// BodySizeLimit 请求体大小限制中间件
func BodySizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// RequireJSON 写请求必须声明 application/json
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			if c.ContentType() != gin.MIMEJSON {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, model.ErrorResponse{
					Error:     "INVALID_CONTENT_TYPE",
					Message:   "Content-Type must be application/json",
					RequestID: c.GetString("request_id"),
				})
				return
			}
		}
		c.Next()
	}
}

// InFlightLimit 并发请求上限，limit <= 0 表示不限制
func InFlightLimit(limit int) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := make(chan struct{}, limit)

	return func(c *gin.Context) {
		select {
		case limiter <- struct{}{}:
			defer func() { <-limiter }()
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{
				Error:     "TOO_MANY_REQUESTS",
				Message:   "Too many requests in flight",
				RequestID: c.GetString("request_id"),
			})
		}
	}
}
