package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/leapzhao/json-docstore/database"
	"github.com/leapzhao/json-docstore/events"
	"github.com/leapzhao/json-docstore/logger"
	"github.com/leapzhao/json-docstore/model"
	"github.com/leapzhao/json-docstore/pool"

	"github.com/gin-gonic/gin"
)

// BuildInfo 版本信息
type BuildInfo struct {
	Version     string
	BuildTime   string
	GitCommit   string
	Environment string
}

type DocumentHandler struct {
	store     database.DocumentStore
	publisher events.Publisher
	build     BuildInfo
}

func NewDocumentHandler(store database.DocumentStore, publisher events.Publisher, build BuildInfo) *DocumentHandler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &DocumentHandler{store: store, publisher: publisher, build: build}
}

// StoreDocument 存储任意JSON值并返回回读的文档
func (h *DocumentHandler) StoreDocument(c *gin.Context) {
	requestID := c.GetString("request_id")
	log := logger.WithContext(requestID)

	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body exceeds size limit")
			return
		}
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read request body")
		return
	}
	if !json.Valid(body) {
		abortWithError(c, http.StatusBadRequest, "INVALID_JSON", "Request body must be a JSON value")
		return
	}

	start := time.Now()
	doc, err := h.store.Insert(c.Request.Context(), body)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}

	log.Info().
		Str("external_id", doc.ExternalID).
		Int64("internal_id", doc.InternalID).
		Dur("duration", time.Since(start)).
		Msg("Document stored successfully")

	// 行已提交，事件发布失败只记录日志
	if err := h.publisher.Publish(c.Request.Context(), model.NewStoredEvent(doc, requestID)); err != nil {
		log.Warn().Err(err).Str("external_id", doc.ExternalID).Msg("Failed to publish document event")
	}

	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) writeStoreError(c *gin.Context, err error) {
	log := logger.WithContext(c.GetString("request_id"))

	switch {
	case errors.Is(err, database.ErrInvalidPayload):
		abortWithError(c, http.StatusBadRequest, "INVALID_JSON", "Request body must be a JSON value")
	case errors.Is(err, database.ErrReadBack):
		log.Error().Err(err).Msg("Document consistency fault")
		abortWithError(c, http.StatusInternalServerError, "CONSISTENCY_ERROR", "Document was written but could not be read back")
	case errors.Is(err, pool.ErrPoolExhausted):
		log.Warn().Err(err).Msg("Connection pool exhausted")
		c.Header("Retry-After", "1")
		abortWithError(c, http.StatusServiceUnavailable, "POOL_EXHAUSTED", "No database connection available, retry later")
	case errors.Is(err, pool.ErrPoolClosed), errors.Is(err, pool.ErrConnect):
		log.Error().Err(err).Msg("Database unavailable")
		abortWithError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database is unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Msg("Request aborted before document was stored")
		abortWithError(c, http.StatusServiceUnavailable, "REQUEST_ABORTED", "Request was aborted")
	default:
		log.Error().Err(err).Msg("Failed to store document")
		abortWithError(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to store JSON document")
	}
}

// HealthCheck 健康检查
func (h *DocumentHandler) HealthCheck(c *gin.Context) {
	resp := model.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Database:  true,
		Version:   h.build.Version,
	}

	if err := h.store.HealthCheck(c.Request.Context()); err != nil {
		resp.Status = "unhealthy"
		resp.Database = false
		resp.Error = err.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Metrics 连接池指标
func (h *DocumentHandler) Metrics(c *gin.Context) {
	s := h.store.Stats()
	c.JSON(http.StatusOK, model.PoolMetrics{
		Driver:          h.store.Driver(),
		MaxSize:         s.MaxSize,
		OpenConnections: s.Open,
		InUse:           s.InUse,
		Idle:            s.Idle,
		Available:       s.Available,
		WaitCount:       s.WaitCount,
		WaitDuration:    s.WaitDuration,
		Timestamp:       time.Now().UTC(),
	})
}

func (h *DocumentHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, model.VersionResponse{
		Version:     h.build.Version,
		BuildTime:   h.build.BuildTime,
		GitCommit:   h.build.GitCommit,
		Environment: h.build.Environment,
		GoVersion:   runtime.Version(),
	})
}

func (h *DocumentHandler) Index(c *gin.Context) {
	c.String(http.StatusOK, "json-docstore: POST a JSON value to /api/v1/documents")
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, model.ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: c.GetString("request_id"),
	})
}
