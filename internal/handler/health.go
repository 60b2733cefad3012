package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"parley/internal/pkg/response"
)

// Pinger 就绪检查依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health 健康检查
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready 就绪检查，存储不可达时返回 503
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("readiness check failed")
		response.Abort(c, http.StatusServiceUnavailable, response.CodeUnavailable, "Store not available")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}
