package api

import (
	"net/http"

	"datalens/config"
	"datalens/database"

	"github.com/gin-gonic/gin"
)

// HealthHandler 健康检查与配置自检
type HealthHandler struct {
	cfg *config.Config
	db  *database.Handle
	key config.GeminiKey
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(cfg *config.Config, db *database.Handle, key config.GeminiKey) *HealthHandler {
	return &HealthHandler{cfg: cfg, db: db, key: key}
}

// HealthResponse 配置自检结果
type HealthResponse struct {
	Status              string `json:"status"`
	Firebase            bool   `json:"firebase"`
	AppURL              string `json:"appUrl"`
	GoogleClientID      bool   `json:"googleClientId"`
	GeminiKeyConfigured bool   `json:"geminiKeyConfigured"`
	GeminiKeyName       string `json:"geminiKeyName"`
	RedirectURI         string `json:"redirectUri"`
	Origin              string `json:"origin"`
}

// Health 配置自检，不触发数据库初始化
// @Summary 配置自检
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:              "ok",
		Firebase:            h.db.Ready(),
		AppURL:              h.cfg.Server.AppURL,
		GoogleClientID:      h.cfg.Google.ClientID != "",
		GeminiKeyConfigured: h.key.Configured(),
		GeminiKeyName:       h.key.DisplayName(),
		RedirectURI:         h.cfg.Server.RedirectURI(),
		Origin:              requestOrigin(c),
	})
}

// Live 存活探针
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestOrigin 请求方 origin，没有 Origin 头时按请求地址推断
func requestOrigin(c *gin.Context) string {
	if origin := c.GetHeader("Origin"); origin != "" {
		return origin
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
