package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"datalens/config"
	"datalens/middleware"
	"datalens/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GoogleAuthHandler Google 登录处理器
type GoogleAuthHandler struct {
	bridge      *service.GoogleBridge
	channel     *service.HandoffChannel
	tokenExpire time.Duration
}

// NewGoogleAuthHandler 创建 Google 登录处理器
func NewGoogleAuthHandler(bridge *service.GoogleBridge, channel *service.HandoffChannel, tokenExpire time.Duration) *GoogleAuthHandler {
	return &GoogleAuthHandler{bridge: bridge, channel: channel, tokenExpire: tokenExpire}
}

// GetAuthURL 获取 Google 授权地址
// @Summary 获取 Google 授权地址
// @Tags 认证
// @Produce json
// @Success 200 {object} map[string]string "{url}"
// @Failure 500 {object} ErrorResponse "应用地址或 Client ID 未配置"
// @Router /api/auth/google/url [get]
func (h *GoogleAuthHandler) GetAuthURL(c *gin.Context) {
	url, err := h.bridge.AuthorizationURL()
	if err != nil {
		config.LogError("api", "GetAuthURL", "生成授权地址失败", nil, err)
		InternalError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Callback Google 回调，成功后通过页面把用户交给打开者窗口
// @Summary Google 登录回调
// @Tags 认证
// @Produce html
// @Param code query string true "授权码"
// @Success 200 {string} string "回调页面"
// @Failure 400 {string} string "缺少授权码"
// @Failure 500 {string} string "登录失败"
// @Router /auth/google/callback [get]
func (h *GoogleAuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "Missing authorization code")
		return
	}

	user, signIn, err := h.bridge.CompleteExchange(c.Request.Context(), code)
	if err != nil {
		config.LogError("api", "Callback", "Google 登录失败", signInFields(signIn), err)
		var authErr *service.AuthExchangeError
		if errors.As(err, &authErr) {
			c.String(http.StatusInternalServerError, "Authentication failed: could not complete sign-in with Google")
			return
		}
		c.String(http.StatusInternalServerError, "Authentication failed: "+config.SafeErrorMessage(err, "internal error"))
		return
	}

	config.Logger().WithFields(signInFields(signIn)).WithField("user_id", user.ID).Info("Google 登录完成")

	token, err := middleware.GenerateToken(user.ID, user.Name, h.tokenExpire)
	if err != nil {
		config.LogError("api", "Callback", "签发会话令牌失败", logrus.Fields{"user_id": user.ID}, err)
		c.String(http.StatusInternalServerError, "Authentication failed: could not issue session")
		return
	}

	page, err := h.channel.Page(service.NewHandoffMessage(user, token))
	if err != nil {
		config.LogError("api", "Callback", "渲染回调页面失败", nil, err)
		c.String(http.StatusInternalServerError, "Authentication failed")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func signInFields(s *service.SignIn) logrus.Fields {
	fields := logrus.Fields{
		"state":   s.State().String(),
		"history": fmt.Sprint(s.History()),
	}
	var authErr *service.AuthExchangeError
	if errors.As(s.Err(), &authErr) {
		fields["stage"] = authErr.Stage
	}
	return fields
}

// ReceiverScript 浏览器端接收登录结果的脚本
// @Summary 登录结果接收脚本
// @Tags 认证
// @Produce application/javascript
// @Success 200 {string} string "脚本"
// @Router /auth/google/receiver.js [get]
func (h *GoogleAuthHandler) ReceiverScript(c *gin.Context) {
	script, err := h.channel.ReceiverScript()
	if err != nil {
		InternalError(c, "failed to render receiver script")
		return
	}
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", script)
}
