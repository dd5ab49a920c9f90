package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ConfigurationError 缺少必需的部署配置，只影响当前操作，不影响进程
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Setting)
}

// UpstreamError 推理服务调用失败；Status 为 0 表示没有拿到 HTTP 状态码
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
}

// MalformedResponseError 推理服务返回空内容或无法解析的内容
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model response: %s: %v", e.Reason, e.Err)
	}
	return "malformed model response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// AuthExchangeError 身份提供方拒绝授权码或获取用户资料失败
type AuthExchangeError struct {
	Stage string
	Err   error
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("auth exchange failed at %s: %v", e.Stage, e.Err)
}

func (e *AuthExchangeError) Unwrap() error {
	return e.Err
}

// transientMarkers 消息中出现即视为可重试（不区分大小写）
var transientMarkers = []string{"503", "429", "demand", "rate exceeded", "quota"}

// IsTransient 429/503 或消息命中 transientMarkers 时可重试，其余错误一律终止
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return false
	}
	msg := err.Error()
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		if upErr.Status == http.StatusTooManyRequests || upErr.Status == http.StatusServiceUnavailable {
			return true
		}
		msg = upErr.Message
	}
	msg = strings.ToLower(msg)
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// invalidKeyMarkers Gemini 对无效密钥的典型提示
var invalidKeyMarkers = []string{"api key not valid", "api_key_invalid", "invalid api key", "incorrect api key"}

// IsInvalidCredential 推理服务是否拒绝了密钥
func IsInvalidCredential(err error) bool {
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		return false
	}
	msg := strings.ToLower(upErr.Message)
	for _, marker := range invalidKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	switch upErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusBadRequest:
		return strings.Contains(msg, "api key")
	}
	return false
}
