package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"datalens/config"
	"datalens/middleware"
	"datalens/models"
	"datalens/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxSampleRows 请求体中数据样本的最大行数，超出部分丢弃
const MaxSampleRows = 500

// HighDemandMessage 重试耗尽后返回给用户的提示
const HighDemandMessage = "The AI service is experiencing high demand right now. Please wait a moment and try again."

// Invoker 带重试的推理调用
type Invoker interface {
	Invoke(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// ReportAppender 保存分析结果
type ReportAppender interface {
	Append(ctx context.Context, report *models.Report) error
}

// AnalyzeHandler 数据分析处理器
type AnalyzeHandler struct {
	invoker Invoker
	reports ReportAppender
	key     config.GeminiKey
	newID   func() string
}

// NewAnalyzeHandler 创建数据分析处理器
func NewAnalyzeHandler(invoker Invoker, reports ReportAppender, key config.GeminiKey) *AnalyzeHandler {
	return &AnalyzeHandler{
		invoker: invoker,
		reports: reports,
		key:     key,
		newID:   uuid.NewString,
	}
}

// AnalyzeRequest 分析请求
type AnalyzeRequest struct {
	Dataset   []json.RawMessage `json:"dataset"`
	Query     string            `json:"query"`
	Context   string            `json:"context"`
	TotalRows int               `json:"totalRows"`
}

// Analyze 分析数据样本并返回结构化报告；已登录用户的报告会写入历史
// @Summary 数据分析
// @Tags 分析
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AnalyzeRequest true "数据样本与分析要求"
// @Success 200 {object} map[string]interface{} "AnalysisResult"
// @Failure 400 {object} ErrorResponse "缺少数据或密钥无效"
// @Failure 429 {object} ErrorResponse "服务繁忙"
// @Failure 500 {object} ErrorResponse
// @Router /api/analyze [post]
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}
	if len(req.Dataset) == 0 {
		BadRequest(c, "Dataset is required")
		return
	}
	if !h.key.Configured() {
		InternalError(c, "GEMINI_API_KEY is not configured on the server")
		return
	}

	rows := req.Dataset
	if len(rows) > MaxSampleRows {
		config.Logger().WithFields(logrus.Fields{
			"received": len(rows),
			"kept":     MaxSampleRows,
		}).Info("数据样本超出上限，已截断")
		rows = rows[:MaxSampleRows]
	}
	totalRows := req.TotalRows
	if totalRows <= 0 {
		totalRows = len(rows)
	}

	prompt, err := service.BuildPrompt(service.PromptInput{
		Rows:      rows,
		Query:     req.Query,
		Context:   req.Context,
		TotalRows: totalRows,
	})
	if err != nil {
		BadRequest(c, "Dataset rows must be valid JSON")
		return
	}

	raw, err := h.invoker.Invoke(c.Request.Context(), service.SystemInstruction, prompt)
	if err != nil {
		h.writeInvokeError(c, err)
		return
	}

	result, err := service.Normalize(raw)
	if err != nil {
		config.LogError("api", "Analyze", "推理结果无法解析", nil, err)
		InternalError(c, "The AI service returned an invalid response. Please try again.")
		return
	}

	if userID := middleware.GetCurrentUserID(c); userID != "" {
		h.persist(c.Request.Context(), userID, req, result)
	}

	body, err := models.EncodeAnalysisResult(result)
	if err != nil {
		InternalError(c, "Failed to encode analysis result")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// persist 写入历史，失败只记录日志
func (h *AnalyzeHandler) persist(ctx context.Context, userID string, req AnalyzeRequest, result models.AnalysisResult) {
	id := h.newID()
	fields := logrus.Fields{"report_id": id, "user_id": userID}

	encoded, err := models.EncodeAnalysisResult(result)
	if err != nil {
		config.Logger().WithFields(fields).WithError(err).Warn("分析结果序列化失败，未写入历史")
		return
	}
	report := &models.Report{
		ID:      id,
		UserID:  userID,
		Query:   req.Query,
		Context: req.Context,
		Result:  encoded,
	}
	if err := h.reports.Append(context.WithoutCancel(ctx), report); err != nil {
		config.Logger().WithFields(fields).WithError(err).Warn("写入分析历史失败")
		return
	}
	config.Logger().WithFields(fields).Debug("分析历史已保存")
}

func (h *AnalyzeHandler) writeInvokeError(c *gin.Context, err error) {
	config.LogError("api", "Analyze", "推理服务调用失败", logrus.Fields{"key_source": h.key.DisplayName()}, err)

	var cfgErr *service.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		InternalError(c, cfgErr.Error())
	case service.IsTransient(err):
		TooManyRequests(c, HighDemandMessage)
	case service.IsInvalidCredential(err):
		BadRequest(c, fmt.Sprintf("The Gemini API key from %s was rejected as invalid. Please check your configuration.", h.key.DisplayName()))
	default:
		InternalError(c, config.SafeErrorMessage(err, "Analysis failed"))
	}
}
