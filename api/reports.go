package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"datalens/config"
	"datalens/models"
	"datalens/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ReportStore 报告存储
type ReportStore interface {
	Append(ctx context.Context, report *models.Report) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Report, error)
}

// ReportHandler 报告历史处理器
type ReportHandler struct {
	store ReportStore
}

// NewReportHandler 创建报告历史处理器
func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// CreateReportRequest 保存报告请求
type CreateReportRequest struct {
	ID      string          `json:"id" binding:"required"`
	UserID  string          `json:"userId" binding:"required"`
	Query   string          `json:"query"`
	Context string          `json:"context"`
	Result  json.RawMessage `json:"result" binding:"required"`
}

// List 用户的报告历史，最新的在前
// @Summary 报告历史
// @Tags 报告
// @Produce json
// @Param userId query string true "用户 ID"
// @Param limit query int false "条数，默认 10，最多 100"
// @Success 200 {array} models.Report
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		BadRequest(c, "userId is required")
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	reports, err := h.store.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		config.LogError("api", "ListReports", "查询报告失败", logrus.Fields{"user_id": userID}, err)
		InternalError(c, config.SafeErrorMessage(err, "Failed to load reports"))
		return
	}
	c.JSON(http.StatusOK, reports)
}

// Create 保存一份报告
// @Summary 保存报告
// @Tags 报告
// @Accept json
// @Produce json
// @Param request body CreateReportRequest true "报告"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "ID 已存在"
// @Failure 500 {object} ErrorResponse
// @Router /api/reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "id, userId and result are required")
		return
	}
	result, err := models.DecodeAnalysisResult(req.Result)
	if err != nil {
		BadRequest(c, "result must be a JSON object")
		return
	}
	encoded, err := models.EncodeAnalysisResult(result)
	if err != nil {
		BadRequest(c, "result must be a JSON object")
		return
	}

	report := &models.Report{
		ID:      req.ID,
		UserID:  req.UserID,
		Query:   req.Query,
		Context: req.Context,
		Result:  encoded,
	}
	if err := h.store.Append(c.Request.Context(), report); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateID):
			Conflict(c, "A report with this id already exists")
		case errors.Is(err, repository.ErrUnknownUser):
			BadRequest(c, "Unknown user")
		default:
			config.LogError("api", "CreateReport", "保存报告失败", logrus.Fields{"report_id": req.ID}, err)
			InternalError(c, config.SafeErrorMessage(err, "Failed to save report"))
		}
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
