package api

import (
	"fmt"
	"strings"

	"datalens/config"
	"datalens/middleware"
	"datalens/models"
	"datalens/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	reportSheet  = "Reports"
	insightSheet = "Insights"
)

// ExportHandler 报告导出处理器
type ExportHandler struct {
	store ReportStore
}

// NewExportHandler 创建导出处理器
func NewExportHandler(store ReportStore) *ExportHandler {
	return &ExportHandler{store: store}
}

// ExportExcel 导出当前用户的报告历史为 Excel
// @Summary 导出报告历史
// @Tags 报告
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file "Excel 文件"
// @Failure 401 {object} ErrorResponse "未登录"
// @Failure 500 {object} ErrorResponse
// @Router /api/reports/export [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	reports, err := h.store.ListByUser(c.Request.Context(), userID, repository.MaxListLimit)
	if err != nil {
		config.LogError("api", "ExportExcel", "查询报告失败", logrus.Fields{"user_id": userID}, err)
		InternalError(c, config.SafeErrorMessage(err, "Failed to load reports"))
		return
	}

	f, err := buildReportWorkbook(reports)
	if err != nil {
		config.LogError("api", "ExportExcel", "生成 Excel 失败", nil, err)
		InternalError(c, "Failed to build spreadsheet")
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=datalens-reports.xlsx")
	if err := f.Write(c.Writer); err != nil {
		config.LogError("api", "ExportExcel", "写入 Excel 失败", nil, err)
	}
}

var cellBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
}

// buildReportWorkbook 每份报告一行，洞察单独一张表
func buildReportWorkbook(reports []models.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(insightSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder,
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    cellBorder,
	})

	writeHeader(f, reportSheet, headerStyle, []string{"ID", "Created At", "Query", "Context", "Key Metrics", "Insights", "Recommendations", "Forecast", "Forecast Order", "Anomalies"})
	writeHeader(f, insightSheet, headerStyle, []string{"Report ID", "Title", "Description", "Impact"})
	f.SetColWidth(reportSheet, "A", "A", 38)
	f.SetColWidth(reportSheet, "B", "B", 22)
	f.SetColWidth(reportSheet, "C", "D", 40)
	f.SetColWidth(reportSheet, "E", "H", 50)
	f.SetColWidth(reportSheet, "I", "J", 16)
	f.SetColWidth(insightSheet, "A", "A", 38)
	f.SetColWidth(insightSheet, "B", "B", 30)
	f.SetColWidth(insightSheet, "C", "C", 80)

	insightRow := 2
	for i, report := range reports {
		row := i + 2
		result, err := report.AnalysisResult()
		if err != nil {
			config.Logger().WithField("report_id", report.ID).WithError(err).Warn("报告结果无法解析，导出时留空")
			result = models.AnalysisResult{}
		}

		var summary models.DataSummary
		decodeField(report.ID, result, models.FieldDataSummary, &summary)
		var insights []models.Insight
		decodeField(report.ID, result, models.FieldInsights, &insights)
		var recommendations []models.Recommendation
		decodeField(report.ID, result, models.FieldRecommendations, &recommendations)
		var forecast models.Forecast
		decodeField(report.ID, result, models.FieldForecast, &forecast)

		values := []any{
			report.ID,
			report.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			report.Query,
			report.Context,
			formatMetrics(summary.KeyMetrics),
			joinTitles(len(insights), func(j int) string { return insights[j].Title }),
			joinTitles(len(recommendations), func(j int) string { return recommendations[j].Title }),
			forecast.Summary,
			forecastOrder(report.ID, forecast),
			result.Len(models.FieldAnomalies),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(reportSheet, cell, v)
		}
		f.SetCellStyle(reportSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("J%d", row), dataStyle)

		for _, insight := range insights {
			f.SetCellValue(insightSheet, fmt.Sprintf("A%d", insightRow), report.ID)
			f.SetCellValue(insightSheet, fmt.Sprintf("B%d", insightRow), insight.Title)
			f.SetCellValue(insightSheet, fmt.Sprintf("C%d", insightRow), insight.Description)
			f.SetCellValue(insightSheet, fmt.Sprintf("D%d", insightRow), insight.Impact)
			f.SetCellStyle(insightSheet, fmt.Sprintf("A%d", insightRow), fmt.Sprintf("D%d", insightRow), dataStyle)
			insightRow++
		}
	}
	return f, nil
}

// decodeField 字段形状不符时记录告警，单元格留空
func decodeField(reportID string, result models.AnalysisResult, field string, v any) {
	if _, err := result.Decode(field, v); err != nil {
		config.Logger().WithFields(logrus.Fields{
			"report_id": reportID,
			"field":     field,
		}).WithError(err).Warn("报告字段格式不符，导出时留空")
	}
}

// forecastOrder 预测序列的期间顺序，没有预测点时为空
func forecastOrder(reportID string, forecast models.Forecast) string {
	if len(forecast.ProjectionData) == 0 {
		return ""
	}
	if !forecast.Chronological() {
		config.Logger().WithField("report_id", reportID).Warn("预测期间未按时间排列")
		return "out of order"
	}
	return "chronological"
}

func writeHeader(f *excelize.File, sheet string, style int, headers []string) {
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

func formatMetrics(metrics []models.KeyMetric) string {
	lines := make([]string, 0, len(metrics))
	for _, m := range metrics {
		line := fmt.Sprintf("%s: %v", m.Label, m.Value)
		if m.Trend != "" {
			line += " (" + m.Trend + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func joinTitles(n int, title func(int) string) string {
	titles := make([]string, 0, n)
	for i := 0; i < n; i++ {
		titles = append(titles, title(i))
	}
	return strings.Join(titles, "\n")
}
