package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// AnalysisResult 顶层字段名
const (
	FieldDataSummary           = "data_summary"
	FieldVisualizations        = "visualizations"
	FieldInsights              = "insights"
	FieldAnomalies             = "anomalies"
	FieldForecast              = "forecast"
	FieldRiskAnalysis          = "risk_analysis"
	FieldRecommendations       = "recommendations"
	FieldStrategicGrowth       = "strategic_growth"
	FieldMarketExpansion       = "market_expansion"
	FieldGeographicMatrix      = "geographic_matrix"
	FieldRiskHeatmap           = "risk_heatmap"
	FieldOperationalEfficiency = "operational_efficiency"
)

// AnalysisResult 推理服务返回的结构化分析文档
// 按顶层字段保存原始 JSON，嵌套结构不做校验；值统一为紧凑格式
type AnalysisResult map[string]json.RawMessage

// ErrNotAnObject 顶层不是 JSON 对象
var ErrNotAnObject = errors.New("analysis result must be a JSON object")

// Has 字段是否存在且不为 null
func (r AnalysisResult) Has(field string) bool {
	raw, ok := r[field]
	return ok && !isNull(raw)
}

// Decode 将某个字段解码到 v，字段不存在时返回 false
func (r AnalysisResult) Decode(field string, v any) (bool, error) {
	if !r.Has(field) {
		return false, nil
	}
	if err := json.Unmarshal(r[field], v); err != nil {
		return true, fmt.Errorf("decode %s: %w", field, err)
	}
	return true, nil
}

// Len 数组字段的元素个数，非数组或不存在时为 0
func (r AnalysisResult) Len(field string) int {
	var items []json.RawMessage
	if ok, err := r.Decode(field, &items); !ok || err != nil {
		return 0
	}
	return len(items)
}

// EncodeAnalysisResult 序列化，不做 HTML 转义，保证与 DecodeAnalysisResult 字节级往返
func EncodeAnalysisResult(r AnalysisResult) ([]byte, error) {
	if r == nil {
		return nil, ErrNotAnObject
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeAnalysisResult 反序列化，字段值压缩为紧凑格式
func DecodeAnalysisResult(data []byte) (AnalysisResult, error) {
	var r AnalysisResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotAnObject
	}
	for k, v := range r {
		compacted, err := CompactRaw(v)
		if err != nil {
			return nil, err
		}
		r[k] = compacted
	}
	return r, nil
}

// CompactRaw 去掉 JSON 值中的空白，不转义 HTML 字符
func CompactRaw(raw json.RawMessage) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// DataSummary 数据概览
type DataSummary struct {
	DetectedEntities []string    `json:"detected_entities"`
	KeyMetrics       []KeyMetric `json:"key_metrics"`
	Relationships    []string    `json:"relationships"`
}

// KeyMetric 关键指标，value 可能是数字或字符串
type KeyMetric struct {
	Label string `json:"label"`
	Value any    `json:"value"`
	Trend string `json:"trend,omitempty"`
}

// Insight 洞察
type Insight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact,omitempty"`
}

// Recommendation 建议
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority,omitempty"`
}

// Forecast 预测块，ProjectionData 可选
type Forecast struct {
	Summary        string            `json:"summary"`
	ProjectionData []ProjectionPoint `json:"projection_data,omitempty"`
}

// ProjectionPoint 预测序列中的一个点
type ProjectionPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

var quarterLabel = regexp.MustCompile(`^Q([1-4])[\s-]*(\d{4})$`)

var periodLayouts = []string{"2006-01-02", "2006-01", "Jan 2006", "January 2006", "2006"}

// parsePeriod 解析常见的期间标签
func parsePeriod(label string) (time.Time, bool) {
	if m := quarterLabel.FindStringSubmatch(label); m != nil {
		q, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		return time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC), true
	}
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, label); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Chronological 期间标签都能解析时检查是否按时间非递减排列；
// 存在无法解析的标签时以上游给出的顺序为准
func (f Forecast) Chronological() bool {
	var prev time.Time
	for i, p := range f.ProjectionData {
		t, ok := parsePeriod(p.Period)
		if !ok {
			return true
		}
		if i > 0 && t.Before(prev) {
			return false
		}
		prev = t
	}
	return true
}
