package service

import (
	"encoding/json"
	"strings"

	"datalens/models"
)

// fieldDefaults 推理结果缺失时回填的字段及其默认值
// 未列出的字段缺失时保持缺失
var fieldDefaults = []struct {
	field string
	value json.RawMessage
}{
	{models.FieldDataSummary, json.RawMessage(`{"detected_entities":[],"key_metrics":[],"relationships":[]}`)},
	{models.FieldInsights, json.RawMessage(`[]`)},
	{models.FieldAnomalies, json.RawMessage(`[]`)},
	{models.FieldRiskAnalysis, json.RawMessage(`[]`)},
	{models.FieldRecommendations, json.RawMessage(`[]`)},
	{models.FieldRiskHeatmap, json.RawMessage(`{"title":"Risk Distribution","data":[]}`)},
	{models.FieldOperationalEfficiency, json.RawMessage(`{"title":"Operational Efficiency","metrics":[]}`)},
	{models.FieldGeographicMatrix, json.RawMessage(`{"title":"Geographic Opportunity Matrix","data":[]}`)},
}

// Normalize 解析推理服务的原始文本并补齐默认字段
func Normalize(raw string) (models.AnalysisResult, error) {
	text := stripCodeFence(strings.TrimSpace(raw))
	if text == "" {
		return nil, &MalformedResponseError{Reason: "empty response"}
	}

	result, err := models.DecodeAnalysisResult([]byte(text))
	if err != nil {
		return nil, &MalformedResponseError{Reason: "response is not a JSON object", Err: err}
	}

	for _, d := range fieldDefaults {
		if !result.Has(d.field) {
			result[d.field] = d.value
		}
	}
	return result, nil
}

// stripCodeFence 去掉 ```json ... ``` 包裹
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(body, "json")
	}
	body = strings.TrimSpace(body)
	return strings.TrimSpace(strings.TrimSuffix(body, "```"))
}
