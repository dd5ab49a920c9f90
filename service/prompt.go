package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PromptSampleRows 嵌入提示词的最大行数，与请求体的行数上限相互独立
const PromptSampleRows = 100

// SystemInstruction 推理服务的系统指令
const SystemInstruction = `You are a senior business intelligence analyst and strategy consultant.
You receive a sample of a tabular business dataset together with an analysis request.
Identify the entities, metrics and relationships in the data, then produce a rigorous,
decision-ready analysis grounded only in the rows you were given.
Respond with a single JSON object and nothing else: no markdown, no commentary.`

// responseSchema 期望的输出结构
const responseSchema = `{
  "data_summary": {"detected_entities": [string], "key_metrics": [{"label": string, "value": number|string, "trend": "up"|"down"|"stable"}], "relationships": [string]},
  "visualizations": [{"type": "bar"|"line"|"pie"|"area"|"scatter", "title": string, "x_key": string, "y_keys": [string], "data": [object]}],
  "insights": [{"title": string, "description": string, "impact": "high"|"medium"|"low"}],
  "anomalies": [{"title": string, "description": string, "severity": "high"|"medium"|"low"}],
  "forecast": {"summary": string, "projection_data": [{"period": string, "value": number}]},
  "risk_analysis": [{"risk": string, "likelihood": "high"|"medium"|"low", "impact": "high"|"medium"|"low", "mitigation": string}],
  "recommendations": [{"title": string, "description": string, "priority": "high"|"medium"|"low"}],
  "strategic_growth": {"summary": string, "opportunities": [{"title": string, "description": string, "potential": string}]},
  "market_expansion": {"summary": string, "targets": [{"market": string, "rationale": string, "readiness": number}]},
  "geographic_matrix": {"title": string, "data": [{"region": string, "performance": number, "opportunity": number, "risk": number}]},
  "risk_heatmap": {"title": string, "data": [{"category": string, "likelihood": number, "impact": number}]},
  "operational_efficiency": {"title": string, "metrics": [{"name": string, "score": number, "benchmark": number}]}
}`

// PromptInput 构建提示词所需的数据
type PromptInput struct {
	Rows      []json.RawMessage
	Query     string
	Context   string
	TotalRows int
}

// BuildPrompt 生成提示词，只嵌入前 PromptSampleRows 行
func BuildPrompt(in PromptInput) (string, error) {
	rows := in.Rows
	if len(rows) > PromptSampleRows {
		rows = rows[:PromptSampleRows]
	}
	sample, err := encodeRows(rows)
	if err != nil {
		return "", err
	}

	total := in.TotalRows
	if total <= 0 {
		total = len(in.Rows)
	}
	query := strings.TrimSpace(in.Query)
	if query == "" {
		query = "Provide a comprehensive business analysis of this dataset."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analysis request: %s\n", query)
	if ctx := strings.TrimSpace(in.Context); ctx != "" {
		fmt.Fprintf(&b, "Business context: %s\n", ctx)
	}
	fmt.Fprintf(&b, "\nThe full dataset has %d rows. The first %d rows are shown below as JSON:\n", total, len(rows))
	b.Write(sample)
	b.WriteString("\n\nReturn a JSON object with exactly this structure:\n")
	b.WriteString(responseSchema)
	b.WriteString("\n\nFormatting requirements:\n")
	b.WriteString("- geographic_matrix.data must include every region identified in the data, not a subset.\n")
	b.WriteString("- forecast.projection_data must contain between 6 and 8 points in chronological order.\n")
	b.WriteString("- operational_efficiency scores and benchmarks are numbers from 0 to 100.\n")
	b.WriteString("- Every array field must be present; use an empty array when nothing applies.\n")
	b.WriteString("- Numeric values must be JSON numbers, not strings with units or currency symbols.\n")
	return b.String(), nil
}

func encodeRows(rows []json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := json.Compact(&buf, row); err != nil {
			return nil, fmt.Errorf("row %d is not valid JSON: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
