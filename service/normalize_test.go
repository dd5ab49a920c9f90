package service

import (
	"encoding/json"
	"errors"
	"testing"

	"datalens/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FillsDefaults(t *testing.T) {
	result, err := Normalize(`{"insights":[{"title":"x"}]}`)
	require.NoError(t, err)

	assert.Equal(t, json.RawMessage(`[{"title":"x"}]`), result[models.FieldInsights])
	assert.Equal(t, json.RawMessage(`[]`), result[models.FieldAnomalies])
	assert.Equal(t, json.RawMessage(`[]`), result[models.FieldRiskAnalysis])
	assert.Equal(t, json.RawMessage(`[]`), result[models.FieldRecommendations])
	assert.JSONEq(t, `{"detected_entities":[],"key_metrics":[],"relationships":[]}`, string(result[models.FieldDataSummary]))
	assert.JSONEq(t, `{"title":"Risk Distribution","data":[]}`, string(result[models.FieldRiskHeatmap]))
	assert.JSONEq(t, `{"title":"Operational Efficiency","metrics":[]}`, string(result[models.FieldOperationalEfficiency]))
	assert.JSONEq(t, `{"title":"Geographic Opportunity Matrix","data":[]}`, string(result[models.FieldGeographicMatrix]))

	// 不在默认表中的字段保持缺失
	for _, field := range []string{models.FieldForecast, models.FieldVisualizations, models.FieldStrategicGrowth, models.FieldMarketExpansion} {
		_, ok := result[field]
		assert.False(t, ok, field)
	}
	keys := make([]string, 0, len(result))
	for k := range result {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{
		models.FieldInsights, models.FieldDataSummary, models.FieldAnomalies, models.FieldRiskAnalysis,
		models.FieldRecommendations, models.FieldRiskHeatmap, models.FieldOperationalEfficiency, models.FieldGeographicMatrix,
	}, keys)
}

func TestNormalize_KeepsPresentFields(t *testing.T) {
	raw := `{"risk_heatmap":{"title":"Custom","data":[{"category":"FX","likelihood":3,"impact":4}]},
		"forecast":{"summary":"flat"},"extra":"kept","anomalies":"not-an-array"}`
	result, err := Normalize(raw)
	require.NoError(t, err)

	assert.JSONEq(t, `{"title":"Custom","data":[{"category":"FX","likelihood":3,"impact":4}]}`, string(result[models.FieldRiskHeatmap]))
	assert.Equal(t, json.RawMessage(`{"summary":"flat"}`), result[models.FieldForecast])
	assert.Equal(t, json.RawMessage(`"kept"`), result["extra"])
	assert.Equal(t, json.RawMessage(`"not-an-array"`), result[models.FieldAnomalies])
}

func TestNormalize_NullCountsAsAbsent(t *testing.T) {
	result, err := Normalize(`{"insights":null,"forecast":null}`)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`[]`), result[models.FieldInsights])
	assert.Equal(t, json.RawMessage(`null`), result[models.FieldForecast])
}

func TestNormalize_CodeFence(t *testing.T) {
	result, err := Normalize("```json\n{\"insights\":[1]}\n```")
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`[1]`), result[models.FieldInsights])

	result, err = Normalize("```\n{}\n```")
	require.NoError(t, err)
	assert.True(t, result.Has(models.FieldInsights))
}

func TestNormalize_Malformed(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":      "",
		"whitespace": "  \n\t ",
		"not json":   "Sorry, I cannot help with that.",
		"array":      `[{"insights":[]}]`,
		"null":       "null",
		"truncated":  `{"insights":[`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(raw)
			var malformed *MalformedResponseError
			assert.True(t, errors.As(err, &malformed), "got %v", err)
		})
	}
}

func TestNormalize_RoundTripsThroughEncoding(t *testing.T) {
	result, err := Normalize(`{"insights":[{"title":"A & B <growth>"}],"forecast":{"summary":"ok","projection_data":[{"period":"Q1 2025","value":10}]}}`)
	require.NoError(t, err)

	encoded, err := models.EncodeAnalysisResult(result)
	require.NoError(t, err)
	decoded, err := models.DecodeAnalysisResult(encoded)
	require.NoError(t, err)
	assert.Equal(t, result, decoded)
}
