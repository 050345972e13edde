// internal/server/estimator_test.go
package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mcp-nutrition-tracker/internal/models"
)

func TestParseAIResponse(t *testing.T) {
	e := NewEstimator(zap.NewNop())

	aiOutput := `{"content": "Here is the analysis:\n{\"foods\":[{\"description\":\"banana\",\"servings\":1,\"serving_size\":118,\"serving_size_unit\":\"g\",\"nutrition\":{\"calories\":105,\"protein\":1.3,\"carbs\":27,\"fat\":0.4,\"fiber\":3.1,\"sugar\":14.4,\"sodium\":1}}],\"confidence\":\"high\",\"needs_more_info\":false}"}`

	estimate := e.parseAIResponse(aiOutput)

	require.Len(t, estimate.Foods, 1)
	assert.Equal(t, "banana", estimate.Foods[0].Description)
	assert.Equal(t, models.HighConfidence, estimate.Confidence)
	assert.False(t, estimate.NeedsMoreInfo)
	// Totals are derived from the parsed foods, not trusted from the model.
	assert.Equal(t, 105.0, estimate.Totals.Calories)
	assert.Equal(t, 1.3, estimate.Totals.Protein)
	require.NotNil(t, estimate.Totals.Fiber)
	assert.Equal(t, 3.1, *estimate.Totals.Fiber)
}

func TestParseAIResponseFallsBackOnGarbage(t *testing.T) {
	e := NewEstimator(zap.NewNop())

	for _, bad := range []string{
		"not json at all",
		`{"content": "no json object here"}`,
		`{"content": "{broken json"}`,
	} {
		estimate := e.parseAIResponse(bad)
		assert.True(t, estimate.NeedsMoreInfo, "input %q", bad)
		assert.Equal(t, models.LowConfidence, estimate.Confidence)
		assert.NotEmpty(t, estimate.Clarifications)
	}
}
