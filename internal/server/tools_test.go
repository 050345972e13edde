// internal/server/tools_test.go
package server

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mcp-nutrition-tracker/internal/models"
	"mcp-nutrition-tracker/internal/storage"
)

func newTestServer(t *testing.T) *NutritionServer {
	t.Helper()
	stor, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { stor.Close() })

	logger := zap.NewNop()
	return &NutritionServer{
		storage:   stor,
		estimator: NewEstimator(logger),
		logger:    logger,
		config:    &Config{},
	}
}

func toolRequest(t *testing.T, name string, args map[string]interface{}) *protocol.CallToolRequest {
	t.Helper()
	return &protocol.CallToolRequest{Name: name, Arguments: args}
}

func decodeResult(t *testing.T, result *protocol.CallToolResult, target interface{}) {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(protocol.TextContent)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(text.Text), target))
}

func logMealArgs(date string, mealType string, calories float64) map[string]interface{} {
	return map[string]interface{}{
		"owner_id":  "u1",
		"date":      date,
		"meal_type": mealType,
		"foods": []map[string]interface{}{
			{
				"description": "test food",
				"servings":    1,
				"nutrition": map[string]interface{}{
					"calories": calories,
					"protein":  20,
					"carbs":    30,
					"fat":      10,
				},
			},
		},
	}
}

func TestExtractParams(t *testing.T) {
	req := toolRequest(t, "log_meal", map[string]interface{}{
		"owner_id":  "u1",
		"meal_type": "lunch",
	})

	var params LogMealParams
	require.NoError(t, extractParams(req, &params))
	assert.Equal(t, "u1", params.OwnerID)
	assert.Equal(t, "lunch", params.MealType)
}

func TestLogMealValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing owner", map[string]interface{}{"meal_type": "lunch"}},
		{"bad meal type", map[string]interface{}{"owner_id": "u1", "meal_type": "brunch"}},
		{"no foods", map[string]interface{}{"owner_id": "u1", "meal_type": "lunch"}},
		{"bad date", logMealArgs("15/01/2024", "lunch", 500)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.handleLogMeal(toolRequest(t, "log_meal", tc.args))
			assert.Error(t, err)
		})
	}
}

func TestLogMealZeroServingsRejected(t *testing.T) {
	s := newTestServer(t)
	args := logMealArgs("2024-01-15", "lunch", 500)
	args["foods"].([]map[string]interface{})[0]["servings"] = 0

	_, err := s.handleLogMeal(toolRequest(t, "log_meal", args))
	assert.Error(t, err)
}

func TestLogMealComputesTotals(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleLogMeal(toolRequest(t, "log_meal", logMealArgs("2024-01-15", "lunch", 512.4)))
	require.NoError(t, err)

	var meal models.Meal
	decodeResult(t, result, &meal)
	assert.NotEmpty(t, meal.ID)
	assert.Equal(t, 512.0, meal.Totals.Calories)
	assert.Equal(t, "manual", meal.Source)
}

func TestDailySummaryUsesDefaultGoals(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleLogMeal(toolRequest(t, "log_meal", logMealArgs("2024-01-15", "breakfast", 600)))
	require.NoError(t, err)

	result, err := s.handleGetDailySummary(toolRequest(t, "get_daily_summary", map[string]interface{}{
		"owner_id": "u1",
		"date":     "2024-01-15",
	}))
	require.NoError(t, err)

	var summary models.DailySummary
	decodeResult(t, result, &summary)
	assert.Equal(t, 600.0, summary.Totals.Calories)
	require.NotNil(t, summary.GoalProgress)
	assert.Equal(t, 2000.0, summary.GoalProgress.Calories.Goal)
	assert.Equal(t, 30.0, summary.GoalProgress.Calories.Percentage)
	require.Len(t, summary.PerMealType, 1)
	assert.Equal(t, models.Breakfast, summary.PerMealType[0].MealType)
}

func TestDailySummaryUsesStoredGoals(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleSetGoals(toolRequest(t, "set_goals", map[string]interface{}{
		"owner_id":       "u1",
		"daily_calories": 1500,
		"protein":        90,
	}))
	require.NoError(t, err)

	result, err := s.handleGetDailySummary(toolRequest(t, "get_daily_summary", map[string]interface{}{
		"owner_id": "u1",
		"date":     "2024-01-15",
	}))
	require.NoError(t, err)

	var summary models.DailySummary
	decodeResult(t, result, &summary)
	require.NotNil(t, summary.GoalProgress)
	assert.Equal(t, 1500.0, summary.GoalProgress.Calories.Goal)
	require.NotNil(t, summary.GoalProgress.Protein)
	// Carbs and fat were not configured, so no progress for them.
	assert.Nil(t, summary.GoalProgress.Carbs)
	assert.Nil(t, summary.GoalProgress.Fat)
}

func TestWeeklyReportEndpoint(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleLogMeal(toolRequest(t, "log_meal", logMealArgs("2024-01-15", "lunch", 500)))
	require.NoError(t, err)
	_, err = s.handleLogMeal(toolRequest(t, "log_meal", logMealArgs("2024-01-16", "dinner", 700)))
	require.NoError(t, err)

	result, err := s.handleGetWeeklyReport(toolRequest(t, "get_weekly_report", map[string]interface{}{
		"owner_id":   "u1",
		"start_date": "2024-01-15",
		"end_date":   "2024-01-17",
	}))
	require.NoError(t, err)

	var payload struct {
		Report   models.WeeklyReport `json:"report"`
		Insights []string            `json:"insights"`
	}
	decodeResult(t, result, &payload)
	require.Len(t, payload.Report.DailySummaries, 3)
	assert.Equal(t, 600.0, payload.Report.Averages.Calories)
	assert.Equal(t, 2, payload.Report.TotalMealCount)
	assert.NotEmpty(t, payload.Insights)
}

func TestWeeklyReportRejectsInvertedRange(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleGetWeeklyReport(toolRequest(t, "get_weekly_report", map[string]interface{}{
		"owner_id":   "u1",
		"start_date": "2024-01-17",
		"end_date":   "2024-01-15",
	}))
	assert.Error(t, err)
}

func TestSetGoalsValidation(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleSetGoals(toolRequest(t, "set_goals", map[string]interface{}{
		"owner_id":       "u1",
		"daily_calories": 0,
	}))
	assert.Error(t, err)

	_, err = s.handleSetGoals(toolRequest(t, "set_goals", map[string]interface{}{
		"owner_id":       "u1",
		"daily_calories": 2000,
		"protein":        -5,
	}))
	assert.Error(t, err)
}

func TestGetGoalsFallsBackToDefaults(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleGetGoals(toolRequest(t, "get_goals", map[string]interface{}{
		"owner_id": "u1",
	}))
	require.NoError(t, err)

	var payload struct {
		Goals  models.GoalSet `json:"goals"`
		Source string         `json:"source"`
	}
	decodeResult(t, result, &payload)
	assert.Equal(t, "default", payload.Source)
	assert.Equal(t, 2000.0, payload.Goals.DailyCalories)
}

func TestUpdateAndDeleteMeal(t *testing.T) {
	s := newTestServer(t)
	result, err := s.handleLogMeal(toolRequest(t, "log_meal", logMealArgs("2024-01-15", "lunch", 500)))
	require.NoError(t, err)
	var meal models.Meal
	decodeResult(t, result, &meal)

	result, err = s.handleUpdateMeal(toolRequest(t, "update_meal", map[string]interface{}{
		"owner_id":  "u1",
		"meal_id":   meal.ID,
		"meal_type": "dinner",
	}))
	require.NoError(t, err)
	var updated models.Meal
	decodeResult(t, result, &updated)
	assert.Equal(t, models.Dinner, updated.MealType)
	// Totals are recomputed from the unchanged food list.
	assert.Equal(t, 500.0, updated.Totals.Calories)

	_, err = s.handleDeleteMeal(toolRequest(t, "delete_meal", map[string]interface{}{
		"owner_id": "u1",
		"meal_id":  meal.ID,
	}))
	require.NoError(t, err)

	_, err = s.handleDeleteMeal(toolRequest(t, "delete_meal", map[string]interface{}{
		"owner_id": "u1",
		"meal_id":  meal.ID,
	}))
	assert.Error(t, err)
}

func TestGetMealsLimit(t *testing.T) {
	s := newTestServer(t)
	for _, date := range []string{"2024-01-14", "2024-01-15", "2024-01-16"} {
		_, err := s.handleLogMeal(toolRequest(t, "log_meal", logMealArgs(date, "lunch", 500)))
		require.NoError(t, err)
	}

	result, err := s.handleGetMeals(toolRequest(t, "get_meals", map[string]interface{}{
		"owner_id":   "u1",
		"start_date": "2024-01-14",
		"end_date":   "2024-01-16",
		"limit":      2,
	}))
	require.NoError(t, err)

	var meals []models.Meal
	decodeResult(t, result, &meals)
	assert.Len(t, meals, 2)
}
