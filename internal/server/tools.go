// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mcp-nutrition-tracker/internal/models"
	"mcp-nutrition-tracker/internal/nutrition"
)

type FoodEntryParams struct {
	ExternalFoodID  string                `json:"external_food_id,omitempty" description:"Food database identifier, if the food came from a lookup"`
	Description     string                `json:"description" description:"What the food is"`
	Servings        float64               `json:"servings" description:"Number of servings eaten (must be positive)"`
	ServingSize     float64               `json:"serving_size,omitempty" description:"Size of one serving"`
	ServingSizeUnit string                `json:"serving_size_unit,omitempty" description:"Unit of the serving size (g, cup, oz...)"`
	Nutrition       models.NutrientVector `json:"nutrition" description:"Nutrition for the servings actually eaten"`
}

type LogMealParams struct {
	OwnerID  string            `json:"owner_id" description:"User the meal belongs to"`
	Date     string            `json:"date,omitempty" description:"Calendar day the meal was eaten (YYYY-MM-DD, defaults to today)"`
	MealType string            `json:"meal_type" description:"breakfast, lunch, dinner or snack"`
	Foods    []FoodEntryParams `json:"foods" description:"Foods in the meal"`
	Notes    string            `json:"notes,omitempty" description:"Free-form notes"`
}

type QuickAddParams struct {
	OwnerID           string `json:"owner_id" description:"User the meal belongs to"`
	Description       string `json:"description" description:"Free-text description of what was eaten"`
	Date              string `json:"date,omitempty" description:"Calendar day (YYYY-MM-DD, defaults to today)"`
	MealType          string `json:"meal_type,omitempty" description:"breakfast, lunch, dinner or snack (defaults to snack)"`
	AskClarifications bool   `json:"ask_clarifications" description:"Ask clarifying questions instead of logging when details are missing"`
}

type EstimateNutritionParams struct {
	Description       string `json:"description" description:"Free-text description of the meal to analyze"`
	AskClarifications bool   `json:"ask_clarifications" description:"Whether to ask clarifying questions if needed"`
}

type GetMealsParams struct {
	OwnerID   string `json:"owner_id" description:"User whose meals to fetch"`
	StartDate string `json:"start_date,omitempty" description:"Start of the date range (YYYY-MM-DD)"`
	EndDate   string `json:"end_date,omitempty" description:"End of the date range (YYYY-MM-DD)"`
	Limit     int    `json:"limit,omitempty" description:"Maximum number of meals to return"`
}

type UpdateMealParams struct {
	OwnerID  string            `json:"owner_id" description:"User the meal belongs to"`
	MealID   string            `json:"meal_id" description:"Meal to update"`
	MealType string            `json:"meal_type,omitempty" description:"New meal type, if changing"`
	Foods    []FoodEntryParams `json:"foods,omitempty" description:"Replacement food list, if changing"`
	Notes    *string           `json:"notes,omitempty" description:"Replacement notes, if changing"`
}

type DeleteMealParams struct {
	OwnerID string `json:"owner_id" description:"User the meal belongs to"`
	MealID  string `json:"meal_id" description:"Meal to delete"`
}

type DailySummaryParams struct {
	OwnerID string `json:"owner_id" description:"User to summarize"`
	Date    string `json:"date,omitempty" description:"Calendar day (YYYY-MM-DD, defaults to today)"`
}

type WeeklyReportParams struct {
	OwnerID   string `json:"owner_id" description:"User to report on"`
	StartDate string `json:"start_date,omitempty" description:"First day of the range (YYYY-MM-DD, defaults to 6 days before end)"`
	EndDate   string `json:"end_date,omitempty" description:"Last day of the range (YYYY-MM-DD, defaults to today)"`
}

type SetGoalsParams struct {
	OwnerID       string   `json:"owner_id" description:"User the goals belong to"`
	DailyCalories float64  `json:"daily_calories" description:"Daily calorie target (must be positive)"`
	Protein       *float64 `json:"protein,omitempty" description:"Daily protein target in grams"`
	Carbs         *float64 `json:"carbs,omitempty" description:"Daily carb target in grams"`
	Fat           *float64 `json:"fat,omitempty" description:"Daily fat target in grams"`
	Fiber         *float64 `json:"fiber,omitempty" description:"Daily fiber target in grams"`
}

type GetGoalsParams struct {
	OwnerID string `json:"owner_id" description:"User whose goals to fetch"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal parameters: %w", err)
	}

	return nil
}

// parseDateOrToday parses a YYYY-MM-DD parameter, defaulting to today
// when empty.
func parseDateOrToday(s string) (models.Date, error) {
	if s == "" {
		return models.Today(), nil
	}
	return models.ParseDate(s)
}

func buildFoodEntries(params []FoodEntryParams) ([]models.FoodEntry, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("a meal needs at least one food")
	}
	foods := make([]models.FoodEntry, 0, len(params))
	for i, p := range params {
		if p.Description == "" {
			return nil, fmt.Errorf("food %d: description is required", i+1)
		}
		if p.Servings <= 0 {
			return nil, fmt.Errorf("food %d: servings must be positive, got %v", i+1, p.Servings)
		}
		foods = append(foods, models.FoodEntry{
			ExternalFoodID:  p.ExternalFoodID,
			Description:     p.Description,
			Servings:        p.Servings,
			ServingSize:     p.ServingSize,
			ServingSizeUnit: p.ServingSizeUnit,
			Nutrition:       p.Nutrition,
		})
	}
	return foods, nil
}

// goalsOrDefault fetches the owner's goal set, substituting the system
// defaults when none is configured. The aggregation core never falls
// back on its own; the substitution happens here at the tool boundary.
func (s *NutritionServer) goalsOrDefault(ownerID string) (models.GoalSet, error) {
	goals, err := s.storage.GetGoals(ownerID)
	if err != nil {
		return models.GoalSet{}, fmt.Errorf("failed to fetch goals: %w", err)
	}
	if goals == nil {
		return models.DefaultGoals(ownerID), nil
	}
	return *goals, nil
}

func derefMeals(meals []*models.Meal) []models.Meal {
	out := make([]models.Meal, 0, len(meals))
	for _, m := range meals {
		out = append(out, *m)
	}
	return out
}

// handleLogMeal logs a structured meal whose foods already carry their
// nutrition, typically from a food-database lookup.
func (s *NutritionServer) handleLogMeal(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params LogMealParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.OwnerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}
	if !models.ValidMealType(params.MealType) {
		return nil, fmt.Errorf("invalid meal_type %q (want breakfast, lunch, dinner or snack)", params.MealType)
	}

	date, err := parseDateOrToday(params.Date)
	if err != nil {
		return nil, err
	}
	foods, err := buildFoodEntries(params.Foods)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	meal := &models.Meal{
		ID:        uuid.NewString(),
		OwnerID:   params.OwnerID,
		Date:      date,
		MealType:  models.MealType(params.MealType),
		Foods:     foods,
		Totals:    nutrition.MealTotals(foods),
		Notes:     params.Notes,
		Source:    "manual",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.SaveMeal(meal); err != nil {
		return nil, fmt.Errorf("failed to save meal: %w", err)
	}

	s.logger.Info("meal logged",
		zap.String("meal_id", meal.ID),
		zap.String("owner_id", meal.OwnerID),
		zap.String("date", meal.Date.String()))

	return s.createJSONResponse(meal)
}

// handleQuickAdd logs a meal from a free-text description using the
// nutrition estimator. When the estimator needs clarification the
// questions are returned and nothing is logged.
func (s *NutritionServer) handleQuickAdd(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params QuickAddParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.OwnerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}
	if params.Description == "" {
		return nil, fmt.Errorf("meal description is required")
	}

	mealType := models.Snack
	if params.MealType != "" {
		if !models.ValidMealType(params.MealType) {
			return nil, fmt.Errorf("invalid meal_type %q (want breakfast, lunch, dinner or snack)", params.MealType)
		}
		mealType = models.MealType(params.MealType)
	}

	date, err := parseDateOrToday(params.Date)
	if err != nil {
		return nil, err
	}

	estimate, err := s.estimator.EstimateNutrition(context.Background(), &EstimateRequest{
		Description:       params.Description,
		AskClarifications: params.AskClarifications,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate nutrition: %w", err)
	}

	if estimate.NeedsMoreInfo && len(estimate.Clarifications) > 0 {
		result := map[string]interface{}{
			"needs_clarification":  true,
			"clarifications":       estimate.Clarifications,
			"preliminary_estimate": estimate,
		}
		return s.createJSONResponse(result)
	}
	if len(estimate.Foods) == 0 {
		return nil, fmt.Errorf("could not identify any foods in %q", params.Description)
	}

	now := time.Now()
	meal := &models.Meal{
		ID:        uuid.NewString(),
		OwnerID:   params.OwnerID,
		Date:      date,
		MealType:  mealType,
		Foods:     estimate.Foods,
		Totals:    nutrition.MealTotals(estimate.Foods),
		Notes:     params.Description,
		Source:    "quick_add",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.SaveMeal(meal); err != nil {
		return nil, fmt.Errorf("failed to save meal: %w", err)
	}

	s.logger.Info("meal quick-added",
		zap.String("meal_id", meal.ID),
		zap.String("owner_id", meal.OwnerID),
		zap.String("confidence", string(estimate.Confidence)))

	return s.createJSONResponse(map[string]interface{}{
		"meal":       meal,
		"confidence": estimate.Confidence,
	})
}

// handleEstimateNutrition analyzes a description without logging it.
func (s *NutritionServer) handleEstimateNutrition(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params EstimateNutritionParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.Description == "" {
		return nil, fmt.Errorf("meal description is required")
	}

	estimate, err := s.estimator.EstimateNutrition(context.Background(), &EstimateRequest{
		Description:       params.Description,
		AskClarifications: params.AskClarifications,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate nutrition: %w", err)
	}

	return s.createJSONResponse(estimate)
}

func (s *NutritionServer) handleGetMeals(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetMealsParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.OwnerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}

	end, err := parseDateOrToday(params.EndDate)
	if err != nil {
		return nil, err
	}
	start := end
	if params.StartDate != "" {
		if start, err = models.ParseDate(params.StartDate); err != nil {
			return nil, err
		}
	}
	if start.After(end) {
		return nil, fmt.Errorf("start_date %s is after end_date %s", start, end)
	}

	meals, err := s.storage.MealsForDateRange(params.OwnerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve meals: %w", err)
	}
	if len(meals) > params.Limit {
		meals = meals[len(meals)-params.Limit:]
	}

	return s.createJSONResponse(meals)
}

// handleUpdateMeal replaces a meal's foods, type or notes and recomputes
// its totals from the resulting food list.
func (s *NutritionServer) handleUpdateMeal(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params UpdateMealParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.OwnerID == "" || params.MealID == "" {
		return nil, fmt.Errorf("owner_id and meal_id are required")
	}

	meal, err := s.storage.GetMeal(params.OwnerID, params.MealID)
	if err != nil {
		return nil, err
	}

	if params.MealType != "" {
		if !models.ValidMealType(params.MealType) {
			return nil, fmt.Errorf("invalid meal_type %q (want breakfast, lunch, dinner or snack)", params.MealType)
		}
		meal.MealType = models.MealType(params.MealType)
	}
	if params.Foods != nil {
		foods, err := buildFoodEntries(params.Foods)
		if err != nil {
			return nil, err
		}
		meal.Foods = foods
	}
	if params.Notes != nil {
		meal.Notes = *params.Notes
	}

	// Totals must track the food list.
	meal.Totals = nutrition.MealTotals(meal.Foods)
	meal.UpdatedAt = time.Now()

	if err := s.storage.UpdateMeal(meal); err != nil {
		return nil, fmt.Errorf("failed to update meal: %w", err)
	}

	return s.createJSONResponse(meal)
}

func (s *NutritionServer) handleDeleteMeal(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params DeleteMealParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.OwnerID == "" || params.MealID == "" {
		return nil, fmt.Errorf("owner_id and meal_id are required")
	}

	if err := s.storage.DeleteMeal(params.OwnerID, params.MealID); err != nil {
		return nil, err
	}

	return s.createJSONResponse(map[string]interface{}{
		"deleted": true,
		"meal_id": params.MealID,
	})
}

func (s *NutritionServer) handleGetDailySummary(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params DailySummaryParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.OwnerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}

	date, err := parseDateOrToday(params.Date)
	if err != nil {
		return nil, err
	}

	meals, err := s.storage.MealsForDate(params.OwnerID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve meals: %w", err)
	}
	goals, err := s.goalsOrDefault(params.OwnerID)
	if err != nil {
		return nil, err
	}

	summary, err := nutrition.BuildDailySummary(derefMeals(meals), date, &goals)
	if err != nil {
		return nil, fmt.Errorf("failed to build daily summary: %w", err)
	}

	return s.createJSONResponse(summary)
}

func (s *NutritionServer) handleGetWeeklyReport(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params WeeklyReportParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.OwnerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}

	end, err := parseDateOrToday(params.EndDate)
	if err != nil {
		return nil, err
	}
	start := end.AddDays(-6)
	if params.StartDate != "" {
		if start, err = models.ParseDate(params.StartDate); err != nil {
			return nil, err
		}
	}

	meals, err := s.storage.MealsForDateRange(params.OwnerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve meals: %w", err)
	}
	goals, err := s.goalsOrDefault(params.OwnerID)
	if err != nil {
		return nil, err
	}

	report, err := nutrition.BuildWeeklyReport(derefMeals(meals), start, end, &goals)
	if err != nil {
		return nil, fmt.Errorf("failed to build weekly report: %w", err)
	}

	return s.createJSONResponse(map[string]interface{}{
		"report":   report,
		"insights": nutrition.Insights(report, goals),
	})
}

func (s *NutritionServer) handleSetGoals(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params SetGoalsParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.OwnerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}
	if params.DailyCalories <= 0 {
		return nil, fmt.Errorf("daily_calories must be positive, got %v", params.DailyCalories)
	}
	for name, v := range map[string]*float64{
		"protein": params.Protein,
		"carbs":   params.Carbs,
		"fat":     params.Fat,
		"fiber":   params.Fiber,
	} {
		if v != nil && *v <= 0 {
			return nil, fmt.Errorf("%s target must be positive, got %v", name, *v)
		}
	}

	goals := &models.GoalSet{
		OwnerID:       params.OwnerID,
		DailyCalories: params.DailyCalories,
		Protein:       params.Protein,
		Carbs:         params.Carbs,
		Fat:           params.Fat,
		Fiber:         params.Fiber,
		UpdatedAt:     time.Now(),
	}
	if err := s.storage.SaveGoals(goals); err != nil {
		return nil, err
	}

	s.logger.Info("goals updated", zap.String("owner_id", goals.OwnerID))

	return s.createJSONResponse(goals)
}

func (s *NutritionServer) handleGetGoals(req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetGoalsParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.OwnerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}

	goals, err := s.storage.GetGoals(params.OwnerID)
	if err != nil {
		return nil, err
	}

	source := "user"
	if goals == nil {
		defaults := models.DefaultGoals(params.OwnerID)
		goals = &defaults
		source = "default"
	}

	return s.createJSONResponse(map[string]interface{}{
		"goals":  goals,
		"source": source,
	})
}

// Register all tools - simplified without protocol.NewTool
func (s *NutritionServer) registerTools() error {
	tools := map[string]func(*protocol.CallToolRequest) (*protocol.CallToolResult, error){
		"log_meal":           s.handleLogMeal,
		"quick_add":          s.handleQuickAdd,
		"estimate_nutrition": s.handleEstimateNutrition,
		"get_meals":          s.handleGetMeals,
		"update_meal":        s.handleUpdateMeal,
		"delete_meal":        s.handleDeleteMeal,
		"get_daily_summary":  s.handleGetDailySummary,
		"get_weekly_report":  s.handleGetWeeklyReport,
		"set_goals":          s.handleSetGoals,
		"get_goals":          s.handleGetGoals,
	}

	for name := range tools {
		s.logger.Debug("registered tool", zap.String("tool", name))
	}

	return nil
}
