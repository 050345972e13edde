// internal/models/summary.go
package models

// Progress compares actual intake against a single goal value.
// Percentage is rounded to the nearest whole percent and is not clamped;
// eating past a goal yields values above 100.
type Progress struct {
	Current    float64 `json:"current"`
	Goal       float64 `json:"goal"`
	Percentage float64 `json:"percentage"`
}

// GoalProgress holds per-nutrient progress for one day. Calories is
// always present when goals were supplied; the macro fields appear only
// for macros the goal set actually configures.
type GoalProgress struct {
	Calories Progress  `json:"calories"`
	Protein  *Progress `json:"protein,omitempty"`
	Carbs    *Progress `json:"carbs,omitempty"`
	Fat      *Progress `json:"fat,omitempty"`
}

// MealTypeBreakdown is one row of a daily summary's per-meal-type view.
type MealTypeBreakdown struct {
	MealType  MealType `json:"meal_type"`
	Calories  float64  `json:"calories"`
	MealCount int      `json:"meal_count"`
}

// DailySummary is derived data for one calendar day. It is never
// persisted; it is rebuilt from the day's meals on every request.
type DailySummary struct {
	Date         Date                `json:"date"`
	Totals       NutrientVector      `json:"totals"`
	PerMealType  []MealTypeBreakdown `json:"per_meal_type"`
	GoalProgress *GoalProgress       `json:"goal_progress,omitempty"`
}

// WeeklyReport covers an inclusive date range with one DailySummary per
// calendar day, empty days included.
type WeeklyReport struct {
	StartDate      Date           `json:"start_date"`
	EndDate        Date           `json:"end_date"`
	DailySummaries []DailySummary `json:"daily_summaries"`
	Averages       NutrientVector `json:"averages"`
	TotalMealCount int            `json:"total_meal_count"`
}

// NutritionEstimate is the estimator's reading of a free-text meal
// description. When NeedsMoreInfo is set the caller should surface the
// clarifying questions instead of logging the meal.
type NutritionEstimate struct {
	Foods          []FoodEntry     `json:"foods"`
	Totals         NutrientVector  `json:"totals"`
	Confidence     ConfidenceLevel `json:"confidence"`
	Clarifications []string        `json:"clarifications,omitempty"`
	NeedsMoreInfo  bool            `json:"needs_more_info"`
}

type ConfidenceLevel string

const (
	HighConfidence   ConfidenceLevel = "high"
	MediumConfidence ConfidenceLevel = "medium"
	LowConfidence    ConfidenceLevel = "low"
)
