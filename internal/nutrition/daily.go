// internal/nutrition/daily.go
package nutrition

import (
	"mcp-nutrition-tracker/internal/models"
)

// BuildDailySummary aggregates one calendar day's meals. All meals are
// expected to share date; callers filter before calling. A day with no
// meals still yields a valid summary with zero totals and, when goals
// are supplied, 0% progress.
//
// The per-meal-type rows appear in first-seen order across the input,
// not in a fixed breakfast-first order, and their calories come from the
// meal-level rounded totals rather than being re-derived from foods.
func BuildDailySummary(meals []models.Meal, date models.Date, goals *models.GoalSet) (models.DailySummary, error) {
	summary := models.DailySummary{
		Date:        date,
		Totals:      AggregateMeals(meals),
		PerMealType: []models.MealTypeBreakdown{},
	}

	index := make(map[models.MealType]int)
	for _, m := range meals {
		i, seen := index[m.MealType]
		if !seen {
			i = len(summary.PerMealType)
			index[m.MealType] = i
			summary.PerMealType = append(summary.PerMealType, models.MealTypeBreakdown{MealType: m.MealType})
		}
		summary.PerMealType[i].Calories = roundWhole(summary.PerMealType[i].Calories + m.Totals.Calories)
		summary.PerMealType[i].MealCount++
	}

	if goals != nil {
		gp, err := goalProgress(summary.Totals, *goals)
		if err != nil {
			return models.DailySummary{}, err
		}
		summary.GoalProgress = gp
	}

	return summary, nil
}
