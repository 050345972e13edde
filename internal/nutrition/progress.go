// internal/nutrition/progress.go
package nutrition

import (
	"fmt"

	"mcp-nutrition-tracker/internal/models"
)

// ComputeProgress compares current intake against a single goal value.
// The goal must be positive; a zero or negative goal is a broken GoalSet
// reaching code that should never see one, so it fails fast instead of
// emitting NaN or Inf.
func ComputeProgress(current, goal float64) (models.Progress, error) {
	if goal <= 0 {
		return models.Progress{}, fmt.Errorf("progress goal must be positive, got %v", goal)
	}
	return models.Progress{
		Current:    current,
		Goal:       goal,
		Percentage: roundWhole(current / goal * 100),
	}, nil
}

// goalProgress builds the per-nutrient progress block for a day's
// totals. Calories progress is always computed; macro progress only for
// macros the goal set configures.
func goalProgress(totals models.NutrientVector, goals models.GoalSet) (*models.GoalProgress, error) {
	calories, err := ComputeProgress(totals.Calories, goals.DailyCalories)
	if err != nil {
		return nil, fmt.Errorf("calories: %w", err)
	}
	gp := &models.GoalProgress{Calories: calories}

	type macro struct {
		name    string
		goal    *float64
		current float64
		out     **models.Progress
	}
	for _, m := range []macro{
		{"protein", goals.Protein, totals.Protein, &gp.Protein},
		{"carbs", goals.Carbs, totals.Carbs, &gp.Carbs},
		{"fat", goals.Fat, totals.Fat, &gp.Fat},
	} {
		if m.goal == nil {
			continue
		}
		p, err := ComputeProgress(m.current, *m.goal)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.name, err)
		}
		*m.out = &p
	}
	return gp, nil
}
