// internal/nutrition/weekly.go
package nutrition

import (
	"errors"
	"fmt"

	"mcp-nutrition-tracker/internal/models"
)

// ErrInvalidRange is returned when a report's start date falls after its
// end date. The range is never silently swapped.
var ErrInvalidRange = errors.New("start date is after end date")

// BuildWeeklyReport builds one DailySummary per calendar day from start
// to end inclusive, in ascending order, plus cross-day averages.
// Averages divide by the number of days that actually have meals, not
// the range length, so a sparsely-logged week is not diluted by empty
// days. Callers pre-filter meals to the range; TotalMealCount is simply
// the input length.
func BuildWeeklyReport(meals []models.Meal, start, end models.Date, goals *models.GoalSet) (models.WeeklyReport, error) {
	if start.After(end) {
		return models.WeeklyReport{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}

	byDate := make(map[models.Date][]models.Meal)
	for _, m := range meals {
		byDate[m.Date] = append(byDate[m.Date], m)
	}

	report := models.WeeklyReport{
		StartDate:      start,
		EndDate:        end,
		TotalMealCount: len(meals),
	}

	daysWithMeals := 0
	for day := start; !day.After(end); day = day.Next() {
		dayMeals := byDate[day]
		if len(dayMeals) > 0 {
			daysWithMeals++
		}
		summary, err := BuildDailySummary(dayMeals, day, goals)
		if err != nil {
			return models.WeeklyReport{}, fmt.Errorf("summary for %s: %w", day, err)
		}
		report.DailySummaries = append(report.DailySummaries, summary)
	}

	if daysWithMeals > 0 {
		report.Averages = Scale(AggregateMeals(meals), 1/float64(daysWithMeals))
	}
	return report, nil
}
