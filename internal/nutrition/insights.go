// internal/nutrition/insights.go
package nutrition

import (
	"fmt"

	"mcp-nutrition-tracker/internal/models"
)

// Insight thresholds. Averages within [80%, 120%] of the calorie goal
// count as on target; a max-min calorie spread above 1000 across at
// least three logged days triggers the consistency warning.
const (
	underTargetPct    = 80
	overTargetPct     = 120
	varianceThreshold = 1000
	varianceMinDays   = 3
)

// Insights derives the natural-language observations for a weekly
// report. The returned order is stable: logging coverage first, then
// average-vs-goal, then consistency.
func Insights(report models.WeeklyReport, goals models.GoalSet) []string {
	insights := []string{}

	totalDays := len(report.DailySummaries)
	var dailyCalories []float64
	for _, day := range report.DailySummaries {
		if len(day.PerMealType) > 0 {
			dailyCalories = append(dailyCalories, day.Totals.Calories)
		}
	}
	activeDays := len(dailyCalories)

	if activeDays < totalDays {
		insights = append(insights, fmt.Sprintf(
			"You logged meals on %d of %d days. Logging every day makes these reports more accurate.",
			activeDays, totalDays))
	}

	pct := report.Averages.Calories / goals.DailyCalories * 100
	switch {
	case pct < underTargetPct:
		insights = append(insights, fmt.Sprintf(
			"Your average of %.0f calories is %.0f%% below your %.0f calorie goal. Consider adding a snack or larger portions.",
			report.Averages.Calories, 100-pct, goals.DailyCalories))
	case pct > overTargetPct:
		insights = append(insights, fmt.Sprintf(
			"Your average of %.0f calories is %.0f%% above your %.0f calorie goal.",
			report.Averages.Calories, pct-100, goals.DailyCalories))
	default:
		insights = append(insights, fmt.Sprintf(
			"Nice work: your average of %.0f calories is on target for your %.0f calorie goal.",
			report.Averages.Calories, goals.DailyCalories))
	}

	if activeDays >= varianceMinDays {
		minCal, maxCal := dailyCalories[0], dailyCalories[0]
		for _, c := range dailyCalories[1:] {
			if c < minCal {
				minCal = c
			}
			if c > maxCal {
				maxCal = c
			}
		}
		if variance := maxCal - minCal; variance > varianceThreshold {
			insights = append(insights, fmt.Sprintf(
				"Your daily calories varied by %.0f across the week. More consistent intake can make goals easier to hit.",
				variance))
		}
	}

	return insights
}
