// internal/nutrition/aggregate.go
package nutrition

import (
	"mcp-nutrition-tracker/internal/models"
)

// MealTotals computes a meal's totals from its foods. Callers must
// reassign the result to Meal.Totals after any change to the food list.
func MealTotals(foods []models.FoodEntry) models.NutrientVector {
	vectors := make([]models.NutrientVector, 0, len(foods))
	for _, f := range foods {
		vectors = append(vectors, f.Nutrition)
	}
	return Sum(vectors, true)
}

// AggregateMeals flattens the foods of every given meal and sums them.
// No date or meal-type filtering happens here; callers pre-filter the
// input to the day or range they care about.
func AggregateMeals(meals []models.Meal) models.NutrientVector {
	var vectors []models.NutrientVector
	for _, m := range meals {
		for _, f := range m.Foods {
			vectors = append(vectors, f.Nutrition)
		}
	}
	return Sum(vectors, true)
}
