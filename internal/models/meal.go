// internal/models/meal.go
package models

import (
	"time"
)

// NutrientVector is an immutable quantity of calories and macronutrients.
// Calories, protein, carbs and fat are always present; fiber, sugar and
// sodium are optional and nil when the source data did not provide them.
// Nil is "not recorded", which is different from an explicit zero.
type NutrientVector struct {
	Calories float64  `json:"calories"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
	Fiber    *float64 `json:"fiber,omitempty"`
	Sugar    *float64 `json:"sugar,omitempty"`
	Sodium   *float64 `json:"sodium,omitempty"`
}

// Float returns a pointer to v, for populating optional nutrient fields.
func Float(v float64) *float64 {
	return &v
}

type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// ValidMealType reports whether s is one of the four known meal types.
func ValidMealType(s string) bool {
	switch MealType(s) {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

// FoodEntry is one food within a meal. Nutrition already reflects the
// servings actually consumed; it is scaled once at logging time and never
// re-derived from a per-serving baseline.
type FoodEntry struct {
	ExternalFoodID  string         `json:"external_food_id,omitempty"`
	Description     string         `json:"description"`
	Servings        float64        `json:"servings"`
	ServingSize     float64        `json:"serving_size,omitempty"`
	ServingSizeUnit string         `json:"serving_size_unit,omitempty"`
	Nutrition       NutrientVector `json:"nutrition"`
}

// Meal is one logged eating occasion. Totals must always equal the
// rounded sum of the food nutrition vectors; anything that mutates Foods
// has to recompute Totals before persisting.
type Meal struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"owner_id"`
	Date      Date           `json:"date"`
	MealType  MealType       `json:"meal_type"`
	Foods     []FoodEntry    `json:"foods"`
	Totals    NutrientVector `json:"totals"`
	Notes     string         `json:"notes,omitempty"`
	Source    string         `json:"source"` // "manual", "quick_add"
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
