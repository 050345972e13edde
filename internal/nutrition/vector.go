// internal/nutrition/vector.go

// Package nutrition is the aggregation and reporting core: nutrient
// vector arithmetic, per-day summaries, multi-day reports and derived
// insights. Every function here is pure and synchronous; callers fetch
// meal and goal records first, then pass them in as values.
package nutrition

import (
	"math"

	"mcp-nutrition-tracker/internal/models"
)

// roundWhole rounds calories and sodium to the nearest integer.
func roundWhole(v float64) float64 {
	return math.Round(v)
}

// roundTenth rounds gram-denominated fields to one decimal place.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// Sum adds vectors element-wise and applies the standard rounding at the
// result. Absent optional fields count as zero inside the addition.
//
// fillZero controls what happens to an optional field no input carried:
// true populates it with an explicit 0, false leaves it absent. The
// aggregation pipeline passes true, so summed totals always expose
// fiber/sugar/sodium even when every input omitted them. Scale
// deliberately does not share this behavior; the flag exists so the
// asymmetry stays visible instead of being baked in.
func Sum(vectors []models.NutrientVector, fillZero bool) models.NutrientVector {
	// An empty sum is the plain zero vector; zero-filling applies only
	// when there was at least one input to sum over.
	if len(vectors) == 0 {
		return models.NutrientVector{}
	}

	var calories, protein, carbs, fat float64
	var fiber, sugar, sodium float64
	var hasFiber, hasSugar, hasSodium bool

	for _, v := range vectors {
		calories += v.Calories
		protein += v.Protein
		carbs += v.Carbs
		fat += v.Fat
		if v.Fiber != nil {
			fiber += *v.Fiber
			hasFiber = true
		}
		if v.Sugar != nil {
			sugar += *v.Sugar
			hasSugar = true
		}
		if v.Sodium != nil {
			sodium += *v.Sodium
			hasSodium = true
		}
	}

	out := models.NutrientVector{
		Calories: roundWhole(calories),
		Protein:  roundTenth(protein),
		Carbs:    roundTenth(carbs),
		Fat:      roundTenth(fat),
	}
	if hasFiber || fillZero {
		out.Fiber = models.Float(roundTenth(fiber))
	}
	if hasSugar || fillZero {
		out.Sugar = models.Float(roundTenth(sugar))
	}
	if hasSodium || fillZero {
		out.Sodium = models.Float(roundWhole(sodium))
	}
	return out
}

// Scale multiplies every present field by factor and applies the
// standard rounding. Factor must be positive. Optional fields absent in
// the input stay absent in the output; scaling never invents data.
func Scale(v models.NutrientVector, factor float64) models.NutrientVector {
	out := models.NutrientVector{
		Calories: roundWhole(v.Calories * factor),
		Protein:  roundTenth(v.Protein * factor),
		Carbs:    roundTenth(v.Carbs * factor),
		Fat:      roundTenth(v.Fat * factor),
	}
	if v.Fiber != nil {
		out.Fiber = models.Float(roundTenth(*v.Fiber * factor))
	}
	if v.Sugar != nil {
		out.Sugar = models.Float(roundTenth(*v.Sugar * factor))
	}
	if v.Sodium != nil {
		out.Sodium = models.Float(roundWhole(*v.Sodium * factor))
	}
	return out
}
