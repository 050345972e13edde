// internal/models/goals.go
package models

import "time"

// GoalSet is a user's daily nutrition targets. DailyCalories is always
// positive; the macro targets are optional and nil means "no target
// configured", which is different from a zero target. A nil macro must
// never reach the progress calculator.
type GoalSet struct {
	OwnerID       string    `json:"owner_id"`
	DailyCalories float64   `json:"daily_calories"`
	Protein       *float64  `json:"protein,omitempty"`
	Carbs         *float64  `json:"carbs,omitempty"`
	Fat           *float64  `json:"fat,omitempty"`
	Fiber         *float64  `json:"fiber,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// DefaultGoals returns the system default goal set used when a user has
// not configured their own. Callers substitute this before invoking the
// summary builders; the builders themselves never fall back implicitly.
func DefaultGoals(ownerID string) GoalSet {
	return GoalSet{
		OwnerID:       ownerID,
		DailyCalories: 2000,
		Protein:       Float(50),
		Carbs:         Float(250),
		Fat:           Float(65),
		Fiber:         Float(25),
	}
}
