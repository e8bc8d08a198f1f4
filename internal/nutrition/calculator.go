// Package nutrition computes energy and macronutrient targets from biometric inputs.
package nutrition

import (
	"math"
	"strings"
)

// Goal values understood by CalculateTargets. Anything else is treated as maintenance.
const (
	GoalFatLoss     = "fat loss"
	GoalMuscleGain  = "muscle gain"
	GoalMaintenance = "maintenance"
)

// DefaultActivityMultiplier is used when the activity level is missing or unknown (moderate).
const DefaultActivityMultiplier = 1.55

// activityMultipliers maps activity level strings to their TDEE multiplier.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// Targets holds the daily energy and macro targets for a user.
// All values are whole kcal or whole grams.
type Targets struct {
	BMR      int `json:"bmr"`
	TDEE     int `json:"tdee"`
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fats     int `json:"fats"`
}

// ActivityMultiplier returns the TDEE multiplier for the given level.
func ActivityMultiplier(activityLevel string) float64 {
	if m, ok := activityMultipliers[strings.ToLower(strings.TrimSpace(activityLevel))]; ok {
		return m
	}
	return DefaultActivityMultiplier
}

// IsKnownActivityLevel reports whether the level has its own multiplier.
func IsKnownActivityLevel(activityLevel string) bool {
	_, ok := activityMultipliers[strings.ToLower(strings.TrimSpace(activityLevel))]
	return ok
}

// CalculateTargets derives BMR, TDEE, goal-adjusted calories and macros.
//
// BMR uses the sex-agnostic Mifflin-St Jeor variant 10w + 6.25h - 5a + 5.
// BMR is rounded first and every later value is derived from the rounded
// figure above it, so tdee == round(bmr * multiplier) always holds for the
// returned integers. Inputs are not validated here.
func CalculateTargets(age int, weight, height float64, activityLevel, goal string) Targets {
	bmr := int(math.Round(10*weight + 6.25*height - 5*float64(age) + 5))
	tdee := int(math.Round(float64(bmr) * ActivityMultiplier(activityLevel)))

	calories := tdee
	switch strings.ToLower(strings.TrimSpace(goal)) {
	case GoalFatLoss:
		calories = tdee - 500
	case GoalMuscleGain:
		calories = tdee + 300
	}

	return Targets{
		BMR:      bmr,
		TDEE:     tdee,
		Calories: calories,
		Protein:  int(math.Round(weight * 2.2)),
		Carbs:    int(math.Round(float64(calories) * 0.45 / 4)),
		Fats:     int(math.Round(float64(calories) * 0.25 / 9)),
	}
}
