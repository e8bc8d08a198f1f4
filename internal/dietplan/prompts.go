package dietplan

import (
	"fmt"
	"strings"

	"FitAI_V1.0/internal/nutrition"
)

/* =================================================================================
							PLAN METADATA PROMPT
	Asks for every section except the meals; weeklyPlan is filled day by day.
=================================================================================*/

const basePromptTemplate = `You are Dr. Sarah Chen, a world-renowned nutritionist and sports scientist with 15+ years of experience. You specialize in creating personalized, science-based nutrition plans that deliver real results.

CLIENT PROFILE:
%s
CALCULATED NUTRITION TARGETS:
- BMR: %d kcal
- TDEE: %d kcal
- Target Calories: %d kcal
- Protein: %dg
- Carbohydrates: %dg
- Fats: %dg

TASK: Create an advanced, personalized nutrition plan structure.
Do NOT include the detailed daily meal plans in this response; provide an empty object for "weeklyPlan".
Focus on providing accurate and comprehensive information for all other sections.

FORMAT (Return strictly valid JSON):

{
  "personalizedInsights": {
    "metabolicType": "string",
    "keyRecommendations": ["string"],
    "expectedResults": "string",
    "timelineToResults": "string"
  },
  "nutritionTargets": {
    "calories": %d,
    "protein": "%dg",
    "carbs": "%dg",
    "fats": "%dg",
    "fiber": "string",
    "sugar": "string"
  },
  "weeklyPlan": {},
  "hydrationPlan": {
    "dailyWaterIntake": "string",
    "timing": ["morning: amount", "afternoon: amount"],
    "additionalFluids": ["green tea", "coconut water"]
  },
  "supplementation": {
    "recommended": ["supplement 1", "supplement 2"],
    "timing": "when to take",
    "benefits": "why needed"
  },
  "mealPrep": {
    "sunday": ["prep task 1", "prep task 2"],
    "wednesday": ["mid-week prep tasks"]
  },
  "shoppingList": {
    "proteins": ["item: quantity"],
    "vegetables": ["item: quantity"],
    "fruits": ["item: quantity"],
    "grains": ["item: quantity"],
    "dairy": ["item: quantity"],
    "others": ["item: quantity"]
  },
  "exerciseNutrition": {
    "preWorkout": {"meal": "what to eat", "timing": "when to eat", "benefits": "why"},
    "postWorkout": {"meal": "what to eat", "timing": "when to eat", "benefits": "why"}
  },
  "healthTips": [
    "Advanced tip 1 with scientific backing",
    "Advanced tip 2 with practical application",
    "Advanced tip 3 with long-term benefits"
  ],
  "progressTracking": {
    "dailyChecks": ["energy levels", "hunger patterns"],
    "weeklyMeasurements": ["weight", "body fat %%"],
    "monthlyGoals": ["specific targets"]
  }
}

CRITICAL REQUIREMENTS:
- Ensure all macros add up correctly based on targets.
- Return ONLY valid JSON (no markdown, no explanations outside of the JSON).
`

/* =================================================================================
								DAY MEALS PROMPT
=================================================================================*/

const dayPromptTemplate = `You are a certified nutritionist. Create a personalized meal plan for ONE DAY (%s) based on:
- Age: %d, Weight: %s kg, Height: %s cm
- Activity Level: %s
- Goal: %s
- Dietary Restrictions: %s
- Health Conditions: %s
- Food Preferences: %s
- Cuisine Preference: %s
- Meals per day: %d
- Target Calories for this day: %d kcal (distribute across meals)
- Target Protein: %dg
- Target Carbs: %dg
- Target Fats: %dg

For each meal, include the following fields:
- "meal" (e.g., "Breakfast", "Snack 1", "Lunch", "Snack 2", "Dinner", "Snack 3")
- "time" (e.g., "8:00 AM")
- "name" (meal name, e.g., "Oats with Fruits")
- "description" (detailed description with cooking method)
- "ingredients" (JSON array of main ingredients)
- "portions" (e.g., "1 cup cooked oats, 1/2 cup berries")
- "macros" (JSON object with "calories", "protein", "carbs", "fats" for THIS specific meal. IMPORTANT: Ensure protein, carbs, fats values are strings, e.g., "15g")
- "recipeLink" (REAL, working YouTube recipe link from popular cooking channels, or null if none)
- "cookingTime" (e.g., "15 minutes")
- "difficulty" (integer from 1-5 scale, 1=easy, 5=hard)
- "nutritionalBenefits" (JSON array of benefits)
- "alternatives" (JSON array of alternative meal suggestions)

Focus on whole foods, minimal processing, and adherence to the user's preferences.
Return ONLY a valid JSON array with exactly %d meals for %s. No markdown, no explanations.
Example structure (macro values like "15g" are strings):
[
  {
    "meal": "Breakfast",
    "time": "8:00 AM",
    "name": "Oats with Fruits",
    "description": "Cook oats and top with banana and chia seeds.",
    "ingredients": ["Oats", "Banana", "Chia seeds"],
    "portions": "1 cup cooked oats, 1 medium banana, 1 tbsp chia seeds",
    "macros": {
      "calories": 350,
      "protein": "15g",
      "carbs": "50g",
      "fats": "8g"
    },
    "recipeLink": "https://www.youtube.com/watch?v=example-oats-recipe",
    "cookingTime": "10 minutes",
    "difficulty": 2,
    "nutritionalBenefits": ["Rich in fiber", "High in antioxidants"],
    "alternatives": ["Poha", "Upma"]
  }
]
`

// BuildBasePrompt renders the plan-metadata prompt.
func BuildBasePrompt(p UserProfile, t nutrition.Targets) string {
	return fmt.Sprintf(basePromptTemplate,
		profileBlock(p),
		t.BMR, t.TDEE, t.Calories, t.Protein, t.Carbs, t.Fats,
		t.Calories, t.Protein, t.Carbs, t.Fats,
	)
}

// BuildDayPrompt renders the meal prompt for one day.
func BuildDayPrompt(day string, p UserProfile, t nutrition.Targets) string {
	return fmt.Sprintf(dayPromptTemplate,
		day,
		p.Age, formatNumber(p.Weight), formatNumber(p.Height),
		p.ActivityLevel,
		p.Goal,
		joinOrNone(p.DietaryRestrictions),
		joinOrNone(p.HealthConditions),
		joinOrNone(p.FoodPreferences),
		p.CuisinePreference,
		p.MealCount,
		t.Calories, t.Protein, t.Carbs, t.Fats,
		p.MealCount, day,
	)
}

func profileBlock(p UserProfile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- Age: %d years\n", p.Age)
	fmt.Fprintf(&sb, "- Weight: %s kg\n", formatNumber(p.Weight))
	fmt.Fprintf(&sb, "- Height: %s cm\n", formatNumber(p.Height))
	fmt.Fprintf(&sb, "- Activity Level: %s\n", p.ActivityLevel)
	fmt.Fprintf(&sb, "- Primary Goal: %s\n", p.Goal)
	fmt.Fprintf(&sb, "- Dietary Restrictions: %s\n", joinOrNone(p.DietaryRestrictions))
	fmt.Fprintf(&sb, "- Health Conditions: %s\n", joinOrNone(p.HealthConditions))
	fmt.Fprintf(&sb, "- Food Preferences: %s\n", joinOrNone(p.FoodPreferences))
	fmt.Fprintf(&sb, "- Preferred Cuisine: %s\n", p.CuisinePreference)
	fmt.Fprintf(&sb, "- Meal Frequency: %d meals/day\n", p.MealCount)
	return sb.String()
}
