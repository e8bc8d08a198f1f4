package dietplan

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"FitAI_V1.0/internal/nutrition"
)

// Days are the weeklyPlan keys, in week order.
var Days = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

const (
	DefaultMealCount         = 6
	DefaultCuisinePreference = "mixed"
)

// PlanRequest is the body of the generate and weekly plan routes. Numbers
// may arrive as JSON strings from form inputs; zero means missing.
type PlanRequest struct {
	Email               string     `json:"email"`
	Age                 Number     `json:"age"`
	Weight              Number     `json:"weight"`
	Height              Number     `json:"height"`
	ActivityLevel       string     `json:"activityLevel"`
	Goal                string     `json:"goal"`
	DietaryRestrictions StringList `json:"dietaryRestrictions"`
	HealthConditions    StringList `json:"healthConditions"`
	FoodPreferences     StringList `json:"foodPreferences"`
	MealCount           Number     `json:"mealCount"`
	CuisinePreference   string     `json:"cuisinePreference"`
}

// UserProfile is the validated, defaulted form of a PlanRequest.
type UserProfile struct {
	Email               string
	Age                 int
	Weight              float64
	Height              float64
	ActivityLevel       string
	Goal                string
	DietaryRestrictions []string
	HealthConditions    []string
	FoodPreferences     []string
	MealCount           int
	CuisinePreference   string
}

func (p UserProfile) Targets() nutrition.Targets {
	return nutrition.CalculateTargets(p.Age, p.Weight, p.Height, p.ActivityLevel, p.Goal)
}

// Insights is the personalizedInsights section.
type Insights struct {
	MetabolicType      Text       `json:"metabolicType"`
	KeyRecommendations StringList `json:"keyRecommendations"`
	ExpectedResults    Text       `json:"expectedResults"`
	TimelineToResults  Text       `json:"timelineToResults"`
}

// UnmarshalJSON keeps a bare string as the only key recommendation. Any other
// non-object decodes to empty insights.
func (in *Insights) UnmarshalJSON(b []byte) error {
	type plain Insights
	var p plain
	if err := json.Unmarshal(b, &p); err == nil {
		*in = Insights(p)
		return nil
	}

	*in = Insights{}
	var text string
	if err := json.Unmarshal(b, &text); err == nil && strings.TrimSpace(text) != "" {
		in.KeyRecommendations = StringList{strings.TrimSpace(text)}
	}
	return nil
}

type Macros struct {
	Calories Number `json:"calories"`
	Protein  Grams  `json:"protein"`
	Carbs    Grams  `json:"carbs"`
	Fats     Grams  `json:"fats"`
}

// UnmarshalJSON reads a bare number or numeric string ("350 kcal") as the
// calories. Any other non-object decodes to zero macros.
func (m *Macros) UnmarshalJSON(b []byte) error {
	type plain Macros
	var p plain
	if err := json.Unmarshal(b, &p); err == nil {
		*m = Macros(p)
		return nil
	}

	*m = Macros{}
	var calories Number
	if err := json.Unmarshal(b, &calories); err == nil {
		m.Calories = calories
	}
	return nil
}

type Meal struct {
	Meal                Text       `json:"meal"`
	Time                Text       `json:"time"`
	Name                Text       `json:"name"`
	Description         Text       `json:"description"`
	Ingredients         StringList `json:"ingredients"`
	Portions            Text       `json:"portions"`
	Macros              Macros     `json:"macros"`
	RecipeLink          *Text      `json:"recipeLink"`
	CookingTime         Text       `json:"cookingTime"`
	Difficulty          Difficulty `json:"difficulty"`
	NutritionalBenefits StringList `json:"nutritionalBenefits"`
	Alternatives        StringList `json:"alternatives"`
}

func (m *Meal) normalize() {
	m.Difficulty = m.Difficulty.clamp()
	if m.RecipeLink != nil && strings.TrimSpace(string(*m.RecipeLink)) == "" {
		m.RecipeLink = nil
	}
}

// WeeklyPlan maps each of Days to the meals generated for it.
type WeeklyPlan map[string][]Meal

// NewWeeklyPlan returns a plan with every day present and empty.
func NewWeeklyPlan() WeeklyPlan {
	w := make(WeeklyPlan, len(Days))
	for _, d := range Days {
		w[d] = []Meal{}
	}
	return w
}

// EmptyDays lists the days without meals, in week order.
func (w WeeklyPlan) EmptyDays() []string {
	var out []string
	for _, d := range Days {
		if len(w[d]) == 0 {
			out = append(out, d)
		}
	}
	return out
}

func (w WeeklyPlan) MarshalJSON() ([]byte, error) {
	full := make(map[string][]Meal, len(Days))
	for k, v := range w {
		full[k] = v
	}
	for _, d := range Days {
		if full[d] == nil {
			full[d] = []Meal{}
		}
	}
	return json.Marshal(full)
}

type ClientInfo struct {
	Email         string  `json:"email"`
	Age           int     `json:"age"`
	Weight        float64 `json:"weight"`
	Height        float64 `json:"height"`
	ActivityLevel string  `json:"activityLevel"`
	Goal          string  `json:"goal"`
	GeneratedAt   string  `json:"generatedAt"`
	PlanID        string  `json:"planId"`
}

// DietPlan is the aggregate returned to the caller and persisted.
type DietPlan struct {
	PersonalizedInsights Insights          `json:"personalizedInsights"`
	NutritionTargets     nutrition.Targets `json:"nutritionTargets"`
	WeeklyPlan           WeeklyPlan        `json:"weeklyPlan"`
	HydrationPlan        Section           `json:"hydrationPlan"`
	Supplementation      Section           `json:"supplementation"`
	MealPrep             Section           `json:"mealPrep"`
	ShoppingList         ShoppingList      `json:"shoppingList"`
	ExerciseNutrition    Section           `json:"exerciseNutrition"`
	HealthTips           StringList        `json:"healthTips"`
	ProgressTracking     Section           `json:"progressTracking"`
	ClientInfo           *ClientInfo       `json:"clientInfo,omitempty"`
}

// PlanRecord is one stored plan: partition key, sort key and item.
type PlanRecord struct {
	Email     string   `json:"email"`
	CreatedAt string   `json:"createdAt"`
	Plan      DietPlan `json:"plan"`
}

/*=================================================================================
							TOLERANT FIELD TYPES
	The model does not always respect the requested types. These accept the
	common deviations instead of failing the whole day.
=================================================================================*/

// Text accepts strings, numbers, booleans and arrays of those (joined with ", ").
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = Text(scalarString(v))
	return nil
}

// StringList accepts an array or a single string. It always encodes as an array.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		*l = out
	case nil:
		*l = StringList{}
	default:
		if s := strings.TrimSpace(scalarString(val)); s != "" {
			*l = StringList{s}
		} else {
			*l = StringList{}
		}
	}
	return nil
}

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Number accepts a JSON number or a numeric string with an optional unit ("350 kcal").
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*n = Number(val)
	case string:
		f, _ := leadingNumber(val)
		*n = Number(f)
	default:
		*n = 0
	}
	return nil
}

// Grams normalizes a macro amount to "<n>g". Values without a number are kept as given.
type Grams string

func (g *Grams) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*g = Grams(formatNumber(val) + "g")
	case string:
		if f, ok := leadingNumber(val); ok {
			*g = Grams(formatNumber(f) + "g")
		} else {
			*g = Grams(strings.TrimSpace(val))
		}
	default:
		*g = ""
	}
	return nil
}

// Difficulty is a 1 to 5 rating. Words such as "easy" or "hard" are mapped onto the scale.
type Difficulty int

var difficultyWords = map[string]Difficulty{
	"very easy": 1, "easy": 1, "beginner": 1,
	"medium": 3, "moderate": 3, "intermediate": 3,
	"hard": 5, "difficult": 5, "advanced": 5,
}

func (d *Difficulty) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*d = Difficulty(math.Round(val))
	case string:
		if f, ok := leadingNumber(val); ok {
			*d = Difficulty(math.Round(f))
		} else {
			*d = difficultyWords[strings.ToLower(strings.TrimSpace(val))]
		}
	default:
		*d = 0
	}
	*d = d.clamp()
	return nil
}

func (d Difficulty) clamp() Difficulty {
	switch {
	case d < 1:
		return 1
	case d > 5:
		return 5
	}
	return d
}

// Section is a free-form object produced by the model. Anything that is not
// an object decodes to an empty section.
type Section map[string]any

func (s *Section) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		*s = Section{}
		return nil
	}
	*s = m
	return nil
}

func (s Section) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(s))
}

// ShoppingList maps a category to its items.
type ShoppingList map[string]StringList

func (s *ShoppingList) UnmarshalJSON(b []byte) error {
	var m map[string]StringList
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		*s = ShoppingList{}
		return nil
	}
	*s = m
	return nil
}

func (s ShoppingList) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]StringList(s))
}

func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return formatNumber(val)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := scalarString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// leadingNumber parses the number at the start of s, ignoring a unit suffix.
func leadingNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.' || (end == 0 && s[end] == '-')) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
