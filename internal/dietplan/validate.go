package dietplan

import (
	"math"
	"strings"

	emailverifier "github.com/AfterShip/email-verifier"

	"FitAI_V1.0/internal/nutrition"
)

// Only syntax is checked; no MX or SMTP lookups are made.
var verifier = emailverifier.NewVerifier()

// ValidEmail reports whether s is a syntactically valid address.
func ValidEmail(s string) bool {
	return verifier.ParseAddress(strings.TrimSpace(s)).Valid
}

// Profile validates the request and applies defaults. Email is only required
// when requireEmail is set, since the weekly-only route has no owner.
func (r PlanRequest) Profile(requireEmail bool) (UserProfile, error) {
	verr := &ValidationError{}

	email := strings.TrimSpace(r.Email)
	switch {
	case requireEmail && email == "":
		verr.Missing = append(verr.Missing, "email")
	case email != "" && !ValidEmail(email):
		verr.Invalid = append(verr.Invalid, "email")
	}

	checkPositive := func(name string, v Number) {
		switch {
		case v == 0:
			verr.Missing = append(verr.Missing, name)
		case v < 0 || math.IsNaN(float64(v)) || math.IsInf(float64(v), 0):
			verr.Invalid = append(verr.Invalid, name)
		}
	}
	checkPositive("age", r.Age)
	checkPositive("weight", r.Weight)
	checkPositive("height", r.Height)

	if strings.TrimSpace(r.ActivityLevel) == "" {
		verr.Missing = append(verr.Missing, "activityLevel")
	}
	if strings.TrimSpace(r.Goal) == "" {
		verr.Missing = append(verr.Missing, "goal")
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return UserProfile{}, verr
	}

	p := UserProfile{
		Email:               email,
		Age:                 int(math.Round(float64(r.Age))),
		Weight:              float64(r.Weight),
		Height:              float64(r.Height),
		ActivityLevel:       strings.TrimSpace(r.ActivityLevel),
		Goal:                strings.TrimSpace(r.Goal),
		DietaryRestrictions: nonEmpty(r.DietaryRestrictions),
		HealthConditions:    nonEmpty(r.HealthConditions),
		FoodPreferences:     nonEmpty(r.FoodPreferences),
		MealCount:           int(math.Round(float64(r.MealCount))),
		CuisinePreference:   strings.TrimSpace(r.CuisinePreference),
	}
	if p.MealCount <= 0 {
		p.MealCount = DefaultMealCount
	}
	if p.CuisinePreference == "" {
		p.CuisinePreference = DefaultCuisinePreference
	}
	return p, nil
}

// AnalysisRequest is the body of the nutrition analysis route.
type AnalysisRequest struct {
	Age           Number `json:"age"`
	Weight        Number `json:"weight"`
	Height        Number `json:"height"`
	ActivityLevel string `json:"activityLevel"`
	Goal          string `json:"goal"`
}

func (r AnalysisRequest) Analyze() (nutrition.Analysis, error) {
	p, err := PlanRequest{
		Age:           r.Age,
		Weight:        r.Weight,
		Height:        r.Height,
		ActivityLevel: r.ActivityLevel,
		Goal:          r.Goal,
	}.Profile(false)
	if err != nil {
		return nutrition.Analysis{}, err
	}
	return nutrition.Analyze(p.Age, p.Weight, p.Height, p.ActivityLevel, p.Goal), nil
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
