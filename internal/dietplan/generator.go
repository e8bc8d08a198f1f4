package dietplan

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"FitAI_V1.0/internal/geminiservice"
	"FitAI_V1.0/internal/jsonrepair"
	"FitAI_V1.0/internal/nutrition"
	"FitAI_V1.0/internal/observability"
)

const rawSampleLen = 500

// TextGenerator is the external text-generation capability.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, cfg geminiservice.GenerationConfig) (string, error)
}

// BaseResult is the outcome of the plan-metadata call. Plan is always usable:
// when Err is set it holds the fallback skeleton.
type BaseResult struct {
	Plan     DietPlan
	Fallback bool
	Err      error
}

// DayResult is the outcome of one day's call. Meals is empty, never nil, when Err is set.
type DayResult struct {
	Day   string
	Meals []Meal
	Err   error
}

// baseSections is what is kept from the metadata response. weeklyPlan and
// nutritionTargets are owned by the pipeline and ignored here.
type baseSections struct {
	PersonalizedInsights Insights     `json:"personalizedInsights"`
	HydrationPlan        Section      `json:"hydrationPlan"`
	Supplementation      Section      `json:"supplementation"`
	MealPrep             Section      `json:"mealPrep"`
	ShoppingList         ShoppingList `json:"shoppingList"`
	ExerciseNutrition    Section      `json:"exerciseNutrition"`
	HealthTips           StringList   `json:"healthTips"`
	ProgressTracking     Section      `json:"progressTracking"`
}

type Generator struct {
	llm            TextGenerator
	dayConcurrency int
}

// NewGenerator returns a Generator issuing at most dayConcurrency day calls at
// once. 1 makes the week strictly sequential.
func NewGenerator(llm TextGenerator, dayConcurrency int) *Generator {
	if dayConcurrency < 1 {
		dayConcurrency = 1
	}
	return &Generator{llm: llm, dayConcurrency: dayConcurrency}
}

// GenerateBasePlan asks for every plan section except the meals.
func (g *Generator) GenerateBasePlan(ctx context.Context, p UserProfile, t nutrition.Targets) BaseResult {
	logger := zerolog.Ctx(ctx)

	raw, err := g.llm.Generate(ctx, BuildBasePrompt(p, t), geminiservice.PlanConfig)
	if err != nil {
		observability.RecordGeneration(observability.KindBase, observability.OutcomeGenerationError)
		logger.Warn().Err(err).Msg("Base plan generation failed, using fallback skeleton")
		return BaseResult{Plan: FallbackPlan(p.Goal, t), Fallback: true, Err: err}
	}

	var sections baseSections
	if err := jsonrepair.Parse(raw, jsonrepair.Object, &sections); err != nil {
		observability.RecordGeneration(observability.KindBase, observability.OutcomeParseFailure)
		logger.Warn().Err(err).Str("raw_sample", sample(raw)).Msg("Base plan response unparseable, using fallback skeleton")
		return BaseResult{Plan: FallbackPlan(p.Goal, t), Fallback: true, Err: err}
	}

	observability.RecordGeneration(observability.KindBase, observability.OutcomeOK)
	logger.Debug().Int("raw_len", len(raw)).Msg("Parsed base diet plan structure")

	return BaseResult{Plan: DietPlan{
		PersonalizedInsights: sections.PersonalizedInsights,
		NutritionTargets:     t,
		WeeklyPlan:           NewWeeklyPlan(),
		HydrationPlan:        orEmptySection(sections.HydrationPlan),
		Supplementation:      orEmptySection(sections.Supplementation),
		MealPrep:             orEmptySection(sections.MealPrep),
		ShoppingList:         sections.ShoppingList,
		ExerciseNutrition:    orEmptySection(sections.ExerciseNutrition),
		HealthTips:           sections.HealthTips,
		ProgressTracking:     orEmptySection(sections.ProgressTracking),
	}}
}

// GenerateDayMeals asks for the meals of one day. Failures leave the day empty.
func (g *Generator) GenerateDayMeals(ctx context.Context, day string, p UserProfile, t nutrition.Targets) DayResult {
	logger := zerolog.Ctx(ctx).With().Str("day", day).Logger()

	raw, err := g.llm.Generate(ctx, BuildDayPrompt(day, p, t), geminiservice.PlanConfig)
	if err != nil {
		observability.RecordGeneration(observability.KindDay, observability.OutcomeGenerationError)
		logger.Warn().Err(err).Msg("Day generation failed, leaving day empty")
		return DayResult{Day: day, Meals: []Meal{}, Err: err}
	}

	var meals []Meal
	if err := jsonrepair.Parse(raw, jsonrepair.Array, &meals); err != nil {
		observability.RecordGeneration(observability.KindDay, observability.OutcomeParseFailure)
		logger.Warn().Err(err).Str("raw_sample", sample(raw)).Msg("Day response unparseable, leaving day empty")
		return DayResult{Day: day, Meals: []Meal{}, Err: err}
	}

	if meals == nil {
		meals = []Meal{}
	}
	for i := range meals {
		meals[i].normalize()
	}

	observability.RecordGeneration(observability.KindDay, observability.OutcomeOK)
	logger.Debug().Int("meals", len(meals)).Msg("Parsed day meals")
	return DayResult{Day: day, Meals: meals}
}

// GenerateWeek runs the seven day calls and waits for all of them. Each day
// writes only its own result slot, so one failing day never affects another.
func (g *Generator) GenerateWeek(ctx context.Context, p UserProfile, t nutrition.Targets) (WeeklyPlan, []DayResult) {
	results := make([]DayResult, len(Days))

	var eg errgroup.Group
	eg.SetLimit(g.dayConcurrency)
	for i, day := range Days {
		eg.Go(func() error {
			results[i] = g.GenerateDayMeals(ctx, day, p, t)
			return nil
		})
	}
	_ = eg.Wait()

	week := NewWeeklyPlan()
	for _, r := range results {
		week[r.Day] = r.Meals
	}
	return week, results
}

// FallbackPlan is the deterministic skeleton used when the metadata call fails.
func FallbackPlan(goal string, t nutrition.Targets) DietPlan {
	return DietPlan{
		PersonalizedInsights: Insights{
			MetabolicType:      "Balanced",
			KeyRecommendations: StringList{"Focus on whole foods", "Stay hydrated", "Regular meal timing"},
			ExpectedResults:    Text(fmt.Sprintf("Based on your %s goal, expect gradual progress over 4-6 weeks", goal)),
			TimelineToResults:  "4-6 weeks",
		},
		NutritionTargets:  t,
		WeeklyPlan:        NewWeeklyPlan(),
		HydrationPlan:     Section{},
		Supplementation:   Section{},
		MealPrep:          Section{},
		ShoppingList:      ShoppingList{},
		ExerciseNutrition: Section{},
		HealthTips:        StringList{},
		ProgressTracking:  Section{},
	}
}

// FailureKind maps a contained failure to its metric outcome.
func FailureKind(err error) string {
	var pf *jsonrepair.ParseFailure
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.As(err, &pf):
		return observability.OutcomeParseFailure
	default:
		return observability.OutcomeGenerationError
	}
}

func orEmptySection(s Section) Section {
	if s == nil {
		return Section{}
	}
	return s
}

// sample cuts raw to at most rawSampleLen bytes without splitting a rune.
func sample(raw string) string {
	if len(raw) <= rawSampleLen {
		return raw
	}
	cut := rawSampleLen
	for cut > 0 && !utf8.RuneStart(raw[cut]) {
		cut--
	}
	return raw[:cut]
}
