package dietplan

import (
	"context"
	"errors"
	"strings"
	"sync"

	"FitAI_V1.0/internal/geminiservice"
)

type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ geminiservice.GenerationConfig) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(prompt)
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// dayOf returns the day a day prompt is for, or "" for the base prompt.
func dayOf(prompt string) string {
	for _, d := range Days {
		if strings.Contains(prompt, "ONE DAY ("+d+")") {
			return d
		}
	}
	return ""
}

type fakeStore struct {
	mu       sync.Mutex
	puts     []PlanRecord
	putErr   error
	records  []PlanRecord
	queryErr error
}

func (s *fakeStore) Put(_ context.Context, pk, sk string, plan DietPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.puts = append(s.puts, PlanRecord{Email: pk, CreatedAt: sk, Plan: plan})
	return nil
}

func (s *fakeStore) Query(_ context.Context, pk string, _ bool) ([]PlanRecord, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var out []PlanRecord
	for _, r := range s.records {
		if r.Email == pk {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePublisher struct {
	events []PlanEvent
	err    error
}

func (p *fakePublisher) PublishPlanGenerated(_ context.Context, ev PlanEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

var errUpstream = errors.New("upstream unavailable")

const baseResponse = "Here is the plan:\n```json\n" + `{
  "personalizedInsights": {"metabolicType": "Fast", "keyRecommendations": ["Eat protein"], "expectedResults": "Lose 2kg", "timelineToResults": "6 weeks"},
  "nutritionTargets": {"calories": 2000, "protein": "150g"},
  "weeklyPlan": "filled later",
  "hydrationPlan": {"dailyWaterIntake": "3L"},
  "shoppingList": {"proteins": ["Chicken: 1kg"], "fruits": "Bananas"},
  "healthTips": ["Sleep well"],
}` + "\n```"

const dayResponse = "```json\n" + `[
  {
    "meal": "Breakfast",
    "time": "8:00 AM",
    "name": "Oats",
    "ingredients": "Oats",
    "macros": {"calories": 350, "protein": 15, "carbs": "50 g", "fats": 8g},
    "recipeLink": "",
    "difficulty": 9,
  }
]` + "\n```"

func validRequest() PlanRequest {
	return PlanRequest{
		Email:         "jane@example.com",
		Age:           30,
		Weight:        70,
		Height:        175,
		ActivityLevel: "moderate",
		Goal:          "fat loss",
	}
}
