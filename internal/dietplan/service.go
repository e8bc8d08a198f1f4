package dietplan

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"FitAI_V1.0/internal/nutrition"
	"FitAI_V1.0/internal/observability"
)

// PlanStore persists plans under partition key (email) and sort key (creation timestamp).
type PlanStore interface {
	Put(ctx context.Context, partitionKey, sortKey string, plan DietPlan) error
	Query(ctx context.Context, partitionKey string, newestFirst bool) ([]PlanRecord, error)
}

// PlanEvent is published after a plan has been stored.
type PlanEvent struct {
	PlanID      string   `json:"planId"`
	Email       string   `json:"email"`
	GeneratedAt string   `json:"generatedAt"`
	Goal        string   `json:"goal"`
	Calories    int      `json:"calories"`
	EmptyDays   []string `json:"emptyDays"`
}

type EventPublisher interface {
	PublishPlanGenerated(ctx context.Context, ev PlanEvent) error
}

// Result is a completed generate-diet-plan request.
type Result struct {
	Plan      DietPlan
	Targets   nutrition.Targets
	CreatedAt string
}

type Service struct {
	gen    *Generator
	store  PlanStore
	events EventPublisher
	now    func() time.Time
}

// NewService wires the pipeline. events may be nil.
func NewService(gen *Generator, store PlanStore, events EventPublisher) *Service {
	return &Service{gen: gen, store: store, events: events, now: time.Now}
}

// CreatePlan validates the request, generates the plan, stores it and
// publishes an event. Only validation and persistence failures are returned.
func (s *Service) CreatePlan(ctx context.Context, req PlanRequest) (*Result, error) {
	p, err := req.Profile(true)
	if err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx).With().Str("email", p.Email).Logger()
	ctx = logger.WithContext(ctx)

	start := s.now()
	logger.Info().Msg("Initiating diet plan generation")

	// 1. Targets
	t := p.Targets()

	// 2. Plan sections
	base := s.gen.GenerateBasePlan(ctx, p, t)

	// 3. Meals, one call per day
	week, days := s.gen.GenerateWeek(ctx, p, t)
	logDaySummary(logger, days)

	// 4. Assemble
	now := s.now()
	plan := Assemble(base.Plan, week, p, t, now)
	observability.ObservePlanDuration(now.Sub(start))

	// 5. Persist
	createdAt := FormatTimestamp(now)
	if err := s.store.Put(ctx, p.Email, createdAt, plan); err != nil {
		logger.Error().Err(err).Str("plan_id", plan.ClientInfo.PlanID).Msg("Failed to save diet plan")
		return nil, &PersistenceError{Op: "put", Err: err}
	}
	observability.RecordPlanPersisted()
	logger.Info().
		Str("plan_id", plan.ClientInfo.PlanID).
		Bool("base_fallback", base.Fallback).
		Strs("empty_days", week.EmptyDays()).
		Msg("Diet plan saved")

	// 6. Announce
	s.publish(ctx, plan)

	return &Result{Plan: plan, Targets: t, CreatedAt: createdAt}, nil
}

// WeeklyPlan generates the seven days only; nothing is stored.
func (s *Service) WeeklyPlan(ctx context.Context, req PlanRequest) (WeeklyPlan, error) {
	p, err := req.Profile(false)
	if err != nil {
		return nil, err
	}
	start := s.now()
	week, days := s.gen.GenerateWeek(ctx, p, p.Targets())
	observability.ObservePlanDuration(s.now().Sub(start))
	logDaySummary(*zerolog.Ctx(ctx), days)
	return week, nil
}

// History returns every stored plan for email, newest first.
func (s *Service) History(ctx context.Context, email string) ([]PlanRecord, error) {
	records, err := s.store.Query(ctx, email, true)
	if err != nil {
		return nil, &PersistenceError{Op: "query", Err: err}
	}
	if records == nil {
		records = []PlanRecord{}
	}
	return records, nil
}

func (s *Service) publish(ctx context.Context, plan DietPlan) {
	if s.events == nil || plan.ClientInfo == nil {
		return
	}
	ev := PlanEvent{
		PlanID:      plan.ClientInfo.PlanID,
		Email:       plan.ClientInfo.Email,
		GeneratedAt: plan.ClientInfo.GeneratedAt,
		Goal:        plan.ClientInfo.Goal,
		Calories:    plan.NutritionTargets.Calories,
		EmptyDays:   plan.WeeklyPlan.EmptyDays(),
	}
	if ev.EmptyDays == nil {
		ev.EmptyDays = []string{}
	}
	err := s.events.PublishPlanGenerated(ctx, ev)
	observability.RecordEventPublished(err == nil)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("plan_id", ev.PlanID).Msg("Failed to publish plan event")
	}
}

func logDaySummary(logger zerolog.Logger, days []DayResult) {
	counts := map[string]int{}
	for _, d := range days {
		counts[FailureKind(d.Err)]++
	}
	logger.Info().
		Int("ok", counts[observability.OutcomeOK]).
		Int("generation_errors", counts[observability.OutcomeGenerationError]).
		Int("parse_failures", counts[observability.OutcomeParseFailure]).
		Msg("Weekly meal generation finished")
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
