package dietplan

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestService(llm *fakeLLM, store *fakeStore, pub *fakePublisher) *Service {
	svc := NewService(NewGenerator(llm, 7), store, pub)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 123_000_000, time.UTC) }
	return svc
}

func TestCreatePlanWednesdayFailure(t *testing.T) {
	llm := &fakeLLM{respond: func(prompt string) (string, error) {
		switch dayOf(prompt) {
		case "":
			return baseResponse, nil
		case "wednesday":
			return "", errUpstream
		default:
			return dayResponse, nil
		}
	}}
	store := &fakeStore{}
	pub := &fakePublisher{}

	res, err := newTestService(llm, store, pub).CreatePlan(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, 8, llm.calls())

	plan := res.Plan
	require.Empty(t, plan.WeeklyPlan["wednesday"])
	for _, d := range Days {
		if d != "wednesday" {
			require.Len(t, plan.WeeklyPlan[d], 1, d)
		}
	}

	b, err := json.Marshal(plan)
	require.NoError(t, err)
	require.Contains(t, string(b), `"wednesday":[]`)

	require.Len(t, store.puts, 1)
	require.Equal(t, "jane@example.com", store.puts[0].Email)
	require.Equal(t, "2025-03-01T09:30:00.123Z", store.puts[0].CreatedAt)
	require.Equal(t, res.CreatedAt, store.puts[0].CreatedAt)

	require.NotNil(t, plan.ClientInfo)
	require.Regexp(t, regexp.MustCompile(`^diet_1740821400123_[0-9a-z]{9}$`), plan.ClientInfo.PlanID)
	require.Equal(t, "2025-03-01T09:30:00.123Z", plan.ClientInfo.GeneratedAt)
	require.Equal(t, 30, plan.ClientInfo.Age)

	require.Len(t, pub.events, 1)
	require.Equal(t, []string{"wednesday"}, pub.events[0].EmptyDays)
	require.Equal(t, res.Targets.Calories, pub.events[0].Calories)
}

func TestCreatePlanMissingAgeMakesNoCalls(t *testing.T) {
	llm := &fakeLLM{respond: func(string) (string, error) { return baseResponse, nil }}
	store := &fakeStore{}

	req := validRequest()
	req.Age = 0

	_, err := newTestService(llm, store, nil).CreatePlan(context.Background(), req)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []string{"age"}, verr.Missing)
	require.True(t, IsValidation(err))
	require.Zero(t, llm.calls())
	require.Empty(t, store.puts)
}

func TestCreatePlanPersistenceFailure(t *testing.T) {
	llm := &fakeLLM{respond: func(prompt string) (string, error) {
		if dayOf(prompt) == "" {
			return baseResponse, nil
		}
		return dayResponse, nil
	}}
	storeErr := errors.New("table not found")
	pub := &fakePublisher{}

	_, err := newTestService(llm, &fakeStore{putErr: storeErr}, pub).CreatePlan(context.Background(), validRequest())

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	require.ErrorIs(t, err, storeErr)
	require.False(t, IsValidation(err))
	require.Empty(t, pub.events, "nothing is announced for an unsaved plan")
}

func TestCreatePlanSurvivesTotalGenerationOutage(t *testing.T) {
	llm := &fakeLLM{respond: func(string) (string, error) { return "", errUpstream }}
	store := &fakeStore{}

	res, err := newTestService(llm, store, nil).CreatePlan(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, "Balanced", string(res.Plan.PersonalizedInsights.MetabolicType))
	require.Equal(t, Days, res.Plan.WeeklyPlan.EmptyDays())
	require.Len(t, store.puts, 1)
}

func TestCreatePlanPublishFailureIsIgnored(t *testing.T) {
	llm := &fakeLLM{respond: func(string) (string, error) { return "", errUpstream }}
	pub := &fakePublisher{err: errors.New("broker down")}

	_, err := newTestService(llm, &fakeStore{}, pub).CreatePlan(context.Background(), validRequest())
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
}

func TestWeeklyPlanDoesNotRequireEmailOrStore(t *testing.T) {
	llm := &fakeLLM{respond: func(string) (string, error) { return dayResponse, nil }}
	store := &fakeStore{}

	req := validRequest()
	req.Email = ""

	week, err := newTestService(llm, store, nil).WeeklyPlan(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, week, 7)
	require.Equal(t, 7, llm.calls())
	require.Empty(t, store.puts)
}

func TestHistory(t *testing.T) {
	store := &fakeStore{records: []PlanRecord{
		{Email: "a@example.com", CreatedAt: "2025-03-02T00:00:00.000Z"},
		{Email: "b@example.com", CreatedAt: "2025-03-01T00:00:00.000Z"},
	}}
	svc := newTestService(&fakeLLM{}, store, nil)

	got, err := svc.History(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.History(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)

	store.queryErr = errors.New("throttled")
	_, err = svc.History(context.Background(), "a@example.com")
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
}
