package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"FitAI_V1.0/internal/config"
	"FitAI_V1.0/internal/dietplan"
	"FitAI_V1.0/internal/geminiservice"
	"FitAI_V1.0/internal/storage"
)

var errUpstream = errors.New("upstream unavailable")

const baseResponse = "```json\n" + `{
  "personalizedInsights": {"metabolicType": "Mesomorph", "keyRecommendations": ["Eat protein"], "expectedResults": "Leaner", "timelineToResults": "8 weeks"},
  "weeklyPlan": {},
  "hydrationPlan": {"dailyWaterIntake": "3L"},
  "healthTips": ["Sleep 8 hours"]
}` + "\n```"

const dayResponse = `[{"meal": "Breakfast", "time": "8:00 AM", "name": "Oats", "macros": {"calories": 350, "protein": "15g", "carbs": "50g", "fats": "8g"}, "difficulty": 2}]`

type fakeLLM struct {
	mu      sync.Mutex
	calls   int
	respond func(prompt string) (string, error)
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ geminiservice.GenerationConfig) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(prompt)
	}
	if strings.Contains(prompt, "ONE DAY (") {
		return dayResponse, nil
	}
	return baseResponse, nil
}

// memoryDB is an in-memory database.Service.
type memoryDB struct {
	mu      sync.Mutex
	records []dietplan.PlanRecord
	putErr  error
	down    bool
}

func (m *memoryDB) Put(_ context.Context, email, createdAt string, plan dietplan.DietPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.records = append(m.records, dietplan.PlanRecord{Email: email, CreatedAt: createdAt, Plan: plan})
	return nil
}

func (m *memoryDB) Query(_ context.Context, email string, newestFirst bool) ([]dietplan.PlanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []dietplan.PlanRecord
	for _, r := range m.records {
		if r.Email == email {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out, nil
}

func (m *memoryDB) Health(context.Context) map[string]string {
	if m.down {
		return map[string]string{"backend": "memory", "status": "down"}
	}
	return map[string]string{"backend": "memory", "status": "up"}
}

func (m *memoryDB) Close() {}

type fakePhotos struct {
	uploads []storage.Upload
	body    string
	err     error
	profile storage.Profile
	lookups []string
}

func (f *fakePhotos) Upload(_ context.Context, up storage.Upload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(up.Body)
	if err != nil {
		return "", err
	}
	f.body = string(b)
	f.uploads = append(f.uploads, up)
	return "https://bucket.s3.amazonaws.com/profile-images/abc.png", nil
}

func (f *fakePhotos) Lookup(_ context.Context, email string) (storage.Profile, error) {
	f.lookups = append(f.lookups, email)
	return f.profile, f.err
}

type fakeChat struct {
	mu        sync.Mutex
	err       error
	histories [][]geminiservice.Turn
}

func (f *fakeChat) Chat(_ context.Context, history []geminiservice.Turn, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histories = append(f.histories, append([]geminiservice.Turn(nil), history...))
	if f.err != nil {
		return "", f.err
	}
	return "Reply to: " + message, nil
}

type harness struct {
	llm    *fakeLLM
	db     *memoryDB
	photos *fakePhotos
	chat   *fakeChat
	srv    *Server
	h      http.Handler
}

func testConfig() config.Config {
	return config.Config{
		Port:              5001,
		GeminiCallTimeout: time.Second,
		RateLimitRPS:      100,
		CORSOrigins:       []string{"http://localhost:3000"},
	}
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	hs := &harness{llm: &fakeLLM{}, db: &memoryDB{}, photos: &fakePhotos{}, chat: &fakeChat{}}
	plans := dietplan.NewService(dietplan.NewGenerator(hs.llm, 7), hs.db, nil)
	hs.srv = New(cfg, Deps{DB: hs.db, Plans: plans, Photos: hs.photos, Chat: hs.chat})
	hs.h = hs.srv.RegisterRoutes()
	return hs
}

func (hs *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	hs.h.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
