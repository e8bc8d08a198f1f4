package dietplan

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"FitAI_V1.0/internal/nutrition"
)

// TimestampLayout matches the millisecond UTC timestamps used as sort keys,
// so string order is chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const planIDSuffixLen = 9

// Assemble merges the skeleton, the generated week and the client snapshot
// into the final plan.
func Assemble(skeleton DietPlan, week WeeklyPlan, p UserProfile, t nutrition.Targets, now time.Time) DietPlan {
	plan := skeleton
	plan.NutritionTargets = t

	plan.WeeklyPlan = NewWeeklyPlan()
	for _, d := range Days {
		if meals := week[d]; meals != nil {
			plan.WeeklyPlan[d] = meals
		}
	}

	plan.ClientInfo = &ClientInfo{
		Email:         p.Email,
		Age:           p.Age,
		Weight:        p.Weight,
		Height:        p.Height,
		ActivityLevel: p.ActivityLevel,
		Goal:          p.Goal,
		GeneratedAt:   FormatTimestamp(now),
		PlanID:        NewPlanID(now),
	}
	return plan
}

// NewPlanID returns diet_<unix ms>_<9 base36 chars>.
func NewPlanID(now time.Time) string {
	return fmt.Sprintf("diet_%d_%s", now.UnixMilli(), randomSuffix())
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func randomSuffix() string {
	id := uuid.New()
	s := strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 36)
	if len(s) < planIDSuffixLen {
		s = strings.Repeat("0", planIDSuffixLen-len(s)) + s
	}
	return s[:planIDSuffixLen]
}
