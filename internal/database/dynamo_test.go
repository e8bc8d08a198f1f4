package database

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"FitAI_V1.0/internal/dietplan"
	"FitAI_V1.0/internal/nutrition"
)

func samplePlan(t *testing.T, calories int) dietplan.DietPlan {
	t.Helper()
	plan := dietplan.FallbackPlan("maintenance", nutrition.Targets{Calories: calories, Protein: 150})
	link := dietplan.Text("https://www.youtube.com/watch?v=oats")
	plan.WeeklyPlan["monday"] = []dietplan.Meal{{
		Meal:        "Breakfast",
		Name:        "Oats",
		Ingredients: dietplan.StringList{"Oats", "Banana"},
		Macros:      dietplan.Macros{Calories: 350, Protein: "15g"},
		RecipeLink:  &link,
		Difficulty:  2,
	}}
	plan.HydrationPlan = dietplan.Section{"dailyWaterIntake": "3L"}
	plan.ClientInfo = &dietplan.ClientInfo{Email: "jane@example.com", PlanID: "diet_1_abcdefghi"}
	return plan
}

func TestDynamoPutUsesJSONAttributeNames(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewDynamoPlanStore(fake, "DietPlans")

	require.NoError(t, store.Put(context.Background(), "jane@example.com", "2025-03-01T09:30:00.123Z", samplePlan(t, 2000)))
	require.Len(t, fake.puts, 1)

	in := fake.puts[0]
	require.Equal(t, "DietPlans", *in.TableName)
	require.Equal(t, &types.AttributeValueMemberS{Value: "jane@example.com"}, in.Item["email"])
	require.Equal(t, &types.AttributeValueMemberS{Value: "2025-03-01T09:30:00.123Z"}, in.Item["createdAt"])

	plan, ok := in.Item["plan"].(*types.AttributeValueMemberM)
	require.True(t, ok)
	require.Contains(t, plan.Value, "weeklyPlan")
	require.Contains(t, plan.Value, "nutritionTargets")
	require.Contains(t, plan.Value, "clientInfo")
}

func TestDynamoQueryPaginatesAndDecodes(t *testing.T) {
	writer := &fakeDynamo{}
	store := NewDynamoPlanStore(writer, "DietPlans")
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "jane@example.com", "2025-03-02T00:00:00.000Z", samplePlan(t, 1800)))
	require.NoError(t, store.Put(ctx, "jane@example.com", "2025-03-01T00:00:00.000Z", samplePlan(t, 2000)))

	reader := &fakeDynamo{pages: [][]map[string]types.AttributeValue{
		{writer.puts[0].Item},
		{writer.puts[1].Item},
	}}
	got, err := NewDynamoPlanStore(reader, "DietPlans").Query(ctx, "jane@example.com", true)
	require.NoError(t, err)

	require.Len(t, reader.queries, 2)
	require.False(t, *reader.queries[0].ScanIndexForward)
	require.Equal(t, "email = :e", *reader.queries[0].KeyConditionExpression)
	require.NotNil(t, reader.queries[1].ExclusiveStartKey)

	require.Len(t, got, 2)
	require.Equal(t, "2025-03-02T00:00:00.000Z", got[0].CreatedAt)
	require.Equal(t, 1800, got[0].Plan.NutritionTargets.Calories)
	monday := got[0].Plan.WeeklyPlan["monday"]
	require.Len(t, monday, 1)
	require.Equal(t, dietplan.Grams("15g"), monday[0].Macros.Protein)
	require.Equal(t, dietplan.StringList{"Oats", "Banana"}, monday[0].Ingredients)
	require.NotNil(t, monday[0].RecipeLink)
	require.Equal(t, "3L", got[0].Plan.HydrationPlan["dailyWaterIntake"])
	require.Equal(t, "diet_1_abcdefghi", got[0].Plan.ClientInfo.PlanID)
}

func TestDynamoQueryOldestFirst(t *testing.T) {
	fake := &fakeDynamo{}
	got, err := NewDynamoPlanStore(fake, "DietPlans").Query(context.Background(), "x@example.com", false)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.True(t, *fake.queries[0].ScanIndexForward)
}

func TestDynamoErrors(t *testing.T) {
	fake := &fakeDynamo{err: errThrottled}
	store := NewDynamoPlanStore(fake, "DietPlans")

	require.ErrorIs(t, store.Put(context.Background(), "a@example.com", "t", samplePlan(t, 1)), errThrottled)
	_, err := store.Query(context.Background(), "a@example.com", true)
	require.ErrorIs(t, err, errThrottled)
	require.Equal(t, "down", store.Health(context.Background())["status"])
}

func TestDynamoHealth(t *testing.T) {
	stats := NewDynamoPlanStore(&fakeDynamo{}, "DietPlans").Health(context.Background())
	require.Equal(t, "up", stats["status"])
	require.Equal(t, "ACTIVE", stats["table_status"])
	require.Equal(t, "3", stats["item_count"])
}
