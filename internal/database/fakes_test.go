package database

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"FitAI_V1.0/internal/dietplan"
)

type fakeDynamo struct {
	puts    []*dynamodb.PutItemInput
	queries []*dynamodb.QueryInput
	pages   [][]map[string]types.AttributeValue
	err     error
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, nil
}

// Query serves f.pages in order, linking them with LastEvaluatedKey.
func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.queries = append(f.queries, in)
	idx := len(f.queries) - 1
	if idx >= len(f.pages) {
		return &dynamodb.QueryOutput{}, nil
	}
	out := &dynamodb.QueryOutput{Items: f.pages[idx]}
	if idx < len(f.pages)-1 {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: "cursor"},
		}
	}
	return out, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	count := int64(3)
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
		ItemCount:   &count,
	}}, nil
}

// memoryStore is an in-memory Service counting backend reads.
type memoryStore struct {
	mu      sync.Mutex
	records []dietplan.PlanRecord
	queries int
	putErr  error

	// afterRead runs once the backend snapshot is taken, before Query returns.
	afterRead func()
}

func (m *memoryStore) Put(_ context.Context, email, createdAt string, plan dietplan.DietPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.records = append(m.records, dietplan.PlanRecord{Email: email, CreatedAt: createdAt, Plan: plan})
	return nil
}

func (m *memoryStore) Query(_ context.Context, email string, newestFirst bool) ([]dietplan.PlanRecord, error) {
	m.mu.Lock()
	m.queries++
	var out []dietplan.PlanRecord
	for _, r := range m.records {
		if r.Email == email {
			out = append(out, r)
		}
	}
	hook := m.afterRead
	m.afterRead = nil
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if newestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (m *memoryStore) Health(context.Context) map[string]string {
	return map[string]string{"status": "up"}
}

func (m *memoryStore) Close() {}

var errThrottled = errors.New("ProvisionedThroughputExceededException")
