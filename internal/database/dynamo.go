package database

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"FitAI_V1.0/internal/dietplan"
)

// DynamoAPI is the part of *dynamodb.Client the plan store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoPlanStore stores items {email, createdAt, plan} in a table keyed by
// email (partition) and createdAt (sort).
type DynamoPlanStore struct {
	client DynamoAPI
	table  string
}

func NewDynamoPlanStore(client DynamoAPI, table string) *DynamoPlanStore {
	return &DynamoPlanStore{client: client, table: table}
}

// Item attributes reuse the json names so stored items match the API shape.
func encodeWithJSONTags(o *attributevalue.EncoderOptions) { o.TagKey = "json" }
func decodeWithJSONTags(o *attributevalue.DecoderOptions) { o.TagKey = "json" }

func (s *DynamoPlanStore) Put(ctx context.Context, email, createdAt string, plan dietplan.DietPlan) error {
	item, err := attributevalue.MarshalMapWithOptions(dietplan.PlanRecord{
		Email:     email,
		CreatedAt: createdAt,
		Plan:      plan,
	}, encodeWithJSONTags)
	if err != nil {
		return fmt.Errorf("marshal plan item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put plan item: %w", err)
	}
	return nil
}

func (s *DynamoPlanStore) Query(ctx context.Context, email string, newestFirst bool) ([]dietplan.PlanRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("email = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		},
		ScanIndexForward: aws.Bool(!newestFirst),
	}

	records := []dietplan.PlanRecord{}
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query plans: %w", err)
		}

		var batch []dietplan.PlanRecord
		if err := attributevalue.UnmarshalListOfMapsWithOptions(page.Items, &batch, decodeWithJSONTags); err != nil {
			return nil, fmt.Errorf("unmarshal plan items: %w", err)
		}
		records = append(records, batch...)
	}
	return records, nil
}

func (s *DynamoPlanStore) Health(ctx context.Context) map[string]string {
	stats := map[string]string{"backend": "dynamodb", "table": s.table}

	out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("table unavailable: %v", err)
		log.Error().Err(err).Str("table", s.table).Msg("dynamodb table unavailable")
		return stats
	}

	stats["status"] = "up"
	if out.Table != nil {
		stats["table_status"] = string(out.Table.TableStatus)
		if out.Table.ItemCount != nil {
			stats["item_count"] = fmt.Sprintf("%d", *out.Table.ItemCount)
		}
	}
	return stats
}

// Close is a no-op; the SDK client holds no connections that need releasing.
func (s *DynamoPlanStore) Close() {}
