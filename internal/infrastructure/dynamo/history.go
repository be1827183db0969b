package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/eloity/tiergate/internal/domain"
)

// TierHistoryRepo is the append-only audit log of tier changes.
// PK: user_id, SK: change_id (ULID, so rows sort by time).
type TierHistoryRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTierHistoryRepo(client *dynamodb.Client, tableName string) *TierHistoryRepo {
	return &TierHistoryRepo{client: client, tableName: tableName}
}

func (r *TierHistoryRepo) Put(ctx context.Context, c *domain.TierChange) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal tier change: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TierHistoryRepo) ListByUser(ctx context.Context, userID string) ([]domain.TierChange, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var changes []domain.TierChange
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}
