package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/eloity/tiergate/internal/domain"
)

// TwoFactorRepo persists 2FA enrollments. PK: user_id, SK: method.
type TwoFactorRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTwoFactorRepo(client *dynamodb.Client, tableName string) *TwoFactorRepo {
	return &TwoFactorRepo{client: client, tableName: tableName}
}

func (r *TwoFactorRepo) Put(ctx context.Context, e *domain.TwoFactorEnrollment) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal enrollment: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TwoFactorRepo) Get(ctx context.Context, userID string, method domain.TwoFactorMethodType) (*domain.TwoFactorEnrollment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("user_id", userID, "method", string(method)),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("enrollment not found: %w", domain.ErrNotFound)
	}
	var e domain.TwoFactorEnrollment
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByUser returns every enrollment for one user.
func (r *TwoFactorRepo) ListByUser(ctx context.Context, userID string) ([]domain.TwoFactorEnrollment, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var enrollments []domain.TwoFactorEnrollment
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *TwoFactorRepo) Update(ctx context.Context, userID string, method domain.TwoFactorMethodType, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("user_id", userID, "method", string(method)),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *TwoFactorRepo) Delete(ctx context.Context, userID string, method domain.TwoFactorMethodType) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("user_id", userID, "method", string(method)),
	})
	return err
}
