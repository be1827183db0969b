package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/eloity/tiergate/internal/domain"
)

// TierProfileRepo provides typed DynamoDB operations for the tier
// profiles table.
type TierProfileRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTierProfileRepo(client *dynamodb.Client, tableName string) *TierProfileRepo {
	return &TierProfileRepo{client: client, tableName: tableName}
}

func (r *TierProfileRepo) Put(ctx context.Context, p *domain.TierProfile) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal tier profile: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TierProfileRepo) Get(ctx context.Context, userID string) (*domain.TierProfile, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("tier profile not found: %w", domain.ErrNotFound)
	}
	var p domain.TierProfile
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *TierProfileRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// UpgradeToTier2 promotes a tier-1 profile in a single conditional write.
// The condition pins the current tier, so concurrent upgrade triggers
// (e.g. a retried KYC webhook) cannot lose updates: exactly one write
// wins and every other caller sees ErrConflict, which the service layer
// treats as the idempotent already-upgraded case.
func (r *TierProfileRepo) UpgradeToTier2(ctx context.Context, userID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("user_id", userID),
		ConditionExpression: aws.String("tier_level = :t1"),
		UpdateExpression:    aws.String("SET tier_level = :t2, kyc_verified = :true, kyc_status = :approved, tier_upgraded_at = :now, updated_at = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t1":       &types.AttributeValueMemberS{Value: string(domain.Tier1)},
			":t2":       &types.AttributeValueMemberS{Value: string(domain.Tier2)},
			":true":     &types.AttributeValueMemberBOOL{Value: true},
			":approved": &types.AttributeValueMemberS{Value: string(domain.KYCApproved)},
			":now":      &types.AttributeValueMemberS{Value: now},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("profile not at tier 1: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}
