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

// RewardRepo covers the reward subsystem tables: accounts, the
// transaction ledger, redemptions and referrals.
type RewardRepo struct {
	client        *dynamodb.Client
	accountsTable string
	ledgerTable   string
	redemptions   string
	referrals     string
}

func NewRewardRepo(client *dynamodb.Client, accountsTable, ledgerTable, redemptionsTable, referralsTable string) *RewardRepo {
	return &RewardRepo{
		client:        client,
		accountsTable: accountsTable,
		ledgerTable:   ledgerTable,
		redemptions:   redemptionsTable,
		referrals:     referralsTable,
	}
}

func (r *RewardRepo) GetAccount(ctx context.Context, userID string) (*domain.RewardAccount, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.accountsTable),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("reward account not found: %w", domain.ErrNotFound)
	}
	var a domain.RewardAccount
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *RewardRepo) PutAccount(ctx context.Context, a *domain.RewardAccount) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal reward account: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.accountsTable),
		Item:      item,
	})
	return err
}

func (r *RewardRepo) UpdateAccount(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.accountsTable),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *RewardRepo) PutTransaction(ctx context.Context, t *domain.RewardTransaction) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal reward transaction: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.ledgerTable),
		Item:      item,
	})
	return err
}

// CountTransactionsSince counts ledger rows for (user, action) newer than
// since. ULID sort keys are time-ordered, so the range condition doubles
// as a time filter without a scan; the action filter narrows in-partition.
func (r *RewardRepo) CountTransactionsSince(ctx context.Context, userID, actionType string, since time.Time) (int, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.ledgerTable),
		KeyConditionExpression: aws.String("user_id = :u"),
		FilterExpression:       aws.String("action_type = :a AND created_at >= :s"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
			":a": &types.AttributeValueMemberS{Value: actionType},
			":s": &types.AttributeValueMemberS{Value: since.UTC().Format(time.RFC3339)},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, err
	}
	return int(out.Count), nil
}

func (r *RewardRepo) PutRedemption(ctx context.Context, red *domain.Redemption) error {
	item, err := attributevalue.MarshalMap(red)
	if err != nil {
		return fmt.Errorf("marshal redemption: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.redemptions),
		Item:      item,
	})
	return err
}

// SumRedemptionsSince totals a user's redemption amounts newer than since,
// via the user_id GSI.
func (r *RewardRepo) SumRedemptionsSince(ctx context.Context, userID string, since time.Time) (float64, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.redemptions),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("user_id = :u"),
		FilterExpression:       aws.String("created_at >= :s"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
			":s": &types.AttributeValueMemberS{Value: since.UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return 0, err
	}
	var reds []domain.Redemption
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &reds); err != nil {
		return 0, err
	}
	var total float64
	for _, red := range reds {
		total += red.Amount
	}
	return total, nil
}

func (r *RewardRepo) GetReferral(ctx context.Context, refereeID string) (*domain.Referral, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.referrals),
		Key:       strKey("referee_id", refereeID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("referral not found: %w", domain.ErrNotFound)
	}
	var ref domain.Referral
	if err := attributevalue.UnmarshalMap(out.Item, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *RewardRepo) PutReferral(ctx context.Context, ref *domain.Referral) error {
	item, err := attributevalue.MarshalMap(ref)
	if err != nil {
		return fmt.Errorf("marshal referral: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.referrals),
		Item:      item,
	})
	return err
}

func (r *RewardRepo) UpdateReferral(ctx context.Context, refereeID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.referrals),
		Key:                       strKey("referee_id", refereeID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
