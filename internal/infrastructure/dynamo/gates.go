package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/eloity/tiergate/internal/domain"
)

// FeatureGateRepo manages the feature gate rule table.
type FeatureGateRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewFeatureGateRepo(client *dynamodb.Client, tableName string) *FeatureGateRepo {
	return &FeatureGateRepo{client: client, tableName: tableName}
}

func (r *FeatureGateRepo) Put(ctx context.Context, g *domain.FeatureGate) error {
	item, err := attributevalue.MarshalMap(g)
	if err != nil {
		return fmt.Errorf("marshal feature gate: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// PutIfAbsent writes the gate only when no gate with that name exists.
// Used by the bootstrap seeder so live edits are never clobbered.
func (r *FeatureGateRepo) PutIfAbsent(ctx context.Context, g *domain.FeatureGate) error {
	item, err := attributevalue.MarshalMap(g)
	if err != nil {
		return fmt.Errorf("marshal feature gate: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(feature_name)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil
		}
	}
	return err
}

func (r *FeatureGateRepo) Get(ctx context.Context, featureName string) (*domain.FeatureGate, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("feature_name", featureName),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("feature gate %q: %w", featureName, domain.ErrNotFound)
	}
	var g domain.FeatureGate
	if err := attributevalue.UnmarshalMap(out.Item, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// List returns the full gate set. The table is small and bounded (one row
// per product feature), so a scan is the right access pattern here.
func (r *FeatureGateRepo) List(ctx context.Context) ([]domain.FeatureGate, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}
	var gates []domain.FeatureGate
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &gates); err != nil {
		return nil, err
	}
	return gates, nil
}
