package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alumni-registry/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// PendingRepo provides typed DynamoDB operations for the pending_registrations table.
// PK: email, so the table holds at most one registration per address.
type PendingRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPendingRepo(client *dynamodb.Client, tableName string) *PendingRepo {
	return &PendingRepo{client: client, tableName: tableName}
}

// Put writes p, replacing any registration for the same email, and returns the
// replaced registration (nil when there was none).
func (r *PendingRepo) Put(ctx context.Context, p *domain.PendingRegistration) (*domain.PendingRegistration, error) {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return nil, fmt.Errorf("marshal pending registration: %w", err)
	}
	out, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:    aws.String(r.tableName),
		Item:         item,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, err
	}
	if len(out.Attributes) == 0 {
		return nil, nil
	}
	var old domain.PendingRegistration
	if err := attributevalue.UnmarshalMap(out.Attributes, &old); err != nil {
		return nil, fmt.Errorf("unmarshal replaced registration: %w", err)
	}
	return &old, nil
}

func (r *PendingRepo) Get(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("pending registration not found: %w", domain.ErrNotFound)
	}
	var p domain.PendingRegistration
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the registration for email only while it still belongs to
// tempUserID. A newer registration for the same email is left alone.
func (r *PendingRepo) Delete(ctx context.Context, email, tempUserID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldEmail, email),
		ConditionExpression:      aws.String("#id = :id"),
		ExpressionAttributeNames: map[string]string{"#id": fieldTempUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: tempUserID},
		},
	})
	if isConditionFailed(err) {
		return nil
	}
	return err
}

func (r *PendingRepo) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldEmail, email),
	})
	return err
}

// DeleteExpired removes every registration whose expires_at is before now and
// returns how many were removed. Each delete re-checks expiry, so a
// registration renewed since the scan survives.
func (r *PendingRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	names := map[string]string{"#exp": fieldExpiresAt, "#pk": fieldEmail}
	values := map[string]types.AttributeValue{":now": unixValue(now.Unix())}

	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String("#exp < :now"),
		ProjectionExpression:      aws.String("#pk"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	removed := 0
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return removed, err
		}
		for _, item := range page.Items {
			_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName:                 aws.String(r.tableName),
				Key:                       map[string]types.AttributeValue{fieldEmail: item[fieldEmail]},
				ConditionExpression:       aws.String("#exp < :now"),
				ExpressionAttributeNames:  map[string]string{"#exp": fieldExpiresAt},
				ExpressionAttributeValues: values,
			})
			if isConditionFailed(err) {
				continue
			}
			if err != nil {
				slog.Warn("failed to delete expired pending registration", "err", err)
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
