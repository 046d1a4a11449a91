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

// OTPRepo manages issued verification codes.
// PK: email, SK: otp_id.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Put(ctx context.Context, rec *domain.OTPRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Consume marks the live, unverified code matching {email, code, tempUserID}
// as verified and returns it. The write is conditional on verified still being
// false and the code not having expired, so concurrent callers presenting the
// same code get at most one success. Returns ErrCodeMismatch when nothing matched.
func (r *OTPRepo) Consume(ctx context.Context, email, code, tempUserID string, now time.Time) (*domain.OTPRecord, error) {
	candidates, err := r.query(ctx, email,
		"#code = :code AND #tid = :tid AND #ver = :false AND #exp > :now",
		map[string]string{"#code": fieldCode, "#tid": fieldTempUserID, "#ver": fieldVerified, "#exp": fieldExpiresAt},
		map[string]types.AttributeValue{
			":code":  &types.AttributeValueMemberS{Value: code},
			":tid":   &types.AttributeValueMemberS{Value: tempUserID},
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":now":   unixValue(now.Unix()),
		})
	if err != nil {
		return nil, err
	}

	verifiedAt := now.UTC()
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldVerified:   true,
		fieldVerifiedAt: verifiedAt,
	})
	if err != nil {
		return nil, err
	}
	ue.Names["#cver"] = fieldVerified
	ue.Names["#cexp"] = fieldExpiresAt
	ue.Values[":cfalse"] = &types.AttributeValueMemberBOOL{Value: false}
	ue.Values[":cnow"] = unixValue(now.Unix())

	for i := range candidates {
		rec := &candidates[i]
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(r.tableName),
			Key:                       compositeKey(fieldEmail, rec.Email, fieldOTPID, rec.OTPID),
			UpdateExpression:          aws.String(ue.Expr),
			ConditionExpression:       aws.String("attribute_exists(#cver) AND #cver = :cfalse AND #cexp > :cnow"),
			ExpressionAttributeNames:  ue.Names,
			ExpressionAttributeValues: ue.Values,
		})
		if isConditionFailed(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		rec.Verified = true
		rec.VerifiedAt = &verifiedAt
		return rec, nil
	}
	return nil, domain.ErrCodeMismatch
}

// DeleteUnverified removes every unverified code issued for {email, tempUserID}.
func (r *OTPRepo) DeleteUnverified(ctx context.Context, email, tempUserID string) error {
	recs, err := r.query(ctx, email, "#tid = :tid AND #ver = :false",
		map[string]string{"#tid": fieldTempUserID, "#ver": fieldVerified},
		map[string]types.AttributeValue{
			":tid":   &types.AttributeValueMemberS{Value: tempUserID},
			":false": &types.AttributeValueMemberBOOL{Value: false},
		})
	if err != nil {
		return err
	}
	return r.deleteAll(ctx, recs)
}

// DeleteForRegistration removes every code, verified or not, issued for {email, tempUserID}.
func (r *OTPRepo) DeleteForRegistration(ctx context.Context, email, tempUserID string) error {
	recs, err := r.query(ctx, email, "#tid = :tid",
		map[string]string{"#tid": fieldTempUserID},
		map[string]types.AttributeValue{":tid": &types.AttributeValueMemberS{Value: tempUserID}})
	if err != nil {
		return err
	}
	return r.deleteAll(ctx, recs)
}

func (r *OTPRepo) DeleteByEmail(ctx context.Context, email string) error {
	recs, err := r.query(ctx, email, "", nil, nil)
	if err != nil {
		return err
	}
	return r.deleteAll(ctx, recs)
}

// DeleteExpired removes every code whose expires_at is before now.
func (r *OTPRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	values := map[string]types.AttributeValue{":now": unixValue(now.Unix())}
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String("#exp < :now"),
		ProjectionExpression:      aws.String("#pk, #sk"),
		ExpressionAttributeNames:  map[string]string{"#exp": fieldExpiresAt, "#pk": fieldEmail, "#sk": fieldOTPID},
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
				TableName: aws.String(r.tableName),
				Key: map[string]types.AttributeValue{
					fieldEmail: item[fieldEmail],
					fieldOTPID: item[fieldOTPID],
				},
				ConditionExpression:       aws.String("#exp < :now"),
				ExpressionAttributeNames:  map[string]string{"#exp": fieldExpiresAt},
				ExpressionAttributeValues: values,
			})
			if isConditionFailed(err) {
				continue
			}
			if err != nil {
				slog.Warn("failed to delete expired otp record", "err", err)
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// query reads all codes for email, optionally narrowed by a filter expression.
func (r *OTPRepo) query(ctx context.Context, email, filter string, names map[string]string, values map[string]types.AttributeValue) ([]domain.OTPRecord, error) {
	allNames := map[string]string{"#pk": fieldEmail}
	allValues := map[string]types.AttributeValue{":pk": &types.AttributeValueMemberS{Value: email}}
	for k, v := range names {
		allNames[k] = v
	}
	for k, v := range values {
		allValues[k] = v
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("#pk = :pk"),
		ExpressionAttributeNames:  allNames,
		ExpressionAttributeValues: allValues,
		ConsistentRead:            aws.Bool(true),
	}
	if filter != "" {
		input.FilterExpression = aws.String(filter)
	}

	var recs []domain.OTPRecord
	p := dynamodb.NewQueryPaginator(r.client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.OTPRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		recs = append(recs, batch...)
	}
	return recs, nil
}

func (r *OTPRepo) deleteAll(ctx context.Context, recs []domain.OTPRecord) error {
	for _, rec := range recs {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       compositeKey(fieldEmail, rec.Email, fieldOTPID, rec.OTPID),
		})
		if err != nil {
			return fmt.Errorf("delete otp record %s: %w", rec.OTPID, err)
		}
	}
	return nil
}
