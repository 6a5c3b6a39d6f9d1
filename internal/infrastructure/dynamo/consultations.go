package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-consult-nosql/internal/domain"
)

// ConsultationRepo provides typed DynamoDB operations for the consultations table.
type ConsultationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewConsultationRepo(client *dynamodb.Client, tableName string) *ConsultationRepo {
	return &ConsultationRepo{client: client, tableName: tableName}
}

func (r *ConsultationRepo) Put(ctx context.Context, c *domain.Consultation) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal consultation: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return storeErr("put consultation", err)
	}
	return nil
}

// ListByIdentity returns all consultations for one identity, newest first.
func (r *ConsultationRepo) ListByIdentity(ctx context.Context, identityID string) ([]domain.Consultation, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("identity_id-created_at-index"),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": "identity_id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: identityID}},
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, storeErr("query consultations", err)
	}
	var consultations []domain.Consultation
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &consultations); err != nil {
		return nil, err
	}
	return consultations, nil
}
