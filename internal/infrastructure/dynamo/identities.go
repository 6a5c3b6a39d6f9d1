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
	"github.com/go-consult-nosql/internal/domain"
)

// IdentityRepo provides typed DynamoDB operations for the identities table.
//
// Contact uniqueness is enforced with guard items stored in the same table
// under the key "contact#<kind>#<value>". Create writes the identity row and
// its guard in one TransactWriteItems call, both conditioned on
// attribute_not_exists, so two concurrent creates for the same contact can
// never both succeed. Guard items carry no email/phone attribute and are
// therefore invisible to the lookup GSIs.
type IdentityRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewIdentityRepo(client *dynamodb.Client, tableName string) *IdentityRepo {
	return &IdentityRepo{client: client, tableName: tableName}
}

func guardKey(c domain.Contact) string {
	return fmt.Sprintf("contact#%s#%s", c.Kind, c.Value)
}

// Create inserts a new identity together with its contact uniqueness guard.
// A concurrent insert for the same contact fails with ErrDuplicateContact.
func (r *IdentityRepo) Create(ctx context.Context, i *domain.Identity) error {
	contact, err := domain.ContactRequest{Email: i.Email, Phone: i.Phone}.Resolve()
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(i)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	guard := map[string]types.AttributeValue{
		"identity_id": &types.AttributeValueMemberS{Value: guardKey(contact)},
		"owner_id":    &types.AttributeValueMemberS{Value: i.IdentityID},
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(identity_id)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                guard,
				ConditionExpression: aws.String("attribute_not_exists(identity_id)"),
			}},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for _, reason := range tce.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return fmt.Errorf("contact %s already registered: %w", contact.Value, domain.ErrDuplicateContact)
				}
			}
		}
		return storeErr("create identity", err)
	}
	return nil
}

func (r *IdentityRepo) Get(ctx context.Context, identityID string) (*domain.Identity, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("identity_id", identityID),
	})
	if err != nil {
		return nil, storeErr("get identity", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("identity %s: %w", identityID, domain.ErrUserNotFound)
	}
	var i domain.Identity
	if err := attributevalue.UnmarshalMap(out.Item, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

// GetByContact looks up the unique identity for an email or phone via the
// matching GSI.
func (r *IdentityRepo) GetByContact(ctx context.Context, c domain.Contact) (*domain.Identity, error) {
	index, attr := "email-index", "email"
	if c.Kind == domain.ContactPhone {
		index, attr = "phone-index", "phone"
	}
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: c.Value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, storeErr("query identities", err)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("identity for %s: %w", c.Value, domain.ErrUserNotFound)
	}
	var i domain.Identity
	if err := attributevalue.UnmarshalMap(out.Items[0], &i); err != nil {
		return nil, err
	}
	return &i, nil
}

// SetPendingCode overwrites the pending code and its expiry on an existing identity.
func (r *IdentityRepo) SetPendingCode(ctx context.Context, identityID, code string, expiresAt int64) error {
	return r.update(ctx, identityID, map[string]interface{}{
		fieldPendingCode:   code,
		fieldCodeExpiresAt: expiresAt,
	})
}

// MarkVerified flips the identity to verified. The transition is one-way.
func (r *IdentityRepo) MarkVerified(ctx context.Context, identityID string) error {
	return r.update(ctx, identityID, map[string]interface{}{
		fieldVerified: true,
	})
}

// update applies a SET expression conditioned on the row existing, so a
// mistyped id can never materialize a half-formed identity.
func (r *IdentityRepo) update(ctx context.Context, identityID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("identity_id", identityID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ConditionExpression:       aws.String("attribute_exists(identity_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("identity %s: %w", identityID, domain.ErrUserNotFound)
		}
		return storeErr("update identity", err)
	}
	return nil
}
