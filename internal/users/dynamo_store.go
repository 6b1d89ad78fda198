package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

const (
	dynamoKeyAttribute = "userId"
	tableActiveTimeout = 2 * time.Minute
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

var _ DynamoAPI = (*dynamodb.Client)(nil)

// DynamoConfig holds the connection parameters for the key-value backend
type DynamoConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewDynamoClient builds a DynamoDB client from the default AWS credential chain.
// Static credentials and a custom endpoint are used when configured.
func NewDynamoClient(ctx context.Context, cfg DynamoConfig) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// DynamoStore implements UserStore on a DynamoDB table keyed by userId
type DynamoStore struct {
	client DynamoAPI
	table  string
}

// NewDynamoStore creates a new DynamoDB store
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{
		client: client,
		table:  table,
	}
}

// EnsureSchema creates the table. A table that already exists counts as success.
func (s *DynamoStore) EnsureSchema(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(dynamoKeyAttribute), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(dynamoKeyAttribute), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return NewStorageSchemaError(s.table, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)}, tableActiveTimeout); err != nil {
		return NewStorageSchemaError(s.table, fmt.Errorf("table did not become active: %w", err))
	}
	return nil
}

// CreateUser writes the item unconditionally, overwriting any existing user with the same id
func (s *DynamoStore) CreateUser(ctx context.Context, user *User) error {
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return NewStorageDataError("create_user", s.table, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return s.classify("create_user", err)
	}
	return nil
}

// GetUser returns ErrUserNotFound when the table has no item for the key
func (s *DynamoStore) GetUser(ctx context.Context, userID string) (*User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            userKey(userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, s.classify("get_user", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrUserNotFound
	}

	var user User
	if err := attributevalue.UnmarshalMap(out.Item, &user); err != nil {
		return nil, NewStorageDataError("get_user", s.table, err)
	}
	return &user, nil
}

// UpdateUser sets name and email. DynamoDB creates the item when the key is absent.
func (s *DynamoStore) UpdateUser(ctx context.Context, userID, name, email string) error {
	update := expression.
		Set(expression.Name("name"), expression.Value(name)).
		Set(expression.Name("email"), expression.Value(email))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return NewStorageQueryError("update_user", s.table, fmt.Errorf("build update expression: %w", err))
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       userKey(userID),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return s.classify("update_user", err)
	}
	return nil
}

// DeleteUser removes the item; a missing key is not an error
func (s *DynamoStore) DeleteUser(ctx context.Context, userID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       userKey(userID),
	})
	if err != nil {
		return s.classify("delete_user", err)
	}
	return nil
}

// ListUsers scans the whole table, following pagination to the end.
// Order is whatever DynamoDB returns.
func (s *DynamoStore) ListUsers(ctx context.Context) ([]*User, error) {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})

	result := make([]*User, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.classify("list_users", err)
		}

		var batch []*User
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, NewStorageDataError("list_users", s.table, err)
		}
		result = append(result, batch...)
	}
	return result, nil
}

func (s *DynamoStore) HealthCheck(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return s.classify("describe_table", err)
	}
	return nil
}

// Close is a no-op; the AWS client holds no resources that need releasing
func (s *DynamoStore) Close() error {
	return nil
}

// classify separates service-side rejections from transport failures
func (s *DynamoStore) classify(operation string, err error) error {
	var conditional *types.ConditionalCheckFailedException
	if errors.As(err, &conditional) {
		return NewStorageConstraintError(operation, s.table, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return NewStorageQueryError(operation, s.table, fmt.Errorf("%s: %w", apiErr.ErrorCode(), err))
	}
	return NewStorageConnectionError(operation, s.table, err)
}

func userKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamoKeyAttribute: &types.AttributeValueMemberS{Value: userID},
	}
}
