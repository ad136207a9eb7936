package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultDownloadsTableName = "deliverable_downloads"

// DynamoUpdateAPI - часть клиента DynamoDB, нужная счётчику
type DynamoUpdateAPI interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

type downloadCounterItem struct {
	DeliverableID  string `dynamodbav:"deliverable_id"`
	DownloadCount  int64  `dynamodbav:"download_count"`
	LastDownloadAt string `dynamodbav:"last_download_at,omitempty"`
}

// DownloadCounterDynamoRepository хранит телеметрию скачиваний в DynamoDB.
//
// Table requirements:
//   - PK: deliverable_id (string)
type DownloadCounterDynamoRepository struct {
	ddb       DynamoUpdateAPI
	tableName string
}

func NewDownloadCounterDynamoRepository(ddb DynamoUpdateAPI, tableName string) *DownloadCounterDynamoRepository {
	if tableName == "" {
		tableName = defaultDownloadsTableName
	}
	return &DownloadCounterDynamoRepository{ddb: ddb, tableName: tableName}
}

// Increment атомарно увеличивает счётчик (ADD создаёт элемент при первом скачивании)
func (r *DownloadCounterDynamoRepository) Increment(ctx context.Context, deliverableID string) (int64, error) {
	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"deliverable_id": &types.AttributeValueMemberS{Value: deliverableID},
		},
		UpdateExpression: aws.String("ADD #count :one SET #last = :now"),
		ExpressionAttributeNames: map[string]string{
			"#count": "download_count",
			"#last":  "last_download_at",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return 0, err
	}

	var item downloadCounterItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return 0, fmt.Errorf("unmarshal download counter: %w", err)
	}
	return item.DownloadCount, nil
}

func (r *DownloadCounterDynamoRepository) Get(ctx context.Context, deliverableID string) (int64, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"deliverable_id": &types.AttributeValueMemberS{Value: deliverableID},
		},
	})
	if err != nil {
		return 0, err
	}
	if len(out.Item) == 0 {
		return 0, nil
	}

	var item downloadCounterItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return 0, fmt.Errorf("unmarshal download counter: %w", err)
	}
	return item.DownloadCount, nil
}
