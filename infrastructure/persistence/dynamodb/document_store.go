package dynamodb

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"salesadmin/application/ports"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/pkg/errors"
)

// HardBatchLimit is the most items one TransactWriteItems call may touch
const HardBatchLimit = 100

// API is the slice of the DynamoDB client the store uses
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DocumentStore implements ports.DocumentStore on a single DynamoDB table.
// Children of a collection share a partition; the collection index serves
// collection-group scans.
type DocumentStore struct {
	client    API
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewDocumentStore creates a new DynamoDB document store
func NewDocumentStore(client API, tableName, indexName string, logger *zap.Logger) *DocumentStore {
	return &DocumentStore{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// Get retrieves one document with a strongly consistent read
func (s *DocumentStore) Get(ctx context.Context, path valueobjects.DocPath) (ports.Document, error) {
	if path.IsZero() {
		return ports.Document{}, errors.NewValidationError("document path is empty")
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            keyOf(path),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return ports.Document{}, s.storeError("get", err)
	}
	if len(result.Item) == 0 {
		return ports.Document{}, errors.NewNotFoundError("document").WithDetail("path", path.String())
	}

	return documentFrom(result.Item)
}

// SetMerge updates the named attributes, creating the item when missing
func (s *DocumentStore) SetMerge(ctx context.Context, path valueobjects.DocPath, fields map[string]interface{}) error {
	if path.IsZero() {
		return errors.NewValidationError("document path is empty")
	}
	expr, err := mergeExpression(path, fields)
	if err != nil {
		return err
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       keyOf(path),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return s.storeError("merge", err)
	}
	return nil
}

// Set replaces the whole item
func (s *DocumentStore) Set(ctx context.Context, path valueobjects.DocPath, fields map[string]interface{}) error {
	item, err := itemFor(path, fields)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return s.storeError("set", err)
	}
	return nil
}

// Delete removes the item; a missing item is not an error
func (s *DocumentStore) Delete(ctx context.Context, path valueobjects.DocPath) error {
	if path.IsZero() {
		return errors.NewValidationError("document path is empty")
	}

	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       keyOf(path),
	})
	if err != nil {
		return s.storeError("delete", err)
	}
	return nil
}

// ListChildren queries the collection's partition
func (s *DocumentStore) ListChildren(ctx context.Context, collection valueobjects.CollectionPath) ([]ports.Document, error) {
	if collection.IsZero() {
		return nil, errors.NewValidationError("collection path is empty")
	}

	keyCond := expression.Key(attrPK).Equal(expression.Value(collection.String()))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return s.queryAll(ctx, "list", &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	})
}

// DeepScan queries the collection index for every collection with the
// given name. Global index reads are eventually consistent.
func (s *DocumentStore) DeepScan(ctx context.Context, collectionName string) ([]ports.Document, error) {
	if collectionName == "" {
		return nil, errors.NewValidationError("collection name is empty")
	}

	keyCond := expression.Key(attrGSI1PK).Equal(expression.Value(collectionKey(collectionName)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return s.queryAll(ctx, "deep scan", &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

// NewBatch starts a transactional write batch
func (s *DocumentStore) NewBatch() ports.WriteBatch {
	return newWriteBatch(s)
}

// MaxBatchOps returns the transaction item limit
func (s *DocumentStore) MaxBatchOps() int {
	return HardBatchLimit
}

func (s *DocumentStore) queryAll(ctx context.Context, op string, input *dynamodb.QueryInput) ([]ports.Document, error) {
	var docs []ports.Document
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.storeError(op, err)
		}
		for _, item := range page.Items {
			doc, err := documentFrom(item)
			if err != nil {
				s.logger.Warn("Skipping unreadable item", zap.String("operation", op), zap.Error(err))
				continue
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// storeError maps SDK failures onto the store error taxonomy. DynamoDB's
// own validation failures (item too large, bad expression) are the
// caller's fault; everything else means the store could not serve.
func (s *DocumentStore) storeError(op string, err error) error {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		s.logger.Warn("DynamoDB request failed",
			zap.String("operation", op),
			zap.String("code", apiErr.ErrorCode()),
			zap.String("fault", apiErr.ErrorFault().String()),
		)
		if apiErr.ErrorCode() == "ValidationException" {
			return errors.NewValidationError(apiErr.ErrorMessage()).WithCause(err)
		}

		var cancelled *types.TransactionCanceledException
		if stderrors.As(err, &cancelled) {
			reasons := make([]string, 0, len(cancelled.CancellationReasons))
			for _, r := range cancelled.CancellationReasons {
				reasons = append(reasons, aws.ToString(r.Code))
			}
			return errors.NewStoreUnavailableError(op, err).WithDetail("reasons", reasons)
		}
	}
	return errors.NewStoreUnavailableError(op, err)
}
