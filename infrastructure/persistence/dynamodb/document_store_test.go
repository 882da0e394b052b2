package dynamodb

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"salesadmin/domain/core/valueobjects"
	pkgerrors "salesadmin/pkg/errors"
)

type mockDynamoDB struct {
	mock.Mock
}

func (m *mockDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*dynamodb.GetItemOutput), args.Error(1)
}

func (m *mockDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	return &dynamodb.PutItemOutput{}, args.Error(0)
}

func (m *mockDynamoDB) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, params)
	return &dynamodb.UpdateItemOutput{}, args.Error(0)
}

func (m *mockDynamoDB) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, params)
	return &dynamodb.DeleteItemOutput{}, args.Error(0)
}

func (m *mockDynamoDB) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*dynamodb.QueryOutput), args.Error(1)
}

func (m *mockDynamoDB) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, params)
	return &dynamodb.TransactWriteItemsOutput{}, args.Error(0)
}

var (
	layout  = valueobjects.DefaultCatalogLayout()
	oledSeg = valueobjects.ResolvePath("LG", "TV", "OLED")
)

func newTestStore() (*DocumentStore, *mockDynamoDB) {
	client := new(mockDynamoDB)
	return NewDocumentStore(client, "salesadmin", "CollectionIndex", zap.NewNop()), client
}

func storedItem(t *testing.T, path valueobjects.DocPath, fields map[string]interface{}) map[string]types.AttributeValue {
	t.Helper()
	item, err := itemFor(path, fields)
	require.NoError(t, err)
	return item
}

func TestDocumentStore_GetRoundTrip(t *testing.T) {
	// Arrange
	store, client := newTestStore()
	ctx := context.Background()
	path := layout.LeafDoc(oledSeg, "p1")
	item := storedItem(t, path, map[string]interface{}{"name": "C3", "price": 1000.0})
	client.On("GetItem", ctx, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		pk := in.Key[attrPK].(*types.AttributeValueMemberS).Value
		sk := in.Key[attrSK].(*types.AttributeValueMemberS).Value
		return pk == layout.LeafCollection(oledSeg).String() && sk == "p1" && aws.ToBool(in.ConsistentRead)
	})).Return(&dynamodb.GetItemOutput{Item: item}, nil)

	// Act
	doc, err := store.Get(ctx, path)

	// Assert
	require.NoError(t, err)
	assert.True(t, doc.Path.Equals(path))
	assert.Equal(t, map[string]interface{}{"name": "C3", "price": 1000.0}, doc.Data)
}

func TestDocumentStore_GetMissing(t *testing.T) {
	store, client := newTestStore()
	client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := store.Get(context.Background(), layout.CompanyDoc("LG"))

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDocumentStore_SetWritesIndexAttributes(t *testing.T) {
	// Arrange
	store, client := newTestStore()
	ctx := context.Background()
	var put *dynamodb.PutItemInput
	client.On("PutItem", ctx, mock.Anything).Run(func(args mock.Arguments) {
		put = args.Get(1).(*dynamodb.PutItemInput)
	}).Return(nil)

	// Act
	err := store.Set(ctx, layout.CategoryDoc("LG", "TV"), map[string]interface{}{"name": "TV"})

	// Assert
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, attributevalue.UnmarshalMap(put.Item, &got))
	assert.Equal(t, "admin-data/root/products/LG/categories", got[attrPK])
	assert.Equal(t, "TV", got[attrSK])
	assert.Equal(t, "COLLECTION#categories", got[attrGSI1PK])
	assert.Equal(t, "admin-data/root/products/LG/categories/TV", got[attrGSI1SK])
	assert.Equal(t, "TV", got["name"])
}

func TestDocumentStore_RejectsReservedFieldNames(t *testing.T) {
	store, client := newTestStore()

	err := store.Set(context.Background(), layout.CompanyDoc("LG"), map[string]interface{}{"PK": "x", "a.b": 1})

	assert.True(t, pkgerrors.IsValidation(err))
	client.AssertNotCalled(t, "PutItem", mock.Anything, mock.Anything)
}

func TestDocumentStore_SetMergeUsesUpdate(t *testing.T) {
	store, client := newTestStore()
	ctx := context.Background()
	var update *dynamodb.UpdateItemInput
	client.On("UpdateItem", ctx, mock.Anything).Run(func(args mock.Arguments) {
		update = args.Get(1).(*dynamodb.UpdateItemInput)
	}).Return(nil)

	err := store.SetMerge(ctx, layout.CompanyDoc("LG"), map[string]interface{}{"name": "LG"})

	require.NoError(t, err)
	require.NotNil(t, update)
	assert.Contains(t, aws.ToString(update.UpdateExpression), "SET")
	assert.Len(t, update.ExpressionAttributeValues, 4, "name plus three index attributes")
}

func TestDocumentStore_ListChildrenPages(t *testing.T) {
	// Arrange
	store, client := newTestStore()
	ctx := context.Background()
	categories := layout.CategoriesOf("LG")
	first := storedItem(t, categories.Doc("AC"), map[string]interface{}{"name": "AC"})
	second := storedItem(t, categories.Doc("TV"), map[string]interface{}{"name": "TV"})
	cursor := map[string]types.AttributeValue{attrPK: &types.AttributeValueMemberS{Value: categories.String()}}

	client.On("Query", ctx, mock.MatchedBy(func(in *dynamodb.QueryInput) bool { return in.ExclusiveStartKey == nil })).
		Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{first}, LastEvaluatedKey: cursor}, nil).Once()
	client.On("Query", ctx, mock.MatchedBy(func(in *dynamodb.QueryInput) bool { return in.ExclusiveStartKey != nil })).
		Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{second}}, nil).Once()

	// Act
	docs, err := store.ListChildren(ctx, categories)

	// Assert
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "AC", docs[0].ID())
	assert.Equal(t, "TV", docs[1].ID())
}

func TestDocumentStore_DeepScanUsesCollectionIndex(t *testing.T) {
	store, client := newTestStore()
	ctx := context.Background()
	client.On("Query", ctx, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return aws.ToString(in.IndexName) == "CollectionIndex"
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
		storedItem(t, layout.LeafDoc(oledSeg, "p1"), map[string]interface{}{"name": "C3"}),
	}}, nil)

	docs, err := store.DeepScan(ctx, valueobjects.CollectionProducts)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "p1", docs[0].ID())
}

func TestDocumentStore_SegmentsSurviveSlashes(t *testing.T) {
	path := layout.LeafDoc(valueobjects.ResolvePath("A/B", "TV", "OLED"), "p1")

	doc, err := documentFrom(storedItem(t, path, map[string]interface{}{"name": "x"}))

	require.NoError(t, err)
	assert.Equal(t, path.Segments(), doc.Path.Segments())
}

func TestDocumentStore_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		checkType func(error) bool
	}{
		{"throttled", &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException"}, pkgerrors.IsUnavailable},
		{"validation", &smithy.GenericAPIError{Code: "ValidationException", Message: "Item size has exceeded the maximum allowed size"}, pkgerrors.IsValidation},
		{"cancelled", &types.TransactionCanceledException{CancellationReasons: []types.CancellationReason{{Code: aws.String("ThrottlingError")}}}, pkgerrors.IsUnavailable},
		{"network", context.DeadlineExceeded, pkgerrors.IsUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore()

			err := store.storeError("commit", tt.err)

			assert.True(t, tt.checkType(err), "got %v", err)
		})
	}
}
