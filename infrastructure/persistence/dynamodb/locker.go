package dynamodb

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"salesadmin/application/ports"
	"salesadmin/pkg/errors"
)

const lockPrefix = "LOCK#"

// lockRecord is stored in the document table. It carries no collection
// index attributes, so deep scans never see it.
type lockRecord struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	LeaseID   string `dynamodbav:"LeaseID"`
	Owner     string `dynamodbav:"Owner"`
	ExpiresAt int64  `dynamodbav:"ExpiresAt"`
	TTL       int64  `dynamodbav:"TTL"`
}

// Locker implements ports.Locker with conditional writes on the document
// table
type Locker struct {
	client    API
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewLocker creates a new DynamoDB locker
func NewLocker(client API, tableName string, logger *zap.Logger) *Locker {
	return &Locker{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

// Acquire writes the lease item unless an unexpired one exists
func (l *Locker) Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (ports.Lease, error) {
	now := l.now()
	expiresAt := now.Add(ttl)
	record := lockRecord{
		PK:        lockPrefix + resource,
		SK:        "LOCK",
		LeaseID:   uuid.New().String(),
		Owner:     owner,
		ExpiresAt: expiresAt.UnixMilli(),
		TTL:       expiresAt.Add(time.Hour).Unix(),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name(attrPK)).
		Or(expression.Name("ExpiresAt").LessThan(expression.Value(now.UnixMilli())))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build lock condition: %w", err)
	}

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(l.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var held *types.ConditionalCheckFailedException
		if stderrors.As(err, &held) {
			l.logger.Debug("Lock already held", zap.String("resource", resource), zap.String("owner", owner))
			return nil, errors.NewConflictError("lock already held").WithDetail("resource", resource)
		}
		return nil, errors.NewStoreUnavailableError("lock", err)
	}

	l.logger.Debug("Lock acquired",
		zap.String("resource", resource),
		zap.String("owner", owner),
		zap.Duration("ttl", ttl),
	)
	return &dynamoLease{locker: l, resource: resource, leaseID: record.LeaseID}, nil
}

func (l *Locker) release(ctx context.Context, resource, leaseID string) error {
	cond := expression.Name("LeaseID").Equal(expression.Value(leaseID))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build release condition: %w", err)
	}

	_, err = l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: lockPrefix + resource},
			attrSK: &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var gone *types.ConditionalCheckFailedException
		if stderrors.As(err, &gone) {
			// expired and taken over, or already released
			l.logger.Warn("Lock no longer ours", zap.String("resource", resource))
			return nil
		}
		return errors.NewStoreUnavailableError("unlock", err)
	}
	return nil
}

type dynamoLease struct {
	locker   *Locker
	resource string
	leaseID  string
}

func (d *dynamoLease) Release(ctx context.Context) error {
	return d.locker.release(ctx, d.resource, d.leaseID)
}
