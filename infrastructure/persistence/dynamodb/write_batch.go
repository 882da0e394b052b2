package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"salesadmin/domain/core/valueobjects"
	"salesadmin/pkg/errors"
)

type opKind int

const (
	opSet opKind = iota
	opMerge
	opDelete
)

type stagedOp struct {
	kind   opKind
	path   valueobjects.DocPath
	fields map[string]interface{}
}

// writeBatch stages writes for one TransactWriteItems call. A transaction
// may touch each item only once, so writes to the same document are folded
// together in staging order.
type writeBatch struct {
	store  *DocumentStore
	order  []string
	ops    map[string]*stagedOp
	staged int
}

func newWriteBatch(store *DocumentStore) *writeBatch {
	return &writeBatch{store: store, ops: make(map[string]*stagedOp)}
}

func (b *writeBatch) Set(path valueobjects.DocPath, fields map[string]interface{}) {
	b.stage(stagedOp{kind: opSet, path: path, fields: copyFields(fields)})
}

func (b *writeBatch) SetMerge(path valueobjects.DocPath, fields map[string]interface{}) {
	b.stage(stagedOp{kind: opMerge, path: path, fields: copyFields(fields)})
}

func (b *writeBatch) Delete(path valueobjects.DocPath) {
	b.stage(stagedOp{kind: opDelete, path: path})
}

// Len counts staged writes, before folding
func (b *writeBatch) Len() int {
	return b.staged
}

func (b *writeBatch) stage(op stagedOp) {
	b.staged++
	key := op.path.String()
	prev, exists := b.ops[key]
	if !exists {
		b.order = append(b.order, key)
		b.ops[key] = &op
		return
	}
	b.ops[key] = fold(prev, &op)
}

// fold combines two writes to the same document into one with the same
// end state
func fold(prev, next *stagedOp) *stagedOp {
	switch next.kind {
	case opSet, opDelete:
		return next
	}

	// next is a merge
	switch prev.kind {
	case opDelete:
		return &stagedOp{kind: opSet, path: next.path, fields: next.fields}
	default:
		merged := copyFields(prev.fields)
		for k, v := range next.fields {
			merged[k] = v
		}
		return &stagedOp{kind: prev.kind, path: next.path, fields: merged}
	}
}

func (b *writeBatch) Commit(ctx context.Context) error {
	if len(b.order) == 0 {
		return nil
	}
	if len(b.order) > HardBatchLimit {
		return errors.NewValidationError(
			fmt.Sprintf("batch of %d writes exceeds the limit of %d", len(b.order), HardBatchLimit))
	}

	items := make([]types.TransactWriteItem, 0, len(b.order))
	for _, key := range b.order {
		item, err := b.store.transactItem(b.ops[key])
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	_, err := b.store.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		return b.store.storeError("commit", err)
	}

	b.store.logger.Debug("Batch committed",
		zap.Int("staged", b.staged),
		zap.Int("items", len(items)),
	)
	return nil
}

func (s *DocumentStore) transactItem(op *stagedOp) (types.TransactWriteItem, error) {
	if op.path.IsZero() {
		return types.TransactWriteItem{}, errors.NewValidationError("batch write has an empty path")
	}

	switch op.kind {
	case opSet:
		item, err := itemFor(op.path, op.fields)
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		return types.TransactWriteItem{Put: &types.Put{
			TableName: aws.String(s.tableName),
			Item:      item,
		}}, nil

	case opMerge:
		expr, err := mergeExpression(op.path, op.fields)
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		return types.TransactWriteItem{Update: &types.Update{
			TableName:                 aws.String(s.tableName),
			Key:                       keyOf(op.path),
			UpdateExpression:          expr.Update(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		}}, nil

	default:
		return types.TransactWriteItem{Delete: &types.Delete{
			TableName: aws.String(s.tableName),
			Key:       keyOf(op.path),
		}}, nil
	}
}

// mergeExpression sets the given fields plus the index attributes, leaving
// every other attribute of an existing item alone
func mergeExpression(path valueobjects.DocPath, fields map[string]interface{}) (expression.Expression, error) {
	if err := checkFields(fields); err != nil {
		return expression.Expression{}, err
	}

	var update expression.UpdateBuilder
	for name, value := range indexFields(path) {
		update = update.Set(expression.Name(name), expression.Value(value))
	}
	for name, value := range fields {
		update = update.Set(expression.Name(name), expression.Value(value))
	}

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("failed to build merge expression: %w", err)
	}
	return expr, nil
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
