package dynamodb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"salesadmin/application/ports"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/pkg/errors"
)

// Key attributes. Every document is one item:
//
//	PK      parent collection path   admin-data/root/products/LG/categories
//	SK      document id              TV
//	GSI1PK  COLLECTION#<name>        COLLECTION#categories
//	GSI1SK  full document path       admin-data/root/products/LG/categories/TV
//
// Document fields are stored as top-level attributes next to them.
const (
	attrPK       = "PK"
	attrSK       = "SK"
	attrGSI1PK   = "GSI1PK"
	attrGSI1SK   = "GSI1SK"
	attrSegments = "_segments"

	collectionPrefix = "COLLECTION#"
)

var reservedAttributes = map[string]bool{
	attrPK:       true,
	attrSK:       true,
	attrGSI1PK:   true,
	attrGSI1SK:   true,
	attrSegments: true,
}

func collectionKey(name string) string {
	return collectionPrefix + name
}

// keyOf returns the primary key of a document
func keyOf(path valueobjects.DocPath) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: path.Parent().String()},
		attrSK: &types.AttributeValueMemberS{Value: path.ID()},
	}
}

// indexFields are written on every put and merge
func indexFields(path valueobjects.DocPath) map[string]interface{} {
	return map[string]interface{}{
		attrGSI1PK:   collectionKey(path.Parent().Name()),
		attrGSI1SK:   path.String(),
		attrSegments: path.Segments(),
	}
}

// checkFields rejects field names the item layout cannot hold
func checkFields(fields map[string]interface{}) error {
	var bad []string
	for name := range fields {
		if name == "" || reservedAttributes[name] || strings.Contains(name, ".") {
			bad = append(bad, name)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return errors.NewValidationError(fmt.Sprintf("unsupported field names: %s", strings.Join(bad, ", "))).
		WithCode("INVALID_FIELD_NAME")
}

// itemFor renders a full item for PutItem
func itemFor(path valueobjects.DocPath, fields map[string]interface{}) (map[string]types.AttributeValue, error) {
	if path.IsZero() {
		return nil, errors.NewValidationError("document path is empty")
	}
	if err := checkFields(fields); err != nil {
		return nil, err
	}

	values := make(map[string]interface{}, len(fields)+5)
	for k, v := range fields {
		values[k] = v
	}
	for k, v := range indexFields(path) {
		values[k] = v
	}
	values[attrPK] = path.Parent().String()
	values[attrSK] = path.ID()

	item, err := attributevalue.MarshalMap(values)
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("document fields cannot be stored: %v", err))
	}
	return item, nil
}

// documentFrom turns a stored item back into a document
func documentFrom(item map[string]types.AttributeValue) (ports.Document, error) {
	path, err := pathOf(item)
	if err != nil {
		return ports.Document{}, err
	}

	data := make(map[string]interface{}, len(item))
	for name, value := range item {
		if reservedAttributes[name] {
			continue
		}
		var v interface{}
		if err := attributevalue.Unmarshal(value, &v); err != nil {
			return ports.Document{}, fmt.Errorf("failed to decode attribute %s of %s: %w", name, path, err)
		}
		data[name] = v
	}
	return ports.Document{Path: path, Data: data}, nil
}

func pathOf(item map[string]types.AttributeValue) (valueobjects.DocPath, error) {
	if list, ok := item[attrSegments].(*types.AttributeValueMemberL); ok {
		segments := make([]string, 0, len(list.Value))
		for _, v := range list.Value {
			s, ok := v.(*types.AttributeValueMemberS)
			if !ok {
				return valueobjects.DocPath{}, fmt.Errorf("malformed path attribute")
			}
			segments = append(segments, s.Value)
		}
		return valueobjects.NewDocPath(segments...)
	}

	// items written without the segment list fall back to the key
	pk, pkOK := item[attrPK].(*types.AttributeValueMemberS)
	sk, skOK := item[attrSK].(*types.AttributeValueMemberS)
	if !pkOK || !skOK {
		return valueobjects.DocPath{}, fmt.Errorf("item has no primary key")
	}
	return valueobjects.ParseDocPath(pk.Value + valueobjects.Separator + sk.Value)
}
