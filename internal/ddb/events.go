// Package ddb decodes DynamoDB stream images of the custody table.
package ddb

import (
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/cautela"
)

// OperationType is the kind of change carried by a stream record.
type OperationType string

const (
	OperationInsert OperationType = "INSERT"
	OperationModify OperationType = "MODIFY"
	OperationRemove OperationType = "REMOVE"
)

// KVPartition marks rows that hold session state rather than records.
const KVPartition = "kv"

// Record is a table row: pk holds the kind, sk the id.
type Record struct {
	Kind   string         `dynamodbav:"pk"`
	ID     string         `dynamodbav:"sk"`
	Object map[string]any `dynamodbav:"object"`
}

// IsState reports whether the row belongs to the key/value partition.
func (r Record) IsState() bool {
	return r.Kind == KVPartition
}

// UnmarshalRecord decodes a stream image or key set into a Record.
func UnmarshalRecord(image map[string]events.DynamoDBAttributeValue) (Record, error) {
	av, err := ToAttributeValueMap(image)
	if err != nil {
		return Record{}, err
	}

	var record Record
	if err := attributevalue.UnmarshalMap(av, &record); err != nil {
		return Record{}, errors.Wrap(errors.Mark(err, cautela.ErrInvalidRecord), "failed to unmarshal stream image")
	}
	return record, nil
}

// ToAttributeValueMap converts a Lambda stream image into SDK attribute
// values so the attributevalue decoder can read it.
func ToAttributeValueMap(image map[string]events.DynamoDBAttributeValue) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(image))
	for name, v := range image {
		av, err := ToAttributeValue(v)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %q", name)
		}
		out[name] = av
	}
	return out, nil
}

// ToAttributeValue converts a single Lambda attribute value.
func ToAttributeValue(v events.DynamoDBAttributeValue) (types.AttributeValue, error) {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}, nil
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}, nil
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}, nil
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}, nil
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}, nil
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}, nil
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}, nil
	case events.DataTypeList:
		list := v.List()
		out := make([]types.AttributeValue, 0, len(list))
		for i, item := range list {
			av, err := ToAttributeValue(item)
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", i)
			}
			out = append(out, av)
		}
		return &types.AttributeValueMemberL{Value: out}, nil
	case events.DataTypeMap:
		m, err := ToAttributeValueMap(v.Map())
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	default:
		return nil, errors.Wrapf(cautela.ErrInvalidRecord, "unsupported attribute type %d", v.DataType())
	}
}
