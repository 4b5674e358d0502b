package dynamostore

import (
	"context"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeTable is an in-memory single-table DynamoDB keyed by pk and sk.
type fakeTable struct {
	mu      sync.Mutex
	items   map[string]map[string]map[string]types.AttributeValue
	queries int
	err     error
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: map[string]map[string]map[string]types.AttributeValue{}}
}

func keyOf(key map[string]types.AttributeValue) (string, string) {
	return key[AttrPK].(*types.AttributeValueMemberS).Value, key[AttrSK].(*types.AttributeValueMemberS).Value
}

func (f *fakeTable) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.err != nil {
		return nil, f.err
	}

	pk := in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value
	partition := f.items[pk]
	sks := make([]string, 0, len(partition))
	for sk := range partition {
		sks = append(sks, sk)
	}
	sort.Strings(sks)

	start := 0
	if in.ExclusiveStartKey != nil {
		_, after := keyOf(in.ExclusiveStartKey)
		start = sort.SearchStrings(sks, after) + 1
	}

	out := &dynamodb.QueryOutput{}
	for i := start; i < len(sks); i++ {
		if in.Limit != nil && len(out.Items) == int(*in.Limit) {
			out.LastEvaluatedKey = map[string]types.AttributeValue{
				AttrPK: &types.AttributeValueMemberS{Value: pk},
				AttrSK: &types.AttributeValueMemberS{Value: sks[i-1]},
			}
			break
		}
		out.Items = append(out.Items, partition[sks[i]])
	}
	return out, nil
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	pk, sk := keyOf(in.Key)
	return &dynamodb.GetItemOutput{Item: f.items[pk][sk]}, nil
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	pk, sk := keyOf(in.Item)
	if f.items[pk] == nil {
		f.items[pk] = map[string]map[string]types.AttributeValue{}
	}
	f.items[pk][sk] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	pk, sk := keyOf(in.Key)
	delete(f.items[pk], sk)
	return &dynamodb.DeleteItemOutput{}, nil
}
