package dynamostore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/cautela"
)

const (
	// KVPartition is the partition key of key/value rows.
	KVPartition = "kv"
	// AttrValue holds the value of a key/value row.
	AttrValue = "value"
)

// KV stores string values in the repository table under the kv partition.
// It implements kv.Store.
type KV struct {
	repo *Repository
}

// NewKV creates a key/value store backed by repo.
func NewKV(repo *Repository) *KV {
	return &KV{repo: repo}
}

func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	item, err := s.repo.getItem(ctx, KVPartition, key)
	if errors.Is(err, cautela.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	// A row without a string value is unreadable state, reported as absent
	// so the next Set replaces it.
	v, ok := item[AttrValue].(*types.AttributeValueMemberS)
	if !ok {
		return "", false, nil
	}
	return v.Value, true, nil
}

func (s *KV) Set(ctx context.Context, key, value string) error {
	return s.repo.putItem(ctx, KVPartition, key, map[string]types.AttributeValue{
		AttrValue: &types.AttributeValueMemberS{Value: value},
	})
}

func (s *KV) Delete(ctx context.Context, key string) error {
	return s.repo.deleteItem(ctx, KVPartition, key)
}
