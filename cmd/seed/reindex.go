package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/letmevibethatforyou/cautela/algolia"
	"github.com/letmevibethatforyou/cautela/custody"
)

// reindexBatchSize bounds the objects sent per Algolia batch request.
const reindexBatchSize = 500

type objectSource interface {
	Objects(ctx context.Context, kind custody.Kind) ([]map[string]any, error)
}

type batchPublisher interface {
	PublishBatch(ctx context.Context, kind custody.Kind, docs []algolia.Document) error
}

// reindex republishes every stored record, for tables whose stream was
// attached after data already existed.
func reindex(ctx context.Context, src objectSource, pub batchPublisher) (int, error) {
	total := 0
	for _, kind := range custody.Kinds() {
		objects, err := src.Objects(ctx, kind)
		if err != nil {
			return total, fmt.Errorf("failed to list %s: %w", kind, err)
		}

		docs := make([]algolia.Document, 0, reindexBatchSize)
		flush := func() error {
			if err := pub.PublishBatch(ctx, kind, docs); err != nil {
				return fmt.Errorf("failed to publish %s: %w", kind, err)
			}
			total += len(docs)
			docs = docs[:0]
			return nil
		}

		for _, object := range objects {
			id := objectID(object)
			if id == "" {
				slog.WarnContext(ctx, "Skipping record without id", "kind", kind)
				continue
			}
			docs = append(docs, algolia.Document{ID: id, Object: object})
			if len(docs) == reindexBatchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
		if err := flush(); err != nil {
			return total, err
		}
	}
	return total, nil
}

func objectID(object map[string]any) string {
	switch v := object["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}
