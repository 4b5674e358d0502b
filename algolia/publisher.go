package algolia

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/cautela"
	"github.com/letmevibethatforyou/cautela/custody"
	"github.com/letmevibethatforyou/cautela/normalize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ObjectIDField is the Algolia primary key attribute.
	ObjectIDField = "objectID"

	// SearchTextField holds the normalized text of the default search
	// fields, so remote queries match without accents or case.
	SearchTextField = "_busca"
)

// Index is the subset of an Algolia index used by Publisher.
type Index interface {
	SaveObject(object map[string]any) error
	SaveObjects(objects []map[string]any) error
	DeleteObject(objectID string) error
}

// Document is one record to publish.
type Document struct {
	ID     string
	Object map[string]any
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithIndexPrefix prepends prefix to every index name, e.g. "prod_".
func WithIndexPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = prefix
	}
}

// Publisher keeps one Algolia index per record kind.
type Publisher struct {
	openIndex func(name string) (Index, error)
	prefix    string
	tracer    trace.Tracer
}

// NewPublisher creates a publisher. Credentials are fetched on first use
// and the outcome, success or failure, is cached.
func NewPublisher(fetchSecrets FetchSecrets, opts ...Option) *Publisher {
	getClient := sync.OnceValues(func() (*search.Client, error) {
		secrets, err := fetchSecrets()
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch secrets")
		}
		if err := secrets.validate(); err != nil {
			return nil, err
		}
		return search.NewClient(secrets.AppID, secrets.WriteAPIKey), nil
	})

	p := &Publisher{
		openIndex: func(name string) (Index, error) {
			client, err := getClient()
			if err != nil {
				return nil, err
			}
			return &algoliaIndex{index: client.InitIndex(name)}, nil
		},
		tracer: otel.Tracer("cautela-algolia"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IndexName returns the index holding records of kind.
func (p *Publisher) IndexName(kind custody.Kind) string {
	return p.prefix + string(kind)
}

// Publish saves one record, replacing the indexed version.
func (p *Publisher) Publish(ctx context.Context, kind custody.Kind, id string, object map[string]any) error {
	indexName := p.IndexName(kind)
	_, span := p.tracer.Start(ctx, "algolia.save_object",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.String("algolia.object_id", id),
		),
	)
	defer span.End()

	index, err := p.openIndex(indexName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return err
	}

	if err := index.SaveObject(BuildObject(kind, id, object)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to save object to index %s", indexName))
		return errors.Wrapf(errors.Mark(err, cautela.ErrBackendUnavailable), "failed to save %s to index %s", id, indexName)
	}

	span.SetStatus(codes.Ok, "object saved successfully")
	return nil
}

// PublishBatch saves several records of the same kind in one request.
func (p *Publisher) PublishBatch(ctx context.Context, kind custody.Kind, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	indexName := p.IndexName(kind)
	_, span := p.tracer.Start(ctx, "algolia.batch_save_objects",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.Int("algolia.object_count", len(docs)),
		),
	)
	defer span.End()

	index, err := p.openIndex(indexName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return err
	}

	objects := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		objects = append(objects, BuildObject(kind, d.ID, d.Object))
	}
	if err := index.SaveObjects(objects); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to batch save %d objects to index %s", len(docs), indexName))
		return errors.Wrapf(errors.Mark(err, cautela.ErrBackendUnavailable), "failed to batch save to index %s", indexName)
	}

	span.SetStatus(codes.Ok, fmt.Sprintf("batch saved %d objects successfully", len(docs)))
	return nil
}

// Remove deletes one record from the index of kind.
func (p *Publisher) Remove(ctx context.Context, kind custody.Kind, id string) error {
	indexName := p.IndexName(kind)
	_, span := p.tracer.Start(ctx, "algolia.delete_object",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.String("algolia.object_id", id),
		),
	)
	defer span.End()

	index, err := p.openIndex(indexName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return err
	}

	if err := index.DeleteObject(id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to delete object from index %s", indexName))
		return errors.Wrapf(errors.Mark(err, cautela.ErrBackendUnavailable), "failed to delete %s from index %s", id, indexName)
	}

	span.SetStatus(codes.Ok, "object deleted successfully")
	return nil
}

// BuildObject returns a copy of object ready for indexing, with the
// objectID and normalized search text set. The input is not modified.
func BuildObject(kind custody.Kind, id string, object map[string]any) map[string]any {
	out := make(map[string]any, len(object)+2)
	for k, v := range object {
		out[k] = v
	}
	out[ObjectIDField] = id
	out[SearchTextField] = SearchText(kind, object)
	return out
}

// SearchText joins the normalized values of the default search fields of
// kind, skipping empty ones.
func SearchText(kind custody.Kind, object map[string]any) string {
	var parts []string
	for _, key := range custody.ObjectKeys(kind) {
		parts = appendText(parts, key.Value(object))
	}
	return strings.Join(parts, " ")
}

func appendText(parts []string, v any) []string {
	if items, ok := v.([]any); ok {
		for _, item := range items {
			parts = appendText(parts, item)
		}
		return parts
	}
	if text := normalize.Text(v); text != "" {
		parts = append(parts, text)
	}
	return parts
}

// algoliaIndex adapts *search.Index to Index.
type algoliaIndex struct {
	index *search.Index
}

func (a *algoliaIndex) SaveObject(object map[string]any) error {
	_, err := a.index.SaveObject(object)
	return err
}

func (a *algoliaIndex) SaveObjects(objects []map[string]any) error {
	_, err := a.index.SaveObjects(objects)
	return err
}

func (a *algoliaIndex) DeleteObject(objectID string) error {
	_, err := a.index.DeleteObject(objectID)
	return err
}
