// Package dynamostore reads and writes custody records in a single
// DynamoDB table keyed by entity kind and record id.
package dynamostore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/cautela"
	"github.com/letmevibethatforyou/cautela/custody"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// AttrPK holds the entity kind.
	AttrPK = "pk"
	// AttrSK holds the record id.
	AttrSK = "sk"
	// AttrObject holds the record itself as a map.
	AttrObject = "object"
)

// API is the subset of the DynamoDB client used by Repository.
type API interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Option configures a Repository.
type Option func(*Repository)

// WithPageSize limits how many items each Query page returns.
func WithPageSize(n int32) Option {
	return func(r *Repository) {
		if n > 0 {
			r.pageSize = aws.Int32(n)
		}
	}
}

// Repository lists and stores custody records.
type Repository struct {
	client   API
	table    string
	pageSize *int32
	tracer   trace.Tracer
}

// New creates a repository over table. An empty table name is a
// configuration error.
func New(client API, table string, opts ...Option) (*Repository, error) {
	if client == nil {
		return nil, errors.Wrap(cautela.ErrMissingConfig, "dynamodb client is nil")
	}
	if table == "" {
		return nil, errors.Wrap(cautela.ErrMissingConfig, "dynamodb table name is empty")
	}

	r := &Repository{
		client: client,
		table:  table,
		tracer: otel.Tracer("cautela-dynamodb"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Table returns the table name.
func (r *Repository) Table() string {
	return r.table
}

// Objects lists every record of kind as a generic map, ordered by id.
func (r *Repository) Objects(ctx context.Context, kind custody.Kind) ([]map[string]any, error) {
	return list[map[string]any](ctx, r, string(kind))
}

// People lists every person.
func (r *Repository) People(ctx context.Context) ([]custody.Person, error) {
	return list[custody.Person](ctx, r, string(custody.KindPerson))
}

// Materials lists every material.
func (r *Repository) Materials(ctx context.Context) ([]custody.Material, error) {
	return list[custody.Material](ctx, r, string(custody.KindMaterial))
}

// Catalog lists every catalog entry.
func (r *Repository) Catalog(ctx context.Context) ([]custody.CatalogEntry, error) {
	return list[custody.CatalogEntry](ctx, r, string(custody.KindCatalog))
}

// Checkouts lists every checkout.
func (r *Repository) Checkouts(ctx context.Context) ([]custody.Checkout, error) {
	return list[custody.Checkout](ctx, r, string(custody.KindCheckout))
}

// Get decodes the record kind/id into out. A missing record returns
// cautela.ErrNotFound.
func (r *Repository) Get(ctx context.Context, kind custody.Kind, id string, out any) error {
	item, err := r.getItem(ctx, string(kind), id)
	if err != nil {
		return err
	}
	if err := decodeObject(item, out); err != nil {
		return errors.Wrapf(err, "%s/%s", kind, id)
	}
	return nil
}

// Put stores v as the record kind/id, replacing any previous version.
func (r *Repository) Put(ctx context.Context, kind custody.Kind, id string, v any) error {
	object, err := attributevalue.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s/%s", kind, id)
	}
	return r.putItem(ctx, string(kind), id, map[string]types.AttributeValue{
		AttrObject: object,
	})
}

// Delete removes the record kind/id. Deleting a missing record succeeds.
func (r *Repository) Delete(ctx context.Context, kind custody.Kind, id string) error {
	return r.deleteItem(ctx, string(kind), id)
}

func list[T any](ctx context.Context, r *Repository, pk string) ([]T, error) {
	ctx, span := r.tracer.Start(ctx, "dynamodb.query",
		trace.WithAttributes(
			attribute.String("dynamodb.table", r.table),
			attribute.String("dynamodb.pk", pk),
		),
	)
	defer span.End()

	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": AttrPK,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
		Limit: r.pageSize,
	}

	var out []T
	pages := 0
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "query failed")
			return nil, errors.Wrapf(errors.Mark(err, cautela.ErrBackendUnavailable), "failed to query %s", pk)
		}
		pages++

		for _, item := range page.Items {
			var v T
			if err := decodeObject(item, &v); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "decode failed")
				return nil, errors.Wrapf(err, "%s/%s", pk, stringAttr(item, AttrSK))
			}
			out = append(out, v)
		}
	}

	span.SetAttributes(
		attribute.Int("dynamodb.pages", pages),
		attribute.Int("dynamodb.item_count", len(out)),
	)
	span.SetStatus(codes.Ok, fmt.Sprintf("listed %d items", len(out)))
	return out, nil
}

func (r *Repository) getItem(ctx context.Context, pk, sk string) (map[string]types.AttributeValue, error) {
	ctx, span := r.tracer.Start(ctx, "dynamodb.get_item",
		trace.WithAttributes(
			attribute.String("dynamodb.table", r.table),
			attribute.String("dynamodb.pk", pk),
			attribute.String("dynamodb.sk", sk),
		),
	)
	defer span.End()

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       itemKey(pk, sk),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get item failed")
		return nil, errors.Wrapf(errors.Mark(err, cautela.ErrBackendUnavailable), "failed to get %s/%s", pk, sk)
	}
	if len(out.Item) == 0 {
		span.SetStatus(codes.Ok, "item not found")
		return nil, errors.Wrapf(cautela.ErrNotFound, "%s/%s", pk, sk)
	}

	span.SetStatus(codes.Ok, "item found")
	return out.Item, nil
}

func (r *Repository) putItem(ctx context.Context, pk, sk string, attrs map[string]types.AttributeValue) error {
	ctx, span := r.tracer.Start(ctx, "dynamodb.put_item",
		trace.WithAttributes(
			attribute.String("dynamodb.table", r.table),
			attribute.String("dynamodb.pk", pk),
			attribute.String("dynamodb.sk", sk),
		),
	)
	defer span.End()

	item := itemKey(pk, sk)
	for k, v := range attrs {
		item[k] = v
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "put item failed")
		return errors.Wrapf(errors.Mark(err, cautela.ErrBackendUnavailable), "failed to put %s/%s", pk, sk)
	}

	span.SetStatus(codes.Ok, "item stored")
	return nil
}

func (r *Repository) deleteItem(ctx context.Context, pk, sk string) error {
	ctx, span := r.tracer.Start(ctx, "dynamodb.delete_item",
		trace.WithAttributes(
			attribute.String("dynamodb.table", r.table),
			attribute.String("dynamodb.pk", pk),
			attribute.String("dynamodb.sk", sk),
		),
	)
	defer span.End()

	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       itemKey(pk, sk),
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete item failed")
		return errors.Wrapf(errors.Mark(err, cautela.ErrBackendUnavailable), "failed to delete %s/%s", pk, sk)
	}

	span.SetStatus(codes.Ok, "item deleted")
	return nil
}

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPK: &types.AttributeValueMemberS{Value: pk},
		AttrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

// decodeObject unmarshals the object attribute of item into out.
func decodeObject(item map[string]types.AttributeValue, out any) error {
	object, ok := item[AttrObject].(*types.AttributeValueMemberM)
	if !ok {
		return errors.Wrap(cautela.ErrInvalidRecord, "item has no object map")
	}
	if err := attributevalue.UnmarshalMap(object.Value, out); err != nil {
		return errors.Wrap(errors.Mark(err, cautela.ErrInvalidRecord), "failed to unmarshal object")
	}
	return nil
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}
