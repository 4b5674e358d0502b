package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/letmevibethatforyou/cautela/algolia"
	"github.com/letmevibethatforyou/cautela/custody"
	"github.com/letmevibethatforyou/cautela/internal/ddb"
	"github.com/urfave/cli/v2"
)

// Publisher mirrors records into the search index.
type Publisher interface {
	Publish(ctx context.Context, kind custody.Kind, id string, object map[string]any) error
	Remove(ctx context.Context, kind custody.Kind, id string) error
}

type Handler struct {
	publisher Publisher
	logger    *slog.Logger
}

func NewHandler(publisher Publisher, logger *slog.Logger) *Handler {
	return &Handler{
		publisher: publisher,
		logger:    logger,
	}
}

func (h *Handler) HandleDynamoDBEvent(ctx context.Context, e events.DynamoDBEvent) error {
	h.logger.InfoContext(ctx, "Processing DynamoDB stream records", "record_count", len(e.Records))

	for _, record := range e.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.ErrorContext(ctx, "Error processing record", "event_id", record.EventID, "error", err)
			return err
		}
	}

	return nil
}

func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	switch ddb.OperationType(record.EventName) {
	case ddb.OperationInsert, ddb.OperationModify:
		if record.Change.NewImage == nil {
			h.logger.WarnContext(ctx, "No new image for insert/modify operation, skipping record")
			return nil
		}

		parsed, err := ddb.UnmarshalRecord(record.Change.NewImage)
		if err != nil {
			h.logger.WarnContext(ctx, "Failed to unmarshal record, skipping", "error", err)
			return nil
		}
		kind, ok := h.indexable(ctx, parsed)
		if !ok {
			return nil
		}
		if parsed.Object == nil {
			h.logger.WarnContext(ctx, "Missing object in record, skipping record", "kind", parsed.Kind, "id", parsed.ID)
			return nil
		}

		h.logger.InfoContext(ctx, "Publishing record", "kind", kind, "id", parsed.ID)
		return h.publisher.Publish(ctx, kind, parsed.ID, parsed.Object)

	case ddb.OperationRemove:
		parsed, err := ddb.UnmarshalRecord(record.Change.Keys)
		if err != nil {
			h.logger.WarnContext(ctx, "Failed to unmarshal keys for delete operation, skipping", "error", err)
			return nil
		}
		kind, ok := h.indexable(ctx, parsed)
		if !ok {
			return nil
		}

		h.logger.InfoContext(ctx, "Removing record", "kind", kind, "id", parsed.ID)
		return h.publisher.Remove(ctx, kind, parsed.ID)

	default:
		h.logger.InfoContext(ctx, "Ignoring event type", "event_type", record.EventName)
		return nil
	}
}

// indexable reports whether the row is a custody record with keys.
func (h *Handler) indexable(ctx context.Context, r ddb.Record) (custody.Kind, bool) {
	if r.IsState() {
		h.logger.DebugContext(ctx, "Skipping state row", "key", r.ID)
		return "", false
	}
	if r.Kind == "" || r.ID == "" {
		h.logger.WarnContext(ctx, "Missing kind (pk) or id (sk) in record, skipping record")
		return "", false
	}
	kind, err := custody.ParseKind(r.Kind)
	if err != nil {
		h.logger.WarnContext(ctx, "Unknown record kind, skipping record", "kind", r.Kind, "id", r.ID)
		return "", false
	}
	return kind, true
}

func main() {
	app := &cli.App{
		Name:  "sync-index",
		Usage: "Mirror custody table stream events into Algolia",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment name for AWS Secrets Manager (takes precedence over API key/ID flags)",
				EnvVars: []string{"ENV", "ENVIRONMENT"},
			},
			&cli.StringFlag{
				Name:    "index-prefix",
				Usage:   "Prefix prepended to every index name",
				EnvVars: []string{"INDEX_PREFIX"},
			},
			&cli.StringFlag{
				Name:    "algolia-app-id",
				Usage:   "Algolia application ID",
				EnvVars: []string{"ALGOLIA_APP_ID"},
			},
			&cli.StringFlag{
				Name:    "algolia-api-key",
				Usage:   "Algolia API key",
				EnvVars: []string{"ALGOLIA_API_KEY"},
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	env := c.String("env")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	logger.InfoContext(ctx, "Starting custody index sync", "environment", env)

	var fetchSecrets algolia.FetchSecrets
	switch {
	case env != "":
		logger.InfoContext(ctx, "Using AWS Secrets Manager for credentials", "environment", env)
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to load AWS config", "error", err)
			return err
		}
		fetchSecrets = algolia.AWSSecrets(ctx, secretsmanager.NewFromConfig(cfg), env)
	case c.String("algolia-app-id") != "" && c.String("algolia-api-key") != "":
		logger.InfoContext(ctx, "Using static credentials from flags")
		fetchSecrets = algolia.StaticSecrets(c.String("algolia-app-id"), c.String("algolia-api-key"))
	default:
		logger.InfoContext(ctx, "Using environment variables for credentials")
		fetchSecrets = algolia.EnvSecrets()
	}

	publisher := algolia.NewPublisher(fetchSecrets, algolia.WithIndexPrefix(c.String("index-prefix")))
	handler := NewHandler(publisher, logger)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		logger.InfoContext(ctx, "Running in Lambda environment")
		lambda.Start(handler.HandleDynamoDBEvent)
	} else {
		logger.InfoContext(ctx, "Function cannot run outside of AWS Lambda environment")
	}

	return nil
}
