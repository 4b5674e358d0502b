package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/letmevibethatforyou/cautela"
	"github.com/letmevibethatforyou/cautela/approx"
	"github.com/letmevibethatforyou/cautela/custody"
	"github.com/letmevibethatforyou/cautela/dynamostore"
	"github.com/letmevibethatforyou/cautela/filter"
	"github.com/letmevibethatforyou/cautela/reactive"
	"github.com/letmevibethatforyou/cautela/session"
	"github.com/letmevibethatforyou/cautela/subseq"
	"github.com/letmevibethatforyou/cautela/substring"
	"github.com/urfave/cli/v2"
)

const (
	strategySubstring   = "substring"
	strategyApprox      = "approx"
	strategySubsequence = "subsequence"

	defaultLimit    = 20
	defaultDebounce = 150 * time.Millisecond
)

type record = map[string]any

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "busca",
		Usage: "Search custody records with the local matching strategies",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "Record kind: pessoa, material, catalogo or cautela",
				EnvVars: []string{"CAUTELA_KIND"},
				Value:   string(custody.KindPerson),
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "JSON file holding an array of records",
			},
			&cli.StringFlag{
				Name:    "table-name",
				Aliases: []string{"t"},
				Usage:   "DynamoDB table to read records from when no file is given",
				EnvVars: []string{"TABLE_NAME"},
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query string to search for; positional arg is a fallback",
			},
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Matching strategy: substring, approx or subsequence",
				Value:   strategySubstring,
			},
			&cli.StringSliceFlag{
				Name:  "keys",
				Usage: "Field paths to search, e.g. nome or catalogo.nome; repeatable",
			},
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Maximum accepted score for the approx strategy (0 exact, 1 anything)",
				Value: approx.DefaultThreshold,
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of results to print",
				Value:   defaultLimit,
			},
			&cli.StringSliceFlag{
				Name:  "filter",
				Usage: "Filter such as status=DISPONIVEL or id_material>=10; repeatable",
			},
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Read one query per line from stdin and print results for each",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Quiet period of the interactive search session; 0 recomputes on every line",
				Value: defaultDebounce,
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

	kind, err := custody.ParseKind(c.String("kind"))
	if err != nil {
		return fmt.Errorf("invalid kind: %w", err)
	}

	keys := c.StringSlice("keys")
	if len(keys) == 0 {
		keys = custody.SearchFields(kind)
	}

	matcher, err := buildMatcher(c.String("strategy"), keys, c.Float64("threshold"))
	if err != nil {
		return err
	}

	filters, err := filter.ParseAll(c.StringSlice("filter"))
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	matcher = filter.Where(matcher, filters...)

	limit := c.Int("limit")
	if limit <= 0 {
		slog.WarnContext(ctx, "limit must be positive; falling back to default", "limit", limit, "default", defaultLimit)
		limit = defaultLimit
	}

	var records []record
	switch {
	case c.String("file") != "":
		records, err = loadFile(c.String("file"))
	case c.String("table-name") != "":
		records, err = loadTable(c, kind)
	default:
		return fmt.Errorf("either --file or --table-name is required")
	}
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "loaded records",
		"kind", kind,
		"count", len(records),
		"strategy", c.String("strategy"),
		"keys", keys,
		"filter_count", len(filters),
	)

	if c.Bool("interactive") {
		return interactive(c.App.Reader, c.App.Writer, records, matcher, limit, c.Duration("debounce"))
	}

	query := strings.TrimSpace(c.String("query"))
	if query == "" && c.NArg() > 0 {
		query = strings.TrimSpace(c.Args().First())
	}

	return printResults(c.App.Writer, query, matcher.Match(records, query), limit)
}

// buildMatcher creates the matcher for strategy over the given field paths.
func buildMatcher(strategy string, paths []string, threshold float64) (cautela.Matcher[record], error) {
	keys := cautela.Fields[record](paths...)

	switch strategy {
	case strategySubstring:
		return substring.New(keys...), nil
	case strategyApprox:
		m, err := approx.New(keys, approx.WithThreshold(threshold))
		if err != nil {
			return nil, fmt.Errorf("invalid approx options: %w", err)
		}
		return m, nil
	case strategySubsequence:
		return subseq.New(keys...), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
}

func loadFile(path string) ([]record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return records, nil
}

func loadTable(c *cli.Context, kind custody.Kind) ([]record, error) {
	cfg, err := config.LoadDefaultConfig(c.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	repo, err := dynamostore.New(dynamodb.NewFromConfig(cfg), c.String("table-name"))
	if err != nil {
		return nil, err
	}

	records, err := repo.Objects(c.Context, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", kind, err)
	}
	return records, nil
}

// interactive feeds each input line into a debounced search session and
// prints the results once the session settles.
func interactive(in io.Reader, out io.Writer, records []record, matcher cautela.Matcher[record], limit int, debounce time.Duration) error {
	search := session.NewSearch(reactive.NewCell(records), matcher, session.WithDebounce(debounce))
	defer search.Stop()

	idle := make(chan struct{}, 1)
	unsubscribe := search.Busy().Subscribe(func(busy bool) {
		if busy {
			return
		}
		select {
		case idle <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		query := scanner.Text()

		select {
		case <-idle:
		default:
		}
		search.SetQuery(query)
		if search.Busy().Get() {
			<-idle
		}

		if err := printResults(out, query, search.Results().Get(), limit); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read queries: %w", err)
	}
	return nil
}

func printResults(w io.Writer, query string, items []record, limit int) error {
	total := len(items)
	if len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []record{}
	}

	payload := struct {
		Query string   `json:"query"`
		Total int      `json:"total"`
		Items []record `json:"items"`
	}{
		Query: query,
		Total: total,
		Items: items,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
