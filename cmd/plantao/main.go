package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/letmevibethatforyou/cautela/approx"
	"github.com/letmevibethatforyou/cautela/custody"
	"github.com/letmevibethatforyou/cautela/duty"
	"github.com/letmevibethatforyou/cautela/dynamostore"
	"github.com/letmevibethatforyou/cautela/kv"
	"github.com/letmevibethatforyou/cautela/reactive"
	"github.com/letmevibethatforyou/cautela/session"
	"github.com/urfave/cli/v2"
)

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "plantao",
		Usage: "Define, show or clear the person on duty at the equipment desk",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "state",
				Usage:   "Local state file; defaults to the user config directory",
				EnvVars: []string{"CAUTELA_STATE"},
			},
			&cli.StringFlag{
				Name:    "table-name",
				Aliases: []string{"t"},
				Usage:   "DynamoDB table holding people and shared state; overrides --state",
				EnvVars: []string{"TABLE_NAME"},
			},
			&cli.StringFlag{
				Name:    "key",
				Usage:   "State key holding the active shift",
				Value:   duty.DefaultKey,
				EnvVars: []string{"CAUTELA_DUTY_KEY"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Start a shift for a person found by enrollment or name",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "matricula",
						Aliases: []string{"m"},
						Usage:   "Exact enrollment number",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Approximate name search; the best match is picked",
					},
					&cli.StringFlag{
						Name:    "people",
						Aliases: []string{"p"},
						Usage:   "JSON file with the people list when no table is used",
					},
				},
				Action: setAction,
			},
			{
				Name:   "show",
				Usage:  "Print the active shift",
				Action: showAction,
			},
			{
				Name:   "clear",
				Usage:  "End the active shift",
				Action: clearAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// backend bundles the state store and, when a table is used, the repository.
type backend struct {
	store kv.Store
	repo  *dynamostore.Repository
}

func openBackend(c *cli.Context) (*backend, error) {
	if table := c.String("table-name"); table != "" {
		cfg, err := config.LoadDefaultConfig(c.Context)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		repo, err := dynamostore.New(dynamodb.NewFromConfig(cfg), table)
		if err != nil {
			return nil, err
		}
		return &backend{store: dynamostore.NewKV(repo), repo: repo}, nil
	}

	path := c.String("state")
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate config directory: %w", err)
		}
		path = filepath.Join(dir, "cautela", "state.json")
	}
	slog.DebugContext(c.Context, "using local state file", "path", path)
	return &backend{store: kv.NewFile(path)}, nil
}

func openSession(c *cli.Context) (*duty.Session, *backend, error) {
	b, err := openBackend(c)
	if err != nil {
		return nil, nil, err
	}
	s := duty.New(b.store, duty.WithKey(c.String("key")))
	if err := s.Restore(c.Context); err != nil {
		return nil, nil, fmt.Errorf("failed to restore duty state: %w", err)
	}
	return s, b, nil
}

func setAction(c *cli.Context) error {
	ctx := c.Context
	s, b, err := openSession(c)
	if err != nil {
		return err
	}

	people, err := loadPeople(ctx, b, c.String("people"))
	if err != nil {
		return err
	}

	person, err := pickPerson(people, c.String("matricula"), c.String("query"))
	if err != nil {
		return err
	}

	shift, err := s.Define(ctx, person)
	if err != nil {
		return fmt.Errorf("failed to define duty person: %w", err)
	}

	slog.InfoContext(ctx, "shift started", "shift_id", shift.ID, "matricula", person.Enrollment)
	return printShift(c.App.Writer, shift)
}

func showAction(c *cli.Context) error {
	s, _, err := openSession(c)
	if err != nil {
		return err
	}

	shift, ok := s.Current()
	if !ok {
		_, err := fmt.Fprintln(c.App.Writer, "nenhum plantonista ativo")
		return err
	}
	return printShift(c.App.Writer, shift)
}

func clearAction(c *cli.Context) error {
	s, _, err := openSession(c)
	if err != nil {
		return err
	}
	if err := s.Clear(c.Context); err != nil {
		return fmt.Errorf("failed to clear duty person: %w", err)
	}
	slog.InfoContext(c.Context, "shift cleared")
	return nil
}

func loadPeople(ctx context.Context, b *backend, path string) ([]custody.Person, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		var people []custody.Person
		if err := json.Unmarshal(data, &people); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return people, nil
	}
	if b.repo == nil {
		return nil, fmt.Errorf("either --people or --table-name is required to look people up")
	}

	people, err := b.repo.People(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	return people, nil
}

// pickPerson finds the person by exact enrollment, or runs the query
// through a selection session and picks the best ranked result.
func pickPerson(people []custody.Person, enrollment, query string) (custody.Person, error) {
	if enrollment = strings.TrimSpace(enrollment); enrollment != "" {
		for _, p := range people {
			if p.Enrollment == enrollment {
				return p, nil
			}
		}
		return custody.Person{}, fmt.Errorf("no person with matricula %q", enrollment)
	}

	if strings.TrimSpace(query) == "" {
		return custody.Person{}, fmt.Errorf("either --matricula or --query is required")
	}

	matcher, err := approx.New(custody.PersonKeys())
	if err != nil {
		return custody.Person{}, err
	}

	sel := session.NewSelection(reactive.NewCell(people), matcher, custody.Person.Label)
	defer sel.Stop()

	sel.Open()
	sel.SetQuery(query)
	results := sel.Results().Get()
	if len(results) == 0 {
		return custody.Person{}, fmt.Errorf("no person matches %q", query)
	}
	sel.Select(results[0])

	picked, _ := sel.Selected()
	return picked, nil
}

func printShift(w io.Writer, shift duty.Shift) error {
	data, err := json.MarshalIndent(shift, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal shift: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n%s\n", shift.Person.Label(), data)
	return err
}
