package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/letmevibethatforyou/cautela/algolia"
	"github.com/letmevibethatforyou/cautela/custody"
	"github.com/letmevibethatforyou/cautela/dynamostore"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

var (
	firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Elisa", "Fábio", "Gabriela", "Heitor", "Íris", "João", "Larissa", "Márcio"}
	lastNames  = []string{"Lima", "Reis", "Nunes", "Souza", "Álvares", "Conceição", "Araújo", "Gonçalves", "Pereira", "Magalhães"}
	ranks      = []string{"SD", "CB", "3º SGT", "2º SGT", "1º SGT", "SUBTEN", "TEN", "CAP"}
	units      = []string{"1º BPM", "2º BPM", "3º BPM", "CPE", "BPChq"}

	catalog = map[string][]string{
		"Rádio HT":            {"Motorola DEP450", "Motorola DGP8550", "Hytera PD785"},
		"Colete balístico":    {"Nível II", "Nível III-A"},
		"Lanterna tática":     {"Surefire G2X", "Fenix PD35"},
		"GPS":                 {"Garmin eTrex 22x", "Garmin GPSMAP 66"},
		"Algema":              {"Peerless 700", "Hiatts Speedcuff"},
		"Câmera corporal":     {"Axon Body 3", "Motorola V300"},
		"Etilômetro":          {"Dräger Alcotest 6820"},
		"Binóculo":            {"Nikon Aculon 10x50"},
		"Cone de sinalização": {"75 cm"},
	}

	conservationStates = []custody.ConservationState{custody.New, custody.Good, custody.Good, custody.Fair, custody.Poor, custody.Inoperative}
	availability       = []custody.AvailabilityStatus{custody.Available, custody.Available, custody.Available, custody.InUse, custody.Maintenance, custody.Lost}
)

// recordStore is the part of the repository the generator writes through.
type recordStore interface {
	Put(ctx context.Context, kind custody.Kind, id string, v any) error
}

func generatePerson(r *rand.Rand, id int64) custody.Person {
	return custody.Person{
		ID:         id,
		Name:       firstNames[r.IntN(len(firstNames))] + " " + lastNames[r.IntN(len(lastNames))],
		CPF:        fmt.Sprintf("%03d.%03d.%03d-%02d", r.IntN(1000), r.IntN(1000), r.IntN(1000), r.IntN(100)),
		Enrollment: strconv.Itoa(100000 + r.IntN(900000)),
		Rank:       ranks[r.IntN(len(ranks))],
		Unit:       units[r.IntN(len(units))],
		Contact:    fmt.Sprintf("(61) 9%04d-%04d", r.IntN(10000), r.IntN(10000)),
	}
}

func generateMaterial(r *rand.Rand, id int64, entry custody.CatalogEntry) custody.Material {
	catalogID := entry.ID
	return custody.Material{
		ID:           id,
		Name:         entry.Name,
		SerialNumber: "SN-" + ksuid.New().String()[:10],
		Conservation: conservationStates[r.IntN(len(conservationStates))],
		Status:       availability[r.IntN(len(availability))],
		Catalog:      &custody.CatalogEntry{ID: entry.ID, Name: entry.Name},
		CatalogID:    &catalogID,
	}
}

func generateCheckout(r *rand.Rand, id int64, responsible, officer custody.Person, items []custody.Material, now time.Time) custody.Checkout {
	taken := now.Add(-time.Duration(r.IntN(72)) * time.Hour)
	due := taken.Add(12 * time.Hour)

	status := custody.CheckoutOpen
	returned := ""
	switch {
	case r.IntN(3) == 0:
		status = custody.CheckoutFinished
		returned = taken.Add(time.Duration(1+r.IntN(11)) * time.Hour).Format(time.RFC3339)
	case due.Before(now):
		status = custody.CheckoutOverdue
	}

	return custody.Checkout{
		ID:               id,
		TakenAt:          taken.Format(time.RFC3339),
		ExpectedReturnAt: due.Format(time.RFC3339),
		Status:           status,
		Reason:           []string{"Policiamento ostensivo", "Operação", "Escolta", "Treinamento"}[r.IntN(4)],
		DutyOfficer:      officer.Label(),
		Responsible:      responsible,
		Items:            items,
		ReturnedAt:       returned,
	}
}

// seed writes the catalog, then people, materials and checkouts.
func seed(ctx context.Context, store recordStore, r *rand.Rand, people, materials, checkouts int, now time.Time) error {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	// Map order is random; sort for stable catalog ids.
	slices.Sort(names)

	entries := make([]custody.CatalogEntry, 0, len(names))
	for i, name := range names {
		entry := custody.CatalogEntry{
			ID:          int64(i + 1),
			Name:        name,
			Description: "Modelos: " + strings.Join(catalog[name], ", "),
		}
		if err := store.Put(ctx, custody.KindCatalog, strconv.FormatInt(entry.ID, 10), entry); err != nil {
			return fmt.Errorf("failed to insert catalog entry %s: %w", name, err)
		}
		entries = append(entries, entry)
	}

	generatedPeople := make([]custody.Person, 0, people)
	for i := 0; i < people; i++ {
		p := generatePerson(r, int64(i+1))
		if err := store.Put(ctx, custody.KindPerson, strconv.FormatInt(p.ID, 10), p); err != nil {
			return fmt.Errorf("failed to insert person %d: %w", i+1, err)
		}
		generatedPeople = append(generatedPeople, p)
	}

	generatedMaterials := make([]custody.Material, 0, materials)
	for i := 0; i < materials; i++ {
		m := generateMaterial(r, int64(i+1), entries[r.IntN(len(entries))])
		if err := store.Put(ctx, custody.KindMaterial, strconv.FormatInt(m.ID, 10), m); err != nil {
			return fmt.Errorf("failed to insert material %d: %w", i+1, err)
		}
		generatedMaterials = append(generatedMaterials, m)
	}

	if len(generatedPeople) == 0 || len(generatedMaterials) == 0 {
		return nil
	}
	for i := 0; i < checkouts; i++ {
		items := []custody.Material{generatedMaterials[r.IntN(len(generatedMaterials))]}
		c := generateCheckout(r, int64(i+1),
			generatedPeople[r.IntN(len(generatedPeople))],
			generatedPeople[r.IntN(len(generatedPeople))],
			items, now)
		if err := store.Put(ctx, custody.KindCheckout, strconv.FormatInt(c.ID, 10), c); err != nil {
			return fmt.Errorf("failed to insert checkout %d: %w", i+1, err)
		}
	}

	return nil
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	tableName := c.String("table-name")

	slog.InfoContext(ctx, "Starting custody seed",
		"environment", c.String("env"),
		"table", tableName,
		"people", c.Int("people"),
		"materials", c.Int("materials"),
		"checkouts", c.Int("checkouts"),
	)

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	repo, err := dynamostore.New(dynamodb.NewFromConfig(cfg), tableName)
	if err != nil {
		return err
	}

	r := rand.New(rand.NewPCG(c.Uint64("seed"), uint64(time.Now().UnixNano())))
	if err := seed(ctx, repo, r, c.Int("people"), c.Int("materials"), c.Int("checkouts"), time.Now()); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Successfully seeded custody records")

	if !c.Bool("reindex") {
		return nil
	}

	var fetchSecrets algolia.FetchSecrets
	switch {
	case c.String("algolia-app-id") != "" && c.String("algolia-api-key") != "":
		fetchSecrets = algolia.StaticSecrets(c.String("algolia-app-id"), c.String("algolia-api-key"))
	case c.String("env") != "":
		fetchSecrets = algolia.AWSSecrets(ctx, secretsmanager.NewFromConfig(cfg), c.String("env"))
	default:
		fetchSecrets = algolia.EnvSecrets()
	}

	publisher := algolia.NewPublisher(fetchSecrets, algolia.WithIndexPrefix(c.String("index-prefix")))
	total, err := reindex(ctx, repo, publisher)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Successfully reindexed custody records", "count", total)
	return nil
}

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Generate random custody records and insert them into DynamoDB",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Environment name",
				EnvVars: []string{"ENVIRONMENT"},
			},
			&cli.StringFlag{
				Name:     "table-name",
				Aliases:  []string{"t"},
				Usage:    "DynamoDB table name",
				EnvVars:  []string{"TABLE_NAME"},
				Required: true,
			},
			&cli.IntFlag{
				Name:  "people",
				Usage: "Number of people to generate",
				Value: 20,
			},
			&cli.IntFlag{
				Name:  "materials",
				Usage: "Number of materials to generate",
				Value: 50,
			},
			&cli.IntFlag{
				Name:  "checkouts",
				Usage: "Number of checkouts to generate",
				Value: 10,
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Random seed component",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "reindex",
				Usage: "Publish every record of the table to Algolia after seeding",
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
