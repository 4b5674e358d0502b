package dynamostore

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/cautela"
	"github.com/letmevibethatforyou/cautela/custody"
	"github.com/letmevibethatforyou/cautela/kv"
)

var _ kv.Store = (*KV)(nil)

func TestNewMissingConfig(t *testing.T) {
	tests := map[string]struct {
		client API
		table  string
	}{
		"empty table": {client: newFakeTable(), table: ""},
		"nil client":  {client: nil, table: "cautela"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := New(tt.client, tt.table); !errors.Is(err, cautela.ErrMissingConfig) {
				t.Errorf("Expected ErrMissingConfig, got %v", err)
			}
		})
	}
}

func TestPutAndList(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo, err := New(table, "cautela", WithPageSize(2))
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 5; i++ {
		p := custody.Person{ID: int64(i), Name: fmt.Sprintf("Pessoa %d", i), Enrollment: fmt.Sprintf("M%d", i)}
		if err := repo.Put(ctx, custody.KindPerson, fmt.Sprintf("%03d", i), p); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}
	if err := repo.Put(ctx, custody.KindCatalog, "001", custody.CatalogEntry{ID: 1, Name: "Rádio"}); err != nil {
		t.Fatal(err)
	}

	people, err := repo.People(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(people) != 5 {
		t.Fatalf("Expected 5 people across pages, got %d", len(people))
	}
	for i, p := range people {
		if p.ID != int64(i+1) {
			t.Errorf("Expected people ordered by id, got %d at %d", p.ID, i)
		}
	}
	if table.queries < 3 {
		t.Errorf("Expected paginated queries, got %d", table.queries)
	}

	objects, err := repo.Objects(ctx, custody.KindCatalog)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(objects) != 1 || objects[0]["nome"] != "Rádio" {
		t.Errorf("Expected catalog objects, got %v", objects)
	}
}

func TestTypedListers(t *testing.T) {
	ctx := context.Background()
	repo, _ := New(newFakeTable(), "cautela")
	catalogID := int64(1)

	material := custody.Material{
		ID:           3,
		Name:         "Rádio HT",
		SerialNumber: "SN-3",
		Conservation: custody.Good,
		Status:       custody.Available,
		Catalog:      &custody.CatalogEntry{ID: 1, Name: "Comunicação"},
		CatalogID:    &catalogID,
	}
	checkout := custody.Checkout{
		ID:          9,
		Status:      custody.CheckoutOpen,
		Reason:      "Operação",
		Responsible: custody.Person{ID: 1, Name: "Ana"},
		Items:       []custody.Material{material},
	}

	if err := repo.Put(ctx, custody.KindMaterial, "3", material); err != nil {
		t.Fatal(err)
	}
	if err := repo.Put(ctx, custody.KindCheckout, "9", checkout); err != nil {
		t.Fatal(err)
	}

	materials, err := repo.Materials(ctx)
	if err != nil || len(materials) != 1 {
		t.Fatalf("Expected one material, got %v (%v)", materials, err)
	}
	if materials[0].Catalog == nil || materials[0].Catalog.Name != "Comunicação" || *materials[0].CatalogID != 1 {
		t.Errorf("Expected catalog relation to round-trip, got %+v", materials[0])
	}

	checkouts, err := repo.Checkouts(ctx)
	if err != nil || len(checkouts) != 1 {
		t.Fatalf("Expected one checkout, got %v (%v)", checkouts, err)
	}
	if checkouts[0].Responsible.Name != "Ana" || len(checkouts[0].Items) != 1 {
		t.Errorf("Expected nested records, got %+v", checkouts[0])
	}

	catalog, err := repo.Catalog(ctx)
	if err != nil || len(catalog) != 0 {
		t.Errorf("Expected empty catalog, got %v (%v)", catalog, err)
	}
}

func TestGetAndDelete(t *testing.T) {
	ctx := context.Background()
	repo, _ := New(newFakeTable(), "cautela")

	var p custody.Person
	if err := repo.Get(ctx, custody.KindPerson, "1", &p); !errors.Is(err, cautela.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := repo.Put(ctx, custody.KindPerson, "1", custody.Person{ID: 1, Name: "Ana"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Get(ctx, custody.KindPerson, "1", &p); err != nil || p.Name != "Ana" {
		t.Errorf("Expected Ana, got %+v (%v)", p, err)
	}

	if err := repo.Delete(ctx, custody.KindPerson, "1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, custody.KindPerson, "1"); err != nil {
		t.Errorf("Expected deleting a missing record to succeed, got %v", err)
	}
	if err := repo.Get(ctx, custody.KindPerson, "1", &p); !errors.Is(err, cautela.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestBackendErrors(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	table.err = errors.New("throttled")
	repo, _ := New(table, "cautela")

	if _, err := repo.People(ctx); !errors.Is(err, cautela.ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable from query, got %v", err)
	}
	if err := repo.Put(ctx, custody.KindPerson, "1", custody.Person{}); !errors.Is(err, cautela.ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable from put, got %v", err)
	}
	if _, _, err := NewKV(repo).Get(ctx, "k"); !errors.Is(err, cautela.ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable from kv get, got %v", err)
	}
}

func TestMalformedObject(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo, _ := New(table, "cautela")

	table.items["pessoa"] = map[string]map[string]types.AttributeValue{
		"1": {
			AttrPK:     &types.AttributeValueMemberS{Value: "pessoa"},
			AttrSK:     &types.AttributeValueMemberS{Value: "1"},
			AttrObject: &types.AttributeValueMemberS{Value: "not a map"},
		},
	}

	if _, err := repo.People(ctx); !errors.Is(err, cautela.ErrInvalidRecord) {
		t.Errorf("Expected ErrInvalidRecord, got %v", err)
	}
}

func TestKV(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo, _ := New(table, "cautela")
	store := NewKV(repo)

	if _, ok, err := store.Get(ctx, "plantonista_ativo"); err != nil || ok {
		t.Fatalf("Expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "plantonista_ativo", `{"pessoa":{}}`); err != nil {
		t.Fatal(err)
	}

	v, ok, err := store.Get(ctx, "plantonista_ativo")
	if err != nil || !ok || v != `{"pessoa":{}}` {
		t.Errorf("Expected stored value, got %q ok=%v err=%v", v, ok, err)
	}
	if _, found := table.items[KVPartition]["plantonista_ativo"]; !found {
		t.Error("Expected row in the kv partition")
	}

	if err := store.Delete(ctx, "plantonista_ativo"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(ctx, "plantonista_ativo"); ok {
		t.Error("Expected key to be gone")
	}
}

func TestKVNonStringValueIsAbsent(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo, _ := New(table, "cautela")
	store := NewKV(repo)

	table.items[KVPartition] = map[string]map[string]types.AttributeValue{
		"plantonista_ativo": {
			AttrPK:    &types.AttributeValueMemberS{Value: KVPartition},
			AttrSK:    &types.AttributeValueMemberS{Value: "plantonista_ativo"},
			AttrValue: &types.AttributeValueMemberN{Value: "42"},
		},
	}

	if v, ok, err := store.Get(ctx, "plantonista_ativo"); err != nil || ok || v != "" {
		t.Fatalf("Expected a non-string value to read as absent, got %q ok=%v err=%v", v, ok, err)
	}
	if err := store.Set(ctx, "plantonista_ativo", "novo"); err != nil {
		t.Fatal(err)
	}
	if v, ok, err := store.Get(ctx, "plantonista_ativo"); err != nil || !ok || v != "novo" {
		t.Errorf("Expected Set to replace the row, got %q ok=%v err=%v", v, ok, err)
	}
}
