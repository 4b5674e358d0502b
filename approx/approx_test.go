package approx

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/cautela"
)

type material struct {
	Nome        string `json:"nome"`
	NumeroSerie string `json:"numero_serie"`
}

func nomes(items []material) []string {
	out := make([]string, 0, len(items))
	for _, m := range items {
		out = append(out, m.Nome)
	}
	return out
}

func mustNew(t *testing.T, keys []cautela.Key[material], opts ...Option) *Matcher[material] {
	t.Helper()
	m, err := New(keys, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}

func TestMatcherRanking(t *testing.T) {
	items := []material{
		{Nome: "Rádio Portátil"},
		{Nome: "Radar"},
		{Nome: "Rádio"},
		{Nome: "Capacete"},
	}
	matcher := mustNew(t, cautela.Fields[material]("nome"))

	got := nomes(matcher.Match(items, "radio"))
	expected := []string{"Rádio", "Rádio Portátil", "Radar"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestMatcherThreshold(t *testing.T) {
	items := []material{
		{Nome: "Rádio"},
		{Nome: "Radar"},
	}

	strict := mustNew(t, cautela.Fields[material]("nome"), WithThreshold(0.3))
	if got := nomes(strict.Match(items, "radio")); !reflect.DeepEqual(got, []string{"Rádio"}) {
		t.Errorf("Expected only Rádio with threshold 0.3, got %v", got)
	}

	exact := mustNew(t, cautela.Fields[material]("nome"), WithThreshold(0))
	if got := nomes(exact.Match(items, "adi")); !reflect.DeepEqual(got, []string{"Rádio"}) {
		t.Errorf("Expected exact substring match only, got %v", got)
	}
	if got := exact.Match(items, "raxio"); len(got) != 0 {
		t.Errorf("Expected no match for a typo with threshold 0, got %v", got)
	}
}

func TestMatcherToleratesTypos(t *testing.T) {
	items := []material{
		{Nome: "Capacete"},
		{Nome: "Lanterna Tática"},
		{Nome: "Luva"},
	}
	matcher := mustNew(t, cautela.Fields[material]("nome"))

	tests := map[string]struct {
		query    string
		expected []string
	}{
		"substitution": {query: "lanterma", expected: []string{"Lanterna Tática"}},
		"deletion":     {query: "capacte", expected: []string{"Capacete"}},
		"accent_typo":  {query: "TATICÁ", expected: []string{"Lanterna Tática"}},
		"unrelated":    {query: "extintor", expected: []string{}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := nomes(matcher.Match(items, tc.query))
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Match(%q) = %v, expected %v", tc.query, got, tc.expected)
			}
		})
	}
}

func TestMatcherMoreMatchingKeysRankHigher(t *testing.T) {
	items := []material{
		{Nome: "Rádio", NumeroSerie: "XYZ-9"},
		{Nome: "Rádio", NumeroSerie: "radio-01"},
	}
	matcher := mustNew(t, cautela.Fields[material]("nome", "numero_serie"))

	results := matcher.Search(items, "radio")
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Index != 1 || results[1].Index != 0 {
		t.Errorf("Expected record matching both keys first, got indexes %d, %d", results[0].Index, results[1].Index)
	}
	if results[0].Score >= results[1].Score {
		t.Errorf("Expected strictly better score, got %v >= %v", results[0].Score, results[1].Score)
	}
}

func TestMatcherWeights(t *testing.T) {
	items := []material{
		{Nome: "Lanterna", NumeroSerie: "GPS-1"},
		{Nome: "GPS Garmin", NumeroSerie: "L-1"},
	}

	unweighted := mustNew(t, cautela.Fields[material]("nome", "numero_serie"), WithIgnoreFieldNorm())
	if got := nomes(unweighted.Match(items, "gps")); !reflect.DeepEqual(got, []string{"Lanterna", "GPS Garmin"}) {
		t.Errorf("Expected source order for equal weights, got %v", got)
	}

	keys := []cautela.Key[material]{
		cautela.Field[material]("nome").WithWeight(3),
		cautela.Field[material]("numero_serie"),
	}
	weighted := mustNew(t, keys, WithIgnoreFieldNorm())
	if got := nomes(weighted.Match(items, "gps")); !reflect.DeepEqual(got, []string{"GPS Garmin", "Lanterna"}) {
		t.Errorf("Expected heavier key to rank first, got %v", got)
	}
}

func TestMatcherTiesKeepSourceOrder(t *testing.T) {
	items := []material{
		{Nome: "Bota B"},
		{Nome: "Bota A"},
		{Nome: "Bota C"},
	}
	matcher := mustNew(t, cautela.Fields[material]("nome"))

	got := nomes(matcher.Match(items, "bota"))
	if !reflect.DeepEqual(got, []string{"Bota B", "Bota A", "Bota C"}) {
		t.Errorf("Expected source order for equal scores, got %v", got)
	}
}

func TestMatcherBlankQuery(t *testing.T) {
	items := []material{{Nome: "B"}, {Nome: "A"}}
	matcher := mustNew(t, cautela.Fields[material]("nome"))

	for _, q := range []string{"", "   "} {
		if got := matcher.Match(items, q); !reflect.DeepEqual(got, items) {
			t.Errorf("Match(%q) = %v, expected source", q, got)
		}
		results := matcher.Search(items, q)
		if len(results) != 2 || results[0].Index != 0 || results[1].Score != 0 {
			t.Errorf("Search(%q) = %v, expected all records unscored", q, results)
		}
	}
}

func TestMatcherEmptyKeys(t *testing.T) {
	items := []material{{Nome: "Rádio"}}
	matcher := mustNew(t, nil)

	if got := matcher.Match(items, "radio"); len(got) != 0 {
		t.Errorf("Expected no matches without keys, got %v", got)
	}
}

func TestMatcherSliceFields(t *testing.T) {
	records := []map[string]any{
		{"nome": "Kit", "itens": []any{"Corda", "Mosquetão"}},
		{"nome": "Kit", "itens": []any{"Maca"}},
	}
	matcher, err := New(cautela.Fields[map[string]any]("itens"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := matcher.Match(records, "mosquetao")
	if len(got) != 1 || len(got[0]["itens"].([]any)) != 2 {
		t.Errorf("Expected only the kit with the carabiner, got %v", got)
	}
}

func TestNewInvalidOptions(t *testing.T) {
	tests := map[string]struct {
		keys []cautela.Key[material]
		opts []Option
	}{
		"threshold_above_one": {opts: []Option{WithThreshold(1.5)}},
		"threshold_negative":  {opts: []Option{WithThreshold(-0.1)}},
		"negative_weight":     {keys: []cautela.Key[material]{cautela.Field[material]("nome").WithWeight(-1)}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(tc.keys, tc.opts...)
			if !errors.Is(err, cautela.ErrInvalidOption) {
				t.Errorf("Expected ErrInvalidOption, got %v", err)
			}
		})
	}
}

func TestSubstringDistance(t *testing.T) {
	tests := map[string]struct {
		pattern  string
		text     string
		expected int
	}{
		"equal":        {pattern: "abc", text: "abc", expected: 0},
		"inside":       {pattern: "abc", text: "xxabcxx", expected: 0},
		"substitution": {pattern: "abc", text: "abd", expected: 1},
		"insertion":    {pattern: "abc", text: "ac", expected: 1},
		"deletion":     {pattern: "ac", text: "zabcz", expected: 1},
		"empty_text":   {pattern: "abc", text: "", expected: 3},
		"typo_in_long": {pattern: "lanterma", text: "lanterna tatica", expected: 1},
		"transposed":   {pattern: "raido", text: "radio", expected: 2},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := substringDistance([]rune(tc.pattern), []rune(tc.text))
			if got != tc.expected {
				t.Errorf("substringDistance(%q, %q) = %d, expected %d", tc.pattern, tc.text, got, tc.expected)
			}
		})
	}
}

func TestFieldNorm(t *testing.T) {
	tests := map[string]float64{
		"radio":             1,
		"radio portatil":    0.707,
		"a b c d":           0.5,
		"  spaced   words ": 0.707,
	}
	for text, expected := range tests {
		if got := fieldNorm(text); got != expected {
			t.Errorf("fieldNorm(%q) = %v, expected %v", text, got, expected)
		}
	}
}

func BenchmarkSearch(b *testing.B) {
	items := make([]material, 0, 200)
	for i := 0; i < 200; i++ {
		items = append(items, material{
			Nome:        fmt.Sprintf("Equipamento %d", i),
			NumeroSerie: fmt.Sprintf("SN-%05d", i),
		})
	}
	matcher, _ := New(cautela.Fields[material]("nome", "numero_serie"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = matcher.Search(items, "equipamneto 42")
	}
}
