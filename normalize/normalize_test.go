package normalize

import (
	"testing"
	"time"
)

type badge string

func (b badge) String() string { return "Badge " + string(b) }

func TestText(t *testing.T) {
	var nilString *string
	var nilLocation *time.Location
	name := "Conceição"

	tests := map[string]struct {
		value    any
		expected string
	}{
		"nil":               {value: nil, expected: ""},
		"empty":             {value: "", expected: ""},
		"accented_name":     {value: "João", expected: "joao"},
		"upper_plain":       {value: "JOAO", expected: "joao"},
		"cedilla":           {value: "Conceição", expected: "conceicao"},
		"mixed_marks":       {value: "ÁÉÍÓÚ âêô ü ñ", expected: "aeiou aeo u n"},
		"decomposed_input":  {value: "Joa\u0303o", expected: "joao"},
		"string_pointer":    {value: &name, expected: "conceicao"},
		"nil_string_ptr":    {value: nilString, expected: ""},
		"nil_stringer_ptr":  {value: nilLocation, expected: ""},
		"stringer":          {value: badge("Ágil"), expected: "badge agil"},
		"integer":           {value: 2023, expected: "2023"},
		"float":             {value: 4.5, expected: "4.5"},
		"bool":              {value: true, expected: "true"},
		"bytes":             {value: []byte("MÉDIA"), expected: "media"},
		"dotted_capital_i":  {value: "İstanbul", expected: "istanbul"},
		"keeps_punctuation": {value: "SN-01/Ã", expected: "sn-01/a"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Text(tc.value); got != tc.expected {
				t.Errorf("Text(%#v) = %q, expected %q", tc.value, got, tc.expected)
			}
		})
	}
}

func TestTextIdempotent(t *testing.T) {
	inputs := []string{"João Silva", "MARIA SOUZA", "Ação Rápida", "İ", "ǅemal", "  spaced  ", "ﬁle"}

	for _, in := range inputs {
		once := Text(in)
		if twice := Text(once); twice != once {
			t.Errorf("Text not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestTextCaseAndAccentInsensitive(t *testing.T) {
	if Text("João") != Text("JOAO") || Text("JOAO") != "joao" {
		t.Errorf("Expected João and JOAO to normalize to joao, got %q and %q", Text("João"), Text("JOAO"))
	}
}

func TestQuery(t *testing.T) {
	tests := map[string]struct {
		query    string
		expected string
		blank    bool
	}{
		"empty":     {query: "", expected: "", blank: true},
		"spaces":    {query: "   ", expected: "   ", blank: true},
		"tabs":      {query: "\t\n", expected: "\t\n", blank: true},
		"only_mark": {query: "\u0301", expected: "", blank: true},
		"text":      {query: "João", expected: "joao", blank: false},
		"padded":    {query: " Silv ", expected: " silv ", blank: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, blank := Query(tc.query)
			if got != tc.expected || blank != tc.blank {
				t.Errorf("Query(%q) = (%q, %v), expected (%q, %v)", tc.query, got, blank, tc.expected, tc.blank)
			}
		})
	}
}
