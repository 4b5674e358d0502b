package ddb

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

const streamEvent = `{
	"Records": [
		{
			"eventID": "1",
			"eventName": "INSERT",
			"eventSource": "aws:dynamodb",
			"awsRegion": "sa-east-1",
			"dynamodb": {
				"Keys": {
					"pk": {"S": "material"},
					"sk": {"S": "42"}
				},
				"NewImage": {
					"pk": {"S": "material"},
					"sk": {"S": "42"},
					"object": {
						"M": {
							"nome": {"S": "Rádio HT"},
							"id_material": {"N": "42"},
							"ativo": {"BOOL": true},
							"fk_catalogo": {"NULL": true},
							"tags": {"L": [{"S": "comunicacao"}, {"S": "portatil"}]},
							"catalogo": {"M": {"nome": {"S": "Comunicação"}}}
						}
					}
				},
				"SequenceNumber": "100",
				"SizeBytes": 256,
				"StreamViewType": "NEW_AND_OLD_IMAGES"
			}
		},
		{
			"eventID": "2",
			"eventName": "REMOVE",
			"dynamodb": {
				"Keys": {
					"pk": {"S": "kv"},
					"sk": {"S": "plantonista_ativo"}
				}
			}
		}
	]
}`

func TestUnmarshalRecordFromStream(t *testing.T) {
	var e events.DynamoDBEvent
	if err := json.Unmarshal([]byte(streamEvent), &e); err != nil {
		t.Fatalf("Failed to unmarshal event: %v", err)
	}
	if len(e.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(e.Records))
	}

	record, err := UnmarshalRecord(e.Records[0].Change.NewImage)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if record.Kind != "material" || record.ID != "42" {
		t.Errorf("Expected material/42, got %s/%s", record.Kind, record.ID)
	}
	if record.IsState() {
		t.Error("Expected a record row, not state")
	}

	expected := map[string]any{
		"nome":        "Rádio HT",
		"id_material": float64(42),
		"ativo":       true,
		"fk_catalogo": nil,
		"tags":        []any{"comunicacao", "portatil"},
		"catalogo":    map[string]any{"nome": "Comunicação"},
	}
	if !reflect.DeepEqual(record.Object, expected) {
		t.Errorf("Expected object %#v, got %#v", expected, record.Object)
	}

	keys, err := UnmarshalRecord(e.Records[1].Change.Keys)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !keys.IsState() || keys.ID != "plantonista_ativo" {
		t.Errorf("Expected kv row, got %+v", keys)
	}
	if keys.Object != nil {
		t.Errorf("Expected no object in key set, got %v", keys.Object)
	}
}

func TestToAttributeValueSets(t *testing.T) {
	raw := `{
		"ss": {"SS": ["a", "b"]},
		"ns": {"NS": ["1", "2"]}
	}`
	var image map[string]events.DynamoDBAttributeValue
	if err := json.Unmarshal([]byte(raw), &image); err != nil {
		t.Fatal(err)
	}

	av, err := ToAttributeValueMap(image)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(av) != 2 {
		t.Errorf("Expected 2 attributes, got %d", len(av))
	}
}
