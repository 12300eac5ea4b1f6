package drift

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/pgmold/pgmold"
)

// driftReportSchema pins the "--json" wire shape spec.md §6 documents, so a
// future field rename or type change is caught here instead of by a
// downstream consumer parsing the report.
const driftReportSchema = `{
	"type": "object",
	"required": ["has_drift", "expected_fingerprint", "actual_fingerprint", "differences"],
	"properties": {
		"has_drift": {"type": "boolean"},
		"expected_fingerprint": {"type": "string"},
		"actual_fingerprint": {"type": "string"},
		"differences": {"type": "array", "items": {"type": "string"}}
	},
	"additionalProperties": false
}`

func compileDriftReportSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("drift-report.json", strings.NewReader(driftReportSchema)); err != nil {
		t.Fatalf("adding schema resource: %v", err)
	}
	schema, err := compiler.Compile("drift-report.json")
	if err != nil {
		t.Fatalf("compiling schema: %v", err)
	}
	return schema
}

func TestDriftReportJSON_MatchesSchema(t *testing.T) {
	schema := compileDriftReportSchema(t)

	report := pgmold.DriftReport{
		HasDrift:            true,
		ExpectedFingerprint: "abc123",
		ActualFingerprint:   "def456",
		Differences:         []string{"table public.orders is missing column total"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(report); err != nil {
		t.Fatalf("encoding report: %v", err)
	}

	var instance any
	if err := json.Unmarshal(buf.Bytes(), &instance); err != nil {
		t.Fatalf("decoding report: %v", err)
	}

	if err := schema.Validate(instance); err != nil {
		t.Errorf("report does not match documented JSON shape: %v", err)
	}
}

func TestDriftReportJSON_RejectsUnknownField(t *testing.T) {
	schema := compileDriftReportSchema(t)

	var instance any
	bad := `{"has_drift": false, "expected_fingerprint": "a", "actual_fingerprint": "a", "differences": [], "surprise_field": 1}`
	if err := json.Unmarshal([]byte(bad), &instance); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}

	if err := schema.Validate(instance); err == nil {
		t.Error("expected validation to reject an undocumented field")
	}
}
