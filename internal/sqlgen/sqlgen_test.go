package sqlgen

import (
	"strings"
	"testing"

	"github.com/pgmold/pgmold/ir"
)

func TestGenerate_CreateExtensionWithSchemaAndVersion(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpCreateExtension, After: &ir.Extension{Name: "postgis", Namespace: "gis", Version: "3.4"}},
	}

	got := Generate(ops)

	want := `CREATE EXTENSION "postgis" SCHEMA "gis" VERSION '3.4';`
	if len(got) != 1 || got[0] != want {
		t.Errorf("got %v, want [%q]", got, want)
	}
}

func TestGenerate_CreateEnumQuotesValues(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpCreateEnum, After: &ir.Enum{Namespace: "public", Name: "status", Values: []string{"open", "it's closed"}}},
	}

	got := Generate(ops)

	want := `CREATE TYPE "public"."status" AS ENUM ('open', 'it''s closed');`
	if len(got) != 1 || got[0] != want {
		t.Errorf("got %v, want [%q]", got, want)
	}
}

func TestGenerate_AddEnumValueEscapesLiteral(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpAddEnumValue, Table: ir.NewQualifiedName("public", "status"), After: "o'brien"},
	}

	got := Generate(ops)

	want := `ALTER TYPE "public"."status" ADD VALUE 'o''brien';`
	if len(got) != 1 || got[0] != want {
		t.Errorf("got %v, want [%q]", got, want)
	}
}

func TestGenerate_DropIndexUsesTableNamespace(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpDropIndex, Table: ir.NewQualifiedName("public", "orders"), Before: &ir.Index{Name: "orders_customer_idx"}},
	}

	got := Generate(ops)

	want := `DROP INDEX "public"."orders_customer_idx";`
	if len(got) != 1 || got[0] != want {
		t.Errorf("got %v, want [%q]", got, want)
	}
}

func TestGenerate_BackfillHintProducesNoDDL(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpBackfillHint, Table: ir.NewQualifiedName("public", "orders"), Rationale: "backfill new_total before validating NOT NULL"},
	}

	got := Generate(ops)
	if len(got) != 0 {
		t.Errorf("expected no statements for a pseudo-op, got %v", got)
	}
}

func TestGenerate_AlterDomainDropsDefaultAndSetsNotNull(t *testing.T) {
	from := &ir.Domain{Namespace: "public", Name: "email", Default: "''", Nullable: true}
	to := &ir.Domain{Namespace: "public", Name: "email", Default: "", Nullable: false}
	ops := []ir.MigrationOp{
		{Kind: ir.OpAlterDomain, Before: from, After: to},
	}

	got := Generate(ops)

	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %v", got)
	}
	if !strings.Contains(got[0], "DROP DEFAULT") {
		t.Errorf("expected first statement to drop default, got %q", got[0])
	}
	if !strings.Contains(got[1], "SET NOT NULL") {
		t.Errorf("expected second statement to set not null, got %q", got[1])
	}
}
