package linter

import (
	"testing"

	"github.com/pgmold/pgmold/ir"
)

func TestLint_DropTableBlocksWithoutAllowDestructive(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpDropTable, Before: &ir.Table{Namespace: "public", Name: "orders"}},
	}

	result := Lint(ops, Options{})

	if !result.BlocksPlan {
		t.Fatal("expected DropTable without --allow-destructive to block the plan")
	}
	found := false
	for _, issue := range result.Issues {
		if issue.RuleID == "deny_drop_table" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected deny_drop_table issue, got %+v", result.Issues)
	}
}

func TestLint_DropTableAllowedWithFlagButBlockedInProduction(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpDropTable, Before: &ir.Table{Namespace: "public", Name: "orders"}},
	}

	result := Lint(ops, Options{AllowDestructive: true, ProductionMode: true})

	if !result.BlocksPlan {
		t.Fatal("expected DropTable to still block in production mode even with --allow-destructive")
	}
}

func TestLint_DropTableAllowedOutsideProduction(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpDropTable, Before: &ir.Table{Namespace: "public", Name: "orders"}},
	}

	result := Lint(ops, Options{AllowDestructive: true})

	if result.BlocksPlan {
		t.Errorf("expected no blocking issues, got %+v", result.Issues)
	}
	if len(result.Issues) != 1 || result.Issues[0].Severity != SeverityWarning {
		t.Errorf("expected exactly one data-loss warning, got %+v", result.Issues)
	}
}

func TestLint_AlterColumnNarrowingWarns(t *testing.T) {
	from := &ir.Column{Name: "amount", Type: ir.Type{Tag: ir.TypeBigInt}}
	to := &ir.Column{Name: "amount", Type: ir.Type{Tag: ir.TypeInteger}}
	ops := []ir.MigrationOp{
		{Kind: ir.OpAlterColumn, Table: ir.NewQualifiedName("public", "orders"), Before: from, After: to},
	}

	result := Lint(ops, Options{})

	if len(result.Issues) != 1 || result.Issues[0].RuleID != "warn_type_narrowing" {
		t.Errorf("expected warn_type_narrowing, got %+v", result.Issues)
	}
	if result.BlocksPlan {
		t.Error("narrowing is a warning, it should not block the plan")
	}
}

func TestLint_AddNotNullColumnWarns(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpAddColumn, Table: ir.NewQualifiedName("public", "users"), After: &ir.Column{Name: "email", Type: ir.Type{Tag: ir.TypeText}, Nullable: false}},
	}

	result := Lint(ops, Options{})

	if len(result.Issues) != 1 || result.Issues[0].RuleID != "warn_set_not_null" {
		t.Errorf("expected warn_set_not_null for a NOT NULL column add, got %+v", result.Issues)
	}
	if result.BlocksPlan {
		t.Error("adding a NOT NULL column is a warning, it should not block the plan")
	}
}

func TestLint_AddNullableColumnRaisesNoIssue(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpAddColumn, Table: ir.NewQualifiedName("public", "users"), After: &ir.Column{Name: "nickname", Type: ir.Type{Tag: ir.TypeText}, Nullable: true}},
	}

	result := Lint(ops, Options{})

	if len(result.Issues) != 0 {
		t.Errorf("expected no issues for a nullable column add, got %+v", result.Issues)
	}
}

func TestLint_AddForeignKeyWithoutNotValidIsLockHazardInfo(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpAddForeignKey, Table: ir.NewQualifiedName("public", "orders"), After: &ir.ForeignKey{Name: "orders_customer_fkey", NotValid: false}},
	}

	result := Lint(ops, Options{})

	if len(result.Issues) != 1 || result.Issues[0].Severity != SeverityInfo {
		t.Errorf("expected a single info-level lock hazard, got %+v", result.Issues)
	}
}

func TestLint_AddForeignKeyWithNotValidRaisesNoIssue(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpAddForeignKey, Table: ir.NewQualifiedName("public", "orders"), After: &ir.ForeignKey{Name: "orders_customer_fkey", NotValid: true}},
	}

	result := Lint(ops, Options{})

	if len(result.Issues) != 0 {
		t.Errorf("expected no issues for a NOT VALID foreign key add, got %+v", result.Issues)
	}
}

func TestLint_CleanPlanDoesNotBlock(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpCreateTable, After: &ir.Table{Namespace: "public", Name: "orders"}},
	}

	result := Lint(ops, Options{})

	if result.BlocksPlan || len(result.Issues) != 0 {
		t.Errorf("expected a clean plan, got %+v", result.Issues)
	}
}
