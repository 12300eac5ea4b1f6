package planner

import (
	"testing"

	"github.com/pgmold/pgmold/ir"
)

func tableOp(t *ir.Table) ir.MigrationOp {
	return ir.MigrationOp{Kind: ir.OpCreateTable, After: t}
}

func TestPlan_CreateTablesOrderedByForeignKeyDependency(t *testing.T) {
	orders := &ir.Table{Namespace: "public", Name: "orders", ForeignKeys: map[string]*ir.ForeignKey{
		"orders_customer_fkey": {Name: "orders_customer_fkey", ReferencedSchema: "public", ReferencedTable: "customers"},
	}}
	customers := &ir.Table{Namespace: "public", Name: "customers", ForeignKeys: map[string]*ir.ForeignKey{}}

	target := ir.New()
	target.Tables["public.orders"] = orders
	target.Tables["public.customers"] = customers

	ops := []ir.MigrationOp{tableOp(orders), tableOp(customers)}

	out := Plan(ops, target)

	if len(out) != 2 {
		t.Fatalf("expected 2 ops, got %d", len(out))
	}
	if out[0].TableObj().Name != "customers" {
		t.Errorf("expected customers created before orders, got order: %s, %s", out[0].TableObj().Name, out[1].TableObj().Name)
	}
}

func TestPlan_DropsOrderedReverseOfCreates(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpDropTable, Before: &ir.Table{Namespace: "public", Name: "a"}},
		{Kind: ir.OpDropTrigger, Before: &ir.Trigger{Namespace: "public", Name: "t", Table: "a"}, Table: ir.NewQualifiedName("public", "a")},
		{Kind: ir.OpDropIndex, Before: &ir.Index{Name: "idx"}, Table: ir.NewQualifiedName("public", "a")},
	}

	out := Plan(ops, ir.New())

	if out[0].Kind != ir.OpDropTrigger {
		t.Errorf("expected trigger dropped first, got %s", out[0].Kind)
	}
	if out[len(out)-1].Kind != ir.OpDropTable {
		t.Errorf("expected table dropped last, got %s", out[len(out)-1].Kind)
	}
}

func TestPlan_CreatesBeforeDrops(t *testing.T) {
	ops := []ir.MigrationOp{
		{Kind: ir.OpDropTable, Before: &ir.Table{Namespace: "public", Name: "old"}},
		tableOp(&ir.Table{Namespace: "public", Name: "new"}),
	}

	out := Plan(ops, ir.New())

	if out[0].Kind != ir.OpCreateTable {
		t.Errorf("expected create before drop, got %s first", out[0].Kind)
	}
}

func TestPlan_SelfReferencingForeignKeyDoesNotBlock(t *testing.T) {
	node := &ir.Table{Namespace: "public", Name: "categories", ForeignKeys: map[string]*ir.ForeignKey{
		"categories_parent_fkey": {Name: "categories_parent_fkey", ReferencedSchema: "public", ReferencedTable: "categories"},
	}}
	target := ir.New()
	target.Tables["public.categories"] = node

	out := Plan([]ir.MigrationOp{tableOp(node)}, target)

	if len(out) != 1 || out[0].TableObj().Name != "categories" {
		t.Fatalf("expected self-referencing table to be created without blocking, got %#v", out)
	}
}
