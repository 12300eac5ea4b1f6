package filter

import (
	"testing"

	"github.com/pgmold/pgmold/ir"
)

func schemaWithOneTable() *ir.Schema {
	s := ir.New()
	s.Tables["public.orders"] = &ir.Table{
		Namespace: "public",
		Name:      "orders",
		Indexes:   map[string]*ir.Index{"orders_idx": {Name: "orders_idx"}},
		ForeignKeys: map[string]*ir.ForeignKey{
			"orders_customer_fkey": {Name: "orders_customer_fkey"},
		},
		Checks:   map[string]*ir.Check{"orders_total_check": {Name: "orders_total_check"}},
		Policies: map[string]*ir.Policy{"orders_rls": {Name: "orders_rls"}},
	}
	s.Views["public.orders_view"] = &ir.View{Namespace: "public", Name: "orders_view"}
	s.Partitions["public.orders_2024"] = &ir.Partition{
		Namespace: "public", Name: "orders_2024",
		ParentNamespace: "public", ParentTable: "orders",
	}
	return s
}

func TestApply_ExcludeNestedKindStripsCollectionNotTable(t *testing.T) {
	s := schemaWithOneTable()
	f := New(Config{ExcludeKinds: []Kind{KindIndex}})

	out := Apply(s, f)

	table, ok := out.Tables["public.orders"]
	if !ok {
		t.Fatalf("expected table to survive nested-kind exclusion")
	}
	if len(table.Indexes) != 0 {
		t.Errorf("expected indexes stripped, got %d", len(table.Indexes))
	}
	if len(table.ForeignKeys) != 1 {
		t.Errorf("expected foreign keys untouched, got %d", len(table.ForeignKeys))
	}
}

func TestApply_ExcludeWinsOverInclude(t *testing.T) {
	s := schemaWithOneTable()
	f := New(Config{
		IncludeNames: []string{"public.orders"},
		ExcludeNames: []string{"public.orders"},
	})

	out := Apply(s, f)

	if len(out.Tables) != 0 {
		t.Errorf("expected exclude to win over include, got %d tables", len(out.Tables))
	}
}

func TestApply_EmptyIncludeMeansAll(t *testing.T) {
	s := schemaWithOneTable()
	f := New(Config{})

	out := Apply(s, f)

	if len(out.Tables) != 1 {
		t.Errorf("expected empty include list to retain all tables, got %d", len(out.Tables))
	}
}

func TestApply_IncludeKindsIsWhitelist(t *testing.T) {
	s := schemaWithOneTable()
	f := New(Config{IncludeKinds: []Kind{KindTable}})

	out := Apply(s, f)

	if len(out.Tables) != 1 {
		t.Errorf("expected table retained under table whitelist")
	}
	if len(out.Views) != 0 {
		t.Errorf("expected views excluded when only tables are whitelisted, got %d", len(out.Views))
	}
}

func TestApply_PartitionsAreFilterableLikeAnyOtherKind(t *testing.T) {
	s := schemaWithOneTable()
	f := New(Config{ExcludeKinds: []Kind{KindPartition}})

	out := Apply(s, f)

	if len(out.Partitions) != 0 {
		t.Errorf("expected partitions excluded under KindPartition exclude, got %d", len(out.Partitions))
	}
	if len(out.Tables) != 1 {
		t.Errorf("expected the non-partition table to survive, got %d", len(out.Tables))
	}
}

func TestApply_PartitionNamePatternGlob(t *testing.T) {
	s := schemaWithOneTable()
	f := New(Config{ExcludeNames: []string{"public.orders_2024"}})

	out := Apply(s, f)

	if len(out.Partitions) != 0 {
		t.Errorf("expected glob exclude to drop the partition, got %d", len(out.Partitions))
	}
}

func TestApply_NamePatternGlob(t *testing.T) {
	s := schemaWithOneTable()
	f := New(Config{ExcludeNames: []string{"public.ord*"}})

	out := Apply(s, f)

	if len(out.Tables) != 0 {
		t.Errorf("expected glob exclude to drop the table, got %d", len(out.Tables))
	}
}
