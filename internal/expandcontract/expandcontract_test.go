package expandcontract

import (
	"testing"

	"github.com/pgmold/pgmold/ir"
)

func TestTransform_NotNullColumnAddSplitsAcrossPhases(t *testing.T) {
	table := ir.NewQualifiedName("public", "orders")
	col := &ir.Column{Name: "total_cents", Type: ir.Type{Tag: ir.TypeBigInt}, Nullable: false}

	plan := Transform([]ir.MigrationOp{
		{Kind: ir.OpAddColumn, Table: table, After: col},
	})

	if len(plan.Expand) != 1 || plan.Expand[0].Column().Nullable != true {
		t.Fatalf("expected expand phase to add the column as nullable, got %+v", plan.Expand)
	}
	if len(plan.Backfill) != 1 || plan.Backfill[0].Kind != ir.OpBackfillHint {
		t.Fatalf("expected a single BackfillHint, got %+v", plan.Backfill)
	}
	if len(plan.Contract) != 1 || plan.Contract[0].Kind != ir.OpSetColumnNotNull {
		t.Fatalf("expected a deferred SetColumnNotNull, got %+v", plan.Contract)
	}
}

func TestTransform_ForeignKeyAddIsNotValidThenValidated(t *testing.T) {
	table := ir.NewQualifiedName("public", "orders")
	fk := &ir.ForeignKey{Name: "orders_customer_fkey"}

	plan := Transform([]ir.MigrationOp{
		{Kind: ir.OpAddForeignKey, Table: table, After: fk},
	})

	if len(plan.Expand) != 1 || !plan.Expand[0].ForeignKey().NotValid {
		t.Fatalf("expected expand phase FK add marked NOT VALID, got %+v", plan.Expand)
	}
	if len(plan.Contract) != 1 || plan.Contract[0].Kind != ir.OpValidateConstraint {
		t.Fatalf("expected a deferred ValidateConstraint, got %+v", plan.Contract)
	}
}

func TestTransform_IndexAddIsConcurrent(t *testing.T) {
	table := ir.NewQualifiedName("public", "orders")
	idx := &ir.Index{Name: "orders_customer_idx"}

	plan := Transform([]ir.MigrationOp{
		{Kind: ir.OpAddIndex, Table: table, After: idx},
	})

	if len(plan.Expand) != 1 || !plan.Expand[0].Concurrent {
		t.Fatalf("expected index add marked Concurrent, got %+v", plan.Expand)
	}
}

func TestTransform_DropsGoToContract(t *testing.T) {
	table := ir.NewQualifiedName("public", "orders")
	plan := Transform([]ir.MigrationOp{
		{Kind: ir.OpDropTable, Table: table, Before: &ir.Table{Namespace: "public", Name: "orders"}},
	})

	if len(plan.Expand) != 0 || len(plan.Contract) != 1 {
		t.Fatalf("expected the drop routed entirely to contract, got expand=%+v contract=%+v", plan.Expand, plan.Contract)
	}
}
