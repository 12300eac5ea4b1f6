package differ

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/pgmold/pgmold/ir"
)

func TestDiff_CreateExtension(t *testing.T) {
	from := ir.New()
	to := ir.New()
	to.Extensions["public.uuid-ossp"] = &ir.Extension{Name: "uuid-ossp", Namespace: "public", Version: "1.1"}

	ops := Diff(from, to)

	require.Len(t, ops, 1)
	require.Equal(t, ir.OpCreateExtension, ops[0].Kind)
	require.Equal(t, "uuid-ossp", ops[0].Extension().Name)
}

func TestDiff_ExtensionVersionBumpIsDropThenCreate(t *testing.T) {
	from := ir.New()
	from.Extensions["public.postgis"] = &ir.Extension{Name: "postgis", Namespace: "public", Version: "3.1"}
	to := ir.New()
	to.Extensions["public.postgis"] = &ir.Extension{Name: "postgis", Namespace: "public", Version: "3.4"}

	ops := Diff(from, to)

	require.Len(t, ops, 2)
	require.Equal(t, ir.OpDropExtension, ops[0].Kind)
	require.Equal(t, ir.OpCreateExtension, ops[1].Kind)
}

func TestDiff_EnumTailAppendIsAddValue(t *testing.T) {
	from := ir.New()
	from.Enums["public.status"] = &ir.Enum{Namespace: "public", Name: "status", Values: []string{"open", "closed"}}
	to := ir.New()
	to.Enums["public.status"] = &ir.Enum{Namespace: "public", Name: "status", Values: []string{"open", "closed", "archived"}}

	ops := Diff(from, to)

	want := []ir.MigrationOp{
		{Kind: ir.OpAddEnumValue, Table: ir.NewQualifiedName("public", "status"), After: "archived", Rationale: "enum value appended to public.status"},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("unexpected ops (-want +got):\n%s", diff)
	}
}

func TestDiff_EnumMidListChangeIsDropThenCreate(t *testing.T) {
	from := ir.New()
	from.Enums["public.status"] = &ir.Enum{Namespace: "public", Name: "status", Values: []string{"open", "closed"}}
	to := ir.New()
	to.Enums["public.status"] = &ir.Enum{Namespace: "public", Name: "status", Values: []string{"closed", "open"}}

	ops := Diff(from, to)

	require.Len(t, ops, 2)
	require.Equal(t, ir.OpDropEnum, ops[0].Kind)
	require.Equal(t, ir.OpCreateEnum, ops[1].Kind)
}

func TestDiff_NoChangesIsEmpty(t *testing.T) {
	s := ir.New()
	s.Enums["public.status"] = &ir.Enum{Namespace: "public", Name: "status", Values: []string{"open"}}

	ops := Diff(s, s)
	require.Empty(t, ops)
}
