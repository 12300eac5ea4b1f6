package ir

// OpKind tags one entry in the operation taxonomy the differ emits and the
// planner orders (spec.md §4.4, §4.5).
type OpKind string

const (
	OpCreateExtension OpKind = "create_extension"
	OpDropExtension   OpKind = "drop_extension"

	OpCreateEnum   OpKind = "create_enum"
	OpDropEnum     OpKind = "drop_enum"
	OpAddEnumValue OpKind = "add_enum_value"

	OpCreateDomain OpKind = "create_domain"
	OpAlterDomain  OpKind = "alter_domain"
	OpDropDomain   OpKind = "drop_domain"

	OpCreateSequence OpKind = "create_sequence"
	OpAlterSequence  OpKind = "alter_sequence"
	OpDropSequence   OpKind = "drop_sequence"

	OpCreateTable OpKind = "create_table"
	OpDropTable   OpKind = "drop_table"

	OpAttachPartition OpKind = "attach_partition"
	OpDetachPartition OpKind = "detach_partition"

	OpAddColumn   OpKind = "add_column"
	OpDropColumn  OpKind = "drop_column"
	OpAlterColumn OpKind = "alter_column"

	OpAddPrimaryKey  OpKind = "add_primary_key"
	OpDropPrimaryKey OpKind = "drop_primary_key"

	OpAddIndex  OpKind = "add_index"
	OpDropIndex OpKind = "drop_index"

	OpAddForeignKey  OpKind = "add_foreign_key"
	OpDropForeignKey OpKind = "drop_foreign_key"

	OpAddCheck  OpKind = "add_check"
	OpDropCheck OpKind = "drop_check"

	OpEnableRLS   OpKind = "enable_rls"
	OpDisableRLS  OpKind = "disable_rls"
	OpForceRLS    OpKind = "force_rls"
	OpNoForceRLS  OpKind = "no_force_rls"

	OpCreatePolicy OpKind = "create_policy"
	OpAlterPolicy  OpKind = "alter_policy"
	OpDropPolicy   OpKind = "drop_policy"

	OpCreateFunction  OpKind = "create_function"
	OpReplaceFunction OpKind = "replace_function"
	OpDropFunction    OpKind = "drop_function"
	OpSetFunctionOwner OpKind = "set_function_owner"

	OpCreateView  OpKind = "create_view"
	OpReplaceView OpKind = "replace_view"
	OpDropView    OpKind = "drop_view"

	OpCreateTrigger OpKind = "create_trigger"
	OpAlterTrigger  OpKind = "alter_trigger"
	OpDropTrigger   OpKind = "drop_trigger"

	// Pseudo-ops emitted only by the Expand/Contract transformer (spec.md
	// §4.8); BackfillHint never reaches the SQL generator as DDL, the other
	// two render to real ALTER/VALIDATE statements once the transformer has
	// placed them in the Contract phase.
	OpBackfillHint        OpKind = "backfill_hint"
	OpSetColumnNotNull    OpKind = "set_column_not_null"
	OpValidateConstraint  OpKind = "validate_constraint"
)

// MigrationOp is a single unit of schema change. Table is the owning
// table's qualified name for a nested-kind op (column/index/foreign
// key/check/policy/RLS-flag/partition-attach); it is the zero QualifiedName
// for a top-level op. Before/After hold the op's payload (a pointer to the
// relevant CIR struct, a string for an enum value, or a bool for an
// RLS-flag op); exactly one is nil for a pure create or pure drop, both are
// set for an alter.
type MigrationOp struct {
	Kind      OpKind
	Table     QualifiedName
	Before    any
	After     any
	Rationale string

	// Concurrent marks an AddIndex op that the Expand/Contract transformer
	// has rewritten to run as CREATE INDEX CONCURRENTLY (spec.md §4.8).
	Concurrent bool
}

// payload returns whichever of Before/After is non-nil, the value a
// create-only or drop-only op carries.
func (op MigrationOp) payload() any {
	if op.After != nil {
		return op.After
	}
	return op.Before
}

// Extension returns the op's Extension payload, or nil if this op is not an
// extension op.
func (op MigrationOp) Extension() *Extension { e, _ := op.payload().(*Extension); return e }

// Enum returns the op's Enum payload.
func (op MigrationOp) Enum() *Enum { e, _ := op.payload().(*Enum); return e }

// EnumValueAdded returns the value added by an AddEnumValue op.
func (op MigrationOp) EnumValueAdded() string { s, _ := op.After.(string); return s }

// Domain returns the op's Domain payload.
func (op MigrationOp) Domain() *Domain { d, _ := op.payload().(*Domain); return d }

// Sequence returns the op's Sequence payload.
func (op MigrationOp) Sequence() *Sequence { s, _ := op.payload().(*Sequence); return s }

// TableObj returns the op's Table payload (named to avoid colliding with
// the Table field, which addresses the *owning* table of a nested op).
func (op MigrationOp) TableObj() *Table { t, _ := op.payload().(*Table); return t }

// Partition returns the op's Partition payload.
func (op MigrationOp) Partition() *Partition { p, _ := op.payload().(*Partition); return p }

// Column returns the op's Column payload.
func (op MigrationOp) Column() *Column { c, _ := op.payload().(*Column); return c }

// PrimaryKey returns the op's PrimaryKey payload.
func (op MigrationOp) PrimaryKey() *PrimaryKey { pk, _ := op.payload().(*PrimaryKey); return pk }

// Index returns the op's Index payload.
func (op MigrationOp) Index() *Index { i, _ := op.payload().(*Index); return i }

// ForeignKey returns the op's ForeignKey payload.
func (op MigrationOp) ForeignKey() *ForeignKey { fk, _ := op.payload().(*ForeignKey); return fk }

// Check returns the op's Check payload.
func (op MigrationOp) Check() *Check { c, _ := op.payload().(*Check); return c }

// Policy returns the op's Policy payload.
func (op MigrationOp) Policy() *Policy { p, _ := op.payload().(*Policy); return p }

// Function returns the op's Function payload.
func (op MigrationOp) Function() *Function { f, _ := op.payload().(*Function); return f }

// View returns the op's View payload.
func (op MigrationOp) View() *View { v, _ := op.payload().(*View); return v }

// Trigger returns the op's Trigger payload.
func (op MigrationOp) Trigger() *Trigger { t, _ := op.payload().(*Trigger); return t }

// kindOrder is the fixed partial order used by the Create bucket (spec.md
// §4.5 item 2); the Drop bucket uses its exact reverse.
var kindOrder = map[OpKind]int{
	OpCreateExtension: 0,

	OpCreateEnum:   1,
	OpAddEnumValue: 2,

	OpCreateDomain: 3,
	OpAlterDomain:  3,

	OpCreateSequence: 4,
	OpAlterSequence:  4,

	OpCreateTable: 5,

	OpAttachPartition: 6,

	OpAddColumn:   7,
	OpAlterColumn: 7,

	OpAddPrimaryKey: 8,

	OpAddIndex: 9,

	OpAddForeignKey: 10,

	OpAddCheck: 11,

	OpEnableRLS:  12,
	OpForceRLS:   12,
	OpDisableRLS: 12,
	OpNoForceRLS: 12,

	OpCreatePolicy: 13,
	OpAlterPolicy:  13,

	OpCreateFunction:   14,
	OpReplaceFunction:  14,
	OpSetFunctionOwner: 14,

	OpCreateView:  15,
	OpReplaceView: 15,

	OpCreateTrigger: 16,
	OpAlterTrigger:  16,
}

// CreateOrder returns this op's position in the fixed Create-bucket kind
// order (spec.md §4.5 item 2). Drop ops use DropOrder instead.
func (k OpKind) CreateOrder() int {
	if v, ok := kindOrder[k]; ok {
		return v
	}
	return len(kindOrder) // unknown/pseudo kinds sort last, stably, within their bucket
}

// dropKindOrder mirrors kindOrder's drop-side counterparts: triggers →
// views → functions → policies → RLS → checks → foreign-keys → indexes →
// primary-keys → column-drops → partitions → tables → sequences → domains
// → enums → extensions (spec.md §4.5 item 4).
var dropKindOrder = map[OpKind]int{
	OpDropTrigger: 0,

	OpDropView: 1,

	OpDropFunction: 2,

	OpDropPolicy: 3,

	OpDisableRLS: 4,
	OpNoForceRLS: 4,

	OpDropCheck: 5,

	OpDropForeignKey: 6,

	OpDropIndex: 7,

	OpDropPrimaryKey: 8,

	OpDropColumn: 9,

	OpDetachPartition: 10,

	OpDropTable: 11,

	OpDropSequence: 12,

	OpDropDomain: 13,

	OpDropEnum: 14,

	OpDropExtension: 15,
}

// DropOrder returns this op's position in the fixed Drop-bucket kind order.
func (k OpKind) DropOrder() int {
	if v, ok := dropKindOrder[k]; ok {
		return v
	}
	return len(dropKindOrder)
}

// IsDrop reports whether this op kind belongs in the Drop bucket (spec.md
// §4.5 item 1: "alters and adds go to Create; drops to Drop").
func (k OpKind) IsDrop() bool {
	_, ok := dropKindOrder[k]
	return ok
}
