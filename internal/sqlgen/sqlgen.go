// Package sqlgen renders an ordered op sequence into DDL text. It is the
// only component in the pipeline that produces SQL (spec.md §4.6).
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/pgmold/pgmold/ir"
)

// Generate renders every op in ops to its DDL statements, in order. Of the
// Expand/Contract transformer's pseudo-ops, BackfillHint renders to no DDL,
// while SetColumnNotNull and ValidateConstraint render as ALTER TABLE
// statements.
func Generate(ops []ir.MigrationOp) []string {
	var stmts []string
	for _, op := range ops {
		stmts = append(stmts, renderOp(op)...)
	}
	return stmts
}

func renderOp(op ir.MigrationOp) []string {
	switch op.Kind {
	case ir.OpCreateExtension:
		return []string{renderCreateExtension(op.Extension())}
	case ir.OpDropExtension:
		return []string{fmt.Sprintf(`DROP EXTENSION %s;`, ir.QuoteIdentifier(op.Extension().Name))}

	case ir.OpCreateEnum:
		return []string{renderCreateEnum(op.Enum())}
	case ir.OpDropEnum:
		return []string{fmt.Sprintf(`DROP TYPE %s;`, ir.QuoteQName(op.Enum().QName()))}
	case ir.OpAddEnumValue:
		return []string{fmt.Sprintf(`ALTER TYPE %s ADD VALUE '%s';`, ir.QuoteQName(op.Table), escapeLiteral(op.EnumValueAdded()))}

	case ir.OpCreateDomain:
		return []string{renderCreateDomain(op.Domain())}
	case ir.OpAlterDomain:
		return renderAlterDomain(op.Before.(*ir.Domain), op.After.(*ir.Domain))
	case ir.OpDropDomain:
		return []string{fmt.Sprintf(`DROP DOMAIN %s;`, ir.QuoteQName(op.Domain().QName()))}

	case ir.OpCreateSequence:
		return []string{renderCreateSequence(op.Sequence())}
	case ir.OpAlterSequence:
		return []string{renderAlterSequence(op.Sequence())}
	case ir.OpDropSequence:
		return []string{fmt.Sprintf(`DROP SEQUENCE %s;`, ir.QuoteQName(op.Sequence().QName()))}

	case ir.OpCreateTable:
		return []string{renderCreateTable(op.TableObj())}
	case ir.OpDropTable:
		return []string{fmt.Sprintf(`DROP TABLE %s;`, ir.QuoteQName(op.TableObj().QName()))}

	case ir.OpAttachPartition:
		return []string{renderAttachPartition(op.Partition())}
	case ir.OpDetachPartition:
		return []string{renderDetachPartition(op.Before.(*ir.Partition))}

	case ir.OpAddColumn:
		return []string{renderAddColumn(op.Table, op.Column())}
	case ir.OpDropColumn:
		return []string{fmt.Sprintf(`ALTER TABLE %s DROP COLUMN %s;`, ir.QuoteQName(op.Table), ir.QuoteIdentifier(op.Column().Name))}
	case ir.OpAlterColumn:
		return renderAlterColumn(op.Table, op.Before.(*ir.Column), op.After.(*ir.Column))

	case ir.OpAddPrimaryKey:
		return []string{renderAddPrimaryKey(op.Table, op.PrimaryKey())}
	case ir.OpDropPrimaryKey:
		return []string{fmt.Sprintf(`ALTER TABLE %s DROP CONSTRAINT %s;`, ir.QuoteQName(op.Table), ir.QuoteIdentifier(op.PrimaryKey().Name))}

	case ir.OpAddIndex:
		return []string{renderCreateIndex(op.Table, op.Index(), op.Concurrent)}
	case ir.OpDropIndex:
		return []string{fmt.Sprintf(`DROP INDEX %s;`, ir.QuoteQualified(op.Table.Namespace, op.Index().Name))}

	case ir.OpAddForeignKey:
		return []string{renderAddForeignKey(op.Table, op.ForeignKey())}
	case ir.OpDropForeignKey:
		return []string{fmt.Sprintf(`ALTER TABLE %s DROP CONSTRAINT %s;`, ir.QuoteQName(op.Table), ir.QuoteIdentifier(op.ForeignKey().Name))}

	case ir.OpAddCheck:
		return []string{renderAddCheck(op.Table, op.Check())}
	case ir.OpDropCheck:
		return []string{fmt.Sprintf(`ALTER TABLE %s DROP CONSTRAINT %s;`, ir.QuoteQName(op.Table), ir.QuoteIdentifier(op.Check().Name))}

	case ir.OpEnableRLS:
		return []string{fmt.Sprintf(`ALTER TABLE %s ENABLE ROW LEVEL SECURITY;`, ir.QuoteQName(op.Table))}
	case ir.OpDisableRLS:
		return []string{fmt.Sprintf(`ALTER TABLE %s DISABLE ROW LEVEL SECURITY;`, ir.QuoteQName(op.Table))}
	case ir.OpForceRLS:
		return []string{fmt.Sprintf(`ALTER TABLE %s FORCE ROW LEVEL SECURITY;`, ir.QuoteQName(op.Table))}
	case ir.OpNoForceRLS:
		return []string{fmt.Sprintf(`ALTER TABLE %s NO FORCE ROW LEVEL SECURITY;`, ir.QuoteQName(op.Table))}

	case ir.OpCreatePolicy:
		return []string{renderPolicy("CREATE", op.Table, op.Policy())}
	case ir.OpAlterPolicy:
		return []string{renderAlterPolicy(op.Table, op.Policy())}
	case ir.OpDropPolicy:
		return []string{fmt.Sprintf(`DROP POLICY %s ON %s;`, ir.QuoteIdentifier(op.Policy().Name), ir.QuoteQName(op.Table))}

	case ir.OpCreateFunction:
		return renderFunction(false, op.Function())
	case ir.OpReplaceFunction:
		return renderFunction(true, op.After.(*ir.Function))
	case ir.OpDropFunction:
		return []string{fmt.Sprintf(`DROP FUNCTION %s(%s);`, ir.QuoteQName(op.Function().QName()), argTypeList(op.Function()))}
	case ir.OpSetFunctionOwner:
		return []string{renderSetFunctionOwner(op.After.(*ir.Function))}

	case ir.OpCreateView:
		return []string{renderCreateView(false, op.View())}
	case ir.OpReplaceView:
		return []string{renderCreateView(true, op.After.(*ir.View))}
	case ir.OpDropView:
		return []string{fmt.Sprintf(`DROP VIEW %s;`, ir.QuoteQName(op.View().QName()))}

	case ir.OpCreateTrigger:
		return []string{renderCreateTrigger(op.Trigger())}
	case ir.OpDropTrigger:
		return []string{fmt.Sprintf(`DROP TRIGGER %s ON %s;`, ir.QuoteIdentifier(op.Trigger().Name), ir.QuoteQualified(op.Table.Namespace, op.Trigger().Table))}

	case ir.OpSetColumnNotNull:
		return []string{fmt.Sprintf(`ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;`, ir.QuoteQName(op.Table), ir.QuoteIdentifier(op.Column().Name))}

	case ir.OpValidateConstraint:
		name := op.Rationale
		if fk := op.ForeignKey(); fk != nil {
			name = fk.Name
		} else if c := op.Check(); c != nil {
			name = c.Name
		}
		return []string{fmt.Sprintf(`ALTER TABLE %s VALIDATE CONSTRAINT %s;`, ir.QuoteQName(op.Table), ir.QuoteIdentifier(name))}

	case ir.OpBackfillHint:
		return nil // a pseudo-op; the caller performs data movement, not DDL
	}
	return nil
}

func escapeLiteral(s string) string { return strings.ReplaceAll(s, "'", "''") }

func renderCreateExtension(e *ir.Extension) string {
	stmt := fmt.Sprintf(`CREATE EXTENSION %s`, ir.QuoteIdentifier(e.Name))
	if e.Namespace != "" && e.Namespace != ir.DefaultNamespace {
		stmt += fmt.Sprintf(` SCHEMA %s`, ir.QuoteIdentifier(e.Namespace))
	}
	if e.Version != "" {
		stmt += fmt.Sprintf(` VERSION '%s'`, escapeLiteral(e.Version))
	}
	return stmt + ";"
}

func renderCreateEnum(e *ir.Enum) string {
	var vals []string
	for _, v := range e.Values {
		vals = append(vals, "'"+escapeLiteral(v)+"'")
	}
	return fmt.Sprintf(`CREATE TYPE %s AS ENUM (%s);`, ir.QuoteQName(e.QName()), strings.Join(vals, ", "))
}

func renderCreateDomain(d *ir.Domain) string {
	stmt := fmt.Sprintf(`CREATE DOMAIN %s AS %s`, ir.QuoteQName(d.QName()), d.BaseType.Render())
	if !d.Nullable {
		stmt += " NOT NULL"
	}
	if d.Default != "" {
		stmt += " DEFAULT " + d.Default
	}
	for _, c := range d.Constraints {
		stmt += " CHECK (" + c + ")"
	}
	return stmt + ";"
}

func renderAlterDomain(from, to *ir.Domain) []string {
	var stmts []string
	if from.Default != to.Default {
		if to.Default == "" {
			stmts = append(stmts, fmt.Sprintf(`ALTER DOMAIN %s DROP DEFAULT;`, ir.QuoteQName(to.QName())))
		} else {
			stmts = append(stmts, fmt.Sprintf(`ALTER DOMAIN %s SET DEFAULT %s;`, ir.QuoteQName(to.QName()), to.Default))
		}
	}
	if from.Nullable != to.Nullable {
		if to.Nullable {
			stmts = append(stmts, fmt.Sprintf(`ALTER DOMAIN %s DROP NOT NULL;`, ir.QuoteQName(to.QName())))
		} else {
			stmts = append(stmts, fmt.Sprintf(`ALTER DOMAIN %s SET NOT NULL;`, ir.QuoteQName(to.QName())))
		}
	}
	return stmts
}

func renderCreateSequence(s *ir.Sequence) string {
	stmt := fmt.Sprintf(`CREATE SEQUENCE %s INCREMENT %d START %d`, ir.QuoteQName(s.QName()), s.Increment, s.StartValue)
	if s.MinValue != nil {
		stmt += fmt.Sprintf(` MINVALUE %d`, *s.MinValue)
	}
	if s.MaxValue != nil {
		stmt += fmt.Sprintf(` MAXVALUE %d`, *s.MaxValue)
	}
	if s.Cycle {
		stmt += " CYCLE"
	}
	stmt += ";"
	if s.OwnedByTable != "" && s.OwnedByColumn != "" {
		qn, _ := ir.ParseQualifiedName(s.OwnedByTable)
		stmt += fmt.Sprintf("\nALTER SEQUENCE %s OWNED BY %s.%s;", ir.QuoteQName(s.QName()), ir.QuoteQName(qn), ir.QuoteIdentifier(s.OwnedByColumn))
	}
	return stmt
}

func renderAlterSequence(s *ir.Sequence) string {
	stmt := fmt.Sprintf(`ALTER SEQUENCE %s INCREMENT %d`, ir.QuoteQName(s.QName()), s.Increment)
	if s.MinValue != nil {
		stmt += fmt.Sprintf(` MINVALUE %d`, *s.MinValue)
	}
	if s.MaxValue != nil {
		stmt += fmt.Sprintf(` MAXVALUE %d`, *s.MaxValue)
	}
	if s.Cycle {
		stmt += " CYCLE"
	} else {
		stmt += " NO CYCLE"
	}
	return stmt + ";"
}
