package ir

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Source is one named SQL blob to fold into a schema-set. Name is whatever
// the caller wants to show in a duplicate-definition or syntax-error
// message (a file path, typically).
type Source struct {
	Name string
	SQL  string
}

// Parser lifts DDL text into a Schema (spec.md §4.1). A single Parser
// accumulates state across every Source passed to ParseAll, so that a
// table's CREATE TABLE and a later ALTER TABLE can live in different files
// and still resolve against the same in-progress Schema.
type Parser struct {
	schema    *Schema
	namespace string // default namespace for unqualified names

	source string // name of the source currently being processed
	sql    string // text of the source currently being processed

	Dangling []*DanglingReferenceError // non-fatal: directive referenced an unseen object
}

// NewParser returns a Parser that will place unqualified objects in the
// "public" namespace.
func NewParser() *Parser {
	return &Parser{schema: New(), namespace: DefaultNamespace}
}

// ParseAll parses every source in order into one Schema. A syntax error in
// any source aborts immediately with a *SyntaxError; a duplicate top-level
// definition aborts with a *DuplicateError naming both sources. Dangling
// references (e.g. a trigger naming a function never defined) are
// collected on p.Dangling rather than treated as fatal, per spec.md §4.1.
func (p *Parser) ParseAll(sources []Source) (*Schema, error) {
	for _, src := range sources {
		if err := p.parseOne(src); err != nil {
			return nil, err
		}
	}
	p.resolveTypeRefs()
	p.resolveForeignKeyDefaults()
	return p.schema, nil
}

func (p *Parser) parseOne(src Source) error {
	p.source, p.sql = src.Name, src.SQL

	result, err := pg_query.Parse(src.SQL)
	if err != nil {
		return &SyntaxError{Pos: Position{Source: src.Name}, Err: err}
	}

	for _, raw := range result.Stmts {
		if raw.Stmt == nil {
			continue
		}
		if err := p.dispatch(raw.Stmt, raw); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) pos(raw *pg_query.RawStmt) Position {
	pos := Position{Source: p.source}
	if raw == nil {
		return pos
	}
	offset := int(raw.StmtLocation)
	if offset < 0 || offset > len(p.sql) {
		return pos
	}
	head := p.sql[:offset]
	pos.Line = strings.Count(head, "\n") + 1
	if idx := strings.LastIndexByte(head, '\n'); idx >= 0 {
		pos.Column = offset - idx
	} else {
		pos.Column = offset + 1
	}
	return pos
}

func (p *Parser) dispatch(node *pg_query.Node, raw *pg_query.RawStmt) error {
	switch n := node.Node.(type) {
	case *pg_query.Node_CreateStmt:
		return p.parseCreateTable(n.CreateStmt)
	case *pg_query.Node_AlterTableStmt:
		return p.parseAlterTable(n.AlterTableStmt, raw)
	case *pg_query.Node_IndexStmt:
		return p.parseCreateIndex(n.IndexStmt)
	case *pg_query.Node_CreateSeqStmt:
		return p.parseCreateSequence(n.CreateSeqStmt)
	case *pg_query.Node_CreateEnumStmt:
		return p.parseCreateEnum(n.CreateEnumStmt)
	case *pg_query.Node_CreateDomainStmt:
		return p.parseCreateDomain(n.CreateDomainStmt)
	case *pg_query.Node_ViewStmt:
		return p.parseCreateView(n.ViewStmt)
	case *pg_query.Node_CreateFunctionStmt:
		return p.parseCreateFunction(n.CreateFunctionStmt)
	case *pg_query.Node_CreateTrigStmt:
		return p.parseCreateTrigger(n.CreateTrigStmt, raw)
	case *pg_query.Node_CreatePolicyStmt:
		return p.parseCreatePolicy(n.CreatePolicyStmt, raw)
	case *pg_query.Node_CreateExtensionStmt:
		return p.parseCreateExtension(n.CreateExtensionStmt)
	case *pg_query.Node_AlterOwnerStmt:
		return p.parseAlterOwner(n.AlterOwnerStmt, raw)
	case *pg_query.Node_CreateSchemaStmt:
		return nil // schema creation is out of the CIR's scope (spec.md §3)
	case *pg_query.Node_CommentStmt:
		return p.parseComment(n.CommentStmt)
	default:
		return nil // constructs outside the supported subset are silently skipped, not fatal
	}
}

func (p *Parser) parseCreateTable(stmt *pg_query.CreateStmt) error {
	ns, name := p.extractRangeVar(stmt.Relation)
	table := newTable(ns, name)
	if err := p.schema.AddTable(table, p.source); err != nil {
		return err
	}

	if stmt.Partspec != nil {
		table.IsPartitioned = true
		strategy := strings.TrimPrefix(stmt.Partspec.GetStrategy().String(), "PARTITION_STRATEGY_")
		table.PartitionStrategy = strategy
		var keyParts []string
		for _, param := range stmt.Partspec.GetPartParams() {
			if elem := param.GetPartitionElem(); elem != nil {
				if elem.Name != "" {
					keyParts = append(keyParts, elem.Name)
				} else if elem.Expr != nil {
					keyParts = append(keyParts, deparseExpr(elem.Expr))
				}
			}
		}
		table.PartitionKey = strings.Join(keyParts, ", ")
	}

	position := len(table.Columns) + 1
	for _, elt := range stmt.TableElts {
		switch e := elt.Node.(type) {
		case *pg_query.Node_ColumnDef:
			col := p.parseColumnDef(e.ColumnDef, position, ns, name, table)
			table.Columns = append(table.Columns, col)
			position++
		case *pg_query.Node_Constraint:
			p.applyTableConstraint(e.Constraint, ns, name, table)
		}
	}

	if stmt.Partbound != nil {
		// This CREATE TABLE is itself a partition child; record the
		// attachment once the parent is known to exist (it always precedes
		// the child in well-formed DDL, per spec.md §4.1's statement-order
		// requirement for directives).
		parentNS, parentName := ns, ""
		if len(stmt.InhRelations) > 0 {
			if rv := stmt.InhRelations[0].GetRangeVar(); rv != nil {
				parentNS, parentName = p.extractRangeVar(rv)
			}
		}
		bound := partitionBoundFromDeparse(stmt)
		part := &Partition{
			Namespace:       ns,
			Name:            name,
			ParentNamespace: parentNS,
			ParentTable:     parentName,
			ForValuesClause: bound,
		}
		if err := p.schema.AddPartition(part, p.source); err != nil {
			return err
		}
	}

	return nil
}

// partitionBoundFromDeparse recovers the verbatim "FOR VALUES ..." clause
// by deparsing the whole CREATE TABLE statement and slicing the clause back
// out of the generated DDL text, since the bound spec itself has no
// standalone expression form to hand to the deparser (mirrors the
// wrap-and-deparse technique used for every other free-text expression).
func partitionBoundFromDeparse(stmt *pg_query.CreateStmt) string {
	ddl := deparseStmt(&pg_query.Node{Node: &pg_query.Node_CreateStmt{CreateStmt: stmt}})
	idx := strings.Index(strings.ToUpper(ddl), "FOR VALUES")
	if idx < 0 {
		return ""
	}
	clause := ddl[idx:]
	clause = strings.TrimSuffix(strings.TrimSpace(clause), ";")
	return clause
}

func (p *Parser) parseColumnDef(colDef *pg_query.ColumnDef, position int, ns, tableName string, table *Table) *Column {
	col := &Column{Name: colDef.Colname, Position: position, Nullable: true}

	if colDef.TypeName != nil {
		localName := lastTypeNamePart(colDef.TypeName)
		if seqBase, ok := serialBaseType(localName); ok {
			seqName := fmt.Sprintf("%s_%s_seq", tableName, colDef.Colname)
			col.Type = Type{Tag: tagForSerialBase(seqBase)}
			col.Nullable = false
			col.SequenceName = seqName
			col.Default = fmt.Sprintf("nextval('%s'::regclass)", seqName)
			_ = p.schema.AddSequence(&Sequence{
				Namespace: ns, Name: seqName, DataType: seqBase,
				Increment: 1, StartValue: 1,
				OwnedByTable: NewQualifiedName(ns, tableName).String(), OwnedByColumn: colDef.Colname,
			}, p.source) // implicit SERIAL sequence; a name clash here means the DDL itself redefines the sequence
		} else {
			col.Type = p.resolveTypeName(colDef.TypeName)
		}
	}

	for _, c := range colDef.Constraints {
		cons := c.GetConstraint()
		if cons == nil {
			continue
		}
		switch cons.Contype {
		case pg_query.ConstrType_CONSTR_NOTNULL:
			col.Nullable = false
		case pg_query.ConstrType_CONSTR_NULL:
			col.Nullable = true
		case pg_query.ConstrType_CONSTR_DEFAULT:
			if cons.RawExpr != nil {
				col.Default = p.extractDefaultValue(cons.RawExpr)
			}
		case pg_query.ConstrType_CONSTR_PRIMARY:
			col.Nullable = false
			name := cons.Conname
			if name == "" {
				name = fmt.Sprintf("%s_pkey", tableName)
			}
			table.PrimaryKey = &PrimaryKey{Name: name, Columns: []string{colDef.Colname}}
		case pg_query.ConstrType_CONSTR_UNIQUE:
			name := cons.Conname
			if name == "" {
				name = fmt.Sprintf("%s_%s_key", tableName, colDef.Colname)
			}
			table.Indexes[name] = &Index{
				Name: name, Method: "btree", Unique: true,
				Columns: []IndexColumn{{Expression: colDef.Colname}},
			}
		case pg_query.ConstrType_CONSTR_CHECK:
			if cons.RawExpr != nil {
				name := cons.Conname
				if name == "" {
					name = fmt.Sprintf("%s_%s_check", tableName, colDef.Colname)
				}
				table.Checks[name] = &Check{
					Name: name, Columns: []string{colDef.Colname},
					Clause: NormalizeBody(deparseExpr(cons.RawExpr)),
				}
			}
		case pg_query.ConstrType_CONSTR_FOREIGN:
			fk := p.inlineForeignKey(cons, colDef.Colname, tableName)
			table.ForeignKeys[fk.Name] = fk
		}
	}

	return col
}

func (p *Parser) inlineForeignKey(cons *pg_query.Constraint, columnName, tableName string) *ForeignKey {
	name := cons.Conname
	if name == "" {
		name = fmt.Sprintf("%s_%s_fkey", tableName, columnName)
	}
	refNS, refTable := p.extractRangeVar(cons.Pktable)
	var refCols []string
	for _, c := range cons.PkAttrs {
		if str := c.GetString_(); str != nil {
			refCols = append(refCols, str.Sval)
		}
	}
	// refCols stays nil when the DDL omits an explicit column list
	// (REFERENCES table with no "(cols)"); resolveForeignKeyDefaults fills
	// it in from the referenced table's actual primary key once every
	// source has been read.
	return &ForeignKey{
		Name: name, Columns: []string{columnName},
		ReferencedSchema: refNS, ReferencedTable: refTable, ReferencedColumns: refCols,
		OnDelete: referentialAction(cons.FkDelAction), OnUpdate: referentialAction(cons.FkUpdAction),
		NotValid: !cons.InitiallyValid,
	}
}

func (p *Parser) applyTableConstraint(cons *pg_query.Constraint, ns, tableName string, table *Table) {
	keys := cons.Keys
	if cons.Contype == pg_query.ConstrType_CONSTR_FOREIGN && len(keys) == 0 {
		keys = cons.FkAttrs
	}
	var cols []string
	for _, k := range keys {
		if str := k.GetString_(); str != nil {
			cols = append(cols, str.Sval)
		}
	}

	switch cons.Contype {
	case pg_query.ConstrType_CONSTR_PRIMARY:
		name := cons.Conname
		if name == "" {
			name = fmt.Sprintf("%s_pkey", tableName)
		}
		table.PrimaryKey = &PrimaryKey{Name: name, Columns: cols}
		for _, cn := range cols {
			for _, col := range table.Columns {
				if col.Name == cn {
					col.Nullable = false
				}
			}
		}
	case pg_query.ConstrType_CONSTR_UNIQUE:
		name := cons.Conname
		if name == "" {
			name = fmt.Sprintf("%s_%s_key", tableName, strings.Join(cols, "_"))
		}
		var idxCols []IndexColumn
		for _, c := range cols {
			idxCols = append(idxCols, IndexColumn{Expression: c})
		}
		table.Indexes[name] = &Index{Name: name, Method: "btree", Unique: true, Columns: idxCols}
	case pg_query.ConstrType_CONSTR_CHECK:
		name := cons.Conname
		if name == "" {
			name = fmt.Sprintf("%s_%s_check", tableName, strings.Join(cols, "_"))
		}
		clause := ""
		if cons.RawExpr != nil {
			clause = NormalizeBody(deparseExpr(cons.RawExpr))
		}
		table.Checks[name] = &Check{Name: name, Columns: cols, Clause: clause}
	case pg_query.ConstrType_CONSTR_FOREIGN:
		name := cons.Conname
		if name == "" {
			name = fmt.Sprintf("%s_%s_fkey", tableName, strings.Join(cols, "_"))
		}
		refNS, refTable := p.extractRangeVar(cons.Pktable)
		var refCols []string
		for _, c := range cons.PkAttrs {
			if str := c.GetString_(); str != nil {
				refCols = append(refCols, str.Sval)
			}
		}
		table.ForeignKeys[name] = &ForeignKey{
			Name: name, Columns: cols,
			ReferencedSchema: refNS, ReferencedTable: refTable, ReferencedColumns: refCols,
			OnDelete: referentialAction(cons.FkDelAction), OnUpdate: referentialAction(cons.FkUpdAction),
			NotValid: !cons.InitiallyValid,
		}
	}
}

func (p *Parser) parseAlterTable(stmt *pg_query.AlterTableStmt, raw *pg_query.RawStmt) error {
	if stmt.Objtype != pg_query.ObjectType_OBJECT_TABLE {
		return nil
	}
	ns, name := p.extractRangeVar(stmt.Relation)
	table := p.schema.LookupTable(ns, name)
	if table == nil {
		p.Dangling = append(p.Dangling, &DanglingReferenceError{Pos: p.pos(raw), Directive: "ALTER TABLE", Target: NewQualifiedName(ns, name)})
		return nil
	}

	for _, c := range stmt.Cmds {
		cmd := c.GetAlterTableCmd()
		if cmd == nil {
			continue
		}
		switch cmd.Subtype {
		case pg_query.AlterTableType_AT_AddColumn:
			if colDef := cmd.GetDef().GetColumnDef(); colDef != nil {
				col := p.parseColumnDef(colDef, len(table.Columns)+1, ns, name, table)
				table.Columns = append(table.Columns, col)
			}
		case pg_query.AlterTableType_AT_DropColumn:
			for i, col := range table.Columns {
				if col.Name == cmd.Name {
					table.Columns = append(table.Columns[:i], table.Columns[i+1:]...)
					break
				}
			}
		case pg_query.AlterTableType_AT_ColumnDefault:
			p.findColumn(table, cmd.Name, func(col *Column) {
				if cmd.Def != nil {
					col.Default = p.extractDefaultValue(cmd.Def)
				} else {
					col.Default = ""
				}
			})
		case pg_query.AlterTableType_AT_SetNotNull:
			p.findColumn(table, cmd.Name, func(col *Column) { col.Nullable = false })
		case pg_query.AlterTableType_AT_DropNotNull:
			p.findColumn(table, cmd.Name, func(col *Column) { col.Nullable = true })
		case pg_query.AlterTableType_AT_AlterColumnType:
			if colDef := cmd.GetDef().GetColumnDef(); colDef != nil && colDef.TypeName != nil {
				p.findColumn(table, cmd.Name, func(col *Column) { col.Type = p.resolveTypeName(colDef.TypeName) })
			}
		case pg_query.AlterTableType_AT_AddConstraint:
			if cons := cmd.GetDef().GetConstraint(); cons != nil {
				p.applyTableConstraint(cons, ns, name, table)
			}
		case pg_query.AlterTableType_AT_EnableRowSecurity:
			table.RLSEnabled = true
		case pg_query.AlterTableType_AT_DisableRowSecurity:
			table.RLSEnabled = false
		case pg_query.AlterTableType_AT_ForceRowSecurity:
			table.RLSForced = true
		case pg_query.AlterTableType_AT_NoForceRowSecurity:
			table.RLSForced = false
		}
	}
	return nil
}

// parseAlterOwner implements the `ALTER FUNCTION ... OWNER TO ...`
// post-processing directive named in spec.md §4.1; every other object type
// is ignored since owner isn't a CIR field on anything but Function.
func (p *Parser) parseAlterOwner(stmt *pg_query.AlterOwnerStmt, raw *pg_query.RawStmt) error {
	if stmt.ObjectType != pg_query.ObjectType_OBJECT_FUNCTION {
		return nil
	}
	owa := stmt.Object.GetObjectWithArgs()
	if owa == nil {
		return nil
	}
	ns, name := namesToQualified(owa.Objname, p.namespace)
	fn := p.schema.LookupFunction(ns, name)
	if fn == nil {
		p.Dangling = append(p.Dangling, &DanglingReferenceError{
			Pos: p.pos(raw), Directive: "ALTER FUNCTION OWNER TO", Target: NewQualifiedName(ns, name),
		})
		return nil
	}
	if stmt.Newowner != nil && stmt.Newowner.Rolename != "" {
		fn.Owner = stmt.Newowner.Rolename
	}
	return nil
}

func (p *Parser) findColumn(table *Table, name string, fn func(*Column)) {
	for _, col := range table.Columns {
		if col.Name == name {
			fn(col)
			return
		}
	}
}

func (p *Parser) parseCreateIndex(stmt *pg_query.IndexStmt) error {
	ns, tableName := p.extractRangeVar(stmt.Relation)
	table := p.schema.LookupTable(ns, tableName)
	if table == nil || stmt.Idxname == "" {
		return nil
	}

	method := stmt.AccessMethod
	if method == "" {
		method = "btree"
	}
	idx := &Index{Name: stmt.Idxname, Method: method, Unique: stmt.Unique}

	for _, elem := range stmt.IndexParams {
		ie := elem.GetIndexElem()
		if ie == nil {
			continue
		}
		expr := ie.Name
		if expr == "" && ie.Expr != nil {
			expr = deparseExpr(ie.Expr)
		}
		col := IndexColumn{Expression: expr, Desc: ie.Ordering == pg_query.SortByDir_SORTBY_DESC}
		if ie.NullsOrdering == pg_query.SortByNulls_SORTBY_NULLS_FIRST {
			col.NullsFirst = true
		}
		idx.Columns = append(idx.Columns, col)
	}

	if stmt.WhereClause != nil {
		idx.Predicate = NormalizeBody(deparseExpr(stmt.WhereClause))
	}

	table.Indexes[stmt.Idxname] = idx
	return nil
}

func (p *Parser) parseComment(stmt *pg_query.CommentStmt) error {
	// Comments attach free text to an already-parsed object; the object
	// must already exist (spec.md §4.1 statement-order requirement).
	text := ""
	if s := stmt.Comment; s != "" {
		text = s
	}
	switch stmt.Objtype {
	case pg_query.ObjectType_OBJECT_TABLE:
		if rv := objNameToRangeVar(stmt.Object); rv != nil {
			ns, name := p.extractRangeVar(rv)
			if t := p.schema.LookupTable(ns, name); t != nil {
				t.Comment = text
			}
		}
	case pg_query.ObjectType_OBJECT_COLUMN:
		// COMMENT ON COLUMN table.column is addressed as a dotted name list;
		// left unhandled since the CIR has no per-column free-text comment
		// requirement beyond what spec.md §3 names (out of scope here).
	}
	return nil
}

func objNameToRangeVar(obj *pg_query.Node) *pg_query.RangeVar {
	if obj == nil {
		return nil
	}
	return obj.GetRangeVar()
}

func lastTypeNamePart(tn *pg_query.TypeName) string {
	if tn == nil || len(tn.Names) == 0 {
		return ""
	}
	if str := tn.Names[len(tn.Names)-1].GetString_(); str != nil {
		return str.Sval
	}
	return ""
}

// serialBaseType recognises the SERIAL family pseudo-types and returns the
// underlying integer type PostgreSQL would substitute (spec.md §4.1).
func serialBaseType(typeName string) (baseType string, ok bool) {
	switch strings.ToLower(typeName) {
	case "serial", "serial4":
		return "integer", true
	case "smallserial", "serial2":
		return "smallint", true
	case "bigserial", "serial8":
		return "bigint", true
	default:
		return "", false
	}
}

func tagForSerialBase(base string) TypeTag {
	switch base {
	case "smallint":
		return TypeSmallInt
	case "bigint":
		return TypeBigInt
	default:
		return TypeInteger
	}
}
