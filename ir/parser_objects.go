package ir

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

func (p *Parser) parseCreateSequence(stmt *pg_query.CreateSeqStmt) error {
	ns, name := p.extractRangeVar(stmt.Sequence)
	seq := &Sequence{Namespace: ns, Name: name, Increment: 1, StartValue: 1}

	for _, opt := range stmt.Options {
		defElem := opt.GetDefElem()
		if defElem == nil {
			continue
		}
		switch defElem.Defname {
		case "as":
			if tn := defElem.Arg.GetTypeName(); tn != nil {
				seq.DataType = lastTypeNamePart(tn)
			}
		case "start":
			if v, ok := extractIntValue(defElem.Arg); ok {
				seq.StartValue = v
			}
		case "increment":
			if v, ok := extractIntValue(defElem.Arg); ok {
				seq.Increment = v
			}
		case "minvalue":
			if v, ok := extractIntValue(defElem.Arg); ok {
				seq.MinValue = &v
			}
		case "maxvalue":
			if v, ok := extractIntValue(defElem.Arg); ok {
				seq.MaxValue = &v
			}
		case "cycle":
			seq.Cycle = true
		case "nocycle":
			seq.Cycle = false
		case "owned_by":
			if lst := defElem.Arg.GetList(); lst != nil {
				var parts []string
				for _, it := range lst.Items {
					if str := it.GetString_(); str != nil {
						parts = append(parts, str.Sval)
					}
				}
				if len(parts) >= 2 && !strings.EqualFold(parts[len(parts)-1], "none") {
					seq.OwnedByColumn = parts[len(parts)-1]
					ownerNS, ownerTable := ns, parts[0]
					if len(parts) >= 3 {
						ownerNS, ownerTable = parts[0], parts[1]
					}
					seq.OwnedByTable = NewQualifiedName(ownerNS, ownerTable).String()
				}
			}
		}
	}

	return p.schema.AddSequence(seq, p.source)
}

func (p *Parser) parseCreateEnum(stmt *pg_query.CreateEnumStmt) error {
	ns, name := namesToQualified(stmt.TypeName, p.namespace)
	if name == "" {
		return nil
	}
	var values []string
	for _, v := range stmt.Vals {
		if str := v.GetString_(); str != nil {
			values = append(values, str.Sval)
		}
	}
	return p.schema.AddEnum(&Enum{Namespace: ns, Name: name, Values: values}, p.source)
}

func (p *Parser) parseCreateDomain(stmt *pg_query.CreateDomainStmt) error {
	ns, name := namesToQualified(stmt.Domainname, p.namespace)
	if name == "" {
		return nil
	}
	domain := &Domain{Namespace: ns, Name: name, Nullable: true}
	if stmt.TypeName != nil {
		domain.BaseType = p.resolveTypeName(stmt.TypeName)
	}
	for _, c := range stmt.Constraints {
		cons := c.GetConstraint()
		if cons == nil {
			continue
		}
		switch cons.Contype {
		case pg_query.ConstrType_CONSTR_NOTNULL:
			domain.Nullable = false
		case pg_query.ConstrType_CONSTR_DEFAULT:
			if cons.RawExpr != nil {
				domain.Default = p.extractDefaultValue(cons.RawExpr)
			}
		case pg_query.ConstrType_CONSTR_CHECK:
			if cons.RawExpr != nil {
				domain.Constraints = append(domain.Constraints, NormalizeBody(deparseExpr(cons.RawExpr)))
			}
		}
	}
	return p.schema.AddDomain(domain, p.source)
}

func (p *Parser) parseCreateView(stmt *pg_query.ViewStmt) error {
	ns, name := p.extractRangeVar(stmt.View)
	def := ""
	if stmt.Query != nil {
		def = NormalizeBody(deparseStmt(stmt.Query))
	}
	return p.schema.AddView(&View{Namespace: ns, Name: name, Definition: def}, p.source)
}

func (p *Parser) parseCreateFunction(stmt *pg_query.CreateFunctionStmt) error {
	if stmt.IsProcedure {
		return nil // procedures are not a CIR object kind (spec.md §3)
	}
	ns, name := namesToQualified(stmt.Funcname, p.namespace)
	if name == "" {
		return nil
	}

	fn := &Function{Namespace: ns, Name: name, Volatility: "VOLATILE", ReturnType: RawType("void")}
	if stmt.ReturnType != nil {
		fn.ReturnType = p.resolveTypeName(stmt.ReturnType)
	}

	for _, param := range stmt.Parameters {
		fp := param.GetFunctionParameter()
		if fp == nil {
			continue
		}
		arg := FunctionArg{Name: fp.Name, Mode: functionParamMode(fp.Mode)}
		if fp.ArgType != nil {
			arg.Type = p.resolveTypeName(fp.ArgType)
		}
		if fp.Defexpr != nil {
			arg.Default = p.extractDefaultValue(fp.Defexpr)
		}
		if arg.Mode == "IN" || arg.Mode == "INOUT" || arg.Mode == "VARIADIC" {
			fn.Arguments = append(fn.Arguments, arg)
		}
	}

	for _, opt := range stmt.Options {
		defElem := opt.GetDefElem()
		if defElem == nil {
			continue
		}
		switch defElem.Defname {
		case "language":
			fn.Language = extractStringValue(defElem.Arg)
		case "volatility":
			fn.Volatility = strings.ToUpper(extractStringValue(defElem.Arg))
		case "security":
			if b := defElem.Arg.GetBoolean(); b != nil {
				fn.SecurityDefiner = b.Boolval
			}
		case "as":
			fn.Body = functionBodyFromArg(defElem.Arg)
		case "set":
			if cp := configParamFromDefElem(defElem); cp != nil {
				fn.ConfigParams = append(fn.ConfigParams, *cp)
			}
		}
	}

	return p.schema.AddFunction(fn, p.source)
}

func functionParamMode(mode pg_query.FunctionParameterMode) string {
	switch mode {
	case pg_query.FunctionParameterMode_FUNC_PARAM_OUT:
		return "OUT"
	case pg_query.FunctionParameterMode_FUNC_PARAM_INOUT:
		return "INOUT"
	case pg_query.FunctionParameterMode_FUNC_PARAM_VARIADIC:
		return "VARIADIC"
	case pg_query.FunctionParameterMode_FUNC_PARAM_TABLE:
		return "TABLE"
	default:
		return "IN"
	}
}

func functionBodyFromArg(arg *pg_query.Node) string {
	if arg == nil {
		return ""
	}
	if lst := arg.GetList(); lst != nil {
		var parts []string
		for _, it := range lst.Items {
			parts = append(parts, extractStringValue(it))
		}
		return strings.Join(parts, "\n")
	}
	return extractStringValue(arg)
}

// configParamFromDefElem turns a `SET key TO value[, ...]` function option
// into a (key, value) pair, joining multiple values with a comma the way
// PostgreSQL renders a multi-value SET list back in \df+ output.
func configParamFromDefElem(defElem *pg_query.DefElem) *ConfigParam {
	if defElem.Arg == nil {
		return nil
	}
	lst := defElem.Arg.GetList()
	if lst == nil {
		v := extractStringValue(defElem.Arg)
		if v == "" {
			return nil
		}
		return &ConfigParam{Key: defElem.Defname, Value: v}
	}
	var vals []string
	for _, it := range lst.Items {
		vals = append(vals, extractStringValue(it))
	}
	return &ConfigParam{Key: defElem.Defname, Value: strings.Join(vals, ",")}
}

func (p *Parser) parseCreateTrigger(stmt *pg_query.CreateTrigStmt, raw *pg_query.RawStmt) error {
	if stmt.Trigname == "" || stmt.Relation == nil {
		return nil
	}
	ns, tableName := p.extractRangeVar(stmt.Relation)

	var timing string
	switch {
	case stmt.Timing&2 != 0:
		timing = "BEFORE"
	case stmt.Timing&64 != 0:
		timing = "INSTEAD OF"
	default:
		timing = "AFTER"
	}

	var events []string
	if stmt.Events&4 != 0 {
		events = append(events, "INSERT")
	}
	if stmt.Events&16 != 0 {
		events = append(events, "UPDATE")
	}
	if stmt.Events&8 != 0 {
		events = append(events, "DELETE")
	}
	if stmt.Events&32 != 0 {
		events = append(events, "TRUNCATE")
	}

	level := "STATEMENT"
	if stmt.Row {
		level = "ROW"
	}

	funcNS, funcName := namesToQualified(stmt.Funcname, ns)
	if p.schema.LookupFunction(funcNS, funcName) == nil {
		p.Dangling = append(p.Dangling, &DanglingReferenceError{
			Pos: p.pos(raw), Directive: "CREATE TRIGGER", Target: NewQualifiedName(funcNS, funcName),
		})
	}

	condition := ""
	if stmt.WhenClause != nil {
		condition = NormalizeBody(deparseExpr(stmt.WhenClause))
	}

	trig := &Trigger{
		Namespace: ns, Name: stmt.Trigname, Table: tableName,
		Timing: timing, Events: events, Level: level,
		Function: NewQualifiedName(funcNS, funcName).String(), Condition: condition,
	}
	return p.schema.AddTrigger(trig, p.source)
}

func (p *Parser) parseCreatePolicy(stmt *pg_query.CreatePolicyStmt, raw *pg_query.RawStmt) error {
	if stmt.PolicyName == "" || stmt.Table == nil {
		return nil
	}
	ns, tableName := p.extractRangeVar(stmt.Table)
	table := p.schema.LookupTable(ns, tableName)
	if table == nil {
		p.Dangling = append(p.Dangling, &DanglingReferenceError{
			Pos: p.pos(raw), Directive: "CREATE POLICY", Target: NewQualifiedName(ns, tableName),
		})
		return nil
	}

	command := strings.ToUpper(stmt.CmdName)
	if command == "" {
		command = "ALL"
	}

	var roles []string
	for _, r := range stmt.Roles {
		if rs := r.GetRoleSpec(); rs != nil {
			if rs.Rolename != "" {
				roles = append(roles, rs.Rolename)
			} else if rs.Roletype == pg_query.RoleSpecType_ROLESPEC_PUBLIC {
				roles = append(roles, "PUBLIC")
			}
		}
	}
	if len(roles) == 0 {
		roles = []string{"PUBLIC"}
	}

	policy := &Policy{Name: stmt.PolicyName, Command: command, Roles: roles}
	if stmt.Qual != nil {
		policy.Using = NormalizeBody(deparseExpr(stmt.Qual))
	}
	if stmt.WithCheck != nil {
		policy.WithCheck = NormalizeBody(deparseExpr(stmt.WithCheck))
	}
	table.Policies[stmt.PolicyName] = policy
	return nil
}

func (p *Parser) parseCreateExtension(stmt *pg_query.CreateExtensionStmt) error {
	ext := &Extension{Namespace: p.namespace, Name: stmt.Extname}
	for _, opt := range stmt.Options {
		defElem := opt.GetDefElem()
		if defElem == nil {
			continue
		}
		switch defElem.Defname {
		case "schema":
			ext.Namespace = extractStringValue(defElem.Arg)
		case "new_version", "version":
			ext.Version = extractStringValue(defElem.Arg)
		}
	}
	return p.schema.AddExtension(ext, p.source)
}

// resolveTypeRefs retags every Type carrying a TypeRaw fallback whose raw
// name actually matches a parsed enum or domain, now that every source has
// been read and forward references are resolvable (spec.md §4.1: a column
// may reference an enum defined later in the same DDL file).
func (p *Parser) resolveTypeRefs() {
	resolve := func(t *Type) {
		if t.Tag != TypeRaw || t.RefName == "" {
			return
		}
		if _, ok := p.schema.Enums[NewQualifiedName(t.RefNamespace, t.RefName).String()]; ok {
			*t = EnumRefType(t.RefNamespace, t.RefName)
			return
		}
		if _, ok := p.schema.Domains[NewQualifiedName(t.RefNamespace, t.RefName).String()]; ok {
			*t = DomainRefType(t.RefNamespace, t.RefName)
		}
	}
	for _, table := range p.schema.Tables {
		for _, col := range table.Columns {
			resolve(&col.Type)
		}
	}
	for _, fn := range p.schema.Functions {
		resolve(&fn.ReturnType)
		for i := range fn.Arguments {
			resolve(&fn.Arguments[i].Type)
		}
	}
	for _, d := range p.schema.Domains {
		resolve(&d.BaseType)
	}
}

// resolveForeignKeyDefaults fills in ReferencedColumns for a foreign key
// whose DDL omitted an explicit column list (REFERENCES table with no
// "(cols)"), now that every source has been read and the referenced
// table's primary key is known. A reference to a table this schema never
// saw (or one without a primary key) is left unresolved, same as an
// unresolved type reference.
func (p *Parser) resolveForeignKeyDefaults() {
	for _, table := range p.schema.Tables {
		for _, fk := range table.ForeignKeys {
			if len(fk.ReferencedColumns) > 0 {
				continue
			}
			ref := p.schema.LookupTable(fk.ReferencedSchema, fk.ReferencedTable)
			if ref == nil || ref.PrimaryKey == nil {
				continue
			}
			fk.ReferencedColumns = append([]string(nil), ref.PrimaryKey.Columns...)
		}
	}
}
