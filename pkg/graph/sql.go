package graph

import (
	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/xwb1989/sqlparser"
)

// DependentTables parses sql and returns the literal table identifiers
// referenced in its top-level FROM clause, including JOINs. Subqueries
// and CTEs are not traversed (known limitation, carried over from the
// original implementation). Non-SELECT statements yield an empty list.
func DependentTables(sql string) ([]string, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, errs.Wrap(errs.BadRequest, "parse sql", err)
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, nil
	}

	var tables []string
	for _, expr := range sel.From {
		collectTableNames(expr, &tables)
	}
	return tables, nil
}

// collectTableNames walks a single FROM-clause table expression,
// recursing into joins and parenthesized table expressions, and
// appends every literal table name it finds to tables.
func collectTableNames(expr sqlparser.TableExpr, tables *[]string) {
	switch t := expr.(type) {
	case *sqlparser.AliasedTableExpr:
		if name, ok := t.Expr.(sqlparser.TableName); ok && !name.IsEmpty() {
			*tables = append(*tables, name.Name.String())
		}
	case *sqlparser.JoinTableExpr:
		collectTableNames(t.LeftExpr, tables)
		collectTableNames(t.RightExpr, tables)
	case *sqlparser.ParenTableExpr:
		for _, inner := range t.Exprs {
			collectTableNames(inner, tables)
		}
	}
}
