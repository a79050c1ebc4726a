package mysql

import (
	"sort"
	"strings"

	"hoteldesk/internal/domain"
)

// Statements are built from table descriptors at call time. Column names
// come from the static aggregate registry, never from raw client input,
// but they are still quoted to survive reserved words.

func quoteIdent(s string) string { return "`" + s + "`" }

// orderedCols returns the field columns sorted, so generated SQL is
// deterministic and testable.
func orderedCols(fields domain.Row) []string {
	cols := make([]string, 0, len(fields))
	for c := range fields {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func buildInsert(t domain.Table, cols []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quoteIdent(t.Name))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(c))
	}
	b.WriteString(") VALUES (")
	for i := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('?')
	}
	b.WriteByte(')')
	return b.String()
}

func buildUpdate(t domain.Table, cols []string, whereCol string) string {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(quoteIdent(t.Name))
	b.WriteString(" SET ")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(c))
		b.WriteString(" = ?")
	}
	b.WriteString(" WHERE ")
	b.WriteString(quoteIdent(whereCol))
	b.WriteString(" = ?")
	return b.String()
}

func buildSelect(t domain.Table, whereCol string, limitOne bool, orderByID bool) string {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(quoteIdent(t.Name))
	b.WriteString(" WHERE ")
	b.WriteString(quoteIdent(whereCol))
	b.WriteString(" = ?")
	if orderByID {
		b.WriteString(" ORDER BY ")
		b.WriteString(quoteIdent(t.IDCol))
	}
	if limitOne {
		b.WriteString(" LIMIT 1")
	}
	return b.String()
}

func buildExists(t domain.Table) string {
	return "SELECT 1 FROM " + quoteIdent(t.Name) + " WHERE " + quoteIdent(t.IDCol) + " = ? LIMIT 1"
}
