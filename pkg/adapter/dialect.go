package adapter

import (
	"fmt"
	"strings"
)

// Dialect holds the SQL details that differ between adapters.
type Dialect struct {
	Name          string
	DefaultSchema string
	// Placeholder formats the n-th (1-based) bind parameter.
	Placeholder func(n int) string
}

// QuestionPlaceholder formats placeholders as "?".
func QuestionPlaceholder(_ int) string { return "?" }

// DollarPlaceholder formats placeholders as "$n".
func DollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

// QuoteIdent quotes an identifier with double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses the dialect's default schema if not specified.
func ParseQualifiedName(table string, d Dialect) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return d.DefaultSchema, table
}

// QualifiedName returns the quoted schema.table reference. An empty schema
// yields just the quoted table name.
func QualifiedName(schema, table string) string {
	if schema == "" {
		return QuoteIdent(table)
	}
	return QuoteIdent(schema) + "." + QuoteIdent(table)
}
