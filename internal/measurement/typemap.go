package measurement

import "strings"

// ColumnType is the result of mapping an abstract schema type: the
// concrete storage type and whether the column is temporal.
type ColumnType struct {
	SQLType  string
	Temporal bool
}

// MapType maps an abstract column-type token to its storage type. Tokens
// are case-insensitive; anything unrecognized falls back to text rather
// than erroring, so permissive schemas still provision.
func MapType(abstract string) ColumnType {
	switch strings.ToLower(strings.TrimSpace(abstract)) {
	case "string":
		return ColumnType{SQLType: "TEXT"}
	case "number", "float":
		return ColumnType{SQLType: "DOUBLE PRECISION"}
	case "integer":
		return ColumnType{SQLType: "BIGINT"}
	case "date":
		return ColumnType{SQLType: "DATE", Temporal: true}
	case "datetime":
		return ColumnType{SQLType: "TIMESTAMP", Temporal: true}
	default:
		return ColumnType{SQLType: "TEXT"}
	}
}

// isTemporalType reports whether a type token, abstract or concrete,
// names a temporal column. Live column listings come back with concrete
// database types, so the spellings Postgres reports are accepted
// alongside the abstract tokens.
func isTemporalType(typ string) bool {
	t := strings.ToLower(strings.TrimSpace(typ))
	switch {
	case t == "date" || t == "datetime":
		return true
	case strings.HasPrefix(t, "timestamp"):
		return true
	default:
		return false
	}
}
