package store

import "fmt"

// SQL fragments that read a top-level key out of a JSON document column.
// Keys are package constants, never user input. SQLite columns are not
// validated on write, so its fragments check json_valid first.

// jsonText yields the key as text, or NULL when it is absent.
func jsonText(dialect, column, key string) string {
	switch dialect {
	case "postgres":
		return fmt.Sprintf("(%s->>'%s')", column, key)
	case "mysql":
		return fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(%s, '$.%s'))", column, key)
	default:
		return fmt.Sprintf("(CASE WHEN json_valid(%[1]s) THEN json_extract(%[1]s, '$.%[2]s') END)", column, key)
	}
}

// jsonNumber yields the key as a number only when the stored value is a
// JSON number. Anything else (missing, string, object) is NULL, so a
// comparison against it excludes the row instead of failing the query.
func jsonNumber(dialect, column, key string) string {
	switch dialect {
	case "postgres":
		return fmt.Sprintf(
			"(CASE WHEN jsonb_typeof(%[1]s->'%[2]s') = 'number' THEN (%[1]s->>'%[2]s')::double precision END)",
			column, key)
	case "mysql":
		return fmt.Sprintf(
			"(CASE WHEN JSON_TYPE(JSON_EXTRACT(%[1]s, '$.%[2]s')) IN ('INTEGER', 'UNSIGNED INTEGER', 'DOUBLE', 'DECIMAL') THEN JSON_EXTRACT(%[1]s, '$.%[2]s') + 0 END)",
			column, key)
	default:
		return fmt.Sprintf(
			"(CASE WHEN json_valid(%[1]s) THEN CASE WHEN json_type(%[1]s, '$.%[2]s') IN ('integer', 'real') THEN json_extract(%[1]s, '$.%[2]s') END END)",
			column, key)
	}
}
