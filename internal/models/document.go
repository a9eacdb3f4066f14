package models

import (
	"bytes"
	"encoding/json"

	"gorm.io/datatypes"
)

var jsonNull = datatypes.JSON("null")

// Absent documents are stored as the JSON literal null so document columns
// never hold SQL NULL.
func orNull(doc datatypes.JSON) datatypes.JSON {
	if len(bytes.TrimSpace(doc)) == 0 {
		return jsonNull
	}
	return doc
}

func orEmptyList(doc datatypes.JSON) datatypes.JSON {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull) {
		return datatypes.JSON("[]")
	}
	return doc
}

// NewDocument encodes v as a stored document; nil becomes null.
func NewDocument(v any) (datatypes.JSON, error) {
	if v == nil {
		return jsonNull, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// IsAbsent reports whether a stored document carries no value.
func IsAbsent(doc datatypes.JSON) bool {
	trimmed := bytes.TrimSpace(doc)
	return len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull)
}
