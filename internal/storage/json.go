package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// marshalNullable serializes v to a JSON column value, mapping nil and empty
// collections to NULL.
func marshalNullable(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json column: %w", err)
	}
	str := string(data)
	if str == "null" || str == "[]" || str == "{}" {
		return nil, nil
	}
	return &str, nil
}

// unmarshalNullable deserializes a nullable JSON column into out. A NULL
// column leaves out untouched.
func unmarshalNullable(col sql.NullString, out any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(col.String), out); err != nil {
		return fmt.Errorf("failed to unmarshal json column: %w", err)
	}
	return nil
}
