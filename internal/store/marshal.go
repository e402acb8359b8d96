package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/morph/internal/ir"
)

// marshalValue converts a Value to canonical JSON TEXT for storage.
func marshalValue(field string, v ir.Value) (string, error) {
	if v == nil {
		return "", fmt.Errorf("marshal %s: value is required", field)
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", field, err)
	}
	return string(data), nil
}

// marshalOptional is marshalValue for nullable columns.
func marshalOptional(field string, v ir.Value) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	s, err := marshalValue(field, v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}

// unmarshalValue parses canonical JSON TEXT. ir.ParseValue keeps integers
// beyond 2^53 exact.
func unmarshalValue(field, data string) (ir.Value, error) {
	v, err := ir.ParseValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", field, err)
	}
	return v, nil
}

func unmarshalOptional(field string, data sql.NullString) (ir.Value, error) {
	if !data.Valid {
		return nil, nil
	}
	return unmarshalValue(field, data.String)
}
