package sqlutil

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sqlc-dev/pqtype"
)

// Helper functions for converting between Go types and nullable SQL types

// ToNullRawMessage wraps a JSON document for a JSONB column. Empty input is NULL.
func ToNullRawMessage(b []byte) pqtype.NullRawMessage {
	if len(b) == 0 {
		return pqtype.NullRawMessage{Valid: false}
	}
	return pqtype.NullRawMessage{RawMessage: json.RawMessage(b), Valid: true}
}

// FromSqlBytes converts sql.NullString holding JSON to a json.RawMessage
func FromSqlBytes(val sql.NullString) json.RawMessage {
	if !val.Valid || val.String == "" {
		return nil
	}
	return json.RawMessage(val.String)
}

// ToUnixMillis stores a time as milliseconds since the epoch
func ToUnixMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromUnixMillis converts stored milliseconds back to a UTC time
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
