package store

import (
	"strconv"
	"strings"

	"github.com/mcdev12/smartcatan/go/internal/sqlutil"
)

type dialect interface {
	name() string
	schema() []string
	rebind(query string) string
	snapshotArg(doc []byte) any
	boolArg(v bool) any
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return DriverSQLite }

func (sqliteDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS board_history (
			seq            INTEGER PRIMARY KEY AUTOINCREMENT,
			id             TEXT    NOT NULL UNIQUE,
			generation     INTEGER NOT NULL,
			source         TEXT    NOT NULL,
			mode           TEXT    NOT NULL,
			active         INTEGER NOT NULL,
			selected_value INTEGER NOT NULL,
			snapshot       TEXT,
			recorded_at    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS board_history_recorded_at ON board_history (recorded_at)`,
	}
}

func (sqliteDialect) rebind(query string) string { return query }

func (sqliteDialect) snapshotArg(doc []byte) any {
	if len(doc) == 0 {
		return nil
	}
	return string(doc)
}

func (sqliteDialect) boolArg(v bool) any {
	if v {
		return 1
	}
	return 0
}

type postgresDialect struct{}

func (postgresDialect) name() string { return DriverPostgres }

func (postgresDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS board_history (
			seq            BIGSERIAL   PRIMARY KEY,
			id             UUID        NOT NULL UNIQUE,
			generation     BIGINT      NOT NULL,
			source         TEXT        NOT NULL,
			mode           TEXT        NOT NULL,
			active         BOOLEAN     NOT NULL,
			selected_value INTEGER     NOT NULL,
			snapshot       JSONB,
			recorded_at    BIGINT      NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS board_history_recorded_at ON board_history (recorded_at)`,
	}
}

// rebind turns ? placeholders into $1, $2, ...
func (postgresDialect) rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (postgresDialect) snapshotArg(doc []byte) any {
	return sqlutil.ToNullRawMessage(doc)
}

func (postgresDialect) boolArg(v bool) any { return v }
