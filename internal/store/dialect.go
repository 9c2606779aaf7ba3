package store

import (
	"fmt"
	"strings"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect struct {
	Name   string
	Driver string
	// numbered placeholders ($1) instead of ?
	numbered bool
	upsert   string
}

var (
	SQLite = Dialect{
		Name:   "sqlite",
		Driver: "sqlite",
		upsert: `INSERT INTO visitor_values (visitor_id, item_key, value, expires_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (visitor_id, item_key) DO UPDATE SET
				value = excluded.value,
				expires_at = excluded.expires_at,
				updated_at = excluded.updated_at`,
	}
	Postgres = Dialect{
		Name:     "postgres",
		Driver:   "postgres",
		numbered: true,
		upsert: `INSERT INTO visitor_values (visitor_id, item_key, value, expires_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (visitor_id, item_key) DO UPDATE SET
				value = EXCLUDED.value,
				expires_at = EXCLUDED.expires_at,
				updated_at = EXCLUDED.updated_at`,
	}
	MySQL = Dialect{
		Name:   "mysql",
		Driver: "mysql",
		upsert: `INSERT INTO visitor_values (visitor_id, item_key, value, expires_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				value = VALUES(value),
				expires_at = VALUES(expires_at),
				updated_at = VALUES(updated_at)`,
	}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
