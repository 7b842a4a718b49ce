package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"
)

// Memory is the path of a private in-memory database.
const Memory = ":memory:"

// Open connects to the attraction database through libSQL. File databases
// get WAL journaling and a 5 s busy timeout; an in-memory database is held
// on a single connection so every query sees the same data.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	pragmas := []string{"PRAGMA busy_timeout=5000"}
	if path == Memory {
		db.SetMaxOpenConns(1)
	} else {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}

	// libSQL rejects Exec for PRAGMAs that return rows.
	for _, p := range pragmas {
		rows, err := db.QueryContext(ctx, p)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %s: %w", p, err)
		}
		rows.Close()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// Checker adapts a database to the health endpoint.
type Checker struct{ DB *sql.DB }

func (c Checker) Check(ctx context.Context) error { return c.DB.PingContext(ctx) }
