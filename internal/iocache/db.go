package iocache

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/climacomp/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // SQLite driver
)

// pingMaxElapsed bounds how long a server backend is retried before giving up.
var pingMaxElapsed = 15 * time.Second

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// driverFor returns the database/sql driver name of a backend.
func driverFor(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}
}

// openDB opens and pings a database. SQLite falls back to defaultPath when connStr is empty.
func openDB(backend schema.DatabaseBackend, connStr, defaultPath string) (*sql.DB, error) {
	driverName, err := driverFor(backend)
	if err != nil {
		return nil, err
	}
	switch backend {
	case schema.SQLiteBackend:
		if connStr == "" {
			connStr = defaultPath
		}
	case schema.MySQLBackend:
		if connStr, err = withParseTime(connStr); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := pingWithRetry(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w. Check that the server is running and the connection string is correct", backend, err)
	}
	return db, nil
}

// withParseTime makes the MySQL driver return DATETIME columns as time.Time.
func withParseTime(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL connection string: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// pingWithRetry pings once for SQLite and with exponential backoff for server backends.
func pingWithRetry(db *sql.DB, backend schema.DatabaseBackend) error {
	if backend == schema.SQLiteBackend {
		return db.Ping()
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = pingMaxElapsed
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := db.Ping()
		if err != nil {
			log.Debug().Err(err).Int("attempt", attempt).Str("backend", string(backend)).Msg("Database ping failed")
		}
		return err
	}, bo)
}

// validateTableName validates that the table name is a safe SQL identifier.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern %s)", name, tableNamePattern)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	if backend == schema.MySQLBackend {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// placeholders returns n comma separated bind parameters for the backend.
func placeholders(backend schema.DatabaseBackend, n int) string {
	parts := make([]string, n)
	for i := range parts {
		if backend == schema.PostgreSQLBackend {
			parts[i] = fmt.Sprintf("$%d", i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

// scanTime reads a time column written by formatTime.
type scanTime struct {
	backend schema.DatabaseBackend
	text    sql.NullString
	native  sql.NullTime
}

func (s *scanTime) dest() any {
	if s.backend == schema.SQLiteBackend {
		return &s.text
	}
	return &s.native
}

func (s *scanTime) value() (*time.Time, error) {
	if s.backend != schema.SQLiteBackend {
		if !s.native.Valid {
			return nil, nil
		}
		t := s.native.Time
		return &t, nil
	}
	if !s.text.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.text.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse time %q: %w", s.text.String, err)
	}
	return &t, nil
}
