package iocache

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/climacomp/schema"
)

// migrationsTable records the applied schema version of the result store.
const migrationsTable = "climacomp_schema_migrations"

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// migrationsDir maps a backend to its directory under migrations/.
var migrationsDir = map[schema.DatabaseBackend]string{
	schema.SQLiteBackend:     "sqlite",
	schema.MySQLBackend:      "mysql",
	schema.PostgreSQLBackend: "postgres",
}

// MigrateStore runs the result store migrations and reports progress to w.
//   - targetVersion < 0 migrates to the latest version.
//   - targetVersion == 0 rolls every migration back.
//   - targetVersion > 0 migrates to that version.
func MigrateStore(w io.Writer, backend schema.DatabaseBackend, connStr string, targetVersion int) error {
	dir, ok := migrationsDir[backend]
	if !ok {
		return fmt.Errorf("migrations are not supported for backend '%s'", backend)
	}

	db, err := openDB(backend, connStr, GetStoreDBFilePath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var driver database.Driver
	switch backend {
	case schema.SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: migrationsTable})
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{MigrationsTable: migrationsTable})
	case schema.PostgreSQLBackend:
		driver, err = pgx.WithInstance(db, &pgx.Config{MigrationsTable: migrationsTable})
	}
	if err != nil {
		return fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations/"+dir)
	if err != nil {
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "climacomp", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", current)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		_, _ = fmt.Fprintf(w, "No migration needed. Database is already at version %d\n", current)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to migrate from version %d: %w", current, err)
	}

	next, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		next, err = 0, nil
	}
	if err != nil {
		return fmt.Errorf("failed to read migrated version: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Successfully migrated from version %d to version %d\n", current, next)
	return nil
}
