package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // Required by the library implementation.
)

// Database is the attempt journal. It stores metadata about summarization
// attempts only.
type Database struct {
	db            *sql.DB
	schemaVersion uint
	log           *slog.Logger
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

// journalSchemaVersion is the highest migration under migrations/.
const journalSchemaVersion = 1

func New(ctx context.Context, dbPath string, log *slog.Logger) (*Database, error) {
	dbFile, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal %q: %w", dbPath, err)
	}

	version, err := migrateJournal(dbFile)
	if err != nil {
		return nil, errors.Join(err, dbFile.Close())
	}

	log.InfoContext(ctx, "Journal schema is ready",
		"dbPath", dbPath,
		"schemaVersion", version)

	return &Database{db: dbFile, schemaVersion: version, log: log}, nil
}

// migrateJournal brings the attempts schema up to date and reports the
// version it ended at. A dirty or unexpected version is an error.
func migrateJournal(dbFile *sql.DB) (uint, error) {
	driver, err := sqlite3.WithInstance(dbFile, &sqlite3.Config{})
	if err != nil {
		return 0, fmt.Errorf("journal driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("journal migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return 0, fmt.Errorf("journal migrator: %w", err)
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrate journal: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("journal schema version: %w", err)
	}

	if dirty || version != journalSchemaVersion {
		return 0, fmt.Errorf("journal schema is at version %d (dirty = %t), want %d",
			version, dirty, journalSchemaVersion)
	}

	return version, nil
}

// SchemaVersion is the attempts schema version found at startup.
func (d *Database) SchemaVersion() uint {
	return d.schemaVersion
}

func (d *Database) Close() error {
	return d.db.Close()
}
