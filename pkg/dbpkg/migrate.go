package dbpkg

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // registers postgres:// and postgresql://
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/go-petr/pet-ledger/db/migration"
)

// Migrate applies every pending embedded migration to the database at source.
func Migrate(source string) error {
	src, err := iofs.New(migration.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, source)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}

		var dirtyErr migrate.ErrDirty
		if errors.As(err, &dirtyErr) {
			return fmt.Errorf("migration failed: dirty database version %d", dirtyErr.Version)
		}

		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}
