package database

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/deppfellow/zrouter/internal/config"
	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

// VersionTable records the applied migration version.
const VersionTable = "schema_version"

// Migrate applies the tern migrations found at the root of migrations
// (001_create_orders.sql, 002_...).
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config, migrations fs.FS) error {
	conn, err := pgx.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, VersionTable)
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	if err := m.LoadMigrations(migrations); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	if len(m.Migrations) == 0 {
		return fmt.Errorf("no migrations found")
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return err
	}

	if from == int32(len(m.Migrations)) {
		logger.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
	} else {
		logger.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
	}

	return nil
}
