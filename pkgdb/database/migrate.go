package database

import (
	"log/slog"
	"pkgdb/pkgdb/database/versions"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

var migrations = []*gormigrate.Migration{
	{
		ID:       "1",
		Migrate:  versions.Migration_1_initial_schema,
		Rollback: versions.Rollback_1_initial_schema,
	},
	{
		ID:       "2",
		Migrate:  versions.Migration_2_seed_status_catalog,
		Rollback: versions.Rollback_2_seed_status_catalog,
	},
	{
		ID:       "3",
		Migrate:  versions.Migration_3_live_uniqueness,
		Rollback: versions.Rollback_3_live_uniqueness,
	},
}

func Migrate(db *gorm.DB) error {
	migration := gormigrate.New(db, gormigrate.DefaultOptions, migrations)

	if err := migration.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		return err
	}

	slog.Info("migration completed successfully")
	return nil
}

// RollbackLast undoes the most recently applied migration.
func RollbackLast(db *gorm.DB) error {
	return gormigrate.New(db, gormigrate.DefaultOptions, migrations).RollbackLast()
}
