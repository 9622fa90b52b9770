package services

import (
	"errors"
	"fmt"
	"log/slog"
	"pkgdb/pkgdb/schema"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var validate = validator.New()

func validateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%v: %w", err, schema.ErrInvalidRequest)
	}
	return nil
}

var knownErrors = []error{
	schema.ErrInvalidStatus,
	schema.ErrInvalidTransition,
	schema.ErrInvalidHierarchy,
	schema.ErrNotFound,
	schema.ErrConflict,
	schema.ErrAlreadyExists,
	schema.ErrInvalidLogAction,
	schema.ErrInvalidRequest,
	schema.ErrDbAccessFailed,
}

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// isConflict reports whether the driver rejected the statement because of a
// concurrent transaction.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// dbError maps an error from a transaction to the package sentinels. Errors
// that already carry a sentinel are returned unchanged.
func dbError(err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return err
		}
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%v: %w", msg, schema.ErrAlreadyExists)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%v: referenced entity does not exist: %w", msg, schema.ErrInvalidRequest)
	case isConflict(err):
		return fmt.Errorf("%v: %w", msg, schema.ErrConflict)
	}

	slog.Error("sql error: "+msg, append(args, "error", err)...)
	return schema.ErrDbAccessFailed
}

func checkPackageExists(txn *gorm.DB, packageId uuid.UUID) error {
	var count int64
	if err := txn.Model(&schema.Package{}).Where("id = ?", packageId).Count(&count).Error; err != nil {
		return dbError(err, "checking package exists", "package_id", packageId)
	}
	if count == 0 {
		return fmt.Errorf("%w: %v", schema.ErrPackageNotFound, packageId)
	}
	return nil
}

func checkCollectionExists(txn *gorm.DB, collectionId uuid.UUID) error {
	var count int64
	if err := txn.Model(&schema.Collection{}).Where("id = ?", collectionId).Count(&count).Error; err != nil {
		return dbError(err, "checking collection exists", "collection_id", collectionId)
	}
	if count == 0 {
		return fmt.Errorf("%w: %v", schema.ErrCollectionNotFound, collectionId)
	}
	return nil
}

func checkListingExists(txn *gorm.DB, listingId uuid.UUID) error {
	var count int64
	if err := txn.Model(&schema.PackageListing{}).Where("id = ?", listingId).Count(&count).Error; err != nil {
		return dbError(err, "checking package listing exists", "listing_id", listingId)
	}
	if count == 0 {
		return fmt.Errorf("%w: %v", schema.ErrListingNotFound, listingId)
	}
	return nil
}

func checkVersionExists(txn *gorm.DB, versionId uuid.UUID) error {
	var count int64
	if err := txn.Model(&schema.PackageVersion{}).Where("id = ?", versionId).Count(&count).Error; err != nil {
		return dbError(err, "checking package version exists", "version_id", versionId)
	}
	if count == 0 {
		return fmt.Errorf("%w: %v", schema.ErrVersionNotFound, versionId)
	}
	return nil
}
