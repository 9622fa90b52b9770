package schema

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidHierarchy  = errors.New("invalid collection hierarchy")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflicting concurrent update")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidLogAction  = errors.New("invalid log action")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrDbAccessFailed    = errors.New("db access failed")
)

var (
	ErrCollectionNotFound  = fmt.Errorf("collection %w", ErrNotFound)
	ErrPackageNotFound     = fmt.Errorf("package %w", ErrNotFound)
	ErrListingNotFound     = fmt.Errorf("package listing %w", ErrNotFound)
	ErrVersionNotFound     = fmt.Errorf("package version %w", ErrNotFound)
	ErrAclNotFound         = fmt.Errorf("acl %w", ErrNotFound)
	ErrLanguageNotFound    = fmt.Errorf("language %w", ErrNotFound)
	ErrTranslationNotFound = fmt.Errorf("status translation %w", ErrNotFound)
	ErrLogNotFound         = fmt.Errorf("log entry %w", ErrNotFound)
)

func getById[T any](db *gorm.DB, id uuid.UUID, notFound error, what string, preloads ...string) (T, error) {
	var entity T

	result := db
	for _, p := range preloads {
		result = result.Preload(p)
	}
	result = result.First(&entity, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return entity, fmt.Errorf("%w: %v", notFound, id)
		}
		slog.Error("sql error in get "+what, "id", id, "error", result.Error)
		return entity, ErrDbAccessFailed
	}

	return entity, nil
}

func GetCollection(collectionId uuid.UUID, db *gorm.DB) (Collection, error) {
	return getById[Collection](db, collectionId, ErrCollectionNotFound, "collection", "Branch")
}

func GetPackage(packageId uuid.UUID, db *gorm.DB, loadTags bool) (Package, error) {
	if loadTags {
		return getById[Package](db, packageId, ErrPackageNotFound, "package", "Tags")
	}
	return getById[Package](db, packageId, ErrPackageNotFound, "package")
}

func GetPackageByName(name string, db *gorm.DB) (Package, error) {
	var pkg Package

	result := db.First(&pkg, "name = ?", name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return pkg, fmt.Errorf("%w: %v", ErrPackageNotFound, name)
		}
		slog.Error("sql error in get package by name", "name", name, "error", result.Error)
		return pkg, ErrDbAccessFailed
	}

	return pkg, nil
}

func GetListing(listingId uuid.UUID, db *gorm.DB, loadRefs bool) (PackageListing, error) {
	if loadRefs {
		return getById[PackageListing](db, listingId, ErrListingNotFound, "package listing", "Package", "Collection")
	}
	return getById[PackageListing](db, listingId, ErrListingNotFound, "package listing")
}

func GetVersion(versionId uuid.UUID, db *gorm.DB) (PackageVersion, error) {
	return getById[PackageVersion](db, versionId, ErrVersionNotFound, "package version")
}

func GetPersonAcl(aclId uuid.UUID, db *gorm.DB) (PersonPackageListingAcl, error) {
	return getById[PersonPackageListingAcl](db, aclId, ErrAclNotFound, "person acl")
}

func GetGroupAcl(aclId uuid.UUID, db *gorm.DB) (GroupPackageListingAcl, error) {
	return getById[GroupPackageListingAcl](db, aclId, ErrAclNotFound, "group acl")
}

func GetLanguage(shortName string, db *gorm.DB) (Language, error) {
	var lang Language

	result := db.First(&lang, "short_name = ?", shortName)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return lang, fmt.Errorf("%w: %v", ErrLanguageNotFound, shortName)
		}
		slog.Error("sql error in get language", "language", shortName, "error", result.Error)
		return lang, ErrDbAccessFailed
	}

	return lang, nil
}
