package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"pkgdb/pkgdb/schema"
	"pkgdb/utils/logging"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VersionService struct {
	db *gorm.DB
}

type CreateVersionRequest struct {
	ListingId uuid.UUID `json:"listing_id" validate:"required"`
	EVR       string    `json:"evr" validate:"required"`
}

func (s *VersionService) Create(ctx context.Context, actor int64, req CreateVersionRequest) (schema.PackageVersion, error) {
	if err := validateRequest(req); err != nil {
		return schema.PackageVersion{}, err
	}
	evr, err := schema.ParseEVR(req.EVR)
	if err != nil {
		return schema.PackageVersion{}, err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	version := schema.PackageVersion{
		Id:               uuid.New(),
		PackageListingId: req.ListingId,
		Epoch:            evr.Epoch,
		Version:          evr.Version,
		Release:          evr.Release,
		StatusCode:       schema.AwaitingDevelopment,
		CreatedAt:        now,
		StatusChangeTime: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := checkListingExists(txn, req.ListingId); err != nil {
			return err
		}
		if err := txn.Create(&version).Error; err != nil {
			return err
		}
		return appendAdded(txn, &version, actor, fmt.Sprintf("version %v added", evr))
	})
	if err != nil {
		return schema.PackageVersion{}, dbError(err, "creating package version", "listing_id", req.ListingId, "evr", req.EVR)
	}

	recordCreated(schema.PackageVersionLogKind)
	slog.Info("package version created", "version_id", version.Id, "listing_id", version.PackageListingId, "evr", evr.String(), "code", logging.ENTITY_CREATE)
	return version, nil
}

func (s *VersionService) Get(ctx context.Context, versionId uuid.UUID) (schema.PackageVersion, error) {
	return schema.GetVersion(versionId, s.db.WithContext(ctx))
}

func sortByEVR(versions []schema.PackageVersion) {
	slices.SortStableFunc(versions, func(a, b schema.PackageVersion) int {
		return a.EVR().Compare(b.EVR())
	})
}

// ListForListing returns the versions of a listing in ascending EVR order.
func (s *VersionService) ListForListing(ctx context.Context, listingId uuid.UUID) ([]schema.PackageVersion, error) {
	var versions []schema.PackageVersion
	result := s.db.WithContext(ctx).Where("package_listing_id = ?", listingId).Order("created_at").Find(&versions)
	if result.Error != nil {
		return nil, dbError(result.Error, "listing package versions", "listing_id", listingId)
	}
	sortByEVR(versions)
	return versions, nil
}

// LatestApproved returns the approved version with the highest EVR.
func (s *VersionService) LatestApproved(ctx context.Context, listingId uuid.UUID) (schema.PackageVersion, error) {
	var versions []schema.PackageVersion
	result := s.db.WithContext(ctx).Where("package_listing_id = ? AND status_code = ?", listingId, schema.Approved).Find(&versions)
	if result.Error != nil {
		return schema.PackageVersion{}, dbError(result.Error, "listing approved versions", "listing_id", listingId)
	}
	if len(versions) == 0 {
		return schema.PackageVersion{}, fmt.Errorf("%w: no approved version for listing %v", schema.ErrVersionNotFound, listingId)
	}
	sortByEVR(versions)
	return versions[len(versions)-1], nil
}

func (s *VersionService) SetStatus(ctx context.Context, actor int64, versionId uuid.UUID, status schema.Status, reason string) (schema.PackageVersion, error) {
	return setStatus(s.db.WithContext(ctx), versionId, schema.GetVersion, statusChange{
		to: status, action: schema.StatusChanged, actor: actor, reason: reason,
	})
}

// PackageURL returns the package url identifying the version.
func (s *VersionService) PackageURL(ctx context.Context, versionId uuid.UUID) (string, error) {
	db := s.db.WithContext(ctx)

	version, err := schema.GetVersion(versionId, db)
	if err != nil {
		return "", err
	}
	listing, err := schema.GetListing(version.PackageListingId, db, true)
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			return "", fmt.Errorf("listing of version %v: %w", versionId, err)
		}
		return "", err
	}
	return listing.Package.VersionURL(version.EVR()), nil
}
