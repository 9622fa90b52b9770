package services

import (
	"context"
	"fmt"
	"log/slog"
	"pkgdb/pkgdb/schema"
	"pkgdb/utils/logging"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListingService struct {
	db *gorm.DB
}

type CreateListingRequest struct {
	PackageId    uuid.UUID `json:"package_id" validate:"required"`
	CollectionId uuid.UUID `json:"collection_id" validate:"required"`
	Owner        int64     `json:"owner"`
	QaContact    *int64    `json:"qa_contact,omitempty"`
}

func getListing(listingId uuid.UUID, db *gorm.DB) (schema.PackageListing, error) {
	return schema.GetListing(listingId, db, false)
}

// Create requests a package in a collection. Only one listing per package and
// collection may be outside the denied status.
func (s *ListingService) Create(ctx context.Context, actor int64, req CreateListingRequest) (schema.PackageListing, error) {
	if err := validateRequest(req); err != nil {
		return schema.PackageListing{}, err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	listing := schema.PackageListing{
		Id:               uuid.New(),
		PackageId:        req.PackageId,
		CollectionId:     req.CollectionId,
		Owner:            req.Owner,
		QaContact:        req.QaContact,
		StatusCode:       schema.AwaitingReview,
		CreatedAt:        now,
		StatusChangeTime: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := checkPackageExists(txn, req.PackageId); err != nil {
			return err
		}
		if err := checkCollectionExists(txn, req.CollectionId); err != nil {
			return err
		}

		var live int64
		result := txn.Model(&schema.PackageListing{}).
			Where("package_id = ? AND collection_id = ? AND status_code <> ?", req.PackageId, req.CollectionId, schema.Denied).
			Count(&live)
		if result.Error != nil {
			return result.Error
		}
		if live != 0 {
			return fmt.Errorf("package %v is already listed in collection %v: %w", req.PackageId, req.CollectionId, schema.ErrAlreadyExists)
		}

		if err := txn.Create(&listing).Error; err != nil {
			return err
		}
		return appendAdded(txn, &listing, actor, fmt.Sprintf("package %v requested for collection %v", req.PackageId, req.CollectionId))
	})
	if err != nil {
		return schema.PackageListing{}, dbError(err, "creating package listing", "package_id", req.PackageId, "collection_id", req.CollectionId)
	}

	recordCreated(schema.PackageListingLogKind)
	slog.Info("package listing created", "listing_id", listing.Id, "package_id", listing.PackageId, "collection_id", listing.CollectionId, "code", logging.ENTITY_CREATE)
	return listing, nil
}

func (s *ListingService) Get(ctx context.Context, listingId uuid.UUID) (schema.PackageListing, error) {
	return schema.GetListing(listingId, s.db.WithContext(ctx), true)
}

func (s *ListingService) ListForPackage(ctx context.Context, packageId uuid.UUID) ([]schema.PackageListing, error) {
	var listings []schema.PackageListing
	result := s.db.WithContext(ctx).Preload("Collection").Where("package_id = ?", packageId).Order("created_at").Find(&listings)
	if result.Error != nil {
		return nil, dbError(result.Error, "listing package listings", "package_id", packageId)
	}
	return listings, nil
}

func (s *ListingService) ListForCollection(ctx context.Context, collectionId uuid.UUID) ([]schema.PackageListing, error) {
	var listings []schema.PackageListing
	result := s.db.WithContext(ctx).Preload("Package").Where("collection_id = ?", collectionId).Order("created_at").Find(&listings)
	if result.Error != nil {
		return nil, dbError(result.Error, "listing collection listings", "collection_id", collectionId)
	}
	return listings, nil
}

func (s *ListingService) SetStatus(ctx context.Context, actor int64, listingId uuid.UUID, status schema.Status, reason string) (schema.PackageListing, error) {
	return setStatus(s.db.WithContext(ctx), listingId, getListing, statusChange{
		to: status, action: schema.StatusChanged, actor: actor, reason: reason,
	})
}
