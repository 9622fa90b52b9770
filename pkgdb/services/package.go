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

type PackageService struct {
	db *gorm.DB
}

type CreatePackageRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Summary     string `json:"summary" validate:"required"`
	Description string `json:"description"`
	UpstreamUrl string `json:"upstream_url" validate:"omitempty,url"`
	ReviewUrl   string `json:"review_url" validate:"omitempty,url"`
}

func getPackage(packageId uuid.UUID, db *gorm.DB) (schema.Package, error) {
	return schema.GetPackage(packageId, db, false)
}

func (s *PackageService) Create(ctx context.Context, actor int64, req CreatePackageRequest) (schema.Package, error) {
	if err := validateRequest(req); err != nil {
		return schema.Package{}, err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	pkg := schema.Package{
		Id:               uuid.New(),
		Name:             req.Name,
		Summary:          req.Summary,
		Description:      req.Description,
		UpstreamUrl:      req.UpstreamUrl,
		ReviewUrl:        req.ReviewUrl,
		StatusCode:       schema.AwaitingReview,
		CreatedAt:        now,
		StatusChangeTime: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.Create(&pkg).Error; err != nil {
			return err
		}
		return appendAdded(txn, &pkg, actor, fmt.Sprintf("package %v requested", pkg.Name))
	})
	if err != nil {
		return schema.Package{}, dbError(err, "creating package", "name", req.Name)
	}

	recordCreated(schema.PackageLogKind)
	slog.Info("package created", "package_id", pkg.Id, "name", pkg.Name, "code", logging.ENTITY_CREATE)
	return pkg, nil
}

func (s *PackageService) Get(ctx context.Context, packageId uuid.UUID) (schema.Package, error) {
	return schema.GetPackage(packageId, s.db.WithContext(ctx), true)
}

func (s *PackageService) GetByName(ctx context.Context, name string) (schema.Package, error) {
	return schema.GetPackageByName(name, s.db.WithContext(ctx))
}

func (s *PackageService) List(ctx context.Context) ([]schema.Package, error) {
	var packages []schema.Package
	if result := s.db.WithContext(ctx).Order("name").Find(&packages); result.Error != nil {
		return nil, dbError(result.Error, "listing packages")
	}
	return packages, nil
}

func (s *PackageService) SetStatus(ctx context.Context, actor int64, packageId uuid.UUID, status schema.Status, reason string) (schema.Package, error) {
	return setStatus(s.db.WithContext(ctx), packageId, getPackage, statusChange{
		to: status, action: schema.StatusChanged, actor: actor, reason: reason,
	})
}

// AddTag attaches a tag to the package, creating the tag for the language if
// it does not exist yet.
func (s *PackageService) AddTag(ctx context.Context, packageId uuid.UUID, name, language string) (schema.Tag, error) {
	if name == "" {
		return schema.Tag{}, fmt.Errorf("tag name must be specified: %w", schema.ErrInvalidRequest)
	}
	if language == "" {
		language = schema.DefaultLanguage
	}

	var tag schema.Tag
	err := s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		pkg, err := getPackage(packageId, txn)
		if err != nil {
			return err
		}
		if _, err := schema.GetLanguage(language, txn); err != nil {
			return err
		}

		result := txn.Where(schema.Tag{Name: name, LanguageCode: language}).
			Attrs(schema.Tag{Id: uuid.New()}).
			FirstOrCreate(&tag)
		if result.Error != nil {
			return result.Error
		}

		return txn.Model(&pkg).Association("Tags").Append(&tag)
	})
	if err != nil {
		return schema.Tag{}, dbError(err, "tagging package", "package_id", packageId, "tag", name)
	}

	return tag, nil
}

func (s *PackageService) Tags(ctx context.Context, packageId uuid.UUID) ([]schema.Tag, error) {
	pkg, err := schema.GetPackage(packageId, s.db.WithContext(ctx), true)
	if err != nil {
		return nil, err
	}
	return pkg.Tags, nil
}
