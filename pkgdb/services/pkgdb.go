package services

import (
	"pkgdb/pkgdb/auditlog"
	"pkgdb/pkgdb/catalog"

	"gorm.io/gorm"
)

// PackageDB groups every service over one database handle.
type PackageDB struct {
	Collections CollectionService
	Packages    PackageService
	Listings    ListingService
	Versions    VersionService
	Acls        AclService
	Comments    CommentService

	Catalog *catalog.Catalog
	Log     *auditlog.AuditLog
}

func New(db *gorm.DB) PackageDB {
	return PackageDB{
		Collections: CollectionService{db: db},
		Packages:    PackageService{db: db},
		Listings:    ListingService{db: db},
		Versions:    VersionService{db: db},
		Acls:        AclService{db: db},
		Comments:    CommentService{db: db},
		Catalog:     catalog.New(db),
		Log:         auditlog.New(db),
	}
}
