package schema

import (
	"time"

	"github.com/google/uuid"
)

type StatusCode struct {
	Id Status `gorm:"primaryKey;autoIncrement:false"`

	Translations []StatusTranslation `gorm:"foreignKey:StatusCodeId;constraint:OnDelete:CASCADE"`
}

// StatusTranslation is shared by every family, keyed by the status code id.
type StatusTranslation struct {
	StatusCodeId Status `gorm:"primaryKey;autoIncrement:false" json:"status_code_id"`
	Language     string `gorm:"primaryKey;size:32" json:"language"`
	StatusName   string `gorm:"size:64;not null" json:"status_name"`
	Description  string `json:"description"`
}

// The family tables list which codes a family may use. Entity status columns
// reference their family table.

type CollectionStatusCode struct {
	StatusCodeId Status      `gorm:"primaryKey;autoIncrement:false"`
	Code         *StatusCode `gorm:"foreignKey:StatusCodeId;constraint:OnDelete:CASCADE"`
}

type PackageStatusCode struct {
	StatusCodeId Status      `gorm:"primaryKey;autoIncrement:false"`
	Code         *StatusCode `gorm:"foreignKey:StatusCodeId;constraint:OnDelete:CASCADE"`
}

type PackageListingStatusCode struct {
	StatusCodeId Status      `gorm:"primaryKey;autoIncrement:false"`
	Code         *StatusCode `gorm:"foreignKey:StatusCodeId;constraint:OnDelete:CASCADE"`
}

type PackageVersionStatusCode struct {
	StatusCodeId Status      `gorm:"primaryKey;autoIncrement:false"`
	Code         *StatusCode `gorm:"foreignKey:StatusCodeId;constraint:OnDelete:CASCADE"`
}

type AclStatusCode struct {
	StatusCodeId Status      `gorm:"primaryKey;autoIncrement:false"`
	Code         *StatusCode `gorm:"foreignKey:StatusCodeId;constraint:OnDelete:CASCADE"`
}

// FamilyStatusCodeModel returns the family table model used for seeding.
func FamilyStatusCodeModel(family Family, status Status) interface{} {
	switch family {
	case CollectionFamily:
		return &CollectionStatusCode{StatusCodeId: status}
	case PackageFamily:
		return &PackageStatusCode{StatusCodeId: status}
	case PackageListingFamily:
		return &PackageListingStatusCode{StatusCodeId: status}
	case PackageVersionFamily:
		return &PackageVersionStatusCode{StatusCodeId: status}
	case AclFamily:
		return &AclStatusCode{StatusCodeId: status}
	}
	return nil
}

type Language struct {
	ShortName string `gorm:"primaryKey;size:32" json:"short_name"`
	Name      string `gorm:"size:64;not null" json:"name"`
}

type Collection struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Name    string `gorm:"size:64;not null;uniqueIndex:idx_collection_name_version" json:"name"`
	Version string `gorm:"size:32;not null;uniqueIndex:idx_collection_name_version" json:"version"`

	StatusCode Status                `gorm:"not null" json:"status"`
	StatusRef  *CollectionStatusCode `gorm:"foreignKey:StatusCode;references:StatusCodeId" json:"-"`

	Owner       int64  `gorm:"not null" json:"owner"`
	Summary     string `json:"summary"`
	Description string `json:"description"`

	PublishUrlTemplate *string `json:"publish_url_template,omitempty"`
	PendingUrlTemplate *string `json:"pending_url_template,omitempty"`

	CreatedAt        time.Time `json:"created_at"`
	StatusChangeTime time.Time `json:"status_change_time"`

	Branch *Branch `gorm:"foreignKey:CollectionId;constraint:OnDelete:CASCADE" json:"branch,omitempty"`
}

// Branch extends a Collection through its primary key.
type Branch struct {
	CollectionId uuid.UUID `gorm:"type:uuid;primaryKey" json:"collection_id"`

	BranchName string `gorm:"size:32;not null" json:"branch_name"`
	DistTag    string `gorm:"size:32;not null" json:"disttag"`

	ParentId uuid.UUID   `gorm:"type:uuid;not null;index" json:"parent_id"`
	Parent   *Collection `gorm:"foreignKey:ParentId" json:"-"`
}

func (c *Collection) IsBranch() bool {
	return c.Branch != nil
}

type Package struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Name        string `gorm:"unique;size:200;not null" json:"name"`
	Summary     string `gorm:"not null" json:"summary"`
	Description string `json:"description"`
	UpstreamUrl string `json:"upstream_url"`
	ReviewUrl   string `json:"review_url"`

	StatusCode Status             `gorm:"not null" json:"status"`
	StatusRef  *PackageStatusCode `gorm:"foreignKey:StatusCode;references:StatusCodeId" json:"-"`

	CreatedAt        time.Time `json:"created_at"`
	StatusChangeTime time.Time `json:"status_change_time"`

	Tags []Tag `gorm:"many2many:package_tags;" json:"tags,omitempty"`
}

type PackageListing struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	PackageId uuid.UUID `gorm:"type:uuid;not null;index" json:"package_id"`
	Package   *Package  `gorm:"constraint:OnDelete:CASCADE" json:"package,omitempty"`

	CollectionId uuid.UUID   `gorm:"type:uuid;not null;index" json:"collection_id"`
	Collection   *Collection `gorm:"constraint:OnDelete:CASCADE" json:"collection,omitempty"`

	Owner     int64  `gorm:"not null" json:"owner"`
	QaContact *int64 `json:"qa_contact,omitempty"`

	StatusCode Status                    `gorm:"not null" json:"status"`
	StatusRef  *PackageListingStatusCode `gorm:"foreignKey:StatusCode;references:StatusCodeId" json:"-"`

	CreatedAt        time.Time `json:"created_at"`
	StatusChangeTime time.Time `json:"status_change_time"`
}

type PackageVersion struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	PackageListingId uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_version_evr" json:"package_listing_id"`
	PackageListing   *PackageListing `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	Epoch   int    `gorm:"not null;default:0;uniqueIndex:idx_version_evr" json:"epoch"`
	Version string `gorm:"size:64;not null;uniqueIndex:idx_version_evr" json:"version"`
	Release string `gorm:"size:64;not null;uniqueIndex:idx_version_evr" json:"release"`

	StatusCode Status                    `gorm:"not null" json:"status"`
	StatusRef  *PackageVersionStatusCode `gorm:"foreignKey:StatusCode;references:StatusCodeId" json:"-"`

	CreatedAt        time.Time `json:"created_at"`
	StatusChangeTime time.Time `json:"status_change_time"`
}

func (v *PackageVersion) EVR() EVR {
	return EVR{Epoch: v.Epoch, Version: v.Version, Release: v.Release}
}

// Acl rows record interest and permissions on a listing. They are never
// deleted, revocation moves them to a terminal status.

type PersonPackageListingAcl struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	PackageListingId uuid.UUID       `gorm:"type:uuid;not null;index" json:"package_listing_id"`
	PackageListing   *PackageListing `json:"-"`

	UserId int64 `gorm:"not null;index" json:"user_id"`
	Role   Role  `gorm:"size:32;not null" json:"role"`

	StatusCode Status         `gorm:"not null" json:"status"`
	StatusRef  *AclStatusCode `gorm:"foreignKey:StatusCode;references:StatusCodeId" json:"-"`

	CreatedAt        time.Time `json:"created_at"`
	StatusChangeTime time.Time `json:"status_change_time"`
}

type GroupPackageListingAcl struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	PackageListingId uuid.UUID       `gorm:"type:uuid;not null;index" json:"package_listing_id"`
	PackageListing   *PackageListing `json:"-"`

	GroupId int64 `gorm:"not null;index" json:"group_id"`
	Role    Role  `gorm:"size:32;not null" json:"role"`

	StatusCode Status         `gorm:"not null" json:"status"`
	StatusRef  *AclStatusCode `gorm:"foreignKey:StatusCode;references:StatusCodeId" json:"-"`

	CreatedAt        time.Time `json:"created_at"`
	StatusChangeTime time.Time `json:"status_change_time"`
}

type Tag struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Name         string    `gorm:"size:100;not null;uniqueIndex:idx_tag_name_language" json:"name"`
	LanguageCode string    `gorm:"size:32;not null;uniqueIndex:idx_tag_name_language" json:"language"`
	Language     *Language `gorm:"foreignKey:LanguageCode;references:ShortName" json:"-"`
}

type Comment struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	PackageVersionId uuid.UUID       `gorm:"type:uuid;not null;index" json:"package_version_id"`
	PackageVersion   *PackageVersion `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	Author       int64     `gorm:"not null" json:"author"`
	LanguageCode string    `gorm:"size:32;not null" json:"language"`
	Language     *Language `gorm:"foreignKey:LanguageCode;references:ShortName" json:"-"`
	Body         string    `gorm:"not null" json:"body"`
	Published    bool      `gorm:"not null;default:false" json:"published"`

	CreatedAt time.Time `json:"created_at"`
}

// Log is the base row of the audit trail. Every kind stores its target in a
// separate extension table that shares the log id.
type Log struct {
	Id int64 `gorm:"primaryKey;autoIncrement;index:idx_log_order,priority:2" json:"id"`

	Kind        LogKind   `gorm:"size:32;not null;index" json:"kind"`
	UserId      int64     `gorm:"not null;index" json:"user_id"`
	Action      LogAction `gorm:"size:32;not null" json:"action"`
	StatusCode  *Status   `json:"status,omitempty"`
	Description string    `json:"description"`
	ChangeTime  time.Time `gorm:"not null;index:idx_log_order,priority:1" json:"change_time"`
}

// Extension targets carry no foreign key to the entity so the trail survives
// entity removal.

type CollectionLog struct {
	LogId        int64     `gorm:"primaryKey;autoIncrement:false"`
	Log          *Log      `gorm:"constraint:OnDelete:RESTRICT"`
	CollectionId uuid.UUID `gorm:"type:uuid;not null;index"`
}

type PackageLog struct {
	LogId     int64     `gorm:"primaryKey;autoIncrement:false"`
	Log       *Log      `gorm:"constraint:OnDelete:RESTRICT"`
	PackageId uuid.UUID `gorm:"type:uuid;not null;index"`
}

type PackageListingLog struct {
	LogId            int64     `gorm:"primaryKey;autoIncrement:false"`
	Log              *Log      `gorm:"constraint:OnDelete:RESTRICT"`
	PackageListingId uuid.UUID `gorm:"type:uuid;not null;index"`
}

type PackageVersionLog struct {
	LogId            int64     `gorm:"primaryKey;autoIncrement:false"`
	Log              *Log      `gorm:"constraint:OnDelete:RESTRICT"`
	PackageVersionId uuid.UUID `gorm:"type:uuid;not null;index"`
}

type PersonPackageListingAclLog struct {
	LogId                     int64     `gorm:"primaryKey;autoIncrement:false"`
	Log                       *Log      `gorm:"constraint:OnDelete:RESTRICT"`
	PersonPackageListingAclId uuid.UUID `gorm:"type:uuid;not null;index"`
}

type GroupPackageListingAclLog struct {
	LogId                    int64     `gorm:"primaryKey;autoIncrement:false"`
	Log                      *Log      `gorm:"constraint:OnDelete:RESTRICT"`
	GroupPackageListingAclId uuid.UUID `gorm:"type:uuid;not null;index"`
}

// AllModels lists every table in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&StatusCode{}, &StatusTranslation{},
		&CollectionStatusCode{}, &PackageStatusCode{}, &PackageListingStatusCode{},
		&PackageVersionStatusCode{}, &AclStatusCode{},
		&Language{},
		&Collection{}, &Branch{},
		&Package{}, &Tag{},
		&PackageListing{}, &PackageVersion{}, &Comment{},
		&PersonPackageListingAcl{}, &GroupPackageListingAcl{},
		&Log{},
		&CollectionLog{}, &PackageLog{}, &PackageListingLog{}, &PackageVersionLog{},
		&PersonPackageListingAclLog{}, &GroupPackageListingAclLog{},
	}
}
