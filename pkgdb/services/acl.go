package services

import (
	"context"
	"fmt"
	"log/slog"
	"pkgdb/pkgdb/auditlog"
	"pkgdb/pkgdb/schema"
	"pkgdb/utils/logging"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AclService manages interest and permission rows on package listings. Rows
// are never deleted, revocation moves them to a terminal status.
type AclService struct {
	db *gorm.DB
}

type Subject struct {
	Kind schema.SubjectKind `json:"kind" validate:"required,oneof=person group"`
	Id   int64              `json:"id"`
}

type GrantRequest struct {
	ListingId uuid.UUID     `json:"listing_id" validate:"required"`
	Subject   Subject       `json:"subject"`
	Role      schema.Role   `json:"role" validate:"required,oneof=watcher owner"`
	Status    schema.Status `json:"status"`
}

// AclList holds the person and group rows matching a query.
type AclList struct {
	Persons []schema.PersonPackageListingAcl `json:"persons"`
	Groups  []schema.GroupPackageListingAcl  `json:"groups"`
}

var liveAclStatuses = []schema.Status{schema.AwaitingReview, schema.Approved}

func subjectColumn(kind schema.SubjectKind) string {
	if kind == schema.GroupSubject {
		return "group_id"
	}
	return "user_id"
}

func aclModel(kind schema.SubjectKind) interface{} {
	if kind == schema.GroupSubject {
		return &schema.GroupPackageListingAcl{}
	}
	return &schema.PersonPackageListingAcl{}
}

func newAcl(req GrantRequest, status schema.Status) schema.StatusHolder {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if req.Subject.Kind == schema.GroupSubject {
		return &schema.GroupPackageListingAcl{
			Id: uuid.New(), PackageListingId: req.ListingId, GroupId: req.Subject.Id, Role: req.Role,
			StatusCode: status, CreatedAt: now, StatusChangeTime: now,
		}
	}
	return &schema.PersonPackageListingAcl{
		Id: uuid.New(), PackageListingId: req.ListingId, UserId: req.Subject.Id, Role: req.Role,
		StatusCode: status, CreatedAt: now, StatusChangeTime: now,
	}
}

// Grant records a new acl row for the subject. At most one live row may exist
// per listing, subject and role.
func (s *AclService) Grant(ctx context.Context, actor int64, req GrantRequest) (uuid.UUID, error) {
	if err := validateRequest(req); err != nil {
		return uuid.Nil, err
	}
	status := req.Status
	if status == 0 {
		status = schema.AwaitingReview
	}
	if err := schema.CheckInitialStatus(schema.AclFamily, status); err != nil {
		return uuid.Nil, err
	}

	acl := newAcl(req, status)

	err := s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := checkListingExists(txn, req.ListingId); err != nil {
			return err
		}

		var live int64
		result := txn.Model(aclModel(req.Subject.Kind)).
			Where("package_listing_id = ? AND "+subjectColumn(req.Subject.Kind)+" = ? AND role = ?", req.ListingId, req.Subject.Id, req.Role).
			Where("status_code IN ?", liveAclStatuses).
			Count(&live)
		if result.Error != nil {
			return result.Error
		}
		if live != 0 {
			return fmt.Errorf("%v %d already holds %v on listing %v: %w", req.Subject.Kind, req.Subject.Id, req.Role, req.ListingId, schema.ErrAlreadyExists)
		}

		if err := txn.Create(acl).Error; err != nil {
			return err
		}
		return appendAdded(txn, acl, actor, fmt.Sprintf("%v %d granted %v", req.Subject.Kind, req.Subject.Id, req.Role))
	})
	if err != nil {
		return uuid.Nil, dbError(err, "granting acl", "listing_id", req.ListingId, "subject", req.Subject.Id, "role", req.Role)
	}

	recordCreated(acl.LogKind())
	slog.Info("acl granted", "acl_id", acl.GetId(), "listing_id", req.ListingId, "subject_kind", req.Subject.Kind, "subject_id", req.Subject.Id, "role", req.Role, "code", logging.ACL_CHANGE)
	return acl.GetId(), nil
}

func revokedStatus(current schema.Status) (schema.Status, error) {
	switch current {
	case schema.AwaitingReview:
		return schema.Denied, nil
	case schema.Approved:
		return schema.Obsolete, nil
	}
	return 0, fmt.Errorf("acl in status %v cannot be revoked: %w", current, schema.ErrInvalidTransition)
}

func revoke[T any, PT statusEntity[T]](db *gorm.DB, aclId uuid.UUID, get func(uuid.UUID, *gorm.DB) (T, error), actor int64, reason string) (schema.Status, error) {
	var status schema.Status
	err := db.Transaction(func(txn *gorm.DB) error {
		acl, err := get(aclId, txn)
		if err != nil {
			return err
		}
		status, err = revokedStatus(PT(&acl).CurrentStatus())
		if err != nil {
			return err
		}
		return applyStatusChange[T, PT](txn, PT(&acl), statusChange{
			to: status, action: schema.Removed, actor: actor, reason: reason,
		})
	})
	recordStatusChange(schema.AclFamily, status, err)
	if err != nil {
		return 0, dbError(err, "revoking acl", "acl_id", aclId)
	}
	return status, nil
}

// Revoke ends an acl and returns the resulting status: pending rows are
// denied, approved rows become obsolete.
func (s *AclService) Revoke(ctx context.Context, actor int64, kind schema.SubjectKind, aclId uuid.UUID, reason string) (schema.Status, error) {
	if err := schema.CheckValidSubjectKind(kind); err != nil {
		return 0, err
	}
	db := s.db.WithContext(ctx)
	if kind == schema.GroupSubject {
		return revoke(db, aclId, schema.GetGroupAcl, actor, reason)
	}
	return revoke(db, aclId, schema.GetPersonAcl, actor, reason)
}

func (s *AclService) SetStatus(ctx context.Context, actor int64, kind schema.SubjectKind, aclId uuid.UUID, status schema.Status, reason string) (schema.Status, error) {
	if err := schema.CheckValidSubjectKind(kind); err != nil {
		return 0, err
	}
	db := s.db.WithContext(ctx)
	change := statusChange{to: status, action: schema.StatusChanged, actor: actor, reason: reason}
	if kind == schema.GroupSubject {
		acl, err := setStatus(db, aclId, schema.GetGroupAcl, change)
		return acl.StatusCode, err
	}
	acl, err := setStatus(db, aclId, schema.GetPersonAcl, change)
	return acl.StatusCode, err
}

// CheckPermission reports whether the subject holds an approved role on the
// listing that covers required.
func (s *AclService) CheckPermission(ctx context.Context, listingId uuid.UUID, subject Subject, required schema.Role) (bool, error) {
	if err := schema.CheckValidRole(required); err != nil {
		return false, err
	}
	if err := schema.CheckValidSubjectKind(subject.Kind); err != nil {
		return false, err
	}

	var roles []schema.Role
	result := s.db.WithContext(ctx).Model(aclModel(subject.Kind)).
		Where("package_listing_id = ? AND "+subjectColumn(subject.Kind)+" = ? AND status_code = ?", listingId, subject.Id, schema.Approved).
		Pluck("role", &roles)
	if result.Error != nil {
		return false, dbError(result.Error, "checking permission", "listing_id", listingId, "subject", subject.Id)
	}

	for _, role := range roles {
		if role.Covers(required) {
			return true, nil
		}
	}
	return false, nil
}

func (s *AclService) ListForListing(ctx context.Context, listingId uuid.UUID) (AclList, error) {
	db := s.db.WithContext(ctx)

	var list AclList
	if err := db.Where("package_listing_id = ?", listingId).Order("created_at").Find(&list.Persons).Error; err != nil {
		return AclList{}, dbError(err, "listing person acls", "listing_id", listingId)
	}
	if err := db.Where("package_listing_id = ?", listingId).Order("created_at").Find(&list.Groups).Error; err != nil {
		return AclList{}, dbError(err, "listing group acls", "listing_id", listingId)
	}
	return list, nil
}

func (s *AclService) ListForSubject(ctx context.Context, subject Subject) (AclList, error) {
	if err := schema.CheckValidSubjectKind(subject.Kind); err != nil {
		return AclList{}, err
	}
	db := s.db.WithContext(ctx)

	var list AclList
	var err error
	if subject.Kind == schema.GroupSubject {
		err = db.Where("group_id = ?", subject.Id).Order("created_at").Find(&list.Groups).Error
	} else {
		err = db.Where("user_id = ?", subject.Id).Order("created_at").Find(&list.Persons).Error
	}
	if err != nil {
		return AclList{}, dbError(err, "listing acls for subject", "kind", subject.Kind, "subject", subject.Id)
	}
	return list, nil
}

// History returns the audit entries of one acl row.
func (s *AclService) History(ctx context.Context, kind schema.SubjectKind, aclId uuid.UUID) ([]auditlog.Entry, error) {
	if err := schema.CheckValidSubjectKind(kind); err != nil {
		return nil, err
	}
	return auditlog.Query(s.db, auditlog.Filter{
		Kinds:    []schema.LogKind{schema.AclLogKind(kind)},
		TargetId: &aclId,
	}).Collect(ctx)
}
