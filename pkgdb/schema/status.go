package schema

import (
	"time"

	"github.com/google/uuid"
)

// StatusHolder is implemented by every entity that carries a status column
// and an audit log kind.
type StatusHolder interface {
	GetId() uuid.UUID
	CurrentStatus() Status
	LastStatusChange() time.Time
	SetStatusFields(status Status, changeTime time.Time)
	StatusFamily() Family
	LogKind() LogKind
}

func (c *Collection) GetId() uuid.UUID            { return c.Id }
func (c *Collection) CurrentStatus() Status       { return c.StatusCode }
func (c *Collection) LastStatusChange() time.Time { return c.StatusChangeTime }
func (c *Collection) StatusFamily() Family        { return CollectionFamily }
func (c *Collection) LogKind() LogKind            { return CollectionLogKind }
func (c *Collection) SetStatusFields(status Status, changeTime time.Time) {
	c.StatusCode, c.StatusChangeTime = status, changeTime
}

func (p *Package) GetId() uuid.UUID            { return p.Id }
func (p *Package) CurrentStatus() Status       { return p.StatusCode }
func (p *Package) LastStatusChange() time.Time { return p.StatusChangeTime }
func (p *Package) StatusFamily() Family        { return PackageFamily }
func (p *Package) LogKind() LogKind            { return PackageLogKind }
func (p *Package) SetStatusFields(status Status, changeTime time.Time) {
	p.StatusCode, p.StatusChangeTime = status, changeTime
}

func (l *PackageListing) GetId() uuid.UUID            { return l.Id }
func (l *PackageListing) CurrentStatus() Status       { return l.StatusCode }
func (l *PackageListing) LastStatusChange() time.Time { return l.StatusChangeTime }
func (l *PackageListing) StatusFamily() Family        { return PackageListingFamily }
func (l *PackageListing) LogKind() LogKind            { return PackageListingLogKind }
func (l *PackageListing) SetStatusFields(status Status, changeTime time.Time) {
	l.StatusCode, l.StatusChangeTime = status, changeTime
}

func (v *PackageVersion) GetId() uuid.UUID            { return v.Id }
func (v *PackageVersion) CurrentStatus() Status       { return v.StatusCode }
func (v *PackageVersion) LastStatusChange() time.Time { return v.StatusChangeTime }
func (v *PackageVersion) StatusFamily() Family        { return PackageVersionFamily }
func (v *PackageVersion) LogKind() LogKind            { return PackageVersionLogKind }
func (v *PackageVersion) SetStatusFields(status Status, changeTime time.Time) {
	v.StatusCode, v.StatusChangeTime = status, changeTime
}

func (a *PersonPackageListingAcl) GetId() uuid.UUID            { return a.Id }
func (a *PersonPackageListingAcl) CurrentStatus() Status       { return a.StatusCode }
func (a *PersonPackageListingAcl) LastStatusChange() time.Time { return a.StatusChangeTime }
func (a *PersonPackageListingAcl) StatusFamily() Family        { return AclFamily }
func (a *PersonPackageListingAcl) LogKind() LogKind            { return PersonAclLogKind }
func (a *PersonPackageListingAcl) SetStatusFields(status Status, changeTime time.Time) {
	a.StatusCode, a.StatusChangeTime = status, changeTime
}

func (a *GroupPackageListingAcl) GetId() uuid.UUID            { return a.Id }
func (a *GroupPackageListingAcl) CurrentStatus() Status       { return a.StatusCode }
func (a *GroupPackageListingAcl) LastStatusChange() time.Time { return a.StatusChangeTime }
func (a *GroupPackageListingAcl) StatusFamily() Family        { return AclFamily }
func (a *GroupPackageListingAcl) LogKind() LogKind            { return GroupAclLogKind }
func (a *GroupPackageListingAcl) SetStatusFields(status Status, changeTime time.Time) {
	a.StatusCode, a.StatusChangeTime = status, changeTime
}

// NextChangeTime returns now, clamped so that it never precedes the previous
// status change of the entity.
func NextChangeTime(previous time.Time) time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if now.Before(previous) {
		return previous
	}
	return now
}
