package auditlog_test

import (
	"context"
	"path/filepath"
	"pkgdb/pkgdb/auditlog"
	"pkgdb/pkgdb/database"
	"pkgdb/pkgdb/schema"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.SqliteDriver, filepath.Join(t.TempDir(), "pkgdb.db"), database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return db.DB
}

func statusPtr(s schema.Status) *schema.Status {
	return &s
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func appendAt(t *testing.T, log *auditlog.AuditLog, kind schema.LogKind, action schema.LogAction, target uuid.UUID, offset time.Duration) int64 {
	t.Helper()
	id, err := log.Append(context.Background(), auditlog.Record{
		Kind:       kind,
		UserId:     7,
		Action:     action,
		ChangeTime: base.Add(offset),
		TargetId:   target,
	})
	require.NoError(t, err)
	return id
}

func ids(entries []auditlog.Entry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Id)
	}
	return out
}

func TestAppendAndGet(t *testing.T) {
	ctx := context.Background()
	log := auditlog.New(setupTestDB(t))

	target := uuid.New()
	changeTime := time.Date(2024, 3, 1, 14, 30, 0, 123456789, time.FixedZone("CET", 3600))

	id, err := log.Append(ctx, auditlog.Record{
		Kind:        schema.PackageLogKind,
		UserId:      42,
		Action:      schema.StatusChanged,
		Status:      statusPtr(schema.Approved),
		Description: "approved after review",
		ChangeTime:  changeTime,
		TargetId:    target,
	})
	require.NoError(t, err)

	entry, err := log.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, schema.PackageLogKind, entry.Kind)
	assert.Equal(t, int64(42), entry.UserId)
	assert.Equal(t, schema.StatusChanged, entry.Action)
	require.NotNil(t, entry.StatusCode)
	assert.Equal(t, schema.Approved, *entry.StatusCode)
	assert.Equal(t, "approved after review", entry.Description)
	assert.Equal(t, target, entry.TargetId)
	assert.True(t, changeTime.Truncate(time.Microsecond).Equal(entry.ChangeTime), "got %v", entry.ChangeTime)

	_, err = log.Get(ctx, id+100)
	assert.ErrorIs(t, err, schema.ErrNotFound)
	assert.ErrorIs(t, err, schema.ErrLogNotFound)
}

func TestAppendRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	log := auditlog.New(db)

	_, err := log.Append(ctx, auditlog.Record{Kind: schema.PackageLogKind, Action: schema.Removed, TargetId: uuid.New()})
	assert.ErrorIs(t, err, schema.ErrInvalidLogAction)

	_, err = log.Append(ctx, auditlog.Record{Kind: "distribution", Action: schema.Added, TargetId: uuid.New()})
	assert.ErrorIs(t, err, schema.ErrInvalidLogAction)

	_, err = log.Append(ctx, auditlog.Record{Kind: schema.PackageLogKind, Action: schema.Added})
	assert.ErrorIs(t, err, schema.ErrInvalidRequest)

	_, err = log.Append(ctx, auditlog.Record{
		Kind: schema.PackageLogKind, Action: schema.StatusChanged, Status: statusPtr(schema.AwaitingQA), TargetId: uuid.New(),
	})
	assert.ErrorIs(t, err, schema.ErrInvalidStatus)

	var count int64
	require.NoError(t, db.Model(&schema.Log{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLoadSubtype(t *testing.T) {
	ctx := context.Background()
	log := auditlog.New(setupTestDB(t))

	listing, acl := uuid.New(), uuid.New()
	listingLog := appendAt(t, log, schema.PackageListingLogKind, schema.Removed, listing, 0)
	aclLog := appendAt(t, log, schema.GroupAclLogKind, schema.Added, acl, time.Second)

	entry, err := log.Get(ctx, listingLog)
	require.NoError(t, err)
	ext, err := log.LoadSubtype(ctx, entry)
	require.NoError(t, err)
	listingExt, ok := ext.(*schema.PackageListingLog)
	require.True(t, ok, "got %T", ext)
	assert.Equal(t, listing, listingExt.PackageListingId)
	require.NotNil(t, listingExt.Log)
	assert.Equal(t, schema.Removed, listingExt.Log.Action)

	entry, err = log.Get(ctx, aclLog)
	require.NoError(t, err)
	ext, err = log.LoadSubtype(ctx, entry)
	require.NoError(t, err)
	aclExt, ok := ext.(*schema.GroupPackageListingAclLog)
	require.True(t, ok, "got %T", ext)
	assert.Equal(t, acl, aclExt.GroupPackageListingAclId)
}

func TestQueryOrdersAcrossKinds(t *testing.T) {
	ctx := context.Background()
	log := auditlog.New(setupTestDB(t))

	third := appendAt(t, log, schema.PackageLogKind, schema.Added, uuid.New(), 2*time.Minute)
	first := appendAt(t, log, schema.CollectionLogKind, schema.Added, uuid.New(), 0)
	second := appendAt(t, log, schema.PersonAclLogKind, schema.Added, uuid.New(), time.Minute)
	// same change time as second, ordered after it by id
	fourth := appendAt(t, log, schema.PackageVersionLogKind, schema.Added, uuid.New(), time.Minute)

	entries, err := log.Query(auditlog.Filter{}).Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{first, second, fourth, third}, ids(entries))
}

func TestCursorPaging(t *testing.T) {
	ctx := context.Background()
	log := auditlog.New(setupTestDB(t))

	target := uuid.New()
	var appended []int64
	for i := 0; i < 5; i++ {
		appended = append(appended, appendAt(t, log, schema.PackageLogKind, schema.StatusChanged, target, time.Duration(i)*time.Second))
	}

	cursor := log.Query(auditlog.Filter{}, auditlog.PageSize(2))
	var sizes []int
	var seen []int64
	for {
		page, err := cursor.Next(ctx)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		sizes = append(sizes, len(page))
		seen = append(seen, ids(page)...)
	}
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, appended, seen)

	// resume from a saved position
	cursor = log.Query(auditlog.Filter{}, auditlog.PageSize(2))
	_, err := cursor.Next(ctx)
	require.NoError(t, err)
	position := cursor.Position()
	require.NotNil(t, position)

	rest, err := log.Query(auditlog.Filter{}, auditlog.StartAfter(*position)).Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, appended[2:], ids(rest))
}

func TestQueryIsRestartable(t *testing.T) {
	ctx := context.Background()
	log := auditlog.New(setupTestDB(t))

	for i := 0; i < 3; i++ {
		appendAt(t, log, schema.CollectionLogKind, schema.Added, uuid.New(), time.Duration(i)*time.Second)
	}
	before, err := log.Query(auditlog.Filter{}).Collect(ctx)
	require.NoError(t, err)

	appendAt(t, log, schema.CollectionLogKind, schema.StatusChanged, uuid.New(), time.Hour)

	after, err := log.Query(auditlog.Filter{}).Collect(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, ids(before), ids(after[:len(before)]))
}

func TestAllStopsEarly(t *testing.T) {
	ctx := context.Background()
	log := auditlog.New(setupTestDB(t))

	for i := 0; i < 4; i++ {
		appendAt(t, log, schema.PackageLogKind, schema.Added, uuid.New(), time.Duration(i)*time.Second)
	}

	count := 0
	for entry, err := range log.Query(auditlog.Filter{}, auditlog.PageSize(1)).All(ctx) {
		require.NoError(t, err)
		assert.NotZero(t, entry.Id)
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestQueryFilters(t *testing.T) {
	ctx := context.Background()
	log := auditlog.New(setupTestDB(t))

	pkg, listing := uuid.New(), uuid.New()
	pkgAdded := appendAt(t, log, schema.PackageLogKind, schema.Added, pkg, 0)
	listingAdded := appendAt(t, log, schema.PackageListingLogKind, schema.Added, listing, time.Minute)
	pkgChanged := appendAt(t, log, schema.PackageLogKind, schema.StatusChanged, pkg, 2*time.Minute)

	_, err := log.Append(ctx, auditlog.Record{
		Kind: schema.PackageLogKind, UserId: 99, Action: schema.StatusChanged,
		ChangeTime: base.Add(3 * time.Minute), TargetId: uuid.New(),
	})
	require.NoError(t, err)

	entries, err := log.Query(auditlog.Filter{TargetId: &pkg}).Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{pkgAdded, pkgChanged}, ids(entries))

	entries, err = log.Query(auditlog.Filter{Kinds: []schema.LogKind{schema.PackageListingLogKind}}).Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{listingAdded}, ids(entries))
	assert.Equal(t, listing, entries[0].TargetId)

	// the target of a listing is not searched as a package
	entries, err = log.Query(auditlog.Filter{Kinds: []schema.LogKind{schema.PackageLogKind}, TargetId: &listing}).Collect(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	since, until := base.Add(time.Minute), base.Add(3*time.Minute)
	entries, err = log.Query(auditlog.Filter{Since: &since, Until: &until}).Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{listingAdded, pkgChanged}, ids(entries))

	user := int64(99)
	entries, err = log.Query(auditlog.Filter{UserId: &user}).Collect(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = log.Query(auditlog.Filter{Kinds: []schema.LogKind{"distribution"}}).Collect(ctx)
	assert.ErrorIs(t, err, schema.ErrInvalidLogAction)
}
