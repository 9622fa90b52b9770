package services

import (
	"context"
	"path/filepath"
	"pkgdb/pkgdb/auditlog"
	"pkgdb/pkgdb/database"
	"pkgdb/pkgdb/schema"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testActor = int64(1000)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.SqliteDriver, filepath.Join(t.TempDir(), "pkgdb.db"), database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return db.DB
}

func setupPkgdb(t *testing.T) (PackageDB, *gorm.DB) {
	db := setupTestDB(t)
	return New(db), db
}

func createPackage(t *testing.T, p PackageDB, name string) schema.Package {
	t.Helper()
	pkg, err := p.Packages.Create(context.Background(), testActor, CreatePackageRequest{Name: name, Summary: name + " package"})
	require.NoError(t, err)
	return pkg
}

func createCollection(t *testing.T, p PackageDB, name, version string) schema.Collection {
	t.Helper()
	collection, err := p.Collections.Create(context.Background(), testActor, CreateCollectionRequest{
		Name: name, Version: version, Status: schema.Active, Owner: testActor,
	})
	require.NoError(t, err)
	return collection
}

func createListing(t *testing.T, p PackageDB, pkg schema.Package, collection schema.Collection) schema.PackageListing {
	t.Helper()
	listing, err := p.Listings.Create(context.Background(), testActor, CreateListingRequest{
		PackageId: pkg.Id, CollectionId: collection.Id, Owner: testActor,
	})
	require.NoError(t, err)
	return listing
}

// setupListing creates the bash package listed in Fedora 40.
func setupListing(t *testing.T, p PackageDB) schema.PackageListing {
	t.Helper()
	pkg := createPackage(t, p, "bash")
	collection := createCollection(t, p, "Fedora", "40")
	return createListing(t, p, pkg, collection)
}

func history(t *testing.T, p PackageDB, kind schema.LogKind, target uuid.UUID) []auditlog.Entry {
	t.Helper()
	entries, err := p.Log.Query(auditlog.Filter{Kinds: []schema.LogKind{kind}, TargetId: &target}).Collect(context.Background())
	require.NoError(t, err)
	return entries
}

func countActions(entries []auditlog.Entry, action schema.LogAction) int {
	n := 0
	for _, e := range entries {
		if e.Action == action {
			n++
		}
	}
	return n
}
