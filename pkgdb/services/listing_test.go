package services

import (
	"context"
	"pkgdb/pkgdb/schema"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestListingLifecycle(t *testing.T) {
	ctx := context.Background()
	p, _ := setupPkgdb(t)

	pkg := createPackage(t, p, "bash")
	f40 := createCollection(t, p, "Fedora", "40")

	listing := createListing(t, p, pkg, f40)
	assert.Equal(t, schema.AwaitingReview, listing.StatusCode)

	_, err := p.Listings.Create(ctx, testActor, CreateListingRequest{PackageId: pkg.Id, CollectionId: f40.Id})
	assert.ErrorIs(t, err, schema.ErrAlreadyExists)

	// a listing waits for its branch before it is approved
	_, err = p.Listings.SetStatus(ctx, testActor, listing.Id, schema.Approved, "")
	assert.ErrorIs(t, err, schema.ErrInvalidTransition)

	listing, err = p.Listings.SetStatus(ctx, testActor, listing.Id, schema.AwaitingBranch, "")
	require.NoError(t, err)
	listing, err = p.Listings.SetStatus(ctx, testActor, listing.Id, schema.Denied, "retired upstream")
	require.NoError(t, err)
	assert.Equal(t, schema.Denied, listing.StatusCode)

	_, err = p.Listings.SetStatus(ctx, testActor, listing.Id, schema.AwaitingReview, "")
	assert.ErrorIs(t, err, schema.ErrInvalidTransition)

	// a denied listing no longer blocks a new request
	again := createListing(t, p, pkg, f40)
	assert.NotEqual(t, listing.Id, again.Id)

	entries := history(t, p, schema.PackageListingLogKind, listing.Id)
	assert.Len(t, entries, 3)
	assert.Equal(t, 2, countActions(entries, schema.StatusChanged))
}

func TestCreateListingMissingRefs(t *testing.T) {
	ctx := context.Background()
	p, _ := setupPkgdb(t)

	pkg := createPackage(t, p, "bash")
	f40 := createCollection(t, p, "Fedora", "40")

	_, err := p.Listings.Create(ctx, testActor, CreateListingRequest{PackageId: uuid.New(), CollectionId: f40.Id})
	assert.ErrorIs(t, err, schema.ErrPackageNotFound)

	_, err = p.Listings.Create(ctx, testActor, CreateListingRequest{PackageId: pkg.Id, CollectionId: uuid.New()})
	assert.ErrorIs(t, err, schema.ErrCollectionNotFound)

	_, err = p.Listings.Create(ctx, testActor, CreateListingRequest{PackageId: pkg.Id})
	assert.ErrorIs(t, err, schema.ErrInvalidRequest)
}

func TestListListings(t *testing.T) {
	ctx := context.Background()
	p, _ := setupPkgdb(t)

	bash := createPackage(t, p, "bash")
	zsh := createPackage(t, p, "zsh")
	f40 := createCollection(t, p, "Fedora", "40")
	f41 := createCollection(t, p, "Fedora", "41")

	createListing(t, p, bash, f40)
	createListing(t, p, bash, f41)
	createListing(t, p, zsh, f41)

	listings, err := p.Listings.ListForPackage(ctx, bash.Id)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	versions := []string{}
	for _, l := range listings {
		require.NotNil(t, l.Collection)
		versions = append(versions, l.Collection.Version)
	}
	assert.ElementsMatch(t, []string{"40", "41"}, versions)

	listings, err = p.Listings.ListForCollection(ctx, f41.Id)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	names := []string{}
	for _, l := range listings {
		require.NotNil(t, l.Package)
		names = append(names, l.Package.Name)
	}
	assert.ElementsMatch(t, []string{"bash", "zsh"}, names)

	listing, err := p.Listings.Get(ctx, listings[0].Id)
	require.NoError(t, err)
	require.NotNil(t, listing.Package)
	require.NotNil(t, listing.Collection)
	assert.Equal(t, f41.Id, listing.Collection.Id)

	_, err = p.Listings.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, schema.ErrListingNotFound)
}

func TestStoreRejectsSecondLiveListing(t *testing.T) {
	p, db := setupPkgdb(t)
	pkg := createPackage(t, p, "bash")
	f40 := createCollection(t, p, "Fedora", "40")
	first := createListing(t, p, pkg, f40)

	now := time.Now().UTC().Truncate(time.Microsecond)
	listing := func(status schema.Status) *schema.PackageListing {
		return &schema.PackageListing{
			Id: uuid.New(), PackageId: pkg.Id, CollectionId: f40.Id, Owner: testActor,
			StatusCode: status, CreatedAt: now, StatusChangeTime: now,
		}
	}

	err := db.Create(listing(schema.AwaitingBranch)).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.ErrorIs(t, dbError(err, "creating package listing"), schema.ErrAlreadyExists)

	require.NoError(t, db.Create(listing(schema.Denied)).Error)
	require.NoError(t, db.Create(listing(schema.Denied)).Error)

	_, err = p.Listings.SetStatus(context.Background(), testActor, first.Id, schema.AwaitingBranch, "")
	require.NoError(t, err)
	_, err = p.Listings.SetStatus(context.Background(), testActor, first.Id, schema.Denied, "")
	require.NoError(t, err)
	require.NoError(t, db.Create(listing(schema.AwaitingReview)).Error)
}
