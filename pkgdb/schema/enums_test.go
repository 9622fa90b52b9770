package schema_test

import (
	"pkgdb/pkgdb/schema"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]schema.Status{
		"approved":          schema.Approved,
		"Awaiting Review":   schema.AwaitingReview,
		"awaitingreview":    schema.AwaitingReview,
		"awaitingdevel":     schema.AwaitingDevelopment,
		"AwaitingQA":        schema.AwaitingQA,
		" EOL ":             schema.EOL,
		"18":                schema.UnderDevelopment,
		"under development": schema.UnderDevelopment,
	}
	for input, expected := range cases {
		status, err := schema.ParseStatus(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, status, input)
	}

	_, err := schema.ParseStatus("retired")
	assert.ErrorIs(t, err, schema.ErrInvalidStatus)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "awaitingreview", schema.AwaitingReview.String())
	assert.Equal(t, "Awaiting Review", schema.AwaitingReview.CanonicalName())
	assert.Equal(t, "status(2)", schema.Status(2).String())
}

func TestFamilyStatuses(t *testing.T) {
	statuses, err := schema.FamilyStatuses(schema.PackageFamily)
	require.NoError(t, err)
	assert.Equal(t, []schema.Status{schema.AwaitingReview, schema.Approved, schema.Denied}, statuses)

	_, err = schema.FamilyStatuses("distribution")
	assert.Error(t, err)

	for _, family := range schema.Families() {
		statuses, err := schema.FamilyStatuses(family)
		require.NoError(t, err)
		assert.NotEmpty(t, statuses, family)
	}
}

func TestCheckValidStatus(t *testing.T) {
	assert.NoError(t, schema.CheckValidStatus(schema.CollectionFamily, schema.EOL))
	assert.ErrorIs(t, schema.CheckValidStatus(schema.PackageFamily, schema.EOL), schema.ErrInvalidStatus)
	assert.ErrorIs(t, schema.CheckValidStatus(schema.AclFamily, schema.AwaitingQA), schema.ErrInvalidStatus)
}

func TestPackageTransitions(t *testing.T) {
	allowed := map[[2]schema.Status]bool{
		{schema.AwaitingReview, schema.Approved}: true,
		{schema.AwaitingReview, schema.Denied}:   true,
	}
	statuses, err := schema.FamilyStatuses(schema.PackageFamily)
	require.NoError(t, err)

	for _, from := range statuses {
		for _, to := range statuses {
			err := schema.CheckTransition(schema.PackageFamily, from, to)
			if allowed[[2]schema.Status{from, to}] {
				assert.NoError(t, err, "%v -> %v", from, to)
			} else {
				assert.ErrorIs(t, err, schema.ErrInvalidTransition, "%v -> %v", from, to)
			}
		}
	}
}

func TestVersionTransitions(t *testing.T) {
	path := []schema.Status{
		schema.AwaitingDevelopment, schema.AwaitingReview, schema.AwaitingQA,
		schema.AwaitingPublish, schema.Approved, schema.Obsolete,
	}
	for i := 0; i+1 < len(path); i++ {
		assert.NoError(t, schema.CheckTransition(schema.PackageVersionFamily, path[i], path[i+1]))
	}

	assert.NoError(t, schema.CheckTransition(schema.PackageVersionFamily, schema.AwaitingPublish, schema.Denied))
	assert.ErrorIs(t, schema.CheckTransition(schema.PackageVersionFamily, schema.AwaitingDevelopment, schema.Approved), schema.ErrInvalidTransition)
	assert.ErrorIs(t, schema.CheckTransition(schema.PackageVersionFamily, schema.Obsolete, schema.Approved), schema.ErrInvalidTransition)
	assert.ErrorIs(t, schema.CheckTransition(schema.PackageVersionFamily, schema.Approved, schema.Active), schema.ErrInvalidStatus)

	assert.True(t, schema.IsTerminal(schema.PackageVersionFamily, schema.Obsolete))
	assert.False(t, schema.IsTerminal(schema.PackageVersionFamily, schema.Approved))
}

func TestInitialStatus(t *testing.T) {
	assert.NoError(t, schema.CheckInitialStatus(schema.AclFamily, schema.Approved))
	assert.NoError(t, schema.CheckInitialStatus(schema.CollectionFamily, schema.Active))
	assert.ErrorIs(t, schema.CheckInitialStatus(schema.AclFamily, schema.Obsolete), schema.ErrInvalidTransition)
	assert.ErrorIs(t, schema.CheckInitialStatus(schema.PackageFamily, schema.Approved), schema.ErrInvalidTransition)
	assert.ErrorIs(t, schema.CheckInitialStatus(schema.PackageFamily, schema.Active), schema.ErrInvalidStatus)
}

func TestRoles(t *testing.T) {
	assert.True(t, schema.Owner.Covers(schema.Watcher))
	assert.True(t, schema.Owner.Covers(schema.Owner))
	assert.True(t, schema.Watcher.Covers(schema.Watcher))
	assert.False(t, schema.Watcher.Covers(schema.Owner))
	assert.False(t, schema.Role("admin").Covers(schema.Watcher))

	assert.NoError(t, schema.CheckValidRole(schema.Owner))
	assert.ErrorIs(t, schema.CheckValidRole("admin"), schema.ErrInvalidRequest)
}

func TestLogActions(t *testing.T) {
	assert.NoError(t, schema.CheckValidLogAction(schema.PackageListingLogKind, schema.Removed))
	assert.NoError(t, schema.CheckValidLogAction(schema.GroupAclLogKind, schema.Removed))
	assert.NoError(t, schema.CheckValidLogAction(schema.CollectionLogKind, schema.StatusChanged))

	assert.ErrorIs(t, schema.CheckValidLogAction(schema.PackageLogKind, schema.Removed), schema.ErrInvalidLogAction)
	assert.ErrorIs(t, schema.CheckValidLogAction(schema.PackageVersionLogKind, "deleted"), schema.ErrInvalidLogAction)
	assert.ErrorIs(t, schema.CheckValidLogAction("distribution", schema.Added), schema.ErrInvalidLogAction)

	assert.Equal(t, schema.AclFamily, schema.PersonAclLogKind.StatusFamily())
	assert.Equal(t, schema.GroupAclLogKind, schema.AclLogKind(schema.GroupSubject))
	assert.Equal(t, schema.PersonAclLogKind, schema.AclLogKind(schema.PersonSubject))
}
