package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"pkgdb/pkgdb/auditlog"
	"pkgdb/pkgdb/schema"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	dir := t.TempDir()
	t.Setenv("PKGDB_DB_DRIVER", "sqlite")
	t.Setenv("PKGDB_DATABASE_URI", filepath.Join(dir, "pkgdb.db"))
	t.Setenv("PKGDB_LOG_LEVEL", "error")
	t.Setenv("PKGDB_ACTOR", "42")
	t.Setenv("PKGDB_CONFLICT_RETRIES", "2")
	t.Setenv("PKGDB_LANGUAGE", "C")

	metricsFile := filepath.Join(dir, "pkgdb.prom")
	t.Setenv("PKGDB_METRICS_FILE", metricsFile)
	return metricsFile
}

func run(t *testing.T, out interface{}, args ...string) error {
	t.Helper()

	var buf bytes.Buffer
	a := &app{out: &buf}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(append([]string{"--env", ""}, args...))
	if err := root.ExecuteContext(context.Background()); err != nil {
		return err
	}
	if out != nil {
		require.NoError(t, json.Unmarshal(buf.Bytes(), out), buf.String())
	}
	return nil
}

func TestPackageWorkflow(t *testing.T) {
	metricsFile := setupEnv(t)

	var pkg packageOutput
	require.NoError(t, run(t, &pkg, "package", "create", "--name", "bash", "--summary", "The GNU Bourne Again shell"))
	assert.Equal(t, "bash", pkg.Name)
	assert.Equal(t, "pkg:rpm/fedora/bash", pkg.Purl)
	assert.Equal(t, schema.AwaitingReview, pkg.StatusCode)

	var result statusResult
	require.NoError(t, run(t, &result, "package", "status", pkg.Id.String(), "approved", "--reason", "review passed"))
	assert.Equal(t, schema.Approved, result.Status)
	assert.Equal(t, "Approved", result.Name)

	err := run(t, nil, "package", "status", pkg.Id.String(), "Awaiting Review")
	assert.ErrorIs(t, err, schema.ErrInvalidTransition)

	var entries []auditlog.Entry
	require.NoError(t, run(t, &entries, "log", "query", "--target", pkg.Id.String(), "--page-size", "1"))
	require.Len(t, entries, 2)
	assert.Equal(t, schema.Added, entries[0].Action)
	assert.Equal(t, schema.StatusChanged, entries[1].Action)
	assert.Equal(t, int64(42), entries[1].UserId)
	assert.Equal(t, "review passed", entries[1].Description)
	assert.Equal(t, pkg.Id, entries[1].TargetId)

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "pkgdb_status_changes_total")
}

func TestListingAndAclWorkflow(t *testing.T) {
	setupEnv(t)

	var pkg packageOutput
	require.NoError(t, run(t, &pkg, "package", "create", "--name", "zsh", "--summary", "Z shell"))

	var collection schema.Collection
	require.NoError(t, run(t, &collection, "collection", "create", "--name", "Fedora", "--version", "40", "--status", "active"))
	assert.Equal(t, schema.Active, collection.StatusCode)

	var listing schema.PackageListing
	require.NoError(t, run(t, &listing, "listing", "create", "--package", pkg.Id.String(), "--collection", collection.Id.String()))

	var grant map[string]string
	require.NoError(t, run(t, &grant, "acl", "grant", listing.Id.String(), "--subject", "7", "--role", "owner", "--status", "approved"))
	require.NotEmpty(t, grant["acl_id"])

	var check map[string]bool
	require.NoError(t, run(t, &check, "acl", "check", listing.Id.String(), "--subject", "7", "--role", "watcher"))
	assert.True(t, check["allowed"])

	var revoked statusResult
	require.NoError(t, run(t, &revoked, "acl", "revoke", grant["acl_id"], "--reason", "orphaned"))
	assert.Equal(t, schema.Obsolete, revoked.Status)

	require.NoError(t, run(t, &check, "acl", "check", listing.Id.String(), "--subject", "7", "--role", "watcher"))
	assert.False(t, check["allowed"])

	var version versionOutput
	require.NoError(t, run(t, &version, "version", "create", listing.Id.String(), "1:5.9-7.fc40"))
	assert.Equal(t, "1:5.9-7.fc40", version.EVR)
	assert.Equal(t, "pkg:rpm/fedora/zsh@5.9-7.fc40?epoch=1", version.Purl)

	err := run(t, nil, "version", "latest", listing.Id.String())
	assert.ErrorIs(t, err, schema.ErrVersionNotFound)
}
