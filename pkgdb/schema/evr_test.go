package schema_test

import (
	"pkgdb/pkgdb/schema"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEVR(t *testing.T) {
	evr, err := schema.ParseEVR("1:2.3-4.fc40")
	require.NoError(t, err)
	assert.Equal(t, schema.EVR{Epoch: 1, Version: "2.3", Release: "4.fc40"}, evr)
	assert.Equal(t, "1:2.3-4.fc40", evr.String())

	evr, err = schema.ParseEVR("5.2.26-3.fc40")
	require.NoError(t, err)
	assert.Equal(t, schema.EVR{Version: "5.2.26", Release: "3.fc40"}, evr)
	assert.Equal(t, "5.2.26-3.fc40", evr.String())

	// the release never contains a dash, the version may
	evr, err = schema.ParseEVR("1.0-beta-2")
	require.NoError(t, err)
	assert.Equal(t, "1.0-beta", evr.Version)
	assert.Equal(t, "2", evr.Release)

	for _, bad := range []string{"1.0", "x:1.0-1", "-1", "1.0-", "-1:1.0-1"} {
		_, err := schema.ParseEVR(bad)
		assert.ErrorIs(t, err, schema.ErrInvalidRequest, bad)
	}
}

func mustEVR(t *testing.T, s string) schema.EVR {
	evr, err := schema.ParseEVR(s)
	require.NoError(t, err)
	return evr
}

func TestCompareEVR(t *testing.T) {
	cases := []struct {
		a, b     string
		expected int
	}{
		{"1.0-1", "1.0-1", 0},
		{"1.0-1", "1.1-1", -1},
		{"1.10-1", "1.9-1", 1},
		{"1.0-1", "1.0.1-1", -1},
		{"1.0a-1", "1.0-1", 1},
		{"1.1-1", "1.a-1", 1},
		{"010-1", "10-1", 0},
		{"1_0-1", "1.0-1", 0},
		{"1.ü0-1", "1.0-1", 0},
		{"1.0~rc1-1", "1.0-1", -1},
		{"1.0~rc1-1", "1.0~rc2-1", -1},
		{"1.0^git1-1", "1.0-1", 1},
		{"1.0^git1-1", "1.0.1-1", -1},
		{"1.0-2.fc40", "1.0-10.fc40", -1},
		{"1:0.1-1", "9.9-1", 1},
		{"2.0-1", "1:1.0-1", -1},
	}
	for _, c := range cases {
		a, b := mustEVR(t, c.a), mustEVR(t, c.b)
		assert.Equal(t, c.expected, a.Compare(b), "%v <=> %v", c.a, c.b)
		assert.Equal(t, -c.expected, b.Compare(a), "%v <=> %v", c.b, c.a)
	}
}

func TestPackageURL(t *testing.T) {
	pkg := schema.Package{Name: "bash"}
	assert.Equal(t, "pkg:rpm/fedora/bash", pkg.PackageURL())
	assert.Equal(t, "pkg:rpm/fedora/bash@5.2.26-3.fc40", pkg.VersionURL(mustEVR(t, "5.2.26-3.fc40")))
	assert.Equal(t, "pkg:rpm/fedora/bash@5.2.26-3.fc40?epoch=1", pkg.VersionURL(mustEVR(t, "1:5.2.26-3.fc40")))
}
