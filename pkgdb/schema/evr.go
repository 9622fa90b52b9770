package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/package-url/packageurl-go"
)

// EVR is an rpm epoch:version-release triple.
type EVR struct {
	Epoch   int
	Version string
	Release string
}

// ParseEVR accepts "version-release" or "epoch:version-release".
func ParseEVR(s string) (EVR, error) {
	var evr EVR

	rest := strings.TrimSpace(s)
	if idx := strings.Index(rest, ":"); idx >= 0 {
		epoch, err := strconv.Atoi(rest[:idx])
		if err != nil || epoch < 0 {
			return evr, fmt.Errorf("invalid epoch in '%v': %w", s, ErrInvalidRequest)
		}
		evr.Epoch = epoch
		rest = rest[idx+1:]
	}

	idx := strings.LastIndex(rest, "-")
	if idx <= 0 || idx == len(rest)-1 {
		return evr, fmt.Errorf("'%v' must have the form [epoch:]version-release: %w", s, ErrInvalidRequest)
	}
	evr.Version, evr.Release = rest[:idx], rest[idx+1:]

	return evr, nil
}

func (e EVR) String() string {
	if e.Epoch == 0 {
		return fmt.Sprintf("%v-%v", e.Version, e.Release)
	}
	return fmt.Sprintf("%d:%v-%v", e.Epoch, e.Version, e.Release)
}

// Compare orders two EVRs the way rpm does: epoch first, then version and
// release with rpmvercmp.
func (e EVR) Compare(other EVR) int {
	if e.Epoch != other.Epoch {
		if e.Epoch < other.Epoch {
			return -1
		}
		return 1
	}
	if c := rpmvercmp(e.Version, other.Version); c != 0 {
		return c
	}
	return rpmvercmp(e.Release, other.Release)
}

func isAlnum(r byte) bool {
	return isDigit(r) || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r byte) bool {
	return r >= '0' && r <= '9'
}

func rpmvercmp(a, b string) int {
	if a == b {
		return 0
	}

	i, j := 0, 0
	for i < len(a) || j < len(b) {
		for i < len(a) && !isAlnum(a[i]) && a[i] != '~' && a[i] != '^' {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) && b[j] != '~' && b[j] != '^' {
			j++
		}

		// tilde sorts before everything, even the end of the string
		if i < len(a) && a[i] == '~' || j < len(b) && b[j] == '~' {
			if i >= len(a) || a[i] != '~' {
				return 1
			}
			if j >= len(b) || b[j] != '~' {
				return -1
			}
			i++
			j++
			continue
		}

		// caret sorts after the end of the string but before anything else
		if i < len(a) && a[i] == '^' || j < len(b) && b[j] == '^' {
			if i >= len(a) {
				return -1
			}
			if j >= len(b) {
				return 1
			}
			if a[i] != '^' {
				return 1
			}
			if b[j] != '^' {
				return -1
			}
			i++
			j++
			continue
		}

		if i >= len(a) || j >= len(b) {
			break
		}

		si, sj := i, j
		numeric := isDigit(a[i])
		if numeric {
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
		} else {
			for i < len(a) && isAlnum(a[i]) && !isDigit(a[i]) {
				i++
			}
			for j < len(b) && isAlnum(b[j]) && !isDigit(b[j]) {
				j++
			}
		}

		segA, segB := a[si:i], b[sj:j]
		if len(segB) == 0 {
			// numeric segments are newer than alpha ones
			if numeric {
				return 1
			}
			return -1
		}

		if numeric {
			segA = strings.TrimLeft(segA, "0")
			segB = strings.TrimLeft(segB, "0")
			if len(segA) != len(segB) {
				if len(segA) > len(segB) {
					return 1
				}
				return -1
			}
		}

		if c := strings.Compare(segA, segB); c != 0 {
			return c
		}
	}

	switch {
	case i >= len(a) && j >= len(b):
		return 0
	case i >= len(a):
		return -1
	default:
		return 1
	}
}

// PackageURL returns the package url of a Fedora package.
func (p *Package) PackageURL() string {
	return packageurl.NewPackageURL(packageurl.TypeRPM, "fedora", p.Name, "", nil, "").ToString()
}

// VersionURL returns the package url of a specific build of the package.
func (p *Package) VersionURL(evr EVR) string {
	var qualifiers packageurl.Qualifiers
	if evr.Epoch != 0 {
		qualifiers = packageurl.QualifiersFromMap(map[string]string{"epoch": strconv.Itoa(evr.Epoch)})
	}
	version := fmt.Sprintf("%v-%v", evr.Version, evr.Release)
	return packageurl.NewPackageURL(packageurl.TypeRPM, "fedora", p.Name, version, qualifiers, "").ToString()
}
