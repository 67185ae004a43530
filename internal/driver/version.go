package driver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ServerVersion represents a parsed server version.
type ServerVersion struct {
	Raw    string // e.g. "8.0.35-0ubuntu0.22.04.1" or "8.0.28-MariaDB-debug"
	Major  int
	Minor  int
	Patch  int
	Flavor string // "mysql", "percona", "mariadb", "postgres", "sqlite"
}

// String returns a human-readable version string.
func (v ServerVersion) String() string {
	return fmt.Sprintf("%d.%d.%d (%s)", v.Major, v.Minor, v.Patch, v.Flavor)
}

// AtLeast reports whether the server version is >= the given version.
func (v ServerVersion) AtLeast(major, minor, patch int) bool {
	if v.Major != major {
		return v.Major > major
	}
	if v.Minor != minor {
		return v.Minor > minor
	}
	return v.Patch >= patch
}

// SupportsExplainAnalyze reports whether MySQL EXPLAIN ANALYZE is available
// (8.0.18+). Older servers fall back to EXPLAIN FORMAT=TREE.
func (v ServerVersion) SupportsExplainAnalyze() bool {
	return v.Flavor != "mariadb" && v.AtLeast(8, 0, 18)
}

// SupportsHistograms reports whether column histograms exist (MySQL 8.0+).
func (v ServerVersion) SupportsHistograms() bool {
	return v.Flavor != "mariadb" && v.AtLeast(8, 0, 0)
}

var reVersion = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)`)

// ParseVersion parses a server version string. Distribution suffixes such
// as "-MariaDB" or "-debug" are kept in Raw but stripped for comparison.
func ParseVersion(raw string) (ServerVersion, error) {
	v := ServerVersion{Raw: raw}

	matches := reVersion.FindStringSubmatch(raw)
	if len(matches) < 4 {
		return v, fmt.Errorf("could not parse version: %s", raw)
	}

	v.Major, _ = strconv.Atoi(matches[1])
	v.Minor, _ = strconv.Atoi(matches[2])
	v.Patch, _ = strconv.Atoi(matches[3])

	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "mariadb"):
		v.Flavor = "mariadb"
	case strings.Contains(lower, "percona"):
		v.Flavor = "percona"
	case strings.Contains(lower, "postgres"):
		v.Flavor = "postgres"
	default:
		v.Flavor = "mysql"
	}

	return v, nil
}
