package driver

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		raw    string
		major  int
		minor  int
		patch  int
		flavor string
	}{
		{"8.0.36", 8, 0, 36, "mysql"},
		{"8.0.35-0ubuntu0.22.04.1", 8, 0, 35, "mysql"},
		{"8.0.36-28-Percona", 8, 0, 36, "percona"},
		{"10.11.6-MariaDB-1", 10, 11, 6, "mariadb"},
		{"5.7.44-log", 5, 7, 44, "mysql"},
	}
	for _, tt := range tests {
		v, err := ParseVersion(tt.raw)
		if err != nil {
			t.Errorf("ParseVersion(%q): %v", tt.raw, err)
			continue
		}
		if v.Major != tt.major || v.Minor != tt.minor || v.Patch != tt.patch {
			t.Errorf("ParseVersion(%q) = %d.%d.%d", tt.raw, v.Major, v.Minor, v.Patch)
		}
		if v.Flavor != tt.flavor {
			t.Errorf("ParseVersion(%q) flavor = %q, want %q", tt.raw, v.Flavor, tt.flavor)
		}
		if v.Raw != tt.raw {
			t.Errorf("Raw = %q, want %q", v.Raw, tt.raw)
		}
	}
}

func TestParseVersion_Invalid(t *testing.T) {
	if _, err := ParseVersion("not-a-version"); err == nil {
		t.Error("expected parse error")
	}
}

func TestAtLeast(t *testing.T) {
	v := ServerVersion{Major: 8, Minor: 0, Patch: 18}
	tests := []struct {
		major, minor, patch int
		want                bool
	}{
		{8, 0, 18, true},
		{8, 0, 17, true},
		{8, 0, 19, false},
		{8, 1, 0, false},
		{5, 7, 44, true},
		{9, 0, 0, false},
	}
	for _, tt := range tests {
		if got := v.AtLeast(tt.major, tt.minor, tt.patch); got != tt.want {
			t.Errorf("8.0.18 AtLeast(%d.%d.%d) = %v, want %v", tt.major, tt.minor, tt.patch, got, tt.want)
		}
	}
}

func TestSupportsExplainAnalyze(t *testing.T) {
	tests := []struct {
		v    ServerVersion
		want bool
	}{
		{ServerVersion{Major: 8, Minor: 0, Patch: 18, Flavor: "mysql"}, true},
		{ServerVersion{Major: 8, Minor: 0, Patch: 17, Flavor: "mysql"}, false},
		{ServerVersion{Major: 8, Minor: 4, Patch: 0, Flavor: "percona"}, true},
		{ServerVersion{Major: 11, Minor: 4, Patch: 2, Flavor: "mariadb"}, false},
		{ServerVersion{Major: 5, Minor: 7, Patch: 44, Flavor: "mysql"}, false},
	}
	for _, tt := range tests {
		if got := tt.v.SupportsExplainAnalyze(); got != tt.want {
			t.Errorf("%s SupportsExplainAnalyze = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestServerVersionString(t *testing.T) {
	v := ServerVersion{Major: 8, Minor: 0, Patch: 36, Flavor: "mysql"}
	if got := v.String(); got != "8.0.36 (mysql)" {
		t.Errorf("String() = %q", got)
	}
}
