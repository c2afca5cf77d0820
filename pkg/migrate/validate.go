package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks one driver directory: filenames follow
// YYYYMMDDHHMMSS_name.sql, versions are unique and every file carries both
// goose sections. It returns the filenames keyed by version.
func ValidateDir(dir string) (map[string]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", name, err)
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(b), marker) {
				return nil, fmt.Errorf("migration %q missing %q", name, marker)
			}
		}
	}
	return seen, nil
}

// ValidateTree validates every driver directory under root and requires the
// drivers to ship identical migration filenames.
func ValidateTree(root string) error {
	var reference map[string]string
	var referenceDriver string
	for _, driver := range Drivers {
		files, err := ValidateDir(filepath.Join(root, driver))
		if err != nil {
			return fmt.Errorf("%s: %w", driver, err)
		}
		if reference == nil {
			reference, referenceDriver = files, driver
			continue
		}
		if missing := diffVersions(reference, files); len(missing) > 0 {
			return fmt.Errorf("%s lacks migrations present in %s: %s", driver, referenceDriver, strings.Join(missing, ", "))
		}
		if missing := diffVersions(files, reference); len(missing) > 0 {
			return fmt.Errorf("%s lacks migrations present in %s: %s", referenceDriver, driver, strings.Join(missing, ", "))
		}
	}
	return nil
}

// diffVersions lists filenames in a whose version is absent from b or named
// differently there.
func diffVersions(a, b map[string]string) []string {
	var out []string
	for version, name := range a {
		if b[version] != name {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
