package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	gooseUp             = "-- +goose Up"
	gooseDown           = "-- +goose Down"
	gooseStatementBegin = "-- +goose StatementBegin"
	gooseStatementEnd   = "-- +goose StatementEnd"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks migration filenames, unique versions and goose
// annotations: Up before Down, balanced statement blocks.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	versions, err := listVersions(dir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(versions))
	for _, name := range versions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		full := filepath.Join(dir, name)
		b, err := os.ReadFile(full)
		if err != nil {
			return fmt.Errorf("read file %q: %w", full, err)
		}
		if err := checkAnnotations(name, string(b)); err != nil {
			return err
		}
	}
	return nil
}

// listVersions maps each migration version in dir to its filename.
func listVersions(dir string) (map[string]string, error) {
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
	}
	return seen, nil
}

func checkAnnotations(name, txt string) error {
	up := strings.Index(txt, gooseUp)
	if up < 0 {
		return fmt.Errorf("migration %q missing %q", name, gooseUp)
	}
	down := strings.Index(txt, gooseDown)
	if down < 0 {
		return fmt.Errorf("migration %q missing %q", name, gooseDown)
	}
	if down < up {
		return fmt.Errorf("migration %q has %q before %q", name, gooseDown, gooseUp)
	}

	depth := 0
	for _, line := range strings.Split(txt, "\n") {
		switch strings.TrimSpace(line) {
		case gooseStatementBegin:
			depth++
			if depth > 1 {
				return fmt.Errorf("migration %q nests %q", name, gooseStatementBegin)
			}
		case gooseStatementEnd:
			depth--
			if depth < 0 {
				return fmt.Errorf("migration %q has %q without a begin", name, gooseStatementEnd)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("migration %q leaves a statement block open", name)
	}
	return nil
}
