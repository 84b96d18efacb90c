package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const versionLayout = "20060102150405"

var migrationFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

type migrationFile struct {
	version string
	name    string
	file    string
}

// readMigrations lists the .sql files of dir, returning separately the names goose could misorder.
func readMigrations(dir string) (files []migrationFile, invalid []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read dir %q: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		m := migrationFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			invalid = append(invalid, entry.Name())
			continue
		}
		files = append(files, migrationFile{version: m[1], name: m[2], file: entry.Name()})
	}
	return files, invalid, nil
}

// ValidateDir checks every migration in dir and reports all problems at once: each file needs a unique
// timestamp version and both goose Up and Down sections.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	files, invalid, err := readMigrations(dir)
	if err != nil {
		return err
	}
	var errs error
	for _, name := range invalid {
		errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (want YYYYMMDDHHMMSS_name.sql)", name))
	}

	versions := make(map[string]string, len(files))
	for _, f := range files {
		if _, err := time.Parse(versionLayout, f.version); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("migration %q: version %s is not a timestamp", f.file, f.version))
		}
		if prev, ok := versions[f.version]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %q and %q", f.version, prev, f.file))
		}
		versions[f.version] = f.file

		body, err := os.ReadFile(filepath.Join(dir, f.file))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read migration %q: %w", f.file, err))
			continue
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), marker) {
				errs = multierr.Append(errs, fmt.Errorf("migration %q missing %q", f.file, marker))
			}
		}
	}
	return errs
}
