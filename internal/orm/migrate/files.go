package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// maxFileSize bounds the size of a migration file
const maxFileSize = 10 * 1024 * 1024

// dangerous statements are refused in migration files
var dangerous = []string{
	"DROP DATABASE",
	"DROP SCHEMA",
	"TRUNCATE",
	"GRANT",
	"REVOKE",
}

// LoadDir reads the migrations of dir. Each migration is a
// <version>_<name>.up.sql file with an optional .down.sql counterpart.
// A missing directory holds no migrations.
func LoadDir(dir string) ([]*Migration, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to find migration files: %w", err)
	}
	sort.Strings(files)

	seen := make(map[int64]string, len(files))
	migrations := make([]*Migration, 0, len(files))
	for _, file := range files {
		filename := filepath.Base(file)
		version, name, err := ParseFilename(filename)
		if err != nil {
			return nil, err
		}
		if other, ok := seen[version]; ok {
			return nil, fmt.Errorf("migrations %s and %s share version %d", other, filename, version)
		}
		seen[version] = filename

		up, err := readMigrationFile(file)
		if err != nil {
			return nil, err
		}
		down, err := readMigrationFile(strings.TrimSuffix(file, ".up.sql") + ".down.sql")
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		migrations = append(migrations, &Migration{Version: version, Name: name, Up: up, Down: down})
	}
	return migrations, nil
}

// ParseFilename extracts the version and name of 20240301_create_books.up.sql
func ParseFilename(filename string) (int64, string, error) {
	name := strings.TrimSuffix(filename, ".sql")
	name = strings.TrimSuffix(name, ".up")
	name = strings.TrimSuffix(name, ".down")

	parts := strings.SplitN(name, "_", 2)
	version, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid version number in filename %s: %w", filename, err)
	}
	if len(parts) == 1 {
		return version, name, nil
	}
	return version, parts[1], nil
}

// Validate refuses scripts containing database-wide or privilege statements
func Validate(script string) error {
	upper := strings.ToUpper(script)
	for _, pattern := range dangerous {
		if strings.Contains(upper, pattern) {
			return fmt.Errorf("migration contains potentially dangerous operation: %s", pattern)
		}
	}
	return nil
}

func readMigrationFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > maxFileSize {
		return "", fmt.Errorf("migration %s exceeds maximum size", filepath.Base(path))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read migration %s: %w", filepath.Base(path), err)
	}
	if err := Validate(string(content)); err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return string(content), nil
}
