package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "002_add_isbn.up.sql", "ALTER TABLE books ADD COLUMN isbn TEXT;")
	writeFile(t, dir, "001_create_books.up.sql", "CREATE TABLE books (id INTEGER);")
	writeFile(t, dir, "001_create_books.down.sql", "DROP TABLE books;")
	writeFile(t, dir, "README.md", "ignored")

	migrations, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, int64(1), migrations[0].Version)
	assert.Equal(t, "create_books", migrations[0].Name)
	assert.Equal(t, "DROP TABLE books;", migrations[0].Down)
	assert.Equal(t, "add_isbn", migrations[1].Name)
	assert.Empty(t, migrations[1].Down)

	migrations, err = LoadDir(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestLoadDir_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "001_a.up.sql", "SELECT 1;")
	writeFile(t, dir, "001_b.up.sql", "SELECT 2;")
	_, err := LoadDir(dir)
	assert.ErrorContains(t, err, "share version 1")

	dir = t.TempDir()
	writeFile(t, dir, "001_wipe.up.sql", "truncate table books;")
	_, err = LoadDir(dir)
	assert.ErrorContains(t, err, "dangerous operation: TRUNCATE")
}

func TestParseFilename(t *testing.T) {
	version, name, err := ParseFilename("20240301_create_books.up.sql")
	require.NoError(t, err)
	assert.Equal(t, int64(20240301), version)
	assert.Equal(t, "create_books", name)

	version, name, err = ParseFilename("7.down.sql")
	require.NoError(t, err)
	assert.Equal(t, int64(7), version)
	assert.Equal(t, "7", name)

	_, _, err = ParseFilename("init.up.sql")
	assert.ErrorContains(t, err, "invalid version number")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("CREATE TABLE users (id SERIAL PRIMARY KEY);"))
	assert.NoError(t, Validate("INSERT INTO users (name) VALUES ('test');"))
	assert.Error(t, Validate("DROP DATABASE production;"))
	assert.Error(t, Validate("drop schema public;"))
	assert.Error(t, Validate("GRANT ALL PRIVILEGES ON DATABASE mydb TO user;"))
	assert.Error(t, Validate("REVOKE ALL ON books FROM public;"))
}
