package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("#")
	req.NoError(err)
	req.Equal('#', r)

	r, err = CharacterRune("€")
	req.NoError(err)
	req.Equal('€', r)

	_, err = CharacterRune("**")
	req.Error(err)
	_, err = CharacterRune("")
	req.Error(err)
}

func TestLoadEnvFiles(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	req.NoError(os.WriteFile(file, []byte("CRM_TEST_PORT=9000\nCRM_TEST_HOST=example\n"), 0o644))
	t.Setenv("CRM_TEST_HOST", "kept")

	req.NoError(LoadEnvFiles(nil, filepath.Join(dir, "missing.env"), file))
	t.Cleanup(func() { _ = os.Unsetenv("CRM_TEST_PORT") })

	req.Equal("9000", os.Getenv("CRM_TEST_PORT"))
	req.Equal("kept", os.Getenv("CRM_TEST_HOST"))
}

func TestOpenStore(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	db, err := OpenStore(dir, false)
	req.NoError(err)
	req.NoError(db.Close())

	db, err = OpenStore(dir, true)
	req.NoError(err)
	req.NoError(db.Close())
}
