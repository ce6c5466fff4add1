package vault_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileshelf/backend/internal/logging"
	"github.com/fileshelf/backend/internal/vault"
)

func newTestVault(t *testing.T, quota uint64) *vault.Vault {
	t.Helper()
	v, err := vault.New(t.TempDir(), quota, logging.NewNop())
	require.NoError(t, err)
	return v
}

func TestValidateName(t *testing.T) {
	valid := []string{"notes.txt", "a", "archive.tar", "My_File-2.log", "README", ".hidden"}
	for _, name := range valid {
		assert.NoError(t, vault.ValidateName(name), name)
	}

	invalid := []string{
		"",
		"..",
		"a..b",
		"../etc/passwd",
		"sub/file.txt",
		"sub\\file.txt",
		"white space.txt",
		"tab\t.txt",
		"ünïcode.txt",
		"semi;colon",
	}
	for _, name := range invalid {
		err := vault.ValidateName(name)
		assert.ErrorIs(t, err, vault.ErrInvalidName, name)
	}
}

func TestValidateNameBlockedExtensions(t *testing.T) {
	blocked := []string{"shell.php", "shell.PHP", "x.php5", "x.phtml", "run.exe", "run.Exe", "script.sh"}
	for _, name := range blocked {
		err := vault.ValidateName(name)
		assert.ErrorIs(t, err, vault.ErrInvalidName, name)
	}

	// Blocked strings are only rejected as extensions.
	assert.NoError(t, vault.ValidateName("php.txt"))
	assert.NoError(t, vault.ValidateName("marsh.ell"))
}

func TestResolveStaysInsideRoot(t *testing.T) {
	v := newTestVault(t, 1024)

	p, err := v.Resolve("docs/sub", "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(v.Root(), "docs", "sub", "notes.txt"), p)
	assert.True(t, strings.HasPrefix(p, v.Root()))
}

func TestResolveDirStripsTraversal(t *testing.T) {
	v := newTestVault(t, 1024)

	cases := map[string]string{
		"":                    v.Root(),
		"docs":                filepath.Join(v.Root(), "docs"),
		"../../etc":           filepath.Join(v.Root(), "etc"),
		"..\\..\\etc":         filepath.Join(v.Root(), "etc"),
		"docs/../../../sub":   filepath.Join(v.Root(), "docs", "sub"),
		"./docs//sub/":        filepath.Join(v.Root(), "docs", "sub"),
		"a/.././b":            filepath.Join(v.Root(), "a", "b"),
		"/absolute/prefixed":  filepath.Join(v.Root(), "absolute", "prefixed"),
	}
	for base, want := range cases {
		got, err := v.ResolveDir(base)
		require.NoError(t, err, base)
		assert.Equal(t, want, got, base)
	}
}

func TestBreadcrumbs(t *testing.T) {
	v := newTestVault(t, 1024)

	assert.Empty(t, v.Breadcrumbs(""))
	assert.Equal(t, []string{"docs", "sub"}, v.Breadcrumbs("docs/sub"))
	assert.Equal(t, []string{"docs"}, v.Breadcrumbs("../docs/.."))
}

func TestNewRejectsBadRoots(t *testing.T) {
	_, err := vault.New("", 1024, logging.NewNop())
	assert.Error(t, err)

	_, err = vault.New("/", 1024, logging.NewNop())
	assert.Error(t, err)
}
