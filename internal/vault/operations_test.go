package vault_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileshelf/backend/internal/vault"
)

func dirEntryCount(t *testing.T, root string) int {
	t.Helper()
	count := 0
	require.NoError(t, filepath.WalkDir(root, func(path string, _ os.DirEntry, err error) error {
		require.NoError(t, err)
		if path != root {
			count++
		}
		return nil
	}))
	return count
}

func TestCreateAndList(t *testing.T) {
	v := newTestVault(t, 1024)
	ctx := context.Background()

	require.NoError(t, v.Create(ctx, "", "notes.txt", []byte("hello")))

	entries, err := v.List("")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notes.txt", entries[0].Name)
	assert.Equal(t, uint64(5), entries[0].Size)
	assert.False(t, entries[0].IsDir)
}

func TestCreateRejectsBlockedExtension(t *testing.T) {
	v := newTestVault(t, 1024)

	err := v.Create(context.Background(), "", "shell.php", []byte("x"))
	assert.ErrorIs(t, err, vault.ErrInvalidName)

	_, statErr := os.Stat(filepath.Join(v.Root(), "shell.php"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCreateExistingFails(t *testing.T) {
	v := newTestVault(t, 1024)
	ctx := context.Background()

	require.NoError(t, v.Create(ctx, "", "a.txt", []byte("one")))
	err := v.Create(ctx, "", "a.txt", []byte("two"))
	assert.ErrorIs(t, err, vault.ErrAlreadyExists)

	data, readErr := os.ReadFile(filepath.Join(v.Root(), "a.txt"))
	require.NoError(t, readErr)
	assert.Equal(t, "one", string(data))
}

func TestCreateQuotaExceeded(t *testing.T) {
	v := newTestVault(t, 10)
	ctx := context.Background()

	require.NoError(t, v.Create(ctx, "", "a.txt", []byte("12345678")))

	err := v.Create(ctx, "", "b.txt", []byte("123"))
	assert.ErrorIs(t, err, vault.ErrQuotaExceeded)
	_, statErr := os.Stat(filepath.Join(v.Root(), "b.txt"))
	assert.True(t, os.IsNotExist(statErr))

	// The crossing write failed; one that still fits is admitted.
	require.NoError(t, v.Create(ctx, "", "c.txt", []byte("12")))
}

func TestMutatingOpsRejectTraversalNames(t *testing.T) {
	v := newTestVault(t, 1024)
	ctx := context.Background()

	names := []string{"../evil.txt", "..", "a/b.txt", "a\\b.txt", "bad name.txt"}
	for _, name := range names {
		assert.Error(t, v.Create(ctx, "", name, []byte("x")), name)
		assert.Error(t, v.CreateFolder(ctx, "", name), name)
		assert.Error(t, v.Delete(ctx, "", name), name)
	}
	assert.Zero(t, dirEntryCount(t, v.Root()))
}

func TestCreateFolder(t *testing.T) {
	v := newTestVault(t, 1024)
	ctx := context.Background()

	require.NoError(t, v.CreateFolder(ctx, "", "docs"))

	info, err := os.Stat(filepath.Join(v.Root(), "docs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.ErrorIs(t, v.CreateFolder(ctx, "", "docs"), vault.ErrAlreadyExists)
}

func TestDeleteFile(t *testing.T) {
	v := newTestVault(t, 1024)
	ctx := context.Background()

	require.NoError(t, v.Create(ctx, "", "a.txt", []byte("x")))
	require.NoError(t, v.Delete(ctx, "", "a.txt"))

	_, err := os.Stat(filepath.Join(v.Root(), "a.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteMissing(t *testing.T) {
	v := newTestVault(t, 1024)

	err := v.Delete(context.Background(), "", "missing.txt")
	assert.ErrorIs(t, err, vault.ErrNotFound)
}

func TestDeleteEmptyFolder(t *testing.T) {
	v := newTestVault(t, 1024)
	ctx := context.Background()

	require.NoError(t, v.CreateFolder(ctx, "", "docs"))
	require.NoError(t, v.Delete(ctx, "", "docs"))
}

func TestDeleteNonEmptyFolderFails(t *testing.T) {
	v := newTestVault(t, 1024)
	ctx := context.Background()
	writeTree(t, v.Root(), map[string]string{"docs/a.txt": "x"})

	err := v.Delete(ctx, "", "docs")
	assert.ErrorIs(t, err, vault.ErrDeleteFailed)

	_, statErr := os.Stat(filepath.Join(v.Root(), "docs", "a.txt"))
	assert.NoError(t, statErr)
}

func uploadItem(name, content string) vault.UploadItem {
	return vault.UploadItem{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func TestUploadBatchSilentSkip(t *testing.T) {
	v := newTestVault(t, 1024)

	items := []vault.UploadItem{
		uploadItem("one.txt", "first"),
		uploadItem("in valid.txt", "second"),
		uploadItem("three.txt", "third"),
	}
	accepted := v.Upload(context.Background(), "", items)
	assert.Equal(t, 2, accepted)

	_, err := os.Stat(filepath.Join(v.Root(), "one.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(v.Root(), "three.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(v.Root(), "in valid.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestUploadSkipsBlockedAndTransportErrors(t *testing.T) {
	v := newTestVault(t, 1024)

	broken := uploadItem("broken.txt", "x")
	broken.Err = errors.New("part truncated")

	items := []vault.UploadItem{
		uploadItem("ok.txt", "fine"),
		uploadItem("shell.php", "x"),
		broken,
	}
	accepted := v.Upload(context.Background(), "", items)
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, dirEntryCount(t, v.Root()))
}

func TestUploadQuotaSkipsItem(t *testing.T) {
	v := newTestVault(t, 10)

	items := []vault.UploadItem{
		uploadItem("small.txt", "1234"),
		uploadItem("big.txt", strings.Repeat("x", 50)),
		uploadItem("fits.txt", "12"),
	}
	accepted := v.Upload(context.Background(), "", items)
	assert.Equal(t, 2, accepted)

	_, err := os.Stat(filepath.Join(v.Root(), "big.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadFile(t *testing.T) {
	v := newTestVault(t, 1024)
	ctx := context.Background()
	require.NoError(t, v.Create(ctx, "", "notes.txt", []byte("hello")))

	dl, err := v.Download(ctx, "", "notes.txt", vault.FormatZip)
	require.NoError(t, err)
	defer dl.Close()

	assert.Equal(t, "notes.txt", dl.Name)
	assert.Equal(t, int64(5), dl.Size)
	assert.False(t, dl.Archived)
	assert.NotEmpty(t, dl.ContentType)

	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestDownloadMissing(t *testing.T) {
	v := newTestVault(t, 1024)

	_, err := v.Download(context.Background(), "", "missing.txt", vault.FormatZip)
	assert.ErrorIs(t, err, vault.ErrNotFound)
}

func TestDownloadDirectoryArchives(t *testing.T) {
	v := newTestVault(t, 1<<20)
	ctx := context.Background()
	writeTree(t, v.Root(), map[string]string{
		"docs/a.txt":     "aaa",
		"docs/sub/b.txt": "bbb",
	})

	dl, err := v.Download(ctx, "", "docs", vault.FormatZip)
	require.NoError(t, err)

	assert.Equal(t, "docs.zip", dl.Name)
	assert.True(t, dl.Archived)
	assert.Equal(t, "application/zip", dl.ContentType)

	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	require.NoError(t, dl.Close())

	names := zipEntryNames(t, data)
	assert.Equal(t, []string{"a.txt", "sub/b.txt"}, names)
}

func TestDownloadCloseReleasesArchive(t *testing.T) {
	v := newTestVault(t, 1<<20)
	ctx := context.Background()
	writeTree(t, v.Root(), map[string]string{"docs/a.txt": "a"})

	dl, err := v.Download(ctx, "", "docs", vault.FormatZip)
	require.NoError(t, err)

	tmpName := dl.Body.(*os.File).Name()
	require.NoError(t, dl.Close())

	_, statErr := os.Stat(tmpName)
	assert.True(t, os.IsNotExist(statErr))

	// Close is idempotent.
	assert.NoError(t, dl.Close())
}

func TestFailedOperationLeavesTreeUnchanged(t *testing.T) {
	v := newTestVault(t, 1024)
	ctx := context.Background()
	require.NoError(t, v.Create(ctx, "", "keep.txt", []byte("keep")))

	before := dirEntryCount(t, v.Root())
	assert.Error(t, v.Create(ctx, "", "shell.exe", []byte("x")))
	assert.Error(t, v.Delete(ctx, "", "missing.txt"))
	assert.Error(t, v.CreateFolder(ctx, "", "bad/name"))
	assert.Equal(t, before, dirEntryCount(t, v.Root()))
}
