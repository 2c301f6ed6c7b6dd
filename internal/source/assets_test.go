package source_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semclass/internal/config"
	"semclass/internal/domain"
	"semclass/internal/source"
)

func shellScript(t *testing.T, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "download.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o700))
	return path
}

func TestAssetDownloader_PassesArguments(t *testing.T) {
	// the script records its arguments into the target directory
	script := shellScript(t, "#!/bin/sh\nmkdir -p \"$4\"\necho \"$@\" > \"$4/args.txt\"\n")
	dir := filepath.Join(t.TempDir(), "downloads")

	d := source.NewAssetDownloader(&config.AssetsConfig{Interpreter: "sh", DownloadScript: script})
	require.NoError(t, d.Download(context.Background(), "folder-123", dir))

	data, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, "--use-asset-ref --folder folder-123 "+dir+"\n", string(data))
}

func TestAssetDownloader_ReportsFailureOutput(t *testing.T) {
	script := shellScript(t, "#!/bin/sh\necho 'bad credentials' >&2\nexit 3\n")

	d := source.NewAssetDownloader(&config.AssetsConfig{Interpreter: "sh", DownloadScript: script})
	err := d.Download(context.Background(), "folder-123", t.TempDir())

	var dlErr *source.DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Contains(t, dlErr.Stderr, "bad credentials")
	assert.Contains(t, err.Error(), "bad credentials")
}

func TestAssetDownloader_MissingScript(t *testing.T) {
	d := source.NewAssetDownloader(&config.AssetsConfig{DownloadScript: "/no/such/script.py"})
	err := d.Download(context.Background(), "ref", t.TempDir())
	assert.ErrorIs(t, err, domain.ErrScriptNotFound)

	d = source.NewAssetDownloader(&config.AssetsConfig{})
	err = d.Download(context.Background(), "ref", t.TempDir())
	assert.ErrorIs(t, err, domain.ErrScriptNotFound)
}

func TestCleanup_RemovesFilesAndEmptyDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	writeTree(t, dir, "a.pdf", "b.txt")

	deleted, err := source.Cleanup(dir)

	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanup_KeepsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.pdf", "sub/b.pdf")

	deleted, err := source.Cleanup(dir)

	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.FileExists(t, filepath.Join(dir, "sub", "b.pdf"))
	assert.DirExists(t, dir)
}

func TestCleanup_MissingDirectory(t *testing.T) {
	deleted, err := source.Cleanup(filepath.Join(t.TempDir(), "gone"))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
