package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"semclass/internal/config"
	"semclass/internal/domain"
)

// DownloadError is a failed run of the asset download script.
type DownloadError struct {
	Err    error
	Stdout string
	Stderr string
}

func (e *DownloadError) Error() string {
	msg := fmt.Sprintf("asset download failed: %v", e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// AssetDownloader fetches the assets of a repository folder into a local directory by
// running an external download script.
type AssetDownloader struct {
	interpreter string
	script      string
}

// NewAssetDownloader creates an AssetDownloader from the assets config.
func NewAssetDownloader(cfg *config.AssetsConfig) *AssetDownloader {
	interpreter := cfg.Interpreter
	if interpreter == "" {
		interpreter = "python3"
	}
	return &AssetDownloader{interpreter: interpreter, script: cfg.DownloadScript}
}

// Download runs `<interpreter> <script> --use-asset-ref --folder <folderRef> <dir>` with the
// current environment.
func (a *AssetDownloader) Download(ctx context.Context, folderRef, dir string) error {
	if a.script == "" {
		return domain.ErrScriptNotFound
	}
	if _, err := os.Stat(a.script); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrScriptNotFound, a.script)
	}

	args := []string{a.script, "--use-asset-ref", "--folder", folderRef, dir}
	log.Printf("source.AssetDownloader: running %s %s", a.interpreter, strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, a.interpreter, args...)
	cmd.Env = os.Environ()
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &DownloadError{Err: err, Stdout: stdout.String(), Stderr: stderr.String()}
	}

	if out := strings.TrimSpace(stdout.String()); out != "" {
		log.Printf("source.AssetDownloader: %s", out)
	}
	return nil
}

// Cleanup deletes the files directly inside dir and removes dir when it ends up empty.
// Subdirectories are left alone. It returns the number of files deleted.
func Cleanup(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}

	var (
		deleted int
		errs    []error
	)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted++
	}

	remaining, err := os.ReadDir(dir)
	if err == nil && len(remaining) == 0 {
		if err := os.Remove(dir); err != nil {
			errs = append(errs, err)
		} else {
			log.Printf("source.Cleanup: removed empty directory %s", dir)
		}
	}

	log.Printf("source.Cleanup: deleted %d files from %s", deleted, dir)
	return deleted, errors.Join(errs...)
}
