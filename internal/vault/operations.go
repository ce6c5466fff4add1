package vault

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// continueOnItemFailure is the upload batch policy: a failing item is
// skipped and the batch continues. Only the accepted count is reported;
// individual failures are never surfaced to the caller.
const continueOnItemFailure = true

// Create writes a new file of the given content. The target must not
// exist and the content must fit under the quota.
func (v *Vault) Create(ctx context.Context, base, name string, content []byte) error {
	path, err := v.Resolve(base, name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	if err := v.Admit(ctx, uint64(len(content))); err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	v.log.Info("File created",
		zap.String("path", v.relative(path)),
		zap.Int("size", len(content)),
	)
	return nil
}

// CreateFolder creates a new directory under base.
func (v *Vault) CreateFolder(ctx context.Context, base, name string) error {
	path, err := v.Resolve(base, name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	v.log.Info("Folder created", zap.String("path", v.relative(path)))
	return nil
}

// Delete removes a file, or a directory if it is empty.
func (v *Vault) Delete(ctx context.Context, base, name string) error {
	path, err := v.Resolve(base, name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	// os.Remove refuses non-empty directories, matching the contract.
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	v.log.Info("Entry deleted", zap.String("path", v.relative(path)))
	return nil
}

// UploadItem is one element of an upload batch. Err carries a
// transport-level failure for the item (oversized part, aborted read);
// such items are skipped like any other invalid item.
type UploadItem struct {
	Name string
	Size int64
	Err  error
	Open func() (io.ReadCloser, error)
}

// Upload stores a batch of items under base. Items are processed
// independently: a failing item (transport error, invalid name, quota,
// I/O) is skipped and the batch continues. Returns the number of items
// stored; skipped items are logged but not reported.
func (v *Vault) Upload(ctx context.Context, base string, items []UploadItem) int {
	accepted := 0
	for _, item := range items {
		if err := v.uploadOne(ctx, base, item); err != nil {
			if !continueOnItemFailure {
				break
			}
			v.log.Warn("Upload item skipped",
				zap.String("name", item.Name),
				zap.Error(err),
			)
			continue
		}
		accepted++
	}
	v.log.Info("Upload batch finished",
		zap.String("base", base),
		zap.Int("accepted", accepted),
		zap.Int("total", len(items)),
	)
	return accepted
}

func (v *Vault) uploadOne(ctx context.Context, base string, item UploadItem) error {
	if item.Err != nil {
		return item.Err
	}
	path, err := v.Resolve(base, item.Name)
	if err != nil {
		return err
	}
	if err := v.Admit(ctx, uint64(item.Size)); err != nil {
		return err
	}

	src, err := item.Open()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

// Download is a ready-to-stream payload. Close releases the underlying
// resources, including the transient archive for directory downloads.
type Download struct {
	Name        string
	Size        int64
	ContentType string
	Archived    bool
	Body        io.ReadCloser

	release func() error
}

// Close closes the body and releases any transient resources. Safe to
// call on every exit path.
func (d *Download) Close() error {
	var err error
	if d.Body != nil {
		err = d.Body.Close()
		d.Body = nil
	}
	if d.release != nil {
		if rerr := d.release(); err == nil {
			err = rerr
		}
		d.release = nil
	}
	return err
}

// Download opens base/name for streaming. Files stream raw bytes with
// a detected content type; directories are bundled into a transient
// archive which is deleted when the returned Download is closed.
func (v *Vault) Download(ctx context.Context, base, name string, format Format) (*Download, error) {
	path, err := v.Resolve(base, name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if info.IsDir() {
		archive, err := v.BuildArchive(ctx, path, format)
		if err != nil {
			return nil, err
		}
		body, err := archive.Open()
		if err != nil {
			archive.Release()
			return nil, fmt.Errorf("%w: %v", ErrArchiveWriteFailed, err)
		}
		return &Download{
			Name:        archive.Name(),
			Size:        archive.Size(),
			ContentType: archiveContentType(format),
			Archived:    true,
			Body:        body,
			release:     archive.Release,
		}, nil
	}

	contentType := "application/octet-stream"
	if mtype, err := mimetype.DetectFile(path); err == nil {
		contentType = mtype.String()
	}
	body, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return &Download{
		Name:        name,
		Size:        info.Size(),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func archiveContentType(format Format) string {
	switch format {
	case FormatTarGz:
		return "application/gzip"
	case FormatTarZst:
		return "application/zstd"
	default:
		return "application/zip"
	}
}
