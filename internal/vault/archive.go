package vault

import (
	"archive/tar"
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charlievieth/fastwalk"
	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// Format selects the archive encoding for directory downloads.
type Format string

const (
	FormatZip    Format = "zip"
	FormatTarGz  Format = "tar.gz"
	FormatTarZst Format = "tar.zst"
)

// ParseFormat maps a query value to a Format; empty means zip.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "zip":
		return FormatZip, nil
	case "tar.gz", "tgz":
		return FormatTarGz, nil
	case "tar.zst", "zst":
		return FormatTarZst, nil
	default:
		return "", fmt.Errorf("unsupported archive format: %s", s)
	}
}

// Extension returns the filename suffix for the format.
func (f Format) Extension() string {
	return "." + string(f)
}

// Archive is a transient archive materialized for one download
// response. Release must be called on every exit path; it deletes the
// backing temp file.
type Archive struct {
	name string
	size int64
	path string
}

// Name returns the download filename (directory name + extension).
func (a *Archive) Name() string { return a.name }

// Size returns the archive size in bytes.
func (a *Archive) Size() int64 { return a.size }

// Open returns a reader over the archive bytes.
func (a *Archive) Open() (io.ReadCloser, error) {
	return os.Open(a.path)
}

// Release deletes the backing temp file. Safe to call more than once.
func (a *Archive) Release() error {
	if a.path == "" {
		return nil
	}
	err := os.Remove(a.path)
	a.path = ""
	return err
}

// BuildArchive bundles the directory subtree at dir (an absolute path
// inside the vault) into a transient archive. Every regular file under
// dir becomes exactly one entry whose path is slash-separated and
// relative to dir; directories themselves carry no entry.
func (v *Vault) BuildArchive(ctx context.Context, dir string, format Format) (*Archive, error) {
	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("fileshelf-%s%s", uuid.NewString(), format.Extension()))
	out, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveUnavailable, err)
	}

	fail := func(err error) (*Archive, error) {
		out.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("%w: %v", ErrArchiveWriteFailed, err)
	}

	var walkErr error
	switch format {
	case FormatZip:
		walkErr = v.writeZip(ctx, out, dir)
	case FormatTarGz, FormatTarZst:
		walkErr = v.writeTar(ctx, out, dir, format)
	default:
		walkErr = fmt.Errorf("unsupported archive format: %s", format)
	}
	if walkErr != nil {
		return fail(walkErr)
	}

	info, err := out.Stat()
	if err != nil {
		return fail(err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("%w: %v", ErrArchiveWriteFailed, err)
	}

	v.log.Debug("Archive built",
		zap.String("dir", v.relative(dir)),
		zap.String("format", string(format)),
		zap.Int64("size", info.Size()),
	)

	return &Archive{
		name: filepath.Base(dir) + format.Extension(),
		size: info.Size(),
		path: tmp,
	}, nil
}

// writeZip streams the subtree into a ZIP archive using the klauspost
// deflate implementation.
func (v *Vault) writeZip(ctx context.Context, out io.Writer, dir string) error {
	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestSpeed)
	})

	err := v.walkFiles(ctx, dir, func(path, rel string, info os.FileInfo) error {
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = rel
		hdr.Method = zip.Deflate

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		return copyFile(w, path)
	})
	if err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// writeTar streams the subtree into a compressed TAR archive.
func (v *Vault) writeTar(ctx context.Context, out io.Writer, dir string, format Format) error {
	var compressor io.WriteCloser
	switch format {
	case FormatTarZst:
		zw, err := zstd.NewWriter(out)
		if err != nil {
			return err
		}
		compressor = zw
	default:
		compressor = gzip.NewWriter(out)
	}
	tw := tar.NewWriter(compressor)

	err := v.walkFiles(ctx, dir, func(path, rel string, info os.FileInfo) error {
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		return copyFile(tw, path)
	})
	if err != nil {
		tw.Close()
		compressor.Close()
		return err
	}
	if err := tw.Close(); err != nil {
		compressor.Close()
		return err
	}
	return compressor.Close()
}

// walkFiles visits every regular file under dir with its slash-relative
// path. Archive writers are not safe for concurrent use, so the walk
// runs single-threaded.
func (v *Vault) walkFiles(ctx context.Context, dir string, fn func(path, rel string, info os.FileInfo) error) error {
	conf := fastwalk.Config{Follow: false, NumWorkers: 1, Sort: fastwalk.SortLexical}
	return fastwalk.Walk(&conf, dir, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return err
		}
		if path == dir || d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return fn(path, filepath.ToSlash(rel), info)
	})
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
