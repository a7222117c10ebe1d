package installer

import (
	"archive/tar"
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// extract unpacks an update archive into dest. The format is chosen
// by extension, falling back to content sniffing for assets published
// without a recognizable one.
func extract(ctx context.Context, archivePath, dest string) error {
	switch {
	case strings.HasSuffix(strings.ToLower(archivePath), ".zip"):
		return extractZip(ctx, archivePath, dest)
	case hasTarSuffix(archivePath):
		return extractTar(ctx, archivePath, dest)
	}

	kind, err := mimetype.DetectFile(archivePath)
	if err != nil {
		return fmt.Errorf("detect archive format: %w", err)
	}
	switch {
	case kind.Is("application/zip"):
		return extractZip(ctx, archivePath, dest)
	case kind.Is("application/gzip"), kind.Is("application/x-tar"), kind.Is("application/zstd"):
		return extractTar(ctx, archivePath, dest)
	}
	return fmt.Errorf("unsupported archive format: %s", kind.String())
}

func hasTarSuffix(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range []string{".tar", ".tar.gz", ".tgz", ".tar.zst"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func extractZip(ctx context.Context, archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, file := range reader.File {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		destPath, ok := safeJoin(dest, file.Name)
		if !ok {
			// Zip-slip entry; skip it.
			continue
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return err
		}

		src, err := file.Open()
		if err != nil {
			return err
		}
		err = writeFile(destPath, src, file.Mode())
		src.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTar(ctx context.Context, archivePath, dest string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	var reader io.Reader = file
	switch tarCompression(archivePath) {
	case "gzip":
		gz, err := gzip.NewReader(file)
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	case "zstd":
		zr, err := zstd.NewReader(file)
		if err != nil {
			return err
		}
		defer zr.Close()
		reader = zr
	}

	tr := tar.NewReader(reader)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		destPath, ok := safeJoin(dest, header.Name)
		if !ok {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
				return err
			}
			if err := writeFile(destPath, tr, header.FileInfo().Mode()); err != nil {
				return err
			}
		}
	}
}

// tarCompression names the compression wrapping a tar archive, by
// suffix first and by content for assets without a recognizable one.
func tarCompression(archivePath string) string {
	lower := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(lower, ".gz"), strings.HasSuffix(lower, ".tgz"):
		return "gzip"
	case strings.HasSuffix(lower, ".zst"):
		return "zstd"
	case strings.HasSuffix(lower, ".tar"):
		return "none"
	}
	kind, err := mimetype.DetectFile(archivePath)
	if err != nil {
		return "none"
	}
	switch {
	case kind.Is("application/gzip"):
		return "gzip"
	case kind.Is("application/zstd"):
		return "zstd"
	}
	return "none"
}

// safeJoin joins an archive entry name under dest, rejecting entries
// that would escape it.
func safeJoin(dest, name string) (string, bool) {
	destPath := filepath.Join(dest, name)
	if !strings.HasPrefix(destPath, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", false
	}
	return destPath, true
}

func writeFile(path string, src io.Reader, mode os.FileMode) error {
	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(out, src)
	closeErr := out.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}
