package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/storage"
)

// zipMagic is the local-file-header signature every zip container starts with.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// isZipFile checks the 4-byte signature without parsing the container, so a
// mislabeled file fails fast with a clear message.
func isZipFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 4)
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, zipMagic)
}

// resolveOutPath normalizes an export destination: a directory target gets
// a sanitized file name derived from the record name, and a bare path gets
// the archive kind's extension appended.
func resolveOutPath(outPath, name, ext string) string {
	if info, err := os.Stat(outPath); err == nil && info.IsDir() {
		return filepath.Join(outPath, storage.Sanitize(name)+ext)
	}
	if filepath.Ext(outPath) == "" {
		return outPath + ext
	}
	return outPath
}

// zipDir packs the tree rooted at srcDir into a zip file at outPath, with
// entry names relative to srcDir.
func zipDir(srcDir, outPath string) error {
	if err := storage.EnsureDir(filepath.Dir(outPath)); err != nil {
		return err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	defer w.Close()

	err = filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		entry, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(entry, f)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to pack archive: %w", err)
	}
	return w.Close()
}

// unzip extracts an archive into destDir, refusing entries that would
// escape it.
func unzip(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArchive, err)
	}
	defer r.Close()

	for _, f := range r.File {
		name := filepath.FromSlash(f.Name)
		if strings.Contains(name, "..") {
			return fmt.Errorf("%w: unsafe entry path %q", domain.ErrInvalidArchive, f.Name)
		}
		target := filepath.Join(destDir, name)

		if f.FileInfo().IsDir() {
			if err := storage.EnsureDir(target); err != nil {
				return err
			}
			continue
		}

		if err := storage.EnsureDir(filepath.Dir(target)); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
