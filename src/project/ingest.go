package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
)

// MaxUploadSize caps the combined size of one folder upload.
const MaxUploadSize int64 = 20 * 1024 * 1024

// UploadWarning is the message shown to the user when ErrUploadTooLarge is
// returned.
const UploadWarning = "Total file size exceeds 20MB. Some files were not uploaded."

// ErrUploadTooLarge is returned together with the partially built tree once
// the upload cap is exceeded. It is a warning, not a failure.
var ErrUploadTooLarge = errors.New("project: upload exceeds 20MB cap")

// Upload is one file of a folder upload.
type Upload struct {
	RelPath string
	Size    int64
	Open    func() (io.ReadCloser, error)
}

// Ingest builds a fresh tree from uploads, in order. Files that arrive after
// the cumulative size passes MaxUploadSize are dropped and ErrUploadTooLarge
// is returned alongside the files kept so far.
func Ingest(ctx context.Context, uploads []Upload) (Tree, error) {
	var (
		tree  Tree
		total int64
	)
	for _, u := range uploads {
		if err := ctx.Err(); err != nil {
			return tree, err
		}
		total += u.Size
		if total > MaxUploadSize {
			log.Warn().Str("path", u.RelPath).Int64("total", total).Msg("upload cap reached")
			return tree, ErrUploadTooLarge
		}

		parts := SplitPath(u.RelPath)
		if len(parts) == 0 {
			continue
		}
		content, err := readUpload(u)
		if err != nil {
			return tree, fmt.Errorf("read %s: %w", u.RelPath, err)
		}

		next, ok := insert(tree, parts, 0, content, ingestPolicy)
		if !ok {
			log.Warn().Str("path", u.RelPath).Msg("skipping upload: path already taken")
			continue
		}
		tree = next
	}
	return tree, nil
}

func readUpload(u Upload) (string, error) {
	if u.Open == nil {
		return "", nil
	}
	rc, err := u.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// IngestDir uploads every regular file below root. Paths are relative to
// root and slash separated; ignored directories are skipped.
func IngestDir(ctx context.Context, root string) (Tree, error) {
	uploads, err := DirUploads(root)
	if err != nil {
		return nil, err
	}
	return Ingest(ctx, uploads)
}

// DirUploads lists the files below root as uploads, sorted by path.
func DirUploads(root string) ([]Upload, error) {
	var uploads []Upload
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && isIgnoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		abs := path
		uploads = append(uploads, Upload{
			RelPath: filepath.ToSlash(rel),
			Size:    info.Size(),
			Open:    func() (io.ReadCloser, error) { return os.Open(abs) },
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Slice(uploads, func(i, j int) bool { return uploads[i].RelPath < uploads[j].RelPath })
	return uploads, nil
}

func isIgnoredDir(name string) bool {
	ignored := map[string]struct{}{
		".git": {}, "node_modules": {}, "dist": {}, "build": {}, "out": {}, "target": {}, "vendor": {},
		".venv": {}, "__pycache__": {}, ".idea": {}, ".vscode": {}, ".DS_Store": {},
	}
	_, ok := ignored[name]
	return ok
}
