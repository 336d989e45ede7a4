package filestore

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core"
)

// DiskStorage keeps files under a root directory served at urlPrefix.
type DiskStorage struct {
	root      string
	urlPrefix string
}

var _ core.FileStorage = (*DiskStorage)(nil)

func NewDiskStorage(root, urlPrefix string) (*DiskStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating uploads dir")
	}
	return &DiskStorage{root: root, urlPrefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

func (s *DiskStorage) Root() string { return s.root }

func (s *DiskStorage) Save(ctx context.Context, folder string, up core.Upload) (core.FileRef, error) {
	key := objectKey(folder, up.Filename)
	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return core.FileRef{}, errors.Wrap(err, "creating folder")
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return core.FileRef{}, errors.Wrap(err, "creating file")
	}
	if _, err = io.Copy(f, readerWithContext(ctx, up.Content)); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return core.FileRef{}, errors.Wrap(err, "writing file")
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(dst)
		return core.FileRef{}, errors.Wrap(err, "closing file")
	}

	return core.FileRef{
		Filename:     key,
		OriginalName: up.Filename,
		URL:          path.Join(s.urlPrefix, key),
	}, nil
}

func (s *DiskStorage) Delete(_ context.Context, ref core.FileRef) error {
	if !validKey(ref.Filename) {
		return ErrInvalidKey
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(ref.Filename)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
