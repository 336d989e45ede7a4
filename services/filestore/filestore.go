// Package filestore implements core.FileStorage on the local disk and on S3.
package filestore

import (
	"context"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core"
)

var (
	ErrUnknownDriver = errors.New("unknown uploads driver")
	ErrInvalidKey    = errors.New("invalid file key")

	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
)

// New returns the store selected by uploads.driver.
func New(ctx context.Context, conf *core.Config) (core.FileStorage, error) {
	switch conf.Uploads.Driver {
	case "", "disk":
		return NewDiskStorage(conf.Uploads.Dir, conf.Uploads.URLPrefix)
	case "s3":
		client, err := NewS3Client(ctx, conf)
		if err != nil {
			return nil, err
		}
		return NewS3Storage(client, conf), nil
	}
	return nil, errors.Wrap(ErrUnknownDriver, conf.Uploads.Driver)
}

// objectKey builds a unique key under folder that keeps the extension of the uploaded file.
func objectKey(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "-"), "-.")
	if len(base) > 40 {
		base = base[:40]
	}
	name := uuid.New().String()
	if base != "" {
		name += "-" + base
	}
	return path.Join(folder, name+unsafeChars.ReplaceAllString(ext, ""))
}

// validKey rejects keys escaping the storage root.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	clean := path.Clean(key)
	return clean == key && !strings.HasPrefix(clean, "..")
}
