package core

import (
	"context"
	"io"
)

// Upload is a file received from a client, not yet persisted.
type Upload struct {
	Filename    string // as sent by the client
	ContentType string
	Size        int64
	Content     io.Reader
}

// FileRef points at a stored file. URL is relative when files are served by the API itself.
type FileRef struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	URL          string `json:"url"`
}

// FileStorage is any service that can persist uploaded files.
type FileStorage interface {
	// Save stores the upload under folder (e.g. "submissions") and returns its reference.
	Save(ctx context.Context, folder string, up Upload) (FileRef, error)
	Delete(ctx context.Context, ref FileRef) error
}

// DiscardFile deletes a stored file that is no longer referenced. Failures are logged only.
func DiscardFile(ctx context.Context, files FileStorage, logger Logger, ref FileRef) {
	if ref.Filename == "" {
		return
	}
	if err := files.Delete(ctx, ref); err != nil && logger != nil {
		logger.Warn("discarding file "+ref.Filename+": "+err.Error(), err)
	}
}
