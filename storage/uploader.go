package storage

import (
	"context"
	"errors"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader abstracts the object store used for team logos.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}

var ErrUploadsDisabled = errors.New("object storage is not configured")

type disabledUploader struct{}

// NewDisabledUploader satisfies FileUploader when no object store is
// configured: uploads fail, lookups return no URL.
func NewDisabledUploader() FileUploader {
	return disabledUploader{}
}

func (disabledUploader) Upload(context.Context, string, string, io.Reader) (*UploadResult, error) {
	return nil, ErrUploadsDisabled
}

func (disabledUploader) Delete(context.Context, string) error { return nil }

func (disabledUploader) GetPublicURL(string) string { return "" }
