package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
)

// ErrSignedUploadsUnsupported is returned by drivers that cannot hand out
// direct-to-storage upload permissions (the local driver).
var ErrSignedUploadsUnsupported = errors.New("signed uploads are not supported by this storage driver")

// Object identifies a stored file: the URL clients fetch it from and the
// driver-specific id needed to delete it later.
type Object struct {
	URL       string `json:"url"`
	StorageID string `json:"storageId"`
}

// SignedUpload is a time-limited permission for a client to PUT a file
// directly to remote storage without routing bytes through this server.
type SignedUpload struct {
	UploadURL string    `json:"uploadUrl"`
	Key       string    `json:"key"`
	PublicURL string    `json:"publicUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Storage interface {
	Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (Object, error)
	Delete(ctx context.Context, storageID string) error
	SignUpload(ctx context.Context, folder, filename, contentType string) (SignedUpload, error)
}

const maxUploadSize = 10 << 20

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// SaveImage validates an uploaded image and stores it under folder.
func SaveImage(ctx context.Context, st Storage, folder string, file *multipart.FileHeader) (Object, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	contentType, ok := imageExtensions[extension]
	if !ok {
		return Object{}, fmt.Errorf("unsupported image type: %s", extension)
	}
	if file.Size > maxUploadSize {
		return Object{}, fmt.Errorf("image file too large (max 10MB)")
	}

	in, err := file.Open()
	if err != nil {
		return Object{}, err
	}
	defer in.Close()

	return st.Upload(ctx, folder, file.Filename, contentType, in)
}

// SaveResume stores an uploaded resume; only PDFs are accepted.
func SaveResume(ctx context.Context, st Storage, folder string, file *multipart.FileHeader) (Object, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension != ".pdf" {
		return Object{}, fmt.Errorf("unsupported resume type: %s", extension)
	}
	if file.Size > maxUploadSize {
		return Object{}, fmt.Errorf("resume file too large (max 10MB)")
	}

	in, err := file.Open()
	if err != nil {
		return Object{}, err
	}
	defer in.Close()

	return st.Upload(ctx, folder, file.Filename, "application/pdf", in)
}
