package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage keeps uploads on disk under rootDir/uploads and serves them
// from the /public static route.
type LocalStorage struct {
	rootDir string
}

func NewLocalStorage(rootDir string) *LocalStorage {
	return &LocalStorage{rootDir: filepath.Clean(rootDir)}
}

func (s *LocalStorage) Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (Object, error) {
	extension := strings.ToLower(filepath.Ext(filename))
	name := uuid.NewString() + extension
	relPath := path.Join("uploads", folder, name)

	dir := filepath.Join(s.rootDir, "uploads", filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[STORAGE] local upload: failed to create directory %s: %v", dir, err)
		return Object{}, err
	}

	fullPath := filepath.Join(dir, name)
	out, err := os.Create(fullPath)
	if err != nil {
		log.Printf("[STORAGE] local upload: failed to create file %s: %v", fullPath, err)
		return Object{}, err
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		log.Printf("[STORAGE] local upload: failed to save file %s: %v", fullPath, err)
		return Object{}, err
	}

	return Object{
		URL:       "/public/" + relPath,
		StorageID: relPath,
	}, nil
}

// Delete removes a previously uploaded file. Paths outside uploads/ are
// refused so a malformed storage id can never escape the public root.
func (s *LocalStorage) Delete(ctx context.Context, storageID string) error {
	trimmed := strings.TrimSpace(storageID)
	if trimmed == "" {
		return nil
	}

	cleanRel := path.Clean("/" + strings.TrimPrefix(trimmed, "/"))
	cleanRel = strings.TrimPrefix(cleanRel, "/")

	if !strings.HasPrefix(cleanRel, "uploads/") {
		return fmt.Errorf("refusing to delete non-upload path: %s", storageID)
	}

	targetPath := filepath.Join(s.rootDir, filepath.FromSlash(cleanRel))
	cleanTarget := filepath.Clean(targetPath)
	if cleanTarget != s.rootDir && !strings.HasPrefix(cleanTarget, s.rootDir+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside public root: %s", storageID)
	}

	if err := os.Remove(cleanTarget); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return nil
}

func (s *LocalStorage) SignUpload(ctx context.Context, folder, filename, contentType string) (SignedUpload, error) {
	return SignedUpload{}, ErrSignedUploadsUnsupported
}
