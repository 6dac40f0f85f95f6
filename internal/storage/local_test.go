package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalUploadWritesUnderUploads(t *testing.T) {
	root := t.TempDir()
	st := NewLocalStorage(root)

	object, err := st.Upload(context.Background(), "avatars/abc", "photo.PNG", "image/png", bytes.NewReader([]byte("data")))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if !strings.HasPrefix(object.URL, "/public/uploads/avatars/abc/") {
		t.Fatalf("unexpected url: %s", object.URL)
	}
	if !strings.HasPrefix(object.StorageID, "uploads/avatars/abc/") {
		t.Fatalf("unexpected storage id: %s", object.StorageID)
	}
	if !strings.HasSuffix(object.StorageID, ".png") {
		t.Fatalf("expected lowercased extension, got %s", object.StorageID)
	}

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(object.StorageID)))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(content) != "data" {
		t.Fatalf("unexpected file content: %q", content)
	}
}

func TestLocalDeleteRemovesUploadedFile(t *testing.T) {
	root := t.TempDir()
	st := NewLocalStorage(root)

	object, err := st.Upload(context.Background(), "portfolio/p1", "a.jpg", "image/jpeg", bytes.NewReader([]byte("x")))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if err := st.Delete(context.Background(), object.StorageID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(object.StorageID))); !os.IsNotExist(err) {
		t.Fatal("expected file to be removed")
	}
}

func TestLocalDeleteRefusesEscapes(t *testing.T) {
	st := NewLocalStorage(t.TempDir())

	for _, storageID := range []string{
		"../etc/passwd",
		"uploads/../../etc/passwd",
		"etc/passwd",
	} {
		if err := st.Delete(context.Background(), storageID); err == nil {
			t.Fatalf("expected refusal for %q", storageID)
		}
	}
}

func TestLocalDeleteIgnoresBlankAndMissing(t *testing.T) {
	st := NewLocalStorage(t.TempDir())

	if err := st.Delete(context.Background(), ""); err != nil {
		t.Fatalf("blank id must be a no-op, got %v", err)
	}
	if err := st.Delete(context.Background(), "uploads/gone/file.png"); err != nil {
		t.Fatalf("missing file must be a no-op, got %v", err)
	}
}

func TestLocalSignUploadUnsupported(t *testing.T) {
	st := NewLocalStorage(t.TempDir())

	_, err := st.SignUpload(context.Background(), "portfolio/p1", "a.png", "image/png")
	if !errors.Is(err, ErrSignedUploadsUnsupported) {
		t.Fatalf("expected ErrSignedUploadsUnsupported, got %v", err)
	}
}
