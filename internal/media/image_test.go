package media

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestFitWithinKeepsSmallImages(t *testing.T) {
	w, h := fitWithin(300, 200, 512)
	if w != 300 || h != 200 {
		t.Fatalf("expected 300x200 unchanged, got %dx%d", w, h)
	}
}

func TestFitWithinScalesWideImages(t *testing.T) {
	w, h := fitWithin(1024, 512, 512)
	if w != 512 || h != 256 {
		t.Fatalf("expected 512x256, got %dx%d", w, h)
	}
}

func TestFitWithinScalesTallImages(t *testing.T) {
	w, h := fitWithin(512, 2048, 512)
	if w != 128 || h != 512 {
		t.Fatalf("expected 128x512, got %dx%d", w, h)
	}
}

func TestFitWithinNeverCollapsesToZero(t *testing.T) {
	w, h := fitWithin(10000, 1, 512)
	if w != 512 || h != 1 {
		t.Fatalf("expected 512x1, got %dx%d", w, h)
	}
}

func TestNormalizeAvatarShrinksAndEncodes(t *testing.T) {
	var src bytes.Buffer
	if err := png.Encode(&src, image.NewRGBA(image.Rect(0, 0, 1024, 768))); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}

	out, err := NormalizeAvatar(&src)
	if err != nil {
		t.Fatalf("NormalizeAvatar failed: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected encoded bytes")
	}
	// webp files start with the RIFF fourcc.
	if !bytes.HasPrefix(out, []byte("RIFF")) {
		t.Fatalf("expected webp output, got prefix %q", out[:4])
	}
}

func TestNormalizeAvatarRejectsGarbage(t *testing.T) {
	if _, err := NormalizeAvatar(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Fatal("expected decode error for non-image input")
	}
}
