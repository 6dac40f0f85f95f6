package media

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
)

const (
	avatarMaxDim  = 512
	webpQuality   = 80
	maxAvatarSize = 10 << 20
)

// NormalizeAvatar decodes an uploaded avatar, scales it down to fit
// 512x512 and re-encodes it as webp. Animated formats lose animation.
func NormalizeAvatar(r io.Reader) ([]byte, error) {
	src, _, err := image.Decode(io.LimitReader(r, maxAvatarSize))
	if err != nil {
		return nil, err
	}

	width, height := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), avatarMaxDim)

	dst := src
	if width != src.Bounds().Dx() || height != src.Bounds().Dy() {
		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Over, nil)
		dst = scaled
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, dst, &webp.Options{Quality: webpQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fitWithin shrinks (w, h) proportionally so both sides fit in max.
// Images already small enough keep their size.
func fitWithin(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		scaled := h * max / w
		if scaled < 1 {
			scaled = 1
		}
		return max, scaled
	}
	scaled := w * max / h
	if scaled < 1 {
		scaled = 1
	}
	return scaled, max
}
