// Package imageprocessor normalises uploaded avatar images.
package imageprocessor

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // registers the webp decoder with image.Decode
)

// AvatarSize is the bounding box avatars are fitted into.
const AvatarSize = 256

// Image is an encoded image with its mime type.
type Image struct {
	Data []byte
	Mime string
}

// NormalizeAvatar auto-orients a static avatar and fits it into
// AvatarSize x AvatarSize. JPEG stays JPEG; PNG and WEBP are written as PNG.
// GIFs are returned unchanged so animations survive.
func NormalizeAvatar(data []byte, mime string) (*Image, error) {
	var format imaging.Format
	outMime := mime
	switch mime {
	case "image/gif":
		return &Image{Data: data, Mime: mime}, nil
	case "image/jpeg":
		format = imaging.JPEG
	case "image/png", "image/webp":
		format = imaging.PNG
		outMime = "image/png"
	default:
		return nil, fmt.Errorf("imageprocessor: unsupported avatar type %q", mime)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("imageprocessor: decode avatar: %w", err)
	}
	img = fit(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("imageprocessor: encode avatar: %w", err)
	}
	return &Image{Data: buf.Bytes(), Mime: outMime}, nil
}

func fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= AvatarSize && b.Dy() <= AvatarSize {
		return img
	}
	return imaging.Fit(img, AvatarSize, AvatarSize, imaging.Lanczos)
}
