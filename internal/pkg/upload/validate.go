package upload

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	MaxConfigSize = 1 << 20 // 1 MiB
	MaxAvatarSize = 2 << 20 // 2 MiB
)

var allowedConfigExt = map[string]bool{
	".json": true,
	".txt":  true,
	".cfg":  true,
	".yml":  true,
	".yaml": true,
}

var configContentTypes = map[string]string{
	".json": "application/json",
	".txt":  "text/plain",
	".cfg":  "text/plain",
	".yml":  "application/yaml",
	".yaml": "application/yaml",
}

var allowedAvatarMime = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var (
	ErrConfigType    = errors.New("Only .json, .txt, .cfg, .yml and .yaml files are allowed")
	ErrConfigSize    = errors.New("Config file must be at most 1 MB")
	ErrConfigEmpty   = errors.New("Config file is empty")
	ErrAvatarType    = errors.New("Only JPEG, PNG and WEBP images are allowed")
	ErrAvatarGIF     = errors.New("Animated avatars are reserved for staff")
	ErrAvatarSize    = errors.New("Avatar must be at most 2 MB")
	ErrAvatarContent = errors.New("File content does not match an allowed image type")
)

// ValidateConfigFile checks a config upload by extension and size and
// returns the content type to store it with.
func ValidateConfigFile(filename string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedConfigExt[ext] {
		return "", ErrConfigType
	}
	if size == 0 {
		return "", ErrConfigEmpty
	}
	if size > MaxConfigSize {
		return "", ErrConfigSize
	}
	return configContentTypes[ext], nil
}

// ValidateAvatarBySniff checks the first bytes of an avatar upload against
// the image whitelist. GIF is accepted only when allowAnimated is set.
// Returns the detected mime type.
func ValidateAvatarBySniff(head []byte, size int64, allowAnimated bool) (string, error) {
	if size > MaxAvatarSize {
		return "", ErrAvatarSize
	}

	detected := http.DetectContentType(head)
	if _, ok := allowedAvatarMime[detected]; !ok {
		// Block obvious scriptable types regardless of extension
		if strings.HasPrefix(detected, "text/") || strings.Contains(detected, "xml") {
			return "", ErrAvatarContent
		}
		return "", ErrAvatarType
	}
	if detected == "image/gif" && !allowAnimated {
		return "", ErrAvatarGIF
	}
	return detected, nil
}

// AvatarExtension maps an allowed avatar mime type to its file extension.
func AvatarExtension(mime string) string {
	return allowedAvatarMime[mime]
}

// SafeFilename strips any directory components and characters that do not
// belong in an object key.
func SafeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "config"
	}
	return out
}
