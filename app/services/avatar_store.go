package services

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const AvatarURLPrefix = "/static/avatars/"

var (
	ErrAvatarTooLarge    = errors.New("avatar exceeds the maximum upload size")
	ErrAvatarUnsupported = errors.New("avatar must be a png, jpeg, gif or webp image")
)

// AvatarStore normalizes uploaded profile images and keeps them on disk
type AvatarStore interface {
	Save(userID uint, r io.Reader) (string, error)
	Remove(publicURL string) error
}

type AvatarStoreImpl struct {
	dir      string
	size     int
	maxBytes int64
}

func NewAvatarStore(dir string, size int, maxBytes int64) (AvatarStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create avatar directory: %w", err)
	}
	return &AvatarStoreImpl{dir: dir, size: size, maxBytes: maxBytes}, nil
}

// Save center-crops the image to a square, scales it and writes a PNG; it returns the public path
func (s *AvatarStoreImpl) Save(userID uint, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read avatar: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrAvatarTooLarge
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", ErrAvatarUnsupported
	}

	dst := image.NewRGBA(image.Rect(0, 0, s.size, s.size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, squareCrop(src.Bounds()), draw.Over, nil)

	name := fmt.Sprintf("%d-%s.png", userID, uuid.NewString())
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create avatar file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, dst); err != nil {
		return "", fmt.Errorf("failed to encode avatar: %w", err)
	}

	return AvatarURLPrefix + name, nil
}

// Remove deletes a previously stored avatar; urls outside the store are ignored
func (s *AvatarStoreImpl) Remove(publicURL string) error {
	i := strings.Index(publicURL, AvatarURLPrefix)
	if i < 0 {
		return nil
	}
	name := path.Base(publicURL[i:])
	if name == "." || name == "/" || strings.Contains(name, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func squareCrop(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w > h {
		off := (w - h) / 2
		return image.Rect(b.Min.X+off, b.Min.Y, b.Min.X+off+h, b.Max.Y)
	}
	off := (h - w) / 2
	return image.Rect(b.Min.X, b.Min.Y+off, b.Max.X, b.Min.Y+off+w)
}
