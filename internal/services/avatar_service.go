package services

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/font/gofont/goregular"
)

// AvatarService renders initials avatars and stores uploaded avatar images
// under the configured upload directory.
type AvatarService struct {
	uploadDir string
}

func NewAvatarService(uploadDir string) *AvatarService {
	return &AvatarService{uploadDir: uploadDir}
}

// Generate renders a 100x100 PNG with the user's initials on a random
// background and returns the path relative to the upload directory.
func (s *AvatarService) Generate(firstName, lastName string) (string, error) {
	initials := initialsOf(firstName, lastName)

	r, g, b := randomColor()
	dc := gg.NewContext(100, 100)
	dc.SetRGB(r, g, b)
	dc.Clear()

	// Luminance decides whether black or white text stays readable.
	if 0.299*r+0.587*g+0.114*b > 0.5 {
		dc.SetRGB(0, 0, 0)
	} else {
		dc.SetRGB(1, 1, 1)
	}

	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return "", fmt.Errorf("failed to parse font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: 40}))
	dc.DrawStringAnchored(initials, 50, 50, 0.5, 0.5)

	fileName := uuid.New().String() + ".png"
	fullPath := filepath.Join(s.uploadDir, "avatars", fileName)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create avatar directory: %w", err)
	}
	if err := dc.SavePNG(fullPath); err != nil {
		return "", fmt.Errorf("failed to save avatar: %w", err)
	}

	return filepath.Join("avatars", fileName), nil
}

// Store writes an uploaded avatar and returns its relative path.
func (s *AvatarService) Store(originalName string, src io.Reader) (string, error) {
	fileName := uuid.New().String() + "_" + filepath.Base(originalName)
	fullPath := filepath.Join(s.uploadDir, "avatars", fileName)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create avatar directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create avatar file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write avatar file: %w", err)
	}
	return filepath.Join("avatars", fileName), nil
}

// Delete removes a previously stored avatar. Missing files are not an
// error.
func (s *AvatarService) Delete(relPath string) {
	if relPath == "" {
		return
	}
	_ = os.Remove(filepath.Join(s.uploadDir, relPath))
}

func initialsOf(firstName, lastName string) string {
	var sb strings.Builder
	for _, name := range []string{firstName, lastName} {
		for _, r := range name {
			sb.WriteRune(r)
			break
		}
	}
	if sb.Len() == 0 {
		return "?"
	}
	return strings.ToUpper(sb.String())
}

func randomColor() (float64, float64, float64) {
	channel := func() float64 {
		n, err := rand.Int(rand.Reader, big.NewInt(256))
		if err != nil {
			return 0.5
		}
		return float64(n.Int64()) / 255
	}
	return channel(), channel(), channel()
}
