package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	internal "github.com/frahmantamala/expense-tracker/internal"
)

// PublicPrefix is the URL path stored photos are served under.
const PublicPrefix = "/uploads/"

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PhotoStore keeps profile photos and returns the public path of a stored one.
type PhotoStore interface {
	Save(ctx context.Context, r io.Reader) (string, error)
	Delete(ctx context.Context, publicPath string) error
}

// DiskPhotoStore writes photos into a directory served at PublicPrefix.
type DiskPhotoStore struct {
	Dir      string
	MaxBytes int64
}

func NewDiskPhotoStore(dir string, maxBytes int64) (*DiskPhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskPhotoStore{Dir: dir, MaxBytes: maxBytes}, nil
}

// Save accepts only images up to MaxBytes. The content type is sniffed from
// the data, never taken from the client.
func (s *DiskPhotoStore) Save(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if int64(len(data)) > s.MaxBytes {
		return "", internal.NewValidationFieldError("photo", fmt.Sprintf("photo must not exceed %d bytes", s.MaxBytes), internal.ErrCodeValidationFailed)
	}

	ext, ok := imageExtensions[http.DetectContentType(data)]
	if !ok {
		return "", internal.NewValidationFieldError("photo", "Only image files are allowed", internal.ErrCodeValidationFailed)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := "profile-" + uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return PublicPrefix + name, nil
}

// Delete removes a previously saved photo. Paths outside the store are ignored.
func (s *DiskPhotoStore) Delete(ctx context.Context, publicPath string) error {
	if !strings.HasPrefix(publicPath, PublicPrefix) {
		return nil
	}
	name := path.Base(publicPath)
	if name == "." || name == "/" || strings.Contains(name, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
