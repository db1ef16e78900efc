package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"course-marketplace/internal/config"
	"course-marketplace/internal/model"
	"course-marketplace/internal/serverrors"

	"github.com/google/uuid"
)

var ErrUnsupportedImage = fmt.Errorf("%w: only PNG and JPEG images are allowed", serverrors.ErrInvalidInput)

var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

type ImageStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (model.Image, error)
	Delete(ctx context.Context, publicID string) error
}

type localImageStore struct {
	dir     string
	baseURL string
}

// NewLocalImageStore keeps uploads under cfg.Dir; the server exposes them at cfg.BaseURL.
func NewLocalImageStore(cfg config.Storage) (ImageStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &localImageStore{
		dir:     cfg.Dir,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

func (s *localImageStore) Save(ctx context.Context, file *multipart.FileHeader) (model.Image, error) {
	if file == nil {
		return model.Image{}, fmt.Errorf("%w: image is required", serverrors.ErrInvalidInput)
	}

	src, err := file.Open()
	if err != nil {
		return model.Image{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return model.Image{}, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	ext, ok := allowedImageTypes[http.DetectContentType(head)]
	if !ok {
		return model.Image{}, ErrUnsupportedImage
	}

	if err := ctx.Err(); err != nil {
		return model.Image{}, err
	}

	publicID := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, publicID))
	if err != nil {
		return model.Image{}, fmt.Errorf("create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head), src)); err != nil {
		os.Remove(dst.Name())
		return model.Image{}, fmt.Errorf("write image file: %w", err)
	}

	return model.Image{
		PublicID: publicID,
		URL:      s.baseURL + "/" + publicID,
	}, nil
}

// Delete is a no-op for an empty or already removed image.
func (s *localImageStore) Delete(_ context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	// publicID is generated by Save; reject anything that could escape the dir
	if publicID != filepath.Base(publicID) {
		return fmt.Errorf("%w: bad image id", serverrors.ErrInvalidInput)
	}

	err := os.Remove(filepath.Join(s.dir, publicID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}
