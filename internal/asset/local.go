package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LocalUploader writes assets under a directory served at /uploads.
type LocalUploader struct {
	dir string
}

func NewLocalUploader(dir string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalUploader{dir: dir}, nil
}

func (u *LocalUploader) Dir() string {
	return u.dir
}

func (u *LocalUploader) Upload(ctx context.Context, kind, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if !ValidKind(kind) {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	name := objectName(kind, uuid.New().String(), filename)
	target := filepath.Join(u.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(target)
	if err != nil {
		return "", err
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		_ = os.Remove(target)
		return "", err
	}

	logrus.Debugf("stored %s asset %s (%d bytes)", kind, name, n)

	return "/uploads/" + name, nil
}

func (u *LocalUploader) Delete(ctx context.Context, ref string) error {
	name, ok := strings.CutPrefix(ref, "/uploads/")
	if !ok || !filepath.IsLocal(filepath.FromSlash(name)) {
		return fmt.Errorf("%w: %s", ErrForeignRef, ref)
	}

	err := os.Remove(filepath.Join(u.dir, filepath.FromSlash(name)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
