package asset

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

const (
	KindProfile     = "profile"
	KindResume      = "resume"
	KindProject     = "project"
	KindAchievement = "achievement"
)

var (
	ErrUnknownKind = errors.New("unknown asset kind")
	ErrForeignRef  = errors.New("asset reference not owned by this uploader")
)

// Uploader stores an uploaded file and returns the reference written into the
// document. The reference is either a path resolved against the asset base or a
// full URL.
type Uploader interface {
	Upload(ctx context.Context, kind, filename string, r io.Reader, size int64, contentType string) (string, error)
	// Delete removes a stored asset by the reference Upload returned.
	Delete(ctx context.Context, ref string) error
}

// ValidKind reports whether kind names a document slot that takes an asset.
func ValidKind(kind string) bool {
	switch kind {
	case KindProfile, KindResume, KindProject, KindAchievement:
		return true
	}
	return false
}

// objectName builds "<kind>/<id><ext>" keeping only the original extension.
func objectName(kind, id, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return kind + "/" + id + ext
}
