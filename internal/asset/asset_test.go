package asset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUploader_Upload(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir)
	require.NoError(t, err)

	ref, err := u.Upload(context.Background(), KindProfile, "me.PNG", strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "/uploads/profile/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(ref, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestLocalUploader_UniqueNames(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir())
	require.NoError(t, err)

	a, err := u.Upload(context.Background(), KindResume, "cv.pdf", strings.NewReader("a"), 1, "")
	require.NoError(t, err)
	b, err := u.Upload(context.Background(), KindResume, "cv.pdf", strings.NewReader("b"), 1, "")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestLocalUploader_UnknownKind(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir())
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), "../etc", "x", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "project/id.jpg", objectName("project", "id", `C:\photos\shot.JPG`))
	assert.Equal(t, "project/id", objectName("project", "id", "noext"))
	assert.Equal(t, "project/id", objectName("project", "id", "weird.extension-too-long"))
}

func TestLocalUploader_Delete(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir)
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := u.Upload(ctx, KindProject, "shot.png", strings.NewReader("img"), 3, "")
	require.NoError(t, err)

	require.NoError(t, u.Delete(ctx, ref))
	_, err = os.Stat(filepath.Join(dir, strings.TrimPrefix(ref, "/uploads/")))
	assert.True(t, os.IsNotExist(err))

	// already gone
	assert.NoError(t, u.Delete(ctx, ref))

	assert.ErrorIs(t, u.Delete(ctx, "/uploads/../../etc/passwd"), ErrForeignRef)
	assert.ErrorIs(t, u.Delete(ctx, "https://cdn.example.com/a.png"), ErrForeignRef)
}
