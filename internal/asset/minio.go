package asset

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// MinioUploader stores assets in an S3 compatible bucket. The returned reference
// is "/<bucket>/<object>", resolved against the asset base by the render layer.
type MinioUploader struct {
	client *minio.Client
	bucket string
}

func NewMinioUploader(endpoint, accessKey, secretKey, bucket string, secure bool) (*MinioUploader, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	return &MinioUploader{client: client, bucket: bucket}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (u *MinioUploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	logrus.Infof("creating asset bucket %s", u.bucket)
	return u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{})
}

func (u *MinioUploader) Upload(ctx context.Context, kind, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if !ValidKind(kind) {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	name := objectName(kind, uuid.New().String(), filename)
	info, err := u.client.PutObject(ctx, u.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}

	logrus.Debugf("stored %s asset %s/%s (%d bytes)", kind, u.bucket, info.Key, info.Size)

	return "/" + u.bucket + "/" + name, nil
}

func (u *MinioUploader) Delete(ctx context.Context, ref string) error {
	name, ok := strings.CutPrefix(ref, "/"+u.bucket+"/")
	if !ok || name == "" {
		return fmt.Errorf("%w: %s", ErrForeignRef, ref)
	}

	return u.client.RemoveObject(ctx, u.bucket, name, minio.RemoveObjectOptions{})
}
