// Package artifacts stores uploaded studio artifacts in S3-compatible
// object storage. The whole package is optional; without configuration the
// progress layer keeps artifact URLs as plain links.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const urlExpiry = 24 * time.Hour

type Service struct {
	client *minio.Client
	bucket string
}

func New(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Service, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Service{client: client, bucket: bucket}, nil
}

func (s *Service) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Upload stores the artifact payload and returns a time-limited URL.
func (s *Service) Upload(ctx context.Context, accountKey, sessionID, artifactID, filename, contentType string, reader io.Reader, size int64) (string, error) {
	objectName := objectKey(accountKey, sessionID, artifactID, filename)
	if _, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("put object %s: %w", objectName, err)
	}
	return s.URL(ctx, objectName)
}

// URL signs a download link for a stored object.
func (s *Service) URL(ctx context.Context, objectName string) (string, error) {
	signed, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, urlExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectName, err)
	}
	return signed.String(), nil
}

func objectKey(accountKey, sessionID, artifactID, filename string) string {
	name := path.Base(filename)
	if name == "." || name == "/" || name == "" {
		name = "artifact"
	}
	return path.Join("studio", accountKey, sessionID, artifactID+"-"+name)
}
