package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ImageStore persists captured evidence images in a MinIO bucket and hands
// back durable URLs. The rest of the system treats those URLs as opaque
// handles and never inspects image bytes.
type ImageStore struct {
	client   *minio.Client
	bucket   string
	endpoint string
	secure   bool
}

func NewImageStore(endpoint, accessKey, secretKey, bucket string, secure bool) (*ImageStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ImageStore{
		client:   client,
		bucket:   bucket,
		endpoint: endpoint,
		secure:   secure,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *ImageStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	log.Printf("[OK] Created bucket %s", s.bucket)
	return nil
}

// Upload stores a base64 data-URL image under path and returns its durable URL.
func (s *ImageStore) Upload(ctx context.Context, dataURL string, path string) (string, error) {
	contentType, raw, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, path), nil
}

// decodeDataURL splits "data:image/jpeg;base64,<payload>" into its content
// type and decoded bytes. A bare base64 string is accepted as image/jpeg.
func decodeDataURL(dataURL string) (string, []byte, error) {
	contentType := "image/jpeg"
	payload := dataURL

	if strings.HasPrefix(dataURL, "data:") {
		idx := strings.Index(dataURL, ",")
		if idx < 0 {
			return "", nil, fmt.Errorf("malformed data URL")
		}
		header := dataURL[len("data:"):idx]
		payload = dataURL[idx+1:]

		header = strings.TrimSuffix(header, ";base64")
		if header != "" {
			contentType = header
		}
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return contentType, raw, nil
}
