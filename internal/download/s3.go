package download

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectGetter reads one object from an S3-compatible store.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

type minioGetter struct {
	client *minio.Client
}

// NewS3 connects to an S3-compatible endpoint such as "s3.amazonaws.com" or
// "localhost:9000".
func NewS3(endpoint, accessKey, secretKey string, useSSL bool) (ObjectGetter, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client %s: %w", endpoint, err)
	}
	return &minioGetter{client: client}, nil
}

func (g *minioGetter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := g.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing object before any bytes are copied.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, ErrNotFound)
		}
		return nil, err
	}
	return obj, nil
}

// splitS3 parses s3://bucket/key/with/slashes.
func splitS3(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 url %q: want s3://bucket/key", raw)
	}
	return u.Host, key, nil
}
