// Package s3 stores workflow artifacts in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"sync"

	"github.com/aretw0/nodeflow/pkg/domain"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the connection settings of the bucket.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Artifacts implements ports.ArtifactStore on an S3 bucket.
// Keys are object names; counters are derived from a listing of the prefix.
type Artifacts struct {
	client *minio.Client
	bucket string
	region string

	// guards ready; a failed bucket check is retried on the next call
	initMu sync.Mutex
	ready  bool

	// serialises counter allocation within this process
	mu sync.Mutex
}

// NewArtifacts validates cfg and creates the client. No request is made until first use.
func NewArtifacts(cfg Config) (*Artifacts, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &Artifacts{client: client, bucket: bucket, region: region}, nil
}

func (a *Artifacts) ensureBucket(ctx context.Context) error {
	a.initMu.Lock()
	defer a.initMu.Unlock()

	if a.ready {
		return nil
	}
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return err
	}
	if !exists {
		err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region})
		if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
			return err
		}
	}
	a.ready = true
	return nil
}

// Put uploads data under the next free counter for prefix.
func (a *Artifacts) Put(ctx context.Context, prefix, ext string, data []byte) (string, error) {
	clean, err := cleanPrefix(prefix)
	if err != nil {
		return "", err
	}
	if err := a.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	keys := make([]string, 0, 16)
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: clean + "_"}) {
		if obj.Err != nil {
			return "", fmt.Errorf("list artifacts: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}

	key := domain.ArtifactKey(clean, domain.NextArtifactCounter(clean, keys), ext)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(ext),
	})
	if err != nil {
		return "", fmt.Errorf("upload artifact %s: %w", key, err)
	}
	return key, nil
}

// Get downloads the object stored under key.
func (a *Artifacts) Get(ctx context.Context, key string) ([]byte, error) {
	if err := a.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, notFound(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, notFound(key, err)
	}
	return data, nil
}

func notFound(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, key)
	}
	return err
}

func cleanPrefix(prefix string) (string, error) {
	clean := path.Clean(strings.TrimLeft(strings.TrimSpace(prefix), "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errors.New("artifact prefix must name a location inside the bucket")
	}
	return clean, nil
}

func contentType(ext string) string {
	if t := mime.TypeByExtension("." + strings.TrimPrefix(ext, ".")); t != "" {
		return t
	}
	return "application/octet-stream"
}
