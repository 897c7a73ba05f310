package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/juju/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

// MinioStore keeps blobs as objects in an S3-compatible bucket. The storage
// path of a blob is its object key.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioStore connects and checks that the bucket exists.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, errors.Annotate(err, "parsing S3 endpoint")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, errors.Annotate(err, "creating minio client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Annotatef(err, "checking bucket %q", cfg.Bucket)
	}
	if !exists {
		return nil, errors.NotFoundf("bucket %q", cfg.Bucket)
	}

	return &MinioStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *MinioStore) Location() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.prefix)
}

// Put uploads exactly size bytes in a single request for small blobs, so size
// must be known. Anything r yields past size is drained and counted, letting
// the caller notice a stream longer than declared.
func (s *MinioStore) Put(ctx context.Context, name string, r io.Reader, size int64) (string, int64, error) {
	if err := validateName(name); err != nil {
		return "", 0, errors.Trace(err)
	}
	if size < 0 {
		return "", 0, errors.NotValidf("blob %q with unknown size", name)
	}
	key := s.prefix + name

	// S3 has no exclusive create; stored names are unique so a pre-check is
	// enough to avoid clobbering.
	if _, err := s.stat(ctx, key); err == nil {
		return "", 0, errors.Annotatef(ErrBlobExists, "%q", key)
	} else if !errors.Is(err, ErrBlobNotFound) {
		return "", 0, errors.Trace(err)
	}

	counted := &countingReader{r: r}
	if _, err := s.client.PutObject(ctx, s.bucket, key, io.LimitReader(counted, size), size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	}); err != nil {
		return "", 0, errors.Annotatef(err, "putting object %q", key)
	}

	if _, err := io.Copy(io.Discard, counted); err != nil {
		_ = s.client.RemoveObject(context.WithoutCancel(ctx), s.bucket, key, minio.RemoveObjectOptions{})
		return "", 0, errors.Annotatef(err, "reading past object %q", key)
	}
	return key, counted.n, nil
}

func (s *MinioStore) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, errors.Annotatef(err, "getting object %q", path)
	}

	// GetObject is lazy; Stat forces the request so a missing key fails here.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, 0, errors.Annotatef(ErrBlobNotFound, "%q", path)
		}
		return nil, 0, errors.Annotatef(err, "stat object %q", path)
	}
	return obj, info.Size, nil
}

func (s *MinioStore) stat(ctx context.Context, path string) (int64, error) {
	info, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return 0, errors.Annotatef(ErrBlobNotFound, "%q", path)
		}
		return 0, errors.Annotatef(err, "stat object %q", path)
	}
	return info.Size, nil
}

// Delete reports ErrBlobNotFound for absent keys, which S3 itself would
// silently accept.
func (s *MinioStore) Delete(ctx context.Context, path string) error {
	if _, err := s.stat(ctx, path); err != nil {
		return errors.Trace(err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return errors.Annotatef(err, "removing object %q", path)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

// normaliseEndpoint accepts either "minio:9000" or "http(s)://minio:9000".
func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}

	// No scheme: host:port, insecure as for a local MinIO.
	return raw, false, nil
}
