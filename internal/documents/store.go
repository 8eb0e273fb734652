// Package documents stores rendered quotation PDFs in object storage and
// hands out their download URLs.
package documents

import (
	"bytes"
	"context"
	"fmt"

	"ovidio_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store keeps quotation documents in a MinIO bucket with public read
// access, so the same URL works in the chat message and in the QR code
// printed on the document itself.
type Store struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

// New creates a document store. Returns nil when MinIO is not configured.
func New(cfg config.MinIOConfig) (*Store, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, nil
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Store{
		client:   client,
		bucket:   cfg.GetMinioBucketQuoteDocs(),
		endpoint: cfg.GetMinIOEndpoint(),
		useSSL:   cfg.GetMinIOUseSSL(),
	}, nil
}

// EnsureBucket creates the bucket if missing and opens it for anonymous
// downloads.
func (s *Store) EnsureBucket(ctx context.Context) error {
	if s == nil {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}

	policy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"AWS": ["*"]},
			"Action": ["s3:GetObject"],
			"Resource": ["arn:aws:s3:::%s/*"]
		}]
	}`, s.bucket)
	if err := s.client.SetBucketPolicy(ctx, s.bucket, policy); err != nil {
		return fmt.Errorf("set bucket policy %s: %w", s.bucket, err)
	}
	return nil
}

// StoreQuotationPDF uploads the rendered document and returns its download
// URL.
func (s *Store) StoreQuotationPDF(ctx context.Context, number int64, pdf []byte) (string, error) {
	if s == nil {
		return "", fmt.Errorf("document storage not configured")
	}
	key := objectKey(number)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(pdf), int64(len(pdf)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.DocumentURL(number), nil
}

// DocumentURL returns the stable download URL for a quotation number. The
// URL is deterministic, so it can be embedded in the document before the
// upload happens.
func (s *Store) DocumentURL(number int64) string {
	if s == nil {
		return ""
	}
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, objectKey(number))
}

func objectKey(number int64) string {
	return fmt.Sprintf("quotes/presupuesto-%06d.pdf", number)
}
