package documents

import (
	"context"
	"fmt"
	"io"
	"time"

	"impactbridge/partner-portal/partner-portal-backend/pkg/storage"
)

// StorageProvider puts document files in S3 and hands out download links.
type StorageProvider struct {
	s3     storage.S3Client
	bucket string
}

func NewStorageProvider(s3 storage.S3Client, bucket string) *StorageProvider {
	return &StorageProvider{
		s3:     s3,
		bucket: bucket,
	}
}

func (p *StorageProvider) Bucket() string {
	return p.bucket
}

func (p *StorageProvider) Upload(ctx context.Context, key string, body io.Reader) error {
	return p.s3.Upload(ctx, p.bucket, key, body)
}

func (p *StorageProvider) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return p.s3.Download(ctx, p.bucket, key)
}

func (p *StorageProvider) PresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return p.s3.GetPresignedURL(ctx, p.bucket, key, expiration)
}

func (p *StorageProvider) GenerateKey(orgID string, docType DocumentType, fileName string) string {
	return fmt.Sprintf("orgs/%s/documents/%s/%s", orgID, docType, fileName)
}
