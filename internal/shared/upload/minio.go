package upload

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"company-admin/internal/config"
)

// MinioStore MinIO 对象存储上传后端
type MinioStore struct {
	mc       *minio.Client
	bucket   string
	baseURL  string // 对象公开访问前缀，如 http://localhost:9000/company-admin
}

// NewMinioStore 创建 MinIO 后端并确保 bucket 存在
func NewMinioStore(ctx context.Context, cfg config.MinIOConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio access_key and secret_key are required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "company-admin"
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	s := &MinioStore{
		mc:      mc,
		bucket:  bucket,
		baseURL: fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, bucket),
	}

	exists, err := mc.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		log.Printf("[upload] Created bucket: %s", bucket)
	}
	return s, nil
}

func (s *MinioStore) Save(ctx context.Context, kind Kind, fh *multipart.FileHeader) (string, error) {
	if err := validate(fh); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("upload: open multipart file: %w", err)
	}
	defer src.Close()

	key := string(kind) + "/" + newFilename(kind, fh.Filename)
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.mc.PutObject(ctx, s.bucket, key, src, fh.Size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *MinioStore) Remove(ctx context.Context, publicPath string) error {
	key, ok := strings.CutPrefix(publicPath, s.baseURL+"/")
	if !ok {
		return nil
	}
	return s.mc.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
