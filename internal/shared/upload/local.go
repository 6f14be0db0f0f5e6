package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// PublicPrefix 本地上传文件对外暴露的 URL 前缀
const PublicPrefix = "/uploads/"

// LocalStore 本地磁盘上传后端
type LocalStore struct {
	root string
}

// NewLocalStore 创建本地后端并预建所有类别子目录
func NewLocalStore(root string) (*LocalStore, error) {
	for _, kind := range []Kind{KindProductMain, KindProductAdditional, KindEmployeePicture} {
		dir := filepath.Join(root, string(kind))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("upload: create dir %s: %w", dir, err)
		}
	}
	return &LocalStore{root: root}, nil
}

// Root 本地上传根目录（静态文件服务用）
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Save(ctx context.Context, kind Kind, fh *multipart.FileHeader) (string, error) {
	if err := validate(fh); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("upload: open multipart file: %w", err)
	}
	defer src.Close()

	name := newFilename(kind, fh.Filename)
	dst, err := os.Create(filepath.Join(s.root, string(kind), name))
	if err != nil {
		return "", fmt.Errorf("upload: create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("upload: write file: %w", err)
	}
	return PublicPrefix + string(kind) + "/" + name, nil
}

func (s *LocalStore) Remove(ctx context.Context, publicPath string) error {
	rel, ok := strings.CutPrefix(publicPath, PublicPrefix)
	if !ok {
		return nil // 不是本后端产出的路径
	}
	// 防目录穿越
	rel = filepath.Clean(rel)
	if strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, rel))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
