// Package upload 图片上传存储
//
// 两个实现：LocalStore 写本地磁盘并由 API Server 静态服务 /uploads/，
// MinioStore 写对象存储并返回可直接访问的 URL。两者共用同一套校验：
// 仅接受 jpeg/jpg/png/webp，单文件上限 100MB。
package upload

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind 上传类别，决定存储子目录
type Kind string

const (
	KindProductMain       Kind = "products/main"
	KindProductAdditional Kind = "products/additional"
	KindEmployeePicture   Kind = "employees/pictures"
)

// 上传限制
const (
	MaxFileSize         = 100 << 20 // 100MB
	MaxAdditionalImages = 5
)

// 校验错误，handler 映射为 400
var (
	ErrFileType     = errors.New("only jpeg, jpg, png and webp images are allowed")
	ErrFileTooLarge = fmt.Errorf("file exceeds the %dMB limit", MaxFileSize>>20)
	ErrTooManyFiles = fmt.Errorf("at most %d additional images are allowed", MaxAdditionalImages)
)

// Store 上传后端
type Store interface {
	// Save 校验并保存上传文件，返回可放入 API 响应的公开路径/URL
	Save(ctx context.Context, kind Kind, fh *multipart.FileHeader) (string, error)

	// Remove 删除已保存文件；目标不存在时静默成功
	Remove(ctx context.Context, publicPath string) error
}

var allowedExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".webp": true,
}

var allowedMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// validate 扩展名 + 声明的 Content-Type + 大小三重检查
func validate(fh *multipart.FileHeader) error {
	if fh.Size > MaxFileSize {
		return ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExts[ext] {
		return ErrFileType
	}
	if ct := fh.Header.Get("Content-Type"); ct != "" && !allowedMIMEs[ct] {
		return ErrFileType
	}
	return nil
}

// newFilename 生成不可猜测的存储文件名，保留原扩展名
func newFilename(kind Kind, original string) string {
	prefix := "file"
	switch kind {
	case KindProductMain, KindProductAdditional:
		prefix = "product"
	case KindEmployeePicture:
		prefix = "employee"
	}
	ext := strings.ToLower(filepath.Ext(original))
	frag := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%s-%d-%s%s", prefix, time.Now().UnixMilli(), frag, ext)
}
