package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hanzel-sc/iwp-placement-portal/backend/config"
)

// Storage 文件存储抽象（简历等附件）
type Storage interface {
	// Save 写入对象，key 为存储内的相对路径
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	// Delete 删除对象，不存在时不报错
	Delete(ctx context.Context, key string) error
	// URL 返回对象的公开访问地址
	URL(key string) string
}

// New 根据配置创建存储实现
func New(cfg *config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocal(cfg.BasePath, cfg.BaseURL)
	case "s3":
		return NewS3(cfg)
	default:
		return nil, fmt.Errorf("不支持的存储类型: %s", cfg.Type)
	}
}

// KeyOf 从 URL 反推对象 key，URL 不属于该存储时返回 false
func KeyOf(s Storage, url string) (string, bool) {
	prefix := s.URL("")
	if url == "" || !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
