package provisioning

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNamespaceExists 租户文件目录已存在
var ErrNamespaceExists = errors.New("租户文件目录已存在")

// namespaceSubdirs 上传处理使用的子目录
var namespaceSubdirs = []string{"media", "imports"}

// Namespaces 租户隔离的文件存储空间
type Namespaces interface {
	Create(tenant string) (string, error)
	Remove(tenant string) error
}

// LocalNamespaces 本地目录实现：<root>/<tenant>
type LocalNamespaces struct {
	root string
}

// NewLocalNamespaces 创建本地目录实现
func NewLocalNamespaces(root string) *LocalNamespaces {
	return &LocalNamespaces{root: root}
}

// Path 租户目录
func (n *LocalNamespaces) Path(tenant string) string {
	return filepath.Join(n.root, tenant)
}

// Create 创建租户目录；目录已存在时返回 ErrNamespaceExists，不会接管他人的目录
func (n *LocalNamespaces) Create(tenant string) (string, error) {
	if err := os.MkdirAll(n.root, 0755); err != nil {
		return "", fmt.Errorf("创建上传根目录失败: %w", err)
	}
	dir := n.Path(tenant)
	if err := os.Mkdir(dir, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrNamespaceExists, dir)
		}
		return "", fmt.Errorf("创建租户目录失败: %w", err)
	}
	for _, sub := range namespaceSubdirs {
		if err := os.Mkdir(filepath.Join(dir, sub), 0755); err != nil {
			_ = os.RemoveAll(dir)
			return "", fmt.Errorf("创建租户子目录 %s 失败: %w", sub, err)
		}
	}
	return dir, nil
}

// Remove 删除租户目录
func (n *LocalNamespaces) Remove(tenant string) error {
	if err := os.RemoveAll(n.Path(tenant)); err != nil {
		return fmt.Errorf("删除租户目录失败: %w", err)
	}
	return nil
}
