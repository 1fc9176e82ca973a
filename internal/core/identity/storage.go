package identity

import (
	"crypto/ed25519"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-dep2p-dht/pkg/types"
)

const pemTypeEd25519Private = "ED25519 PRIVATE KEY"

// ============================================================================
//                              私钥持久化
// ============================================================================

// SavePrivateKeyPEM 保存私钥到 PEM 文件
//
// 使用原子写操作（临时文件 + rename）防止部分写入导致的文件损坏。
// 文件权限设置为 0600，仅所有者可读写。
func SavePrivateKeyPEM(priv ed25519.PrivateKey, path string) error {
	if priv == nil {
		return ErrNilPrivateKey
	}
	block := &pem.Block{
		Type:  pemTypeEd25519Private,
		Bytes: priv.Seed(),
	}
	return atomicWriteFile(path, pem.EncodeToMemory(block), 0600)
}

// LoadPrivateKeyPEM 从 PEM 文件加载私钥
func LoadPrivateKeyPEM(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemTypeEd25519Private {
		return nil, ErrInvalidPEM
	}
	if len(block.Bytes) != ed25519.SeedSize {
		return nil, ErrInvalidKeySize
	}
	return ed25519.NewKeyFromSeed(block.Bytes), nil
}

// LoadOrCreate 从密钥文件加载身份，文件不存在且允许时生成并保存
//
// path 为空时总是生成内存中的临时身份。
func LoadOrCreate(path string, autoGenerate bool, addrs []ma.Multiaddr, features types.PeerFeatures) (*NodeIdentity, error) {
	if path == "" {
		return Generate(addrs, features)
	}

	priv, err := LoadPrivateKeyPEM(path)
	switch {
	case err == nil:
		logger.Debug("已加载身份密钥", "path", path)
		return FromPrivateKey(priv, addrs, features)
	case errors.Is(err, ErrKeyNotFound) && autoGenerate:
		id, genErr := Generate(addrs, features)
		if genErr != nil {
			return nil, genErr
		}
		if saveErr := SavePrivateKeyPEM(id.privateKey, path); saveErr != nil {
			return nil, fmt.Errorf("保存身份密钥失败: %w", saveErr)
		}
		logger.Info("已生成新身份密钥", "path", path, "nodeID", id.NodeID().ShortString())
		return id, nil
	default:
		return nil, fmt.Errorf("加载身份密钥失败: %w", err)
	}
}

// atomicWriteFile 原子写文件
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("同步临时文件失败: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("设置文件权限失败: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("重命名文件失败: %w", err)
	}

	success = true
	return nil
}
