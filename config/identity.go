package config

import (
	"errors"
	"fmt"
	"strings"
)

// IdentityConfig 身份配置
//
// 管理节点的密钥、对外广播的地址与能力位：
//   - 密钥文件路径（为空时在内存中生成临时密钥）
//   - 公网可达地址（multiaddr 格式，随 Join/Discover 广播）
//   - 节点能力（message_propagation / store_forward）
type IdentityConfig struct {
	// KeyFile 密钥文件路径
	// 如果为空，将在内存中生成临时密钥
	KeyFile string `json:"key_file"`

	// AutoGenerate 当密钥文件不存在时是否自动生成
	AutoGenerate bool `json:"auto_generate"`

	// PublicAddrs 对外广播的地址
	// 格式为 multiaddr，例如 "/ip4/1.2.3.4/tcp/4001"
	PublicAddrs []string `json:"public_addrs,omitempty"`

	// Features 节点能力
	// 可选值: "message_propagation", "store_forward", "communication_node", "communication_client"
	Features []string `json:"features,omitempty"`
}

// DefaultIdentityConfig 返回默认身份配置
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{
		KeyFile:      "",
		AutoGenerate: true,
		PublicAddrs:  nil,
		Features:     []string{"communication_node"},
	}
}

// Validate 验证身份配置
func (c IdentityConfig) Validate() error {
	if c.KeyFile == "" && !c.AutoGenerate {
		return errors.New("key_file is required when auto_generate is disabled")
	}
	for _, addr := range c.PublicAddrs {
		if !strings.HasPrefix(addr, "/") {
			return fmt.Errorf("public address %q must be multiaddr format", addr)
		}
	}
	return nil
}
