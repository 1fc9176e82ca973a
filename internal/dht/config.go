package dht

import (
	"fmt"
	"time"

	"github.com/dep2p/go-dep2p-dht/config"
)

// Config DHT Actor 配置
//
// 构造 Actor 时快照，运行期间只读。
type Config struct {
	// EnableAutoJoin 启动时广播 Join
	EnableAutoJoin bool

	// EnableAutoStoredMessageRequest 启动时请求存储转发的离线消息
	EnableAutoStoredMessageRequest bool

	// NumNeighbouringNodes 广播时选取的最近节点数
	NumNeighbouringNodes int

	// SignatureCacheCapacity 签名缓存容量上限
	SignatureCacheCapacity int

	// SignatureCacheTTL 签名缓存条目存活时间
	SignatureCacheTTL time.Duration

	// RequestBufferSize 请求队列容量
	RequestBufferSize int

	// OutboundTimeout 单次广播提交超时，0 表示不限
	OutboundTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		EnableAutoJoin:                 true,
		EnableAutoStoredMessageRequest: true,
		NumNeighbouringNodes:           8,
		SignatureCacheCapacity:         10 * 1000,
		SignatureCacheTTL:              300 * time.Second,
		RequestBufferSize:              10,
		OutboundTimeout:                10 * time.Second,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.NumNeighbouringNodes <= 0 {
		return fmt.Errorf("%w: NumNeighbouringNodes must be positive", ErrInvalidConfig)
	}
	if c.SignatureCacheCapacity <= 0 {
		return fmt.Errorf("%w: SignatureCacheCapacity must be positive", ErrInvalidConfig)
	}
	if c.SignatureCacheTTL <= 0 {
		return fmt.Errorf("%w: SignatureCacheTTL must be positive", ErrInvalidConfig)
	}
	if c.RequestBufferSize < 0 {
		return fmt.Errorf("%w: RequestBufferSize must not be negative", ErrInvalidConfig)
	}
	if c.OutboundTimeout < 0 {
		return fmt.Errorf("%w: OutboundTimeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ConfigFromUnified 从统一配置创建 DHT Actor 配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	d := cfg.DHT
	return Config{
		EnableAutoJoin:                 d.EnableAutoJoin,
		EnableAutoStoredMessageRequest: d.EnableAutoStoredMessageRequest,
		NumNeighbouringNodes:           d.NumNeighbouringNodes,
		SignatureCacheCapacity:         d.SignatureCacheCapacity,
		SignatureCacheTTL:              d.SignatureCacheTTL.Duration(),
		RequestBufferSize:              d.RequestBufferSize,
		OutboundTimeout:                d.OutboundTimeout.Duration(),
	}
}
