package config

import (
	"errors"
	"time"
)

// DHTConfig DHT 控制面配置
//
// 启动后只读，由 DHT actor 在构造时快照。
type DHTConfig struct {
	// EnableAutoJoin 启动时自动广播 Join 消息
	EnableAutoJoin bool `json:"enable_auto_join"`

	// EnableAutoStoredMessageRequest 启动时自动请求离线期间的存储消息
	EnableAutoStoredMessageRequest bool `json:"enable_auto_stored_message_request"`

	// NumNeighbouringNodes 广播时选取的最近节点数
	NumNeighbouringNodes int `json:"num_neighbouring_nodes"`

	// SignatureCacheCapacity 签名去重缓存的条目上限
	SignatureCacheCapacity int `json:"signature_cache_capacity"`

	// SignatureCacheTTL 签名去重缓存的条目存活时间
	SignatureCacheTTL Duration `json:"signature_cache_ttl"`

	// RequestBufferSize actor 请求队列容量
	RequestBufferSize int `json:"request_buffer_size,omitempty"`

	// OutboundTimeout 单次广播提交到出站队列的超时
	OutboundTimeout Duration `json:"outbound_timeout,omitempty"`
}

// DefaultDHTConfig 返回默认 DHT 配置
func DefaultDHTConfig() DHTConfig {
	return DHTConfig{
		EnableAutoJoin:                 true,
		EnableAutoStoredMessageRequest: true,
		NumNeighbouringNodes:           8,
		SignatureCacheCapacity:         10 * 1000,
		SignatureCacheTTL:              Duration(300 * time.Second),
		RequestBufferSize:              10,
		OutboundTimeout:                Duration(10 * time.Second),
	}
}

// Validate 验证 DHT 配置
func (c DHTConfig) Validate() error {
	if c.NumNeighbouringNodes <= 0 {
		return errors.New("num_neighbouring_nodes must be positive")
	}
	if c.SignatureCacheCapacity <= 0 {
		return errors.New("signature_cache_capacity must be positive")
	}
	if c.SignatureCacheTTL <= 0 {
		return errors.New("signature_cache_ttl must be positive")
	}
	if c.RequestBufferSize < 0 {
		return errors.New("request_buffer_size must not be negative")
	}
	if c.OutboundTimeout < 0 {
		return errors.New("outbound_timeout must not be negative")
	}
	return nil
}
