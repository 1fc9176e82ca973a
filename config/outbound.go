package config

import "errors"

// OutboundConfig 出站消息配置
type OutboundConfig struct {
	// BufferSize 出站请求队列容量
	BufferSize int `json:"buffer_size"`
}

// DefaultOutboundConfig 返回默认出站配置
func DefaultOutboundConfig() OutboundConfig {
	return OutboundConfig{
		BufferSize: 20,
	}
}

// Validate 验证出站配置
func (c OutboundConfig) Validate() error {
	if c.BufferSize < 0 {
		return errors.New("buffer_size must not be negative")
	}
	return nil
}
