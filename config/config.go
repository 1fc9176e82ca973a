// Package config 提供统一的配置管理
//
// 本包采用分文件子配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON 加载配置
//
// 配置在节点构造时提供，运行期间只读。
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.DHT.EnableAutoJoin = false
//
//	// 从 JSON 文件加载
//	cfg, err := config.LoadFile("node.json")
package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Config 完整配置结构
//
// 配置按照功能模块组织：
//   - Identity: 身份和广播地址
//   - DHT: DHT 控制面（自动入网、签名缓存等）
//   - Outbound: 出站消息队列
//   - Log: 日志
//   - Metrics: 指标
type Config struct {
	// Identity 身份配置
	Identity IdentityConfig `json:"identity"`

	// DHT DHT 控制面配置
	DHT DHTConfig `json:"dht"`

	// Outbound 出站消息配置
	Outbound OutboundConfig `json:"outbound"`

	// Log 日志配置
	Log LogConfig `json:"log"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Identity: DefaultIdentityConfig(),
		DHT:      DefaultDHTConfig(),
		Outbound: DefaultOutboundConfig(),
		Log:      DefaultLogConfig(),
		Metrics:  DefaultMetricsConfig(),
	}
}

// Validate 验证配置
//
// 检查所有子配置，返回聚合后的全部错误。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	var err error
	err = multierr.Append(err, wrap("identity", c.Identity.Validate()))
	err = multierr.Append(err, wrap("dht", c.DHT.Validate()))
	err = multierr.Append(err, wrap("outbound", c.Outbound.Validate()))
	err = multierr.Append(err, wrap("log", c.Log.Validate()))
	err = multierr.Append(err, wrap("metrics", c.Metrics.Validate()))
	return err
}

// MustValidate 验证配置，如果失败则 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
}

func wrap(section string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", section, err)
}
