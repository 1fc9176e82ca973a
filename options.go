package dep2pdht

import (
	"errors"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-dht/config"
	"github.com/dep2p/go-dep2p-dht/internal/dht/outbound"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config *config.Config

	identityKeyFile *string
	publicAddrs     []string
	autoJoin        *bool
	autoStored      *bool
	metricsAddr     *string

	outboundHandler outbound.HandlerFunc
	userFxOptions   []fx.Option
}

// applyTo 将显式选项覆盖到配置上
func (o *options) applyTo(cfg *config.Config) {
	if o.identityKeyFile != nil {
		cfg.Identity.KeyFile = *o.identityKeyFile
	}
	if o.publicAddrs != nil {
		cfg.Identity.PublicAddrs = append([]string(nil), o.publicAddrs...)
	}
	if o.autoJoin != nil {
		cfg.DHT.EnableAutoJoin = *o.autoJoin
	}
	if o.autoStored != nil {
		cfg.DHT.EnableAutoStoredMessageRequest = *o.autoStored
	}
	if o.metricsAddr != nil {
		cfg.Metrics.ListenAddr = *o.metricsAddr
	}
}

// WithConfig 使用完整配置（其余选项在其上覆盖）
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.config = config.CloneConfig(cfg)
		return nil
	}
}

// WithIdentityKeyFile 指定身份密钥文件
//
// 文件不存在时按 IdentityConfig.AutoGenerate 生成。
func WithIdentityKeyFile(path string) Option {
	return func(o *options) error {
		o.identityKeyFile = &path
		return nil
	}
}

// WithPublicAddrs 设置对外广播的 multiaddr 地址
func WithPublicAddrs(addrs ...string) Option {
	return func(o *options) error {
		o.publicAddrs = append([]string{}, addrs...)
		return nil
	}
}

// WithAutoJoin 设置启动时是否自动广播 Join
func WithAutoJoin(enable bool) Option {
	return func(o *options) error {
		o.autoJoin = &enable
		return nil
	}
}

// WithAutoStoredMessageRequest 设置启动时是否请求离线存储消息
func WithAutoStoredMessageRequest(enable bool) Option {
	return func(o *options) error {
		o.autoStored = &enable
		return nil
	}
}

// WithMetricsAddr 设置 /metrics 监听地址
func WithMetricsAddr(addr string) Option {
	return func(o *options) error {
		o.metricsAddr = &addr
		return nil
	}
}

// WithOutboundHandler 设置出站请求回调（由出站 Sink 调用）
func WithOutboundHandler(h outbound.HandlerFunc) Option {
	return func(o *options) error {
		o.outboundHandler = h
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
