package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-dht/config"
	"github.com/dep2p/go-dep2p-dht/pkg/lib/log"
)

var logger = log.Logger("core/metrics")

// Config 指标配置
type Config struct {
	// Enabled 是否启用指标收集
	Enabled bool

	// ListenAddr /metrics 监听地址，为空则不启动 HTTP 服务
	ListenAddr string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled: true,
	}
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Enabled:    cfg.Metrics.Enabled,
		ListenAddr: cfg.Metrics.ListenAddr,
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result Metrics 导出结果
type Result struct {
	fx.Out

	Registry *prometheus.Registry
	Metrics  *DHTMetrics
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(ProvideMetrics),
	fx.Invoke(registerLifecycle),
)

// ProvideMetrics 创建独立的 Registry 与 DHT 指标
//
// 禁用时 Metrics 为 nil（空操作）。
func ProvideMetrics(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	reg := prometheus.NewRegistry()
	if !cfg.Enabled {
		return Result{Registry: reg}, nil
	}

	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return Result{}, err
	}
	m, err := NewDHTMetrics(reg)
	if err != nil {
		return Result{}, err
	}
	return Result{Registry: reg, Metrics: m}, nil
}

type lifecycleInput struct {
	fx.In

	LC         fx.Lifecycle
	Registry   *prometheus.Registry
	UnifiedCfg *config.Config `optional:"true"`
}

// registerLifecycle 按配置启停 HTTP 服务
func registerLifecycle(input lifecycleInput) {
	cfg := ConfigFromUnified(input.UnifiedCfg)
	if !cfg.Enabled || cfg.ListenAddr == "" {
		return
	}

	srv := NewServer(cfg.ListenAddr, input.Registry)
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			return srv.Stop(ctx)
		},
	})
}
