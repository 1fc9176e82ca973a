package dep2pdht

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-dep2p-dht/config"
	"github.com/dep2p/go-dep2p-dht/internal/core/identity"
	"github.com/dep2p/go-dep2p-dht/internal/core/metrics"
	"github.com/dep2p/go-dep2p-dht/internal/dht"
	"github.com/dep2p/go-dep2p-dht/internal/dht/outbound"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. Identity → Metrics
//  2. Outbound（Sink 先于 Actor 启动，后于 Actor 停止）
//  3. DHT Actor
func buildFxApp(cfg *config.Config, o *options, node *Node) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 模块组装
	// ════════════════════════════════════════════════════════════════════════
	modules := []fx.Option{
		fx.Supply(cfg),

		identity.Module,
		metrics.Module,
		outbound.Module,
		dht.Module,
	}

	if h := o.outboundHandler; h != nil {
		modules = append(modules, fx.Provide(func() outbound.HandlerFunc { return h }))
	}

	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	modules = append(modules, fx.Populate(&node.identity, &node.requester, &node.actor))

	// ════════════════════════════════════════════════════════════════════════
	// 3. Fx 日志静默（使用 pkg/lib/log 统一输出）
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return app, nil
}
