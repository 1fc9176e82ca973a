package dht

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-dht/config"
	"github.com/dep2p/go-dep2p-dht/internal/core/identity"
	"github.com/dep2p/go-dep2p-dht/internal/core/metrics"
	"github.com/dep2p/go-dep2p-dht/internal/core/shutdown"
	"github.com/dep2p/go-dep2p-dht/internal/dht/outbound"
)

// Module DHT Fx 模块
var Module = fx.Module("dht",
	fx.Provide(
		NewFromParams,
	),
	fx.Invoke(registerLifecycle),
)

// Params DHT 依赖参数
type Params struct {
	fx.In

	Identity    *identity.NodeIdentity
	Broadcaster outbound.Broadcaster
	UnifiedCfg  *config.Config      `optional:"true"`
	Metrics     *metrics.DHTMetrics `optional:"true"`
}

// Result DHT 导出结果
type Result struct {
	fx.Out

	Actor     *Actor
	Requester *Requester
	Shutdown  *shutdown.Shutdown `name:"dht_shutdown"`
}

// NewFromParams 从 Fx 参数创建 Actor 与请求句柄
func NewFromParams(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)

	requester, receiver := NewRequestQueue(cfg.RequestBufferSize)
	sd := shutdown.New()

	actor, err := NewActor(cfg, p.Identity, p.Broadcaster, receiver, sd.ToSignal(),
		WithMetrics(p.Metrics))
	if err != nil {
		return Result{}, err
	}

	return Result{
		Actor:     actor,
		Requester: requester,
		Shutdown:  sd,
	}, nil
}

type lifecycleInput struct {
	fx.In

	LC        fx.Lifecycle
	Actor     *Actor
	Requester *Requester
	Shutdown  *shutdown.Shutdown `name:"dht_shutdown"`
}

// registerLifecycle 注册 Actor 生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			input.Actor.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			input.Actor.Discard()
			input.Shutdown.Trigger()
			select {
			case <-input.Actor.Done():
			case <-ctx.Done():
				return ctx.Err()
			}
			input.Requester.Close()
			logger.Info("DHT Actor 已停止")
			return nil
		},
	})
}
