package outbound

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-dht/config"
)

// Module 出站层 Fx 模块
//
// 提供出站队列、Requester（作为 Broadcaster）以及排空队列的 Sink。
var Module = fx.Module("dht_outbound",
	fx.Provide(NewFromParams),
	fx.Invoke(registerLifecycle),
)

// Params 出站层依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Handler    HandlerFunc    `optional:"true"`
}

// Result 出站层导出结果
type Result struct {
	fx.Out

	Requester   *Requester
	Broadcaster Broadcaster
	Sink        *Sink
}

// NewFromParams 从参数创建出站层组件
func NewFromParams(p Params) Result {
	cfg := config.DefaultOutboundConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.Outbound
	}

	ch := NewQueue(cfg.BufferSize)
	r := NewRequester(ch)
	return Result{
		Requester:   r,
		Broadcaster: r,
		Sink:        NewSink(ch, p.Handler),
	}
}

// registerLifecycle 注册 Sink 生命周期
func registerLifecycle(lc fx.Lifecycle, sink *Sink) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				sink.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
			logger.Debug("出站 Sink 已停止", "handled", sink.Handled())
			return nil
		},
	})
}
