package dht

import (
	"context"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-dep2p-dht/internal/core/metrics"
	"github.com/dep2p/go-dep2p-dht/internal/core/shutdown"
	"github.com/dep2p/go-dep2p-dht/internal/dht/outbound"
	"github.com/dep2p/go-dep2p-dht/pkg/lib/log"
)

var logger = log.Logger("dht/actor")

// ============================================================================
//                              Actor
// ============================================================================

// Actor DHT 控制面
//
// 单个 goroutine 独占签名缓存，串行处理请求队列，因此缓存无需加锁。
// 生命周期：Run 进入 Running，收到关闭信号或所有生产者关闭且队列
// 排空后进入 Stopped（终态）。
type Actor struct {
	cfg      Config
	identity NodeIdentity
	outbound outbound.Broadcaster
	requests *RequestReceiver
	signal   shutdown.Signal

	cache   *SignatureCache
	clock   clock.Clock
	metrics *metrics.DHTMetrics

	started atomic.Bool
	done    chan struct{}
}

// ActorOption Actor 可选参数
type ActorOption func(*Actor)

// WithClock 指定时钟（测试用 clock.NewMock()）
func WithClock(clk clock.Clock) ActorOption {
	return func(a *Actor) {
		a.clock = clk
	}
}

// WithMetrics 指定指标，nil 为空操作
func WithMetrics(m *metrics.DHTMetrics) ActorOption {
	return func(a *Actor) {
		a.metrics = m
	}
}

// NewActor 创建 Actor
func NewActor(
	cfg Config,
	identity NodeIdentity,
	broadcaster outbound.Broadcaster,
	requests *RequestReceiver,
	signal shutdown.Signal,
	opts ...ActorOption,
) (*Actor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Actor{
		cfg:      cfg,
		identity: identity,
		outbound: broadcaster,
		requests: requests,
		signal:   signal,
		clock:    clock.New(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	cache, err := NewSignatureCache(cfg.SignatureCacheCapacity, cfg.SignatureCacheTTL, a.clock)
	if err != nil {
		return nil, err
	}
	a.cache = cache
	return a, nil
}

// Done 在 Actor 停止后关闭
func (a *Actor) Done() <-chan struct{} {
	return a.done
}

// Run 执行启动动作并进入事件循环，阻塞直到停止
//
// Run、Start 与 Discard 合计只能调用一次，重复调用 panic。
func (a *Actor) Run() {
	a.claim()
	a.run()
}

// Start 在新 goroutine 中运行 Actor，返回前已占用运行权
func (a *Actor) Start() {
	a.claim()
	go a.run()
}

func (a *Actor) claim() {
	if !a.started.CompareAndSwap(false, true) {
		panic("dht: Actor.Run called more than once")
	}
}

func (a *Actor) run() {
	defer close(a.done)
	defer a.requests.markStopped()

	logger.Info("DHT Actor 启动",
		"nodeID", a.identity.NodeID().ShortString(),
		"autoJoin", a.cfg.EnableAutoJoin,
		"autoStoredMessages", a.cfg.EnableAutoStoredMessageRequest)

	if a.cfg.EnableAutoJoin {
		if err := a.send(buildJoin(a.identity, a.cfg)); err != nil {
			logger.Error("启动时发送 Join 失败", "error", err)
		}
	}
	if a.cfg.EnableAutoStoredMessageRequest {
		if err := a.send(buildStoredMessagesRequest(a.identity, a.cfg)); err != nil {
			logger.Error("启动时请求存储消息失败", "error", err)
		}
	}

	a.loop()
}

// Discard 在 Actor 从未运行时将其置为 Stopped
//
// 唤醒所有等待中的生产者并使其得到 ErrChannelDisconnected。
// 返回 false 表示 Actor 已经运行过，此时不做任何事。Discard 之后调用 Run 会 panic。
func (a *Actor) Discard() bool {
	if !a.started.CompareAndSwap(false, true) {
		return false
	}
	a.requests.markStopped()
	close(a.done)
	logger.Debug("DHT Actor 未运行即被丢弃")
	return true
}

// loop 事件循环
//
// 关闭信号优先于队列中的请求；生产者全部关闭时排空剩余请求后退出。
func (a *Actor) loop() {
	reqs := a.requests.Requests()
	closed := a.requests.Closed()

	for {
		// 有意偏向关闭信号：已触发时不再取队列中的请求
		if a.signal.IsTriggered() {
			logger.Info("DHT Actor 收到关闭信号，停止")
			return
		}

		select {
		case <-a.signal.Done():
			logger.Info("DHT Actor 收到关闭信号，停止")
			return

		case req := <-reqs:
			a.handleRequest(req)

		case <-closed:
			select {
			case req := <-reqs:
				a.handleRequest(req)
			default:
				logger.Info("DHT Actor 请求队列已关闭，停止")
				return
			}
		}
	}
}

// handleRequest 处理单个请求
func (a *Actor) handleRequest(req Request) {
	logger.Debug("DHT Actor 收到请求", "request", req.String())

	var err error
	switch r := req.(type) {
	case SendJoinRequest:
		a.metrics.RecordRequest(metrics.TypeJoin)
		err = a.send(buildJoin(a.identity, a.cfg))

	case SendDiscoverRequest:
		a.metrics.RecordRequest(metrics.TypeDiscover)
		err = a.send(buildDiscover(a.identity, a.cfg, r))

	case SignatureCacheInsertRequest:
		a.metrics.RecordRequest(metrics.TypeSignatureInsert)
		exists := a.cache.Insert(r.Signature)
		a.metrics.RecordSignatureInsert(exists, a.cache.Len())
		select {
		case r.Reply <- exists:
		default:
		}

	default:
		logger.Warn("未知的 DHT 请求类型", "request", req.String())
	}

	if err != nil {
		logger.Error("处理 DHT 请求失败", "request", req.String(), "error", err)
	}
}

// send 提交广播给出站层
//
// 超时上下文不受关闭信号影响，正在进行的广播不会被中断。
func (a *Actor) send(b broadcast) error {
	ctx := context.Background()
	if a.cfg.OutboundTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.OutboundTimeout)
		defer cancel()
	}

	err := a.outbound.SendDHTMessage(ctx, b.strategy, b.destination, b.encryption, b.msg)
	a.metrics.RecordBroadcast(b.kind, err)
	if err != nil {
		return err
	}
	logger.Debug("DHT 广播已提交",
		"type", b.msg.MessageType().String(),
		"strategy", b.strategy.String())
	return nil
}
