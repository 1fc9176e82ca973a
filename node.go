package dep2pdht

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-dht/config"
	"github.com/dep2p/go-dep2p-dht/internal/core/identity"
	"github.com/dep2p/go-dep2p-dht/internal/dht"
	"github.com/dep2p/go-dep2p-dht/pkg/lib/log"
	"github.com/dep2p/go-dep2p-dht/pkg/types"
)

var logger = log.Logger("dep2pdht")

// ════════════════════════════════════════════════════════════════════════════
//                              节点状态
// ════════════════════════════════════════════════════════════════════════════

// NodeState 节点状态
type NodeState int

const (
	// StateIdle 空闲状态（已创建，未启动）
	StateIdle NodeState = iota

	// StateStarting 启动中（Fx App 启动中）
	StateStarting

	// StateRunning 运行中
	StateRunning

	// StateStopping 停止中
	StateStopping

	// StateStopped 已停止（终态）
	StateStopped
)

// String 返回状态的字符串表示
func (s NodeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// startTimeout Fx App 启动超时
const startTimeout = 30 * time.Second

// closeTimeout Close 时停止 Fx App 的超时
const closeTimeout = 10 * time.Second

// ════════════════════════════════════════════════════════════════════════════
//                              Node
// ════════════════════════════════════════════════════════════════════════════

// Node DHT 控制面节点
//
// 门面：持有 Fx App 以及从中取出的身份、Actor 和请求句柄。
type Node struct {
	mu sync.Mutex

	app    *fx.App
	config *config.Config

	identity  *identity.NodeIdentity
	requester *dht.Requester
	actor     *dht.Actor

	state  NodeState
	closed bool
}

// New 创建节点（不启动）
func New(opts ...Option) (*Node, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	cfg := o.config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	o.applyTo(cfg)

	node := &Node{config: cfg, state: StateIdle}
	app, err := buildFxApp(cfg, o, node)
	if err != nil {
		return nil, err
	}
	node.app = app

	logger.Debug("节点已创建", "nodeID", node.identity.NodeID().ShortString())
	return node, nil
}

// Start 启动节点
//
// 启动所有模块的 OnStart：指标服务、出站 Sink、DHT Actor。
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed || n.state == StateStopped {
		return ErrNodeClosed
	}
	if n.state != StateIdle {
		return ErrAlreadyStarted
	}

	n.state = StateStarting
	logger.Info("正在启动节点", "nodeID", n.identity.NodeID().ShortString())

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := n.app.Start(startCtx); err != nil {
		n.state = StateStopped
		n.discardActor()
		logger.Error("节点启动失败", "error", err)
		return fmt.Errorf("start fx app: %w", err)
	}

	n.state = StateRunning
	logger.Info("节点已启动")
	return nil
}

// Stop 停止节点
//
// 停止后不可重新启动。
func (n *Node) Stop(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrNodeClosed
	}
	if n.state != StateRunning {
		return ErrNotStarted
	}
	return n.stopLocked(ctx)
}

func (n *Node) stopLocked(ctx context.Context) error {
	n.state = StateStopping
	logger.Info("正在停止节点")

	err := n.app.Stop(ctx)
	n.state = StateStopped
	if err != nil {
		logger.Error("停止节点失败", "error", err)
		return fmt.Errorf("stop fx app: %w", err)
	}
	logger.Info("节点已停止")
	return nil
}

// Close 关闭节点并释放所有资源，重复调用无副作用
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	if n.state == StateRunning {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		return n.stopLocked(ctx)
	}
	n.state = StateStopped
	n.discardActor()
	return nil
}

// discardActor 释放从未运行的 Actor，使已发出的请求句柄返回 ErrChannelDisconnected
func (n *Node) discardActor() {
	if n.actor.Discard() {
		n.requester.Close()
	}
}

// Requester 返回新的请求句柄
//
// 每次调用都复制一个独立句柄，用完后应调用其 Close。
func (n *Node) Requester() *dht.Requester {
	return n.requester.Clone()
}

// NodeID 返回本节点 ID
func (n *Node) NodeID() types.NodeID {
	return n.identity.NodeID()
}

// Identity 返回本节点身份
func (n *Node) Identity() *identity.NodeIdentity {
	return n.identity
}

// Config 返回节点配置的副本
func (n *Node) Config() *config.Config {
	return config.CloneConfig(n.config)
}

// State 返回当前状态
func (n *Node) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Done 在 DHT Actor 停止后关闭
func (n *Node) Done() <-chan struct{} {
	return n.actor.Done()
}
