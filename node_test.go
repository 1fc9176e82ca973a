package dep2pdht

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-dht/config"
	"github.com/dep2p/go-dep2p-dht/internal/dht"
	"github.com/dep2p/go-dep2p-dht/internal/dht/outbound"
	dhtpb "github.com/dep2p/go-dep2p-dht/pkg/lib/proto/dht"
	"github.com/dep2p/go-dep2p-dht/pkg/types"
)

// collector 记录出站请求
type collector struct {
	mu   sync.Mutex
	reqs []*outbound.SendMessageRequest
}

func (c *collector) handle(_ context.Context, req *outbound.SendMessageRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
}

func (c *collector) types() []dhtpb.MessageType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]dhtpb.MessageType, 0, len(c.reqs))
	for _, r := range c.reqs {
		out = append(out, r.MessageType)
	}
	return out
}

// ============================================================================
// 生命周期测试
// ============================================================================

// TestNode_Lifecycle 测试节点启动、请求与停止
func TestNode_Lifecycle(t *testing.T) {
	c := &collector{}
	node, err := New(
		WithPublicAddrs("/ip4/127.0.0.1/tcp/18141"),
		WithOutboundHandler(c.handle),
	)
	require.NoError(t, err)
	defer node.Close()

	assert.Equal(t, StateIdle, node.State())
	assert.False(t, node.NodeID().IsEmpty())

	ctx := context.Background()
	require.NoError(t, node.Start(ctx))
	assert.Equal(t, StateRunning, node.State())
	assert.ErrorIs(t, node.Start(ctx), ErrAlreadyStarted)

	// 启动时自动发送 Join 与存储消息请求
	require.Eventually(t, func() bool { return len(c.types()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []dhtpb.MessageType{dhtpb.MessageTypeJoin, dhtpb.MessageTypeSafRequestMessages}, c.types())

	r := node.Requester()
	exists, err := r.InsertMessageSignature(ctx, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = r.InsertMessageSignature(ctx, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, r.SendDiscover(ctx, types.PublicKey{7}, nil, types.DestinationUnknown()))
	require.Eventually(t, func() bool { return len(c.types()) == 3 }, 2*time.Second, 5*time.Millisecond)
	r.Close()

	require.NoError(t, node.Stop(ctx))
	assert.Equal(t, StateStopped, node.State())

	select {
	case <-node.Done():
	default:
		t.Fatal("actor still running")
	}
	assert.ErrorIs(t, node.Start(ctx), ErrNodeClosed)
	_, err = node.Requester().InsertMessageSignature(ctx, []byte{1})
	assert.ErrorIs(t, err, dht.ErrChannelDisconnected)
}

// TestNode_StopBeforeStart 测试未启动时停止
func TestNode_StopBeforeStart(t *testing.T) {
	node, err := New(WithAutoJoin(false))
	require.NoError(t, err)

	assert.ErrorIs(t, node.Stop(context.Background()), ErrNotStarted)
	require.NoError(t, node.Close())
	require.NoError(t, node.Close())
	assert.ErrorIs(t, node.Stop(context.Background()), ErrNodeClosed)
}

// TestNode_CloseWithoutStart 测试未启动即关闭时请求句柄立即失败
func TestNode_CloseWithoutStart(t *testing.T) {
	node, err := New(WithAutoJoin(false))
	require.NoError(t, err)

	r := node.Requester()
	defer r.Close()
	require.NoError(t, node.Close())

	select {
	case <-node.Done():
	default:
		t.Fatal("actor not released by Close")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = r.InsertMessageSignature(ctx, []byte{1})
	assert.ErrorIs(t, err, dht.ErrChannelDisconnected)
	assert.ErrorIs(t, r.TrySendJoin(), dht.ErrChannelDisconnected)
	assert.ErrorIs(t, r.SendJoin(ctx), dht.ErrChannelDisconnected)

	_, err = node.Requester().InsertMessageSignature(ctx, []byte{1})
	assert.ErrorIs(t, err, dht.ErrChannelDisconnected)
}

// TestNode_Options 测试选项覆盖配置
func TestNode_Options(t *testing.T) {
	base := config.NewConfig()
	base.DHT.NumNeighbouringNodes = 3
	keyFile := filepath.Join(t.TempDir(), "node.pem")

	node, err := New(
		WithConfig(base),
		WithAutoJoin(false),
		WithAutoStoredMessageRequest(false),
		WithIdentityKeyFile(keyFile),
	)
	require.NoError(t, err)
	defer node.Close()

	cfg := node.Config()
	assert.Equal(t, 3, cfg.DHT.NumNeighbouringNodes)
	assert.False(t, cfg.DHT.EnableAutoJoin)
	assert.False(t, cfg.DHT.EnableAutoStoredMessageRequest)
	assert.Equal(t, keyFile, cfg.Identity.KeyFile)
	assert.True(t, base.DHT.EnableAutoJoin, "WithConfig 不修改调用方的配置")

	// 同一密钥文件得到同一身份
	again, err := New(WithIdentityKeyFile(keyFile))
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, node.NodeID(), again.NodeID())
}

// TestNode_InvalidConfig 测试非法配置
func TestNode_InvalidConfig(t *testing.T) {
	_, err := New(WithConfig(nil))
	assert.Error(t, err)

	_, err = New(WithPublicAddrs("not-a-multiaddr"))
	assert.Error(t, err)

	_, err = New(WithMetricsAddr("no-port"))
	assert.Error(t, err)
}

// TestNodeState_String 测试状态字符串
func TestNodeState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "unknown", NodeState(42).String())
}
