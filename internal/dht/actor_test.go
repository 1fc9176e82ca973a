package dht

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-dep2p-dht/internal/core/identity"
	"github.com/dep2p/go-dep2p-dht/internal/core/metrics"
	"github.com/dep2p/go-dep2p-dht/internal/core/shutdown"
	"github.com/dep2p/go-dep2p-dht/internal/dht/outbound"
	dhtpb "github.com/dep2p/go-dep2p-dht/pkg/lib/proto/dht"
	"github.com/dep2p/go-dep2p-dht/pkg/types"
)

const waitTimeout = 2 * time.Second

// ============================================================================
// 测试辅助
// ============================================================================

type sentMessage struct {
	strategy    outbound.BroadcastStrategy
	destination types.NodeDestination
	encryption  outbound.OutboundEncryption
	msg         dhtpb.Message
}

// recordingBroadcaster 记录所有广播，err 非空时返回该错误
type recordingBroadcaster struct {
	sent chan sentMessage
	err  error
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{sent: make(chan sentMessage, 64)}
}

func (b *recordingBroadcaster) SendDHTMessage(
	_ context.Context,
	strategy outbound.BroadcastStrategy,
	destination types.NodeDestination,
	encryption outbound.OutboundEncryption,
	msg dhtpb.Message,
) error {
	b.sent <- sentMessage{strategy, destination, encryption, msg}
	return b.err
}

func (b *recordingBroadcaster) next(t *testing.T) sentMessage {
	t.Helper()
	select {
	case m := <-b.sent:
		return m
	case <-time.After(waitTimeout):
		t.Fatal("no broadcast observed")
		return sentMessage{}
	}
}

func (b *recordingBroadcaster) requireNone(t *testing.T) {
	t.Helper()
	select {
	case m := <-b.sent:
		t.Fatalf("unexpected broadcast: %s", m.msg.MessageType())
	default:
	}
}

type harness struct {
	id        *identity.NodeIdentity
	actor     *Actor
	requester *Requester
	shutdown  *shutdown.Shutdown
}

func manualConfig() Config {
	cfg := DefaultConfig()
	cfg.EnableAutoJoin = false
	cfg.EnableAutoStoredMessageRequest = false
	return cfg
}

func newHarness(t *testing.T, cfg Config, b outbound.Broadcaster, opts ...ActorOption) *harness {
	t.Helper()
	id := testIdentity(t)
	requester, receiver := NewRequestQueue(cfg.RequestBufferSize)
	sd := shutdown.New()

	actor, err := NewActor(cfg, id, b, receiver, sd.ToSignal(), opts...)
	require.NoError(t, err)

	return &harness{id: id, actor: actor, requester: requester, shutdown: sd}
}

func startHarness(t *testing.T, cfg Config, b outbound.Broadcaster, opts ...ActorOption) *harness {
	t.Helper()
	h := newHarness(t, cfg, b, opts...)
	go h.actor.Run()
	t.Cleanup(func() {
		h.shutdown.Trigger()
		select {
		case <-h.actor.Done():
		case <-time.After(waitTimeout):
			t.Error("actor did not stop")
		}
	})
	return h
}

func waitStopped(t *testing.T, a *Actor) {
	t.Helper()
	select {
	case <-a.Done():
	case <-time.After(waitTimeout):
		t.Fatal("actor did not stop")
	}
}

// ============================================================================
// 启动行为
// ============================================================================

// TestActor_AutoMessages 测试启动时先发 Join 再请求存储消息
func TestActor_AutoMessages(t *testing.T) {
	b := newRecordingBroadcaster()
	cfg := DefaultConfig()
	h := startHarness(t, cfg, b)

	want := outbound.Closest{NodeID: h.id.NodeID(), N: cfg.NumNeighbouringNodes}

	first := b.next(t)
	assert.Equal(t, dhtpb.MessageTypeJoin, first.msg.MessageType())
	assert.Equal(t, want, first.strategy)
	assert.Equal(t, outbound.EncryptionNone, first.encryption.Kind())

	second := b.next(t)
	assert.Equal(t, dhtpb.MessageTypeSafRequestMessages, second.msg.MessageType())
	assert.Equal(t, want, second.strategy)
	assert.Equal(t, outbound.EncryptionForDestination, second.encryption.Kind())
}

// TestActor_StartupFailureDoesNotAbort 测试启动广播失败只记录日志
func TestActor_StartupFailureDoesNotAbort(t *testing.T) {
	b := newRecordingBroadcaster()
	b.err = errors.New("transport down")
	h := startHarness(t, DefaultConfig(), b)

	b.next(t)
	b.next(t)

	exists, err := h.requester.InsertMessageSignature(context.Background(), []byte("sig"))
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestActor_OutboundTimeout 测试出站队列阻塞时按超时放弃而不卡住 Actor
func TestActor_OutboundTimeout(t *testing.T) {
	ch := outbound.NewQueue(1)
	cfg := DefaultConfig()
	cfg.OutboundTimeout = 20 * time.Millisecond
	h := startHarness(t, cfg, outbound.NewRequester(ch))

	// Join 占满队列，存储消息请求超时
	exists, err := h.requester.InsertMessageSignature(context.Background(), []byte("sig"))
	require.NoError(t, err)
	assert.False(t, exists)

	req := <-ch
	assert.Equal(t, dhtpb.MessageTypeJoin, req.MessageType)
	select {
	case req := <-ch:
		t.Fatalf("unexpected request %s", req)
	default:
	}
}

// TestActor_RunTwicePanics 测试重复 Run
func TestActor_RunTwicePanics(t *testing.T) {
	h := startHarness(t, manualConfig(), newRecordingBroadcaster())

	// 确保第一次 Run 已进入循环
	_, err := h.requester.InsertMessageSignature(context.Background(), nil)
	require.NoError(t, err)

	assert.Panics(t, func() { h.actor.Run() })
}

// TestActor_DiscardWithoutRun 测试未运行的 Actor 被丢弃后释放生产者
func TestActor_DiscardWithoutRun(t *testing.T) {
	h := newHarness(t, manualConfig(), newRecordingBroadcaster())

	require.True(t, h.actor.Discard())
	waitStopped(t, h.actor)

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	_, err := h.requester.InsertMessageSignature(ctx, []byte{1})
	assert.ErrorIs(t, err, ErrChannelDisconnected)
	assert.ErrorIs(t, h.requester.TrySendJoin(), ErrChannelDisconnected)

	assert.False(t, h.actor.Discard())
	assert.Panics(t, func() { h.actor.Run() })
}

// TestActor_DiscardAfterStart 测试已运行的 Actor 不受 Discard 影响
func TestActor_DiscardAfterStart(t *testing.T) {
	h := newHarness(t, manualConfig(), newRecordingBroadcaster())
	h.actor.Start()
	defer func() {
		h.shutdown.Trigger()
		waitStopped(t, h.actor)
	}()

	assert.False(t, h.actor.Discard())

	exists, err := h.requester.InsertMessageSignature(context.Background(), []byte{1})
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestNewActor_InvalidConfig 测试非法配置
func TestNewActor_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SignatureCacheCapacity = 0
	_, recv := NewRequestQueue(1)

	_, err := NewActor(cfg, testIdentity(t), newRecordingBroadcaster(), recv, shutdown.New().ToSignal())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// ============================================================================
// 请求处理
// ============================================================================

// TestActor_SendJoin 测试手动 Join
func TestActor_SendJoin(t *testing.T) {
	b := newRecordingBroadcaster()
	cfg := manualConfig()
	h := startHarness(t, cfg, b)

	require.NoError(t, h.requester.SendJoin(context.Background()))

	m := b.next(t)
	assert.Equal(t, dhtpb.MessageTypeJoin, m.msg.MessageType())
	assert.Equal(t, outbound.Closest{NodeID: h.id.NodeID(), N: cfg.NumNeighbouringNodes}, m.strategy)

	// 插入签名的应答保证之前的请求已处理完
	_, err := h.requester.InsertMessageSignature(context.Background(), []byte("sync"))
	require.NoError(t, err)
	b.requireNone(t)
}

// TestActor_SendDiscover 测试 Discover 默认朝向本节点并加密给目标公钥
func TestActor_SendDiscover(t *testing.T) {
	b := newRecordingBroadcaster()
	cfg := manualConfig()
	h := startHarness(t, cfg, b)

	pk := types.PublicKey{0xAB}
	require.NoError(t, h.requester.SendDiscover(context.Background(), pk, nil, types.DestinationUnknown()))

	m := b.next(t)
	assert.Equal(t, dhtpb.MessageTypeDiscover, m.msg.MessageType())
	assert.Equal(t, outbound.Closest{NodeID: h.id.NodeID(), N: cfg.NumNeighbouringNodes}, m.strategy)
	assert.True(t, m.destination.IsUnknown())
	got, ok := m.encryption.PublicKey()
	require.True(t, ok)
	assert.Equal(t, pk, got)
}

// TestActor_SendDiscoverExplicitNodeID 测试显式 NodeID 覆盖目的地
func TestActor_SendDiscoverExplicitNodeID(t *testing.T) {
	b := newRecordingBroadcaster()
	h := startHarness(t, manualConfig(), b)

	explicit := types.NodeID{0x10}
	dest := types.DestinationNodeID(types.NodeID{0x20})
	require.NoError(t, h.requester.SendDiscover(context.Background(), types.PublicKey{1}, &explicit, dest))

	m := b.next(t)
	closest, ok := m.strategy.(outbound.Closest)
	require.True(t, ok)
	assert.Equal(t, explicit, closest.NodeID)
	assert.Equal(t, dest, m.destination)
}

// TestActor_InsertMessageSignature 测试通过句柄的缓存往返
func TestActor_InsertMessageSignature(t *testing.T) {
	h := startHarness(t, manualConfig(), newRecordingBroadcaster())
	ctx := context.Background()

	exists, err := h.requester.InsertMessageSignature(ctx, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = h.requester.InsertMessageSignature(ctx, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = h.requester.InsertMessageSignature(ctx, []byte{})
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestActor_SignatureTTL 测试 Actor 使用注入的时钟计算过期
func TestActor_SignatureTTL(t *testing.T) {
	clk := clock.NewMock()
	cfg := manualConfig()
	cfg.SignatureCacheTTL = time.Minute
	h := startHarness(t, cfg, newRecordingBroadcaster(), WithClock(clk))
	ctx := context.Background()

	exists, err := h.requester.InsertMessageSignature(ctx, []byte("sig"))
	require.NoError(t, err)
	require.False(t, exists)

	clk.Add(time.Minute)

	exists, err = h.requester.InsertMessageSignature(ctx, []byte("sig"))
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestActor_BroadcastFailureLogged 测试广播失败不影响后续请求
func TestActor_BroadcastFailureLogged(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := outbound.NewMockBroadcaster(ctrl)

	calls := make(chan dhtpb.MessageType, 2)
	gomock.InOrder(
		mock.EXPECT().
			SendDHTMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ outbound.BroadcastStrategy, _ types.NodeDestination, _ outbound.OutboundEncryption, msg dhtpb.Message) error {
				calls <- msg.MessageType()
				return errors.New("no peers")
			}),
		mock.EXPECT().
			SendDHTMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ outbound.BroadcastStrategy, _ types.NodeDestination, _ outbound.OutboundEncryption, msg dhtpb.Message) error {
				calls <- msg.MessageType()
				return nil
			}),
	)

	h := startHarness(t, manualConfig(), mock)
	require.NoError(t, h.requester.SendJoin(context.Background()))
	require.NoError(t, h.requester.SendDiscover(context.Background(), types.PublicKey{1}, nil, types.DestinationUnknown()))

	exists, err := h.requester.InsertMessageSignature(context.Background(), []byte("after"))
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Equal(t, dhtpb.MessageTypeJoin, <-calls)
	assert.Equal(t, dhtpb.MessageTypeDiscover, <-calls)
}

// TestActor_Metrics 测试指标记录
func TestActor_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewDHTMetrics(reg)
	require.NoError(t, err)

	b := newRecordingBroadcaster()
	h := startHarness(t, manualConfig(), b, WithMetrics(m))
	ctx := context.Background()

	require.NoError(t, h.requester.SendJoin(ctx))
	for _, sig := range [][]byte{{1}, {1}, {2}} {
		_, err := h.requester.InsertMessageSignature(ctx, sig)
		require.NoError(t, err)
	}

	expected := `
# HELP dht_signature_cache_inserts_total Signature cache inserts by result
# TYPE dht_signature_cache_inserts_total counter
dht_signature_cache_inserts_total{result="duplicate"} 1
dht_signature_cache_inserts_total{result="new"} 2
# HELP dht_signature_cache_entries Current number of entries held by the signature cache
# TYPE dht_signature_cache_entries gauge
dht_signature_cache_entries 2
# HELP dht_broadcasts_total Total number of broadcasts accepted by the outbound layer
# TYPE dht_broadcasts_total counter
dht_broadcasts_total{type="join"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"dht_signature_cache_inserts_total", "dht_signature_cache_entries", "dht_broadcasts_total"))
}

// ============================================================================
// 并发
// ============================================================================

// TestActor_ConcurrentProducers 测试多个句柄并发插入时结果全序
func TestActor_ConcurrentProducers(t *testing.T) {
	h := startHarness(t, manualConfig(), newRecordingBroadcaster())

	const producers = 16
	var firstSeen atomic.Int32

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < producers; i++ {
		i := i
		r := h.requester.Clone()
		g.Go(func() error {
			defer r.Close()

			own := []byte(fmt.Sprintf("own-%d", i))
			exists, err := r.InsertMessageSignature(ctx, own)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("producer %d: fresh signature reported as present", i)
			}
			exists, err = r.InsertMessageSignature(ctx, own)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("producer %d: repeated signature reported as new", i)
			}

			shared, err := r.InsertMessageSignature(ctx, []byte("shared"))
			if err != nil {
				return err
			}
			if !shared {
				firstSeen.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), firstSeen.Load())
}

// ============================================================================
// 关闭
// ============================================================================

// TestActor_Shutdown 测试关闭信号后不再处理新请求
func TestActor_Shutdown(t *testing.T) {
	b := newRecordingBroadcaster()
	h := startHarness(t, manualConfig(), b)

	_, err := h.requester.InsertMessageSignature(context.Background(), []byte("before"))
	require.NoError(t, err)

	h.shutdown.Trigger()
	waitStopped(t, h.actor)

	assert.ErrorIs(t, h.requester.SendJoin(context.Background()), ErrChannelDisconnected)
	assert.ErrorIs(t, h.requester.TrySendJoin(), ErrChannelDisconnected)
	_, err = h.requester.InsertMessageSignature(context.Background(), []byte("after"))
	assert.ErrorIs(t, err, ErrChannelDisconnected)
	b.requireNone(t)
}

// TestActor_QueuedRequestsDroppedOnShutdown 测试已入队但未处理的插入得到 ErrReplyCanceled
func TestActor_QueuedRequestsDroppedOnShutdown(t *testing.T) {
	cfg := manualConfig()
	b := newRecordingBroadcaster()
	h := newHarness(t, cfg, b)

	require.NoError(t, h.requester.TrySendJoin())

	errCh := make(chan error, 1)
	go func() {
		_, err := h.requester.InsertMessageSignature(context.Background(), []byte("pending"))
		errCh <- err
	}()
	require.Eventually(t, func() bool {
		return len(h.actor.requests.Requests()) == 2
	}, waitTimeout, time.Millisecond)

	h.shutdown.Trigger()
	h.actor.Run()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrReplyCanceled)
	case <-time.After(waitTimeout):
		t.Fatal("pending insert not released")
	}
	b.requireNone(t)
}

// TestActor_StopsWhenProducersClosed 测试所有句柄关闭后排空队列并退出
func TestActor_StopsWhenProducersClosed(t *testing.T) {
	b := newRecordingBroadcaster()
	h := newHarness(t, manualConfig(), b)

	require.NoError(t, h.requester.TrySendJoin())
	require.NoError(t, h.requester.TrySendDiscover(types.PublicKey{1}, nil, types.DestinationUnknown()))
	h.requester.Close()

	go h.actor.Run()
	waitStopped(t, h.actor)

	assert.Equal(t, dhtpb.MessageTypeJoin, b.next(t).msg.MessageType())
	assert.Equal(t, dhtpb.MessageTypeDiscover, b.next(t).msg.MessageType())
	b.requireNone(t)
}
