package dht

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-dep2p-dht/pkg/types"
)

// ============================================================================
//                              请求类型
// ============================================================================

// Request Actor 接受的请求
//
// 封闭联合类型：SendJoinRequest、SendDiscoverRequest、
// SignatureCacheInsertRequest。只有携带 Reply 的请求必须应答。
type Request interface {
	fmt.Stringer
	isRequest()
}

// SendJoinRequest 广播 Join（无应答）
type SendJoinRequest struct{}

func (SendJoinRequest) isRequest() {}

// String 实现 fmt.Stringer
func (SendJoinRequest) String() string { return "SendJoin" }

// SendDiscoverRequest 向目的地发送 Discover（无应答）
type SendDiscoverRequest struct {
	// DestPublicKey Discover 消息的加密目标
	DestPublicKey types.PublicKey
	// DestNodeID 显式指定的引导 NodeID，可为 nil
	DestNodeID *types.NodeID
	// Destination 逻辑目的地
	Destination types.NodeDestination
}

func (SendDiscoverRequest) isRequest() {}

// String 实现 fmt.Stringer
func (r SendDiscoverRequest) String() string {
	return fmt.Sprintf("SendDiscover(%s, %s)", r.DestPublicKey, r.Destination)
}

// SignatureCacheInsertRequest 插入签名并应答是否已存在
//
// Reply 必须有至少 1 的缓冲，Actor 以非阻塞方式写入。
type SignatureCacheInsertRequest struct {
	Signature []byte
	Reply     chan<- bool
}

func (SignatureCacheInsertRequest) isRequest() {}

// String 实现 fmt.Stringer
func (r SignatureCacheInsertRequest) String() string {
	return fmt.Sprintf("SignatureCacheInsert(%d bytes)", len(r.Signature))
}

// ============================================================================
//                              请求队列
// ============================================================================

// requestQueue 生产者句柄与 Actor 共享的队列状态
//
// 数据通道从不关闭：生产者全部 Close 后关闭 closed，Actor 退出后关闭 stopped。
type requestQueue struct {
	ch        chan Request
	producers atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once

	stopped  chan struct{}
	stopOnce sync.Once
}

// NewRequestQueue 创建容量为 size 的请求队列
//
// 返回一个生产者句柄和唯一的消费端。
func NewRequestQueue(size int) (*Requester, *RequestReceiver) {
	if size < 0 {
		size = 0
	}
	q := &requestQueue{
		ch:      make(chan Request, size),
		closed:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	q.producers.Store(1)
	return &Requester{q: q}, &RequestReceiver{q: q}
}

// RequestReceiver 请求队列的消费端，只由 Actor 持有
type RequestReceiver struct {
	q *requestQueue
}

// Requests 返回请求通道
func (r *RequestReceiver) Requests() <-chan Request {
	return r.q.ch
}

// Closed 在所有生产者句柄关闭后关闭
func (r *RequestReceiver) Closed() <-chan struct{} {
	return r.q.closed
}

// markStopped 标记消费端已退出，唤醒所有等待中的生产者
func (r *RequestReceiver) markStopped() {
	r.q.stopOnce.Do(func() {
		close(r.q.stopped)
	})
}

// ============================================================================
//                              Requester
// ============================================================================

// Requester DHT Actor 的请求句柄
//
// 可通过 Clone 复制给多个 goroutine 使用；每个句柄用完后调用 Close，
// 全部关闭后 Actor 排空剩余请求并退出。单个句柄可并发使用。
type Requester struct {
	q      *requestQueue
	closed atomic.Bool
}

// Clone 复制句柄
//
// 从已关闭的句柄或所有生产者都已关闭的队列复制，得到的句柄同样不可用。
func (r *Requester) Clone() *Requester {
	if r.closed.Load() {
		return closedRequester(r.q)
	}
	for {
		n := r.q.producers.Load()
		if n <= 0 {
			return closedRequester(r.q)
		}
		if r.q.producers.CompareAndSwap(n, n+1) {
			return &Requester{q: r.q}
		}
	}
}

func closedRequester(q *requestQueue) *Requester {
	c := &Requester{q: q}
	c.closed.Store(true)
	return c
}

// Close 释放句柄，重复调用无副作用
func (r *Requester) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	if r.q.producers.Add(-1) == 0 {
		r.q.closeOnce.Do(func() {
			close(r.q.closed)
		})
	}
}

// SendJoin 请求 Actor 广播 Join
//
// 请求进入队列即返回，不等待广播完成。
func (r *Requester) SendJoin(ctx context.Context) error {
	return r.send(ctx, SendJoinRequest{})
}

// SendDiscover 请求 Actor 发送 Discover
//
// destNodeID 可为 nil，此时由 destination 决定广播方向。
func (r *Requester) SendDiscover(ctx context.Context, destPublicKey types.PublicKey, destNodeID *types.NodeID, destination types.NodeDestination) error {
	return r.send(ctx, newDiscoverRequest(destPublicKey, destNodeID, destination))
}

// TrySendJoin 非阻塞版 SendJoin，队列满时返回 ErrSendBufferFull
func (r *Requester) TrySendJoin() error {
	return r.trySend(SendJoinRequest{})
}

// TrySendDiscover 非阻塞版 SendDiscover
func (r *Requester) TrySendDiscover(destPublicKey types.PublicKey, destNodeID *types.NodeID, destination types.NodeDestination) error {
	return r.trySend(newDiscoverRequest(destPublicKey, destNodeID, destination))
}

// InsertMessageSignature 插入消息签名，返回插入前是否已存在
//
// 阻塞直到 Actor 应答。Actor 在应答前退出时返回 ErrReplyCanceled。
func (r *Requester) InsertMessageSignature(ctx context.Context, signature []byte) (bool, error) {
	reply := make(chan bool, 1)
	req := SignatureCacheInsertRequest{
		Signature: append([]byte(nil), signature...),
		Reply:     reply,
	}
	if err := r.send(ctx, req); err != nil {
		return false, err
	}

	select {
	case v := <-reply:
		return v, nil
	case <-r.q.stopped:
		// Actor 在关闭 stopped 之前完成应答
		select {
		case v := <-reply:
			return v, nil
		default:
			return false, ErrReplyCanceled
		}
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func newDiscoverRequest(pk types.PublicKey, nodeID *types.NodeID, dest types.NodeDestination) SendDiscoverRequest {
	req := SendDiscoverRequest{
		DestPublicKey: pk,
		Destination:   dest,
	}
	if nodeID != nil {
		id := *nodeID
		req.DestNodeID = &id
	}
	return req
}

func (r *Requester) usable() error {
	if r.closed.Load() {
		return ErrChannelDisconnected
	}
	select {
	case <-r.q.stopped:
		return ErrChannelDisconnected
	default:
		return nil
	}
}

func (r *Requester) send(ctx context.Context, req Request) error {
	if err := r.usable(); err != nil {
		return err
	}
	select {
	case r.q.ch <- req:
		return nil
	case <-r.q.stopped:
		return ErrChannelDisconnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Requester) trySend(req Request) error {
	if err := r.usable(); err != nil {
		return err
	}
	select {
	case r.q.ch <- req:
		return nil
	default:
		return ErrSendBufferFull
	}
}
