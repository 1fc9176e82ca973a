package outbound

import (
	"context"
	"fmt"

	dhtpb "github.com/dep2p/go-dep2p-dht/pkg/lib/proto/dht"
	"github.com/dep2p/go-dep2p-dht/pkg/types"
)

// Broadcaster DHT Actor 依赖的出站发送接口
//
// 返回 nil 仅表示出站层已接收请求，不代表已投递。
type Broadcaster interface {
	SendDHTMessage(
		ctx context.Context,
		strategy BroadcastStrategy,
		destination types.NodeDestination,
		encryption OutboundEncryption,
		msg dhtpb.Message,
	) error
}

// Requester 基于通道的 Broadcaster 实现
//
// 序列化消息后放入出站队列，由 Sink 或真实传输层消费。
type Requester struct {
	ch chan<- *SendMessageRequest
}

var _ Broadcaster = (*Requester)(nil)

// NewQueue 创建容量为 size 的出站队列
func NewQueue(size int) chan *SendMessageRequest {
	if size < 1 {
		size = 1
	}
	return make(chan *SendMessageRequest, size)
}

// NewRequester 创建出站请求器
func NewRequester(ch chan<- *SendMessageRequest) *Requester {
	return &Requester{ch: ch}
}

// SendDHTMessage 实现 Broadcaster
//
// 队列满时阻塞直到 ctx 结束，此时返回包装了 ctx 错误的 ErrSendTimeout。
func (r *Requester) SendDHTMessage(
	ctx context.Context,
	strategy BroadcastStrategy,
	destination types.NodeDestination,
	encryption OutboundEncryption,
	msg dhtpb.Message,
) error {
	if strategy == nil {
		return ErrNilStrategy
	}
	if msg == nil {
		return ErrNilMessage
	}

	body, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMarshal, err)
	}

	req := &SendMessageRequest{
		Strategy:    strategy,
		Destination: destination,
		Encryption:  encryption,
		MessageType: msg.MessageType(),
		Body:        body,
	}

	select {
	case r.ch <- req:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrSendTimeout, ctx.Err())
	}
}
