package outbound

import (
	"context"
	"sync/atomic"

	"github.com/dep2p/go-dep2p-dht/pkg/lib/log"
)

var logger = log.Logger("dht/outbound")

// HandlerFunc 处理一条出站请求
type HandlerFunc func(ctx context.Context, req *SendMessageRequest)

// Sink 进程内出站队列消费者
//
// 没有真实传输层时用于排空出站队列：每条请求记录 debug 日志并计数，
// 可选地交给 HandlerFunc 进一步处理。
type Sink struct {
	ch      <-chan *SendMessageRequest
	handler HandlerFunc
	handled atomic.Uint64
}

// NewSink 创建消费者，handler 可为 nil
func NewSink(ch <-chan *SendMessageRequest, handler HandlerFunc) *Sink {
	return &Sink{ch: ch, handler: handler}
}

// Run 消费出站队列直到 ctx 结束或队列关闭
func (s *Sink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-s.ch:
			if !ok {
				return
			}
			s.handled.Add(1)
			logger.Debug("出站请求",
				"type", req.MessageType.String(),
				"strategy", req.Strategy.String(),
				"destination", req.Destination.String(),
				"encryption", req.Encryption.String(),
				"size", len(req.Body))
			if s.handler != nil {
				s.handler(ctx, req)
			}
		}
	}
}

// Handled 返回已处理的请求数
func (s *Sink) Handled() uint64 {
	return s.handled.Load()
}
