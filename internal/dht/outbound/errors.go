package outbound

import "errors"

// 预定义错误
var (
	// ErrSendTimeout 出站队列在期限内未接收请求
	ErrSendTimeout = errors.New("outbound: send timed out")

	// ErrMarshal 消息序列化失败
	ErrMarshal = errors.New("outbound: failed to marshal message")

	// ErrNilStrategy 未指定广播策略
	ErrNilStrategy = errors.New("outbound: broadcast strategy is nil")

	// ErrNilMessage 消息为空
	ErrNilMessage = errors.New("outbound: message is nil")
)
