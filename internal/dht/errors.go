package dht

import "errors"

// 预定义错误
var (
	// ErrChannelDisconnected 请求队列不可用（Actor 已退出或句柄已关闭）
	ErrChannelDisconnected = errors.New("dht: request channel disconnected")

	// ErrSendBufferFull 请求队列已满（仅 TrySend* 返回）
	ErrSendBufferFull = errors.New("dht: request buffer full")

	// ErrReplyCanceled Actor 未应答即退出
	ErrReplyCanceled = errors.New("dht: reply canceled")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("dht: invalid config")
)
