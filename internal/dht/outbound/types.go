// Package outbound 定义 DHT 控制面与出站层之间的协作接口
//
// DHT Actor 只决定"发给谁、是否加密、发什么"，实际的签名、加密、
// 节点距离排序与传输由出站层完成。本包提供：
//   - BroadcastStrategy：目标选择指令（Closest/Flood/Direct）
//   - OutboundEncryption：加密策略
//   - Broadcaster：Actor 依赖的发送接口
//   - Requester：基于有界通道的 Broadcaster 实现
//   - Sink：进程内的出站队列消费者（无真实传输时使用）
package outbound

import (
	"fmt"

	dhtpb "github.com/dep2p/go-dep2p-dht/pkg/lib/proto/dht"
	"github.com/dep2p/go-dep2p-dht/pkg/types"
)

// ============================================================================
//                              BroadcastStrategy
// ============================================================================

// BroadcastStrategy 广播目标选择指令
//
// 封闭接口，仅本包内的类型实现。
type BroadcastStrategy interface {
	fmt.Stringer
	isBroadcastStrategy()
}

// Closest 发送给距离 NodeID 最近的 N 个节点
//
// 距离由出站层计算，NodeID 只是引导提示，不是投递地址。
type Closest struct {
	NodeID        types.NodeID
	N             int
	ExcludedPeers []types.PublicKey
}

func (Closest) isBroadcastStrategy() {}

// String 实现 fmt.Stringer
func (s Closest) String() string {
	return fmt.Sprintf("Closest(%d, %s, excluded=%d)", s.N, s.NodeID.ShortString(), len(s.ExcludedPeers))
}

// Flood 发送给所有已连接节点
type Flood struct{}

func (Flood) isBroadcastStrategy() {}

// String 实现 fmt.Stringer
func (Flood) String() string { return "Flood" }

// DirectNodeID 直接发送给指定 NodeID
type DirectNodeID struct {
	NodeID types.NodeID
}

func (DirectNodeID) isBroadcastStrategy() {}

// String 实现 fmt.Stringer
func (s DirectNodeID) String() string {
	return "DirectNodeID(" + s.NodeID.ShortString() + ")"
}

// DirectPublicKey 直接发送给指定公钥
type DirectPublicKey struct {
	PublicKey types.PublicKey
}

func (DirectPublicKey) isBroadcastStrategy() {}

// String 实现 fmt.Stringer
func (s DirectPublicKey) String() string {
	return "DirectPublicKey(" + s.PublicKey.String() + ")"
}

// ============================================================================
//                              OutboundEncryption
// ============================================================================

// EncryptionKind 加密策略类型
type EncryptionKind int

const (
	// EncryptionNone 明文
	EncryptionNone EncryptionKind = iota
	// EncryptionFor 加密给指定公钥
	EncryptionFor
	// EncryptionForDestination 加密给最终目的地（由出站层解析）
	EncryptionForDestination
)

// OutboundEncryption 出站加密策略
//
// 零值为 EncryptNone。
type OutboundEncryption struct {
	kind      EncryptionKind
	publicKey types.PublicKey
}

// EncryptNone 不加密
func EncryptNone() OutboundEncryption {
	return OutboundEncryption{kind: EncryptionNone}
}

// EncryptFor 加密给 pk
func EncryptFor(pk types.PublicKey) OutboundEncryption {
	return OutboundEncryption{kind: EncryptionFor, publicKey: pk}
}

// EncryptForDestination 加密给目的地
func EncryptForDestination() OutboundEncryption {
	return OutboundEncryption{kind: EncryptionForDestination}
}

// Kind 返回策略类型
func (e OutboundEncryption) Kind() EncryptionKind {
	return e.kind
}

// PublicKey 返回 EncryptFor 的目标公钥
func (e OutboundEncryption) PublicKey() (types.PublicKey, bool) {
	if e.kind != EncryptionFor {
		return types.EmptyPublicKey, false
	}
	return e.publicKey, true
}

// String 实现 fmt.Stringer
func (e OutboundEncryption) String() string {
	switch e.kind {
	case EncryptionFor:
		return "EncryptFor(" + e.publicKey.String() + ")"
	case EncryptionForDestination:
		return "EncryptForDestination"
	default:
		return "None"
	}
}

// ============================================================================
//                              SendMessageRequest
// ============================================================================

// SendMessageRequest 交给出站层的一条发送请求
type SendMessageRequest struct {
	Strategy    BroadcastStrategy
	Destination types.NodeDestination
	Encryption  OutboundEncryption
	MessageType dhtpb.MessageType
	Body        []byte
}

// String 实现 fmt.Stringer
func (r *SendMessageRequest) String() string {
	return fmt.Sprintf("SendMessageRequest{%s, %s, dest=%s, enc=%s, %d bytes}",
		r.MessageType, r.Strategy, r.Destination, r.Encryption, len(r.Body))
}
