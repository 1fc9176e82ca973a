package types

import "fmt"

// ============================================================================
//                              NodeDestination - 逻辑目的地
// ============================================================================

// DestinationKind 目的地类型
type DestinationKind int

const (
	// DestinationKindUnknown 无特定目标，从本节点向外扩散
	DestinationKindUnknown DestinationKind = iota
	// DestinationKindPublicKey 以公钥标识的目标
	DestinationKindPublicKey
	// DestinationKindNodeID 以网络位置标识的目标
	DestinationKindNodeID
)

// String 返回目的地类型的字符串表示
func (k DestinationKind) String() string {
	switch k {
	case DestinationKindUnknown:
		return "unknown"
	case DestinationKindPublicKey:
		return "public_key"
	case DestinationKindNodeID:
		return "node_id"
	default:
		return "invalid"
	}
}

// NodeDestination 消息的逻辑目的地
//
// 纯值类型，只能通过构造函数创建：
//   - DestinationUnknown()
//   - DestinationPublicKey(pk)
//   - DestinationNodeID(id)
//
// 零值等价于 DestinationUnknown()。
type NodeDestination struct {
	kind      DestinationKind
	publicKey PublicKey
	nodeID    NodeID
}

// DestinationUnknown 返回未知目的地
func DestinationUnknown() NodeDestination {
	return NodeDestination{kind: DestinationKindUnknown}
}

// DestinationPublicKey 返回以公钥标识的目的地
func DestinationPublicKey(pk PublicKey) NodeDestination {
	return NodeDestination{kind: DestinationKindPublicKey, publicKey: pk}
}

// DestinationNodeID 返回以 NodeID 标识的目的地
func DestinationNodeID(id NodeID) NodeDestination {
	return NodeDestination{kind: DestinationKindNodeID, nodeID: id}
}

// Kind 返回目的地类型
func (d NodeDestination) Kind() DestinationKind {
	return d.kind
}

// PublicKey 返回目的地公钥（仅 DestinationKindPublicKey 有效）
func (d NodeDestination) PublicKey() (PublicKey, bool) {
	if d.kind != DestinationKindPublicKey {
		return EmptyPublicKey, false
	}
	return d.publicKey, true
}

// NodeID 返回目的地 NodeID（仅 DestinationKindNodeID 有效）
func (d NodeDestination) NodeID() (NodeID, bool) {
	if d.kind != DestinationKindNodeID {
		return EmptyNodeID, false
	}
	return d.nodeID, true
}

// IsUnknown 是否为未知目的地
func (d NodeDestination) IsUnknown() bool {
	return d.kind == DestinationKindUnknown
}

// Equal 比较两个目的地是否相等
func (d NodeDestination) Equal(other NodeDestination) bool {
	return d == other
}

// String 返回目的地的字符串表示
func (d NodeDestination) String() string {
	switch d.kind {
	case DestinationKindPublicKey:
		return fmt.Sprintf("PublicKey(%s)", d.publicKey)
	case DestinationKindNodeID:
		return fmt.Sprintf("NodeID(%s)", d.nodeID.ShortString())
	default:
		return "Unknown"
	}
}
