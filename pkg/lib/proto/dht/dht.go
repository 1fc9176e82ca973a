// Package dht 定义 DHT 控制面协议消息（wire format）
//
// 消息采用标准 Protobuf 线格式编码，字段编号与 dht.proto 保持一致：
//
//	message JoinMessage {
//	    bytes  node_id       = 1;
//	    repeated string addresses = 2;
//	    uint64 peer_features = 3;
//	}
//
//	message DiscoverMessage { /* 与 JoinMessage 相同 */ }
//
//	message StoredMessagesRequest {
//	    uint64 since = 1; // Unix 秒，可选
//	}
//
// 编解码直接使用 protowire，未知字段在解码时跳过。
package dht

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrInvalidMessage 无效的消息数据
var ErrInvalidMessage = errors.New("dht proto: invalid message data")

// ============================================================================
//                              MessageType
// ============================================================================

// MessageType DHT 消息类型标签
//
// 接收方据此分发消息。
type MessageType int32

const (
	// MessageTypeNone 未指定
	MessageTypeNone MessageType = 0
	// MessageTypeJoin 入网公告
	MessageTypeJoin MessageType = 1
	// MessageTypeDiscover 区域/节点发现探测
	MessageTypeDiscover MessageType = 2
	// MessageTypeSafRequestMessages 请求离线期间的存储消息
	MessageTypeSafRequestMessages MessageType = 20
	// MessageTypeSafStoredMessages 存储消息响应
	MessageTypeSafStoredMessages MessageType = 21
)

// String 返回消息类型名称
func (t MessageType) String() string {
	switch t {
	case MessageTypeNone:
		return "None"
	case MessageTypeJoin:
		return "Join"
	case MessageTypeDiscover:
		return "Discover"
	case MessageTypeSafRequestMessages:
		return "SafRequestMessages"
	case MessageTypeSafStoredMessages:
		return "SafStoredMessages"
	default:
		return fmt.Sprintf("MessageType(%d)", int32(t))
	}
}

// Message 可序列化的 DHT 协议消息
type Message interface {
	// MessageType 返回接收方用于分发的消息类型标签
	MessageType() MessageType
	Marshal() ([]byte, error)
}

// ============================================================================
//                              JoinMessage / DiscoverMessage
// ============================================================================

// 字段编号
const (
	fieldNodeID       protowire.Number = 1
	fieldAddresses    protowire.Number = 2
	fieldPeerFeatures protowire.Number = 3

	fieldSince protowire.Number = 1
)

// JoinMessage 入网公告
//
// 不加密广播，任何收到的节点都可以继续转发。
type JoinMessage struct {
	NodeID       []byte
	Addresses    []string
	PeerFeatures uint64
}

// MessageType 实现 Message
func (m *JoinMessage) MessageType() MessageType { return MessageTypeJoin }

// Marshal 序列化 JoinMessage
func (m *JoinMessage) Marshal() ([]byte, error) {
	return marshalPeerInfo(m.NodeID, m.Addresses, m.PeerFeatures), nil
}

// Unmarshal 反序列化 JoinMessage
func (m *JoinMessage) Unmarshal(data []byte) error {
	return unmarshalPeerInfo(data, &m.NodeID, &m.Addresses, &m.PeerFeatures)
}

// DiscoverMessage 发现探测
//
// 结构与 JoinMessage 相同，但加密发送给指定公钥。
type DiscoverMessage struct {
	NodeID       []byte
	Addresses    []string
	PeerFeatures uint64
}

// MessageType 实现 Message
func (m *DiscoverMessage) MessageType() MessageType { return MessageTypeDiscover }

// Marshal 序列化 DiscoverMessage
func (m *DiscoverMessage) Marshal() ([]byte, error) {
	return marshalPeerInfo(m.NodeID, m.Addresses, m.PeerFeatures), nil
}

// Unmarshal 反序列化 DiscoverMessage
func (m *DiscoverMessage) Unmarshal(data []byte) error {
	return unmarshalPeerInfo(data, &m.NodeID, &m.Addresses, &m.PeerFeatures)
}

func marshalPeerInfo(nodeID []byte, addrs []string, features uint64) []byte {
	b := make([]byte, 0, len(nodeID)+16*len(addrs)+16)
	if len(nodeID) > 0 {
		b = protowire.AppendTag(b, fieldNodeID, protowire.BytesType)
		b = protowire.AppendBytes(b, nodeID)
	}
	for _, a := range addrs {
		b = protowire.AppendTag(b, fieldAddresses, protowire.BytesType)
		b = protowire.AppendString(b, a)
	}
	if features != 0 {
		b = protowire.AppendTag(b, fieldPeerFeatures, protowire.VarintType)
		b = protowire.AppendVarint(b, features)
	}
	return b
}

func unmarshalPeerInfo(data []byte, nodeID *[]byte, addrs *[]string, features *uint64) error {
	*nodeID = nil
	*addrs = nil
	*features = 0

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrInvalidMessage, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldNodeID && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("%w: node_id: %v", ErrInvalidMessage, protowire.ParseError(n))
			}
			*nodeID = append([]byte(nil), v...)
			data = data[n:]
		case num == fieldAddresses && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return fmt.Errorf("%w: addresses: %v", ErrInvalidMessage, protowire.ParseError(n))
			}
			*addrs = append(*addrs, v)
			data = data[n:]
		case num == fieldPeerFeatures && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("%w: peer_features: %v", ErrInvalidMessage, protowire.ParseError(n))
			}
			*features = v
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("%w: %v", ErrInvalidMessage, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}

// ============================================================================
//                              StoredMessagesRequest
// ============================================================================

// StoredMessagesRequest 请求网络为本节点缓存的离线消息
//
// Since 为空表示请求全部存储消息。
type StoredMessagesRequest struct {
	Since *time.Time
}

// NewStoredMessagesRequest 创建不带游标的请求
func NewStoredMessagesRequest() *StoredMessagesRequest {
	return &StoredMessagesRequest{}
}

// MessageType 实现 Message
func (m *StoredMessagesRequest) MessageType() MessageType { return MessageTypeSafRequestMessages }

// Marshal 序列化 StoredMessagesRequest
func (m *StoredMessagesRequest) Marshal() ([]byte, error) {
	if m.Since == nil {
		return []byte{}, nil
	}
	secs := m.Since.Unix()
	if secs < 0 {
		return nil, fmt.Errorf("%w: since before unix epoch", ErrInvalidMessage)
	}
	b := protowire.AppendTag(nil, fieldSince, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(secs)), nil
}

// Unmarshal 反序列化 StoredMessagesRequest
func (m *StoredMessagesRequest) Unmarshal(data []byte) error {
	m.Since = nil
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrInvalidMessage, protowire.ParseError(n))
		}
		data = data[n:]

		if num == fieldSince && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("%w: since: %v", ErrInvalidMessage, protowire.ParseError(n))
			}
			since := time.Unix(int64(v), 0).UTC()
			m.Since = &since
			data = data[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrInvalidMessage, protowire.ParseError(n))
		}
		data = data[n:]
	}
	return nil
}
