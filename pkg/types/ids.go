package types

import (
	"crypto/sha256"
	"errors"

	"github.com/mr-tron/base58"
)

// ============================================================================
//                              NodeID - 节点标识
// ============================================================================

// NodeID 节点在覆盖网络地址空间中的位置标识
// 由公钥派生（公钥的 SHA256 哈希），与公钥本身不同
//
// 外部表示格式：
//   - String(): Base58 编码（用户可读、可分享）
//   - ShortString(): Base58 前缀（日志简短标识）
type NodeID [32]byte

// EmptyNodeID 空节点ID
var EmptyNodeID NodeID

// ErrInvalidNodeID 无效的节点ID错误
var ErrInvalidNodeID = errors.New("invalid node ID: must be 32 bytes Base58")

// String 返回 NodeID 的 Base58 字符串表示
func (id NodeID) String() string {
	if id.IsEmpty() {
		return ""
	}
	return base58.Encode(id[:])
}

// ShortString 返回 NodeID 的短字符串表示
//
// 格式：Base58 前 8 个字符，用于日志中的简短标识。
func (id NodeID) ShortString() string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// Bytes 返回 NodeID 的字节切片
func (id NodeID) Bytes() []byte {
	return id[:]
}

// Equal 比较两个 NodeID 是否相等
func (id NodeID) Equal(other NodeID) bool {
	return id == other
}

// IsEmpty 检查 NodeID 是否为空
func (id NodeID) IsEmpty() bool {
	return id == EmptyNodeID
}

// NodeIDFromBytes 从字节切片创建 NodeID
func NodeIDFromBytes(b []byte) (NodeID, error) {
	if len(b) != len(EmptyNodeID) {
		return EmptyNodeID, ErrInvalidNodeID
	}
	var id NodeID
	copy(id[:], b)
	return id, nil
}

// NodeIDFromPublicKey 从公钥派生 NodeID
//
// 使用 SHA256(PublicKeyBytes) 作为 NodeID。
func NodeIDFromPublicKey(pk PublicKey) NodeID {
	return NodeID(sha256.Sum256(pk[:]))
}

// ParseNodeID 从 Base58 字符串解析 NodeID
func ParseNodeID(s string) (NodeID, error) {
	if s == "" {
		return EmptyNodeID, ErrInvalidNodeID
	}
	b, err := base58.Decode(s)
	if err != nil {
		return EmptyNodeID, ErrInvalidNodeID
	}
	return NodeIDFromBytes(b)
}

// ============================================================================
//                              PublicKey - 节点公钥
// ============================================================================

// PublicKey 节点的 Ed25519 公钥
//
// 用于加密寻址（EncryptFor）和 NodeDestination.PublicKey。
type PublicKey [32]byte

// EmptyPublicKey 空公钥
var EmptyPublicKey PublicKey

// ErrInvalidPublicKey 无效的公钥错误
var ErrInvalidPublicKey = errors.New("invalid public key: must be 32 bytes")

// String 返回公钥的 Base58 字符串表示
func (pk PublicKey) String() string {
	if pk.IsEmpty() {
		return ""
	}
	return base58.Encode(pk[:])
}

// Bytes 返回公钥的字节切片
func (pk PublicKey) Bytes() []byte {
	return pk[:]
}

// IsEmpty 检查公钥是否为空
func (pk PublicKey) IsEmpty() bool {
	return pk == EmptyPublicKey
}

// PublicKeyFromBytes 从字节切片创建公钥
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	if len(b) != len(EmptyPublicKey) {
		return EmptyPublicKey, ErrInvalidPublicKey
	}
	var pk PublicKey
	copy(pk[:], b)
	return pk, nil
}

// ParsePublicKey 从 Base58 字符串解析公钥
func ParsePublicKey(s string) (PublicKey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return EmptyPublicKey, ErrInvalidPublicKey
	}
	return PublicKeyFromBytes(b)
}
