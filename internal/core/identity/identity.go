// Package identity 提供节点身份
//
// 身份模块负责：
//   - Ed25519 密钥对生成和持久化
//   - NodeID 派生（SHA256(公钥)）
//   - 对外广播的地址与能力位
//
// NodeIdentity 构造后不可变，可在多个 goroutine 间共享只读使用。
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-dep2p-dht/pkg/types"
)

// ============================================================================
//                              NodeIdentity
// ============================================================================

// NodeIdentity 本地节点身份
type NodeIdentity struct {
	privateKey ed25519.PrivateKey
	publicKey  types.PublicKey
	nodeID     types.NodeID
	addresses  []ma.Multiaddr
	features   types.PeerFeatures
}

// Generate 生成带新密钥的身份
func Generate(addrs []ma.Multiaddr, features types.PeerFeatures) (*NodeIdentity, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToGenerateKey, err)
	}
	return FromPrivateKey(priv, addrs, features)
}

// FromPrivateKey 从已有私钥创建身份
func FromPrivateKey(priv ed25519.PrivateKey, addrs []ma.Multiaddr, features types.PeerFeatures) (*NodeIdentity, error) {
	if priv == nil {
		return nil, ErrNilPrivateKey
	}
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKeySize
	}

	pubBytes, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, ErrInvalidKeySize
	}
	pub, err := types.PublicKeyFromBytes(pubBytes)
	if err != nil {
		return nil, err
	}

	return &NodeIdentity{
		privateKey: priv,
		publicKey:  pub,
		nodeID:     types.NodeIDFromPublicKey(pub),
		addresses:  append([]ma.Multiaddr(nil), addrs...),
		features:   features,
	}, nil
}

// ParseAddrs 解析 multiaddr 字符串列表
func ParseAddrs(addrs []string) ([]ma.Multiaddr, error) {
	out := make([]ma.Multiaddr, 0, len(addrs))
	for _, s := range addrs {
		addr, err := ma.NewMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidAddress, s, err)
		}
		out = append(out, addr)
	}
	return out, nil
}

// NodeID 返回节点 ID
func (i *NodeIdentity) NodeID() types.NodeID {
	return i.nodeID
}

// PublicKey 返回公钥
func (i *NodeIdentity) PublicKey() types.PublicKey {
	return i.publicKey
}

// PublicAddresses 返回对外广播的地址（副本）
func (i *NodeIdentity) PublicAddresses() []ma.Multiaddr {
	return append([]ma.Multiaddr(nil), i.addresses...)
}

// Features 返回节点能力位
func (i *NodeIdentity) Features() types.PeerFeatures {
	return i.features
}

// Sign 使用私钥签名数据
func (i *NodeIdentity) Sign(data []byte) []byte {
	return ed25519.Sign(i.privateKey, data)
}

// Verify 使用给定公钥验证签名
func Verify(pub types.PublicKey, data, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), data, sig)
}

// String 返回身份的简短描述
func (i *NodeIdentity) String() string {
	return fmt.Sprintf("NodeIdentity{%s, addrs=%d, features=%s}",
		i.nodeID.ShortString(), len(i.addresses), i.features)
}
