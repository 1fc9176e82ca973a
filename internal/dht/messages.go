package dht

import (
	ma "github.com/multiformats/go-multiaddr"

	"github.com/dep2p/go-dep2p-dht/internal/core/metrics"
	"github.com/dep2p/go-dep2p-dht/internal/dht/outbound"
	dhtpb "github.com/dep2p/go-dep2p-dht/pkg/lib/proto/dht"
	"github.com/dep2p/go-dep2p-dht/pkg/types"
)

// NodeIdentity Actor 读取的本地身份
//
// 由 identity.NodeIdentity 实现。
type NodeIdentity interface {
	NodeID() types.NodeID
	PublicAddresses() []ma.Multiaddr
	Features() types.PeerFeatures
}

// broadcast 一次待提交给出站层的广播
type broadcast struct {
	kind        string
	strategy    outbound.BroadcastStrategy
	destination types.NodeDestination
	encryption  outbound.OutboundEncryption
	msg         dhtpb.Message
}

func addrStrings(addrs []ma.Multiaddr) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return out
}

// buildJoin 构造 Join 广播：明文发给距本节点最近的 N 个节点
func buildJoin(id NodeIdentity, cfg Config) broadcast {
	return broadcast{
		kind: metrics.TypeJoin,
		strategy: outbound.Closest{
			NodeID: id.NodeID(),
			N:      cfg.NumNeighbouringNodes,
		},
		destination: types.DestinationUnknown(),
		encryption:  outbound.EncryptNone(),
		msg: &dhtpb.JoinMessage{
			NodeID:       id.NodeID().Bytes(),
			Addresses:    addrStrings(id.PublicAddresses()),
			PeerFeatures: id.Features().Bits(),
		},
	}
}

// buildDiscover 构造 Discover 广播：加密给目标公钥
func buildDiscover(id NodeIdentity, cfg Config, req SendDiscoverRequest) broadcast {
	return broadcast{
		kind: metrics.TypeDiscover,
		strategy: outbound.Closest{
			NodeID: resolveBroadcastTarget(req.DestNodeID, req.Destination, id.NodeID()),
			N:      cfg.NumNeighbouringNodes,
		},
		destination: req.Destination,
		encryption:  outbound.EncryptFor(req.DestPublicKey),
		msg: &dhtpb.DiscoverMessage{
			NodeID:       id.NodeID().Bytes(),
			Addresses:    addrStrings(id.PublicAddresses()),
			PeerFeatures: id.Features().Bits(),
		},
	}
}

// buildStoredMessagesRequest 构造离线消息请求
//
// 不携带 since 游标，重复请求可能取回已收到的消息。
func buildStoredMessagesRequest(id NodeIdentity, cfg Config) broadcast {
	return broadcast{
		kind: metrics.TypeStoredMessages,
		strategy: outbound.Closest{
			NodeID: id.NodeID(),
			N:      cfg.NumNeighbouringNodes,
		},
		destination: types.DestinationUnknown(),
		encryption:  outbound.EncryptForDestination(),
		msg:         dhtpb.NewStoredMessagesRequest(),
	}
}
