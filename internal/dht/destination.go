package dht

import "github.com/dep2p/go-dep2p-dht/pkg/types"

// resolveBroadcastTarget 选择"最近 N 个节点"广播的引导 NodeID
//
// 优先级：显式 NodeID > 目的地为 Unknown/PublicKey 时取本节点 > 目的地 NodeID。
// 结果只用于选择最近节点，不是投递地址。
func resolveBroadcastTarget(explicit *types.NodeID, dest types.NodeDestination, self types.NodeID) types.NodeID {
	if explicit != nil {
		return *explicit
	}
	if id, ok := dest.NodeID(); ok {
		return id
	}
	return self
}
