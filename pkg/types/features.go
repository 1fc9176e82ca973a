package types

import (
	"fmt"
	"strings"
)

// PeerFeatures 节点能力位掩码
//
// 随 Join/Discover 消息一起广播，接收方据此决定是否
// 将本节点用于消息转发或存储转发。
type PeerFeatures uint64

const (
	// FeatureMessagePropagation 参与消息传播（转发广播）
	FeatureMessagePropagation PeerFeatures = 1 << iota
	// FeatureDHTStoreForward 为离线节点提供存储转发
	FeatureDHTStoreForward
)

const (
	// FeaturesNone 无任何能力
	FeaturesNone PeerFeatures = 0
	// FeaturesCommunicationNode 完整通信节点
	FeaturesCommunicationNode = FeatureMessagePropagation | FeatureDHTStoreForward
	// FeaturesCommunicationClient 通信客户端（不转发、不存储）
	FeaturesCommunicationClient = FeaturesNone
)

// featureNames 名称与位的对应关系（用于配置解析和日志）
var featureNames = []struct {
	name string
	bit  PeerFeatures
}{
	{"message_propagation", FeatureMessagePropagation},
	{"store_forward", FeatureDHTStoreForward},
}

// Has 检查是否包含指定能力
func (f PeerFeatures) Has(other PeerFeatures) bool {
	return f&other == other
}

// Bits 返回原始位掩码
func (f PeerFeatures) Bits() uint64 {
	return uint64(f)
}

// String 返回能力列表的字符串表示
func (f PeerFeatures) String() string {
	if f == FeaturesNone {
		return "none"
	}
	var names []string
	rest := f
	for _, fn := range featureNames {
		if f.Has(fn.bit) {
			names = append(names, fn.name)
			rest &^= fn.bit
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint64(rest)))
	}
	return strings.Join(names, "|")
}

// ParsePeerFeatures 从名称列表解析能力位掩码
//
// 支持的名称：message_propagation, store_forward；
// 另外 "communication_node" / "communication_client" 作为预设。
func ParsePeerFeatures(names []string) (PeerFeatures, error) {
	var f PeerFeatures
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "":
			continue
		case "communication_node":
			f |= FeaturesCommunicationNode
			continue
		case "communication_client", "none":
			continue
		}

		found := false
		for _, fn := range featureNames {
			if fn.name == name {
				f |= fn.bit
				found = true
				break
			}
		}
		if !found {
			return FeaturesNone, fmt.Errorf("unknown peer feature %q", raw)
		}
	}
	return f, nil
}
