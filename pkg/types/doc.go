// Package types 定义 DHT 控制面的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 职能
//
// pkg/types 的职能是定义 **Go 内部数据结构**：
//   - 模块间数据传递
//   - API 参数/返回值
//
// # 与 pkg/lib/proto 的区别
//
// pkg/types 定义 Go 内部数据结构（内存结构），
// pkg/lib/proto 定义网络协议消息（wire format）。
//
// # 文件组织
//
//   - ids.go         - NodeID, PublicKey
//   - destination.go - NodeDestination 逻辑目的地
//   - features.go    - PeerFeatures 节点能力位掩码
package types
