// Package lib 包含基础设施工具库
//
// 本目录包含与架构组件无关的通用工具库：
//
//   - log: 基于 log/slog 的组件日志封装
//   - proto/dht: DHT 协议消息（protobuf 线格式）
//
// # 与 pkg/ 其他目录的关系
//
//   - types/: 公共类型定义（NodeID、PublicKey、目的地、能力位）
//   - lib/: 基础设施工具库（本目录）
//
// # 使用示例
//
//	import (
//	    "github.com/dep2p/go-dep2p-dht/pkg/lib/log"
//	    dhtpb "github.com/dep2p/go-dep2p-dht/pkg/lib/proto/dht"
//	)
package lib
