// Package metrics 提供 DHT 控制面的 Prometheus 指标
//
// # 指标
//
//	dht_requests_total{type}                  收到的请求数（join/discover/signature_insert）
//	dht_broadcasts_total{type}                成功提交到出站层的广播数
//	dht_broadcast_failures_total{type}        出站层拒绝或超时的广播数
//	dht_signature_cache_inserts_total{result} 签名插入结果（new/duplicate）
//	dht_signature_cache_entries               签名缓存当前条目数
//
// # 空实现
//
// *DHTMetrics 为 nil 时所有记录方法均为空操作，调用方无需判空。
//
// # HTTP 暴露
//
// 配置 MetricsConfig.ListenAddr 后，Fx 模块在 OnStart 中启动
// /metrics 与 /health 端点，OnStop 中优雅关闭。
package metrics
