// Package dht 实现 DHT 控制面 Actor
//
// Actor 是节点覆盖网络的控制面：
//   - 入网：启动时广播 Join，并向最近节点请求离线期间的存储消息
//   - 发现：按请求向目标公钥发送加密的 Discover
//   - 去重：维护消息签名的 TTL 缓存，识别回环的广播
//
// # 使用
//
//	requester, receiver := dht.NewRequestQueue(cfg.RequestBufferSize)
//	sd := shutdown.New()
//	actor, err := dht.NewActor(cfg, id, broadcaster, receiver, sd.ToSignal())
//	go actor.Run()
//
//	seen, err := requester.InsertMessageSignature(ctx, sig)
//	...
//	sd.Trigger()
//	<-actor.Done()
//
// # 并发模型
//
// 任意多个 goroutine 可持有 Requester（Clone/Close）。所有状态只由
// Actor 的事件循环修改，请求按入队顺序逐个处理完毕，插入签名的应答
// 在处理该请求时同步发出，因此同一签名先后两次插入时后者必然返回 true。
//
// Join/Discover 是"发出即忘"的：失败只记录日志，不返回给调用方。
package dht
