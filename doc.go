// Package dep2pdht 提供 DHT 控制面节点
//
// Node 组装节点身份、指标、出站层与 DHT Actor，对外暴露请求句柄：
//
//	node, err := dep2pdht.New(
//	    dep2pdht.WithPublicAddrs("/ip4/203.0.113.7/tcp/18141"),
//	    dep2pdht.WithIdentityKeyFile("node.pem"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
//	if err := node.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	r := node.Requester()
//	defer r.Close()
//	seen, err := r.InsertMessageSignature(ctx, sig)
//
// # 生命周期
//
//	Idle → Starting → Running → Stopping → Stopped
//
// Actor 只能运行一次，因此 Stop 之后节点不能再次 Start。
package dep2pdht
