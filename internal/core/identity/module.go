package identity

import (
	"fmt"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-dht/config"
	"github.com/dep2p/go-dep2p-dht/pkg/lib/log"
	"github.com/dep2p/go-dep2p-dht/pkg/types"
)

var logger = log.Logger("core/identity")

// Module 身份 Fx 模块
var Module = fx.Module("identity",
	fx.Provide(ProvideIdentity),
)

// Params 身份依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// ProvideIdentity 从统一配置创建节点身份
//
// 优先级：KeyFile（存在则加载）> AutoGenerate（生成并保存）> 内存临时身份
func ProvideIdentity(p Params) (*NodeIdentity, error) {
	cfg := config.DefaultIdentityConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.Identity
	}

	addrs, err := ParseAddrs(cfg.PublicAddrs)
	if err != nil {
		return nil, err
	}
	features, err := types.ParsePeerFeatures(cfg.Features)
	if err != nil {
		return nil, fmt.Errorf("解析节点能力失败: %w", err)
	}

	id, err := LoadOrCreate(cfg.KeyFile, cfg.AutoGenerate, addrs, features)
	if err != nil {
		return nil, err
	}

	logger.Info("节点身份就绪",
		"nodeID", id.NodeID().ShortString(),
		"addrs", len(addrs),
		"features", features.String())
	return id, nil
}
