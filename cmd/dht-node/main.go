// Package main 提供 DHT 控制面节点的命令行入口
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	dep2pdht "github.com/dep2p/go-dep2p-dht"
	"github.com/dep2p/go-dep2p-dht/config"
	"github.com/dep2p/go-dep2p-dht/pkg/lib/log"
)

var logger = log.Logger("dht/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：运行时覆盖（「这次运行」想怎么跑）
//   JSON 配置文件：持久化配置（「这个节点」的固定配置）
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile  = flag.String("config", "", "配置文件路径（JSON）")
	logLevel    = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")
	keyFile     = flag.String("key-file", "", "身份密钥文件路径")
	metricsAddr = flag.String("metrics-addr", "", "/metrics 监听地址，例如 127.0.0.1:9100")
	noAutoJoin  = flag.Bool("no-auto-join", false, "启动时不广播 Join")
	noAutoSAF   = flag.Bool("no-auto-saf", false, "启动时不请求离线存储消息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	logCloser, err := setupLogging(cfg.Log)
	if err != nil {
		return err
	}
	if logCloser != nil {
		defer func() { _ = logCloser.Close() }()
	}

	node, err := dep2pdht.New(buildOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("创建节点失败: %w", err)
	}
	defer func() { _ = node.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := node.Start(ctx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	printNodeInfo(node)
	logger.Info("节点已启动，按 Ctrl+C 退出")

	select {
	case <-waitForSignal():
		fmt.Println("\n正在关闭节点...")
	case <-node.Done():
		logger.Warn("DHT Actor 意外退出")
	}
	return node.Stop(ctx)
}

// loadConfig 加载配置文件（若有）
func loadConfig() (*config.Config, error) {
	if *configFile == "" {
		return config.NewConfig(), nil
	}
	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		return nil, fmt.Errorf("加载配置文件失败: %w", err)
	}
	return cfg, nil
}

// buildOptions 构建节点选项
//
// 命令行参数只在显式设置时覆盖配置文件。
func buildOptions(cfg *config.Config) []dep2pdht.Option {
	opts := []dep2pdht.Option{dep2pdht.WithConfig(cfg)}

	if isFlagSet("key-file") {
		opts = append(opts, dep2pdht.WithIdentityKeyFile(*keyFile))
	}
	if isFlagSet("metrics-addr") {
		opts = append(opts, dep2pdht.WithMetricsAddr(*metricsAddr))
	}
	if *noAutoJoin {
		opts = append(opts, dep2pdht.WithAutoJoin(false))
	}
	if *noAutoSAF {
		opts = append(opts, dep2pdht.WithAutoStoredMessageRequest(false))
	}
	return opts
}

// setupLogging 按配置设置日志，-log-level 优先
func setupLogging(lc config.LogConfig) (io.Closer, error) {
	levelName := lc.Level
	if *logLevel != "" {
		levelName = *logLevel
	}
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	if lc.File == "" {
		log.Setup(level, lc.Format, os.Stderr)
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(lc.File), 0750); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	file, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	log.Setup(level, lc.Format, file)
	return file, nil
}

func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// waitForSignal 等待退出信号
func waitForSignal() <-chan os.Signal {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	return signals
}

func printNodeInfo(node *dep2pdht.Node) {
	id := node.Identity()
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Printf("  NodeID:    %s\n", id.NodeID())
	fmt.Printf("  PublicKey: %s\n", id.PublicKey())
	fmt.Printf("  Features:  %s\n", id.Features())
	for _, addr := range id.PublicAddresses() {
		fmt.Printf("  Address:   %s\n", addr)
	}
	fmt.Println("═══════════════════════════════════════════════════════")
}
