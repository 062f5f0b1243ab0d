// Package main 提供 raftnet 命令行入口
//
// 子命令：
//
//	raftnet serve --listen 0.0.0.0:20160 --metrics-addr :9100
//	raftnet send  --peers 2@127.0.0.1:20160 --to 2 --count 100
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-raftnet"
	"github.com/dep2p/go-raftnet/internal/core/metrics"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
	"github.com/dep2p/go-raftnet/pkg/lib/log"
	"github.com/dep2p/go-raftnet/pkg/types"
)

var logger = log.Logger("raftnet/cmd")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printHelp()
		return errors.New("缺少子命令")
	}

	switch args[0] {
	case "serve":
		return runServe(args[1:])
	case "send":
		return runSend(args[1:])
	case "version", "-version", "--version":
		fmt.Println(raftnet.VersionInfo())
		return nil
	case "help", "-h", "-help", "--help":
		printHelp()
		return nil
	default:
		printHelp()
		return fmt.Errorf("未知子命令: %s", args[0])
	}
}

func printHelp() {
	fmt.Fprintln(os.Stderr, `用法: raftnet <command> [flags]

命令:
  serve    监听入站批量消息并记录日志
  send     向指定 Store 发送测试消息
  version  显示版本信息

使用 "raftnet <command> -h" 查看各命令参数。`)
}

// ═══════════════════════════════════════════════════════════════════════════
// 公共参数
// ═══════════════════════════════════════════════════════════════════════════

// commonFlags 各子命令共享的参数
type commonFlags struct {
	configFile  string
	dataDir     string
	peers       string
	logLevel    string
	metricsAddr string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configFile, "config", "", "配置文件路径（JSON）")
	fs.StringVar(&c.dataDir, "data-dir", "", "数据目录（为空则使用内存存储）")
	fs.StringVar(&c.peers, "peers", "", "静态 Store 地址，逗号分隔，格式 id@host:port")
	fs.StringVar(&c.logLevel, "log-level", "", "日志级别 (debug/info/warn/error)")
	fs.StringVar(&c.metricsAddr, "metrics-addr", "", "Prometheus 指标监听地址")
}

// options 将公共参数转换为节点选项
//
// 命令行参数覆盖配置文件中的同名设置。
func (c *commonFlags) options() []raftnet.Option {
	var opts []raftnet.Option
	if c.configFile != "" {
		opts = append(opts, raftnet.WithConfigFile(c.configFile))
	}
	if c.dataDir != "" {
		opts = append(opts, raftnet.WithDataDir(c.dataDir))
	} else if c.configFile == "" {
		opts = append(opts, raftnet.WithInMemory())
	}
	if specs := splitList(c.peers); len(specs) > 0 {
		opts = append(opts, raftnet.WithStoreSpecs(specs...))
	}
	if c.logLevel != "" {
		opts = append(opts, raftnet.WithLogLevel(c.logLevel))
	}
	return opts
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// serve
// ═══════════════════════════════════════════════════════════════════════════

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	listen := fs.String("listen", "0.0.0.0:20160", "入站监听地址")
	if err := fs.Parse(args); err != nil {
		return err
	}

	handler := interfaces.BatchHandlerFunc(func(remote net.Addr, msgs []*types.RaftMessage) {
		for _, m := range msgs {
			logger.Info("收到消息", "remote", remote, "msg", m.String())
		}
	})
	opts := append(common.options(),
		raftnet.WithListenAddr(*listen),
		raftnet.WithBatchHandler(handler),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	node, err := raftnet.Start(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = node.Close() }()

	metricsAddr := metricsListenAddr(common.metricsAddr, node)
	shutdown := serveMetrics(metricsAddr, node.Metrics())
	defer shutdown()

	fmt.Printf("raftnet 正在监听 %s\n", node.ListenAddr())
	<-ctx.Done()
	logger.Info("收到退出信号，正在关闭")
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// send
// ═══════════════════════════════════════════════════════════════════════════

func runSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	var (
		from        = fs.Uint64("from", 1, "发送方 Store ID")
		to          = fs.Uint64("to", 0, "目标 Store ID")
		region      = fs.Uint64("region", 1, "Region ID")
		count       = fs.Int("count", 1, "发送消息数")
		batch       = fs.Int("batch", 64, "每累计多少条消息 flush 一次")
		payloadSize = fs.Int("payload-size", 128, "每条消息负载字节数")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *to == 0 {
		return errors.New("必须指定 --to")
	}
	if *count <= 0 || *batch <= 0 || *payloadSize < 0 {
		return errors.New("--count/--batch 必须为正数，--payload-size 不能为负")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	node, err := raftnet.Start(ctx, common.options()...)
	if err != nil {
		return err
	}
	defer func() { _ = node.Close() }()

	shutdown := serveMetrics(metricsListenAddr(common.metricsAddr, node), node.Metrics())
	defer shutdown()

	trans := node.Transport()
	payload := make([]byte, *payloadSize)
	start := time.Now()
	var failed int
	for i := 0; i < *count; i++ {
		if ctx.Err() != nil {
			break
		}
		msg := &types.RaftMessage{
			RegionID: *region,
			From:     types.StoreID(*from),
			To:       types.StoreID(*to),
			Type:     types.MsgAppend,
			Term:     1,
			Payload:  payload,
		}
		if err := trans.SendContext(ctx, msg); err != nil {
			failed++
			logger.Warn("发送失败", "index", i, "error", err)
			continue
		}
		if (i+1)%*batch == 0 {
			trans.Flush()
		}
	}
	if trans.NeedFlush() {
		trans.Flush()
	}

	stats := node.Stats()
	fmt.Printf("已发送 %d 条消息（失败 %d），耗时 %s，连接数 %d\n",
		*count-failed, failed, time.Since(start).Round(time.Millisecond), stats.Connections)
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// 指标服务
// ═══════════════════════════════════════════════════════════════════════════

// metricsListenAddr 命令行参数优先，其次使用配置中的地址
func metricsListenAddr(flagAddr string, node *raftnet.Node) string {
	if flagAddr != "" {
		return flagAddr
	}
	return node.Config().Metrics.ListenAddr
}

// serveMetrics 在 addr 上暴露 /metrics，返回关闭函数
func serveMetrics(addr string, reg *metrics.Registry) func() {
	if addr == "" || reg == nil {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("指标服务异常退出", "addr", addr, "error", err)
		}
	}()
	logger.Info("指标服务已启动", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
