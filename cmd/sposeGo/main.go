package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"SposeGo/internal/config"
	"SposeGo/internal/logging"
	"SposeGo/internal/portscan"
)

func main() {
	os.Exit(run())
}

func run() int {
	env, err := config.Environ(".env")
	if err != nil {
		color.Red("[-] %v", err)
		return 1
	}
	cfg, err := config.Load(os.Args[1:], env, os.Stdout)
	if err != nil {
		if !errors.Is(err, config.ErrUsage) {
			color.Red("[-] %v", err)
		}
		return 2
	}

	logger := logging.Configure(os.Stderr, cfg.Verbose)
	console := portscan.NewConsole(os.Stdout)
	console.UsingProxy(cfg.Proxy)

	prober, err := portscan.NewProbeClient(cfg.Target, cfg.Proxy, cfg.Timeout, cfg.Threads)
	if err != nil {
		color.Red("[-] %v", err)
		return 2
	}

	// 第一次 Ctrl+C 协作式取消, worker 不再领取新端口
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord := portscan.NewCoordinator(cfg.Engine(), prober, console, logger)

	// 进度监听独立运行, 扫描结束即停止
	reportCtx, stopReport := context.WithCancel(ctx)
	defer stopReport()
	go portscan.NewReporter(coord, renderer(cfg, console)).Run(reportCtx, triggers(reportCtx, cfg))

	err = coord.Run(ctx)
	stopReport()
	switch {
	case errors.Is(err, portscan.ErrCancelled):
		console.Interrupted()
		return 130
	case err != nil:
		color.Red("\n[-] %v", err)
		return 1
	}

	if _, err := coord.Summary(); err != nil {
		color.Red("[-] %v", err)
		return 1
	}
	return 0
}

func renderer(cfg config.Config, console *portscan.Console) portscan.Renderer {
	if cfg.Bar && isatty.IsTerminal(os.Stdout.Fd()) {
		return portscan.NewBarRenderer(console.Writer(), portscan.TotalPorts)
	}
	return portscan.LineRenderer{Console: console}
}

func triggers(ctx context.Context, cfg config.Config) portscan.Trigger {
	sources := []portscan.Trigger{portscan.LineTrigger(ctx, os.Stdin)}
	if cfg.Interval > 0 {
		sources = append(sources, portscan.TickerTrigger(ctx, cfg.Interval))
	}
	return portscan.MergeTriggers(ctx, sources...)
}
