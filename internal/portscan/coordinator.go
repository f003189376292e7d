package portscan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"SposeGo/internal/logging"
)

var (
	// ErrCancelled 扫描被用户中断
	ErrCancelled = errors.New("scan cancelled")
	// ErrIncomplete 达到最大轮数后仍有端口未扫描
	ErrIncomplete = errors.New("scan incomplete")
)

// Config 扫描引擎配置, 创建协调器后不再修改
type Config struct {
	Target    string
	Proxy     string
	Threads   int
	Timeout   time.Duration
	MaxPasses int   // 0 表示不限轮数
	Ports     []int // nil 表示 1..65535
}

// Coordinator 管理 worker 池生命周期、共享账本与完整性校验
type Coordinator struct {
	cfg     Config
	prober  Prober
	ledger  *Ledger
	console *Console
	logger  *slog.Logger
	stats   Stats

	// source worker 领取端口的来源, 默认即 ledger
	source portSource

	mu    sync.Mutex
	state State
}

type portSource interface {
	Take() (int, bool)
}

// NewCoordinator 创建扫描协调器
func NewCoordinator(cfg Config, prober Prober, console *Console, logger *slog.Logger) *Coordinator {
	if cfg.Threads <= 0 {
		cfg.Threads = 1
	}
	if logger == nil {
		logger = logging.Logger()
	}
	ledger := NewLedger()
	return &Coordinator{
		cfg:     cfg,
		prober:  prober,
		ledger:  ledger,
		source:  ledger,
		console: console,
		logger:  logger,
		state:   StateFilling,
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Coordinator) Ledger() *Ledger { return c.ledger }

func (c *Coordinator) Stats() *Stats { return &c.stats }

// Snapshot 当前进度, 不阻塞 worker
func (c *Coordinator) Snapshot() Progress { return c.ledger.Snapshot() }

// Run 填充队列并执行扫描, 每轮结束后校验是否所有端口都已标记;
// 存在遗漏时只对遗漏端口重新开一轮. ctx 取消时立即返回 ErrCancelled, 不做校验.
func (c *Coordinator) Run(ctx context.Context) error {
	c.setState(StateFilling)
	ports := c.cfg.Ports
	if ports == nil {
		ports = Universe()
	}
	c.ledger.Fill(ports)

	for pass := 1; ; pass++ {
		c.setState(StateScanning)
		if err := c.runPass(ctx, pass); err != nil {
			c.setState(StateCancelled)
			c.logger.Debug("scan cancelled", c.stats.LogAttrs()...)
			return err
		}

		c.setState(StateVerifying)
		gaps := c.ledger.Gaps()
		if len(gaps) == 0 {
			c.setState(StateDone)
			c.logger.Debug("scan finished", c.stats.LogAttrs()...)
			return nil
		}
		if c.cfg.MaxPasses > 0 && pass >= c.cfg.MaxPasses {
			c.setState(StateIncomplete)
			return fmt.Errorf("%w: %d ports unscanned after %d passes", ErrIncomplete, len(gaps), pass)
		}

		c.console.RestartWarning()
		n := c.ledger.Refill(gaps)
		c.logger.Debug("requeued unscanned ports", "pass", pass, "ports", n)
	}
}

// runPass 启动 Threads 个 worker 并等待全部退出.
// worker 数量本身就是并发上限, 不再额外限流.
func (c *Coordinator) runPass(ctx context.Context, pass int) error {
	c.stats.Passes.Inc()
	c.logger.Debug("scan pass started", "pass", pass, "target", c.cfg.Target,
		"proxy", redactProxy(c.cfg.Proxy), "workers", c.cfg.Threads,
		"queued", c.ledger.Snapshot().Remaining)

	var g errgroup.Group
	for i := 0; i < c.cfg.Threads; i++ {
		g.Go(func() error {
			return c.runWorker(ctx)
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case <-ctx.Done():
		return ErrCancelled
	case <-done:
	}
	if ctx.Err() != nil {
		return ErrCancelled
	}
	return nil
}

// redactProxy 隐去代理地址中的密码, 无法解析时原样返回
func redactProxy(raw string) string {
	u, err := ParseProxyURL(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}

// Summary 去重后输出开放端口列表, 仅在 Done 状态下可用
func (c *Coordinator) Summary() ([]int, error) {
	if s := c.State(); s != StateDone {
		return nil, fmt.Errorf("summary unavailable in state %s", s)
	}
	ports := c.ledger.OpenPorts()
	c.console.Summary(ports)
	return ports, nil
}
