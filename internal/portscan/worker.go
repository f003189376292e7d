package portscan

import (
	"context"
	"fmt"
)

// runWorker 队列非空且未取消时持续取端口探测.
// 取消只阻止领取新端口, 正在进行的探测会执行完毕.
func (c *Coordinator) runWorker(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		port, ok := c.source.Take()
		if !ok {
			return nil
		}
		c.scanOne(ctx, port)
	}
}

// scanOne 无论结论如何, 端口都会被标记为已扫描
func (c *Coordinator) scanOne(ctx context.Context, port int) {
	defer c.ledger.MarkScanned(port)

	v := c.probe(ctx, port)
	c.stats.record(v)
	if v.IsOpen() {
		c.ledger.RecordOpen(port, func() {
			c.console.OpenPort(c.cfg.Target, port, v.Code)
		})
	}
}

func (c *Coordinator) probe(ctx context.Context, port int) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("probe fault recovered", "port", port, "panic", r)
			v = Failed(fmt.Errorf("probe of port %d panicked: %v", port, r))
		}
	}()
	return c.prober.Probe(ctx, port)
}
