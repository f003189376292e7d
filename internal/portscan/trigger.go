package portscan

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"
)

// Trigger 外部"请求快照"事件流, 每个事件对应一次快照
type Trigger <-chan struct{}

// LineTrigger 每从 in 读到一行触发一次, 读到 EOF 或 ctx 取消时关闭
func LineTrigger(ctx context.Context, in io.Reader) Trigger {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case ch <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// TickerTrigger 按固定间隔触发
func TickerTrigger(ctx context.Context, every time.Duration) Trigger {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case ch <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}

// MergeTriggers 合并多个触发源, 全部关闭后输出通道关闭. nil 源被忽略.
func MergeTriggers(ctx context.Context, sources ...Trigger) Trigger {
	out := make(chan struct{})
	var wg sync.WaitGroup
	for _, src := range sources {
		if src == nil {
			continue
		}
		wg.Add(1)
		go func(src Trigger) {
			defer wg.Done()
			for range src {
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}(src)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
