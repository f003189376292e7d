package portscan

import (
	"sort"
	"sync"
)

// Ledger 持有一次扫描的共享状态: 待扫描队列、已扫描集合与开放端口列表.
// 三者共用同一把锁, 进度读取也在这把锁下完成, 避免快照撕裂.
type Ledger struct {
	mu       sync.Mutex
	universe []int
	queue    []int
	head     int
	scanned  map[int]struct{}
	open     []int
}

// NewLedger 创建空账本
func NewLedger() *Ledger {
	return &Ledger{scanned: make(map[int]struct{})}
}

// Fill 以给定端口集合(去重后升序)填满队列, 并将其作为本次扫描的全集.
func (l *Ledger) Fill(ports []int) {
	uniq := sortedUnique(ports)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.universe = uniq
	l.queue = append([]int(nil), uniq...)
	l.head = 0
	l.scanned = make(map[int]struct{}, len(uniq))
	l.open = nil
}

// Take 取出队首端口; 队列耗尽时 ok 为 false.
func (l *Ledger) Take() (port int, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.head >= len(l.queue) {
		return 0, false
	}
	port = l.queue[l.head]
	l.head++
	return port, true
}

// Refill 将队列重置为给定端口中尚未扫描的部分, 返回入队数量.
// 已记录为已扫描的端口不会再次入队.
func (l *Ledger) Refill(remaining []int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := make([]int, 0, len(remaining))
	for _, p := range sortedUnique(remaining) {
		if _, done := l.scanned[p]; done {
			continue
		}
		q = append(q, p)
	}
	l.queue = q
	l.head = 0
	return len(q)
}

// MarkScanned 记录端口已完成一次探测, 重复记录无副作用.
func (l *Ledger) MarkScanned(port int) {
	l.mu.Lock()
	l.scanned[port] = struct{}{}
	l.mu.Unlock()
}

// RecordOpen 追加开放端口. announce 在同一临界区内执行, 保证输出与记录的顺序一致.
func (l *Ledger) RecordOpen(port int, announce func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if announce != nil {
		announce()
	}
	l.open = append(l.open, port)
}

// Snapshot 在同一临界区内读取已扫描数量与剩余数量
func (l *Ledger) Snapshot() Progress {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Progress{
		Scanned:   len(l.scanned),
		Remaining: len(l.queue) - l.head,
		Total:     len(l.universe),
	}
}

// Gaps 返回全集中仍未标记为已扫描的端口(含仍在队列中的端口)
func (l *Ledger) Gaps() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var gaps []int
	for _, p := range l.universe {
		if _, done := l.scanned[p]; !done {
			gaps = append(gaps, p)
		}
	}
	return gaps
}

// Scanned 返回已扫描端口的升序副本
func (l *Ledger) Scanned() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]int, 0, len(l.scanned))
	for p := range l.scanned {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// RawOpen 返回按发现顺序排列的开放端口(可能含重复)
func (l *Ledger) RawOpen() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.open...)
}

// OpenPorts 返回去重并升序排列的开放端口
func (l *Ledger) OpenPorts() []int {
	return sortedUnique(l.RawOpen())
}

func sortedUnique(ports []int) []int {
	seen := make(map[int]struct{}, len(ports))
	out := make([]int, 0, len(ports))
	for _, p := range ports {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
