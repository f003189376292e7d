package portscan

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Console 面向用户的行输出, 所有写入串行化
type Console struct {
	mu           sync.Mutex
	w            io.Writer
	lastProgress int
	green        *color.Color
	yellow       *color.Color
}

// NewConsole 创建输出到 w 的控制台
func NewConsole(w io.Writer) *Console {
	return &Console{
		w:      w,
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
	}
}

func (c *Console) UsingProxy(proxyAddr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "Using proxy address %s\n", proxyAddr)
}

// OpenPort 发现开放端口时立即输出
func (c *Console) OpenPort(target string, port, code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.green.Fprintf(c.w, "%s %d seems OPEN (HTTP %d)\n", target, port, code)
}

func (c *Console) Interrupted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, "\nScan interrupted by user. Exiting...")
}

func (c *Console) RestartWarning() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.yellow.Fprintln(c.w, "\nWarning: Some ports were not scanned, restarting the scan for the remaining ports.")
}

// Progress 原地覆盖上一条进度行
func (c *Console) Progress(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\r%s\r%s", strings.Repeat(" ", c.lastProgress), line)
	c.lastProgress = len(line)
}

// Summary 输出最终的开放端口列表, ports 须已去重排序
func (c *Console) Summary(ports []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, "\n\nScan complete. Summary of open ports:")
	if len(ports) == 0 {
		fmt.Fprintln(c.w, "No open ports found.")
		return
	}
	for _, p := range ports {
		fmt.Fprintf(c.w, "Port %d is open.\n", p)
	}
}

// Writer 返回持有 Console 锁写入的 io.Writer, 供进度条等外部组件使用
func (c *Console) Writer() io.Writer {
	return lockedWriter{c}
}

type lockedWriter struct {
	c *Console
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.w.Write(p)
}

// ProgressLine 格式化进度行
func ProgressLine(p Progress) string {
	return fmt.Sprintf("Progress: %d ports scanned, %d remaining. %.2f%% completed.",
		p.Scanned, p.Remaining, p.Percentage())
}
