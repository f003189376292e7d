package portscan

import (
	"context"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// Snapshotter 提供进度快照
type Snapshotter interface {
	Snapshot() Progress
}

// Renderer 将进度快照呈现给用户
type Renderer interface {
	Render(p Progress)
}

// LineRenderer 输出可原地覆盖的单行进度
type LineRenderer struct {
	Console *Console
}

func (r LineRenderer) Render(p Progress) {
	r.Console.Progress(ProgressLine(p))
}

// BarRenderer 以进度条形式呈现
type BarRenderer struct {
	bar *progressbar.ProgressBar
}

// NewBarRenderer 创建总量为 total 的进度条
func NewBarRenderer(w io.Writer, total int) *BarRenderer {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan]scanning[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &BarRenderer{bar: bar}
}

func (r *BarRenderer) Render(p Progress) {
	r.bar.Describe(fmt.Sprintf("[cyan]%d remaining[reset]", p.Remaining))
	_ = r.bar.Set(p.Scanned)
}

// Reporter 按触发事件输出进度快照, 独立于 worker 运行
type Reporter struct {
	source   Snapshotter
	renderer Renderer
}

// NewReporter 创建进度报告器
func NewReporter(source Snapshotter, renderer Renderer) *Reporter {
	return &Reporter{source: source, renderer: renderer}
}

// Run 每个触发事件输出一次快照, ctx 取消或触发源关闭时返回已输出的快照数
func (r *Reporter) Run(ctx context.Context, trigger Trigger) int {
	n := 0
	for {
		select {
		case <-ctx.Done():
			return n
		case _, ok := <-trigger:
			if !ok {
				return n
			}
			r.renderer.Render(r.source.Snapshot())
			n++
		}
	}
}
