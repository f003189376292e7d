package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

// Configure 初始化共享的诊断日志, 输出到 w. 仅第一次调用生效.
func Configure(w io.Writer, verbose bool) *slog.Logger {
	once.Do(func() {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	})
	return logger
}

// Logger 返回共享日志, 未配置时按默认参数输出到 stderr
func Logger() *slog.Logger {
	return Configure(os.Stderr, false)
}
