package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"SposeGo/internal/portscan"
)

const (
	DefaultThreads = 100
	DefaultTimeout = 10 * time.Second
)

// 环境变量名, 优先级低于命令行参数
const (
	EnvTarget   = "SPOSE_TARGET"
	EnvProxy    = "SPOSE_PROXY"
	EnvThreads  = "SPOSE_THREADS"
	EnvTimeout  = "SPOSE_TIMEOUT"
	EnvInterval = "SPOSE_INTERVAL"
)

// ErrUsage 参数无法解析、缺少必填参数或请求帮助, 错误与用法说明已输出
var ErrUsage = errors.New("usage")

// Config 一次运行的完整配置, Load 返回后不再修改
type Config struct {
	Target    string
	Proxy     string
	Threads   int
	Timeout   time.Duration
	Interval  time.Duration
	Bar       bool
	MaxPasses int
	Verbose   bool
}

// Engine 转换为扫描引擎配置
func (c Config) Engine() portscan.Config {
	return portscan.Config{
		Target:    c.Target,
		Proxy:     c.Proxy,
		Threads:   c.Threads,
		Timeout:   c.Timeout,
		MaxPasses: c.MaxPasses,
	}
}

// Environ 读取 dotenvPath 与进程环境变量, 进程环境变量覆盖文件中的同名项.
// 文件不存在不算错误.
func Environ(dotenvPath string) (map[string]string, error) {
	env := make(map[string]string)
	if dotenvPath != "" {
		vals, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			for k, v := range vals {
				env[k] = v
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", dotenvPath, err)
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env, nil
}

// Load 解析命令行参数, env 提供默认值
func Load(args []string, env map[string]string, out io.Writer) (Config, error) {
	threads, err := envInt(env, EnvThreads, DefaultThreads)
	if err != nil {
		return Config{}, err
	}
	timeoutSec, err := envInt(env, EnvTimeout, int(DefaultTimeout/time.Second))
	if err != nil {
		return Config{}, err
	}
	intervalSec, err := envInt(env, EnvInterval, 0)
	if err != nil {
		return Config{}, err
	}

	flags := flag.NewFlagSet("sposeGo", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() {
		fmt.Fprintln(out, "Usage: sposeGo --target <host> --proxy <http://host:3128> [options]")
		fmt.Fprintln(out, "\nSquid Pivoting Open Port Scanner")
		fmt.Fprintln(out, "\nOptions:")
		flags.PrintDefaults()
		fmt.Fprintln(out, "\nPress Enter during the scan to print progress.")
	}

	var cfg Config
	flags.StringVar(&cfg.Target, "target", env[EnvTarget], "Define target IP behind proxy")
	flags.StringVar(&cfg.Proxy, "proxy", env[EnvProxy], "Define proxy address url (http://xxx:3128)")
	flags.IntVar(&cfg.Threads, "threads", threads, "Number of threads")
	flags.IntVar(&timeoutSec, "timeout", timeoutSec, "Set request timeout in seconds")
	flags.IntVar(&intervalSec, "interval", intervalSec, "Also print progress every N seconds (0 = only on Enter)")
	flags.BoolVar(&cfg.Bar, "bar", false, "Render progress as a bar")
	flags.IntVar(&cfg.MaxPasses, "max-passes", 0, "Give up after N scan passes (0 = unlimited)")
	flags.BoolVar(&cfg.Verbose, "v", false, "Verbose diagnostics on stderr")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Config{}, ErrUsage
		}
		// flag 包已将错误与用法输出到 out
		return Config{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if cfg.Target == "" || cfg.Proxy == "" {
		flags.Usage()
		return Config{}, ErrUsage
	}
	cfg.Timeout = time.Duration(timeoutSec) * time.Second
	cfg.Interval = time.Duration(intervalSec) * time.Second

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 校验取值范围
func (c Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second, got %s", c.Timeout)
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must not be negative, got %s", c.Interval)
	}
	if c.MaxPasses < 0 {
		return fmt.Errorf("max-passes must not be negative, got %d", c.MaxPasses)
	}
	if _, err := portscan.ParseProxyURL(c.Proxy); err != nil {
		return err
	}
	return nil
}

func envInt(env map[string]string, key string, fallback int) (int, error) {
	raw, ok := env[key]
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s is not a number: %q", key, raw)
	}
	return v, nil
}
