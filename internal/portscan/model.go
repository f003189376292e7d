package portscan

import "fmt"

const (
	MinPort = 1
	MaxPort = 65535
	// TotalPorts 全端口扫描的端口总数
	TotalPorts = MaxPort - MinPort + 1
)

// VerdictKind 单次探测的三态结论
type VerdictKind int

const (
	VerdictClosed VerdictKind = iota // 关闭 (含传输层错误、代理错误页)
	VerdictOpen                      // 开放, 附带 HTTP 状态码
	VerdictError                     // 不确定 (读取失败、探测内部故障)
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictOpen:
		return "open"
	case VerdictClosed:
		return "closed"
	case VerdictError:
		return "error"
	default:
		return fmt.Sprintf("VerdictKind(%d)", int(k))
	}
}

// Verdict 探测结果
type Verdict struct {
	Kind VerdictKind
	Code int
	Err  error
}

// Open 构造开放结论
func Open(code int) Verdict { return Verdict{Kind: VerdictOpen, Code: code} }

// Closed 构造关闭结论
func Closed() Verdict { return Verdict{Kind: VerdictClosed} }

// Failed 构造不确定结论
func Failed(err error) Verdict { return Verdict{Kind: VerdictError, Err: err} }

func (v Verdict) IsOpen() bool { return v.Kind == VerdictOpen }

// State 协调器生命周期状态
type State int

const (
	StateFilling State = iota
	StateScanning
	StateVerifying
	StateDone
	StateCancelled
	StateIncomplete
)

func (s State) String() string {
	switch s {
	case StateFilling:
		return "filling"
	case StateScanning:
		return "scanning"
	case StateVerifying:
		return "verifying"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateIncomplete:
		return "incomplete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Progress 进度快照, scanned 与 remaining 在同一临界区内读取
type Progress struct {
	Scanned   int
	Remaining int
	Total     int
}

// Percentage 已扫描端口占全部端口的百分比
func (p Progress) Percentage() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Scanned) / float64(p.Total) * 100
}

// Universe 返回 1..65535 的升序端口列表
func Universe() []int {
	ports := make([]int, 0, TotalPorts)
	for p := MinPort; p <= MaxPort; p++ {
		ports = append(ports, p)
	}
	return ports
}
