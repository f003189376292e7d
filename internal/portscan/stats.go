package portscan

import "go.uber.org/atomic"

// Stats 扫描过程中的计数器, 供调试日志使用
type Stats struct {
	Probes          atomic.Int64
	Open            atomic.Int64
	TransportErrors atomic.Int64
	Faults          atomic.Int64
	Passes          atomic.Int32
}

func (s *Stats) record(v Verdict) {
	s.Probes.Inc()
	switch {
	case v.Kind == VerdictOpen:
		s.Open.Inc()
	case v.Kind == VerdictClosed && v.Err != nil:
		s.TransportErrors.Inc()
	case v.Kind == VerdictError:
		s.Faults.Inc()
	}
}

// LogAttrs 以 slog 键值对形式导出计数
func (s *Stats) LogAttrs() []any {
	return []any{
		"probes", s.Probes.Load(),
		"open", s.Open.Load(),
		"transport_errors", s.TransportErrors.Load(),
		"faults", s.Faults.Load(),
		"passes", s.Passes.Load(),
	}
}
