package metrics

// CheckoutStats counts checkout outcomes. The zero value is ready to use and
// a nil *CheckoutStats ignores every call.
type CheckoutStats struct {
	Succeeded Counter
	Conflicts Counter
	Failed    Counter
	Retried   Counter
	Replayed  Counter
	Orders    Counter
	Latency   Latency
}

func NewCheckoutStats() *CheckoutStats {
	return &CheckoutStats{}
}

func (s *CheckoutStats) RecordSuccess(orders int, t *Timer) {
	if s == nil {
		return
	}
	s.Succeeded.Inc()
	s.Orders.Add(uint64(orders))
	s.Latency.Observe(t.Duration())
}

func (s *CheckoutStats) RecordConflict() {
	if s == nil {
		return
	}
	s.Conflicts.Inc()
}

func (s *CheckoutStats) RecordFailure() {
	if s == nil {
		return
	}
	s.Failed.Inc()
}

func (s *CheckoutStats) RecordRetry() {
	if s == nil {
		return
	}
	s.Retried.Inc()
}

func (s *CheckoutStats) RecordReplay() {
	if s == nil {
		return
	}
	s.Replayed.Inc()
}

type Snapshot struct {
	Succeeded    uint64  `json:"checkouts_succeeded"`
	Conflicts    uint64  `json:"checkouts_conflicted"`
	Failed       uint64  `json:"checkouts_failed"`
	Retried      uint64  `json:"checkouts_retried"`
	Replayed     uint64  `json:"checkouts_replayed"`
	Orders       uint64  `json:"orders_created"`
	AvgLatencyMs float64 `json:"avg_checkout_latency_ms"`
}

func (s *CheckoutStats) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	return Snapshot{
		Succeeded:    s.Succeeded.Load(),
		Conflicts:    s.Conflicts.Load(),
		Failed:       s.Failed.Load(),
		Retried:      s.Retried.Load(),
		Replayed:     s.Replayed.Load(),
		Orders:       s.Orders.Load(),
		AvgLatencyMs: float64(s.Latency.Average().Microseconds()) / 1000,
	}
}
