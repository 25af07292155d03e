package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/livefir/anchor"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector counts node reads and recoveries. It implements anchor.Observer
// and mirrors every recovery into prometheus.
type Collector struct {
	recoveryMetrics *RecoveryMetrics
	mu              sync.RWMutex
	startTime       time.Time

	recoveries *prometheus.CounterVec
	descent    prometheus.Histogram
}

var _ anchor.Observer = (*Collector)(nil)

// RecoveryMetrics is a point-in-time copy of the collector's totals.
type RecoveryMetrics struct {
	// Reads through a strategy, whether or not they needed recovery
	Reads int64 `json:"reads"`

	// Recovery attempts and how they ended
	Attempts    int64 `json:"attempts"`
	Exact       int64 `json:"exact"`
	Ancestor    int64 `json:"ancestor"`
	Unrecovered int64 `json:"unrecovered"`

	// Child links followed below the surviving ancestor, summed
	LevelsDescended int64 `json:"levels_descended"`

	// Uptime
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
}

// NewCollector creates a collector and registers its prometheus metrics on
// reg under namespace. A nil reg uses prometheus.DefaultRegisterer.
func NewCollector(namespace string, reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		recoveryMetrics: &RecoveryMetrics{
			StartTime: time.Now(),
		},
		startTime: time.Now(),
		recoveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recoveries_total",
				Help:      "Stale node recoveries by strategy kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		descent: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recovery_descent_levels",
				Help:      "Child links followed below the surviving ancestor per recovery",
				Buckets:   prometheus.LinearBuckets(0, 1, 10),
			},
		),
	}

	for _, collector := range []prometheus.Collector{c.recoveries, c.descent} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register recovery metrics: %w", err)
		}
	}
	return c, nil
}

// IncrementRead records a read through a strategy.
func (c *Collector) IncrementRead() {
	atomic.AddInt64(&c.recoveryMetrics.Reads, 1)
}

// ObserveRecovery records one recovery attempt.
func (c *Collector) ObserveRecovery(e anchor.Event) {
	atomic.AddInt64(&c.recoveryMetrics.Attempts, 1)
	atomic.AddInt64(&c.recoveryMetrics.LevelsDescended, int64(e.Descended))

	switch e.Outcome {
	case anchor.OutcomeExact:
		atomic.AddInt64(&c.recoveryMetrics.Exact, 1)
	case anchor.OutcomeAncestor:
		atomic.AddInt64(&c.recoveryMetrics.Ancestor, 1)
	default:
		atomic.AddInt64(&c.recoveryMetrics.Unrecovered, 1)
	}

	c.recoveries.WithLabelValues(e.Kind.String(), e.Outcome.String()).Inc()
	c.descent.Observe(float64(e.Descended))
}

// GetMetrics returns current recovery metrics
func (c *Collector) GetMetrics() RecoveryMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return RecoveryMetrics{
		Reads:           atomic.LoadInt64(&c.recoveryMetrics.Reads),
		Attempts:        atomic.LoadInt64(&c.recoveryMetrics.Attempts),
		Exact:           atomic.LoadInt64(&c.recoveryMetrics.Exact),
		Ancestor:        atomic.LoadInt64(&c.recoveryMetrics.Ancestor),
		Unrecovered:     atomic.LoadInt64(&c.recoveryMetrics.Unrecovered),
		LevelsDescended: atomic.LoadInt64(&c.recoveryMetrics.LevelsDescended),
		StartTime:       c.recoveryMetrics.StartTime,
		Uptime:          time.Since(c.startTime),
	}
}

// Reset zeroes the totals. Prometheus counters are monotonic and keep counting.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	atomic.StoreInt64(&c.recoveryMetrics.Reads, 0)
	atomic.StoreInt64(&c.recoveryMetrics.Attempts, 0)
	atomic.StoreInt64(&c.recoveryMetrics.Exact, 0)
	atomic.StoreInt64(&c.recoveryMetrics.Ancestor, 0)
	atomic.StoreInt64(&c.recoveryMetrics.Unrecovered, 0)
	atomic.StoreInt64(&c.recoveryMetrics.LevelsDescended, 0)

	c.startTime = time.Now()
	c.recoveryMetrics.StartTime = c.startTime
}

// RecoveryRate returns the percentage of attempts that produced a live node.
func (c *Collector) RecoveryRate() float64 {
	attempts := atomic.LoadInt64(&c.recoveryMetrics.Attempts)
	unrecovered := atomic.LoadInt64(&c.recoveryMetrics.Unrecovered)

	if attempts == 0 {
		return 100.0 // nothing went stale
	}

	return float64(attempts-unrecovered) / float64(attempts) * 100.0
}

// AverageDescent returns the mean number of levels descended per attempt.
func (c *Collector) AverageDescent() float64 {
	attempts := atomic.LoadInt64(&c.recoveryMetrics.Attempts)
	levels := atomic.LoadInt64(&c.recoveryMetrics.LevelsDescended)

	if attempts == 0 {
		return 0.0
	}

	return float64(levels) / float64(attempts)
}
