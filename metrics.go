package execution

import (
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfabric/execution-engine/ffi"
)

// maxLatencySamples caps the rolling window used for P99.
const maxLatencySamples = 10_000

// PerformanceMetrics aggregates counters and a bounded rolling window
// of per-order latency samples. Counters are atomic; the sample buffer
// and the volume accumulator share one mutex.
type PerformanceMetrics struct {
	totalProcessed   atomic.Uint64
	successful       atomic.Uint64
	failed           atomic.Uint64
	latencySumMicros atomic.Int64
	memoryBytes      atomic.Uint64
	cpuBits          atomic.Uint64 // float64 bits

	mu      sync.Mutex
	samples []int64
	volume  decimal.Decimal
	start   time.Time
}

// NewPerformanceMetrics starts the uptime clock.
func NewPerformanceMetrics() *PerformanceMetrics {
	return &PerformanceMetrics{
		samples: make([]int64, 0, maxLatencySamples),
		volume:  decimal.Zero,
		start:   time.Now(),
	}
}

// RecordOrder counts one processed order and stores its latency
// sample. When the window overflows, the oldest samples are truncated
// so the newest maxLatencySamples remain.
func (m *PerformanceMetrics) RecordOrder(latencyMicros int64, success bool) {
	m.totalProcessed.Add(1)
	m.latencySumMicros.Add(latencyMicros)
	if success {
		m.successful.Add(1)
	} else {
		m.failed.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, latencyMicros)
	if len(m.samples) > maxLatencySamples {
		m.samples = append(m.samples[:0], m.samples[len(m.samples)-maxLatencySamples:]...)
	}
}

// RecordVolume accumulates executed notional (quantity times average
// fill price).
func (m *PerformanceMetrics) RecordVolume(quantity float64, avgPrice Price) {
	notional := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(avgPrice.Float64()))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = m.volume.Add(notional)
}

// TotalVolume returns the accumulated notional.
func (m *PerformanceMetrics) TotalVolume() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// RecordMemoryUsage stores the latest memory reading.
func (m *PerformanceMetrics) RecordMemoryUsage(bytes uint64) {
	m.memoryBytes.Store(bytes)
}

// RecordCPUUsage stores the latest CPU reading.
func (m *PerformanceMetrics) RecordCPUUsage(percent float64) {
	m.cpuBits.Store(math.Float64bits(percent))
}

// Snapshot computes the boundary metrics record. The active-orders
// count is owned by the engine and stamped in; during live workloads it
// is a point-in-time estimate.
func (m *PerformanceMetrics) Snapshot(activeOrders uint64) ffi.EngineMetrics {
	var out ffi.EngineMetrics
	out.TotalOrdersProcessed = m.totalProcessed.Load()
	out.SuccessfulExecutions = m.successful.Load()
	out.FailedExecutions = m.failed.Load()
	out.ActiveOrders = activeOrders
	out.MemoryUsageBytes = m.memoryBytes.Load()
	out.CPUUsagePercent = math.Float64frombits(m.cpuBits.Load())

	m.mu.Lock()
	defer m.mu.Unlock()

	uptime := time.Since(m.start)
	out.UptimeSeconds = int64(uptime.Seconds())

	if out.TotalOrdersProcessed > 0 {
		out.AverageLatencyMicros = float64(m.latencySumMicros.Load()) / float64(out.TotalOrdersProcessed)
		if out.UptimeSeconds > 0 {
			out.OrdersPerSecond = float64(out.TotalOrdersProcessed) / float64(out.UptimeSeconds)
		}
	}

	if len(m.samples) > 0 {
		sorted := make([]int64, len(m.samples))
		copy(sorted, m.samples)
		slices.Sort(sorted)
		idx := int(float64(len(sorted)) * 0.99)
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		out.P99LatencyMicros = float64(sorted[idx])
	}

	return out
}

// Reset zeroes every counter, clears the sample window and restarts
// the uptime clock.
func (m *PerformanceMetrics) Reset() {
	m.totalProcessed.Store(0)
	m.successful.Store(0)
	m.failed.Store(0)
	m.latencySumMicros.Store(0)
	m.memoryBytes.Store(0)
	m.cpuBits.Store(0)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = m.samples[:0]
	m.volume = decimal.Zero
	m.start = time.Now()
}
