package execution

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewPerformanceMetrics()

	m.RecordOrder(10, true)
	m.RecordOrder(20, true)
	m.RecordOrder(30, false)

	snap := m.Snapshot(5)
	assert.Equal(t, uint64(3), snap.TotalOrdersProcessed)
	assert.Equal(t, uint64(2), snap.SuccessfulExecutions)
	assert.Equal(t, uint64(1), snap.FailedExecutions)
	assert.Equal(t, snap.TotalOrdersProcessed, snap.SuccessfulExecutions+snap.FailedExecutions)
	assert.Equal(t, uint64(5), snap.ActiveOrders)
	assert.InDelta(t, 20.0, snap.AverageLatencyMicros, 1e-9)
}

func TestMetricsP99(t *testing.T) {
	m := NewPerformanceMetrics()

	for i := int64(1); i <= 100; i++ {
		m.RecordOrder(i, true)
	}

	snap := m.Snapshot(0)
	// sorted[int(100*0.99)] = sorted[99] = 100
	assert.Equal(t, 100.0, snap.P99LatencyMicros)
}

func TestMetricsP99SingleSample(t *testing.T) {
	m := NewPerformanceMetrics()
	m.RecordOrder(42, true)

	snap := m.Snapshot(0)
	assert.Equal(t, 42.0, snap.P99LatencyMicros)
}

func TestMetricsWindowTruncation(t *testing.T) {
	m := NewPerformanceMetrics()

	// push the old low samples out of the window
	for i := 0; i < maxLatencySamples; i++ {
		m.RecordOrder(1, true)
	}
	for i := 0; i < maxLatencySamples; i++ {
		m.RecordOrder(1000, true)
	}

	snap := m.Snapshot(0)
	assert.Equal(t, uint64(2*maxLatencySamples), snap.TotalOrdersProcessed)
	assert.Equal(t, 1000.0, snap.P99LatencyMicros)
}

func TestMetricsVolume(t *testing.T) {
	m := NewPerformanceMetrics()

	m.RecordVolume(100, PriceFromFloat(150))
	m.RecordVolume(10, PriceFromFloat(2500))

	assert.True(t, m.TotalVolume().Equal(decimal.NewFromInt(40_000)))
}

func TestMetricsReset(t *testing.T) {
	m := NewPerformanceMetrics()

	m.RecordOrder(10, true)
	m.RecordVolume(100, PriceFromFloat(150))
	m.RecordMemoryUsage(1 << 20)
	m.RecordCPUUsage(42.5)
	m.Reset()

	snap := m.Snapshot(0)
	assert.Zero(t, snap.TotalOrdersProcessed)
	assert.Zero(t, snap.P99LatencyMicros)
	assert.Zero(t, snap.MemoryUsageBytes)
	assert.Zero(t, snap.CPUUsagePercent)
	assert.True(t, m.TotalVolume().IsZero())
}

func TestMetricsConcurrentRecording(t *testing.T) {
	m := NewPerformanceMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				m.RecordOrder(int64(j), j%2 == 0)
			}
		}()
	}
	wg.Wait()

	snap := m.Snapshot(0)
	assert.Equal(t, uint64(4000), snap.TotalOrdersProcessed)
	assert.Equal(t, snap.TotalOrdersProcessed, snap.SuccessfulExecutions+snap.FailedExecutions)
}
