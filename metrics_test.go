package ledgauth

import (
	"sync"
	"testing"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := newMetrics()

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Add(MetricGrantsSwept, 5)

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatalf("expected login success 2, got %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricGrantsSwept] != 5 {
		t.Fatalf("expected swept 5, got %d", snap.Counters[MetricGrantsSwept])
	}
	if snap.Counters[MetricRevoke] != 0 {
		t.Fatalf("expected untouched counter 0, got %d", snap.Counters[MetricRevoke])
	}
	if len(snap.Counters) != int(metricCount) {
		t.Fatalf("expected every counter in the snapshot, got %d", len(snap.Counters))
	}
}

func TestMetricsUnknownIDIgnored(t *testing.T) {
	m := newMetrics()
	m.Inc(metricCount + 10)
	m.Add(metricCount, 3)

	for id, v := range m.Snapshot().Counters {
		if v != 0 {
			t.Fatalf("expected counter %d to stay zero, got %d", id, v)
		}
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)
	m.Add(MetricGrantsSwept, 1)

	snap := m.Snapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot from nil metrics, got %v", snap.Counters)
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := newMetrics()

	var wg sync.WaitGroup
	const workers = 8
	const perWorker = 1000
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricRefreshSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Counters[MetricRefreshSuccess]; got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}

func TestMetricsDisabledEngine(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false
	engine := newTestEngine(t, cfg, newFakeUserStore(), newFakeGrantStore(nil))

	snap := engine.MetricsSnapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot with metrics disabled, got %v", snap.Counters)
	}
}
