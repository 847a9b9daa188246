package ledgauth

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts completed logins, including MFA logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts credential failures.
	MetricLoginFailure
	// MetricLoginRateLimited counts logins rejected by the cooldown flag.
	MetricLoginRateLimited
	// MetricMFAChallengeIssued counts logins answered with an MFA challenge.
	MetricMFAChallengeIssued
	// MetricMFAFailure counts rejected one-time codes.
	MetricMFAFailure
	// MetricBackupCodeUsed counts logins completed with a backup code.
	MetricBackupCodeUsed
	// MetricRefreshSuccess counts successful token rotations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts refresh attempts that failed validation.
	MetricRefreshFailure
	// MetricRefreshReuseDetected counts refreshes whose grant no longer
	// resolved, the signature of a replayed refresh token.
	MetricRefreshReuseDetected
	// MetricRevoke counts single-grant revocations.
	MetricRevoke
	// MetricRevokeAll counts whole-account revocations.
	MetricRevokeAll
	// MetricRegister counts created accounts.
	MetricRegister
	// MetricGrantsSwept counts grants removed by the expiry sweep.
	MetricGrantsSwept

	metricCount
)

// Metrics is a fixed set of atomic counters. All methods are safe for
// concurrent use and never block.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

// Inc adds one to the counter. Unknown ids are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Add adds delta to the counter. Unknown ids are ignored.
func (m *Metrics) Add(id MetricID, delta uint64) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(delta)
}

// Snapshot copies every counter into a fresh map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snapshot := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil {
		return snapshot
	}
	for id := MetricID(0); id < metricCount; id++ {
		snapshot.Counters[id] = m.counters[id].Load()
	}
	return snapshot
}
