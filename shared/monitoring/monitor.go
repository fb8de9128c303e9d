package monitoring

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	runs           int
	partials       int
	failures       int
	now            func() time.Time
}

func NewMonitor() *Monitor {
	return &Monitor{now: time.Now}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = m.now()
	m.lastSummary = summary
	m.runs++
	m.mu.Unlock()

	slog.Info(fmt.Sprintf("✅ Run completed successfully - %s (took %v)", summary, duration))
}

// RecordPartialFailure does not change the health status.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.partials++
	m.mu.Unlock()

	slog.Warn(fmt.Sprintf("⚠️  PARTIAL FAILURE: %s (Duration: %v)", err.Error(), duration))
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = m.now()
	m.lastSummary = err.Error()
	m.runs++
	m.failures++
	at := m.lastRunTime
	m.mu.Unlock()

	slog.Error(fmt.Sprintf("🚨 CRITICAL FAILURE: %s (Duration: %v)", err.Error(), duration),
		"failed_at", at.Format("2006-01-02 15:04:05"))
}

// IsHealthy is true before the first run and after a successful one.
func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}

	status := fmt.Sprintf("✅ Last run: %s", m.lastRunTime.Format("Jan 2 15:04"))
	if !m.lastRunSuccess {
		status = fmt.Sprintf("❌ Last run failed: %s", m.lastRunTime.Format("Jan 2 15:04"))
	}
	return fmt.Sprintf("%s - %s (%d runs, %d failed, %d partial)", status, m.lastSummary, m.runs, m.failures, m.partials)
}
