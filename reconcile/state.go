// Package reconcile runs the daily knowledge-base consistency cycle:
// drain the pending buffer, merge it into the archive, rebuild the
// similarity index, and only then clear the buffer.
package reconcile

import (
	"fmt"
	"sync"
	"time"

	"signalbot/types"
)

// State names the phase the reconciliation cycle is in.
type State string

const (
	StateIdle       State = "idle"
	StateDraining   State = "draining"
	StateMerging    State = "merging"
	StateReindexing State = "reindexing"
	StateCleanup    State = "cleanup"
	StateError      State = "error"
)

// LogEntry is one line of cycle progress.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// StatusResponse is the snapshot served by the status endpoint.
type StatusResponse struct {
	State       State             `json:"state"`
	Logs        []LogEntry        `json:"logs"`
	LastRunAt   *time.Time        `json:"last_run_at,omitempty"`
	LastMerge   types.MergeReport `json:"last_merge"`
	DrainedRows int               `json:"drained_rows"`
	Error       string            `json:"error,omitempty"`
}

// Manager holds reconciliation state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	currentState State
	logs         []LogEntry
	maxLogs      int
	lastErr      error
	lastRunAt    *time.Time
	lastMerge    types.MergeReport
	drainedRows  int
}

// NewManager creates a state manager starting idle.
func NewManager() *Manager {
	return &Manager{
		currentState: StateIdle,
		logs:         make([]LogEntry, 0),
		maxLogs:      50, // Keep last 50 log entries
	}
}

// AddLog adds a log entry (thread-safe)
func (m *Manager) AddLog(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLog(message)
}

// SetState sets the current state (thread-safe)
func (m *Manager) SetState(state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = state
}

// GetState gets the current state (thread-safe)
func (m *Manager) GetState() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState
}

// SetError records the failure and moves to the error state. The pending
// buffer is untouched at this point, so the next cycle retries everything.
func (m *Manager) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = StateError
	m.lastErr = err
	m.appendLog(fmt.Sprintf("Error: %v", err))
}

// RecordCycle stores the outcome of a completed cycle and returns to idle.
func (m *Manager) RecordCycle(drained int, merge types.MergeReport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	m.currentState = StateIdle
	m.lastErr = nil
	m.lastRunAt = &now
	m.lastMerge = merge
	m.drainedRows = drained
}

// GetStatus returns a snapshot of the current state (thread-safe)
func (m *Manager) GetStatus() StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resp := StatusResponse{
		State:       m.currentState,
		Logs:        append([]LogEntry{}, m.logs...), // Copy slice
		LastRunAt:   m.lastRunAt,
		LastMerge:   m.lastMerge,
		DrainedRows: m.drainedRows,
	}
	if m.lastErr != nil {
		resp.Error = m.lastErr.Error()
	}
	return resp
}

// appendLog must be called with the lock held.
func (m *Manager) appendLog(message string) {
	m.logs = append(m.logs, LogEntry{Timestamp: time.Now(), Message: message})
	if len(m.logs) > m.maxLogs {
		m.logs = m.logs[len(m.logs)-m.maxLogs:]
	}
}
