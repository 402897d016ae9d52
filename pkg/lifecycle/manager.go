// Package lifecycle tracks per-connection activity and ages connections
// through Active, Idle and Stale states. Stale connections are candidates
// for reaping by the background daemon.
package lifecycle

import (
	"context"
	"sync"
	"time"
)

// ConnState is the activity state of one connection.
type ConnState int

const (
	StateActive ConnState = iota
	StateIdle
	StateStale
)

func (s ConnState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateIdle:
		return "idle"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// ConnTrack holds lifecycle bookkeeping for one connection.
type ConnTrack struct {
	ID          string
	RemoteAddr  string
	ConnectedAt time.Time
	LastCommand time.Time
	Commands    uint64
	State       ConnState
}

// Manager tracks activity and controls connection lifecycle states
type Manager struct {
	conns map[string]*ConnTrack

	// Callbacks
	onIdle  func(connID string)
	onStale func(connID string)

	// Thresholds
	idleThreshold  time.Duration
	staleThreshold time.Duration

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a new lifecycle manager
func NewManager(idleThreshold, staleThreshold time.Duration) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		conns:          make(map[string]*ConnTrack),
		idleThreshold:  idleThreshold,
		staleThreshold: staleThreshold,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// SetCallbacks configures lifecycle transition callbacks
func (m *Manager) SetCallbacks(onIdle, onStale func(connID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onIdle = onIdle
	m.onStale = onStale
}

// SetThresholds applies lifecycle thresholds at runtime.
func (m *Manager) SetThresholds(idle, stale time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idleThreshold = idle
	m.staleThreshold = stale
}

// Thresholds returns currently active lifecycle thresholds.
func (m *Manager) Thresholds() (time.Duration, time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idleThreshold, m.staleThreshold
}

// Register starts tracking a new connection.
func (m *Manager) Register(connID, remoteAddr string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.conns[connID] = &ConnTrack{
		ID:          connID,
		RemoteAddr:  remoteAddr,
		ConnectedAt: now,
		LastCommand: now,
		State:       StateActive,
	}
}

// Remove drops lifecycle state for a closed connection.
func (m *Manager) Remove(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, connID)
}

// RecordActivity records a command on the connection. An idle or stale
// connection that speaks again returns to Active.
func (m *Manager) RecordActivity(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, ok := m.conns[connID]
	if !ok {
		return
	}

	track.State = StateActive
	track.LastCommand = time.Now()
	track.Commands++
}

// GetState returns the current state for a connection. Untracked
// connections report Stale.
func (m *Manager) GetState(connID string) ConnState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if track, ok := m.conns[connID]; ok {
		return track.State
	}
	return StateStale
}

// GetTrack returns the full tracking record for a connection.
func (m *Manager) GetTrack(connID string) *ConnTrack {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if track, ok := m.conns[connID]; ok {
		copied := *track
		return &copied
	}
	return nil
}

// CheckAndTransition evaluates a connection's state and transitions if
// needed. Returns true if a transition occurred.
func (m *Manager) CheckAndTransition(connID string) bool {
	m.mu.Lock()

	track, ok := m.conns[connID]
	if !ok {
		m.mu.Unlock()
		return false
	}

	elapsed := time.Since(track.LastCommand)
	oldState := track.State

	switch track.State {
	case StateActive:
		if elapsed > m.idleThreshold {
			track.State = StateIdle
		}

	case StateIdle:
		if elapsed > m.staleThreshold {
			track.State = StateStale
		}
	}

	newState := track.State
	onIdle, onStale := m.onIdle, m.onStale
	m.mu.Unlock()

	if newState == oldState {
		return false
	}

	switch newState {
	case StateIdle:
		if onIdle != nil {
			go onIdle(connID)
		}
	case StateStale:
		if onStale != nil {
			go onStale(connID)
		}
	}
	return true
}

// StartMonitor starts the background lifecycle monitoring
func (m *Manager) StartMonitor(checkInterval time.Duration) {
	go func() {
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.checkAll()
			}
		}
	}()
}

// checkAll checks every connection for state transitions
func (m *Manager) checkAll() {
	m.mu.RLock()
	connIDs := make([]string, 0, len(m.conns))
	for id := range m.conns {
		connIDs = append(connIDs, id)
	}
	m.mu.RUnlock()

	for _, id := range connIDs {
		m.CheckAndTransition(id)
	}
}

// Stop stops the lifecycle manager
func (m *Manager) Stop() {
	m.cancel()
}

// Active returns all connections in Active or Idle state
func (m *Manager) Active() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := make([]string, 0)
	for id, track := range m.conns {
		if track.State == StateActive || track.State == StateIdle {
			active = append(active, id)
		}
	}
	return active
}

// Stale returns all connections in Stale state
func (m *Manager) Stale() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stale := make([]string, 0)
	for id, track := range m.conns {
		if track.State == StateStale {
			stale = append(stale, id)
		}
	}
	return stale
}

// Stats returns manager statistics
func (m *Manager) Stats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stateCounts := map[string]int{
		"active": 0,
		"idle":   0,
		"stale":  0,
	}

	var totalCommands uint64
	for _, track := range m.conns {
		stateCounts[track.State.String()]++
		totalCommands += track.Commands
	}

	return map[string]any{
		"total_connections":  len(m.conns),
		"state_distribution": stateCounts,
		"total_commands":     totalCommands,
		"idle_threshold":     m.idleThreshold.String(),
		"stale_threshold":    m.staleThreshold.String(),
	}
}
