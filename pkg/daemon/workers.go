// Package daemon runs the bridge's background workers: periodic autosave of
// the node graph and reaping of stale connections.
package daemon

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/denizumutdereli/nukebridge/pkg/executor"
	"github.com/denizumutdereli/nukebridge/pkg/lifecycle"
	"github.com/denizumutdereli/nukebridge/pkg/persistence"
	"github.com/denizumutdereli/nukebridge/pkg/protocol"
	"github.com/denizumutdereli/nukebridge/pkg/scene"
)

// ConnCloser force-closes one connection by ID. Satisfied by the server.
type ConnCloser interface {
	CloseConn(id string) error
}

// DaemonManager manages all background daemons
type DaemonManager struct {
	exec      *executor.MainThread
	lifecycle *lifecycle.Manager
	store     *persistence.Store
	graph     *scene.Graph
	closer    ConnCloser

	// Daemon intervals; zero disables the daemon.
	autosaveInterval time.Duration
	reapInterval     time.Duration
	intervalMu       sync.RWMutex

	// Autosave skips unchanged graphs.
	lastSavedVersion uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDaemonManager creates a new daemon manager. The graph is only ever
// touched through the executor.
func NewDaemonManager(
	exec *executor.MainThread,
	lm *lifecycle.Manager,
	store *persistence.Store,
	graph *scene.Graph,
	closer ConnCloser,
	autosaveInterval, reapInterval time.Duration,
) *DaemonManager {
	ctx, cancel := context.WithCancel(context.Background())

	return &DaemonManager{
		exec:             exec,
		lifecycle:        lm,
		store:            store,
		graph:            graph,
		closer:           closer,
		autosaveInterval: autosaveInterval,
		reapInterval:     reapInterval,
		ctx:              ctx,
		cancel:           cancel,
	}
}

// Start starts all daemon workers
func (dm *DaemonManager) Start() {
	dm.wg.Add(2)

	go dm.autosaveDaemon()
	go dm.reapDaemon()

	log.Println("daemon manager started")
}

// Stop stops all daemons gracefully
func (dm *DaemonManager) Stop() {
	dm.cancel()
	dm.wg.Wait()
	log.Println("daemon manager stopped")
}

// autosaveDaemon periodically snapshots the graph through the executor and
// persists the snapshot outside it, keeping disk I/O off the owning thread.
func (dm *DaemonManager) autosaveDaemon() {
	defer dm.wg.Done()

	for dm.waitInterval(dm.getAutosaveInterval()) {
		dm.autosaveOnce()
	}

	// Final autosave on shutdown
	dm.autosaveOnce()
}

func (dm *DaemonManager) autosaveOnce() {
	var snap *scene.Snapshot
	resp := dm.exec.Submit(func() protocol.Response {
		if dm.graph.Version() != dm.lastSavedVersion {
			snap = dm.graph.Snapshot("autosave")
		}
		return protocol.Success(nil)
	})
	if resp.Failed() {
		log.Printf("autosave daemon: snapshot failed: %s", resp.ErrorMessage())
		return
	}
	if snap == nil {
		return
	}

	if err := dm.store.Autosave(snap); err != nil {
		log.Printf("autosave daemon: save failed: %v", err)
		return
	}
	dm.lastSavedVersion = snap.Version
}

// reapDaemon drives lifecycle transitions and closes stale connections.
func (dm *DaemonManager) reapDaemon() {
	defer dm.wg.Done()

	for dm.waitInterval(dm.getReapInterval()) {
		for _, id := range dm.lifecycle.Stale() {
			if err := dm.closer.CloseConn(id); err == nil {
				log.Printf("reaped stale connection: %s", id)
			}
			dm.lifecycle.Remove(id)
		}
	}
}

// waitInterval sleeps for the interval, returning false on shutdown. A zero
// interval parks the daemon until shutdown.
func (dm *DaemonManager) waitInterval(interval time.Duration) bool {
	if interval <= 0 {
		<-dm.ctx.Done()
		return false
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-dm.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (dm *DaemonManager) getAutosaveInterval() time.Duration {
	dm.intervalMu.RLock()
	defer dm.intervalMu.RUnlock()
	return dm.autosaveInterval
}

func (dm *DaemonManager) getReapInterval() time.Duration {
	dm.intervalMu.RLock()
	defer dm.intervalMu.RUnlock()
	return dm.reapInterval
}

// SetIntervals configures daemon intervals. Takes effect after the current
// wait completes.
func (dm *DaemonManager) SetIntervals(autosave, reap time.Duration) {
	dm.intervalMu.Lock()
	defer dm.intervalMu.Unlock()
	dm.autosaveInterval = autosave
	dm.reapInterval = reap
}

// Stats returns daemon statistics
func (dm *DaemonManager) Stats() map[string]any {
	dm.intervalMu.RLock()
	defer dm.intervalMu.RUnlock()
	return map[string]any{
		"autosave_interval":  dm.autosaveInterval.String(),
		"reap_interval":      dm.reapInterval.String(),
		"last_saved_version": dm.lastSavedVersion,
	}
}
