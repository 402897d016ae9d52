package executor

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/denizumutdereli/nukebridge/pkg/protocol"
)

// startPump runs the executor on a background goroutine and waits until it
// is attached, so tests can Submit immediately.
func startPump(t *testing.T, m *MainThread) chan error {
	t.Helper()
	runErr := make(chan error, 1)
	go func() { runErr <- m.Run() }()

	deadline := time.Now().Add(2 * time.Second)
	for !m.Attached() {
		if time.Now().After(deadline) {
			t.Fatal("pump did not attach")
		}
		time.Sleep(time.Millisecond)
	}
	return runErr
}

func TestSubmitBeforeRunFails(t *testing.T) {
	m := New(8, 0)
	resp := m.Submit(func() protocol.Response { return protocol.Success(nil) })
	if !resp.Failed() {
		t.Fatal("expected failure with no owning thread attached")
	}
	if !strings.Contains(resp.ErrorMessage(), "executor unavailable") {
		t.Errorf("unexpected error: %q", resp.ErrorMessage())
	}
}

func TestSubmitRunsJobAndReturnsResponse(t *testing.T) {
	m := New(8, 0)
	runErr := startPump(t, m)
	defer func() { m.Stop(); <-runErr }()

	resp := m.Submit(func() protocol.Response {
		return protocol.Success(map[string]any{"value": 42})
	})
	if resp.Failed() {
		t.Fatalf("submit failed: %s", resp.ErrorMessage())
	}
	if resp["value"] != 42 {
		t.Errorf("job response not delivered: %v", resp)
	}
}

func TestJobsSerializeOnOneGoroutine(t *testing.T) {
	m := New(64, 0)
	runErr := startPump(t, m)
	defer func() { m.Stop(); <-runErr }()

	// The slice is only ever touched inside jobs. With proper serialization
	// there is no race and every append lands.
	var seen []int
	var wg sync.WaitGroup
	const n = 50
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			m.Submit(func() protocol.Response {
				seen = append(seen, v)
				return protocol.Success(nil)
			})
		}(i)
	}
	wg.Wait()

	if len(seen) != n {
		t.Fatalf("expected %d executed jobs, got %d", n, len(seen))
	}
}

func TestPanicInJobDoesNotKillPump(t *testing.T) {
	m := New(8, 0)
	runErr := startPump(t, m)
	defer func() { m.Stop(); <-runErr }()

	resp := m.Submit(func() protocol.Response { panic("job fault") })
	if !resp.Failed() {
		t.Fatal("expected failure from panicking job")
	}
	if resp.ErrorMessage() != "job fault" {
		t.Errorf("panic value not surfaced: %q", resp.ErrorMessage())
	}

	// Pump must still be serving.
	resp = m.Submit(func() protocol.Response { return protocol.Success(nil) })
	if resp.Failed() {
		t.Fatalf("pump died after recovered panic: %s", resp.ErrorMessage())
	}
}

func TestJobTimeout(t *testing.T) {
	m := New(8, 50*time.Millisecond)
	runErr := startPump(t, m)
	defer func() { m.Stop(); <-runErr }()

	resp := m.Submit(func() protocol.Response {
		time.Sleep(300 * time.Millisecond)
		return protocol.Success(nil)
	})
	if !resp.Failed() {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(resp.ErrorMessage(), "timed out") {
		t.Errorf("unexpected error: %q", resp.ErrorMessage())
	}

	// The slow job still ran to completion on the pump; later work proceeds.
	resp = m.Submit(func() protocol.Response { return protocol.Success(nil) })
	if resp.Failed() {
		t.Fatalf("pump unusable after a timed-out job: %s", resp.ErrorMessage())
	}
}

func TestStopDrainsAndRunReturns(t *testing.T) {
	m := New(8, 0)
	runErr := startPump(t, m)

	m.Stop()
	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	// Idempotent, and Submit after Stop fails fast.
	m.Stop()
	if resp := m.Submit(func() protocol.Response { return protocol.Success(nil) }); !resp.Failed() {
		t.Error("expected failure submitting to a stopped executor")
	}
}

func TestRunTwiceFails(t *testing.T) {
	m := New(8, 0)
	runErr := startPump(t, m)
	defer func() { m.Stop(); <-runErr }()

	if err := m.Run(); err == nil {
		t.Fatal("expected second Run to fail while attached")
	}
}

func TestStats(t *testing.T) {
	m := New(16, 0)
	runErr := startPump(t, m)
	defer func() { m.Stop(); <-runErr }()

	m.Submit(func() protocol.Response { return protocol.Success(nil) })

	stats := m.Stats()
	if stats["jobs_processed"].(uint64) != 1 {
		t.Errorf("expected 1 processed job, got %v", stats["jobs_processed"])
	}
	if stats["queue_capacity"].(int) != 16 {
		t.Errorf("unexpected queue capacity: %v", stats["queue_capacity"])
	}
	if stats["attached"].(bool) != true {
		t.Error("expected attached pump in stats")
	}
}
