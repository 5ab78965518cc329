package server

import (
	"context"
	"sync"
	"testing"
)

// stubConnection is a do-nothing connection handle for state tests.
type stubConnection struct {
	shutdowns int
}

func (c *stubConnection) Serve(context.Context) {}
func (c *stubConnection) Shutdown()             { c.shutdowns++ }

func TestState_RequestCounter(t *testing.T) {
	st := NewState()

	if st.TotalRequests() != 0 {
		t.Errorf("Expected 0 initial requests, got %d", st.TotalRequests())
	}

	if got := st.IncRequests(); got != 1 {
		t.Errorf("Expected IncRequests to return 1, got %d", got)
	}
	if got := st.IncRequests(); got != 2 {
		t.Errorf("Expected IncRequests to return 2, got %d", got)
	}
	if st.TotalRequests() != 2 {
		t.Errorf("Expected total 2, got %d", st.TotalRequests())
	}
}

func TestState_RequestCounterConcurrent(t *testing.T) {
	st := NewState()

	const goroutines = 8
	const perGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				st.IncRequests()
			}
		}()
	}
	wg.Wait()

	if st.TotalRequests() != goroutines*perGoroutine {
		t.Errorf("Expected %d requests, got %d", goroutines*perGoroutine, st.TotalRequests())
	}
}

func TestState_ConnectionSet(t *testing.T) {
	st := NewState()

	c1 := &stubConnection{}
	c2 := &stubConnection{}

	st.AddConnection(c1)
	st.AddConnection(c2)
	if st.ConnectionCount() != 2 {
		t.Errorf("Expected 2 connections, got %d", st.ConnectionCount())
	}

	// Adding the same handle twice is a no-op on the set
	st.AddConnection(c1)
	if st.ConnectionCount() != 2 {
		t.Errorf("Expected 2 connections after duplicate add, got %d", st.ConnectionCount())
	}

	snapshot := st.Connections()
	if len(snapshot) != 2 {
		t.Errorf("Expected snapshot of 2 connections, got %d", len(snapshot))
	}

	st.RemoveConnection(c1)
	if st.ConnectionCount() != 1 {
		t.Errorf("Expected 1 connection after remove, got %d", st.ConnectionCount())
	}

	// Removing an untracked handle is a no-op
	st.RemoveConnection(c1)
	if st.ConnectionCount() != 1 {
		t.Errorf("Expected 1 connection after duplicate remove, got %d", st.ConnectionCount())
	}

	st.RemoveConnection(c2)
	if st.ConnectionCount() != 0 {
		t.Errorf("Expected empty connection set, got %d", st.ConnectionCount())
	}
}

func TestState_TaskSet(t *testing.T) {
	st := NewState()

	t1 := struct{ name string }{"task-1"}
	t2 := struct{ name string }{"task-2"}

	st.AddTask(t1)
	st.AddTask(t2)
	if st.TaskCount() != 2 {
		t.Errorf("Expected 2 tasks, got %d", st.TaskCount())
	}

	st.RemoveTask(t1)
	st.RemoveTask(t2)
	if st.TaskCount() != 0 {
		t.Errorf("Expected empty task set, got %d", st.TaskCount())
	}
}

func TestState_DefaultHeadersWholesaleSwap(t *testing.T) {
	st := NewState()

	if st.DefaultHeaders() != nil {
		t.Error("Expected nil headers before first refresh")
	}

	first := []Header{{Name: []byte("date"), Value: []byte("one")}}
	st.SetDefaultHeaders(first)

	got := st.DefaultHeaders()
	if len(got) != 1 || string(got[0].Value) != "one" {
		t.Errorf("Unexpected headers after first swap: %v", got)
	}

	// A refresh replaces the slice; an older snapshot stays intact
	second := []Header{
		{Name: []byte("date"), Value: []byte("two")},
		{Name: []byte("server"), Value: []byte("saker")},
	}
	st.SetDefaultHeaders(second)

	if len(got) != 1 || string(got[0].Value) != "one" {
		t.Error("Expected earlier snapshot to be unaffected by swap")
	}
	if len(st.DefaultHeaders()) != 2 {
		t.Errorf("Expected 2 headers after second swap, got %d", len(st.DefaultHeaders()))
	}
}
