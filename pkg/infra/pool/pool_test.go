package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	p, err := NewPool("test", DefaultPool, DefaultPoolConfig())
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer p.Release()

	if p.Name() != "test" {
		t.Errorf("pool name mismatch: want test, got %s", p.Name())
	}

	if p.Cap() != 1000 {
		t.Errorf("pool capacity mismatch: want 1000, got %d", p.Cap())
	}
}

func TestPoolSubmit(t *testing.T) {
	p, err := NewPool("test", DefaultPool, &Config{
		Capacity:       10,
		ExpiryDuration: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer p.Release()

	var counter atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		err := p.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		})
		if err != nil {
			t.Errorf("failed to submit task: %v", err)
			wg.Done()
		}
	}

	wg.Wait()

	if counter.Load() != 100 {
		t.Errorf("task count mismatch: want 100, got %d", counter.Load())
	}
}

func TestPoolSubmitWithContext(t *testing.T) {
	p, err := NewPool("test", DefaultPool, &Config{
		Capacity:       10,
		ExpiryDuration: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.SubmitWithContext(ctx, func() {
		t.Error("task should not run with cancelled context")
	}); err == nil {
		t.Error("expected error submitting with cancelled context")
	}
}

func TestPoolSubmitAfterRelease(t *testing.T) {
	p, err := NewPool("test", DefaultPool, DefaultPoolConfig())
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	p.Release()

	if err := p.Submit(func() {}); err != ErrPoolClosed {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestManagerRegisterAndGet(t *testing.T) {
	m := NewManager()
	defer m.ReleaseAll()

	if err := m.RegisterWithType(BackgroundPool, BackgroundPoolConfig()); err != nil {
		t.Fatalf("failed to register pool: %v", err)
	}

	if err := m.RegisterWithType(BackgroundPool, BackgroundPoolConfig()); err == nil {
		t.Error("expected error registering duplicate pool")
	}

	p, err := m.GetByType(BackgroundPool)
	if err != nil {
		t.Fatalf("failed to get pool: %v", err)
	}
	if p.Type() != BackgroundPool {
		t.Errorf("pool type mismatch: got %s", p.Type())
	}

	if _, err := m.Get("missing"); err == nil {
		t.Error("expected error getting missing pool")
	}
}

func TestManagerStats(t *testing.T) {
	m := NewManager()
	defer m.ReleaseAll()

	if err := m.RegisterWithType(DefaultPool, DefaultPoolConfig()); err != nil {
		t.Fatalf("failed to register pool: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	if err := m.SubmitToDefault(func() {
		defer wg.Done()
	}); err != nil {
		t.Fatalf("failed to submit: %v", err)
	}
	wg.Wait()

	stats := m.Stats()
	info, ok := stats[string(DefaultPool)]
	if !ok {
		t.Fatal("missing default pool stats")
	}
	if info.Capacity != 1000 {
		t.Errorf("capacity mismatch: got %d", info.Capacity)
	}
}

func TestGlobalManager(t *testing.T) {
	ResetGlobal()
	defer ResetGlobal()

	if err := InitGlobal(); err != nil {
		t.Fatalf("failed to init global manager: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	if err := SubmitToType(BackgroundPool, func() {
		defer wg.Done()
	}); err != nil {
		t.Fatalf("failed to submit to background pool: %v", err)
	}
	wg.Wait()

	if stats := StatsGlobal(); len(stats) == 0 {
		t.Error("expected global pool stats")
	}
}
