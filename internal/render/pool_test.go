package render

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSession struct {
	id     int
	closed atomic.Bool
}

func (s *fakeSession) Render(context.Context, []byte, int) (*Rendered, error) {
	return &Rendered{}, nil
}

func (s *fakeSession) Assemble(context.Context, AssembleRequest) ([]byte, error) {
	return nil, nil
}

func (s *fakeSession) Close() error {
	s.closed.Store(true)
	return nil
}

func countingFactory(started *atomic.Int32) Factory {
	return func(context.Context) (Session, error) {
		n := started.Add(1)
		return &fakeSession{id: int(n)}, nil
	}
}

func TestPool_LazyCreationAndReuse(t *testing.T) {
	var started atomic.Int32
	p := NewPool(2, countingFactory(&started), slog.New(slog.DiscardHandler))
	defer p.Close()
	ctx := context.Background()

	s1, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if started.Load() != 1 {
		t.Errorf("started = %d, want 1", started.Load())
	}

	p.Release(s1)
	s2, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	if s2 != s1 {
		t.Error("idle session not reused")
	}
	if started.Load() != 1 {
		t.Errorf("started = %d after reuse, want 1", started.Load())
	}
	p.Release(s2)
}

func TestPool_BlocksAtLimit(t *testing.T) {
	var started atomic.Int32
	p := NewPool(1, countingFactory(&started), slog.New(slog.DiscardHandler))
	defer p.Close()
	ctx := context.Background()

	s1, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan Session)
	go func() {
		s, err := p.Acquire(ctx)
		if err != nil {
			t.Errorf("queued Acquire: %v", err)
			close(acquired)
			return
		}
		acquired <- s
	}()

	select {
	case <-acquired:
		t.Fatal("Acquire returned while the pool was exhausted")
	case <-time.After(50 * time.Millisecond):
	}

	p.Release(s1)
	select {
	case s := <-acquired:
		if s != s1 {
			t.Error("queued Acquire got a different session")
		}
		p.Release(s)
	case <-time.After(time.Second):
		t.Fatal("queued Acquire never woke up after release")
	}

	if started.Load() != 1 {
		t.Errorf("started = %d, want 1", started.Load())
	}
}

func TestPool_AcquireCancellation(t *testing.T) {
	var started atomic.Int32
	p := NewPool(1, countingFactory(&started), slog.New(slog.DiscardHandler))
	defer p.Close()

	s1, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer p.Release(s1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = p.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire on exhausted pool = %v, want deadline exceeded", err)
	}
}

func TestPool_FactoryFailureFreesSlot(t *testing.T) {
	fail := true
	var started atomic.Int32
	p := NewPool(1, func(ctx context.Context) (Session, error) {
		if fail {
			return nil, errors.New("renderer refused to start")
		}
		return countingFactory(&started)(ctx)
	}, slog.New(slog.DiscardHandler))
	defer p.Close()
	ctx := context.Background()

	if _, err := p.Acquire(ctx); err == nil {
		t.Fatal("Acquire must surface factory failure")
	}

	// The failed start must not leak the slot.
	fail = false
	s, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire after failure: %v", err)
	}
	p.Release(s)
}

func TestPool_Close(t *testing.T) {
	var started atomic.Int32
	p := NewPool(2, countingFactory(&started), slog.New(slog.DiscardHandler))
	ctx := context.Background()

	s1, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	s2, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	p.Release(s1)

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Idle sessions are closed immediately, checked-out ones on release.
	if !s1.(*fakeSession).closed.Load() {
		t.Error("idle session not closed")
	}
	p.Release(s2)
	if !s2.(*fakeSession).closed.Load() {
		t.Error("outstanding session not closed on release")
	}

	if _, err := p.Acquire(ctx); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Acquire after Close = %v, want ErrPoolClosed", err)
	}
}

func TestPool_DiscardFreesSlot(t *testing.T) {
	var started atomic.Int32
	p := NewPool(1, countingFactory(&started), slog.New(slog.DiscardHandler))
	defer p.Close()
	ctx := context.Background()

	s1, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	p.Discard(s1)
	if !s1.(*fakeSession).closed.Load() {
		t.Error("discarded session not closed")
	}

	s2, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire after discard: %v", err)
	}
	if s2 == s1 {
		t.Error("discarded session handed out again")
	}
	p.Release(s2)
}
