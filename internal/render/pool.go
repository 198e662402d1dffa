package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrPoolClosed is returned by Acquire after the pool has shut down.
var ErrPoolClosed = errors.New("renderer pool is closed")

// Factory starts a new renderer session.
type Factory func(ctx context.Context) (Session, error)

// Pool hands out renderer sessions up to a fixed limit. Sessions are
// created lazily on first demand and reused after release; once the limit
// is reached, Acquire queues until a session comes back or the context is
// cancelled.
type Pool struct {
	factory Factory
	logger  *slog.Logger

	idle chan Session

	mu      sync.Mutex
	created int
	size    int
	closed  bool
}

// NewPool creates a pool bounded at size sessions.
func NewPool(size int, factory Factory, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		factory: factory,
		logger:  logger,
		idle:    make(chan Session, size),
		size:    size,
	}
}

// Acquire returns a session, starting one if the pool is under its limit.
func (p *Pool) Acquire(ctx context.Context) (Session, error) {
	// Fast path: reuse an idle session.
	select {
	case s, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return s, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		s, err := p.factory(ctx)
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, fmt.Errorf("start renderer session: %w", err)
		}
		p.logger.Debug("renderer session started")
		return s, nil
	}
	p.mu.Unlock()

	// At the limit: queue for a released session.
	select {
	case s, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a session for reuse. After Close, released sessions are
// shut down instead.
func (p *Pool) Release(s Session) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.closeSession(s)
		return
	}

	// The send happens under the mutex so it can never race with Close
	// closing the channel.
	select {
	case p.idle <- s:
		p.mu.Unlock()
	default:
		p.mu.Unlock()
		// More releases than the pool tracks; drop the extra session.
		p.closeSession(s)
	}
}

// Discard removes a broken session from the pool, freeing its slot for a
// fresh one.
func (p *Pool) Discard(s Session) {
	p.closeSession(s)
	p.mu.Lock()
	p.created--
	p.mu.Unlock()
}

// Close shuts down all idle sessions and rejects further Acquires.
// Sessions still checked out are closed as they are released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.idle)
	p.mu.Unlock()

	for s := range p.idle {
		p.closeSession(s)
	}
	return nil
}

func (p *Pool) closeSession(s Session) {
	if err := s.Close(); err != nil {
		p.logger.Warn("closing renderer session failed", "error", err)
	}
}
