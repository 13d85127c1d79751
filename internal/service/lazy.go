package service

import (
	"context"
	"errors"
	"sync"

	"ragchat/internal/chain"
)

// Factory builds a ready chain.
type Factory func(ctx context.Context) (*chain.Chain, error)

// Lazy builds the chain on first use, at most once. Concurrent callers wait
// for the same build. A failed build is not kept, the next Get retries.
type Lazy struct {
	factory Factory

	mu     sync.Mutex
	chain  *chain.Chain
	builds int
}

func NewLazy(f Factory) *Lazy {
	return &Lazy{factory: f}
}

func (l *Lazy) Get(ctx context.Context) (*chain.Chain, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.chain != nil {
		return l.chain, nil
	}
	if l.factory == nil {
		return nil, errors.New("pipeline factory is nil")
	}
	c, err := l.factory(ctx)
	if err != nil {
		return nil, err
	}
	l.chain = c
	l.builds++
	return c, nil
}

// Ready reports whether the chain has been built.
func (l *Lazy) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chain != nil
}

// Builds returns the number of successful builds. It never exceeds one.
func (l *Lazy) Builds() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.builds
}
