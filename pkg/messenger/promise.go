package messenger

import (
	"fmt"
	"sync"
)

// PromiseState is the lifecycle position of a Promise
type PromiseState uint8

const (
	PromisePending PromiseState = iota
	PromiseResolved
	PromiseRejected
	PromiseAbandoned
)

func (s PromiseState) String() string {
	switch s {
	case PromisePending:
		return "pending"
	case PromiseResolved:
		return "resolved"
	case PromiseRejected:
		return "rejected"
	case PromiseAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Promise is a single-resolution completion handle bound to a strand.
// Exactly one of Resolve, Reject or Abandon takes effect; continuations
// registered with Then always run on the bound strand.
type Promise[T any] struct {
	strand *Strand

	mu        sync.Mutex
	state     PromiseState
	value     T
	err       error
	onResolve func(T)
	onReject  func(error)
	scheduled bool
}

// SendPromise resolves with nothing once an envelope has been written
type SendPromise = Promise[struct{}]

// ReceivePromise resolves with one fully assembled inbound envelope
type ReceivePromise = Promise[*Message]

// NewPromise creates a pending promise bound to strand
func NewPromise[T any](strand *Strand) *Promise[T] {
	return &Promise[T]{strand: strand}
}

// NewSendPromise creates a pending send-completion handle
func NewSendPromise(strand *Strand) *SendPromise {
	return NewPromise[struct{}](strand)
}

// NewReceivePromise creates a pending receive-completion handle
func NewReceivePromise(strand *Strand) *ReceivePromise {
	return NewPromise[*Message](strand)
}

// Then configures the continuations. Either may be nil.
// Settling before Then is allowed; the continuation is scheduled when set.
func (p *Promise[T]) Then(onResolve func(T), onReject func(error)) *Promise[T] {
	p.mu.Lock()
	p.onResolve = onResolve
	p.onReject = onReject
	p.scheduleLocked()
	p.mu.Unlock()
	return p
}

// Resolve completes the promise successfully
func (p *Promise[T]) Resolve(value T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != PromisePending {
		return fmt.Errorf("resolve %s promise: %w", p.state, ErrPromiseSettled)
	}
	p.state = PromiseResolved
	p.value = value
	p.scheduleLocked()
	return nil
}

// Reject completes the promise with err
func (p *Promise[T]) Reject(err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != PromisePending {
		return fmt.Errorf("reject %s promise: %w", p.state, ErrPromiseSettled)
	}
	p.state = PromiseRejected
	p.err = err
	p.scheduleLocked()
	return nil
}

// Abandon marks a pending promise as never going to complete.
// No continuation runs; the state records that it was dropped.
func (p *Promise[T]) Abandon() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != PromisePending {
		return fmt.Errorf("abandon %s promise: %w", p.state, ErrPromiseSettled)
	}
	p.state = PromiseAbandoned
	return nil
}

// State reports the current lifecycle position
func (p *Promise[T]) State() PromiseState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// scheduleLocked hands the matching continuation to the strand once.
// Caller holds p.mu.
func (p *Promise[T]) scheduleLocked() {
	if p.scheduled {
		return
	}

	switch p.state {
	case PromiseResolved:
		if p.onResolve == nil {
			return
		}
		fn, value := p.onResolve, p.value
		p.scheduled = true
		p.strand.Dispatch(func() { fn(value) })
	case PromiseRejected:
		if p.onReject == nil {
			return
		}
		fn, err := p.onReject, p.err
		p.scheduled = true
		p.strand.Dispatch(func() { fn(err) })
	}
}
