// Package channeltest provides an in-memory Messenger for exercising
// channels and service dispatchers without a transport.
package channeltest

import (
	"sync"
	"time"

	"github.com/ZentaChain/aalink/pkg/messenger"
)

// Messenger records every submitted promise and lets the test settle them
type Messenger struct {
	mu       sync.Mutex
	receives map[messenger.ChannelID][]*messenger.ReceivePromise
	armed    map[messenger.ChannelID]int
	sent     []*messenger.Message
	sendErr  error
	stopped  bool
}

// NewMessenger creates an empty fake
func NewMessenger() *Messenger {
	return &Messenger{
		receives: make(map[messenger.ChannelID][]*messenger.ReceivePromise),
		armed:    make(map[messenger.ChannelID]int),
	}
}

// EnqueueSend records msg and settles promise immediately
func (m *Messenger) EnqueueSend(msg *messenger.Message, promise *messenger.SendPromise) {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	err := m.sendErr
	m.mu.Unlock()

	if err != nil {
		promise.Reject(err)
		return
	}
	promise.Resolve(struct{}{})
}

// EnqueueReceive parks promise until Deliver or Fail
func (m *Messenger) EnqueueReceive(channelID messenger.ChannelID, promise *messenger.ReceivePromise) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receives[channelID] = append(m.receives[channelID], promise)
	m.armed[channelID]++
}

// Stop marks the fake stopped
func (m *Messenger) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

// FailSends makes every later send reject with err
func (m *Messenger) FailSends(err error) {
	m.mu.Lock()
	m.sendErr = err
	m.mu.Unlock()
}

// Deliver resolves the oldest parked receive on msg's channel.
// It reports false when nothing is parked.
func (m *Messenger) Deliver(msg *messenger.Message) bool {
	p := m.pop(msg.ChannelID())
	if p == nil {
		return false
	}
	return p.Resolve(msg) == nil
}

// Fail rejects the oldest parked receive on channelID with err
func (m *Messenger) Fail(channelID messenger.ChannelID, err error) bool {
	p := m.pop(channelID)
	if p == nil {
		return false
	}
	return p.Reject(err) == nil
}

// Armed returns how many receives were ever submitted for channelID
func (m *Messenger) Armed(channelID messenger.ChannelID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed[channelID]
}

// Pending returns how many receives are parked for channelID
func (m *Messenger) Pending(channelID messenger.ChannelID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.receives[channelID])
}

// Sent returns the messages submitted so far
func (m *Messenger) Sent() []*messenger.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*messenger.Message(nil), m.sent...)
}

// Stopped reports whether Stop was called
func (m *Messenger) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

func (m *Messenger) pop(channelID messenger.ChannelID) *messenger.ReceivePromise {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue := m.receives[channelID]
	if len(queue) == 0 {
		return nil
	}
	p := queue[0]
	m.receives[channelID] = queue[1:]
	return p
}

// Flush waits until every function queued on s so far has run.
// It reports false on timeout.
func Flush(s *messenger.Strand) bool {
	done := make(chan struct{})
	s.Dispatch(func() { close(done) })
	select {
	case <-done:
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}
