package messenger

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Messenger is the transport-side collaborator every channel submits to.
// Each submitted promise is settled exactly once.
type Messenger interface {
	// EnqueueSend writes msg and resolves promise once it is on the wire
	EnqueueSend(msg *Message, promise *SendPromise)

	// EnqueueReceive resolves promise with the next inbound envelope for channelID
	EnqueueReceive(channelID ChannelID, promise *ReceivePromise)

	// Stop aborts all pending work
	Stop()
}

// Direction of a message relative to this endpoint
type Direction uint8

const (
	DirectionInbound Direction = iota
	DirectionOutbound
)

func (d Direction) String() string {
	if d == DirectionOutbound {
		return "out"
	}
	return "in"
}

// Tap observes every complete message crossing the link.
// Taps run on messenger goroutines and must not retain msg.
type Tap func(dir Direction, msg *Message)

// Option configures a Conn
type Option func(*Conn)

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Conn) {
		c.log = logger
	}
}

// WithTap adds a message observer
func WithTap(tap Tap) Option {
	return func(c *Conn) {
		c.taps = append(c.taps, tap)
	}
}

// MaxInboxMessages bounds the messages buffered for one channel that has
// no receive armed. Going past it fails the link with ErrInboxOverflow.
const MaxInboxMessages = 256

// Conn implements Messenger over a framed byte stream.
// The read loop only pulls the next frame while at least one receive is
// armed, so channels that hold off re-arming hold off reading.
type Conn struct {
	rw      io.ReadWriteCloser
	cryptor Cryptor
	log     zerolog.Logger
	taps    []Tap

	writer *Strand

	mu           sync.Mutex
	inbox        map[ChannelID][]*Message
	waiting      map[ChannelID][]*ReceivePromise
	armed        int
	ready        *sync.Cond
	pendingSends map[*SendPromise]struct{}
	recvErr      error
	stopped      bool

	readDone chan struct{}
}

// NewConn wraps rw and starts reading frames from it.
// A nil cryptor means the link is plain.
func NewConn(rw io.ReadWriteCloser, cryptor Cryptor, opts ...Option) *Conn {
	if cryptor == nil {
		cryptor = PlainCryptor{}
	}

	c := &Conn{
		rw:           rw,
		cryptor:      cryptor,
		log:          log.Logger,
		writer:       NewStrand(),
		inbox:        make(map[ChannelID][]*Message),
		waiting:      make(map[ChannelID][]*ReceivePromise),
		pendingSends: make(map[*SendPromise]struct{}),
		readDone:     make(chan struct{}),
	}
	c.ready = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "messenger").Logger()

	go c.readLoop()

	return c
}

// SetCryptor swaps the cryptor, typically once the link handshake is done.
// Frames already queued for writing use the cryptor active when written.
func (c *Conn) SetCryptor(cryptor Cryptor) {
	c.mu.Lock()
	c.cryptor = cryptor
	c.mu.Unlock()
}

func (c *Conn) currentCryptor() Cryptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cryptor
}

// EnqueueSend queues msg behind every previously enqueued message
func (c *Conn) EnqueueSend(msg *Message, promise *SendPromise) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		promise.Reject(ErrOperationAborted)
		return
	}
	c.pendingSends[promise] = struct{}{}
	c.mu.Unlock()

	c.writer.Dispatch(func() {
		c.write(msg, promise)
	})
}

// EnqueueReceive hands out a buffered message or parks the promise
func (c *Conn) EnqueueReceive(channelID ChannelID, promise *ReceivePromise) {
	c.mu.Lock()

	if queue := c.inbox[channelID]; len(queue) > 0 {
		msg := queue[0]
		queue[0] = nil
		c.inbox[channelID] = queue[1:]
		c.mu.Unlock()
		promise.Resolve(msg)
		return
	}

	if c.recvErr != nil {
		err := c.recvErr
		c.mu.Unlock()
		promise.Reject(err)
		return
	}

	c.waiting[channelID] = append(c.waiting[channelID], promise)
	c.armed++
	c.ready.Signal()
	c.mu.Unlock()
}

// Stop closes the stream and rejects every outstanding promise with
// ErrOperationAborted
func (c *Conn) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	if c.recvErr == nil {
		c.recvErr = ErrOperationAborted
	}
	waiting := c.waiting
	c.waiting = make(map[ChannelID][]*ReceivePromise)
	c.armed = 0
	sends := c.pendingSends
	c.pendingSends = make(map[*SendPromise]struct{})
	c.ready.Broadcast()
	c.mu.Unlock()

	c.writer.Stop()
	if err := c.rw.Close(); err != nil {
		c.log.Debug().Err(err).Msg("close stream")
	}

	for _, queue := range waiting {
		for _, p := range queue {
			p.Reject(ErrOperationAborted)
		}
	}
	for p := range sends {
		// a write racing Stop may already have settled it
		_ = p.Reject(ErrOperationAborted)
	}

	c.log.Debug().Msg("messenger stopped")
}

// Done is closed once the read loop has exited. A peer close is only
// noticed while some receive is armed.
func (c *Conn) Done() <-chan struct{} {
	return c.readDone
}

// Err is the error that ended reading, nil while the link is up
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recvErr
}

func (c *Conn) write(msg *Message, promise *SendPromise) {
	c.mu.Lock()
	delete(c.pendingSends, promise)
	c.mu.Unlock()

	if err := c.writeMessage(msg); err != nil {
		c.log.Warn().Err(err).Stringer("channel", msg.ChannelID()).Msg("send failed")
		promise.Reject(err)
		return
	}

	c.tap(DirectionOutbound, msg)
	promise.Resolve(struct{}{})
}

func (c *Conn) writeMessage(msg *Message) error {
	cryptor := c.currentCryptor()
	encrypted := msg.EncryptionType() == EncryptionEncrypted
	if encrypted && !cryptor.Active() {
		return NewError(ErrorMessageEncrypt, ErrCryptorInactive)
	}

	for _, f := range splitFrames(msg) {
		if encrypted {
			sealed, err := cryptor.Encrypt(f.Payload)
			if err != nil {
				return NewError(ErrorMessageEncrypt, err)
			}
			f.Payload = sealed
		}
		if err := WriteFrame(c.rw, f); err != nil {
			var coded *Error
			if errors.As(err, &coded) {
				return err
			}
			return NewError(ErrorTransportSend, err)
		}
	}
	return nil
}

func (c *Conn) readLoop() {
	defer close(c.readDone)

	frames := newAssembler()
	for c.awaitArmed() {
		f, err := ReadFrame(c.rw)
		if err != nil {
			var coded *Error
			if !errors.As(err, &coded) {
				err = NewError(ErrorTransportReceive, err)
			}
			c.failReceive(err)
			return
		}

		if f.Header.EncryptionType == EncryptionEncrypted {
			plain, err := c.currentCryptor().Decrypt(f.Payload)
			if err != nil {
				c.failReceive(NewError(ErrorMessageDecrypt, err))
				return
			}
			f.Payload = plain
		}

		msg, err := frames.push(f)
		if err != nil {
			c.failReceive(err)
			return
		}
		if msg == nil {
			continue
		}

		c.tap(DirectionInbound, msg)
		if err := c.deliver(msg); err != nil {
			c.failReceive(err)
			return
		}
	}
}

// awaitArmed blocks until a receive is parked. False once stopped.
func (c *Conn) awaitArmed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.armed == 0 && !c.stopped {
		c.ready.Wait()
	}
	return !c.stopped
}

func (c *Conn) deliver(msg *Message) error {
	id := msg.ChannelID()

	c.mu.Lock()
	if queue := c.waiting[id]; len(queue) > 0 {
		p := queue[0]
		queue[0] = nil
		c.waiting[id] = queue[1:]
		c.armed--
		c.mu.Unlock()
		p.Resolve(msg)
		return nil
	}
	if len(c.inbox[id]) >= MaxInboxMessages {
		c.mu.Unlock()
		return NewError(ErrorInboxOverflow, fmt.Errorf("%d messages buffered on %s", MaxInboxMessages, id))
	}
	c.inbox[id] = append(c.inbox[id], msg)
	c.mu.Unlock()
	return nil
}

// failReceive makes err sticky and rejects every parked receive with it
func (c *Conn) failReceive(err error) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.recvErr = err
	waiting := c.waiting
	c.waiting = make(map[ChannelID][]*ReceivePromise)
	c.armed = 0
	c.mu.Unlock()

	if errors.Is(err, io.EOF) {
		c.log.Info().Msg("link closed by peer")
	} else {
		c.log.Error().Err(err).Msg("receive failed")
	}

	for _, queue := range waiting {
		for _, p := range queue {
			p.Reject(err)
		}
	}
}

func (c *Conn) tap(dir Direction, msg *Message) {
	for _, t := range c.taps {
		t(dir, msg)
	}
}
