// Package channel implements the per-channel message pump shared by every
// service: send and receive over a Messenger, and routing of inbound
// envelopes through a per-service handler table.
//
// A channel consumes one message per Receive call. Handlers invoked for a
// known id decide when to call Receive again; ids missing from the table
// are skipped and the channel re-arms itself.
package channel

import (
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ZentaChain/aalink/pkg/messenger"
)

// State is the receive-side position of a channel
type State int32

const (
	// StateIdle means no receive is outstanding
	StateIdle State = iota
	// StateAwaitingMessage means a receive promise is outstanding
	StateAwaitingMessage
	// StateDispatching means a resolved message is being routed
	StateDispatching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingMessage:
		return "awaiting_message"
	case StateDispatching:
		return "dispatching"
	default:
		return "unknown"
	}
}

// ErrorHandler receives every failure surfaced on a channel
type ErrorHandler interface {
	OnChannelError(err error)
}

// Option configures a Channel
type Option func(*options)

type options struct {
	log        zerolog.Logger
	observer   Observer
	encryption messenger.EncryptionType
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.log = logger
	}
}

// WithObserver reports dispatch outcomes to obs
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithEncryption sets the encryption tag of envelopes built by the channel.
// Channels encrypt by default.
func WithEncryption(enc messenger.EncryptionType) Option {
	return func(o *options) {
		o.encryption = enc
	}
}

// Channel is one logical stream bound to a strand and a messenger.
// All receive continuations and dispatches run on the strand.
type Channel[H ErrorHandler] struct {
	id         messenger.ChannelID
	strand     *messenger.Strand
	messenger  messenger.Messenger
	table      Table[H]
	log        zerolog.Logger
	observer   Observer
	encryption messenger.EncryptionType

	state atomic.Int32
}

// New creates an idle channel
func New[H ErrorHandler](strand *messenger.Strand, m messenger.Messenger, id messenger.ChannelID, table Table[H], opts ...Option) *Channel[H] {
	o := options{log: log.Logger, observer: nopObserver{}, encryption: messenger.EncryptionEncrypted}
	for _, opt := range opts {
		opt(&o)
	}

	return &Channel[H]{
		id:         id,
		strand:     strand,
		messenger:  m,
		table:      table,
		log:        o.log.With().Stringer("channel", id).Logger(),
		observer:   o.observer,
		encryption: o.encryption,
	}
}

// ID returns the channel id
func (c *Channel[H]) ID() messenger.ChannelID {
	return c.id
}

// State reports the receive-side state
func (c *Channel[H]) State() State {
	return State(c.state.Load())
}

// Strand returns the strand continuations run on
func (c *Channel[H]) Strand() *messenger.Strand {
	return c.strand
}

// Envelope builds an outbound message carrying id and body.
// body may be nil for id-only messages.
func (c *Channel[H]) Envelope(typ messenger.MessageType, id messenger.MessageID, body messenger.Marshaler) *messenger.Message {
	return messenger.Build(c.id, c.encryption, typ, id, body)
}

// Send hands msg to the messenger. promise settles once it is written.
func (c *Channel[H]) Send(msg *messenger.Message, promise *messenger.SendPromise) {
	c.messenger.EnqueueSend(msg, promise)
}

// Receive arms the channel for exactly one inbound message, which is routed
// to handler. It does not guard against arming twice.
func (c *Channel[H]) Receive(handler H) {
	c.state.Store(int32(StateAwaitingMessage))

	promise := messenger.NewReceivePromise(c.strand)
	promise.Then(
		func(msg *messenger.Message) {
			c.state.Store(int32(StateDispatching))
			c.dispatch(msg, handler)
			// stays AwaitingMessage if the handler re-armed
			c.state.CompareAndSwap(int32(StateDispatching), int32(StateIdle))
		},
		func(err error) {
			c.state.Store(int32(StateIdle))
			c.observer.ChannelError(c.id, err)
			handler.OnChannelError(err)
		},
	)
	c.messenger.EnqueueReceive(c.id, promise)
}

func (c *Channel[H]) dispatch(msg *messenger.Message, handler H) {
	payload := msg.Payload()
	if len(payload) < messenger.MessageIDSize {
		c.log.Debug().Int("size", len(payload)).Msg("payload shorter than message id")
		c.observer.Dispatched(c.id, 0, OutcomeMalformed)
		c.fail(handler, messenger.ErrParsePayload)
		return
	}

	id := messenger.ParseMessageID(payload)
	body := messenger.NewDataConstBuffer(payload, id.Size())

	fn, ok := c.table[id]
	if !ok {
		c.log.Debug().Stringer("message_id", id).Int("size", body.Len()).Msg("unhandled message")
		c.observer.Dispatched(c.id, id, OutcomeUnhandled)
		c.Receive(handler)
		return
	}

	if err := fn(handler, body); err != nil {
		c.log.Debug().Err(err).Stringer("message_id", id).Msg("dispatch failed")
		c.observer.Dispatched(c.id, id, OutcomeMalformed)
		c.fail(handler, err)
		return
	}
	c.observer.Dispatched(c.id, id, OutcomeHandled)
}

func (c *Channel[H]) fail(handler H, err error) {
	c.observer.ChannelError(c.id, err)
	handler.OnChannelError(err)
}
