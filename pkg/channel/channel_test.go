package channel

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/aalink/pkg/channel/channeltest"
	"github.com/ZentaChain/aalink/pkg/messenger"
	"github.com/ZentaChain/aalink/pkg/proto"
)

const (
	testOpenID  messenger.MessageID = 0x0007
	testRawID   messenger.MessageID = 0x0001
	testStampID messenger.MessageID = 0x0000
)

type recorder struct {
	mu      sync.Mutex
	opens   []*proto.ChannelOpenRequest
	raw     [][]byte
	stamps  []messenger.Timestamp
	errs    []error
	rearm   func()
	onError func()
}

func (r *recorder) OnChannelError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	if r.onError != nil {
		r.onError()
	}
}

func (r *recorder) onOpen(req *proto.ChannelOpenRequest) {
	r.mu.Lock()
	r.opens = append(r.opens, req)
	r.mu.Unlock()
	if r.rearm != nil {
		r.rearm()
	}
}

func testTable() Table[*recorder] {
	return Table[*recorder]{
		testOpenID: Structured((*recorder).onOpen),
		testRawID: Raw(func(r *recorder, body messenger.DataConstBuffer) {
			r.raw = append(r.raw, body.Copy())
		}),
		testStampID: Timestamped(func(r *recorder, ts messenger.Timestamp, body messenger.DataConstBuffer) {
			r.stamps = append(r.stamps, ts)
			r.raw = append(r.raw, body.Copy())
		}),
	}
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[Outcome]int
	errors   int
}

func (o *countingObserver) Dispatched(_ messenger.ChannelID, _ messenger.MessageID, outcome Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[Outcome]int{}
	}
	o.outcomes[outcome]++
}

func (o *countingObserver) ChannelError(messenger.ChannelID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors++
}

func newTestChannel(t *testing.T, opts ...Option) (*Channel[*recorder], *channeltest.Messenger) {
	t.Helper()
	strand := messenger.NewStrand()
	t.Cleanup(strand.Stop)

	m := channeltest.NewMessenger()
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	return New(strand, m, messenger.ChannelVideo, testTable(), opts...), m
}

func deliver(t *testing.T, c *Channel[*recorder], m *channeltest.Messenger, payload []byte) {
	t.Helper()
	msg := messenger.NewMessageWithPayload(c.ID(), messenger.EncryptionPlain, messenger.MessageTypeSpecific, payload)
	require.True(t, m.Deliver(msg), "no receive armed")
	require.True(t, channeltest.Flush(c.Strand()))
}

func TestReceiveArmsOnce(t *testing.T) {
	c, m := newTestChannel(t)
	assert.Equal(t, StateIdle, c.State())

	c.Receive(&recorder{})
	assert.Equal(t, 1, m.Armed(messenger.ChannelVideo))
	assert.Equal(t, StateAwaitingMessage, c.State())
}

func TestKnownIDDoesNotRearm(t *testing.T) {
	c, m := newTestChannel(t)
	r := &recorder{}

	c.Receive(r)
	body := (&proto.ChannelOpenRequest{Priority: 1, ChannelID: 3}).Marshal()
	deliver(t, c, m, append(testOpenID.Bytes(), body...))

	require.Len(t, r.opens, 1)
	assert.Equal(t, int32(3), r.opens[0].ChannelID)
	assert.Empty(t, r.errs)
	assert.Equal(t, 1, m.Armed(messenger.ChannelVideo))
	assert.Equal(t, StateIdle, c.State())
}

func TestHandlerRearmKeepsAwaiting(t *testing.T) {
	c, m := newTestChannel(t)
	r := &recorder{}
	r.rearm = func() { c.Receive(r) }

	c.Receive(r)
	body := (&proto.ChannelOpenRequest{Priority: 1, ChannelID: 3}).Marshal()
	deliver(t, c, m, append(testOpenID.Bytes(), body...))
	deliver(t, c, m, append(testOpenID.Bytes(), body...))

	assert.Len(t, r.opens, 2)
	assert.Equal(t, 3, m.Armed(messenger.ChannelVideo))
	assert.Equal(t, StateAwaitingMessage, c.State())
}

func TestUnknownIDRearmsExactlyOnce(t *testing.T) {
	obs := &countingObserver{}
	c, m := newTestChannel(t, WithObserver(obs))
	r := &recorder{}

	c.Receive(r)
	deliver(t, c, m, []byte{0x12, 0x34, 0xde, 0xad})

	assert.Empty(t, r.opens)
	assert.Empty(t, r.errs)
	assert.Equal(t, 2, m.Armed(messenger.ChannelVideo))
	assert.Equal(t, 1, m.Pending(messenger.ChannelVideo))
	assert.Equal(t, StateAwaitingMessage, c.State())
	assert.Equal(t, 1, obs.outcomes[OutcomeUnhandled])
}

func TestShortPayload(t *testing.T) {
	c, m := newTestChannel(t)
	r := &recorder{}

	c.Receive(r)
	deliver(t, c, m, []byte{0x80})

	require.Len(t, r.errs, 1)
	assert.ErrorIs(t, r.errs[0], messenger.ErrParsePayload)
	assert.Equal(t, 1, m.Armed(messenger.ChannelVideo))
	assert.Equal(t, StateIdle, c.State())
}

func TestUndecodableBody(t *testing.T) {
	obs := &countingObserver{}
	c, m := newTestChannel(t, WithObserver(obs))
	r := &recorder{}

	c.Receive(r)
	deliver(t, c, m, append(testOpenID.Bytes(), 0xff))

	assert.Empty(t, r.opens)
	require.Len(t, r.errs, 1)
	assert.ErrorIs(t, r.errs[0], messenger.ErrParsePayload)
	assert.Equal(t, 1, m.Armed(messenger.ChannelVideo))
	assert.Equal(t, 1, obs.outcomes[OutcomeMalformed])
	assert.Equal(t, 1, obs.errors)
}

func TestRawBodyForwarded(t *testing.T) {
	c, m := newTestChannel(t)
	r := &recorder{}

	c.Receive(r)
	deliver(t, c, m, []byte{0x00, 0x01, 0xca, 0xfe})

	require.Len(t, r.raw, 1)
	assert.Equal(t, []byte{0xca, 0xfe}, r.raw[0])
}

func TestTimestampedBody(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		wantErr bool
		wantTS  messenger.Timestamp
		rest    []byte
	}{
		{
			name:    "timestamp only",
			payload: []byte{0, 0, 0, 0, 0, 0, 0, 0, 0x01, 0x02},
			wantTS:  0x0102,
			rest:    []byte{},
		},
		{
			name:    "timestamp and data",
			payload: []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0x05, 0xaa},
			wantTS:  5,
			rest:    []byte{0xaa},
		},
		{
			name:    "one byte short",
			payload: []byte{0, 0, 0, 0, 0, 0, 0, 0, 0x01},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, m := newTestChannel(t)
			r := &recorder{}

			c.Receive(r)
			deliver(t, c, m, tt.payload)

			if tt.wantErr {
				require.Len(t, r.errs, 1)
				assert.ErrorIs(t, r.errs[0], messenger.ErrParsePayload)
				assert.Empty(t, r.stamps)
				return
			}
			assert.Empty(t, r.errs)
			require.Len(t, r.stamps, 1)
			assert.Equal(t, tt.wantTS, r.stamps[0])
			assert.Equal(t, tt.rest, r.raw[0])
		})
	}
}

func TestReceiveFailureIsTerminal(t *testing.T) {
	c, m := newTestChannel(t)
	r := &recorder{}

	c.Receive(r)
	require.True(t, m.Fail(messenger.ChannelVideo, messenger.NewError(messenger.ErrorTransportReceive, errors.New("reset"))))
	require.True(t, channeltest.Flush(c.Strand()))

	require.Len(t, r.errs, 1)
	assert.ErrorIs(t, r.errs[0], messenger.ErrTransportReceive)
	assert.Equal(t, 1, m.Armed(messenger.ChannelVideo))
	assert.Equal(t, StateIdle, c.State())
}

func TestSendDelegates(t *testing.T) {
	c, m := newTestChannel(t)

	msg := messenger.Build(c.ID(), messenger.EncryptionPlain, messenger.MessageTypeControl, 0x0008, &proto.ChannelOpenResponse{})
	c.Send(msg, messenger.NewSendPromise(c.Strand()))

	require.Len(t, m.Sent(), 1)
	assert.Same(t, msg, m.Sent()[0])
}

func TestDisjoint(t *testing.T) {
	_, ok := Disjoint([]messenger.MessageID{0x0007, 0x0008}, []messenger.MessageID{0x8000, 0x8001})
	assert.True(t, ok)

	dup, ok := Disjoint([]messenger.MessageID{0x0001, 0x0007}, []messenger.MessageID{0x0001})
	assert.False(t, ok)
	assert.Equal(t, messenger.MessageID(0x0001), dup)
}
