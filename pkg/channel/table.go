package channel

import (
	"fmt"

	"github.com/ZentaChain/aalink/pkg/messenger"
)

// HandlerFunc routes one message body to a handler callback. A non-nil
// error is delivered to OnChannelError instead of the callback.
// body is only valid until the call returns.
type HandlerFunc[H any] func(handler H, body messenger.DataConstBuffer) error

// Table maps message ids to their routing
type Table[H any] map[messenger.MessageID]HandlerFunc[H]

// Decodable is a pointer to a schema-encoded body
type Decodable[T any] interface {
	*T
	Unmarshal(buf []byte) error
}

// Structured decodes the body into a fresh T before calling fn.
// Undecodable bodies are reported as ErrParsePayload and never reach fn.
func Structured[H any, T any, PT Decodable[T]](fn func(handler H, msg *T)) HandlerFunc[H] {
	return func(handler H, body messenger.DataConstBuffer) error {
		msg := PT(new(T))
		if err := msg.Unmarshal(body.Bytes()); err != nil {
			return messenger.NewError(messenger.ErrorParsePayload, fmt.Errorf("decode %T: %w", msg, err))
		}
		fn(handler, (*T)(msg))
		return nil
	}
}

// Raw forwards the body untouched
func Raw[H any](fn func(handler H, body messenger.DataConstBuffer)) HandlerFunc[H] {
	return func(handler H, body messenger.DataConstBuffer) error {
		fn(handler, body)
		return nil
	}
}

// Timestamped splits a leading 8-byte timestamp off the body
func Timestamped[H any](fn func(handler H, ts messenger.Timestamp, body messenger.DataConstBuffer)) HandlerFunc[H] {
	return func(handler H, body messenger.DataConstBuffer) error {
		if body.Len() < messenger.TimestampSize {
			return messenger.NewError(messenger.ErrorParsePayload, fmt.Errorf("timestamped body of %d bytes", body.Len()))
		}
		ts := messenger.ParseTimestamp(body.Bytes())
		fn(handler, ts, body.Advance(ts.Size()))
		return nil
	}
}

// IDs returns the ids routed by t
func (t Table[H]) IDs() []messenger.MessageID {
	ids := make([]messenger.MessageID, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	return ids
}

// Disjoint reports the first id present in both control and specific,
// or ok=true when the two id sets do not overlap
func Disjoint(control, specific []messenger.MessageID) (dup messenger.MessageID, ok bool) {
	seen := make(map[messenger.MessageID]struct{}, len(control))
	for _, id := range control {
		seen[id] = struct{}{}
	}
	for _, id := range specific {
		if _, clash := seen[id]; clash {
			return id, false
		}
	}
	return 0, true
}
