// Package proto holds the structured message bodies carried after the
// 2-byte message id. Bodies use the protobuf wire format (proto2 semantics:
// every set field is emitted, required fields are checked on decode).
package proto

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrMalformed    = errors.New("proto: malformed body")
	ErrWireType     = errors.New("proto: unexpected wire type")
	ErrMissingField = errors.New("proto: missing required field")
)

// Message is a schema-encoded body
type Message interface {
	Marshal() []byte
	Unmarshal(buf []byte) error
}

// ===== ENCODING =====

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendInt32(b []byte, num protowire.Number, v int32) []byte {
	return appendVarint(b, num, uint64(int64(v)))
}

func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	return appendVarint(b, num, uint64(v))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendMessage(b []byte, num protowire.Number, m Message) []byte {
	return appendBytes(b, num, m.Marshal())
}

// ===== DECODING =====

// decoder walks the fields of one body. Accessors consume the current
// field's value; the first failure sticks and ends iteration.
type decoder struct {
	buf  []byte
	num  protowire.Number
	typ  protowire.Type
	seen uint64
	err  error
}

func newDecoder(buf []byte) *decoder {
	return &decoder{buf: buf}
}

func (d *decoder) next() bool {
	if d.err != nil || len(d.buf) == 0 {
		return false
	}

	num, typ, n := protowire.ConsumeTag(d.buf)
	if n < 0 {
		d.err = fmt.Errorf("%w: tag: %v", ErrMalformed, protowire.ParseError(n))
		return false
	}
	d.buf = d.buf[n:]
	d.num, d.typ = num, typ
	return true
}

func (d *decoder) mark() {
	if d.num < 64 {
		d.seen |= 1 << uint(d.num)
	}
}

func (d *decoder) expect(typ protowire.Type) bool {
	if d.typ != typ {
		d.err = fmt.Errorf("%w: field %d has type %d, want %d", ErrWireType, d.num, d.typ, typ)
		return false
	}
	return true
}

func (d *decoder) varint() uint64 {
	if d.err != nil || !d.expect(protowire.VarintType) {
		return 0
	}

	v, n := protowire.ConsumeVarint(d.buf)
	if n < 0 {
		d.err = fmt.Errorf("%w: field %d: %v", ErrMalformed, d.num, protowire.ParseError(n))
		return 0
	}
	d.buf = d.buf[n:]
	d.mark()
	return v
}

func (d *decoder) int32() int32 {
	return int32(d.varint())
}

func (d *decoder) uint32() uint32 {
	return uint32(d.varint())
}

func (d *decoder) int64() int64 {
	return int64(d.varint())
}

func (d *decoder) uint64() uint64 {
	return d.varint()
}

func (d *decoder) bool() bool {
	return protowire.DecodeBool(d.varint())
}

func (d *decoder) bytes() []byte {
	if d.err != nil || !d.expect(protowire.BytesType) {
		return nil
	}

	v, n := protowire.ConsumeBytes(d.buf)
	if n < 0 {
		d.err = fmt.Errorf("%w: field %d: %v", ErrMalformed, d.num, protowire.ParseError(n))
		return nil
	}
	d.buf = d.buf[n:]
	d.mark()

	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (d *decoder) string() string {
	return string(d.bytes())
}

func (d *decoder) message(m Message) {
	b := d.bytes()
	if d.err != nil {
		return
	}
	if err := m.Unmarshal(b); err != nil {
		d.err = fmt.Errorf("field %d: %w", d.num, err)
	}
}

// repeatedVarint accepts both packed and unpacked encodings
func (d *decoder) repeatedVarint(add func(uint64)) {
	if d.err != nil {
		return
	}
	if d.typ != protowire.BytesType {
		v := d.varint()
		if d.err == nil {
			add(v)
		}
		return
	}

	packed := d.bytes()
	for len(packed) > 0 && d.err == nil {
		v, n := protowire.ConsumeVarint(packed)
		if n < 0 {
			d.err = fmt.Errorf("%w: packed field %d: %v", ErrMalformed, d.num, protowire.ParseError(n))
			return
		}
		add(v)
		packed = packed[n:]
	}
}

func (d *decoder) skip() {
	n := protowire.ConsumeFieldValue(d.num, d.typ, d.buf)
	if n < 0 {
		d.err = fmt.Errorf("%w: field %d: %v", ErrMalformed, d.num, protowire.ParseError(n))
		return
	}
	d.buf = d.buf[n:]
}

// finish reports the sticky error or the first missing required field
func (d *decoder) finish(required ...protowire.Number) error {
	if d.err != nil {
		return d.err
	}
	for _, num := range required {
		if d.seen&(1<<uint(num)) == 0 {
			return fmt.Errorf("%w: %d", ErrMissingField, num)
		}
	}
	return nil
}
