package messenger

import (
	"encoding/binary"
	"fmt"
	"io"
)

// FrameType marks a frame's position within a message
type FrameType uint8

const (
	FrameMiddle FrameType = 0
	FrameFirst  FrameType = 1
	FrameLast   FrameType = 2
	FrameBulk   FrameType = 3
)

func (t FrameType) String() string {
	switch t {
	case FrameMiddle:
		return "middle"
	case FrameFirst:
		return "first"
	case FrameLast:
		return "last"
	default:
		return "bulk"
	}
}

const (
	// FrameHeaderSize is channel id + flags
	FrameHeaderSize = 2

	// FrameSizeShort is the plain u16 frame size
	FrameSizeShort = 2

	// FrameSizeExtended adds the u32 total message size on FIRST frames
	FrameSizeExtended = 6

	// MaxFramePayloadSize is the largest plaintext chunk per frame
	MaxFramePayloadSize = 0x4000

	// MaxMessageSize bounds the assembled size announced by a FIRST frame
	MaxMessageSize = 16 << 20

	frameTypeMask = 0x03
)

// FrameHeader is the two leading bytes of every frame
type FrameHeader struct {
	ChannelID      ChannelID
	Type           FrameType
	EncryptionType EncryptionType
	MessageType    MessageType
}

// Encode encodes the header to bytes
func (h FrameHeader) Encode() []byte {
	flags := uint8(h.Type)&frameTypeMask | uint8(h.EncryptionType) | uint8(h.MessageType)
	return []byte{uint8(h.ChannelID), flags}
}

// DecodeFrameHeader decodes the header from bytes
func DecodeFrameHeader(buf []byte) (FrameHeader, error) {
	if len(buf) < FrameHeaderSize {
		return FrameHeader{}, fmt.Errorf("short frame header: %d bytes", len(buf))
	}

	flags := buf[1]
	return FrameHeader{
		ChannelID:      ChannelID(buf[0]),
		Type:           FrameType(flags & frameTypeMask),
		EncryptionType: EncryptionType(flags & uint8(EncryptionEncrypted)),
		MessageType:    MessageType(flags & uint8(MessageTypeControl)),
	}, nil
}

// Frame is one wire frame. TotalSize is only meaningful on FIRST frames.
type Frame struct {
	Header    FrameHeader
	TotalSize uint32
	Payload   []byte
}

// WriteFrame writes a frame with a single Write call
func WriteFrame(w io.Writer, f Frame) error {
	if len(f.Payload) > 0xFFFF {
		return NewError(ErrorFrameOversize, fmt.Errorf("frame payload %d bytes", len(f.Payload)))
	}

	sizeLen := FrameSizeShort
	if f.Header.Type == FrameFirst {
		sizeLen = FrameSizeExtended
	}

	buf := make([]byte, 0, FrameHeaderSize+sizeLen+len(f.Payload))
	buf = append(buf, f.Header.Encode()...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(f.Payload)))
	if f.Header.Type == FrameFirst {
		buf = binary.BigEndian.AppendUint32(buf, f.TotalSize)
	}
	buf = append(buf, f.Payload...)

	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one frame
func ReadFrame(r io.Reader) (Frame, error) {
	var head [FrameHeaderSize + FrameSizeShort]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Frame{}, err
	}

	header, err := DecodeFrameHeader(head[:FrameHeaderSize])
	if err != nil {
		return Frame{}, err
	}
	f := Frame{Header: header}
	size := binary.BigEndian.Uint16(head[FrameHeaderSize:])

	if header.Type == FrameFirst {
		var total [4]byte
		if _, err := io.ReadFull(r, total[:]); err != nil {
			return Frame{}, err
		}
		f.TotalSize = binary.BigEndian.Uint32(total[:])
		if f.TotalSize > MaxMessageSize {
			return Frame{}, NewError(ErrorFrameOversize, fmt.Errorf("announced message size %d", f.TotalSize))
		}
	}

	f.Payload = make([]byte, size)
	if _, err := io.ReadFull(r, f.Payload); err != nil {
		return Frame{}, err
	}

	return f, nil
}

// assembler joins multi-frame messages, one in flight per channel
type assembler struct {
	pending map[ChannelID]*Message
	totals  map[ChannelID]uint32
}

func newAssembler() *assembler {
	return &assembler{
		pending: make(map[ChannelID]*Message),
		totals:  make(map[ChannelID]uint32),
	}
}

// push adds a frame whose payload is already decrypted and returns the
// message once complete
func (a *assembler) push(f Frame) (*Message, error) {
	h, payload := f.Header, f.Payload
	id := h.ChannelID

	switch h.Type {
	case FrameBulk:
		if _, busy := a.pending[id]; busy {
			return nil, NewError(ErrorFrameSequence, fmt.Errorf("bulk frame interleaved on %s", id))
		}
		return NewMessageWithPayload(id, h.EncryptionType, h.MessageType, payload), nil

	case FrameFirst:
		if _, busy := a.pending[id]; busy {
			return nil, NewError(ErrorFrameSequence, fmt.Errorf("first frame interleaved on %s", id))
		}
		msg := NewMessage(id, h.EncryptionType, h.MessageType)
		msg.Append(payload)
		a.pending[id] = msg
		a.totals[id] = f.TotalSize
		return nil, nil

	default:
		msg, ok := a.pending[id]
		if !ok {
			return nil, NewError(ErrorFrameSequence, fmt.Errorf("%s frame without first on %s", h.Type, id))
		}
		msg.Append(payload)
		if len(msg.Payload()) > MaxMessageSize {
			return nil, NewError(ErrorFrameOversize, fmt.Errorf("assembled message on %s", id))
		}
		if h.Type == FrameMiddle {
			return nil, nil
		}
		delete(a.pending, id)
		total := a.totals[id]
		delete(a.totals, id)
		if uint32(len(msg.Payload())) != total {
			return nil, NewError(ErrorFrameSequence, fmt.Errorf("assembled %d bytes on %s, announced %d", len(msg.Payload()), id, total))
		}
		return msg, nil
	}
}

// splitFrames cuts a payload into wire frames of at most MaxFramePayloadSize
func splitFrames(msg *Message) []Frame {
	payload := msg.Payload()
	header := FrameHeader{
		ChannelID:      msg.ChannelID(),
		EncryptionType: msg.EncryptionType(),
		MessageType:    msg.Type(),
	}

	if len(payload) <= MaxFramePayloadSize {
		header.Type = FrameBulk
		return []Frame{{Header: header, Payload: payload}}
	}

	count := (len(payload) + MaxFramePayloadSize - 1) / MaxFramePayloadSize
	frames := make([]Frame, 0, count)
	for offset := 0; offset < len(payload); offset += MaxFramePayloadSize {
		end := min(offset+MaxFramePayloadSize, len(payload))

		h := header
		switch {
		case offset == 0:
			h.Type = FrameFirst
		case end == len(payload):
			h.Type = FrameLast
		default:
			h.Type = FrameMiddle
		}
		frames = append(frames, Frame{Header: h, TotalSize: uint32(len(payload)), Payload: payload[offset:end]})
	}
	return frames
}
