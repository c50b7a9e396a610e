package messenger

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameHeaderEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		header FrameHeader
		want   []byte
	}{
		{
			name:   "plain control bulk",
			header: FrameHeader{ChannelID: ChannelControl, Type: FrameBulk, MessageType: MessageTypeControl},
			want:   []byte{0x00, 0x07},
		},
		{
			name:   "encrypted specific first",
			header: FrameHeader{ChannelID: ChannelVideo, Type: FrameFirst, EncryptionType: EncryptionEncrypted},
			want:   []byte{0x03, 0x09},
		},
		{
			name:   "encrypted control middle",
			header: FrameHeader{ChannelID: ChannelSensor, Type: FrameMiddle, EncryptionType: EncryptionEncrypted, MessageType: MessageTypeControl},
			want:   []byte{0x02, 0x0c},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.header.Encode()
			if !bytes.Equal(encoded, tt.want) {
				t.Fatalf("Encode() = %x, want %x", encoded, tt.want)
			}

			decoded, err := DecodeFrameHeader(encoded)
			if err != nil {
				t.Fatalf("DecodeFrameHeader() error = %v", err)
			}
			if decoded != tt.header {
				t.Errorf("DecodeFrameHeader() = %+v, want %+v", decoded, tt.header)
			}
		})
	}
}

func TestDecodeFrameHeaderShort(t *testing.T) {
	if _, err := DecodeFrameHeader([]byte{0x01}); err == nil {
		t.Fatal("expected error for 1-byte header")
	}
}

func TestWriteReadFrame(t *testing.T) {
	frames := []Frame{
		{Header: FrameHeader{ChannelID: ChannelMediaAudio, Type: FrameBulk}, Payload: []byte{0x00, 0x01, 0xaa}},
		{Header: FrameHeader{ChannelID: ChannelVideo, Type: FrameFirst}, TotalSize: 40000, Payload: []byte{1, 2, 3, 4}},
		{Header: FrameHeader{ChannelID: ChannelVideo, Type: FrameLast}, Payload: []byte{}},
	}

	var buf bytes.Buffer
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame() error = %v", err)
		}
	}

	for i, want := range frames {
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame(%d) error = %v", i, err)
		}
		if got.Header != want.Header || got.TotalSize != want.TotalSize || !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("ReadFrame(%d) = %+v, want %+v", i, got, want)
		}
	}
}

func TestReadFrameRejectsOversizeTotal(t *testing.T) {
	var buf bytes.Buffer
	f := Frame{Header: FrameHeader{ChannelID: ChannelVideo, Type: FrameFirst}, TotalSize: MaxMessageSize + 1, Payload: []byte{1}}
	if err := WriteFrame(&buf, f); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}

	_, err := ReadFrame(&buf)
	if !errors.Is(err, ErrFrameOversize) {
		t.Fatalf("ReadFrame() error = %v, want %v", err, ErrFrameOversize)
	}
}

func TestSplitAndAssemble(t *testing.T) {
	payload := make([]byte, 2*MaxFramePayloadSize+123)
	for i := range payload {
		payload[i] = byte(i)
	}
	msg := NewMessageWithPayload(ChannelVideo, EncryptionPlain, MessageTypeSpecific, payload)

	frames := splitFrames(msg)
	if len(frames) != 3 {
		t.Fatalf("splitFrames() produced %d frames, want 3", len(frames))
	}
	wantTypes := []FrameType{FrameFirst, FrameMiddle, FrameLast}
	for i, f := range frames {
		if f.Header.Type != wantTypes[i] {
			t.Errorf("frame %d type = %s, want %s", i, f.Header.Type, wantTypes[i])
		}
	}

	a := newAssembler()
	var out *Message
	for _, f := range frames {
		m, err := a.push(f)
		if err != nil {
			t.Fatalf("push() error = %v", err)
		}
		if m != nil {
			out = m
		}
	}
	if out == nil {
		t.Fatal("assembler did not complete the message")
	}
	if !bytes.Equal(out.Payload(), payload) {
		t.Error("assembled payload differs from input")
	}
}

func TestSplitSmallIsBulk(t *testing.T) {
	msg := Build(ChannelSensor, EncryptionPlain, MessageTypeSpecific, 0x8003, nil)
	frames := splitFrames(msg)
	if len(frames) != 1 || frames[0].Header.Type != FrameBulk {
		t.Fatalf("splitFrames() = %+v, want one bulk frame", frames)
	}
}

func TestAssemblerSequenceErrors(t *testing.T) {
	video := FrameHeader{ChannelID: ChannelVideo}
	withType := func(typ FrameType) FrameHeader {
		h := video
		h.Type = typ
		return h
	}

	tests := []struct {
		name   string
		frames []Frame
	}{
		{
			name:   "middle without first",
			frames: []Frame{{Header: withType(FrameMiddle), Payload: []byte{1}}},
		},
		{
			name:   "last without first",
			frames: []Frame{{Header: withType(FrameLast), Payload: []byte{1}}},
		},
		{
			name: "bulk while assembling",
			frames: []Frame{
				{Header: withType(FrameFirst), TotalSize: 4, Payload: []byte{1, 2}},
				{Header: withType(FrameBulk), Payload: []byte{3}},
			},
		},
		{
			name: "second first",
			frames: []Frame{
				{Header: withType(FrameFirst), TotalSize: 4, Payload: []byte{1, 2}},
				{Header: withType(FrameFirst), TotalSize: 4, Payload: []byte{3, 4}},
			},
		},
		{
			name: "total mismatch",
			frames: []Frame{
				{Header: withType(FrameFirst), TotalSize: 5, Payload: []byte{1, 2}},
				{Header: withType(FrameLast), Payload: []byte{3, 4}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAssembler()
			var err error
			for _, f := range tt.frames {
				if _, err = a.push(f); err != nil {
					break
				}
			}
			if !errors.Is(err, ErrFrameSequence) {
				t.Errorf("push() error = %v, want %v", err, ErrFrameSequence)
			}
		})
	}
}

func TestAssemblerInterleavesChannels(t *testing.T) {
	a := newAssembler()

	steps := []Frame{
		{Header: FrameHeader{ChannelID: ChannelVideo, Type: FrameFirst}, TotalSize: 4, Payload: []byte{1, 2}},
		{Header: FrameHeader{ChannelID: ChannelSensor, Type: FrameBulk}, Payload: []byte{9}},
		{Header: FrameHeader{ChannelID: ChannelVideo, Type: FrameLast}, Payload: []byte{3, 4}},
	}

	var done []*Message
	for _, f := range steps {
		m, err := a.push(f)
		if err != nil {
			t.Fatalf("push() error = %v", err)
		}
		if m != nil {
			done = append(done, m)
		}
	}

	if len(done) != 2 {
		t.Fatalf("completed %d messages, want 2", len(done))
	}
	if done[0].ChannelID() != ChannelSensor || done[1].ChannelID() != ChannelVideo {
		t.Errorf("completion order = %s, %s", done[0].ChannelID(), done[1].ChannelID())
	}
	if !bytes.Equal(done[1].Payload(), []byte{1, 2, 3, 4}) {
		t.Errorf("video payload = %x", done[1].Payload())
	}
}
