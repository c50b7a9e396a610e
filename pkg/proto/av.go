package proto

// AVChannelSetupStatus is the media sink's answer to a setup request
type AVChannelSetupStatus int32

const (
	AVChannelSetupStatusNone AVChannelSetupStatus = 0
	AVChannelSetupStatusFail AVChannelSetupStatus = 1
	AVChannelSetupStatusOK   AVChannelSetupStatus = 2
)

// VideoFocusMode tells the source whether the sink is showing its video
type VideoFocusMode int32

const (
	VideoFocusModeFocused   VideoFocusMode = 1
	VideoFocusModeUnfocused VideoFocusMode = 2
)

// AVChannelSetupRequest selects one of the advertised stream configurations
type AVChannelSetupRequest struct {
	ConfigIndex uint32
}

func (m *AVChannelSetupRequest) Marshal() []byte {
	return appendVarint(nil, 1, uint64(m.ConfigIndex))
}

func (m *AVChannelSetupRequest) Unmarshal(buf []byte) error {
	*m = AVChannelSetupRequest{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.ConfigIndex = d.uint32()
		default:
			d.skip()
		}
	}
	return d.finish(1)
}

// AVChannelSetupResponse accepts or refuses a setup request
type AVChannelSetupResponse struct {
	MediaStatus AVChannelSetupStatus
	MaxUnacked  uint32
	Configs     []uint32
}

func (m *AVChannelSetupResponse) Marshal() []byte {
	var b []byte
	b = appendInt32(b, 1, int32(m.MediaStatus))
	b = appendVarint(b, 2, uint64(m.MaxUnacked))
	for _, c := range m.Configs {
		b = appendVarint(b, 3, uint64(c))
	}
	return b
}

func (m *AVChannelSetupResponse) Unmarshal(buf []byte) error {
	*m = AVChannelSetupResponse{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.MediaStatus = AVChannelSetupStatus(d.int32())
		case 2:
			m.MaxUnacked = d.uint32()
		case 3:
			d.repeatedVarint(func(v uint64) { m.Configs = append(m.Configs, uint32(v)) })
		default:
			d.skip()
		}
	}
	return d.finish(1, 2)
}

// AVChannelStartIndication announces the start of a media session
type AVChannelStartIndication struct {
	Session int32
	Config  uint32
}

func (m *AVChannelStartIndication) Marshal() []byte {
	var b []byte
	b = appendInt32(b, 1, m.Session)
	b = appendVarint(b, 2, uint64(m.Config))
	return b
}

func (m *AVChannelStartIndication) Unmarshal(buf []byte) error {
	*m = AVChannelStartIndication{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.Session = d.int32()
		case 2:
			m.Config = d.uint32()
		default:
			d.skip()
		}
	}
	return d.finish(1, 2)
}

// AVChannelStopIndication ends the current media session. It has no fields.
type AVChannelStopIndication struct{}

func (m *AVChannelStopIndication) Marshal() []byte {
	return []byte{}
}

func (m *AVChannelStopIndication) Unmarshal(buf []byte) error {
	d := newDecoder(buf)
	for d.next() {
		d.skip()
	}
	return d.finish()
}

// AVMediaAckIndication acknowledges consumed media frames
type AVMediaAckIndication struct {
	Session int32
	Value   uint32
}

func (m *AVMediaAckIndication) Marshal() []byte {
	var b []byte
	b = appendInt32(b, 1, m.Session)
	b = appendVarint(b, 2, uint64(m.Value))
	return b
}

func (m *AVMediaAckIndication) Unmarshal(buf []byte) error {
	*m = AVMediaAckIndication{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.Session = d.int32()
		case 2:
			m.Value = d.uint32()
		default:
			d.skip()
		}
	}
	return d.finish(1, 2)
}

// VideoFocusRequest is sent by the source to ask for video focus
type VideoFocusRequest struct {
	DispIndex int32
	FocusMode VideoFocusMode
	Reason    int32
}

func (m *VideoFocusRequest) Marshal() []byte {
	var b []byte
	b = appendInt32(b, 1, m.DispIndex)
	b = appendInt32(b, 2, int32(m.FocusMode))
	b = appendInt32(b, 3, m.Reason)
	return b
}

func (m *VideoFocusRequest) Unmarshal(buf []byte) error {
	*m = VideoFocusRequest{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.DispIndex = d.int32()
		case 2:
			m.FocusMode = VideoFocusMode(d.int32())
		case 3:
			m.Reason = d.int32()
		default:
			d.skip()
		}
	}
	return d.finish(2)
}

// VideoFocusIndication reports the sink's current video focus
type VideoFocusIndication struct {
	FocusMode   VideoFocusMode
	Unrequested bool
}

func (m *VideoFocusIndication) Marshal() []byte {
	var b []byte
	b = appendInt32(b, 1, int32(m.FocusMode))
	b = appendBool(b, 2, m.Unrequested)
	return b
}

func (m *VideoFocusIndication) Unmarshal(buf []byte) error {
	*m = VideoFocusIndication{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.FocusMode = VideoFocusMode(d.int32())
		case 2:
			m.Unrequested = d.bool()
		default:
			d.skip()
		}
	}
	return d.finish(1, 2)
}
