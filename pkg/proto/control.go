package proto

// AudioFocusType is what the device asks of the head unit's audio focus
type AudioFocusType int32

const (
	AudioFocusTypeNone          AudioFocusType = 0
	AudioFocusTypeGain          AudioFocusType = 1
	AudioFocusTypeGainTransient AudioFocusType = 2
	AudioFocusTypeGainNavi      AudioFocusType = 3
	AudioFocusTypeRelease       AudioFocusType = 4
)

// AudioFocusState is the focus the head unit grants
type AudioFocusState int32

const (
	AudioFocusStateNone                 AudioFocusState = 0
	AudioFocusStateGain                 AudioFocusState = 1
	AudioFocusStateGainTransient        AudioFocusState = 2
	AudioFocusStateLoss                 AudioFocusState = 3
	AudioFocusStateLossTransientCanDuck AudioFocusState = 4
	AudioFocusStateLossTransient        AudioFocusState = 5
	AudioFocusStateGainMediaOnly        AudioFocusState = 6
)

// ShutdownReason explains a shutdown request
type ShutdownReason int32

const (
	ShutdownReasonNone ShutdownReason = 0
	ShutdownReasonQuit ShutdownReason = 1
)

// ===== SERVICE DISCOVERY =====

// ServiceDiscoveryRequest identifies the device asking for the service list
type ServiceDiscoveryRequest struct {
	DeviceName  string
	DeviceBrand string
}

func (m *ServiceDiscoveryRequest) Marshal() []byte {
	var b []byte
	b = appendString(b, 4, m.DeviceName)
	b = appendString(b, 5, m.DeviceBrand)
	return b
}

func (m *ServiceDiscoveryRequest) Unmarshal(buf []byte) error {
	*m = ServiceDiscoveryRequest{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 4:
			m.DeviceName = d.string()
		case 5:
			m.DeviceBrand = d.string()
		default:
			d.skip()
		}
	}
	return d.finish(4, 5)
}

// ChannelDescriptor advertises one service channel
type ChannelDescriptor struct {
	ChannelID uint32
	Service   string
}

func (m *ChannelDescriptor) Marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(m.ChannelID))
	b = appendString(b, 2, m.Service)
	return b
}

func (m *ChannelDescriptor) Unmarshal(buf []byte) error {
	*m = ChannelDescriptor{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.ChannelID = d.uint32()
		case 2:
			m.Service = d.string()
		default:
			d.skip()
		}
	}
	return d.finish(1)
}

// ServiceDiscoveryResponse lists the head unit's channels and identity
type ServiceDiscoveryResponse struct {
	Channels      []ChannelDescriptor
	HeadUnitName  string
	CarModel      string
	CarYear       string
	CarSerial     string
	LeftHandDrive bool
	Manufacturer  string
	Model         string
	SwBuild       string
	SwVersion     string
}

func (m *ServiceDiscoveryResponse) Marshal() []byte {
	var b []byte
	for i := range m.Channels {
		b = appendMessage(b, 1, &m.Channels[i])
	}
	b = appendString(b, 2, m.HeadUnitName)
	b = appendString(b, 3, m.CarModel)
	b = appendString(b, 4, m.CarYear)
	b = appendString(b, 5, m.CarSerial)
	b = appendBool(b, 6, m.LeftHandDrive)
	b = appendString(b, 7, m.Manufacturer)
	b = appendString(b, 8, m.Model)
	b = appendString(b, 9, m.SwBuild)
	b = appendString(b, 10, m.SwVersion)
	return b
}

func (m *ServiceDiscoveryResponse) Unmarshal(buf []byte) error {
	*m = ServiceDiscoveryResponse{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			var ch ChannelDescriptor
			d.message(&ch)
			m.Channels = append(m.Channels, ch)
		case 2:
			m.HeadUnitName = d.string()
		case 3:
			m.CarModel = d.string()
		case 4:
			m.CarYear = d.string()
		case 5:
			m.CarSerial = d.string()
		case 6:
			m.LeftHandDrive = d.bool()
		case 7:
			m.Manufacturer = d.string()
		case 8:
			m.Model = d.string()
		case 9:
			m.SwBuild = d.string()
		case 10:
			m.SwVersion = d.string()
		default:
			d.skip()
		}
	}
	return d.finish(2, 3, 4, 5, 6, 7, 8, 9, 10)
}

// ===== FOCUS =====

// AudioFocusRequest asks for a change of audio focus
type AudioFocusRequest struct {
	Type AudioFocusType
}

func (m *AudioFocusRequest) Marshal() []byte {
	return appendInt32(nil, 1, int32(m.Type))
}

func (m *AudioFocusRequest) Unmarshal(buf []byte) error {
	*m = AudioFocusRequest{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.Type = AudioFocusType(d.int32())
		default:
			d.skip()
		}
	}
	return d.finish(1)
}

// AudioFocusResponse grants an audio focus state
type AudioFocusResponse struct {
	State AudioFocusState
}

func (m *AudioFocusResponse) Marshal() []byte {
	return appendInt32(nil, 1, int32(m.State))
}

func (m *AudioFocusResponse) Unmarshal(buf []byte) error {
	*m = AudioFocusResponse{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.State = AudioFocusState(d.int32())
		default:
			d.skip()
		}
	}
	return d.finish(1)
}

// NavigationFocusRequest asks for navigation focus
type NavigationFocusRequest struct {
	Type uint32
}

func (m *NavigationFocusRequest) Marshal() []byte {
	return appendVarint(nil, 1, uint64(m.Type))
}

func (m *NavigationFocusRequest) Unmarshal(buf []byte) error {
	*m = NavigationFocusRequest{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.Type = d.uint32()
		default:
			d.skip()
		}
	}
	return d.finish(1)
}

// NavigationFocusResponse grants navigation focus
type NavigationFocusResponse struct {
	Type uint32
}

func (m *NavigationFocusResponse) Marshal() []byte {
	return appendVarint(nil, 1, uint64(m.Type))
}

func (m *NavigationFocusResponse) Unmarshal(buf []byte) error {
	*m = NavigationFocusResponse{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.Type = d.uint32()
		default:
			d.skip()
		}
	}
	return d.finish(1)
}

// VoiceSessionRequest starts or stops a voice session
type VoiceSessionRequest struct {
	Type uint32
}

func (m *VoiceSessionRequest) Marshal() []byte {
	return appendVarint(nil, 1, uint64(m.Type))
}

func (m *VoiceSessionRequest) Unmarshal(buf []byte) error {
	*m = VoiceSessionRequest{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.Type = d.uint32()
		default:
			d.skip()
		}
	}
	return d.finish(1)
}

// ===== SHUTDOWN / PING =====

// ShutdownRequest asks the peer to close the session
type ShutdownRequest struct {
	Reason ShutdownReason
}

func (m *ShutdownRequest) Marshal() []byte {
	return appendInt32(nil, 1, int32(m.Reason))
}

func (m *ShutdownRequest) Unmarshal(buf []byte) error {
	*m = ShutdownRequest{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.Reason = ShutdownReason(d.int32())
		default:
			d.skip()
		}
	}
	return d.finish(1)
}

// ShutdownResponse acknowledges a shutdown. It has no fields.
type ShutdownResponse struct{}

func (m *ShutdownResponse) Marshal() []byte {
	return []byte{}
}

func (m *ShutdownResponse) Unmarshal(buf []byte) error {
	d := newDecoder(buf)
	for d.next() {
		d.skip()
	}
	return d.finish()
}

// PingRequest carries the sender's clock
type PingRequest struct {
	Timestamp int64
}

func (m *PingRequest) Marshal() []byte {
	return appendInt64(nil, 1, m.Timestamp)
}

func (m *PingRequest) Unmarshal(buf []byte) error {
	*m = PingRequest{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.Timestamp = d.int64()
		default:
			d.skip()
		}
	}
	return d.finish(1)
}

// PingResponse echoes the request's timestamp
type PingResponse struct {
	Timestamp int64
}

func (m *PingResponse) Marshal() []byte {
	return appendInt64(nil, 1, m.Timestamp)
}

func (m *PingResponse) Unmarshal(buf []byte) error {
	*m = PingResponse{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.Timestamp = d.int64()
		default:
			d.skip()
		}
	}
	return d.finish(1)
}

// ===== AUTH =====

// AuthCompleteIndication ends the link handshake
type AuthCompleteIndication struct {
	Status Status
}

func (m *AuthCompleteIndication) Marshal() []byte {
	return appendInt32(nil, 1, int32(m.Status))
}

func (m *AuthCompleteIndication) Unmarshal(buf []byte) error {
	*m = AuthCompleteIndication{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.Status = Status(d.int32())
		default:
			d.skip()
		}
	}
	return d.finish(1)
}
