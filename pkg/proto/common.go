package proto

// Status is the generic result code of request/response pairs
type Status int32

const (
	StatusOK   Status = 0
	StatusFail Status = -1
)

// ChannelOpenRequest asks the receiver to open a service channel
type ChannelOpenRequest struct {
	Priority  int32
	ChannelID int32
}

func (m *ChannelOpenRequest) Marshal() []byte {
	var b []byte
	b = appendInt32(b, 1, m.Priority)
	b = appendInt32(b, 2, m.ChannelID)
	return b
}

func (m *ChannelOpenRequest) Unmarshal(buf []byte) error {
	*m = ChannelOpenRequest{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.Priority = d.int32()
		case 2:
			m.ChannelID = d.int32()
		default:
			d.skip()
		}
	}
	return d.finish(1, 2)
}

// ChannelOpenResponse answers a ChannelOpenRequest
type ChannelOpenResponse struct {
	Status Status
}

func (m *ChannelOpenResponse) Marshal() []byte {
	return appendInt32(nil, 1, int32(m.Status))
}

func (m *ChannelOpenResponse) Unmarshal(buf []byte) error {
	*m = ChannelOpenResponse{}
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
