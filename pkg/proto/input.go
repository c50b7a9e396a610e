package proto

// TouchAction is the pointer action of a touch event
type TouchAction int32

const (
	TouchActionPress       TouchAction = 0
	TouchActionRelease     TouchAction = 1
	TouchActionDrag        TouchAction = 2
	TouchActionPointerDown TouchAction = 5
	TouchActionPointerUp   TouchAction = 6
)

// BindingRequest asks the head unit to route the listed key scancodes
type BindingRequest struct {
	ScanCodes []int32
}

func (m *BindingRequest) Marshal() []byte {
	b := []byte{}
	for _, c := range m.ScanCodes {
		b = appendInt32(b, 1, c)
	}
	return b
}

func (m *BindingRequest) Unmarshal(buf []byte) error {
	*m = BindingRequest{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			d.repeatedVarint(func(v uint64) { m.ScanCodes = append(m.ScanCodes, int32(v)) })
		default:
			d.skip()
		}
	}
	return d.finish()
}

// BindingResponse answers a BindingRequest
type BindingResponse struct {
	Status Status
}

func (m *BindingResponse) Marshal() []byte {
	return appendInt32(nil, 1, int32(m.Status))
}

func (m *BindingResponse) Unmarshal(buf []byte) error {
	*m = BindingResponse{}
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

// TouchLocation is one pointer position
type TouchLocation struct {
	X         uint32
	Y         uint32
	PointerID uint32
}

func (m *TouchLocation) Marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(m.X))
	b = appendVarint(b, 2, uint64(m.Y))
	b = appendVarint(b, 3, uint64(m.PointerID))
	return b
}

func (m *TouchLocation) Unmarshal(buf []byte) error {
	*m = TouchLocation{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.X = d.uint32()
		case 2:
			m.Y = d.uint32()
		case 3:
			m.PointerID = d.uint32()
		default:
			d.skip()
		}
	}
	return d.finish(1, 2, 3)
}

// TouchEvent is a multi-pointer touch sample
type TouchEvent struct {
	Locations   []TouchLocation
	ActionIndex uint32
	Action      TouchAction
}

func (m *TouchEvent) Marshal() []byte {
	var b []byte
	for i := range m.Locations {
		b = appendMessage(b, 1, &m.Locations[i])
	}
	b = appendVarint(b, 2, uint64(m.ActionIndex))
	b = appendInt32(b, 3, int32(m.Action))
	return b
}

func (m *TouchEvent) Unmarshal(buf []byte) error {
	*m = TouchEvent{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			var loc TouchLocation
			d.message(&loc)
			m.Locations = append(m.Locations, loc)
		case 2:
			m.ActionIndex = d.uint32()
		case 3:
			m.Action = TouchAction(d.int32())
		default:
			d.skip()
		}
	}
	return d.finish(3)
}

// ButtonEvent is one key press or release
type ButtonEvent struct {
	ScanCode  uint32
	IsPressed bool
	Meta      uint32
	LongPress bool
}

func (m *ButtonEvent) Marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(m.ScanCode))
	b = appendBool(b, 2, m.IsPressed)
	b = appendVarint(b, 3, uint64(m.Meta))
	b = appendBool(b, 4, m.LongPress)
	return b
}

func (m *ButtonEvent) Unmarshal(buf []byte) error {
	*m = ButtonEvent{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.ScanCode = d.uint32()
		case 2:
			m.IsPressed = d.bool()
		case 3:
			m.Meta = d.uint32()
		case 4:
			m.LongPress = d.bool()
		default:
			d.skip()
		}
	}
	return d.finish(1, 2)
}

// InputEventIndication pushes touch and key input to the device
type InputEventIndication struct {
	Timestamp    uint64
	DispChannel  int32
	TouchEvent   *TouchEvent
	ButtonEvents []ButtonEvent
}

func (m *InputEventIndication) Marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, m.Timestamp)
	b = appendInt32(b, 2, m.DispChannel)
	if m.TouchEvent != nil {
		b = appendMessage(b, 3, m.TouchEvent)
	}
	for i := range m.ButtonEvents {
		b = appendMessage(b, 4, &m.ButtonEvents[i])
	}
	return b
}

func (m *InputEventIndication) Unmarshal(buf []byte) error {
	*m = InputEventIndication{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.Timestamp = d.uint64()
		case 2:
			m.DispChannel = d.int32()
		case 3:
			m.TouchEvent = &TouchEvent{}
			d.message(m.TouchEvent)
		case 4:
			var ev ButtonEvent
			d.message(&ev)
			m.ButtonEvents = append(m.ButtonEvents, ev)
		default:
			d.skip()
		}
	}
	return d.finish(1)
}
