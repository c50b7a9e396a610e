package proto

// SensorType selects one vehicle sensor
type SensorType int32

const (
	SensorTypeLocation      SensorType = 1
	SensorTypeCompass       SensorType = 2
	SensorTypeCarSpeed      SensorType = 3
	SensorTypeRPM           SensorType = 4
	SensorTypeOdometer      SensorType = 5
	SensorTypeFuelLevel     SensorType = 6
	SensorTypeParkingBrake  SensorType = 7
	SensorTypeGear          SensorType = 8
	SensorTypeNightData     SensorType = 10
	SensorTypeEnvironment   SensorType = 11
	SensorTypeDrivingStatus SensorType = 13
)

// SensorStartRequest subscribes to a sensor
type SensorStartRequest struct {
	SensorType      SensorType
	RefreshInterval int64
}

func (m *SensorStartRequest) Marshal() []byte {
	var b []byte
	b = appendInt32(b, 1, int32(m.SensorType))
	b = appendInt64(b, 2, m.RefreshInterval)
	return b
}

func (m *SensorStartRequest) Unmarshal(buf []byte) error {
	*m = SensorStartRequest{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.SensorType = SensorType(d.int32())
		case 2:
			m.RefreshInterval = d.int64()
		default:
			d.skip()
		}
	}
	return d.finish(1, 2)
}

// SensorStartResponse answers a SensorStartRequest
type SensorStartResponse struct {
	Status Status
}

func (m *SensorStartResponse) Marshal() []byte {
	return appendInt32(nil, 1, int32(m.Status))
}

func (m *SensorStartResponse) Unmarshal(buf []byte) error {
	*m = SensorStartResponse{}
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

// NightMode is one night-data sample
type NightMode struct {
	IsNight bool
}

func (m *NightMode) Marshal() []byte {
	return appendBool(nil, 1, m.IsNight)
}

func (m *NightMode) Unmarshal(buf []byte) error {
	*m = NightMode{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.IsNight = d.bool()
		default:
			d.skip()
		}
	}
	return d.finish(1)
}

// DrivingStatus is one driving-restriction sample
type DrivingStatus struct {
	Status int32
}

func (m *DrivingStatus) Marshal() []byte {
	return appendInt32(nil, 1, m.Status)
}

func (m *DrivingStatus) Unmarshal(buf []byte) error {
	*m = DrivingStatus{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.Status = d.int32()
		default:
			d.skip()
		}
	}
	return d.finish(1)
}

// SensorEventIndication pushes sensor samples to the device
type SensorEventIndication struct {
	NightMode     []NightMode
	DrivingStatus []DrivingStatus
}

func (m *SensorEventIndication) Marshal() []byte {
	b := []byte{}
	for i := range m.NightMode {
		b = appendMessage(b, 10, &m.NightMode[i])
	}
	for i := range m.DrivingStatus {
		b = appendMessage(b, 13, &m.DrivingStatus[i])
	}
	return b
}

func (m *SensorEventIndication) Unmarshal(buf []byte) error {
	*m = SensorEventIndication{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 10:
			var v NightMode
			d.message(&v)
			m.NightMode = append(m.NightMode, v)
		case 13:
			var v DrivingStatus
			d.message(&v)
			m.DrivingStatus = append(m.DrivingStatus, v)
		default:
			d.skip()
		}
	}
	return d.finish()
}
