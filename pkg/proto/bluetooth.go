package proto

// BluetoothPairingMethod is how the phone wants to pair with the head unit
type BluetoothPairingMethod int32

const (
	BluetoothPairingMethodNone    BluetoothPairingMethod = 0
	BluetoothPairingMethodOOB     BluetoothPairingMethod = 1
	BluetoothPairingMethodNumeric BluetoothPairingMethod = 2
	BluetoothPairingMethodPasskey BluetoothPairingMethod = 3
	BluetoothPairingMethodPin     BluetoothPairingMethod = 4
)

// BluetoothPairingRequest starts pairing with the phone's adapter
type BluetoothPairingRequest struct {
	PhoneAddress  string
	PairingMethod BluetoothPairingMethod
}

func (m *BluetoothPairingRequest) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, m.PhoneAddress)
	b = appendInt32(b, 2, int32(m.PairingMethod))
	return b
}

func (m *BluetoothPairingRequest) Unmarshal(buf []byte) error {
	*m = BluetoothPairingRequest{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.PhoneAddress = d.string()
		case 2:
			m.PairingMethod = BluetoothPairingMethod(d.int32())
		default:
			d.skip()
		}
	}
	return d.finish(1, 2)
}

// BluetoothPairingResponse answers a pairing request
type BluetoothPairingResponse struct {
	AlreadyPaired bool
	Status        Status
}

func (m *BluetoothPairingResponse) Marshal() []byte {
	var b []byte
	b = appendBool(b, 1, m.AlreadyPaired)
	b = appendInt32(b, 2, int32(m.Status))
	return b
}

func (m *BluetoothPairingResponse) Unmarshal(buf []byte) error {
	*m = BluetoothPairingResponse{}
	d := newDecoder(buf)
	for d.next() {
		switch d.num {
		case 1:
			m.AlreadyPaired = d.bool()
		case 2:
			m.Status = Status(d.int32())
		default:
			d.skip()
		}
	}
	return d.finish(1, 2)
}
