package messenger

import (
	"encoding/binary"
	"fmt"
)

const (
	// MessageIDSize is the width of the leading id in every payload
	MessageIDSize = 2

	// TimestampSize is the width of the leading timestamp in timestamped media
	TimestampSize = 8
)

// MessageID is the big-endian id at the front of a payload
type MessageID uint16

// ParseMessageID reads the id from the first two bytes of buf.
// The caller must ensure len(buf) >= MessageIDSize.
func ParseMessageID(buf []byte) MessageID {
	return MessageID(binary.BigEndian.Uint16(buf[:MessageIDSize]))
}

// Size returns the encoded width of the id
func (id MessageID) Size() int {
	return MessageIDSize
}

// Bytes encodes the id big-endian
func (id MessageID) Bytes() []byte {
	buf := make([]byte, MessageIDSize)
	binary.BigEndian.PutUint16(buf, uint16(id))
	return buf
}

func (id MessageID) String() string {
	return fmt.Sprintf("0x%04x", uint16(id))
}

// Timestamp is the big-endian microsecond stamp leading timestamped media
type Timestamp uint64

// ParseTimestamp reads the timestamp from the first eight bytes of buf.
// The caller must ensure len(buf) >= TimestampSize.
func ParseTimestamp(buf []byte) Timestamp {
	return Timestamp(binary.BigEndian.Uint64(buf[:TimestampSize]))
}

// Size returns the encoded width of the timestamp
func (t Timestamp) Size() int {
	return TimestampSize
}

// Bytes encodes the timestamp big-endian
func (t Timestamp) Bytes() []byte {
	buf := make([]byte, TimestampSize)
	binary.BigEndian.PutUint64(buf, uint64(t))
	return buf
}
