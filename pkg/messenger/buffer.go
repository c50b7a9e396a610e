package messenger

// DataConstBuffer is a read-only window into bytes owned by an envelope.
// It is only valid for the duration of the dispatch call that produced it;
// handlers that need the bytes later must copy them.
type DataConstBuffer struct {
	data   []byte
	offset int
}

// NewDataConstBuffer creates a view over data starting at offset.
// An offset past the end yields an empty view.
func NewDataConstBuffer(data []byte, offset int) DataConstBuffer {
	if offset > len(data) {
		offset = len(data)
	}
	if offset < 0 {
		offset = 0
	}
	return DataConstBuffer{data: data, offset: offset}
}

// Bytes returns the visible bytes. Do not retain or modify.
func (b DataConstBuffer) Bytes() []byte {
	return b.data[b.offset:]
}

// Len returns the number of visible bytes
func (b DataConstBuffer) Len() int {
	return len(b.data) - b.offset
}

// Offset returns the start of the view within the backing payload
func (b DataConstBuffer) Offset() int {
	return b.offset
}

// Advance returns a view that skips n more bytes
func (b DataConstBuffer) Advance(n int) DataConstBuffer {
	return NewDataConstBuffer(b.data, b.offset+n)
}

// Copy returns an owned copy of the visible bytes
func (b DataConstBuffer) Copy() []byte {
	out := make([]byte, b.Len())
	copy(out, b.Bytes())
	return out
}
