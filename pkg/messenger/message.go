package messenger

// Marshaler is a schema-encoded message body
type Marshaler interface {
	Marshal() []byte
}

// Message is one envelope of channel traffic. The payload only grows.
type Message struct {
	channelID      ChannelID
	encryptionType EncryptionType
	messageType    MessageType
	payload        []byte
}

// NewMessage creates an empty envelope
func NewMessage(channelID ChannelID, encryptionType EncryptionType, messageType MessageType) *Message {
	return &Message{
		channelID:      channelID,
		encryptionType: encryptionType,
		messageType:    messageType,
	}
}

// NewMessageWithPayload wraps an already assembled payload, taking ownership of it
func NewMessageWithPayload(channelID ChannelID, encryptionType EncryptionType, messageType MessageType, payload []byte) *Message {
	msg := NewMessage(channelID, encryptionType, messageType)
	msg.payload = payload
	return msg
}

func (m *Message) ChannelID() ChannelID {
	return m.channelID
}

func (m *Message) EncryptionType() EncryptionType {
	return m.encryptionType
}

func (m *Message) Type() MessageType {
	return m.messageType
}

// Payload returns the envelope bytes. The slice aliases the envelope.
func (m *Message) Payload() []byte {
	return m.payload
}

// Append appends raw bytes to the payload
func (m *Message) Append(data []byte) {
	m.payload = append(m.payload, data...)
}

// AppendMessageID appends the 2-byte big-endian id
func (m *Message) AppendMessageID(id MessageID) {
	m.payload = append(m.payload, id.Bytes()...)
}

// AppendBody appends a schema-encoded body
func (m *Message) AppendBody(body Marshaler) {
	m.payload = append(m.payload, body.Marshal()...)
}

// Build creates an envelope holding id followed by the encoded body
func Build(channelID ChannelID, encryptionType EncryptionType, messageType MessageType, id MessageID, body Marshaler) *Message {
	msg := NewMessage(channelID, encryptionType, messageType)
	msg.AppendMessageID(id)
	if body != nil {
		msg.AppendBody(body)
	}
	return msg
}
