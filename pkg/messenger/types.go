package messenger

import "fmt"

// ChannelID identifies one logical stream within a session
type ChannelID uint8

// Well-known channel ids
const (
	ChannelControl     ChannelID = 0
	ChannelInput       ChannelID = 1
	ChannelSensor      ChannelID = 2
	ChannelVideo       ChannelID = 3
	ChannelMediaAudio  ChannelID = 4
	ChannelSpeechAudio ChannelID = 5
	ChannelSystemAudio ChannelID = 6
	ChannelAVInput     ChannelID = 7
	ChannelBluetooth   ChannelID = 8
	ChannelNone        ChannelID = 255
)

var channelNames = map[ChannelID]string{
	ChannelControl:     "control",
	ChannelInput:       "input",
	ChannelSensor:      "sensor",
	ChannelVideo:       "video",
	ChannelMediaAudio:  "media_audio",
	ChannelSpeechAudio: "speech_audio",
	ChannelSystemAudio: "system_audio",
	ChannelAVInput:     "av_input",
	ChannelBluetooth:   "bluetooth",
	ChannelNone:        "none",
}

func (c ChannelID) String() string {
	if name, ok := channelNames[c]; ok {
		return name
	}
	return fmt.Sprintf("channel(%d)", uint8(c))
}

// EncryptionType tags whether the transport must encrypt an envelope
type EncryptionType uint8

const (
	EncryptionPlain     EncryptionType = 0
	EncryptionEncrypted EncryptionType = 1 << 3
)

func (e EncryptionType) String() string {
	if e == EncryptionEncrypted {
		return "encrypted"
	}
	return "plain"
}

// MessageType tags which id namespace an outbound envelope's leading id
// was drawn from. Inbound dispatch never looks at it.
type MessageType uint8

const (
	MessageTypeSpecific MessageType = 0
	MessageTypeControl  MessageType = 1 << 2
)

func (t MessageType) String() string {
	if t == MessageTypeControl {
		return "control"
	}
	return "specific"
}
