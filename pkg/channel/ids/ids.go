// Package ids lists the message ids of every namespace.
//
// Control ids may appear on any channel (a channel open request arrives on
// the channel being opened). Each service mixes them with its own specific
// ids in one flat dispatch table, so the two sets used by a service must
// not overlap.
package ids

import "github.com/ZentaChain/aalink/pkg/messenger"

// Control namespace
const (
	VersionRequest           messenger.MessageID = 0x0001
	VersionResponse          messenger.MessageID = 0x0002
	SSLHandshake             messenger.MessageID = 0x0003
	AuthComplete             messenger.MessageID = 0x0004
	ServiceDiscoveryRequest  messenger.MessageID = 0x0005
	ServiceDiscoveryResponse messenger.MessageID = 0x0006
	ChannelOpenRequest       messenger.MessageID = 0x0007
	ChannelOpenResponse      messenger.MessageID = 0x0008
	PingRequest              messenger.MessageID = 0x000b
	PingResponse             messenger.MessageID = 0x000c
	NavigationFocusRequest   messenger.MessageID = 0x000d
	NavigationFocusResponse  messenger.MessageID = 0x000e
	ShutdownRequest          messenger.MessageID = 0x000f
	ShutdownResponse         messenger.MessageID = 0x0010
	VoiceSessionRequest      messenger.MessageID = 0x0011
	AudioFocusRequest        messenger.MessageID = 0x0012
	AudioFocusResponse       messenger.MessageID = 0x0013
)

// AV namespace
const (
	AVMediaWithTimestampIndication messenger.MessageID = 0x0000
	AVMediaIndication              messenger.MessageID = 0x0001
	AVSetupRequest                 messenger.MessageID = 0x8000
	AVStartIndication              messenger.MessageID = 0x8001
	AVStopIndication               messenger.MessageID = 0x8002
	AVSetupResponse                messenger.MessageID = 0x8003
	AVMediaAckIndication           messenger.MessageID = 0x8004
	AVVideoFocusRequest            messenger.MessageID = 0x8007
	AVVideoFocusIndication         messenger.MessageID = 0x8008
)

// Sensor namespace
const (
	SensorStartRequest    messenger.MessageID = 0x8001
	SensorStartResponse   messenger.MessageID = 0x8002
	SensorEventIndication messenger.MessageID = 0x8003
)

// Input namespace
const (
	InputEventIndication messenger.MessageID = 0x8001
	InputBindingRequest  messenger.MessageID = 0x8002
	InputBindingResponse messenger.MessageID = 0x8003
)

// Bluetooth namespace
const (
	BluetoothPairingRequest  messenger.MessageID = 0x8001
	BluetoothPairingResponse messenger.MessageID = 0x8002
	BluetoothAuthData        messenger.MessageID = 0x8003
)
