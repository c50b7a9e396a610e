// Package bluetooth implements the bluetooth channel used to pair the
// phone with the head unit's hands-free adapter.
package bluetooth

import (
	"github.com/ZentaChain/aalink/pkg/channel"
	"github.com/ZentaChain/aalink/pkg/channel/ids"
	"github.com/ZentaChain/aalink/pkg/messenger"
	"github.com/ZentaChain/aalink/pkg/proto"
)

// EventHandler receives bluetooth channel traffic. Callbacks do not re-arm.
type EventHandler interface {
	channel.ErrorHandler
	OnChannelOpenRequest(req *proto.ChannelOpenRequest)
	OnBluetoothPairingRequest(req *proto.BluetoothPairingRequest)
}

var (
	controlIDs  = []messenger.MessageID{ids.ChannelOpenRequest, ids.ChannelOpenResponse}
	specificIDs = []messenger.MessageID{ids.BluetoothPairingRequest, ids.BluetoothPairingResponse, ids.BluetoothAuthData}
)

var table = channel.Table[EventHandler]{
	ids.ChannelOpenRequest:      channel.Structured(EventHandler.OnChannelOpenRequest),
	ids.BluetoothPairingRequest: channel.Structured(EventHandler.OnBluetoothPairingRequest),
}

// Service is the bluetooth channel
type Service struct {
	*channel.Channel[EventHandler]
}

func NewService(strand *messenger.Strand, m messenger.Messenger, opts ...channel.Option) *Service {
	return &Service{channel.New(strand, m, messenger.ChannelBluetooth, table, opts...)}
}

func (s *Service) SendChannelOpenResponse(resp *proto.ChannelOpenResponse, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeControl, ids.ChannelOpenResponse, resp), promise)
}

func (s *Service) SendBluetoothPairingResponse(resp *proto.BluetoothPairingResponse, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.BluetoothPairingResponse, resp), promise)
}
