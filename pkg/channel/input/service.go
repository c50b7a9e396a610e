// Package input implements the input channel: key binding negotiation and
// delivery of touch and button events to the peer.
package input

import (
	"github.com/ZentaChain/aalink/pkg/channel"
	"github.com/ZentaChain/aalink/pkg/channel/ids"
	"github.com/ZentaChain/aalink/pkg/messenger"
	"github.com/ZentaChain/aalink/pkg/proto"
)

// EventHandler receives input channel traffic. Callbacks do not re-arm.
type EventHandler interface {
	channel.ErrorHandler
	OnChannelOpenRequest(req *proto.ChannelOpenRequest)
	OnBindingRequest(req *proto.BindingRequest)
}

var (
	controlIDs  = []messenger.MessageID{ids.ChannelOpenRequest, ids.ChannelOpenResponse}
	specificIDs = []messenger.MessageID{ids.InputEventIndication, ids.InputBindingRequest, ids.InputBindingResponse}
)

var table = channel.Table[EventHandler]{
	ids.ChannelOpenRequest:  channel.Structured(EventHandler.OnChannelOpenRequest),
	ids.InputBindingRequest: channel.Structured(EventHandler.OnBindingRequest),
}

// Service is the input channel
type Service struct {
	*channel.Channel[EventHandler]
}

func NewService(strand *messenger.Strand, m messenger.Messenger, opts ...channel.Option) *Service {
	return &Service{channel.New(strand, m, messenger.ChannelInput, table, opts...)}
}

func (s *Service) SendChannelOpenResponse(resp *proto.ChannelOpenResponse, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeControl, ids.ChannelOpenResponse, resp), promise)
}

func (s *Service) SendBindingResponse(resp *proto.BindingResponse, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.InputBindingResponse, resp), promise)
}

// SendInputEventIndication delivers touch or key input
func (s *Service) SendInputEventIndication(ind *proto.InputEventIndication, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.InputEventIndication, ind), promise)
}
