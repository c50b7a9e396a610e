// Package sensor implements the sensor channel: the peer subscribes to
// vehicle sensors and this side pushes samples.
package sensor

import (
	"github.com/ZentaChain/aalink/pkg/channel"
	"github.com/ZentaChain/aalink/pkg/channel/ids"
	"github.com/ZentaChain/aalink/pkg/messenger"
	"github.com/ZentaChain/aalink/pkg/proto"
)

// EventHandler receives sensor channel traffic. Callbacks do not re-arm.
type EventHandler interface {
	channel.ErrorHandler
	OnChannelOpenRequest(req *proto.ChannelOpenRequest)
	OnSensorStartRequest(req *proto.SensorStartRequest)
}

var (
	controlIDs  = []messenger.MessageID{ids.ChannelOpenRequest, ids.ChannelOpenResponse}
	specificIDs = []messenger.MessageID{ids.SensorStartRequest, ids.SensorStartResponse, ids.SensorEventIndication}
)

var table = channel.Table[EventHandler]{
	ids.ChannelOpenRequest: channel.Structured(EventHandler.OnChannelOpenRequest),
	ids.SensorStartRequest: channel.Structured(EventHandler.OnSensorStartRequest),
}

// Service is the sensor channel
type Service struct {
	*channel.Channel[EventHandler]
}

func NewService(strand *messenger.Strand, m messenger.Messenger, opts ...channel.Option) *Service {
	return &Service{channel.New(strand, m, messenger.ChannelSensor, table, opts...)}
}

func (s *Service) SendChannelOpenResponse(resp *proto.ChannelOpenResponse, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeControl, ids.ChannelOpenResponse, resp), promise)
}

func (s *Service) SendSensorStartResponse(resp *proto.SensorStartResponse, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.SensorStartResponse, resp), promise)
}

// SendSensorEventIndication pushes samples for subscribed sensors
func (s *Service) SendSensorEventIndication(ind *proto.SensorEventIndication, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.SensorEventIndication, ind), promise)
}
