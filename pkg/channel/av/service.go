// Package av implements the audio and video service channels: setup and
// start/stop of a media stream, media delivery and media acknowledgement.
package av

import (
	"github.com/ZentaChain/aalink/pkg/channel"
	"github.com/ZentaChain/aalink/pkg/channel/ids"
	"github.com/ZentaChain/aalink/pkg/messenger"
	"github.com/ZentaChain/aalink/pkg/proto"
)

// EventHandler receives traffic of an audio channel.
//
// No callback re-arms the channel. The implementation calls Receive when it
// wants the next message; a handler that never does stops the stream.
// Buffers passed to the media callbacks are only valid during the call.
type EventHandler interface {
	channel.ErrorHandler
	OnChannelOpenRequest(req *proto.ChannelOpenRequest)
	OnAVChannelSetupRequest(req *proto.AVChannelSetupRequest)
	OnAVChannelStartIndication(ind *proto.AVChannelStartIndication)
	OnAVChannelStopIndication(ind *proto.AVChannelStopIndication)
	OnAVMediaIndication(data messenger.DataConstBuffer)
	OnAVMediaWithTimestampIndication(ts messenger.Timestamp, data messenger.DataConstBuffer)
}

// VideoEventHandler adds video focus to EventHandler
type VideoEventHandler interface {
	EventHandler
	OnVideoFocusRequest(req *proto.VideoFocusRequest)
}

var (
	controlIDs = []messenger.MessageID{
		ids.ChannelOpenRequest,
		ids.ChannelOpenResponse,
	}
	specificIDs = []messenger.MessageID{
		ids.AVMediaWithTimestampIndication,
		ids.AVMediaIndication,
		ids.AVSetupRequest,
		ids.AVStartIndication,
		ids.AVStopIndication,
		ids.AVSetupResponse,
		ids.AVMediaAckIndication,
		ids.AVVideoFocusRequest,
		ids.AVVideoFocusIndication,
	}
)

func mediaTable[H EventHandler]() channel.Table[H] {
	return channel.Table[H]{
		ids.ChannelOpenRequest: channel.Structured(func(h H, req *proto.ChannelOpenRequest) {
			h.OnChannelOpenRequest(req)
		}),
		ids.AVSetupRequest: channel.Structured(func(h H, req *proto.AVChannelSetupRequest) {
			h.OnAVChannelSetupRequest(req)
		}),
		ids.AVStartIndication: channel.Structured(func(h H, ind *proto.AVChannelStartIndication) {
			h.OnAVChannelStartIndication(ind)
		}),
		ids.AVStopIndication: channel.Structured(func(h H, ind *proto.AVChannelStopIndication) {
			h.OnAVChannelStopIndication(ind)
		}),
		ids.AVMediaIndication: channel.Raw(func(h H, data messenger.DataConstBuffer) {
			h.OnAVMediaIndication(data)
		}),
		ids.AVMediaWithTimestampIndication: channel.Timestamped(func(h H, ts messenger.Timestamp, data messenger.DataConstBuffer) {
			h.OnAVMediaWithTimestampIndication(ts, data)
		}),
	}
}

func videoTable() channel.Table[VideoEventHandler] {
	table := mediaTable[VideoEventHandler]()
	table[ids.AVVideoFocusRequest] = channel.Structured(VideoEventHandler.OnVideoFocusRequest)
	return table
}

// Service is an AV channel. Audio and video channels differ only in the
// handler they dispatch to.
type Service[H EventHandler] struct {
	*channel.Channel[H]
}

// NewAudioService creates an audio channel (media, speech or system audio)
func NewAudioService(strand *messenger.Strand, m messenger.Messenger, id messenger.ChannelID, opts ...channel.Option) *Service[EventHandler] {
	return &Service[EventHandler]{channel.New(strand, m, id, mediaTable[EventHandler](), opts...)}
}

// NewVideoService creates a video channel
func NewVideoService(strand *messenger.Strand, m messenger.Messenger, id messenger.ChannelID, opts ...channel.Option) *Service[VideoEventHandler] {
	return &Service[VideoEventHandler]{channel.New(strand, m, id, videoTable(), opts...)}
}

// SendChannelOpenResponse answers the channel open request
func (s *Service[H]) SendChannelOpenResponse(resp *proto.ChannelOpenResponse, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeControl, ids.ChannelOpenResponse, resp), promise)
}

// SendAVChannelSetupResponse answers a setup request
func (s *Service[H]) SendAVChannelSetupResponse(resp *proto.AVChannelSetupResponse, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.AVSetupResponse, resp), promise)
}

// SendAVMediaAckIndication acknowledges consumed media
func (s *Service[H]) SendAVMediaAckIndication(ind *proto.AVMediaAckIndication, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.AVMediaAckIndication, ind), promise)
}

// SendVideoFocusIndication reports the current video focus
func (s *Service[H]) SendVideoFocusIndication(ind *proto.VideoFocusIndication, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.AVVideoFocusIndication, ind), promise)
}
