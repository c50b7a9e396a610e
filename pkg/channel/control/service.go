// Package control implements channel 0: version negotiation, the link
// handshake, service discovery, focus arbitration, ping and shutdown.
package control

import (
	"encoding/binary"
	"fmt"

	"github.com/ZentaChain/aalink/pkg/channel"
	"github.com/ZentaChain/aalink/pkg/channel/ids"
	"github.com/ZentaChain/aalink/pkg/messenger"
	"github.com/ZentaChain/aalink/pkg/proto"
)

const (
	// ProtocolMajor and ProtocolMinor are the version this side requests
	ProtocolMajor uint16 = 1
	ProtocolMinor uint16 = 1

	versionSize = 4
	// versionResponseSize is major, minor and status
	versionResponseSize = 6
)

// VersionStatus is the peer's verdict on the requested version
type VersionStatus uint16

const (
	VersionMatch    VersionStatus = 0x0000
	VersionMismatch VersionStatus = 0xFFFF
)

// EventHandler receives control channel traffic.
//
// Callbacks do not re-arm the channel; call Receive again once the message
// has been handled. The handshake buffer is only valid during the call.
type EventHandler interface {
	channel.ErrorHandler
	OnVersionResponse(major, minor uint16, status VersionStatus)
	OnHandshake(payload messenger.DataConstBuffer)
	OnServiceDiscoveryRequest(req *proto.ServiceDiscoveryRequest)
	OnAudioFocusRequest(req *proto.AudioFocusRequest)
	OnNavigationFocusRequest(req *proto.NavigationFocusRequest)
	OnShutdownRequest(req *proto.ShutdownRequest)
	OnShutdownResponse(resp *proto.ShutdownResponse)
	OnPingRequest(req *proto.PingRequest)
	OnPingResponse(resp *proto.PingResponse)
	OnVoiceSessionRequest(req *proto.VoiceSessionRequest)
}

var routedIDs = []messenger.MessageID{
	ids.VersionResponse,
	ids.SSLHandshake,
	ids.ServiceDiscoveryRequest,
	ids.AudioFocusRequest,
	ids.NavigationFocusRequest,
	ids.ShutdownRequest,
	ids.ShutdownResponse,
	ids.PingRequest,
	ids.PingResponse,
	ids.VoiceSessionRequest,
}

var table = channel.Table[EventHandler]{
	ids.VersionResponse:         handleVersionResponse,
	ids.SSLHandshake:            channel.Raw(EventHandler.OnHandshake),
	ids.ServiceDiscoveryRequest: channel.Structured(EventHandler.OnServiceDiscoveryRequest),
	ids.AudioFocusRequest:       channel.Structured(EventHandler.OnAudioFocusRequest),
	ids.NavigationFocusRequest:  channel.Structured(EventHandler.OnNavigationFocusRequest),
	ids.ShutdownRequest:         channel.Structured(EventHandler.OnShutdownRequest),
	ids.ShutdownResponse:        channel.Structured(EventHandler.OnShutdownResponse),
	ids.PingRequest:             channel.Structured(EventHandler.OnPingRequest),
	ids.PingResponse:            channel.Structured(EventHandler.OnPingResponse),
	ids.VoiceSessionRequest:     channel.Structured(EventHandler.OnVoiceSessionRequest),
}

func handleVersionResponse(h EventHandler, body messenger.DataConstBuffer) error {
	if body.Len() < versionResponseSize {
		return messenger.NewError(messenger.ErrorParsePayload, fmt.Errorf("version response of %d bytes", body.Len()))
	}

	b := body.Bytes()
	h.OnVersionResponse(
		binary.BigEndian.Uint16(b[0:2]),
		binary.BigEndian.Uint16(b[2:4]),
		VersionStatus(binary.BigEndian.Uint16(b[4:6])),
	)
	return nil
}

// Service is the control channel
type Service struct {
	*channel.Channel[EventHandler]
}

// NewService creates the control channel. The id is always channel 0.
func NewService(strand *messenger.Strand, m messenger.Messenger, opts ...channel.Option) *Service {
	return &Service{channel.New(strand, m, messenger.ChannelControl, table, opts...)}
}

// plain builds a message that must travel before the link is encrypted
func (s *Service) plain(id messenger.MessageID) *messenger.Message {
	return messenger.Build(s.ID(), messenger.EncryptionPlain, messenger.MessageTypeSpecific, id, nil)
}

// SendVersionRequest opens version negotiation. It is always sent plain.
func (s *Service) SendVersionRequest(promise *messenger.SendPromise) {
	msg := s.plain(ids.VersionRequest)
	body := make([]byte, versionSize)
	binary.BigEndian.PutUint16(body[0:2], ProtocolMajor)
	binary.BigEndian.PutUint16(body[2:4], ProtocolMinor)
	msg.Append(body)
	s.Send(msg, promise)
}

// SendHandshake carries one handshake record. It is always sent plain.
func (s *Service) SendHandshake(payload []byte, promise *messenger.SendPromise) {
	msg := s.plain(ids.SSLHandshake)
	msg.Append(payload)
	s.Send(msg, promise)
}

// SendAuthComplete ends the handshake. It is always sent plain.
func (s *Service) SendAuthComplete(ind *proto.AuthCompleteIndication, promise *messenger.SendPromise) {
	msg := s.plain(ids.AuthComplete)
	msg.AppendBody(ind)
	s.Send(msg, promise)
}

func (s *Service) SendServiceDiscoveryResponse(resp *proto.ServiceDiscoveryResponse, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.ServiceDiscoveryResponse, resp), promise)
}

func (s *Service) SendAudioFocusResponse(resp *proto.AudioFocusResponse, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.AudioFocusResponse, resp), promise)
}

func (s *Service) SendNavigationFocusResponse(resp *proto.NavigationFocusResponse, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.NavigationFocusResponse, resp), promise)
}

func (s *Service) SendShutdownRequest(req *proto.ShutdownRequest, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.ShutdownRequest, req), promise)
}

func (s *Service) SendShutdownResponse(resp *proto.ShutdownResponse, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.ShutdownResponse, resp), promise)
}

func (s *Service) SendPingRequest(req *proto.PingRequest, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.PingRequest, req), promise)
}

func (s *Service) SendPingResponse(resp *proto.PingResponse, promise *messenger.SendPromise) {
	s.Send(s.Envelope(messenger.MessageTypeSpecific, ids.PingResponse, resp), promise)
}
