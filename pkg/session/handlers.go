package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/ZentaChain/aalink/pkg/channel/av"
	"github.com/ZentaChain/aalink/pkg/channel/bluetooth"
	"github.com/ZentaChain/aalink/pkg/channel/control"
	"github.com/ZentaChain/aalink/pkg/channel/input"
	"github.com/ZentaChain/aalink/pkg/channel/sensor"
	"github.com/ZentaChain/aalink/pkg/messenger"
	"github.com/ZentaChain/aalink/pkg/proto"
)

// Every handler re-arms its channel at the end of each callback unless the
// session is ending.

// onError skips malformed messages and ends the session on anything else
func (s *Session) onError(ch messenger.ChannelID, err error, rearm func()) {
	if s.closed() {
		return
	}
	if errors.Is(err, messenger.ErrParsePayload) {
		s.log.Warn().Err(err).Stringer("channel", ch).Msg("dropping malformed message")
		rearm()
		return
	}
	s.Close(err)
}

// ===== CONTROL =====

type controlHandler struct {
	s   *Session
	svc *control.Service
}

var _ control.EventHandler = (*controlHandler)(nil)

func (h *controlHandler) rearm() {
	h.svc.Receive(h)
}

func (h *controlHandler) send(what string) *messenger.SendPromise {
	return h.s.sendPromise(h.svc.Strand(), what)
}

func (h *controlHandler) OnChannelError(err error) {
	h.s.onError(h.svc.ID(), err, h.rearm)
}

func (h *controlHandler) OnVersionResponse(major, minor uint16, status control.VersionStatus) {
	if status == control.VersionMismatch {
		h.s.log.Error().Uint16("major", major).Uint16("minor", minor).Msg("version mismatch")
		h.s.Close(ErrVersionMismatch)
		return
	}
	h.s.log.Info().Uint16("major", major).Uint16("minor", minor).Msg("version agreed")

	if h.s.cfg.Encrypt {
		h.svc.SendHandshake(h.s.keys.Public[:], h.send("handshake"))
	} else {
		h.authComplete()
	}
	h.rearm()
}

func (h *controlHandler) OnHandshake(payload messenger.DataConstBuffer) {
	if !h.s.cfg.Encrypt || h.s.authenticated.Load() {
		h.s.log.Warn().Int("size", payload.Len()).Msg("unexpected handshake record")
		h.rearm()
		return
	}

	cryptor, err := messenger.NewAEADCryptor(messenger.RoleHeadUnit, h.s.keys, payload.Bytes())
	if err != nil {
		h.s.Close(fmt.Errorf("session: handshake failed: %w", err))
		return
	}
	// auth complete travels plain, the device encrypts from its next message
	h.s.conn.SetCryptor(cryptor)
	h.authComplete()
	h.rearm()
}

func (h *controlHandler) authComplete() {
	h.svc.SendAuthComplete(&proto.AuthCompleteIndication{Status: proto.StatusOK}, h.send("auth complete"))
	h.s.lastPong.Store(time.Now().UnixNano())
	h.s.authenticated.Store(true)
	h.s.log.Info().Msg("link authenticated")
}

func (h *controlHandler) OnServiceDiscoveryRequest(req *proto.ServiceDiscoveryRequest) {
	h.s.log.Info().Str("device", req.DeviceName).Str("brand", req.DeviceBrand).Msg("service discovery")
	h.svc.SendServiceDiscoveryResponse(h.s.serviceDiscovery(), h.send("service discovery response"))
	h.rearm()
}

func (h *controlHandler) OnAudioFocusRequest(req *proto.AudioFocusRequest) {
	state := proto.AudioFocusStateGain
	if req.Type == proto.AudioFocusTypeRelease {
		state = proto.AudioFocusStateLoss
	}
	h.s.log.Debug().Int32("type", int32(req.Type)).Int32("state", int32(state)).Msg("audio focus")
	h.svc.SendAudioFocusResponse(&proto.AudioFocusResponse{State: state}, h.send("audio focus response"))
	h.rearm()
}

func (h *controlHandler) OnNavigationFocusRequest(req *proto.NavigationFocusRequest) {
	h.svc.SendNavigationFocusResponse(&proto.NavigationFocusResponse{Type: navigationFocusProjected}, h.send("navigation focus response"))
	h.rearm()
}

func (h *controlHandler) OnShutdownRequest(req *proto.ShutdownRequest) {
	h.s.log.Info().Int32("reason", int32(req.Reason)).Msg("device requested shutdown")

	p := messenger.NewSendPromise(h.svc.Strand())
	p.Then(
		func(struct{}) { h.s.Close(ErrShutdown) },
		func(err error) { h.s.Close(err) },
	)
	h.svc.SendShutdownResponse(&proto.ShutdownResponse{}, p)
}

// OnShutdownResponse acks a pending Shutdown. An unsolicited one is
// ignored and the channel keeps consuming.
func (h *controlHandler) OnShutdownResponse(*proto.ShutdownResponse) {
	h.s.shutdownOnce.Do(func() { close(h.s.shutdownAck) })
	if !h.s.closed() {
		h.rearm()
	}
}

func (h *controlHandler) OnPingRequest(req *proto.PingRequest) {
	h.svc.SendPingResponse(&proto.PingResponse{Timestamp: req.Timestamp}, h.send("ping response"))
	h.rearm()
}

func (h *controlHandler) OnPingResponse(*proto.PingResponse) {
	now := time.Now().UnixNano()
	h.s.lastPong.Store(now)
	if sent := h.s.lastPingSent.Load(); sent != 0 {
		h.s.lastRTT.Store(now - sent)
	}
	h.rearm()
}

func (h *controlHandler) OnVoiceSessionRequest(req *proto.VoiceSessionRequest) {
	h.s.log.Debug().Uint32("type", req.Type).Msg("voice session")
	h.rearm()
}

// navigationFocusProjected hands navigation to the device
const navigationFocusProjected = 2

// ===== AUDIO / VIDEO =====

// mediaHandler is the sink for one audio or video channel. self is the
// handler value the channel is re-armed with.
type mediaHandler[H av.EventHandler] struct {
	s       *Session
	svc     *av.Service[H]
	self    H
	session int32
}

func newAudioHandler(s *Session, svc *av.Service[av.EventHandler]) *mediaHandler[av.EventHandler] {
	h := &mediaHandler[av.EventHandler]{s: s, svc: svc}
	h.self = h
	return h
}

func (h *mediaHandler[H]) rearm() {
	h.svc.Receive(h.self)
}

func (h *mediaHandler[H]) send(what string) *messenger.SendPromise {
	return h.s.sendPromise(h.svc.Strand(), what)
}

func (h *mediaHandler[H]) OnChannelError(err error) {
	h.s.onError(h.svc.ID(), err, h.rearm)
}

func (h *mediaHandler[H]) OnChannelOpenRequest(req *proto.ChannelOpenRequest) {
	h.s.log.Debug().Stringer("channel", h.svc.ID()).Int32("priority", req.Priority).Msg("channel open")
	h.svc.SendChannelOpenResponse(&proto.ChannelOpenResponse{Status: proto.StatusOK}, h.send("channel open response"))
	h.rearm()
}

func (h *mediaHandler[H]) setup(req *proto.AVChannelSetupRequest) {
	h.svc.SendAVChannelSetupResponse(&proto.AVChannelSetupResponse{
		MediaStatus: proto.AVChannelSetupStatusOK,
		MaxUnacked:  h.s.cfg.MaxUnacked,
		Configs:     []uint32{req.ConfigIndex},
	}, h.send("setup response"))
}

func (h *mediaHandler[H]) OnAVChannelSetupRequest(req *proto.AVChannelSetupRequest) {
	h.setup(req)
	h.rearm()
}

func (h *mediaHandler[H]) OnAVChannelStartIndication(ind *proto.AVChannelStartIndication) {
	h.session = ind.Session
	h.s.log.Info().Stringer("channel", h.svc.ID()).Int32("media_session", ind.Session).Uint32("config", ind.Config).Msg("stream started")
	h.rearm()
}

func (h *mediaHandler[H]) OnAVChannelStopIndication(*proto.AVChannelStopIndication) {
	h.s.log.Info().Stringer("channel", h.svc.ID()).Int32("media_session", h.session).Msg("stream stopped")
	h.rearm()
}

func (h *mediaHandler[H]) OnAVMediaIndication(data messenger.DataConstBuffer) {
	h.ack()
	h.rearm()
}

func (h *mediaHandler[H]) OnAVMediaWithTimestampIndication(ts messenger.Timestamp, data messenger.DataConstBuffer) {
	h.ack()
	h.rearm()
}

func (h *mediaHandler[H]) ack() {
	h.s.mediaReceived.Add(1)

	p := messenger.NewSendPromise(h.svc.Strand())
	p.Then(
		func(struct{}) { h.s.acksSent.Add(1) },
		func(err error) {
			if !h.s.closed() {
				h.s.log.Warn().Err(err).Stringer("channel", h.svc.ID()).Msg("media ack failed")
			}
		},
	)
	h.svc.SendAVMediaAckIndication(&proto.AVMediaAckIndication{Session: h.session, Value: 1}, p)
}

type videoHandler struct {
	mediaHandler[av.VideoEventHandler]
}

var (
	_ av.EventHandler      = (*mediaHandler[av.EventHandler])(nil)
	_ av.VideoEventHandler = (*videoHandler)(nil)
)

func newVideoHandler(s *Session, svc *av.Service[av.VideoEventHandler]) *videoHandler {
	h := &videoHandler{}
	h.mediaHandler = mediaHandler[av.VideoEventHandler]{s: s, svc: svc, self: h}
	return h
}

// OnAVChannelSetupRequest also grants video focus so the device starts
// streaming
func (h *videoHandler) OnAVChannelSetupRequest(req *proto.AVChannelSetupRequest) {
	h.setup(req)
	h.focus(proto.VideoFocusModeFocused, false)
	h.rearm()
}

func (h *videoHandler) OnVideoFocusRequest(req *proto.VideoFocusRequest) {
	mode := req.FocusMode
	if mode != proto.VideoFocusModeUnfocused {
		mode = proto.VideoFocusModeFocused
	}
	h.focus(mode, false)
	h.rearm()
}

func (h *videoHandler) focus(mode proto.VideoFocusMode, unrequested bool) {
	h.svc.SendVideoFocusIndication(&proto.VideoFocusIndication{FocusMode: mode, Unrequested: unrequested}, h.send("video focus indication"))
}

// ===== SENSOR =====

type sensorHandler struct {
	s   *Session
	svc *sensor.Service
}

var _ sensor.EventHandler = (*sensorHandler)(nil)

func (h *sensorHandler) rearm() {
	h.svc.Receive(h)
}

func (h *sensorHandler) send(what string) *messenger.SendPromise {
	return h.s.sendPromise(h.svc.Strand(), what)
}

func (h *sensorHandler) OnChannelError(err error) {
	h.s.onError(h.svc.ID(), err, h.rearm)
}

func (h *sensorHandler) OnChannelOpenRequest(*proto.ChannelOpenRequest) {
	h.svc.SendChannelOpenResponse(&proto.ChannelOpenResponse{Status: proto.StatusOK}, h.send("channel open response"))
	h.rearm()
}

// OnSensorStartRequest accepts every sensor and pushes an initial sample
// for the ones this head unit can report
func (h *sensorHandler) OnSensorStartRequest(req *proto.SensorStartRequest) {
	h.svc.SendSensorStartResponse(&proto.SensorStartResponse{Status: proto.StatusOK}, h.send("sensor start response"))

	switch req.SensorType {
	case proto.SensorTypeDrivingStatus:
		h.svc.SendSensorEventIndication(&proto.SensorEventIndication{
			DrivingStatus: []proto.DrivingStatus{{Status: 0}},
		}, h.send("driving status"))
	case proto.SensorTypeNightData:
		h.svc.SendSensorEventIndication(&proto.SensorEventIndication{
			NightMode: []proto.NightMode{{IsNight: false}},
		}, h.send("night mode"))
	}
	h.rearm()
}

// ===== INPUT =====

type inputHandler struct {
	s   *Session
	svc *input.Service
}

var _ input.EventHandler = (*inputHandler)(nil)

func (h *inputHandler) rearm() {
	h.svc.Receive(h)
}

func (h *inputHandler) send(what string) *messenger.SendPromise {
	return h.s.sendPromise(h.svc.Strand(), what)
}

func (h *inputHandler) OnChannelError(err error) {
	h.s.onError(h.svc.ID(), err, h.rearm)
}

func (h *inputHandler) OnChannelOpenRequest(*proto.ChannelOpenRequest) {
	h.svc.SendChannelOpenResponse(&proto.ChannelOpenResponse{Status: proto.StatusOK}, h.send("channel open response"))
	h.rearm()
}

func (h *inputHandler) OnBindingRequest(req *proto.BindingRequest) {
	h.s.log.Debug().Ints32("scan_codes", req.ScanCodes).Msg("input binding")
	h.svc.SendBindingResponse(&proto.BindingResponse{Status: proto.StatusOK}, h.send("binding response"))
	h.rearm()
}

// ===== BLUETOOTH =====

type bluetoothHandler struct {
	s   *Session
	svc *bluetooth.Service
}

var _ bluetooth.EventHandler = (*bluetoothHandler)(nil)

func (h *bluetoothHandler) rearm() {
	h.svc.Receive(h)
}

func (h *bluetoothHandler) send(what string) *messenger.SendPromise {
	return h.s.sendPromise(h.svc.Strand(), what)
}

func (h *bluetoothHandler) OnChannelError(err error) {
	h.s.onError(h.svc.ID(), err, h.rearm)
}

func (h *bluetoothHandler) OnChannelOpenRequest(*proto.ChannelOpenRequest) {
	h.svc.SendChannelOpenResponse(&proto.ChannelOpenResponse{Status: proto.StatusOK}, h.send("channel open response"))
	h.rearm()
}

// OnBluetoothPairingRequest reports the phone as already paired; pairing
// itself is left to the host's bluetooth stack
func (h *bluetoothHandler) OnBluetoothPairingRequest(req *proto.BluetoothPairingRequest) {
	h.s.log.Info().Str("phone", req.PhoneAddress).Msg("bluetooth pairing request")
	h.svc.SendBluetoothPairingResponse(&proto.BluetoothPairingResponse{AlreadyPaired: true, Status: proto.StatusOK}, h.send("pairing response"))
	h.rearm()
}
