// Package session runs one head-unit link: a messenger over the link, a
// strand and a service channel per logical stream, and the sink handlers
// that answer the device.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZentaChain/aalink/pkg/channel"
	"github.com/ZentaChain/aalink/pkg/channel/av"
	"github.com/ZentaChain/aalink/pkg/channel/bluetooth"
	"github.com/ZentaChain/aalink/pkg/channel/control"
	"github.com/ZentaChain/aalink/pkg/channel/input"
	"github.com/ZentaChain/aalink/pkg/channel/sensor"
	"github.com/ZentaChain/aalink/pkg/journal"
	"github.com/ZentaChain/aalink/pkg/messenger"
	"github.com/ZentaChain/aalink/pkg/proto"
)

var (
	ErrVersionMismatch = errors.New("session: protocol version rejected by device")
	ErrPingTimeout     = errors.New("session: device stopped answering pings")
	ErrShutdown        = errors.New("session: shut down")
)

// Identity is what service discovery reports about this head unit
type Identity struct {
	Name          string
	CarModel      string
	CarYear       string
	CarSerial     string
	LeftHandDrive bool
	Manufacturer  string
	Model         string
	SwBuild       string
	SwVersion     string
}

// Config tunes a session
type Config struct {
	Encrypt      bool
	PingInterval time.Duration // 0 disables keepalive
	MaxUnacked   uint32
	Identity     Identity
}

// Options wires a session into the rest of the process
type Options struct {
	Logger   zerolog.Logger
	Observer channel.Observer
	// Taps are built per session so they can tag traffic with its id
	Taps []func(sessionID string) messenger.Tap
}

// ChannelInfo is a point-in-time view of one channel
type ChannelInfo struct {
	ID      uint8  `json:"id"`
	Service string `json:"service"`
	State   string `json:"state"`
}

// Info is a point-in-time view of a session
type Info struct {
	ID            string        `json:"id"`
	Remote        string        `json:"remote"`
	StartedAt     time.Time     `json:"started_at"`
	Authenticated bool          `json:"authenticated"`
	Encrypted     bool          `json:"encrypted"`
	MediaReceived uint64        `json:"media_received"`
	AcksSent      uint64        `json:"acks_sent"`
	LastPingRTT   time.Duration `json:"last_ping_rtt"`
	Channels      []ChannelInfo `json:"channels"`
}

// stateful is what every service channel exposes
type stateful interface {
	ID() messenger.ChannelID
	State() channel.State
}

// Session is one running link
type Session struct {
	id        string
	remote    string
	startedAt time.Time
	cfg       Config
	log       zerolog.Logger

	conn    *messenger.Conn
	keys    *messenger.KeyPair
	strands []*messenger.Strand

	control   *control.Service
	video     *av.Service[av.VideoEventHandler]
	audio     []*av.Service[av.EventHandler]
	sensor    *sensor.Service
	input     *input.Service
	bluetooth *bluetooth.Service
	channels  []stateful

	controlHandler *controlHandler

	authenticated atomic.Bool
	mediaReceived atomic.Uint64
	acksSent      atomic.Uint64
	lastPingSent  atomic.Int64
	lastPong      atomic.Int64
	lastRTT       atomic.Int64

	shutdownAck  chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
	closeOnce    sync.Once
	errMu        sync.Mutex
	err          error
}

// New builds a session over rw. Nothing is sent until Start.
func New(rw io.ReadWriteCloser, remote string, cfg Config, opts Options) (*Session, error) {
	if cfg.MaxUnacked == 0 {
		cfg.MaxUnacked = 1
	}

	s := &Session{
		id:          journal.NewSessionID(),
		remote:      remote,
		startedAt:   time.Now(),
		cfg:         cfg,
		shutdownAck: make(chan struct{}),
		done:        make(chan struct{}),
	}
	s.log = opts.Logger.With().Str("session", s.id).Str("remote", remote).Logger()

	if cfg.Encrypt {
		keys, err := messenger.GenerateKeyPair()
		if err != nil {
			return nil, fmt.Errorf("failed to generate link keys: %w", err)
		}
		s.keys = keys
	}

	connOpts := []messenger.Option{messenger.WithLogger(s.log)}
	for _, newTap := range opts.Taps {
		connOpts = append(connOpts, messenger.WithTap(newTap(s.id)))
	}
	s.conn = messenger.NewConn(rw, nil, connOpts...)

	// With encryption on, services answer encrypted. A device that opens
	// service channels before auth completes gets its responses rejected
	// with ErrMessageEncrypt; only control traffic is expected pre-auth.
	chOpts := []channel.Option{channel.WithLogger(s.log)}
	if opts.Observer != nil {
		chOpts = append(chOpts, channel.WithObserver(opts.Observer))
	}
	if !cfg.Encrypt {
		chOpts = append(chOpts, channel.WithEncryption(messenger.EncryptionPlain))
	}

	s.control = control.NewService(s.newStrand(), s.conn, chOpts...)
	s.input = input.NewService(s.newStrand(), s.conn, chOpts...)
	s.sensor = sensor.NewService(s.newStrand(), s.conn, chOpts...)
	s.video = av.NewVideoService(s.newStrand(), s.conn, messenger.ChannelVideo, chOpts...)
	for _, id := range []messenger.ChannelID{messenger.ChannelMediaAudio, messenger.ChannelSpeechAudio, messenger.ChannelSystemAudio} {
		s.audio = append(s.audio, av.NewAudioService(s.newStrand(), s.conn, id, chOpts...))
	}
	s.bluetooth = bluetooth.NewService(s.newStrand(), s.conn, chOpts...)

	s.channels = []stateful{s.control, s.input, s.sensor, s.video}
	for _, a := range s.audio {
		s.channels = append(s.channels, a)
	}
	s.channels = append(s.channels, s.bluetooth)

	return s, nil
}

func (s *Session) newStrand() *messenger.Strand {
	strand := messenger.NewStrand()
	s.strands = append(s.strands, strand)
	return strand
}

// ID is the session id used in logs and the journal
func (s *Session) ID() string {
	return s.id
}

// Start arms every channel and opens version negotiation
func (s *Session) Start() {
	s.log.Info().Bool("encrypt", s.cfg.Encrypt).Msg("session started")

	s.controlHandler = &controlHandler{s: s, svc: s.control}
	s.control.Receive(s.controlHandler)

	s.input.Receive(&inputHandler{s: s, svc: s.input})
	s.sensor.Receive(&sensorHandler{s: s, svc: s.sensor})
	s.video.Receive(newVideoHandler(s, s.video))
	for _, a := range s.audio {
		a.Receive(newAudioHandler(s, a))
	}
	s.bluetooth.Receive(&bluetoothHandler{s: s, svc: s.bluetooth})

	s.control.SendVersionRequest(s.sendPromise(s.control.Strand(), "version request"))

	go s.watch()
}

// watch ends the session when the link drops and runs the keepalive
func (s *Session) watch() {
	var tick <-chan time.Time
	if s.cfg.PingInterval > 0 {
		ticker := time.NewTicker(s.cfg.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-s.done:
			return
		case <-s.conn.Done():
			s.Close(s.conn.Err())
			return
		case <-tick:
			if err := s.ping(); err != nil {
				s.Close(err)
				return
			}
		}
	}
}

func (s *Session) ping() error {
	if !s.authenticated.Load() {
		return nil
	}

	now := time.Now()
	if last := s.lastPong.Load(); last != 0 && now.Sub(time.Unix(0, last)) > 3*s.cfg.PingInterval {
		return ErrPingTimeout
	}

	s.lastPingSent.Store(now.UnixNano())
	s.control.SendPingRequest(&proto.PingRequest{Timestamp: now.UnixMicro()}, s.sendPromise(s.control.Strand(), "ping request"))
	return nil
}

// sendPromise logs a failed send. Sends that fail after Close are expected.
func (s *Session) sendPromise(strand *messenger.Strand, what string) *messenger.SendPromise {
	p := messenger.NewSendPromise(strand)
	p.Then(nil, func(err error) {
		if s.closed() {
			return
		}
		s.log.Warn().Err(err).Str("message", what).Msg("send failed")
	})
	return p
}

// Shutdown asks the device to end the session and waits for its answer or
// ctx, then closes
func (s *Session) Shutdown(ctx context.Context) error {
	if s.closed() {
		return nil
	}
	if !s.authenticated.Load() {
		s.Close(ErrShutdown)
		return nil
	}

	s.control.SendShutdownRequest(&proto.ShutdownRequest{Reason: proto.ShutdownReasonQuit}, s.sendPromise(s.control.Strand(), "shutdown request"))

	var err error
	select {
	case <-s.shutdownAck:
	case <-s.done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	s.Close(ErrShutdown)
	return err
}

// Close stops the messenger and every strand. The first cause wins.
func (s *Session) Close(cause error) {
	s.closeOnce.Do(func() {
		s.errMu.Lock()
		s.err = cause
		s.errMu.Unlock()
		close(s.done)

		s.conn.Stop()
		for _, strand := range s.strands {
			strand.Stop()
		}

		ev := s.log.Info()
		if cause != nil && !errors.Is(cause, io.EOF) && !errors.Is(cause, ErrShutdown) {
			ev = s.log.Warn().Err(cause)
		}
		ev.Dur("uptime", time.Since(s.startedAt)).Uint64("media", s.mediaReceived.Load()).Msg("session ended")
	})
}

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done is closed when the session has ended
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err is the reason the session ended
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Info snapshots the session
func (s *Session) Info() Info {
	info := Info{
		ID:            s.id,
		Remote:        s.remote,
		StartedAt:     s.startedAt,
		Authenticated: s.authenticated.Load(),
		Encrypted:     s.cfg.Encrypt,
		MediaReceived: s.mediaReceived.Load(),
		AcksSent:      s.acksSent.Load(),
		LastPingRTT:   time.Duration(s.lastRTT.Load()),
	}
	for _, ch := range s.channels {
		info.Channels = append(info.Channels, ChannelInfo{
			ID:      uint8(ch.ID()),
			Service: ch.ID().String(),
			State:   ch.State().String(),
		})
	}
	return info
}

// serviceDiscovery lists every channel except control
func (s *Session) serviceDiscovery() *proto.ServiceDiscoveryResponse {
	id := s.cfg.Identity
	resp := &proto.ServiceDiscoveryResponse{
		HeadUnitName:  id.Name,
		CarModel:      id.CarModel,
		CarYear:       id.CarYear,
		CarSerial:     id.CarSerial,
		LeftHandDrive: id.LeftHandDrive,
		Manufacturer:  id.Manufacturer,
		Model:         id.Model,
		SwBuild:       id.SwBuild,
		SwVersion:     id.SwVersion,
	}
	for _, ch := range s.channels {
		if ch.ID() == messenger.ChannelControl {
			continue
		}
		resp.Channels = append(resp.Channels, proto.ChannelDescriptor{
			ChannelID: uint32(ch.ID()),
			Service:   ch.ID().String(),
		})
	}
	return resp
}
