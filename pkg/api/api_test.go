package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/aalink/pkg/channel/ids"
	"github.com/ZentaChain/aalink/pkg/journal"
	"github.com/ZentaChain/aalink/pkg/messenger"
	"github.com/ZentaChain/aalink/pkg/metrics"
	"github.com/ZentaChain/aalink/pkg/session"
	"github.com/ZentaChain/aalink/pkg/transport"
)

type fakeSessions struct {
	infos []session.Info
}

func (f *fakeSessions) Sessions() []session.Info { return f.infos }

func (f *fakeSessions) Stats() session.Stats {
	return session.Stats{Active: len(f.infos), Accepted: uint64(len(f.infos))}
}

func testSessions() *fakeSessions {
	return &fakeSessions{infos: []session.Info{{
		ID:            "s1",
		Remote:        "/ip4/10.0.0.2/tcp/40000",
		StartedAt:     time.Now(),
		Authenticated: true,
		Encrypted:     true,
		Channels: []session.ChannelInfo{
			{ID: 0, Service: "control", State: "awaiting_message"},
			{ID: 3, Service: "video", State: "idle"},
		},
	}}}
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	server := NewServer(DefaultConfig(), testSessions(), zerolog.Nop())

	w := get(t, server, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Sessions)
}

func TestSessionsAndChannels(t *testing.T) {
	server := NewServer(DefaultConfig(), testSessions(), zerolog.Nop())

	w := get(t, server, "/api/v1/sessions")
	require.Equal(t, http.StatusOK, w.Code)
	var sessions struct {
		Sessions []session.Info `json:"sessions"`
		Stats    session.Stats  `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
	require.Len(t, sessions.Sessions, 1)
	assert.Equal(t, "s1", sessions.Sessions[0].ID)
	assert.Equal(t, 1, sessions.Stats.Active)

	w = get(t, server, "/api/v1/channels")
	require.Equal(t, http.StatusOK, w.Code)
	var channels struct {
		Channels []ChannelState `json:"channels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &channels))
	require.Len(t, channels.Channels, 2)
	assert.Equal(t, ChannelState{Session: "s1", ID: 3, Service: "video", State: "idle"}, channels.Channels[1])
}

func TestNoSessions(t *testing.T) {
	server := NewServer(DefaultConfig(), &fakeSessions{}, zerolog.Nop())

	w := get(t, server, "/api/v1/sessions")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sessions":[]`)

	w = get(t, server, "/api/v1/channels")
	assert.Contains(t, w.Body.String(), `"channels":[]`)
}

func TestJournalDisabled(t *testing.T) {
	server := NewServer(DefaultConfig(), testSessions(), zerolog.Nop())

	assert.Equal(t, http.StatusServiceUnavailable, get(t, server, "/api/v1/journal").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, server, "/api/v1/journal/stats").Code)
	assert.Equal(t, http.StatusNotFound, get(t, server, "/metrics").Code)
	assert.Equal(t, http.StatusNotFound, get(t, server, "/link").Code)
}

func TestJournal(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"), 0, zerolog.Nop())
	require.NoError(t, err)
	defer j.Close()

	tap := j.Tap("s1")
	tap(messenger.DirectionOutbound, messenger.NewMessageWithPayload(messenger.ChannelControl, messenger.EncryptionPlain, messenger.MessageTypeSpecific, ids.VersionRequest.Bytes()))
	tap(messenger.DirectionInbound, messenger.NewMessageWithPayload(messenger.ChannelSensor, messenger.EncryptionEncrypted, messenger.MessageTypeSpecific, ids.SensorStartRequest.Bytes()))
	j.Flush()

	server := NewServer(DefaultConfig(), testSessions(), zerolog.Nop(), WithJournal(j))

	w := get(t, server, "/api/v1/journal?channel=control")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Entries []JournalEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "s1", resp.Entries[0].Session)
	assert.Equal(t, "out", resp.Entries[0].Direction)
	assert.Equal(t, "0x0001", resp.Entries[0].MessageID)

	w = get(t, server, "/api/v1/journal/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var stats journal.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.Entries)
	assert.Equal(t, int64(1), stats.Sessions)

	for _, bad := range []string{"abc", "0", "5000"} {
		w = get(t, server, "/api/v1/journal?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.SessionStarted()

	server := NewServer(DefaultConfig(), testSessions(), zerolog.Nop(), WithGatherer(reg))

	w := get(t, server, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "aalink_session_started_total 1")
}

func TestCORSPreflight(t *testing.T) {
	server := NewServer(DefaultConfig(), testSessions(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocketLink(t *testing.T) {
	got := make(chan string, 1)
	link := func(rw io.ReadWriteCloser, remote string) error {
		buf := make([]byte, 5)
		if _, err := io.ReadFull(rw, buf); err != nil {
			return err
		}
		got <- string(buf)
		_, err := rw.Write([]byte(strings.ToUpper(string(buf))))
		return err
	}

	server := NewServer(DefaultConfig(), testSessions(), zerolog.Nop(), WithLinks(link))
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := transport.DialWebSocket(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/link")
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("hello"))
	require.NoError(t, err)

	reply := make([]byte, 5)
	_, err = io.ReadFull(conn, reply)
	require.NoError(t, err)
	assert.Equal(t, "HELLO", string(reply))
	assert.Equal(t, "hello", <-got)
}

func TestStartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	server := NewServer(cfg, testSessions(), zerolog.Nop())
	require.NoError(t, server.Start())

	resp, err := http.Get("http://" + server.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, server.Stop(ctx))
}
