package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZentaChain/aalink/pkg/journal"
	"github.com/ZentaChain/aalink/pkg/session"
)

const maxJournalLimit = 1000

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
}

// ChannelState is one channel of one session
type ChannelState struct {
	Session string `json:"session"`
	ID      uint8  `json:"id"`
	Service string `json:"service"`
	State   string `json:"state"`
}

// JournalEntry is the JSON form of a journal entry
type JournalEntry struct {
	ID          int64     `json:"id"`
	Session     string    `json:"session"`
	Direction   string    `json:"direction"`
	Channel     string    `json:"channel"`
	MessageID   string    `json:"message_id"`
	Encryption  string    `json:"encryption"`
	MessageType string    `json:"message_type"`
	Size        int       `json:"size"`
	Time        time.Time `json:"time"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Uptime:   time.Since(s.startTime).Round(time.Second).String(),
		Sessions: s.sessions.Stats().Active,
	})
}

// handleSessions handles GET /api/v1/sessions
func (s *Server) handleSessions(c *gin.Context) {
	infos := s.sessions.Sessions()
	if infos == nil {
		infos = []session.Info{}
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": infos,
		"stats":    s.sessions.Stats(),
	})
}

// handleChannels handles GET /api/v1/channels
func (s *Server) handleChannels(c *gin.Context) {
	channels := []ChannelState{}
	for _, info := range s.sessions.Sessions() {
		for _, ch := range info.Channels {
			channels = append(channels, ChannelState{
				Session: info.ID,
				ID:      ch.ID,
				Service: ch.Service,
				State:   ch.State,
			})
		}
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

// handleJournal handles GET /api/v1/journal?channel=&limit=
func (s *Server) handleJournal(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Journal disabled"})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxJournalLimit {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid limit",
				Message: "limit must be between 1 and " + strconv.Itoa(maxJournalLimit),
			})
			return
		}
		limit = n
	}

	entries, err := s.journal.Recent(c.Query("channel"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Journal query failed", Message: err.Error()})
		return
	}

	out := make([]JournalEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, toJournalEntry(e))
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

// handleJournalStats handles GET /api/v1/journal/stats
func (s *Server) handleJournalStats(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Journal disabled"})
		return
	}

	stats, err := s.journal.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Journal query failed", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func toJournalEntry(e journal.Entry) JournalEntry {
	return JournalEntry{
		ID:          e.ID,
		Session:     e.SessionID,
		Direction:   e.Direction,
		Channel:     e.Channel,
		MessageID:   fmt.Sprintf("0x%04x", e.MessageID),
		Encryption:  e.Encryption,
		MessageType: e.MessageType,
		Size:        e.Size,
		Time:        time.Unix(0, e.Timestamp).UTC(),
	}
}
