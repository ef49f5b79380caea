package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000
)

// Message types on /ws. Clients may send {"type":"refresh"} to get the
// current snapshot even if nothing changed.
const (
	wsTypeClassrooms = "classrooms"
	wsTypeError      = "error"
	wsTypeRefresh    = "refresh"
)

type wsEnvelope struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

// sameOrigin admits requests without an Origin header and pages served by this host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// classroomStream pushes one user's classroom list over a websocket connection.
type classroomStream struct {
	h       *Handler
	conn    *websocket.Conn
	userID  int
	last    []byte
	refresh chan struct{}
}

// wsConnect streams the requester's classroom list, resending it when it changes.
func (h *Handler) wsConnect(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err, "userId", userID)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	s := &classroomStream{h: h, conn: conn, userID: userID, refresh: make(chan struct{}, 1)}
	s.run(c.Request.Context(), interval)
}

func (s *classroomStream) run(ctx context.Context, interval time.Duration) {
	s.conn.SetReadLimit(maxMsgSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go s.read(done)

	// the first snapshot must succeed or the stream is pointless
	if err := s.push(ctx, true); err != nil {
		s.h.logInfo("ws_initial_snapshot_failed", "err", err, "userId", s.userID)
		return
	}

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer ping.Stop()

	for {
		var err error
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err = s.conn.WriteMessage(websocket.PingMessage, nil)
		case <-s.refresh:
			err = s.push(ctx, true)
		case <-ticker.C:
			err = s.push(ctx, false)
		}
		if err != nil {
			s.h.logInfo("ws_write_failed", "err", err, "userId", s.userID)
			return
		}
	}
}

// read handles control frames and refresh requests until the peer goes away.
func (s *classroomStream) read(done chan<- struct{}) {
	defer close(done)
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.h.logInfo("ws_read_closed", "err", err, "userId", s.userID)
			return
		}
		var msg wsEnvelope
		if json.Unmarshal(raw, &msg) != nil || msg.Type != wsTypeRefresh {
			continue
		}
		select {
		case s.refresh <- struct{}{}:
		default:
		}
	}
}

// push sends the classroom list when it differs from the last one sent, or
// always when force is set. A failed load after the first snapshot is reported
// to the client and the stream continues.
func (s *classroomStream) push(ctx context.Context, force bool) error {
	list, err := s.h.services.Classrooms.ListForUser(ctx, s.userID)
	if err != nil {
		if s.h.log != nil {
			s.h.log.Errorw("ws_list_classrooms_failed", "err", err, "userId", s.userID)
		}
		if s.last == nil {
			return err
		}
		return s.write(wsEnvelope{Type: wsTypeError, Error: "failed to load classrooms"})
	}

	payload, err := json.Marshal(wsEnvelope{Type: wsTypeClassrooms, Data: list})
	if err != nil {
		return err
	}
	if !force && bytes.Equal(payload, s.last) {
		return nil
	}
	s.last = payload
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *classroomStream) write(env wsEnvelope) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(env)
}

// parseInterval reads ?interval=2s or ?interval_ms=2000, bounded by maxInterval.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultInterval
}
