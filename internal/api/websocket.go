package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/vectorlink/internal/infrastructure/logging"
	"github.com/nerrad567/vectorlink/internal/relay"
)

// Subscription actions accepted from clients.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// sendBufferSize is how many frames a slow subscriber may fall behind
// before frames are dropped for it.
const sendBufferSize = 64

// channels are the relay's broadcast channels, the only ones a client may join.
var channels = map[string]struct{}{
	relay.ChannelWakeWord:   {},
	relay.ChannelRobotState: {},
	relay.ChannelControl:    {},
	relay.ChannelBattery:    {},
}

// Frame is one relayed payload pushed to a subscriber.
type Frame struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"timestamp"`
	Payload   any    `json:"payload"`
}

// Command changes a client's subscriptions:
//
//	{"action":"subscribe","channels":["robot.wake_word"]}
type Command struct {
	Action   string   `json:"action"`
	Channels []string `json:"channels"`
}

// Reply answers a Command. Channels lists the subscriptions after the command.
type Reply struct {
	Action   string   `json:"action,omitempty"`
	Channels []string `json:"channels"`
	Error    string   `json:"error,omitempty"`
}

// unknownChannels returns the names not in channels.
func unknownChannels(names []string) []string {
	var unknown []string
	for _, name := range names {
		if _, ok := channels[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// Hub fans relay broadcasts out to WebSocket subscribers.
//
// Thread Safety:
//   - Broadcast may be called from any goroutine, including relay listeners.
//   - A subscriber whose buffer is full misses frames; Broadcast never blocks.
type Hub struct {
	logger *logging.Logger

	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
}

// NewHub creates a hub with no subscribers.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:      logger,
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Run blocks until ctx ends, then disconnects every subscriber.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[*subscriber]struct{})
	h.mu.Unlock()

	for s := range subs {
		s.close()
	}
}

// Broadcast sends payload to every subscriber of channel.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(Frame{
		Channel:   channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("failed to encode websocket frame", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subscribers {
		if s.subscribed(channel) {
			s.push(data)
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	n := len(h.subscribers)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "subject", s.subject, "channels", s.list(), "clients", n)
}

// remove drops s and closes its send buffer. Removing twice is a no-op.
func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, s)
	n := len(h.subscribers)
	h.mu.Unlock()

	s.close()
	h.logger.Debug("websocket client disconnected", "clients", n)
}

// subscriber is one WebSocket client.
type subscriber struct {
	conn    *websocket.Conn // nil in hub tests
	subject string

	mu       sync.RWMutex
	send     chan []byte
	closed   bool
	channels map[string]struct{}
}

func newSubscriber(conn *websocket.Conn, initial []string) *subscriber {
	s := &subscriber{
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		channels: make(map[string]struct{}, len(initial)),
	}
	for _, ch := range initial {
		s.channels[ch] = struct{}{}
	}
	return s
}

func (s *subscriber) subscribed(channel string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.channels[channel]
	return ok
}

// push queues data unless the subscriber is closed or behind.
func (s *subscriber) push(data []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.send <- data:
	default:
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// apply runs cmd and returns the reply to send back.
func (s *subscriber) apply(cmd Command) Reply {
	if cmd.Action != ActionSubscribe && cmd.Action != ActionUnsubscribe {
		return Reply{Channels: s.list(), Error: "unknown action: " + cmd.Action}
	}
	if unknown := unknownChannels(cmd.Channels); len(unknown) > 0 {
		return Reply{Action: cmd.Action, Channels: s.list(), Error: "unknown channel: " + strings.Join(unknown, ",")}
	}

	s.mu.Lock()
	for _, ch := range cmd.Channels {
		if cmd.Action == ActionSubscribe {
			s.channels[ch] = struct{}{}
		} else {
			delete(s.channels, ch)
		}
	}
	s.mu.Unlock()

	return Reply{Action: cmd.Action, Channels: s.list()}
}

// list returns the subscribed channels in name order.
func (s *subscriber) list() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.channels))
	for ch := range s.channels {
		out = append(out, ch)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Every upgrade already carries a valid bearer token.
		return true
	},
}

// handleWebSocket upgrades an authenticated request to a relay subscription.
// Channels may be joined up front with ?channels=robot.wake_word,robot.state
// or later with a Command.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	var initial []string
	for _, ch := range strings.Split(r.URL.Query().Get("channels"), ",") {
		if ch = strings.TrimSpace(ch); ch != "" {
			initial = append(initial, ch)
		}
	}
	if unknown := unknownChannels(initial); len(unknown) > 0 {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "unknown channel: "+strings.Join(unknown, ","))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	hub := s.Hub()
	sub := newSubscriber(conn, initial)
	sub.subject = subjectFromContext(r.Context())
	hub.add(sub)

	go s.writeLoop(sub)
	go s.readLoop(hub, sub)
}

// readLoop applies client commands until the connection fails.
func (s *Server) readLoop(hub *Hub, sub *subscriber) {
	defer func() {
		hub.remove(sub)
		sub.conn.Close() //nolint:errcheck // Connection is being torn down
	}()

	wait := time.Duration(s.wsCfg.PingInterval+s.wsCfg.PongTimeout) * time.Second
	sub.conn.SetReadLimit(int64(s.wsCfg.MaxMessageSize))
	sub.conn.SetReadDeadline(time.Now().Add(wait)) //nolint:errcheck // Reset on every pong
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, data, err := sub.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		sub.conn.SetReadDeadline(time.Now().Add(wait)) //nolint:errcheck // Reset on any client frame

		var cmd Command
		reply := Reply{Channels: sub.list(), Error: "invalid command"}
		if err := json.Unmarshal(data, &cmd); err == nil {
			reply = sub.apply(cmd)
		}
		if encoded, err := json.Marshal(reply); err == nil {
			sub.push(encoded)
		}
	}
}

// writeLoop drains the subscriber's buffer and keeps the connection pinged.
func (s *Server) writeLoop(sub *subscriber) {
	pingInterval := time.Duration(s.wsCfg.PingInterval) * time.Second
	writeWait := time.Duration(s.wsCfg.PongTimeout) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		sub.conn.Close() //nolint:errcheck // Connection is being torn down
	}()

	for {
		select {
		case data, ok := <-sub.send:
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, nil) //nolint:errcheck // Best-effort close frame
				return
			}
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // Write error is checked below
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // Write error is checked below
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
