package ws

import (
	"context"
	"encoding/json"
	"intervue/internal/apperror"
	"intervue/internal/metrics"
	"intervue/internal/model"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client message types
const (
	MsgJoinSession      MessageType = "join-session"
	MsgLeaveSession     MessageType = "leave-session"
	MsgOffer            MessageType = "offer"
	MsgAnswer           MessageType = "answer"
	MsgICECandidate     MessageType = "ice-candidate"
	MsgEvaluationUpdate MessageType = "evaluation-update"
	MsgCallEnded        MessageType = "call-ended"
)

// Server message types
const (
	MsgSessionJoined MessageType = "session-joined"
	MsgUserJoined    MessageType = "user-joined"
	MsgUserLeft      MessageType = "user-left"
	MsgError         MessageType = "error"
)

const (
	sendBuffer       = 256
	authorizeTimeout = 5 * time.Second
)

// JoinAuthorizer decides whether an identity may enter a session room
type JoinAuthorizer interface {
	AuthorizeJoin(ctx context.Context, actor model.Identity, sessionID string) error
}

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Connection is one authenticated socket. Room is owned by the hub goroutine.
type Connection struct {
	ID       string
	Identity model.Identity
	Send     chan []byte

	room      string
	sessionID string
}

// NewConnection creates a connection for an authenticated identity
func NewConnection(identity model.Identity) *Connection {
	return &Connection{
		ID:       uuid.NewString(),
		Identity: identity,
		Send:     make(chan []byte, sendBuffer),
	}
}

// inbound carries one client frame to the run loop. denied is set when a
// join was refused before reaching it.
type inbound struct {
	conn   *Connection
	data   []byte
	denied string
	done   chan struct{}
}

type request struct {
	conn *Connection
	done chan struct{}
}

// BroadcastMessage is a server-originated message for a whole room
type BroadcastMessage struct {
	SessionID string
	Message   *Message
}

// Hub owns every room. All membership changes and fan-out happen on the run
// goroutine, one command at a time, so a member list read while handling a
// join cannot change before the join's announcements go out.
type Hub struct {
	rooms map[string]map[*Connection]struct{}
	conns map[*Connection]struct{}

	// Channels for coordination
	register   chan request
	unregister chan request
	inbound    chan inbound
	broadcast  chan *BroadcastMessage
	inspect    chan func()
	quit       chan struct{}
	stopped    chan struct{}

	authorizer JoinAuthorizer
	metrics    *metrics.Metrics
	log        *zap.Logger
}

// NewHub creates a new WebSocket hub and starts its run loop
func NewHub(log *zap.Logger, m *metrics.Metrics) *Hub {
	h := &Hub{
		rooms:      make(map[string]map[*Connection]struct{}),
		conns:      make(map[*Connection]struct{}),
		register:   make(chan request),
		unregister: make(chan request),
		inbound:    make(chan inbound),
		broadcast:  make(chan *BroadcastMessage),
		inspect:    make(chan func()),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
		metrics:    m,
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case req := <-h.register:
			h.conns[req.conn] = struct{}{}
			h.metrics.ConnectionOpened()
			h.log.Debug("connection registered",
				zap.String("connId", req.conn.ID),
				zap.String("userId", req.conn.Identity.UserID),
			)
			close(req.done)

		case req := <-h.unregister:
			if _, ok := h.conns[req.conn]; ok {
				h.leave(req.conn)
				delete(h.conns, req.conn)
				close(req.conn.Send)
				h.metrics.ConnectionClosed()
				h.log.Debug("connection unregistered", zap.String("connId", req.conn.ID))
			}
			close(req.done)

		case in := <-h.inbound:
			if _, ok := h.conns[in.conn]; ok {
				if in.denied != "" {
					h.metrics.Message(string(MsgJoinSession))
					h.sendError(in.conn, in.denied)
				} else {
					h.handle(in.conn, in.data)
				}
			}
			close(in.done)

		case msg := <-h.broadcast:
			h.sendRoom(model.RoomName(msg.SessionID), msg.Message, nil)

		case fn := <-h.inspect:
			fn()

		case <-h.quit:
			for c := range h.conns {
				close(c.Send)
			}
			h.conns = map[*Connection]struct{}{}
			h.rooms = map[string]map[*Connection]struct{}{}
			return
		}
	}
}

// SetAuthorizer gates join-session on a lookup. Call it before serving
// connections; without one every authenticated identity may join any room.
func (h *Hub) SetAuthorizer(a JoinAuthorizer) {
	h.authorizer = a
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.call(h.register, conn)
}

// Unregister removes a connection, leaving its room first. Its Send channel is closed.
func (h *Hub) Unregister(conn *Connection) {
	h.call(h.unregister, conn)
}

func (h *Hub) call(ch chan request, conn *Connection) {
	req := request{conn: conn, done: make(chan struct{})}
	select {
	case ch <- req:
		<-req.done
	case <-h.stopped:
	}
}

// Dispatch handles one client frame. When it returns every resulting
// message has been queued on the recipients' Send channels.
func (h *Hub) Dispatch(conn *Connection, data []byte) {
	in := inbound{conn: conn, data: data, denied: h.authorize(conn, data), done: make(chan struct{})}
	select {
	case h.inbound <- in:
		<-in.done
	case <-h.stopped:
	}
}

// authorize runs the join lookup on the caller's goroutine so a slow store
// never stalls the run loop. Frames other than join-session pass through.
func (h *Hub) authorize(conn *Connection, data []byte) string {
	if h.authorizer == nil {
		return ""
	}
	var msg struct {
		Type    MessageType `json:"type"`
		Payload struct {
			SessionID string `json:"sessionId"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MsgJoinSession || msg.Payload.SessionID == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(context.Background(), authorizeTimeout)
	defer cancel()
	if err := h.authorizer.AuthorizeJoin(ctx, conn.Identity, msg.Payload.SessionID); err != nil {
		h.log.Info("join refused",
			zap.String("sessionId", msg.Payload.SessionID),
			zap.String("userId", conn.Identity.UserID),
			zap.Error(err),
		)
		return "cannot join session " + msg.Payload.SessionID + ": " + apperror.Message(err)
	}
	return ""
}

// BroadcastToSession sends a message to everyone in a session room (implements service.Broadcaster)
func (h *Hub) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to encode broadcast", zap.String("type", msgType), zap.Error(err))
		return
	}
	msg := &BroadcastMessage{
		SessionID: sessionID,
		Message:   &Message{Type: MessageType(msgType), Payload: data},
	}
	select {
	case h.broadcast <- msg:
	case <-h.stopped:
	}
}

// Close stops the run loop and closes every connection's Send channel
func (h *Hub) Close() {
	select {
	case <-h.stopped:
		return
	default:
	}
	select {
	case h.quit <- struct{}{}:
	case <-h.stopped:
	}
	<-h.stopped
}

// RoomSize reports how many connections are in a session room
func (h *Hub) RoomSize(sessionID string) int {
	n := 0
	done := make(chan struct{})
	fn := func() {
		n = len(h.rooms[model.RoomName(sessionID)])
		close(done)
	}
	select {
	case h.inspect <- fn:
		<-done
	case <-h.stopped:
	}
	return n
}
