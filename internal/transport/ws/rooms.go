package ws

import (
	"encoding/json"
	"intervue/internal/model"

	"go.uber.org/zap"
)

// Everything in this file runs on the hub goroutine.

type sessionRef struct {
	SessionID string `json:"sessionId"`
}

type userJoinedPayload struct {
	UserID   string     `json:"userId"`
	UserRole model.Role `json:"userRole"`
	UserName string     `json:"userName"`
}

type userLeftPayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type sessionJoinedPayload struct {
	SessionID string `json:"sessionId"`
	RoomName  string `json:"roomName"`
}

type callEndedPayload struct {
	SessionID   string     `json:"sessionId"`
	EndedBy     string     `json:"endedBy"`
	EndedByRole model.Role `json:"endedByRole"`
	EndedByName string     `json:"endedByName"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (h *Hub) handle(c *Connection, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(c, "invalid message")
		return
	}
	h.metrics.Message(messageLabel(msg.Type))

	// every client message carries an object payload with a session id
	var fields map[string]json.RawMessage
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &fields); err != nil {
			h.sendError(c, "payload must be an object")
			return
		}
	}
	var ref sessionRef
	if raw, ok := fields["sessionId"]; ok {
		if err := json.Unmarshal(raw, &ref.SessionID); err != nil {
			h.sendError(c, "sessionId must be a string")
			return
		}
	}

	switch msg.Type {
	case MsgJoinSession:
		if ref.SessionID == "" {
			h.sendError(c, "sessionId is required")
			return
		}
		h.join(c, ref.SessionID)

	case MsgLeaveSession:
		if c.room == "" || (ref.SessionID != "" && ref.SessionID != c.sessionID) {
			h.sendError(c, "not in session "+ref.SessionID)
			return
		}
		h.leave(c)

	case MsgOffer, MsgAnswer, MsgICECandidate:
		if !h.inRoom(c, ref.SessionID) {
			return
		}
		fields["fromUserId"] = mustRaw(c.Identity.UserID)
		h.sendRoom(c.room, &Message{Type: msg.Type, Payload: mustRaw(fields)}, c)

	case MsgEvaluationUpdate:
		if !h.inRoom(c, ref.SessionID) {
			return
		}
		fields["updatedBy"] = mustRaw(c.Identity.UserID)
		fields["updatedByRole"] = mustRaw(c.Identity.Role)
		h.sendRoom(c.room, &Message{Type: msg.Type, Payload: mustRaw(fields)}, c)

	case MsgCallEnded:
		if !h.inRoom(c, ref.SessionID) {
			return
		}
		h.sendRoom(c.room, newMessage(MsgCallEnded, callEndedPayload{
			SessionID:   c.sessionID,
			EndedBy:     c.Identity.UserID,
			EndedByRole: c.Identity.Role,
			EndedByName: c.Identity.Name,
		}), nil)
		h.log.Info("call ended", zap.String("sessionId", c.sessionID), zap.String("by", c.Identity.UserID))

	default:
		h.sendError(c, "unknown message type "+string(msg.Type))
	}
}

// messageLabel bounds the metric label set to the known client types
func messageLabel(t MessageType) string {
	switch t {
	case MsgJoinSession, MsgLeaveSession, MsgOffer, MsgAnswer, MsgICECandidate, MsgEvaluationUpdate, MsgCallEnded:
		return string(t)
	}
	return "unknown"
}

// inRoom checks the sender addresses the room it is in and reports an error otherwise
func (h *Hub) inRoom(c *Connection, sessionID string) bool {
	if sessionID == "" {
		h.sendError(c, "sessionId is required")
		return false
	}
	if c.sessionID != sessionID {
		h.sendError(c, "join session "+sessionID+" first")
		return false
	}
	return true
}

func (h *Hub) join(c *Connection, sessionID string) {
	room := model.RoomName(sessionID)
	if c.room == room {
		h.send(c, newMessage(MsgSessionJoined, sessionJoinedPayload{SessionID: sessionID, RoomName: room}))
		return
	}
	h.leave(c)

	members := h.rooms[room]
	if members == nil {
		members = make(map[*Connection]struct{})
		h.rooms[room] = members
	}

	// catch the newcomer up on who is already here
	for m := range members {
		h.send(c, newMessage(MsgUserJoined, userJoinedPayload{
			UserID:   m.Identity.UserID,
			UserRole: m.Identity.Role,
			UserName: m.Identity.Name,
		}))
	}
	h.sendRoom(room, newMessage(MsgUserJoined, userJoinedPayload{
		UserID:   c.Identity.UserID,
		UserRole: c.Identity.Role,
		UserName: c.Identity.Name,
	}), nil)

	members[c] = struct{}{}
	c.room = room
	c.sessionID = sessionID
	h.send(c, newMessage(MsgSessionJoined, sessionJoinedPayload{SessionID: sessionID, RoomName: room}))

	h.log.Info("joined session room",
		zap.String("room", room),
		zap.String("userId", c.Identity.UserID),
		zap.Int("members", len(members)),
	)
}

// leave removes c from its room, if any, and tells the rest exactly once
func (h *Hub) leave(c *Connection) {
	if c.room == "" {
		return
	}
	room := c.room
	members := h.rooms[room]
	delete(members, c)
	c.room = ""
	c.sessionID = ""

	if len(members) == 0 {
		delete(h.rooms, room)
	} else {
		h.sendRoom(room, newMessage(MsgUserLeft, userLeftPayload{
			UserID:   c.Identity.UserID,
			UserName: c.Identity.Name,
		}), nil)
	}

	h.log.Info("left session room", zap.String("room", room), zap.String("userId", c.Identity.UserID))
}

// sendRoom delivers msg to every member of room except skip
func (h *Hub) sendRoom(room string, msg *Message, skip *Connection) {
	members := h.rooms[room]
	if len(members) == 0 {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to encode message", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}
	for m := range members {
		if m == skip {
			continue
		}
		h.deliver(m, data)
	}
}

func (h *Hub) send(c *Connection, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to encode message", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}
	h.deliver(c, data)
}

func (h *Hub) deliver(c *Connection, data []byte) {
	select {
	case c.Send <- data:
	default:
		// Drop message if buffer full
		h.log.Warn("send buffer full, dropping message", zap.String("connId", c.ID))
	}
}

func (h *Hub) sendError(c *Connection, message string) {
	h.log.Debug("realtime error", zap.String("connId", c.ID), zap.String("message", message))
	h.send(c, newMessage(MsgError, errorPayload{Message: message}))
}

func newMessage(t MessageType, payload interface{}) *Message {
	return &Message{Type: t, Payload: mustRaw(payload)}
}

// mustRaw encodes values that are always representable as JSON
func mustRaw(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
