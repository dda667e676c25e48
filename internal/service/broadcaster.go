package service

// Broadcaster pushes server-originated events into a session's realtime room
// (implemented by ws.Hub; the interface avoids an import cycle)
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
}
