package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
	ActionRead Action = "read"
)

// RequestEnvelope carries every client message; ID is only used by "read".
type RequestEnvelope struct {
	Action Action `json:"action"`
	ID     string `json:"id,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError        Event = "error"
	EventPong         Event = "pong"
	EventRead         Event = "read"
	EventNotification Event = "notification"
	EventReady        Event = "ready"
)

// NotificationEvent wraps a notification published on the user's channel.
// Data is forwarded as published, without a decode round trip.
type NotificationEvent struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ReadResponse acknowledges a "read" action.
type ReadResponse struct {
	Event Event  `json:"event"`
	ID    string `json:"id"`
}

// ReadyResponse is sent once the subscription is live.
type ReadyResponse struct {
	Event  Event `json:"event"`
	Unread int   `json:"unread"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
