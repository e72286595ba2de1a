package websocket

import "github.com/stemsi/studyplan-backend/internal/planner"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing    Action = "ping"
	ActionRefresh Action = "refresh"
)

// RequestPayload is any message sent by the client.
type RequestPayload struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventView  Event = "view"
	EventError Event = "error"
	EventPong  Event = "pong"
)

// ViewEvent carries a freshly rendered session view.
type ViewEvent struct {
	Event Event         `json:"event"`
	View  *planner.View `json:"view"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
