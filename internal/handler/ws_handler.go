package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyplan-backend/internal/middleware"
	"github.com/stemsi/studyplan-backend/internal/response"
	"github.com/stemsi/studyplan-backend/internal/service"
	ws "github.com/stemsi/studyplan-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams session views so a host can re-render after every
// action, including actions sent from another tab.
type WSHandler struct {
	planService *service.PlanService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(planService *service.PlanService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		planService: planService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// PlanStream godoc
// WS /ws/v1/plan/stream?token=...
func (h *WSHandler) PlanStream(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)

	// Check the session before upgrading so an expired one gets a JSON error.
	view, err := h.planService.View(c.Request.Context(), sessionID)
	if err != nil {
		failAction(c, err, nil)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views, unsubscribe, err := h.planService.Subscribe(ctx, sessionID)
	if err != nil {
		h.log.Error().Err(err).Msg("Subscribe failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", sessionID).Logger()
	wsLog.Info().Msg("Client connected")

	if err := ws.WriteView(conn, view); err != nil {
		return
	}

	// Writes happen on this goroutine only; the reader hands requests over.
	requests := make(chan ws.RequestPayload)
	go h.readLoop(ctx, conn, wsLog, requests)

	for {
		select {
		case payload, ok := <-views:
			if !ok {
				return
			}
			if err := ws.WriteRaw(conn, payload); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
		case msg, ok := <-requests:
			if !ok {
				return
			}
			if err := h.handleRequest(ctx, conn, sessionID, msg); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, out chan<- ws.RequestPayload) {
	defer close(out)
	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (h *WSHandler) handleRequest(ctx context.Context, conn *websocket.Conn, sessionID string, msg ws.RequestPayload) error {
	switch msg.Action {
	case ws.ActionPing:
		return ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
	case ws.ActionRefresh:
		view, err := h.planService.View(ctx, sessionID)
		if err != nil {
			_, code := classify(err)
			return ws.WriteError(conn, response.GetMessage(code))
		}
		return ws.WriteView(conn, view)
	default:
		return ws.WriteError(conn, "unknown action: "+string(msg.Action))
	}
}
