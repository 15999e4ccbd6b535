package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/willemhelmet/prompt-pugalists/internal/constants"
	"github.com/willemhelmet/prompt-pugalists/internal/logging"
	"github.com/willemhelmet/prompt-pugalists/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests and pumps decoded events into the
// orchestrator. Each connection gets a fresh uuid id; player identity is the
// orchestrator's concern.
type Handler struct {
	hub          *Hub
	orchestrator *service.Orchestrator
}

func NewHandler(hub *Hub, orchestrator *service.Orchestrator) *Handler {
	return &Handler{hub: hub, orchestrator: orchestrator}
}

// Serve is the gin handler for the websocket route.
func (h *Handler) Serve(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", err, logging.Fields{constants.LogFieldAddr: c.Request.RemoteAddr})
		return
	}

	connID := uuid.NewString()
	h.hub.add(connID, ws)
	logging.Info("connection opened", logging.Fields{constants.LogFieldConnID: connID, constants.LogFieldAddr: c.Request.RemoteAddr})

	go h.readLoop(connID, ws)
}

// readLoop reads envelopes until the socket breaks, then detaches the
// connection from whatever room it was in.
func (h *Handler) readLoop(connID string, ws *websocket.Conn) {
	defer func() {
		h.hub.remove(connID)
		ws.Close()
		h.orchestrator.HandleDisconnect(connID)
		logging.Info("connection closed", logging.Fields{constants.LogFieldConnID: connID})
	}()

	for {
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := ws.ReadJSON(&env); err != nil {
			return
		}
		h.dispatch(connID, env.Event, env.Data)
	}
}

func (h *Handler) dispatch(connID, event string, data json.RawMessage) {
	logging.Debug("event received", logging.Fields{constants.LogFieldConnID: connID, constants.LogFieldEvent: event})

	switch event {
	case constants.EventRoomCreate:
		var req service.CreateRoomRequest
		if !decode(connID, data, &req, h) {
			return
		}
		h.orchestrator.HandleCreateRoom(connID, req)
	case constants.EventRoomJoin:
		var req service.JoinRequest
		if !decode(connID, data, &req, h) {
			return
		}
		h.orchestrator.HandleJoin(connID, req)
	case constants.EventRoomRejoin:
		var req service.RejoinRequest
		if !decode(connID, data, &req, h) {
			return
		}
		h.orchestrator.HandleRejoin(connID, req)
	case constants.EventCharSelect:
		var req service.SelectCharacterRequest
		if !decode(connID, data, &req, h) {
			return
		}
		h.orchestrator.HandleSelectCharacter(connID, req)
	case constants.EventPlayerReady:
		h.orchestrator.HandleReady(connID)
	case constants.EventBattleAction:
		var req service.ActionRequest
		if !decode(connID, data, &req, h) {
			return
		}
		h.orchestrator.HandleSubmitAction(connID, req)
	case constants.EventBattleGenerate:
		// Suggestion generation blocks on the model; keep the read loop free
		// so the player can still submit or forfeit meanwhile.
		go h.orchestrator.HandleGenerateAction(connID)
	case constants.EventBattleForfeit:
		h.orchestrator.HandleForfeit(connID)
	default:
		logging.Warn("unknown event", logging.Fields{constants.LogFieldConnID: connID, constants.LogFieldEvent: event})
	}
}

func decode(connID string, data json.RawMessage, out interface{}, h *Handler) bool {
	if len(data) == 0 {
		return true
	}
	if err := json.Unmarshal(data, out); err != nil {
		_ = h.hub.Send(connID, constants.EventRoomError, gin.H{constants.JSONKeyMessage: constants.ErrInvalidRequest})
		return false
	}
	return true
}
