package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/kipr/colosseum-sub001/brackets"
	"github.com/kipr/colosseum-sub001/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict Origin once the frontend domain is fixed.
		return true
	},
}

type WebSocketHandler struct {
	hub          *brackets.Hub
	eventService services.EventService
	logger       *slog.Logger
}

func NewWebSocketHandler(hub *brackets.Hub, eventService services.EventService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		eventService: eventService,
		logger:       logger,
	}
}

// ServeWs upgrades GET /ws/events/{eventID} into the event's live room.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if _, err := h.eventService.GetByID(r.Context(), eventID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.Int("event_id", eventID), slog.Any("error", err))
		return
	}

	client := brackets.NewClient(h.hub, conn, eventRoomName(eventID))
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

func eventRoomName(eventID int) string {
	return "event:" + strconv.Itoa(eventID)
}
