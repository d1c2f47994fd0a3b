package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/jominki354/hotstinder/lobby"
	"github.com/jominki354/hotstinder/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin фильтруется CORS-слоем роутера; сам апгрейд не проверяет Origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebsocketHandler struct {
	hub          *lobby.Hub
	matchService services.MatchService
	logger       *slog.Logger
}

func NewWebsocketHandler(hub *lobby.Hub, matchService services.MatchService, logger *slog.Logger) *WebsocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebsocketHandler{
		hub:          hub,
		matchService: matchService,
		logger:       logger,
	}
}

// Subscribe апгрейдит соединение и подписывает клиента на комнату матча.
// Матч должен существовать, статус значения не имеет: подписка на завершённый
// матч отдаёт только финальные события и закрывается клиентом.
func (h *WebsocketHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	matchID, err := strconv.Atoi(chi.URLParam(r, "matchID"))
	if err != nil || matchID < 1 {
		badRequestResponse(w, r, errors.New("invalid match id parameter"))
		return
	}

	if _, _, err := h.matchService.Get(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			slog.Int("match_id", matchID), slog.Any("error", err))
		return
	}

	client := lobby.NewClient(h.hub, conn, matchID)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
