// Package lobby рассылает обновления жизненного цикла матчей подписанным
// websocket-клиентам. Комната — один матч.
package lobby

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// MatchUpdate — сообщение, уходящее в комнату матча.
type MatchUpdate struct {
	Type    string      `json:"type"`
	MatchID int         `json:"match_id"`
	Payload interface{} `json:"payload,omitempty"`
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	matchID int

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, matchID int) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 16),
		matchID: matchID,
	}
}

type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	mu     sync.RWMutex
	rooms  map[int]map[*Client]bool
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[int]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.matchID]; !ok {
				h.rooms[client.matchID] = make(map[*Client]bool)
			}
			h.rooms[client.matchID][client] = true
			h.mu.Unlock()
			h.logger.Debug("lobby client registered", slog.Int("match_id", client.matchID))

		case client := <-h.Unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.matchID]; ok {
				if _, okClient := room[client]; okClient {
					client.closeSend()
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, client.matchID)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("lobby client unregistered", slog.Int("match_id", client.matchID))
		}
	}
}

// BroadcastMatchUpdate реализует services.MatchBroadcaster.
// Медленный клиент молча пропускает сообщение, остальных это не блокирует.
func (h *Hub) BroadcastMatchUpdate(matchID int, eventType string, payload interface{}) {
	message, err := json.Marshal(MatchUpdate{
		Type:    eventType,
		MatchID: matchID,
		Payload: payload,
	})
	if err != nil {
		h.logger.Error("failed to marshal match update",
			slog.Int("match_id", matchID), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[matchID] {
		client.mu.Lock()
		if client.closed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.send <- message:
		default:
		}
		client.mu.Unlock()
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// ReadPump держит соединение: входящие сообщения игнорируются, клиентский
// канал — только на чтение обновлений.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("lobby client read error",
					slog.String("match", strconv.Itoa(c.matchID)), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
