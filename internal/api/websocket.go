package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gcviewer/backend/internal/models"
	"github.com/gcviewer/backend/internal/workspace"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Server -> client message types
const (
	MsgTypeSync     = "sync"
	MsgTypeLayout   = string(models.DocumentEventLayout)
	MsgTypeDisposed = string(models.DocumentEventDisposed)
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// WSMessage is one message pushed to event clients.
type WSMessage struct {
	Type      string                `json:"type"`
	Document  *models.DocumentInfo  `json:"document,omitempty"`
	Documents []models.DocumentInfo `json:"documents,omitempty"`
	Timestamp int64                 `json:"timestamp"`
}

type wsClient struct {
	hub  *EventHub
	conn *websocket.Conn
	send chan []byte
}

// EventHub fans workspace document events out to WebSocket clients.
type EventHub struct {
	workspace *workspace.Manager
	upgrader  websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]struct{}

	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}
	cancel     func()
}

// NewEventHub creates a hub subscribed to ws. Run must be started before
// clients connect.
func NewEventHub(ws *workspace.Manager) *EventHub {
	h := &EventHub{
		workspace: ws,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The host shell runs on the same machine
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		clients:    make(map[*wsClient]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
	}
	h.cancel = ws.Subscribe(h.publish)
	return h
}

// publish is called by the workspace after every mutation. It must not
// block, so a full queue drops the event.
func (h *EventHub) publish(e models.DocumentEvent) {
	msg := WSMessage{
		Type:      string(e.Type),
		Document:  e.Document,
		Timestamp: time.Now().UnixMilli(),
	}
	if e.Document == nil {
		msg.Document = &models.DocumentInfo{ID: e.DocumentID}
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Errorf("[ws] marshal error: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logger.Warnf("[ws] event queue full, dropping %s for %s", e.Type, e.DocumentID)
	}
}

// Run serves the hub until ctx is done. It then closes every client and
// stops listening to the workspace.
func (h *EventHub) Run(ctx context.Context) {
	defer func() {
		h.cancel()
		close(h.done)
	}()
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			logger.Infof("[ws] client connected (%d total)", h.ClientCount())
			h.sendSync(c)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			logger.Infof("[ws] client disconnected (%d total)", h.ClientCount())

		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// too slow to keep up
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *EventHub) sendSync(c *wsClient) {
	data, err := json.Marshal(WSMessage{
		Type:      MsgTypeSync,
		Documents: h.workspace.List(),
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		logger.Errorf("[ws] marshal error: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// HandleWebSocket upgrades the connection and streams document events.
func (h *EventHub) HandleWebSocket(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &wsClient{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	case <-c.Request().Context().Done():
		conn.Close()
		return nil
	}

	go client.writePump()
	client.readPump()
	return nil
}

// readPump only handles keepalive. Clients never change state over the
// socket, so anything else they send is discarded.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warnf("[ws] read error: %v", err)
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
