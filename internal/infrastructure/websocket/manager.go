package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rentchat/internal/infrastructure/metrics"
	"rentchat/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

// Client is one member's push connection.
type Client struct {
	MemberID string
	Conn     *websocket.Conn
	Send     chan []byte
}

func NewClient(memberID string, conn *websocket.Conn) *Client {
	return &Client{
		MemberID: memberID,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
	}
}

// Manager tracks the connected members. A member reconnecting replaces
// their previous connection.
type Manager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start runs the registration loop until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		defer close(m.done)
		for {
			select {
			case client := <-m.register:
				m.mutex.Lock()
				if previous, ok := m.clients[client.MemberID]; ok && previous != client {
					close(previous.Send)
				}
				m.clients[client.MemberID] = client
				metrics.WsConnections.Set(float64(len(m.clients)))
				m.mutex.Unlock()
				logger.Debug("websocket client registered: %s", client.MemberID)

			case client := <-m.unregister:
				m.remove(client)
				logger.Debug("websocket client unregistered: %s", client.MemberID)

			case <-ctx.Done():
				m.mutex.Lock()
				for id, client := range m.clients {
					close(client.Send)
					delete(m.clients, id)
				}
				metrics.WsConnections.Set(0)
				m.mutex.Unlock()
				return
			}
		}
	}()
}

// Register hands client to the registration loop. It reports false once
// the loop has stopped; the caller then owns the connection.
func (m *Manager) Register(client *Client) bool {
	select {
	case m.register <- client:
		return true
	case <-m.done:
		return false
	}
}

// Unregister drops client if it is still the member's current connection.
// It returns immediately once the loop has stopped.
func (m *Manager) Unregister(client *Client) {
	select {
	case m.unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if current, ok := m.clients[client.MemberID]; ok && current == client {
		delete(m.clients, client.MemberID)
		close(client.Send)
		metrics.WsConnections.Set(float64(len(m.clients)))
	}
}

func (m *Manager) IsConnected(memberID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.clients[memberID]
	return ok
}

// SendToMember queues message for memberID. It reports false when the
// member is offline or their buffer is full; a full buffer drops the client.
func (m *Manager) SendToMember(memberID string, message []byte) bool {
	m.mutex.RLock()
	client, ok := m.clients[memberID]
	if !ok {
		m.mutex.RUnlock()
		return false
	}
	select {
	case client.Send <- message:
		m.mutex.RUnlock()
		return true
	default:
		m.mutex.RUnlock()
		logger.Warn("websocket buffer full for member %s, dropping connection", memberID)
		m.remove(client)
		return false
	}
}

// Notify wraps data in a WSMessage of the given type and pushes it.
func (m *Manager) Notify(memberID, messageType string, data interface{}) error {
	payload, err := json.Marshal(NewWSMessage(messageType, data))
	if err != nil {
		return err
	}
	m.SendToMember(memberID, payload)
	return nil
}

// ReadPump consumes frames from the connection until it closes.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error for member %s: %v", c.MemberID, err)
			}
			return
		}

		if reply := HandleIncoming(c.MemberID, message); reply != nil {
			m.SendToMember(c.MemberID, reply)
		}
	}
}

// WritePump drains Send onto the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("websocket write error for member %s: %v", c.MemberID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
