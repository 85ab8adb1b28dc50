package websocket

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/prepmyapp/notification/internal/domain"
)

// accountKey identifies a tenant-scoped account's WebSocket connections.
type accountKey struct {
	TenantID  string
	AccountID string
}

// Client represents a connected WebSocket client.
type Client struct {
	ID        uuid.UUID
	TenantID  string
	AccountID string
	Conn      *websocket.Conn
	Send      chan []byte
}

// Hub maintains the set of active clients and broadcasts notifications
// to clients, and implements channel.RealtimePublisher.
type Hub struct {
	clients map[accountKey]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu  sync.RWMutex
	log zerolog.Logger
}

type broadcastMessage struct {
	Key          accountKey
	Notification *domain.Notification
}

// NewHub creates a new WebSocket hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[accountKey]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		log:        log.With().Str("component", "websocket_hub").Logger(),
	}
}

// Run starts the hub's main loop. Intended to run in its own goroutine
// for the lifetime of the process.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToAccount(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := accountKey{TenantID: client.TenantID, AccountID: client.AccountID}
	if h.clients[key] == nil {
		h.clients[key] = make(map[*Client]bool)
	}
	h.clients[key][client] = true

	h.log.Debug().
		Str("client_id", client.ID.String()).
		Str("tenant_id", client.TenantID).
		Str("account_id", client.AccountID).
		Int("connections", len(h.clients[key])).
		Msg("client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := accountKey{TenantID: client.TenantID, AccountID: client.AccountID}
	if clients, ok := h.clients[key]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			close(client.Send)

			if len(clients) == 0 {
				delete(h.clients, key)
			}

			h.log.Debug().
				Str("client_id", client.ID.String()).
				Str("tenant_id", client.TenantID).
				Str("account_id", client.AccountID).
				Msg("client unregistered")
		}
	}
}

func (h *Hub) broadcastToAccount(message *broadcastMessage) {
	h.mu.RLock()
	clients, ok := h.clients[message.Key]
	h.mu.RUnlock()

	if !ok {
		return
	}

	data, err := json.Marshal(message.Notification)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to marshal notification for broadcast")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- data:
		default:
			close(client.Send)
			delete(clients, client)
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish implements channel.RealtimePublisher, delivering a
// notification to every connection currently open for the account.
// Publish never blocks on a slow consumer past the hub's buffered
// broadcast channel.
func (h *Hub) Publish(tenantID, accountID string, n *domain.Notification) {
	h.broadcast <- &broadcastMessage{
		Key:          accountKey{TenantID: tenantID, AccountID: accountID},
		Notification: n,
	}
}

// ConnectedAccounts returns the number of unique accounts with active
// connections.
func (h *Hub) ConnectedAccounts() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConnections returns the total number of active connections.
func (h *Hub) TotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

// IsAccountConnected reports whether an account has any active connections.
func (h *Hub) IsAccountConnected(tenantID, accountID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[accountKey{TenantID: tenantID, AccountID: accountID}]
	return ok && len(clients) > 0
}
