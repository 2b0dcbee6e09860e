package websocket

import (
	"fmt"
	"sync"
)

// Define notification types
const (
	NotificationTypePaymentSubmitted    = "payment_submitted"
	NotificationTypePaymentResolved     = "payment_resolved"
	NotificationTypeWithdrawalRequested = "withdrawal_requested"
	NotificationTypeWithdrawalResolved  = "withdrawal_resolved"
)

// sendBuffer bounds the per-client queue; a slow consumer drops
// notifications instead of blocking workflow handlers.
const sendBuffer = 16

// Notification represents a message sent over WebSocket
type Notification struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	UserID  int64       `json:"userId,omitempty"`
}

// Client represents a connected WebSocket client. All writes to the
// connection go through send; writePump is the connection's only writer.
type Client struct {
	ID     string
	UserID int64
	Admin  bool
	send   chan Notification
}

// enqueue hands a notification to the client's writer, dropping it when
// the client's queue is full.
func (c *Client) enqueue(notification Notification) bool {
	select {
	case c.send <- notification:
		return true
	default:
		return false
	}
}

// Hub maintains the set of active clients and broadcasts workflow
// events. It observes the ledger's transitions; it never participates
// in them.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			h.mu.Unlock()
		}
	}
}

// SendToUser sends a notification to every connection of a user
func (h *Hub) SendToUser(userID int64, notification Notification) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := false
	for _, client := range h.clients {
		if client.UserID == userID {
			client.enqueue(notification)
			sent = true
		}
	}
	if !sent {
		return fmt.Errorf("user not connected")
	}
	return nil
}

// BroadcastToAdmins sends a notification to all connected admins
func (h *Hub) BroadcastToAdmins(notification Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.Admin {
			client.enqueue(notification)
		}
	}
}

// NotifyPaymentSubmitted tells connected admins about a new payment proof
func (h *Hub) NotifyPaymentSubmitted(payment interface{}) {
	h.BroadcastToAdmins(Notification{
		Type:    NotificationTypePaymentSubmitted,
		Message: "New payment proof submitted",
		Data:    payment,
	})
}

// NotifyPaymentResolved tells the payer their payment was resolved
func (h *Hub) NotifyPaymentResolved(userID int64, payment interface{}) {
	h.SendToUser(userID, Notification{
		Type:    NotificationTypePaymentResolved,
		Message: "Your payment has been reviewed",
		Data:    payment,
	})
}

// NotifyWithdrawalRequested tells connected admins about a new withdrawal
func (h *Hub) NotifyWithdrawalRequested(withdrawal interface{}) {
	h.BroadcastToAdmins(Notification{
		Type:    NotificationTypeWithdrawalRequested,
		Message: "New withdrawal request",
		Data:    withdrawal,
	})
}

// NotifyWithdrawalResolved tells the requester their withdrawal was resolved
func (h *Hub) NotifyWithdrawalResolved(userID int64, withdrawal interface{}) {
	h.SendToUser(userID, Notification{
		Type:    NotificationTypeWithdrawalResolved,
		Message: "Your withdrawal request has been reviewed",
		Data:    withdrawal,
	})
}
