package notifications

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"impactbridge/partner-portal/partner-portal-backend/internal/auth"
	"impactbridge/partner-portal/partner-portal-backend/internal/verification"
)

// Message is one event pushed to connected portal clients.
type Message struct {
	Type      string    `json:"type"`
	OrgID     string    `json:"org_id"`
	RequestID string    `json:"request_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Action    string    `json:"action,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type client struct {
	orgID string
	role  string
	conn  *websocket.Conn
	send  chan Message
}

// Hub fans verification events out to websocket clients. Organization users
// receive their own events; ops clients receive everything.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// NotifyStatusChange implements verification.Notifier.
func (h *Hub) NotifyStatusChange(orgID, requestID uuid.UUID, status verification.RequestStatus, action verification.Action) {
	h.broadcast(Message{
		Type:      "verification_status",
		OrgID:     orgID.String(),
		RequestID: requestID.String(),
		Status:    string(status),
		Action:    string(action),
		Timestamp: time.Now(),
	})
}

func (h *Hub) broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.role != auth.RoleOps && c.orgID != msg.OrgID {
			continue
		}
		select {
		case c.send <- msg:
		default:
			// Slow consumer; drop the message rather than block the sender.
		}
	}
}

// ServeWS upgrades the request and streams events until the client leaves.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		orgID: c.GetString(auth.ContextOrgID),
		role:  c.GetString(auth.ContextRole),
		conn:  conn,
		send:  make(chan Message, 64),
	}

	h.mu.Lock()
	h.clients[cl] = true
	h.mu.Unlock()

	go h.writePump(cl)
	go h.readPump(cl)
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(cl *client) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, cl)
		h.mu.Unlock()
		close(cl.send)
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(512)
	for {
		// Clients do not send application messages; the read loop only
		// watches for disconnects.
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}
