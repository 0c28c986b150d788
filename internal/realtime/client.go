package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 4096
	joinAction     = "join_business"
)

// MembershipChecker verifies that a user may join a business room. It
// returns an error when the business is missing or the user is not a member.
type MembershipChecker func(ctx context.Context, businessID, userID string) error

type joinMessage struct {
	Action     string `json:"action"`
	BusinessID string `json:"businessId"`
}

// Client is one websocket connection. It belongs to at most one business
// room, chosen by the first message it sends after the handshake.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	userID     string
	businessID string
}

// ChannelServer upgrades authenticated HTTP requests into hub clients.
type ChannelServer struct {
	hub          *Hub
	checker      MembershipChecker
	logger       *slog.Logger
	writeTimeout time.Duration
	pongTimeout  time.Duration
	upgrader     websocket.Upgrader
}

func NewChannelServer(hub *Hub, checker MembershipChecker, logger *slog.Logger, writeTimeout, pongTimeout time.Duration) *ChannelServer {
	return &ChannelServer{
		hub:          hub,
		checker:      checker,
		logger:       logger,
		writeTimeout: writeTimeout,
		pongTimeout:  pongTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Token auth happens before the upgrade; cross-origin devices
			// are the normal case.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the connection and runs it until either side closes.
// userID must already be authenticated.
func (s *ChannelServer) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := &Client{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		userID: userID,
	}
	go s.writePump(client)
	go s.readPump(client)
}

// readPump expects one join_business message, then consumes control frames
// until the peer disconnects. Clients never send data frames after joining.
func (s *ChannelServer) readPump(c *Client) {
	defer func() {
		s.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(s.pongTimeout)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	})

	joined := false
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("Websocket closed unexpectedly",
					slog.String("user_id", c.userID), slog.Any("error", err))
			}
			return
		}
		if joined {
			continue
		}

		var msg joinMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.Action != joinAction || msg.BusinessID == "" {
			s.closeWith(c, websocket.ClosePolicyViolation, "expected join_business message")
			return
		}
		if err := s.checker(context.Background(), msg.BusinessID, c.userID); err != nil {
			s.logger.Warn("Room join rejected",
				slog.String("business_id", msg.BusinessID),
				slog.String("user_id", c.userID),
				slog.Any("error", err))
			s.closeWith(c, websocket.ClosePolicyViolation, "not a member of this business")
			return
		}
		s.hub.join <- joinRequest{client: c, businessID: msg.BusinessID}
		joined = true
	}
}

// writePump serializes all writes to the connection and keeps it alive with
// pings. Closing c.send terminates the connection.
func (s *ChannelServer) writePump(c *Client) {
	pingInterval := s.pongTimeout * 9 / 10
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					s.logger.Debug("Websocket write failed",
						slog.String("user_id", c.userID), slog.Any("error", err))
				}
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *ChannelServer) closeWith(c *Client, code int, reason string) {
	c.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)) //nolint:errcheck
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason)) //nolint:errcheck
}
