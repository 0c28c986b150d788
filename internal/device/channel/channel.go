// Package channel maintains the device's websocket subscription to one
// business room. It reconnects with exponential backoff and surfaces a
// reconnect signal so the replica can run resume reconciliation; events
// missed while offline are never replayed over the socket.
package channel

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

const (
	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second
	eventBuffer = 64
)

type joinMessage struct {
	Action     string `json:"action"`
	BusinessID string `json:"businessId"`
}

// Channel is a device's live subscription to a business room.
type Channel struct {
	baseURL    string
	token      string
	businessID string
	logger     *slog.Logger

	events      chan domain.ChangeEvent
	reconnected chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
}

// New creates a channel for one business. baseURL is the server root
// (http:// or https://); the scheme is rewritten for the websocket dial.
func New(baseURL, token, businessID string, logger *slog.Logger) *Channel {
	return &Channel{
		baseURL:     baseURL,
		token:       token,
		businessID:  businessID,
		logger:      logger,
		events:      make(chan domain.ChangeEvent, eventBuffer),
		reconnected: make(chan struct{}, 1),
		closed:      make(chan struct{}),
	}
}

// Events delivers change events for the subscribed business.
func (ch *Channel) Events() <-chan domain.ChangeEvent {
	return ch.events
}

// Reconnected signals once per re-established connection after a drop. The
// consumer should run resume reconciliation when it fires.
func (ch *Channel) Reconnected() <-chan struct{} {
	return ch.reconnected
}

// Close tears the channel down. Safe to call more than once.
func (ch *Channel) Close() {
	ch.closeOnce.Do(func() {
		close(ch.closed)
	})
}

// Run dials and re-dials until Close is called or ctx is cancelled. Events
// flow to Events(); the first successful dial does not fire Reconnected.
func (ch *Channel) Run(ctx context.Context) {
	defer close(ch.events)

	backoff := baseBackoff
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch.closed:
			return
		default:
		}

		conn, err := ch.dial(ctx)
		if err != nil {
			ch.logger.Warn("Channel dial failed, backing off",
				slog.String("business_id", ch.businessID),
				slog.Duration("backoff", backoff),
				slog.Any("error", err))
			if !ch.sleep(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

		backoff = baseBackoff
		if !first {
			select {
			case ch.reconnected <- struct{}{}:
			default:
			}
		}
		first = false

		ch.readLoop(ctx, conn)
		conn.Close()
	}
}

func (ch *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(ch.baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/v1/ws"
	// Browser-style clients cannot set headers on the handshake, so the
	// token rides the query string on this endpoint.
	q := u.Query()
	q.Set("token", ch.token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteJSON(joinMessage{Action: "join_business", BusinessID: ch.businessID}); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (ch *Channel) readLoop(ctx context.Context, conn *websocket.Conn) {
	go func() {
		select {
		case <-ctx.Done():
		case <-ch.closed:
		}
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
			case <-ch.closed:
			default:
				ch.logger.Debug("Channel read failed, will reconnect",
					slog.String("business_id", ch.businessID), slog.Any("error", err))
			}
			return
		}
		var event domain.ChangeEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			ch.logger.Warn("Discarding undecodable channel message", slog.Any("error", err))
			continue
		}
		select {
		case ch.events <- event:
		case <-ctx.Done():
			return
		case <-ch.closed:
			return
		}
	}
}

func (ch *Channel) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-ch.closed:
		return false
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
