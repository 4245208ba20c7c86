package ratefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"RateCast/internal/domain/models"
	drepo "RateCast/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a RateStream backed by a policy-rate WebSocket feed.
type Client struct {
	apiKey         string
	websocketURL   string
	series         []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new rate-feed RateStream.
func New(apiKey, websocketURL string, series []string, reconnectDelay, pingInterval time.Duration) drepo.RateStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		series:         series,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("ratefeed connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("ratefeed: connected")
	return nil
}

// Subscribe subscribes to configured rate series.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("ratefeed not connected")
	}
	for _, s := range c.series {
		msg := map[string]string{"type": "subscribe", "series": s}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		log.Printf("ratefeed: subscribed %s", s)
	}
	return nil
}

type feedDecision struct {
	S  string  `json:"s"`        // series
	M  float64 `json:"move_bps"` // signed move
	R  float64 `json:"rate_pct"` // new level
	T  int64   `json:"t"`        // ms
	Sr string  `json:"src"`      // originating feed
}

type feedMessage struct {
	Type string         `json:"type"`
	Data []feedDecision `json:"data"`
}

// Read streams RateEvents and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.RateEvent, <-chan error) {
	events := make(chan *models.RateEvent, 64)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(events)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("ratefeed conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("ratefeed read: %w", err)
					return
				}
				var m feedMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-decision frames
					continue
				}
				if m.Type != "decision" {
					continue
				}
				for _, d := range m.Data {
					sec := d.T / 1000
					ev := &models.RateEvent{
						Series:        d.S,
						EffectiveDate: sec,
						MoveBps:       d.M,
						NewRatePct:    d.R,
						Source:        d.Sr,
					}
					select {
					case events <- ev:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return events, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
