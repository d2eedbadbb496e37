// Package relay forwards live events between server instances over NATS so a
// user connected to one instance sees events produced on another.
package relay

import (
	"encoding/json"
	"log/slog"
	"time"

	"studenthelp/backend/internal/hub"

	"github.com/nats-io/nats.go"
)

type envelope struct {
	UserID uint            `json:"user_id"`
	Event  json.RawMessage `json:"event"`
}

// Connect dials NATS with reconnect handling.
func Connect(url string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("studenthelp"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			slog.Warn("Disconnected from NATS", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			slog.Info("NATS connection closed")
		}),
		nats.Timeout(10 * time.Second),
	}
	return nats.Connect(url, opts...)
}

// Relay publishes events to a NATS subject and delivers events received on it
// to the local hub. Every instance subscribes, so publishing only to NATS
// reaches local clients exactly once.
type Relay struct {
	nc      *nats.Conn
	subject string
	local   *hub.Hub
	sub     *nats.Subscription
	logger  *slog.Logger
}

// New creates a relay. Call Start before publishing.
func New(nc *nats.Conn, subject string, local *hub.Hub) *Relay {
	return &Relay{
		nc:      nc,
		subject: subject,
		local:   local,
		logger:  slog.Default().With("component", "relay"),
	}
}

// Start subscribes to the relay subject.
func (r *Relay) Start() error {
	sub, err := r.nc.Subscribe(r.subject, r.handle)
	if err != nil {
		return err
	}
	r.sub = sub
	r.logger.Info("Relay subscribed", "subject", r.subject)
	return nil
}

// Publish implements hub.Publisher.
func (r *Relay) Publish(userID uint, event hub.Event) {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("Failed to marshal event", "type", event.Type, "error", err)
		return
	}
	data, err := json.Marshal(envelope{UserID: userID, Event: eventBytes})
	if err != nil {
		r.logger.Error("Failed to marshal envelope", "error", err)
		return
	}

	if err := r.nc.Publish(r.subject, data); err != nil {
		// Local clients still get it; remote instances miss this one.
		r.logger.Error("Failed to publish event, delivering locally", "userID", userID, "error", err)
		r.local.Deliver(userID, eventBytes)
		return
	}
	r.logger.Debug("Published event", "userID", userID, "type", event.Type)
}

func (r *Relay) handle(msg *nats.Msg) {
	var env envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		r.logger.Warn("Discarding malformed relay message", "error", err)
		return
	}
	if env.UserID == 0 || len(env.Event) == 0 {
		r.logger.Warn("Discarding incomplete relay message")
		return
	}
	r.local.Deliver(env.UserID, env.Event)
}

// Close unsubscribes and drains the connection.
func (r *Relay) Close() {
	if r.sub != nil {
		if err := r.sub.Unsubscribe(); err != nil {
			r.logger.Warn("Failed to unsubscribe", "error", err)
		}
	}
	if r.nc != nil {
		_ = r.nc.Drain()
	}
}
