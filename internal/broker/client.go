package broker

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix is the root of the spot feed subject space. Per-band
// subjects hang off it as <prefix>.<band>.spot.
const SubjectPrefix = "pskr.filter.v2"

// Subject returns the feed subject for one band.
func Subject(band string) string {
	return fmt.Sprintf("%s.%s.spot", SubjectPrefix, band)
}

// Client wraps the NATS connection used for the spot feed. The connection
// retries forever with backoff; a lost link flips the degraded flag instead
// of failing the process.
type Client struct {
	conn     *nats.Conn
	logger   *slog.Logger
	degraded atomic.Bool
}

// New connects to the broker. The initial connect also retries, so a broker
// that is briefly down at boot does not kill the daemon.
func New(url string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{logger: logger}

	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.degraded.Store(true)
			c.logger.Warn("broker connection lost", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.degraded.Store(false)
			c.logger.Info("broker reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			c.degraded.Store(true)
			c.logger.Warn("broker connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	c.conn = conn
	return c, nil
}

// Subscription is the handle returned by Subscribe; *nats.Subscription
// satisfies it, fakes in tests do too.
type Subscription interface {
	Unsubscribe() error
}

// Subscribe registers a handler for raw messages on one subject and returns
// the live subscription so the caller can drop it later.
func (c *Client) Subscribe(subject string, handler func(data []byte)) (Subscription, error) {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return sub, nil
}

// Publish sends a payload on a subject. Used by the synthetic feed
// generator; the daemon itself only consumes.
func (c *Client) Publish(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Degraded reports whether the broker link is currently down. Buffered data
// stays valid; only freshness suffers.
func (c *Client) Degraded() bool {
	return c.degraded.Load()
}

// Close drains and closes the connection.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
