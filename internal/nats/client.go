package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/lightnode/internal/command"
)

// AllNodes selects every node in Snoop.
const AllNodes = "*"

// Client talks to lightnode nodes from the outside: it sends command
// payloads and watches what nodes publish.
type Client struct {
	url    string
	name   string
	conn   *nats.Conn
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewClient creates a client. Nothing connects before Connect.
func NewClient(url, name string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:    url,
		name:   name,
		logger: logger.With("component", "nats-client"),
	}
}

// Connect establishes the connection, giving up after timeout.
func (c *Client) Connect(timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := nats.Connect(c.url,
		nats.Name(c.name),
		nats.Timeout(timeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				c.logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			c.logger.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connect %s: %w", redact(c.url), err)
	}
	c.conn = conn
	c.logger.Debug("Connected to NATS", "url", redact(c.url))
	return nil
}

// redact hides the password of a server URL that carries credentials.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}

// ErrNoReply is returned by Send when no node answered the request.
var ErrNoReply = errors.New("no node answered")

// Send delivers payload on the topic subject of node and waits for the
// node's reply. A rejected command is returned as an error carrying the
// node's message.
func (c *Client) Send(ctx context.Context, node string, topic command.Topic, payload []byte) (Reply, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return Reply{}, errNotConnected
	}

	msg, err := conn.RequestWithContext(ctx, SubjectTopic(node, topic), payload)
	if errors.Is(err, nats.ErrNoResponders) {
		return Reply{}, fmt.Errorf("%w on %s", ErrNoReply, SubjectTopic(node, topic))
	}
	if err != nil {
		return Reply{}, err
	}

	reply, err := UnmarshalReply(msg.Data)
	if err != nil {
		return Reply{}, fmt.Errorf("decode reply: %w", err)
	}
	if !reply.OK {
		return reply, fmt.Errorf("rejected: %s", reply.Error)
	}
	return reply, nil
}

// Observation is one message seen by Snoop.
type Observation struct {
	Subject  string
	Node     string
	Leaf     string
	Data     []byte
	Received time.Time
}

// ParseSubject splits lightnode.<node>.<leaf>. ok is false for subjects
// outside the lightnode hierarchy.
func ParseSubject(subject string) (node, leaf string, ok bool) {
	parts := strings.SplitN(subject, ".", 3)
	if len(parts) != 3 || parts[0] != SubjectPrefix {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// Snoop calls fn for every message published under node, or under every
// node for AllNodes. fn runs on the NATS delivery goroutine. The returned
// function stops the subscription.
func (c *Client) Snoop(node string, fn func(Observation)) (func() error, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return nil, errNotConnected
	}

	subject := fmt.Sprintf("%s.%s.>", SubjectPrefix, node)
	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		n, leaf, ok := ParseSubject(msg.Subject)
		if !ok {
			return
		}
		fn(Observation{
			Subject:  msg.Subject,
			Node:     n,
			Leaf:     leaf,
			Data:     msg.Data,
			Received: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, err
	}
	return sub.Unsubscribe, nil
}

// IsConnected returns true if connected to NATS.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && c.conn.IsConnected()
}

// Close closes the NATS connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
