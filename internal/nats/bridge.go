package nats

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cnf/structhash"
	"github.com/nats-io/nats.go"

	"github.com/smazurov/lightnode/internal/command"
	"github.com/smazurov/lightnode/internal/display"
	"github.com/smazurov/lightnode/internal/events"
)

// Runner is the part of display.Runner the bridge drives.
type Runner interface {
	Submit(cmd command.Command) error
	State() display.State
}

// Bridge connects a node to NATS: inbound subjects become commands for the
// runner, and state changes from the event bus are published as snapshots.
type Bridge struct {
	url       string
	node      string
	runner    Runner
	eventBus  *events.Bus
	discovery DiscoveryMessage
	logger    *slog.Logger

	mu       sync.Mutex
	conn     *nats.Conn
	subs     []*nats.Subscription
	unsub    func()
	lastHash []byte

	done chan struct{}
	wg   sync.WaitGroup
}

// NewBridge creates a bridge for node. Nothing connects before Start.
func NewBridge(url, node string, runner Runner, eventBus *events.Bus, discovery DiscoveryMessage, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		url:       url,
		node:      node,
		runner:    runner,
		eventBus:  eventBus,
		discovery: discovery,
		logger:    logger.With("component", "nats-bridge"),
	}
}

// Start connects to NATS, subscribes to the inbound subjects and announces
// the node.
func (b *Bridge) Start() error {
	if err := b.connect(); err != nil {
		return err
	}
	b.announce()
	return nil
}

func (b *Bridge) connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn, err := nats.Connect(b.url,
		nats.Name("lightnode-"+b.node),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				b.logger.Warn("NATS bridge disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			b.logger.Info("NATS bridge reconnected")
			b.announce()
		}),
	)
	if err != nil {
		return err
	}

	b.conn = conn
	b.logger.Info("NATS bridge connected", "url", redact(b.url), "node", b.node)

	for _, topic := range InboundTopics {
		sub, err := conn.Subscribe(SubjectTopic(b.node, topic), b.handler(topic))
		if err != nil {
			b.cleanup()
			return err
		}
		b.subs = append(b.subs, sub)
	}

	b.done = make(chan struct{})
	if b.eventBus != nil {
		ch := make(chan events.Event, 32)
		b.unsub = b.eventBus.SubscribeState(ch)
		b.wg.Add(1)
		go b.forwardState(ch, b.done)
	}

	b.logger.Info("NATS bridge subscribed", "subjects", len(b.subs))
	return nil
}

// handler decodes a payload for topic and submits the resulting commands.
// Requests get a Reply, and every rejection is reported on the rejected
// subject.
func (b *Bridge) handler(topic command.Topic) nats.MsgHandler {
	return func(msg *nats.Msg) {
		cmds, err := decode(topic, msg.Data)
		if err == nil {
			err = b.submit(cmds)
		}

		reply := Reply{OK: err == nil}
		for _, c := range cmds {
			reply.Commands = append(reply.Commands, c.String())
		}
		if err != nil {
			reply.Error = err.Error()
			b.logger.Warn("Rejected command", "subject", msg.Subject, "payload", string(msg.Data), "error", err)
			b.publishJSON(SubjectRejected(b.node), RejectedMessage{
				Node:      b.node,
				Timestamp: timestamp(),
				Subject:   msg.Subject,
				Payload:   string(msg.Data),
				Error:     err.Error(),
			})
		} else {
			b.logger.Debug("Accepted command", "subject", msg.Subject, "commands", reply.Commands)
		}

		if msg.Reply != "" {
			if data, mErr := reply.Marshal(); mErr == nil {
				if rErr := msg.Respond(data); rErr != nil {
					b.logger.Warn("Failed to send reply", "error", rErr)
				}
			}
		}
	}
}

func decode(topic command.Topic, data []byte) ([]command.Command, error) {
	if topic == command.TopicJSON {
		return command.ParseJSON(data)
	}
	cmd, err := command.ParseTopic(topic, data)
	if err != nil {
		return nil, err
	}
	return []command.Command{cmd}, nil
}

// submit queues cmds in order and stops at the first rejection.
func (b *Bridge) submit(cmds []command.Command) error {
	for _, cmd := range cmds {
		if err := b.runner.Submit(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) forwardState(ch <-chan events.Event, done <-chan struct{}) {
	defer b.wg.Done()
	for {
		select {
		case <-done:
			return
		case <-ch:
			b.PublishState()
		}
	}
}

// PublishState publishes the runner's current snapshot unless it equals
// the last one published.
func (b *Bridge) PublishState() {
	msg := NewStateMessage(b.node, b.runner.State())
	hash := structhash.Md5(msg, 1)

	b.mu.Lock()
	if bytes.Equal(hash, b.lastHash) {
		b.mu.Unlock()
		return
	}
	b.lastHash = hash
	b.mu.Unlock()

	msg.Timestamp = timestamp()
	b.publishJSON(SubjectState(b.node), msg)
}

// announce publishes discovery followed by a fresh state snapshot.
func (b *Bridge) announce() {
	d := b.discovery
	d.Timestamp = timestamp()
	b.publishJSON(SubjectDiscovery(b.node), d)

	b.mu.Lock()
	b.lastHash = nil
	b.mu.Unlock()
	b.PublishState()
}

type marshaler interface {
	Marshal() ([]byte, error)
}

func (b *Bridge) publishJSON(subject string, m marshaler) {
	data, err := m.Marshal()
	if err != nil {
		b.logger.Warn("Failed to marshal message", "subject", subject, "error", err)
		return
	}
	if err := b.publish(subject, data); err != nil {
		b.logger.Debug("Failed to publish", "subject", subject, "error", err)
	}
}

func (b *Bridge) publish(subject string, data []byte) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return errNotConnected
	}
	return conn.Publish(subject, data)
}

var errNotConnected = errors.New("not connected to NATS")

// cleanup unsubscribes and closes the connection. Caller holds mu.
func (b *Bridge) cleanup() {
	for _, sub := range b.subs {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Debug("Failed to unsubscribe", "subject", sub.Subject, "error", err)
		}
	}
	b.subs = nil

	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
}

// Stop publishes the final state, withdraws the discovery document,
// unsubscribes and disconnects.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
	done := b.done
	b.done = nil
	b.mu.Unlock()

	if done != nil {
		close(done)
		b.wg.Wait()
	}
	b.PublishState()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		if err := b.conn.Publish(SubjectDiscovery(b.node), nil); err != nil {
			b.logger.Debug("Failed to clear discovery", "error", err)
		}
		if err := b.conn.Flush(); err != nil {
			b.logger.Debug("Failed to flush", "error", err)
		}
	}
	b.cleanup()
	b.logger.Info("NATS bridge stopped")
}

// IsConnected returns true if connected to NATS.
func (b *Bridge) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && b.conn.IsConnected()
}
