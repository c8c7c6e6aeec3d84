package nats

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// maxPayload bounds one message. Commands and state snapshots are a few
// hundred bytes; the discovery document is the largest payload.
const maxPayload = 16 * 1024

// Role decides what a user of the embedded server may publish and
// subscribe to.
type Role int

const (
	// RoleNode is the bridge itself: it reads commands and publishes state.
	RoleNode Role = iota
	// RoleController sends commands and reads everything the node publishes.
	RoleController
	// RoleObserver only reads what the node publishes.
	RoleObserver
)

func (r Role) String() string {
	switch r {
	case RoleNode:
		return "node"
	case RoleController:
		return "controller"
	case RoleObserver:
		return "observer"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// ServerUser is one account on the embedded server.
type ServerUser struct {
	Name     string
	Password string
	Role     Role
}

// ServerOptions configures the embedded NATS server. Without Users the
// server accepts anonymous clients with no subject restrictions.
type ServerOptions struct {
	Port   int
	Host   string
	Node   string
	Users  []ServerUser
	Logger *slog.Logger
}

// DefaultServerOptions returns the embedded server defaults: loopback only
// on the standard client port.
func DefaultServerOptions() ServerOptions {
	return ServerOptions{
		Port: 4222,
		Host: "127.0.0.1",
		Node: "lightnode",
	}
}

// Server is an embedded NATS server so a single node works without an
// external broker. It only carries the node's own subjects.
type Server struct {
	ns     *server.Server
	opts   ServerOptions
	logger *slog.Logger
}

// NewServer creates a new embedded NATS server.
func NewServer(opts ServerOptions) *Server {
	def := DefaultServerOptions()
	if opts.Port == 0 {
		opts.Port = def.Port
	}
	if opts.Host == "" {
		opts.Host = def.Host
	}
	if opts.Node == "" {
		opts.Node = def.Node
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		opts:   opts,
		logger: logger.With("component", "nats-server"),
	}
}

// Permissions returns the subject permissions of role on node's subjects.
// Request replies travel on _INBOX subjects, so requesters subscribe there
// and the node publishes there.
func Permissions(node string, role Role) *server.Permissions {
	inbound := make([]string, 0, len(InboundTopics))
	for _, t := range InboundTopics {
		inbound = append(inbound, SubjectTopic(node, t))
	}
	outbound := []string{SubjectState(node), SubjectDiscovery(node), SubjectRejected(node)}
	all := Subject(node, ">")

	switch role {
	case RoleNode:
		return &server.Permissions{
			Publish:   &server.SubjectPermission{Allow: append(outbound, "_INBOX.>")},
			Subscribe: &server.SubjectPermission{Allow: inbound},
		}
	case RoleController:
		return &server.Permissions{
			Publish:   &server.SubjectPermission{Allow: inbound},
			Subscribe: &server.SubjectPermission{Allow: []string{all, "_INBOX.>"}},
		}
	default:
		return &server.Permissions{
			Publish:   &server.SubjectPermission{Deny: []string{">"}},
			Subscribe: &server.SubjectPermission{Allow: []string{all}},
		}
	}
}

func (s *Server) options() (*server.Options, error) {
	nsOpts := &server.Options{
		Host:           s.opts.Host,
		Port:           s.opts.Port,
		ServerName:     "lightnode-" + s.opts.Node,
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 4096,
		MaxPayload:     maxPayload,
	}

	seen := make(map[string]bool, len(s.opts.Users))
	for _, u := range s.opts.Users {
		if u.Name == "" || u.Password == "" {
			return nil, fmt.Errorf("NATS user %q needs a name and a password", u.Name)
		}
		if seen[u.Name] {
			return nil, fmt.Errorf("duplicate NATS user %q", u.Name)
		}
		seen[u.Name] = true
		nsOpts.Users = append(nsOpts.Users, &server.User{
			Username:    u.Name,
			Password:    u.Password,
			Permissions: Permissions(s.opts.Node, u.Role),
		})
	}
	return nsOpts, nil
}

// Start starts the embedded NATS server and waits for it to be ready.
func (s *Server) Start() error {
	nsOpts, err := s.options()
	if err != nil {
		return err
	}

	ns, err := server.NewServer(nsOpts)
	if err != nil {
		return fmt.Errorf("failed to create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return errors.New("NATS server failed to start within 5 seconds")
	}

	s.ns = ns
	s.logger.Info("NATS server started", "url", s.ClientURL(), "node", s.opts.Node, "users", len(nsOpts.Users))

	return nil
}

// Stop gracefully shuts down the NATS server.
func (s *Server) Stop() {
	if s.ns != nil {
		s.logger.Info("Stopping NATS server")
		s.ns.Shutdown()
		s.ns.WaitForShutdown()
		s.ns = nil
	}
}

// ClientURL returns the URL clients should use to connect.
func (s *Server) ClientURL() string {
	if s.ns == nil {
		return fmt.Sprintf("nats://%s:%d", s.opts.Host, s.opts.Port)
	}
	return s.ns.ClientURL()
}

// IsRunning returns true if the server is running and accepting connections.
func (s *Server) IsRunning() bool {
	return s.ns != nil && s.ns.Running()
}

// NumClients returns the number of connected clients.
func (s *Server) NumClients() int {
	if s.ns == nil {
		return 0
	}
	return s.ns.NumClients()
}
