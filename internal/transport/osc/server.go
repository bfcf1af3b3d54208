package osctransport

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/hypebeast/go-osc/osc"
)

// HandlerFunc handles one inbound OSC message.
type HandlerFunc func(msg *osc.Message)

// Args returns the message arguments as text, the form front-end commands
// take. Floats keep the shortest representation of their own precision.
func Args(msg *osc.Message) []string {
	args := make([]string, 0, len(msg.Arguments))
	for _, a := range msg.Arguments {
		switch v := a.(type) {
		case string:
			args = append(args, v)
		case int32:
			args = append(args, strconv.FormatInt(int64(v), 10))
		case int64:
			args = append(args, strconv.FormatInt(v, 10))
		case float32:
			args = append(args, strconv.FormatFloat(float64(v), 'g', -1, 32))
		case float64:
			args = append(args, strconv.FormatFloat(v, 'g', -1, 64))
		case bool:
			args = append(args, strconv.FormatBool(v))
		case []byte:
			args = append(args, string(v))
		default:
			args = append(args, fmt.Sprint(v))
		}
	}
	return args
}

// Server receives OSC messages on a UDP socket and routes them by address.
type Server struct {
	dispatcher *osc.StandardDispatcher
	logger     *slog.Logger

	mu     sync.Mutex
	conn   net.PacketConn
	closed bool
	done   chan struct{}
}

// NewServer creates a server with no routes.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		dispatcher: osc.NewStandardDispatcher(),
		logger:     logger,
	}
}

// Handle routes messages sent to address to h.
func (s *Server) Handle(address string, h HandlerFunc) error {
	if err := s.dispatcher.AddMsgHandler(address, osc.HandlerFunc(h)); err != nil {
		return fmt.Errorf("adding handler for %s: %w", address, err)
	}
	return nil
}

// Listen binds addr and serves in the background until Close.
func (s *Server) Listen(addr string) error {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.Serve(conn)
	return nil
}

// Serve reads from conn in the background until Close. A malformed packet
// does not stop the server.
func (s *Server) Serve(conn net.PacketConn) {
	s.mu.Lock()
	s.conn = conn
	s.done = make(chan struct{})
	s.mu.Unlock()

	srv := &osc.Server{Dispatcher: s.dispatcher}
	s.logger.Info("osc server listening", "addr", conn.LocalAddr().String())

	go func() {
		defer close(s.done)
		for {
			err := srv.Serve(conn)
			if s.isClosed() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Debug("osc receive error", "error", err)
		}
	}()
}

// Addr returns the bound address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Close stops the server and waits for the read loop to exit.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed || s.conn == nil {
		s.closed = true
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn, done := s.conn, s.done
	s.mu.Unlock()

	err := conn.Close()
	<-done
	return err
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
