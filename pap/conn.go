package pap

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Dialer opens the byte stream a session runs over. *net.Dialer and
// *SSHDialer both satisfy it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Address joins host and port into a dialable address.
func Address(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Open establishes a connection to address, bounded by timeout.
// Timeouts, refusals and resolution failures all surface as
// ErrConnectFailure.
func Open(ctx context.Context, dialer Dialer, address string, timeout time.Duration) (net.Conn, error) {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &Error{Kind: ErrConnectFailure, Op: "connect", Message: address, Err: err}
	}
	return conn, nil
}

// session is one connection and the single operation it carries. It is
// owned by the Client call that created it and closed exactly once.
type session struct {
	id   string
	conn net.Conn
	rw   io.ReadWriter

	codec     *Codec
	config    *Config
	callbacks *Callbacks
	logger    Logger

	mu    sync.Mutex
	state State

	closeOnce    sync.Once
	stopWatch    func() bool
	deadlineOnce sync.Once
}

// openSession dials the peer and returns a session in StateConnecting.
// Cancelling ctx after this point closes the connection, which the
// in-flight read or write reports as ErrConnectionClosed.
func (c *Client) openSession(ctx context.Context) (*session, error) {
	id := uuid.NewString()
	logger := sessionLog{id: id[:8], logger: c.logger}

	logger.Info("connecting to %s (timeout %v)", c.address, c.config.ConnectTimeout)
	conn, err := Open(ctx, c.dialer, c.address, c.config.ConnectTimeout)
	if err != nil {
		logger.Error("connect failed: %v", err)
		return nil, err
	}
	logger.Info("connected %s -> %s", conn.LocalAddr(), conn.RemoteAddr())

	s := &session{
		id:        id,
		conn:      conn,
		rw:        conn,
		codec:     c.codec,
		config:    c.config,
		callbacks: c.callbacks,
		logger:    logger,
		state:     StateConnecting,
	}
	if _, noop := c.logger.(NoopLogger); !noop {
		s.rw = logger.trace(conn)
	}
	s.stopWatch = context.AfterFunc(ctx, func() {
		logger.Info("context done, closing connection")
		conn.Close()
	})
	return s, nil
}

// Read applies the configured read deadline and reads from the peer.
func (s *session) Read(p []byte) (int, error) {
	if s.config.ReadTimeout > 0 {
		s.checkDeadline(s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout)))
	}
	return s.rw.Read(p)
}

// Write applies the configured write deadline and writes to the peer.
func (s *session) Write(p []byte) (int, error) {
	if s.config.WriteTimeout > 0 {
		s.checkDeadline(s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout)))
	}
	return s.rw.Write(p)
}

// checkDeadline notes, once per session, that the transport ignores
// deadlines. SSH channels are one such transport; I/O then blocks until
// the peer acts or the context ends.
func (s *session) checkDeadline(err error) {
	if err == nil {
		return
	}
	s.deadlineOnce.Do(func() {
		s.logger.Debug("deadlines not supported by transport, timeouts disabled: %v", err)
	})
}

// writeByte sends a single control byte (unlock or mode selector).
func (s *session) writeByte(b byte, op string) error {
	if _, err := s.Write([]byte{b}); err != nil {
		return ioError(op, err)
	}
	return nil
}

// writeFrame sends a frame and reports it to OnEvent.
func (s *session) writeFrame(payload []byte, op string) error {
	if err := s.codec.WriteFrame(s, payload); err != nil {
		if e, ok := err.(*Error); ok && e.Op == "write frame" {
			e.Op = op
		}
		return err
	}
	s.emit(EventFrameSent, frameSummary("sent", payload))
	return nil
}

// State returns the current protocol state.
func (s *session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// transition advances the state machine; moving backwards is a bug.
func (s *session) transition(next State) {
	s.mu.Lock()
	prev := s.state
	if !prev.canTransition(next) {
		s.mu.Unlock()
		panic(fmt.Sprintf("pap: invalid state transition %s -> %s", prev, next))
	}
	s.state = next
	s.mu.Unlock()

	s.logger.Debug("state %s -> %s", prev, next)
	s.emit(EventStateChanged, fmt.Sprintf("%s -> %s", prev, next))
}

func (s *session) emit(t EventType, msg string) {
	s.callbacks.OnEvent(Event{
		Type:      t,
		Message:   msg,
		State:     s.State(),
		Timestamp: time.Now(),
	})
}

// Close releases the connection. Only the first call has any effect.
func (s *session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.stopWatch != nil {
			s.stopWatch()
		}
		err = s.conn.Close()
		s.transition(StateClosed)
		s.logger.Info("connection closed")
	})
	return err
}
