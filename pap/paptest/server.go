// Package paptest provides an in-process PAP peer for tests.
//
// NewServer starts a reference peer that serves files from a root
// directory. NewScriptedServer hands each raw connection to a caller
// supplied function, for exercising malformed or unusual peers.
package paptest

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/drunlade/go-pap/pap"
)

// Session records what the peer saw on one connection.
type Session struct {
	Unlock   byte
	Username string
	Mode     pap.Mode
	Path     string
	Local    string
	Bytes    int64
	Err      error
}

// Server is a PAP peer listening on a loopback port.
type Server struct {
	// Addr is host:port of the listener
	Addr string
	Host string
	Port int

	// Root is the directory served by the reference peer
	Root string

	listener       net.Listener
	handler        func(net.Conn) Session
	codec          *pap.Codec
	expectUsername bool

	mu       sync.Mutex
	accepted int
	sessions []Session
	wg       sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithoutUsername makes the peer skip the username frame, matching
// clients configured with an empty username.
func WithoutUsername() Option {
	return func(s *Server) {
		s.expectUsername = false
	}
}

// NewServer starts a reference peer serving root.
func NewServer(root string, opts ...Option) *Server {
	s := newServer(opts...)
	s.Root = root
	s.handler = s.handle
	s.start()
	return s
}

// NewScriptedServer starts a peer that runs script for every connection.
// The connection is closed when script returns.
func NewScriptedServer(script func(conn net.Conn)) *Server {
	s := newServer()
	s.handler = func(conn net.Conn) Session {
		script(conn)
		return Session{}
	}
	s.start()
	return s
}

func newServer(opts ...Option) *Server {
	s := &Server{
		codec:          pap.NewCodec(pap.MaxFrameLength),
		expectUsername: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) start() {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(fmt.Sprintf("paptest: failed to listen: %v", err))
	}
	s.listener = l
	s.Addr = l.Addr().String()
	tcpAddr := l.Addr().(*net.TCPAddr)
	s.Host = tcpAddr.IP.String()
	s.Port = tcpAddr.Port

	go s.serve()
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.accepted++
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			rec := s.handler(conn)
			conn.Close()

			s.mu.Lock()
			s.sessions = append(s.sessions, rec)
			s.mu.Unlock()
		}()
	}
}

// Close stops the listener and waits for in-flight connections.
func (s *Server) Close() {
	s.listener.Close()
	s.wg.Wait()
}

// Accepted returns the number of connections accepted so far.
func (s *Server) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// Sessions returns the finished sessions in completion order.
func (s *Server) Sessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Session(nil), s.sessions...)
}

// WaitSessions blocks until n sessions have finished or five seconds pass.
func (s *Server) WaitSessions(n int) []Session {
	deadline := time.Now().Add(5 * time.Second)
	for {
		sessions := s.Sessions()
		if len(sessions) >= n || time.Now().After(deadline) {
			return sessions
		}
		time.Sleep(5 * time.Millisecond)
	}
}

var errBadUnlock = errors.New("bad or missing unlock signal")

func (s *Server) handle(conn net.Conn) (rec Session) {
	var b [1]byte
	if _, err := io.ReadFull(conn, b[:]); err != nil || b[0] != pap.DefaultUnlockSignal {
		rec.Unlock = b[0]
		rec.Err = errBadUnlock
		return rec
	}
	rec.Unlock = b[0]

	if s.expectUsername {
		name, err := s.codec.ReadFrame(conn)
		if err != nil {
			rec.Err = err
			return rec
		}
		rec.Username = string(name)
	}

	if _, err := io.ReadFull(conn, b[:]); err != nil {
		rec.Err = err
		return rec
	}
	rec.Mode = pap.Mode(b[0])

	p, err := s.codec.ReadFrame(conn)
	if err != nil {
		rec.Err = err
		return rec
	}
	rec.Path = string(p)
	rec.Local = s.resolve(rec.Username, rec.Path)

	switch rec.Mode {
	case pap.ModeDownload:
		rec.Bytes, rec.Err = s.sendFile(conn, rec.Local)
	case pap.ModeUpload:
		rec.Bytes, rec.Err = s.receiveFile(conn, rec.Local)
	case pap.ModeList:
		rec.Err = s.sendListing(conn, rec.Local)
	default:
		rec.Err = fmt.Errorf("unknown mode byte 0x%02x", b[0])
	}
	return rec
}

// resolve maps a protocol path into Root. "~" expands to home/<username>
// and nothing resolves outside Root.
func (s *Server) resolve(username, p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		p = path.Join("/home", username, strings.TrimPrefix(p, "~"))
	}
	return filepath.Join(s.Root, filepath.FromSlash(path.Clean("/"+p)))
}

func writeStatus(conn net.Conn, ok bool) error {
	status := byte(pap.StatusOK)
	if !ok {
		status = 0x01
	}
	_, err := conn.Write([]byte{status})
	return err
}

func (s *Server) sendFile(conn net.Conn, local string) (int64, error) {
	f, err := os.Open(local)
	if err == nil {
		var info os.FileInfo
		if info, err = f.Stat(); err == nil && info.IsDir() {
			err = fmt.Errorf("%s is a directory", local)
		}
		if err != nil {
			f.Close()
		}
	}
	if err != nil {
		writeStatus(conn, false)
		return 0, err
	}
	defer f.Close()

	if err := writeStatus(conn, true); err != nil {
		return 0, err
	}
	if err := s.codec.WriteFrame(conn, []byte(filepath.Base(local))); err != nil {
		return 0, err
	}
	n, err := io.Copy(conn, f)
	if err != nil {
		return n, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.CloseWrite()
	}
	return n, nil
}

func (s *Server) receiveFile(conn net.Conn, local string) (int64, error) {
	var f *os.File
	err := os.MkdirAll(filepath.Dir(local), 0755)
	if err == nil {
		f, err = os.Create(local)
	}
	if err != nil {
		writeStatus(conn, false)
		return 0, err
	}
	defer f.Close()

	if err := writeStatus(conn, true); err != nil {
		return 0, err
	}
	return io.Copy(f, conn)
}

func (s *Server) sendListing(conn net.Conn, local string) error {
	entries, err := os.ReadDir(local)
	if err != nil {
		writeStatus(conn, false)
		return err
	}

	if err := writeStatus(conn, true); err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		if err := s.codec.WriteFrame(conn, []byte(name)); err != nil {
			return err
		}
	}
	return s.codec.WriteSentinel(conn)
}
