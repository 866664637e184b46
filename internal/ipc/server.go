package ipc

import (
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"
)

const (
	readDeadline = time.Second
	// acceptGranularity bounds each Accept call so the loop notices a
	// shutdown request promptly.
	acceptGranularity = time.Second
)

// maxCommandLen bounds a single command read. Anything longer is not a
// command we speak.
const maxCommandLen = 512

// Server accepts commands on a unix socket and hands them to a handler.
// Malformed or oversized input is dropped, never fatal.
type Server struct {
	path     string
	ln       *net.UnixListener
	handler  func(Command)
	stopOnce sync.Once
	stopping bool
	mu       sync.Mutex
}

// ListenCommands binds the socket, unlinking any stale file left by a
// previous run, and starts the accept loop.
func ListenCommands(path string, handler func(Command)) (*Server, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove stale socket %s: %w", path, err)
	}

	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", path, err)
	}

	s := &Server{path: path, ln: ln, handler: handler}
	go s.acceptLoop()
	return s, nil
}

func (s *Server) acceptLoop() {
	for {
		s.mu.Lock()
		stopping := s.stopping
		s.mu.Unlock()
		if stopping {
			return
		}

		s.ln.SetDeadline(time.Now().Add(acceptGranularity))
		conn, err := s.ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			s.mu.Lock()
			stopping := s.stopping
			s.mu.Unlock()
			if stopping {
				return
			}
			log.Printf("[ipc] accept failed: %v", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return
	}

	buf := make([]byte, maxCommandLen)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		return
	}

	cmd := ParseCommand(string(buf[:n]))
	if cmd.Name == "" {
		return
	}
	s.handler(cmd)
}

// Close stops accepting and unlinks the socket. Safe to call more than
// once.
func (s *Server) Close() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopping = true
		s.mu.Unlock()
		s.ln.Close()
		os.Remove(s.path)
	})
}
