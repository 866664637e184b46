package ipc

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/IshuSinghSE/mirage/internal/models"
)

// maxStatusLen bounds a snapshot read. Generous for any realistic
// device count.
const maxStatusLen = 1 << 20

// StatusServer is the tray-side listener: each connection delivers one
// JSON status snapshot.
type StatusServer struct {
	path     string
	ln       net.Listener
	handler  func(models.StatusSnapshot)
	stopOnce sync.Once
	stopping bool
	mu       sync.Mutex
}

// ListenStatus binds the tray socket and starts delivering snapshots to
// the handler.
func ListenStatus(path string, handler func(models.StatusSnapshot)) (*StatusServer, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove stale socket %s: %w", path, err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", path, err)
	}

	s := &StatusServer{path: path, ln: ln, handler: handler}
	go s.acceptLoop()
	return s, nil
}

func (s *StatusServer) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			s.mu.Lock()
			stopping := s.stopping
			s.mu.Unlock()
			if stopping {
				return
			}
			log.Printf("[ipc] status accept failed: %v", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *StatusServer) handleConn(conn net.Conn) {
	defer conn.Close()

	payload, err := io.ReadAll(io.LimitReader(conn, maxStatusLen))
	if err != nil || len(payload) == 0 {
		return
	}

	var snapshot models.StatusSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		log.Printf("[ipc] discarding malformed status: %v", err)
		return
	}
	s.handler(snapshot)
}

// Close stops accepting and unlinks the socket. Safe to call more than
// once.
func (s *StatusServer) Close() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopping = true
		s.mu.Unlock()
		s.ln.Close()
		os.Remove(s.path)
	})
}
