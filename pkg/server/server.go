// Package server implements the TCP front of the bridge: the accept loop,
// per-connection line handling, and the handoff of every parsed command to
// the executor. Each connection gets its own goroutine; the graph never does.
package server

import (
	"bufio"
	"bytes"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/denizumutdereli/nukebridge/pkg/core"
	"github.com/denizumutdereli/nukebridge/pkg/executor"
	"github.com/denizumutdereli/nukebridge/pkg/lifecycle"
	"github.com/denizumutdereli/nukebridge/pkg/protocol"
	"github.com/denizumutdereli/nukebridge/pkg/registry"
	"github.com/google/uuid"
)

// Server accepts bridge clients and pumps their commands through the
// executor. All dependencies are injected; the server owns only sockets.
type Server struct {
	addr         string
	maxConns     int
	maxLineBytes int

	reg  *registry.Registry
	exec *executor.MainThread
	lm   *lifecycle.Manager

	ln      net.Listener
	running atomic.Bool

	mu    sync.Mutex
	conns map[string]net.Conn

	sem chan struct{}
	wg  sync.WaitGroup

	// Stats
	totalConns    uint64
	totalCommands uint64
}

// New creates a server. The lifecycle manager may be nil when connection
// aging is not wanted (tests mostly).
func New(cfg core.ServerConfig, reg *registry.Registry, exec *executor.MainThread, lm *lifecycle.Manager) *Server {
	return &Server{
		addr:         cfg.ListenAddr,
		maxConns:     cfg.MaxConnections,
		maxLineBytes: cfg.MaxLineBytes,
		reg:          reg,
		exec:         exec,
		lm:           lm,
		conns:        make(map[string]net.Conn),
		sem:          make(chan struct{}, cfg.MaxConnections),
	}
}

// Start binds the listener and begins accepting clients. Returns
// ErrServerRunning when already started.
func (s *Server) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return core.ErrServerRunning
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return err
	}
	s.ln = ln

	log.Printf("bridge listening on %s", ln.Addr())
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listen address, useful when started on port 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			log.Printf("accept error: %v", err)
			continue
		}

		if !s.running.Load() {
			conn.Close()
			return
		}

		select {
		case s.sem <- struct{}{}:
		default:
			// At capacity: answer with a one-line failure instead of
			// silently hanging the client in the backlog.
			resp, _ := protocol.Failure(core.ErrTooManyConnections.Error()).Encode()
			conn.Write(append(resp, '\n'))
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	id := uuid.NewString()

	s.mu.Lock()
	s.conns[id] = conn
	s.totalConns++
	s.mu.Unlock()

	if s.lm != nil {
		s.lm.Register(id, conn.RemoteAddr().String())
	}
	log.Printf("client connected: %s (%s)", id, conn.RemoteAddr())

	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
		if s.lm != nil {
			s.lm.Remove(id)
		}
		<-s.sem
		s.wg.Done()
		log.Printf("client disconnected: %s", id)
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), s.maxLineBytes)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		cmd, err := protocol.ParseCommand(line)
		if err != nil {
			// Malformed input answers in-band; the connection stays open.
			if werr := s.writeResponse(conn, protocol.Failure("Invalid JSON: "+err.Error())); werr != nil {
				return
			}
			continue
		}

		if s.lm != nil {
			s.lm.RecordActivity(id)
		}
		s.mu.Lock()
		s.totalCommands++
		s.mu.Unlock()

		resp := s.exec.Submit(func() protocol.Response {
			return s.reg.Dispatch(cmd.Type, cmd.Args)
		})

		if err := s.writeResponse(conn, resp); err != nil {
			log.Printf("write error on %s: %v", id, err)
			return
		}
	}
}

func (s *Server) writeResponse(conn net.Conn, resp protocol.Response) error {
	data, err := resp.Encode()
	if err != nil {
		data, _ = protocol.Failure("response encoding failed").Encode()
	}
	_, err = conn.Write(append(data, '\n'))
	return err
}

// CloseConn force-closes one tracked connection, by ID. Used by the reap
// daemon for stale connections.
func (s *Server) CloseConn(id string) error {
	s.mu.Lock()
	conn, ok := s.conns[id]
	s.mu.Unlock()

	if !ok {
		return core.ErrConnNotFound
	}
	return conn.Close()
}

// ConnCount returns the number of live connections.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Stop shuts the server down: stops accepting, closes every live connection
// and waits for the handlers to drain. Idempotent.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	// A short self-connect unblocks an accept that predates the flag flip.
	if conn, err := net.DialTimeout("tcp", s.ln.Addr().String(), time.Second); err == nil {
		conn.Close()
	}
	s.ln.Close()

	s.mu.Lock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	log.Printf("bridge stopped")
	return nil
}

// Stats returns server statistics.
func (s *Server) Stats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"running":          s.running.Load(),
		"live_connections": len(s.conns),
		"total_conns":      s.totalConns,
		"total_commands":   s.totalCommands,
		"max_connections":  s.maxConns,
		"listen_addr":      s.addr,
	}
}
