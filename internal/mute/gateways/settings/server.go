// Package settings exposes the engine's cleanup queries to the settings
// surface over a line-delimited JSON TCP endpoint.
package settings

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/haukened/rr-mute/internal/mute/common/log"
	"github.com/haukened/rr-mute/internal/mute/gateways/msg"
)

// Cleaner is the settings surface's view of the filter engine.
type Cleaner interface {
	Location() string
	CleanupUsers() ([]string, error)
	CleanupKeywords() []string
	CleanupSubreddits() []string
}

// Server accepts settings-surface connections and answers cleanup requests.
// Every request is gated on the observed page being on the configured site
// host; off-site requests are refused with a 400.
type Server struct {
	addr     string
	siteHost string
	cleaner  Cleaner
	logger   log.Logger

	// Synchronization for graceful shutdown
	mu      sync.Mutex
	running bool
	ln      net.Listener
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewServer creates a settings endpoint bound to addr, gating on siteHost.
func NewServer(addr, siteHost string, cleaner Cleaner, logger log.Logger) *Server {
	return &Server{
		addr:     addr,
		siteHost: siteHost,
		cleaner:  cleaner,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start binds the listener and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("settings endpoint already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.ln = ln
	s.running = true

	s.logger.Info(map[string]any{
		"address": ln.Addr().String(),
		"site":    s.siteHost,
	}, "settings endpoint started")

	go s.acceptLoop(ctx)

	return nil
}

// Stop closes the listener and waits for in-flight connections to finish.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	closeErr := s.ln.Close()
	s.mu.Unlock()

	s.wg.Wait()

	s.logger.Info(map[string]any{
		"address": s.addr,
	}, "settings endpoint stopped")

	return closeErr
}

// Addr returns the bound listener address, or the configured address before
// Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			default:
			}
			s.logger.Warn(map[string]any{
				"error": err.Error(),
			}, "settings accept failed")
			continue
		}

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

// serveConn answers request lines until the peer disconnects or the server
// stops.
func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		select {
		case <-s.stopCh:
			return
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		resp := s.handle(line)
		out, err := msg.Encode(resp)
		if err != nil {
			s.logger.Error(map[string]any{
				"error": err.Error(),
			}, "settings response encoding failed")
			return
		}
		if _, err := conn.Write(out); err != nil {
			s.logger.Debug(map[string]any{
				"error": err.Error(),
			}, "settings response write failed")
			return
		}
	}
}

// handle resolves one request line into a response.
func (s *Server) handle(line []byte) msg.Response {
	req, err := msg.ParseRequest(line)
	if err != nil {
		return msg.BadRequest(err.Error())
	}

	if !s.onSite() {
		s.logger.Debug(map[string]any{
			"action": req.Action,
			"site":   s.siteHost,
		}, "settings request refused off-site")
		return msg.BadRequest("not on " + s.siteHost)
	}

	var resp msg.Response
	switch req.Action {
	case msg.ActionCleanupUsers:
		users, err := s.cleaner.CleanupUsers()
		if err != nil {
			resp = msg.BadRequest(err.Error())
		} else {
			resp = msg.OKUsers(users)
		}
	case msg.ActionCleanupKeywords:
		resp = msg.OKKeywords(s.cleaner.CleanupKeywords())
	case msg.ActionCleanupSubreddits:
		resp = msg.OKCommunities(s.cleaner.CleanupSubreddits())
	default:
		resp = msg.BadRequest("unsupported action: " + req.Action)
	}

	s.logger.Debug(map[string]any{
		"action": req.Action,
		"status": resp.Status,
	}, "settings request handled")

	return resp
}

// onSite reports whether the observed page is on the gated site host.
func (s *Server) onSite() bool {
	u, err := url.Parse(s.cleaner.Location())
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), s.siteHost)
}
