// Package server wires the frame codec, large-message store, group
// registry, router, and transport listener into a single runnable
// process (SPEC_FULL.md §4.G).
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/appy-one/acebase-ipc-server/pkg/ipc/core"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/registry"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/store"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/transport"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

// Server owns exactly one Group Registry and one Large-Message Store
// (SPEC_FULL.md §4.G) and is the only component that binds a socket.
type Server struct {
	cfg types.Config
	log types.Logger

	registry *registry.Registry
	store    *store.Store
	router   *core.Router
	listener *transport.Listener

	httpServer *http.Server
	boundAddr  string

	mu      sync.Mutex
	off     bool
	offDone chan struct{}
}

// New builds a Server from cfg. It performs no I/O.
func New(cfg types.Config, log types.Logger) *Server {
	reg := registry.New()
	st := store.New(log)
	router := core.NewRouter(reg, st, cfg.MaxPayload, log)
	lst := transport.NewListener(cfg, reg, st, router, log)

	return &Server{
		cfg:      cfg,
		log:      log,
		registry: reg,
		store:    st,
		router:   router,
		listener: lst,
		offDone:  make(chan struct{}),
	}
}

// Start binds the listening socket and begins serving. It resolves
// (returns nil) once the socket is bound; a bind failure is returned
// as a descriptive error and nothing is served (SPEC_FULL.md §4.G,
// §7).
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("ipc server: failed to bind %s: %w", addr, err)
	}
	s.boundAddr = ln.Addr().String()

	s.httpServer = &http.Server{Handler: s.listener}

	serve := func() error {
		if s.cfg.SSL.Enabled() && s.cfg.SSL.CertPath != "" && s.cfg.SSL.KeyPath != "" {
			return s.httpServer.ServeTLS(ln, s.cfg.SSL.CertPath, s.cfg.SSL.KeyPath)
		}
		return s.httpServer.Serve(ln)
	}

	go func() {
		if err := serve(); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("ipc server: serve loop exited: %v", err)
		}
	}()

	s.log.Infof("ipc server listening on %s", addr)
	return nil
}

// Stop closes the listener and every active session, triggering
// normal disconnect broadcasts for each, then stops the large-message
// store's background sweep. Idempotent.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.off {
		s.mu.Unlock()
		return
	}
	s.off = true
	s.mu.Unlock()
	defer close(s.offDone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.Warnf("ipc server: graceful shutdown failed, forcing close: %v", err)
			_ = s.httpServer.Close()
		}
	}

	for _, peer := range s.registry.AllPeers() {
		peer.Transport.Close()
	}

	s.store.Close()
}

// Done is closed once Stop has finished tearing the server down.
func (s *Server) Done() <-chan struct{} {
	return s.offDone
}

// Addr returns the bound "host:port" address. Valid only after Start
// has returned successfully; mainly useful for tests that bind an
// ephemeral port (Port: 0 in Config).
func (s *Server) Addr() string {
	return s.boundAddr
}
