package transport

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/appy-one/acebase-ipc-server/pkg/ipc/core"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/registry"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/store"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

// Listener is the HTTP handler serving both the streaming-transport
// upgrade and the HTTP sideband (SPEC_FULL.md §4.F).
type Listener struct {
	cfg      types.Config
	registry *registry.Registry
	store    *store.Store
	router   *core.Router
	log      types.Logger
	upgrader websocket.Upgrader
}

// NewListener builds a Listener over the given registry, store, and
// router. All three are owned by the caller (the Server) and shared
// across every request this Listener serves.
func NewListener(cfg types.Config, reg *registry.Registry, st *store.Store, router *core.Router, log types.Logger) *Listener {
	return &Listener{
		cfg:      cfg,
		registry: reg,
		store:    st,
		router:   router,
		log:      log,
		upgrader: websocket.Upgrader{
			// Peers are arbitrary local processes, not browsers; the
			// origin check that matters is the pre-shared token, not
			// the WebSocket origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler. Path grammar is exactly
// /{group}/{connect,clients,send,receive} — a hand-rolled switch over
// a trimmed, split path is simpler here than pulling in a router
// library for four fixed suffixes.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) != 2 || segments[0] == "" {
		http.NotFound(w, r)
		return
	}
	group, action := segments[0], segments[1]

	switch action {
	case "connect":
		l.handleConnect(w, r, group, requestID)
	case "clients":
		l.handleClients(w, r, group, requestID)
	case "send":
		l.handleSend(w, r, group, requestID)
	case "receive":
		l.handleReceive(w, r, group, requestID)
	default:
		l.log.Debugf("[%s] unknown sideband action %q on group %s", requestID, action, group)
		http.NotFound(w, r)
	}
}

// checkToken reports whether the request satisfies the configured
// token, and is always true when no token is configured
// (SPEC_FULL.md §3: "If present, required as query parameter t").
func (l *Listener) checkToken(r *http.Request) bool {
	if l.cfg.Token == "" {
		return true
	}
	return r.URL.Query().Get("t") == l.cfg.Token
}
