package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/appy-one/acebase-ipc-server/pkg/ipc/core"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

// maxSidebandBody bounds the untrusted POST /send request body
// (SPEC_FULL.md §9 open question: the original source reads an
// unbounded body; this implementation caps it instead).
const maxSidebandBody = 8 << 20 // 8 MiB

type clientInfo struct {
	ID        string `json:"id"`
	Connected int64  `json:"connected"`
}

// handleClients serves GET /{group}/clients. No authentication is
// required: it is operator introspection (SPEC_FULL.md §4.F).
func (l *Listener) handleClients(w http.ResponseWriter, r *http.Request, group, requestID string) {
	l.log.Debugf("[%s] clients group=%s", requestID, group)

	if r.Method != http.MethodGet {
		http.Error(w, reasonPhrase(types.ErrMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	peers := l.registry.List(group)
	out := make([]clientInfo, 0, len(peers))
	for _, p := range peers {
		out = append(out, clientInfo{ID: p.ID, Connected: p.ConnectedAt.UnixMilli()})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// handleSend serves both the POST and development-only GET forms of
// /{group}/send (SPEC_FULL.md §4.F).
func (l *Listener) handleSend(w http.ResponseWriter, r *http.Request, group, requestID string) {
	id := r.URL.Query().Get("id")
	l.log.Debugf("[%s] send group=%s id=%s method=%s", requestID, group, id, r.Method)

	if !l.checkToken(r) {
		http.Error(w, reasonPhrase(types.ErrUnauthorized), http.StatusUnauthorized)
		return
	}

	var frame []byte
	switch r.Method {
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxSidebandBody)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "request entity too large", http.StatusRequestEntityTooLarge)
			return
		}
		frame = body
	case http.MethodGet:
		if !l.cfg.DevMode {
			http.Error(w, reasonPhrase(types.ErrMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		frame = []byte(r.URL.Query().Get("msg"))
	default:
		http.Error(w, reasonPhrase(types.ErrMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	peer, ok := l.registry.FindByID(group, id)
	if !ok {
		http.Error(w, reasonPhrase(types.ErrUnauthorized), http.StatusUnauthorized)
		return
	}

	l.router.HandleIncoming(frame, core.PeerSender(peer))

	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

// handleReceive serves GET /{group}/receive, retrieving and removing
// a previously spilled large message (SPEC_FULL.md §4.F).
func (l *Listener) handleReceive(w http.ResponseWriter, r *http.Request, group, requestID string) {
	slotID := r.URL.Query().Get("msg")
	l.log.Debugf("[%s] receive group=%s slot=%s", requestID, group, slotID)

	if r.Method != http.MethodGet {
		http.Error(w, reasonPhrase(types.ErrMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if !l.checkToken(r) {
		http.Error(w, reasonPhrase(types.ErrUnauthorized), http.StatusUnauthorized)
		return
	}

	payload, ok := l.store.Take(slotID)
	if !ok {
		http.Error(w, reasonPhrase(types.ErrSlotNotFound), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(payload)
}
