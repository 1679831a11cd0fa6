package transport

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/appy-one/acebase-ipc-server/pkg/ipc/core"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

// checkVersion reports types.ErrUnsupportedVersion when version's
// major component isn't the one this router speaks.
func checkVersion(version string) error {
	if major(version) != types.SupportedMajorVersion {
		return types.ErrUnsupportedVersion
	}
	return nil
}

// checkPeerID reports types.ErrInvalidPeerID when id is shorter than
// types.MinPeerIDLength.
func checkPeerID(id string) error {
	if len(id) < types.MinPeerIDLength {
		return types.ErrInvalidPeerID
	}
	return nil
}

// handleConnect validates the handshake (SPEC_FULL.md §4.F) and, on
// success, upgrades to a WebSocket connection and drives it through
// admission (§4.E's HANDSHAKE -> ADMITTED -> ACTIVE transitions).
func (l *Listener) handleConnect(w http.ResponseWriter, r *http.Request, group, requestID string) {
	q := r.URL.Query()
	id := q.Get("id")
	version := q.Get("v")

	l.log.Debugf("[%s] connect group=%s id=%s v=%s", requestID, group, id, version)

	if err := checkVersion(version); err != nil {
		rejectUpgrade(w, l.log, requestID, 409, fmt.Sprintf("%s %q", reasonPhrase(err), version))
		return
	}
	if err := checkPeerID(id); err != nil {
		rejectUpgrade(w, l.log, requestID, 500, fmt.Sprintf("%s %q", reasonPhrase(err), id))
		return
	}
	if !l.checkToken(r) {
		rejectUpgrade(w, l.log, requestID, 403, reasonPhrase(types.ErrUnauthorized))
		return
	}

	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.log.Warnf("[%s] websocket upgrade failed for %s/%s: %v", requestID, group, id, err)
		return
	}
	conn.SetReadLimit(int64(l.cfg.MaxPayload))

	l.registry.Ensure(group)
	session := core.NewSession(id, group, version, &wsConn{c: conn}, l.log, time.Now())
	core.Admit(l.registry, session, l.cfg.MaxPayload)

	go l.readLoop(session, conn)
}

// readLoop is the session's read side: one goroutine per connection,
// feeding every text frame to the router and leaving binary frames
// silently dropped (SPEC_FULL.md §7). It never sets a read deadline —
// the streaming transport disables idle timeouts (§5), since peers
// are expected to be long-lived.
func (l *Listener) readLoop(session *core.Session, conn *websocket.Conn) {
	defer func() {
		core.Depart(l.registry, session)
		session.Close()
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		l.router.HandleIncoming(data, session)
	}
}

// major extracts the major component of a semantic-version string
// like "1.0.0": the text before the first "."; an empty version
// yields "".
func major(version string) string {
	parts := strings.SplitN(version, ".", 2)
	return parts[0]
}
