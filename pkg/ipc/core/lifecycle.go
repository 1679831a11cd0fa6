package core

import (
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/codec"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/registry"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

// Admit carries a Session from ADMITTED to ACTIVE (SPEC_FULL.md
// §4.E's state machine): it sends the one-time welcome frame, inserts
// the session into reg, and announces it to the rest of its group.
//
// The teacher's re-architecture hint (spec.md §9) offers cross-topic
// subscription as one option and "reduce broadcast to an explicit
// iteration over the group's peer list" as the behaviorally
// equivalent alternative; this implementation takes the latter, since
// there is no publish/subscribe primitive backing the WebSocket
// transport to exploit.
func Admit(reg *registry.Registry, session *Session, maxPayload int) {
	session.Send(codec.EncodeWelcome(maxPayload))

	reg.Add(types.Peer{
		ID:          session.ID,
		Group:       session.Group,
		ConnectedAt: session.ConnectedAt,
		Version:     session.Version,
		Transport:   session,
	})

	announce := codec.EncodeConnect(session.ID)
	for _, peer := range reg.List(session.Group) {
		if peer.ID == session.ID {
			continue
		}
		peer.Transport.Send(announce)
	}
}

// Depart carries a Session from ACTIVE to REMOVED: it unregisters the
// session and announces its departure. It is idempotent — calling it
// a second time for the same session (e.g. a duplicate close event)
// is a no-op and emits no duplicate disconnect broadcast, because
// Registry.Remove reports whether it actually removed anything
// (SPEC_FULL.md §8, "idempotent disconnect").
func Depart(reg *registry.Registry, session *Session) {
	if !reg.Remove(session.Group, session.ID, session) {
		return
	}

	announce := codec.EncodeDisconnect(session.ID)
	for _, peer := range reg.List(session.Group) {
		peer.Transport.Send(announce)
	}
}
