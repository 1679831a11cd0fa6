package core

import (
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/codec"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/registry"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/store"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

// Sender is what the Router needs from whoever handed it a frame: a
// WebSocket Session handling its own inbound loop, or a PeerSender
// standing in for a peer reached only through the HTTP sideband
// (SPEC_FULL.md §4.F's POST/GET send endpoints).
type Sender interface {
	types.Transport
	SenderID() string
	SenderGroup() string
}

// PeerSender adapts a registry.Registry lookup result into a Sender,
// so the sideband HTTP handlers can route a frame "from" a peer
// without needing that peer's concrete *Session.
type PeerSender types.Peer

func (p PeerSender) Send(frame []byte) bool { return p.Transport.Send(frame) }
func (p PeerSender) Close()                 { p.Transport.Close() }
func (p PeerSender) SenderID() string       { return p.ID }
func (p PeerSender) SenderGroup() string    { return p.Group }

// Router is the central dispatch routine described in SPEC_FULL.md
// §4.E: it parses inbound frames, resolves recipients, and performs
// direct/broadcast delivery, spilling to the Store when a forwarded
// body would exceed MaxPayload.
type Router struct {
	Registry   *registry.Registry
	Store      *store.Store
	MaxPayload int
	Log        types.Logger
}

// NewRouter builds a Router over the given registry and store.
func NewRouter(reg *registry.Registry, st *store.Store, maxPayload int, log types.Logger) *Router {
	return &Router{Registry: reg, Store: st, MaxPayload: maxPayload, Log: log}
}

// HandleIncoming is the router's single entry point: every frame
// arriving on a Session's connection, and every frame injected from
// the HTTP sideband, passes through here.
func (rt *Router) HandleIncoming(frame []byte, sender Sender) {
	in, ok := codec.Decode(frame)
	if !ok {
		return
	}

	if in.Kind == codec.KindPing {
		sender.Send(codec.EncodePong())
		return
	}

	body := rt.spillIfNeeded(in.Body, sender)

	recipient := ""
	if in.Kind == codec.KindDirect {
		recipient = in.Recipient
	}

	switch recipient {
	case "":
		rt.broadcast(sender, body)
	case codec.RecipientAll:
		rt.dispatchAll(sender, body)
	default:
		rt.dispatchOne(sender, recipient, body)
	}
}

// spillIfNeeded stores an oversized body in the Store and returns the
// get:<slotId> reference to forward in its place; bodies within
// budget pass through unchanged.
func (rt *Router) spillIfNeeded(body []byte, sender Sender) []byte {
	if len(body) <= rt.MaxPayload {
		return body
	}
	slotID := rt.Store.Put(body)
	rt.Log.Infof("spilled %d-byte body from %s/%s into slot %s", len(body), sender.SenderGroup(), sender.SenderID(), slotID)
	return codec.EncodeGet(slotID)
}

// broadcast delivers body, unprefixed, to every current peer in the
// sender's group except the sender. A sender that is no longer (or
// not yet) registered produces a warning and no delivery.
//
// Because broadcast delivers its body unprefixed, the receiving peers
// are the ones that distinguish a service frame from a payload by its
// prefix (spec.md §4.E); the router cannot rewrite an arbitrary
// sender-chosen body, so a body that collides with a reserved prefix
// is only logged, not corrected.
func (rt *Router) broadcast(sender Sender, body []byte) {
	if _, ok := rt.Registry.FindByID(sender.SenderGroup(), sender.SenderID()); !ok {
		rt.Log.Warnf("broadcast from unregistered sender %s/%s ignored", sender.SenderGroup(), sender.SenderID())
		return
	}
	if codec.IsServiceFrame(body) {
		rt.Log.Warnf("broadcast body from %s/%s collides with a reserved service prefix", sender.SenderGroup(), sender.SenderID())
	}

	for _, peer := range rt.Registry.List(sender.SenderGroup()) {
		if peer.ID == sender.SenderID() {
			continue
		}
		peer.Transport.Send(body)
	}
}

// dispatchAll delivers body individually, msg:-prefixed, to the same
// peer set as broadcast. It exists for testing only; it is otherwise
// equivalent (SPEC_FULL.md §4.E).
func (rt *Router) dispatchAll(sender Sender, body []byte) {
	if _, ok := rt.Registry.FindByID(sender.SenderGroup(), sender.SenderID()); !ok {
		rt.Log.Warnf("recipient=all from unregistered sender %s/%s ignored", sender.SenderGroup(), sender.SenderID())
		return
	}

	framed := codec.EncodeMsg(body)
	for _, peer := range rt.Registry.List(sender.SenderGroup()) {
		if peer.ID == sender.SenderID() {
			continue
		}
		peer.Transport.Send(framed)
	}
}

// dispatchOne delivers body, msg:-prefixed, to the single peer whose
// id matches recipient, or to nobody if no such peer exists.
func (rt *Router) dispatchOne(sender Sender, recipient string, body []byte) {
	peer, ok := rt.Registry.FindByID(sender.SenderGroup(), recipient)
	if !ok {
		return
	}
	peer.Transport.Send(codec.EncodeMsg(body))
}
