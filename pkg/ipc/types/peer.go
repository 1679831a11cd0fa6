package types

import "time"

// MinPeerIDLength is the minimum accepted length of a peer-chosen id.
const MinPeerIDLength = 5

// SupportedMajorVersion is the only semantic-version major component
// this router accepts from connecting peers.
const SupportedMajorVersion = "1"

// Transport is the handle a Peer uses to talk back to its connection.
// Implementations wrap a streaming-transport connection (WebSocket) or
// stand in for the HTTP sideband when a peer is only reachable via
// POST/GET send.
type Transport interface {
	// Send enqueues a frame for delivery. It returns false when the
	// transport reports back-pressure; the caller does not retry.
	Send(frame []byte) (accepted bool)

	// Close tears down the underlying connection. Idempotent.
	Close()
}

// Peer is one connected participant, admitted into exactly one Group.
type Peer struct {
	// ID is chosen by the peer; unique within Group at any instant.
	ID string

	// Group is the database name this peer belongs to.
	Group string

	// ConnectedAt is the monotonic admission timestamp.
	ConnectedAt time.Time

	// Version is the semantic version string the peer presented at
	// handshake. Only the major component is validated.
	Version string

	// Transport is this peer's send/close handle.
	Transport Transport
}

// NewPeer constructs a Peer record. It does not register the peer
// into any Group; callers use registry.Registry for that.
func NewPeer(group, id, version string, transport Transport, connectedAt time.Time) Peer {
	return Peer{
		ID:          id,
		Group:       group,
		ConnectedAt: connectedAt,
		Version:     version,
		Transport:   transport,
	}
}
