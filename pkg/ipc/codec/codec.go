// Package codec implements the text-framed wire protocol described in
// SPEC_FULL.md §4.A: encoding and decoding of the control frames
// exchanged between peers and the router.
package codec

import (
	"bytes"
	"fmt"

	prom "github.com/prometheus/common/log"
)

// Kind discriminates the inbound frame forms the router must act on.
type Kind int

const (
	// KindPing is a liveness probe; the router replies "pong" and does
	// not forward anything further.
	KindPing Kind = iota

	// KindDirect is a "to:<recipient>;<body>" frame.
	KindDirect

	// KindBroadcast is any frame without a recognized "ping" or "to:"
	// prefix; its body is the entire frame.
	KindBroadcast
)

const (
	prefixPing       = "ping"
	prefixPong       = "pong"
	prefixWelcome    = "welcome:"
	prefixConnect    = "connect:"
	prefixDisconnect = "disconnect:"
	prefixTo         = "to:"
	prefixMsg        = "msg:"
	prefixGet        = "get:"

	// RecipientAll is the literal recipient meaning "every other peer
	// in the sender's group, delivered individually". It behaves like
	// a broadcast but goes through the msg:-prefixed direct path.
	RecipientAll = "all"
)

// Inbound is a decoded inbound frame.
type Inbound struct {
	Kind      Kind
	Recipient string // only meaningful when Kind == KindDirect
	Body      []byte
}

// Decode parses a raw inbound frame per SPEC_FULL.md §4.A.
//
// The codec is total for frames the router needs to act on: "ping" is
// recognized, "to:" frames are split on the first ";", and everything
// else is treated as a broadcast whose body is the frame itself. The
// one case reported as malformed is a "to:" frame with no ";"
// separator, since a direct message with no recipient/body split
// cannot be routed; it is logged and dropped, the connection is left
// open.
func Decode(frame []byte) (Inbound, bool) {
	if bytes.Equal(frame, []byte(prefixPing)) {
		return Inbound{Kind: KindPing}, true
	}

	if bytes.HasPrefix(frame, []byte(prefixTo)) {
		rest := frame[len(prefixTo):]
		idx := bytes.IndexByte(rest, ';')
		if idx < 0 {
			prom.Warnf("dropping malformed frame %q: missing ';' after 'to:' prefix", frame)
			return Inbound{}, false
		}
		recipient := string(rest[:idx])
		body := rest[idx+1:]
		return Inbound{Kind: KindDirect, Recipient: recipient, Body: body}, true
	}

	return Inbound{Kind: KindBroadcast, Body: frame}, true
}

// EncodePong builds the liveness-probe reply.
func EncodePong() []byte { return []byte(prefixPong) }

// EncodeWelcome builds the one-time admission frame.
func EncodeWelcome(maxPayload int) []byte {
	return []byte(fmt.Sprintf(`%s{"maxPayload":%d}`, prefixWelcome, maxPayload))
}

// EncodeConnect builds the broadcast frame announcing a new peer.
func EncodeConnect(peerID string) []byte {
	return []byte(prefixConnect + peerID)
}

// EncodeDisconnect builds the broadcast frame announcing a departed peer.
func EncodeDisconnect(peerID string) []byte {
	return []byte(prefixDisconnect + peerID)
}

// EncodeMsg wraps a body for direct (to:<id> or to:all) delivery.
func EncodeMsg(body []byte) []byte {
	return append([]byte(prefixMsg), body...)
}

// EncodeGet builds the spill reference replacing an oversized body.
func EncodeGet(slotID string) []byte {
	return []byte(prefixGet + slotID)
}

// IsServiceFrame reports whether frame carries one of the reserved
// service prefixes (welcome:, connect:, disconnect:, pong, get:,
// msg:) as opposed to a bare peer payload.
func IsServiceFrame(frame []byte) bool {
	for _, p := range []string{prefixWelcome, prefixConnect, prefixDisconnect, prefixPong, prefixGet, prefixMsg} {
		if bytes.HasPrefix(frame, []byte(p)) || bytes.Equal(frame, []byte(p)) {
			return true
		}
	}
	return false
}
