package transport

import (
	"errors"
	"testing"

	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

func TestCheckVersion(t *testing.T) {
	if err := checkVersion("1.2.3"); err != nil {
		t.Fatalf("checkVersion(1.2.3) = %v, want nil", err)
	}

	err := checkVersion("2.0.0")
	if !errors.Is(err, types.ErrUnsupportedVersion) {
		t.Fatalf("checkVersion(2.0.0) = %v, want types.ErrUnsupportedVersion", err)
	}
}

func TestCheckPeerID(t *testing.T) {
	if err := checkPeerID("client1"); err != nil {
		t.Fatalf("checkPeerID(client1) = %v, want nil", err)
	}

	err := checkPeerID("ab")
	if !errors.Is(err, types.ErrInvalidPeerID) {
		t.Fatalf("checkPeerID(ab) = %v, want types.ErrInvalidPeerID", err)
	}
}

func TestReasonPhrase(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{types.ErrUnsupportedVersion, "Unsupported client IPC version"},
		{types.ErrInvalidPeerID, "Invalid IPC client id"},
		{types.ErrUnauthorized, "Unauthorized"},
		{types.ErrSlotNotFound, "Not Found"},
		{types.ErrMethodNotAllowed, "Method Not Allowed"},
	}
	for _, c := range cases {
		if got := reasonPhrase(c.err); got != c.want {
			t.Errorf("reasonPhrase(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}
