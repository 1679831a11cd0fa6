// Package test exercises the router end to end over real WebSocket
// and HTTP connections, the way the teacher's own test package drives
// a cluster of Unity instances through its public API.
package test

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/appy-one/acebase-ipc-server/pkg/ipc/definition"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/server"
	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

// testServer starts a Server bound to an OS-assigned port and returns
// it along with its HTTP and WebSocket base URLs. The caller must
// call the returned stop function.
func testServer(t *testing.T, cfg types.Config) (httpBase, wsBase string, stop func()) {
	t.Helper()

	log := definition.NewDefaultLogger(logrus.Fields{"test": t.Name()})
	srv := server.New(cfg, log)
	if err := srv.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	addr := srv.Addr()
	return "http://" + addr, "ws://" + addr, func() {
		srv.Stop()
		select {
		case <-srv.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("server did not stop in time")
		}
	}
}

// dialPeer opens a WebSocket connection to group as a peer with the
// given id, returning the connection and the first frame it received
// (expected to be the welcome frame).
func dialPeer(t *testing.T, wsBase, group, id, token string) (*websocket.Conn, []byte) {
	t.Helper()

	q := url.Values{"id": {id}, "v": {"1.0.0"}}
	if token != "" {
		q.Set("t", token)
	}
	u := fmt.Sprintf("%s/%s/connect?%s", wsBase, group, q.Encode())

	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		if resp != nil {
			t.Fatalf("dial failed: %v (status %s)", err, resp.Status)
		}
		t.Fatalf("dial failed: %v", err)
	}

	_, welcome, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed reading welcome frame: %v", err)
	}
	if !strings.HasPrefix(string(welcome), "welcome:") {
		t.Fatalf("expected welcome frame, got %q", welcome)
	}
	return conn, welcome
}

// readFrame reads one text frame with a bounded wait so a test never
// hangs forever on a frame that never arrives.
func readFrame(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed reading frame: %v", err)
	}
	return data
}

// expectNoFrame asserts that conn receives nothing within the given
// window.
func expectNoFrame(t *testing.T, conn *websocket.Conn, within time.Duration) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(within))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no frame, but one arrived")
	}
}

func httpGet(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	return resp
}
