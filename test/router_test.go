package test

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

func testConfig() types.Config {
	return types.Config{
		Port:       0,
		MaxPayload: 50,
		Token:      "s",
	}
}

// Scenario 1: handshake ok — first inbound frame is the welcome frame
// carrying the configured maxPayload.
func TestHandshake_OK(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	_, wsBase, stop := testServer(t, testConfig())
	defer stop()

	conn, welcome := dialPeer(t, wsBase, "mydb", "client1", "s")
	defer conn.Close()

	assert.Equal(t, `welcome:{"maxPayload":50}`, string(welcome))
}

// Scenario 2: handshake rejected on an unsupported major version.
func TestHandshake_RejectedVersion(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	httpBase, _, stop := testServer(t, testConfig())
	defer stop()

	u := fmt.Sprintf("%s/mydb/connect?id=client1&v=2.0.0&t=s", httpBase)
	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 409, resp.StatusCode)
	assert.Contains(t, resp.Status, `Unsupported client IPC version "2.0.0"`)
}

// Scenario 3: direct delivery to a single recipient; the sender
// receives nothing back.
func TestDirectDelivery(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	_, wsBase, stop := testServer(t, testConfig())
	defer stop()

	c1, _ := dialPeer(t, wsBase, "mydb", "client1", "s")
	defer c1.Close()
	c2, _ := dialPeer(t, wsBase, "mydb", "client2", "s")
	defer c2.Close()

	require.NoError(t, c1.WriteMessage(1, []byte("to:client2;hello")))

	got := readFrame(t, c2)
	assert.Equal(t, "msg:hello", string(got))
	expectNoFrame(t, c1, 200*time.Millisecond)
}

// Scenario 4: broadcast reaches every other peer unprefixed; the
// sender receives nothing.
func TestBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	_, wsBase, stop := testServer(t, testConfig())
	defer stop()

	c1, _ := dialPeer(t, wsBase, "mydb", "client1", "s")
	defer c1.Close()
	c2, _ := dialPeer(t, wsBase, "mydb", "client2", "s")
	defer c2.Close()
	c3, _ := dialPeer(t, wsBase, "mydb", "client3", "s")
	defer c3.Close()

	// Each new admission broadcasts a connect: frame to existing
	// peers; drain those before exercising the scenario itself.
	_ = readFrame(t, c1) // connect:client2
	_ = readFrame(t, c1) // connect:client3
	_ = readFrame(t, c2) // connect:client3

	require.NoError(t, c1.WriteMessage(1, []byte("announce")))

	assert.Equal(t, "announce", string(readFrame(t, c2)))
	assert.Equal(t, "announce", string(readFrame(t, c3)))
	expectNoFrame(t, c1, 200*time.Millisecond)
}

// Scenario 5: a body larger than maxPayload is spilled; the recipient
// gets a get:<slotId> reference, retrievable exactly once via the
// sideband receive endpoint.
func TestSpill(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	httpBase, wsBase, stop := testServer(t, testConfig())
	defer stop()

	c1, _ := dialPeer(t, wsBase, "mydb", "client1", "s")
	defer c1.Close()
	c2, _ := dialPeer(t, wsBase, "mydb", "client2", "s")
	defer c2.Close()
	_ = readFrame(t, c1) // connect:client2

	body := strings.Repeat("x", 200)
	require.NoError(t, c1.WriteMessage(1, []byte("to:client2;"+body)))

	frame := string(readFrame(t, c2))
	require.True(t, strings.HasPrefix(frame, "msg:get:"))
	slotID := strings.TrimPrefix(frame, "msg:get:")
	assert.Len(t, slotID, 24)

	receiveURL := fmt.Sprintf("%s/mydb/receive?id=client2&msg=%s&t=s", httpBase, slotID)
	resp := httpGet(t, receiveURL)
	got, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, body, string(got))

	resp2 := httpGet(t, receiveURL)
	defer resp2.Body.Close()
	assert.Equal(t, 404, resp2.StatusCode)
}

// Cross-group isolation: groups are independent broadcast domains.
// Neither a broadcast nor a direct send in one group is observable by
// a peer connected to a different group.
func TestCrossGroupIsolation(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	_, wsBase, stop := testServer(t, testConfig())
	defer stop()

	c1, _ := dialPeer(t, wsBase, "mydb", "client1", "s")
	defer c1.Close()
	c2, _ := dialPeer(t, wsBase, "mydb", "client2", "s")
	defer c2.Close()
	_ = readFrame(t, c1) // connect:client2

	// This peer lives in a different group and reuses the id client1,
	// which is also connected in mydb.
	other, _ := dialPeer(t, wsBase, "otherdb", "client1", "s")
	defer other.Close()

	require.NoError(t, c1.WriteMessage(1, []byte("announce")))
	assert.Equal(t, "announce", string(readFrame(t, c2)))
	expectNoFrame(t, other, 200*time.Millisecond)

	require.NoError(t, other.WriteMessage(1, []byte("to:client1;hello")))
	expectNoFrame(t, c1, 200*time.Millisecond)
	expectNoFrame(t, c2, 200*time.Millisecond)
}

// Scenario 6: a duplicate id reconnect evicts the incumbent, which is
// observed by a third peer as a disconnect broadcast; the new
// connection proceeds to receive its own welcome.
func TestDuplicateIDEviction(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	_, wsBase, stop := testServer(t, testConfig())
	defer stop()

	c1, _ := dialPeer(t, wsBase, "mydb", "client1", "s")
	defer c1.Close()
	c3, _ := dialPeer(t, wsBase, "mydb", "client3", "s")
	defer c3.Close()
	_ = readFrame(t, c1) // connect:client3

	c1b, welcome := dialPeer(t, wsBase, "mydb", "client1", "s")
	defer c1b.Close()
	assert.Equal(t, `welcome:{"maxPayload":50}`, string(welcome))

	// The old connection's close and the new connection's admission
	// race independently (one driven by the evicted session's read
	// loop noticing the close, the other by the admitting handler),
	// so only their *set*, not their order, is guaranteed.
	frames := map[string]bool{
		string(readFrame(t, c3)): true,
		string(readFrame(t, c3)): true,
	}
	assert.True(t, frames["disconnect:client1"])
	assert.True(t, frames["connect:client1"])
}
