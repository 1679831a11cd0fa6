package transport

import (
	"fmt"
	"net/http"

	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

// rejectUpgrade writes a raw HTTP status line carrying reason as the
// literal reason phrase instead of the standard one net/http would
// otherwise substitute for the code. AceBase peers parse this status
// line directly (SPEC_FULL.md §6), so the exact text matters; the
// only way to control the reason phrase on the wire is to hijack the
// connection and write it ourselves.
func rejectUpgrade(w http.ResponseWriter, log types.Logger, requestID string, code int, reason string) {
	log.Warnf("[%s] rejecting upgrade: %d %s", requestID, code, reason)

	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, reason, code)
		return
	}

	conn, bufrw, err := hj.Hijack()
	if err != nil {
		log.Errorf("[%s] failed to hijack connection for status line: %v", requestID, err)
		http.Error(w, reason, code)
		return
	}
	defer conn.Close()

	fmt.Fprintf(bufrw, "HTTP/1.1 %d %s\r\nConnection: close\r\nContent-Length: 0\r\n\r\n", code, reason)
	bufrw.Flush()
}
