package transport

import (
	"errors"

	"github.com/appy-one/acebase-ipc-server/pkg/ipc/types"
)

// reasonPhrase maps a sentinel error from types to the capitalized
// wire text AceBase peers expect as an HTTP reason phrase (spec.md
// §6's byte-exact status lines). Go error strings stay lowercase by
// convention (types.Errors); this is the one place that bridges to
// the wire's own capitalization.
func reasonPhrase(err error) string {
	switch {
	case errors.Is(err, types.ErrUnsupportedVersion):
		return "Unsupported client IPC version"
	case errors.Is(err, types.ErrInvalidPeerID):
		return "Invalid IPC client id"
	case errors.Is(err, types.ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, types.ErrSlotNotFound):
		return "Not Found"
	case errors.Is(err, types.ErrMethodNotAllowed):
		return "Method Not Allowed"
	default:
		return err.Error()
	}
}
