package handlers

import (
	"github.com/openscribe/server/internal/wire"
)

// Disconnect removes the departing connection's session. The session is
// only removed while the departing connection still owns the mapping, so a
// reconnect takeover never triggers a spurious userLeft.
func Disconnect(deps Deps, connID string) EventResult {
	userID, removed := deps.Sessions().Disconnect(connID)
	if !removed {
		return NewEventResult(nil)
	}

	return NewEventResult([]EmitInstruction{
		newAllEmit("userLeft", wire.UserLeftPayload{UserID: userID}),
	})
}
