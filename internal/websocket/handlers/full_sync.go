package handlers

import (
	"github.com/openscribe/server/internal/wire"
)

// RequestFullSync re-sends the complete content snapshot to a client
// recovering from divergence.
func RequestFullSync(deps Deps, connID string, req wire.FullSyncRequestPayload) EventResult {
	userID, ok := deps.Sessions().Resolve(connID)
	if !ok {
		return NewEventResult(nil)
	}

	return NewEventResult([]EmitInstruction{
		newSelfEmit("init", wire.InitPayload{
			Content:       deps.Document().Snapshot(),
			Users:         peersToWire(deps.Sessions().ListOthers(userID)),
			CursorTimeout: deps.CursorTimeout().Milliseconds(),
		}),
		newSelfEmit("contentAcknowledged", struct{}{}),
	})
}
