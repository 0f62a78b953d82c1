package handlers

import (
	"math"

	"github.com/openscribe/server/internal/wire"
)

// CursorMove annotates a caret update with the sender's identity and fans
// it out to every other connection. Cursor traffic is lossy; unidentified
// or non-finite updates are dropped.
func CursorMove(deps Deps, connID string, req wire.CursorMovePayload) EventResult {
	userID, ok := deps.Sessions().Resolve(connID)
	if !ok {
		return NewEventResult(nil)
	}
	if !finite(req.X) || !finite(req.Y) || !finite(req.Height) {
		return NewEventResult(nil)
	}

	deps.Sessions().Touch(connID)

	sess, ok := deps.Sessions().Get(userID)
	if !ok {
		return NewEventResult(nil)
	}

	return NewEventResult([]EmitInstruction{
		newOthersEmit("cursorMove", wire.CursorBroadcastPayload{
			UserID:  userID,
			Name:    sess.Name,
			Color:   sess.Color,
			X:       req.X,
			Y:       req.Y,
			Height:  req.Height,
			IsImage: req.IsImage,
		}),
	})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
