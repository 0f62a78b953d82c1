package handlers

import (
	"github.com/openscribe/server/internal/document"
	"github.com/openscribe/server/internal/wire"
)

// ApplyPatch validates and applies an inbound patch, then fans the accepted
// patch out to every other connection.
//
// The patch is never echoed back to the submitter; they receive a
// contentAcknowledged once the mutation is committed locally.
func ApplyPatch(deps Deps, connID string, req wire.ApplyPatchPayload) EventResult {
	userID, ok := deps.Sessions().Resolve(connID)
	if !ok {
		return NewEventResult(nil)
	}
	if req.Patch == nil {
		return NewEventResult(nil)
	}

	res := deps.Document().ApplyPatch(req.Patch)
	switch res.Outcome {
	case document.ApplyFailed:
		return NewEventResult([]EmitInstruction{
			newSelfEmit("requestFullSync", wire.FullSyncDemandPayload{Reason: res.Reason}),
		})
	case document.ApplyRejected:
		return NewEventResult([]EmitInstruction{
			newSelfEmit("patchRejected", wire.PatchRejectedPayload{Reason: res.Reason}),
		})
	case document.ApplyNoChange:
		return NewEventResult([]EmitInstruction{
			newSelfEmit("contentAcknowledged", struct{}{}),
		})
	}

	deps.Saver().ScheduleSave()
	return NewEventResult([]EmitInstruction{
		newOthersEmit("applyPatch", wire.PatchBroadcastPayload{
			Patch:    req.Patch,
			SenderID: userID,
		}),
		newSelfEmit("contentAcknowledged", struct{}{}),
	})
}
