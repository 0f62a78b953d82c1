package handlers

import (
	"github.com/openscribe/server/internal/wire"
)

// UploadImage optimizes an inline image and replies to the submitter only.
//
// Every submission has exactly one outcome: optimizedBase64 or error, both
// keyed by the client's placeholder id. The transport adapter runs this
// handler off the connection's event goroutine since the transform is
// CPU-heavy.
func UploadImage(deps Deps, connID string, req wire.UploadImagePayload) EventResult {
	if _, ok := deps.Sessions().Resolve(connID); !ok {
		return NewEventResult([]EmitInstruction{
			newSelfEmit("imageProcessed", wire.ImageProcessedPayload{
				PlaceholderID: req.PlaceholderID,
				Error:         "unidentified",
			}),
		})
	}

	optimized, err := deps.Images().Process(req.Base64Data)
	if err != nil {
		return NewEventResult([]EmitInstruction{
			newSelfEmit("imageProcessed", wire.ImageProcessedPayload{
				PlaceholderID: req.PlaceholderID,
				Error:         err.Error(),
			}),
		})
	}

	return NewEventResult([]EmitInstruction{
		newSelfEmit("imageProcessed", wire.ImageProcessedPayload{
			PlaceholderID:   req.PlaceholderID,
			OptimizedBase64: optimized,
		}),
	})
}
