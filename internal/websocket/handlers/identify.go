package handlers

import (
	"github.com/openscribe/server/internal/session"
	"github.com/openscribe/server/internal/wire"
)

// Identify binds a connection to a logical user and replies with the full
// document snapshot.
//
// A reconnecting user evicts their previous connection (takeover); peers
// see a userJoined announcement but no userLeft for the evicted connection.
// A malformed identify closes the offending connection.
func Identify(deps Deps, connID string, req wire.IdentifyPayload) EventResult {
	res, err := deps.Sessions().Identify(connID, req.UserID, req.Name, req.Color)
	if err != nil {
		return NewEventResultWithForceClose(nil, []string{connID})
	}

	emits := []EmitInstruction{
		newSelfEmit("init", wire.InitPayload{
			Content:       deps.Document().Snapshot(),
			Users:         peersToWire(deps.Sessions().ListOthers(req.UserID)),
			CursorTimeout: deps.CursorTimeout().Milliseconds(),
		}),
		newOthersEmit("userJoined", wire.UserJoinedPayload{
			UserID: req.UserID,
			Name:   req.Name,
			Color:  req.Color,
		}),
	}

	var forceClose []string
	if res.EvictedConnectionID != "" {
		forceClose = append(forceClose, res.EvictedConnectionID)
	}
	return NewEventResultWithForceClose(emits, forceClose)
}

func peersToWire(peers map[string]session.Peer) map[string]wire.PeerInfo {
	users := make(map[string]wire.PeerInfo, len(peers))
	for id, p := range peers {
		users[id] = wire.PeerInfo{Name: p.Name, Color: p.Color}
	}
	return users
}
