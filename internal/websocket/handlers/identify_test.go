package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openscribe/server/internal/session"
	"github.com/openscribe/server/internal/wire"
)

func TestIdentify_InvalidClosesConnection(t *testing.T) {
	sessions := &fakeSessions{
		identify: func(connID, userID, name, color string) (session.IdentifyResult, error) {
			return session.IdentifyResult{}, session.ErrInvalidIdentity
		},
	}
	deps := NewDeps(fakeDocument{}, sessions, nil, nil, 3*time.Second, time.Now)

	res := Identify(deps, "c1", wire.IdentifyPayload{UserID: "u1", Name: "", Color: "#f00"})

	require.Empty(t, res.Emits())
	require.Equal(t, []string{"c1"}, res.ForceClose())
}

func TestIdentify_EmitsInitAndAnnounces(t *testing.T) {
	sessions := &fakeSessions{
		identify: func(connID, userID, name, color string) (session.IdentifyResult, error) {
			require.Equal(t, "c1", connID)
			require.Equal(t, "u00001", userID)
			return session.IdentifyResult{}, nil
		},
		listOthers: func(excludeUserID string) map[string]session.Peer {
			require.Equal(t, "u00001", excludeUserID)
			return map[string]session.Peer{"u00002": {Name: "Bob", Color: "#00f"}}
		},
	}
	doc := fakeDocument{snapshot: func() string { return "<p>hi</p>" }}
	deps := NewDeps(doc, sessions, nil, nil, 3*time.Second, time.Now)

	res := Identify(deps, "c1", wire.IdentifyPayload{UserID: "u00001", Name: "Alice", Color: "#f00"})

	require.Len(t, res.Emits(), 2)
	require.Empty(t, res.ForceClose())

	init := res.Emits()[0]
	require.True(t, init.IsSelf())
	require.Equal(t, "init", init.Event())
	initPayload, ok := init.Payload().(wire.InitPayload)
	require.True(t, ok)
	require.Equal(t, "<p>hi</p>", initPayload.Content)
	require.Equal(t, int64(3000), initPayload.CursorTimeout)
	require.Equal(t, map[string]wire.PeerInfo{"u00002": {Name: "Bob", Color: "#00f"}}, initPayload.Users)

	joined := res.Emits()[1]
	require.True(t, joined.IsOthers())
	require.Equal(t, "userJoined", joined.Event())
	require.Equal(t, wire.UserJoinedPayload{UserID: "u00001", Name: "Alice", Color: "#f00"}, joined.Payload())
}

func TestIdentify_TakeoverForcesOldConnectionClosed(t *testing.T) {
	sessions := &fakeSessions{
		identify: func(connID, userID, name, color string) (session.IdentifyResult, error) {
			return session.IdentifyResult{EvictedConnectionID: "c1"}, nil
		},
	}
	deps := NewDeps(fakeDocument{}, sessions, nil, nil, 3*time.Second, time.Now)

	res := Identify(deps, "c2", wire.IdentifyPayload{UserID: "u00001", Name: "Alice", Color: "#f00"})

	require.Equal(t, []string{"c1"}, res.ForceClose())
	// init still goes to the new connection; no userLeft is emitted.
	require.Len(t, res.Emits(), 2)
	for _, emit := range res.Emits() {
		require.NotEqual(t, "userLeft", emit.Event())
	}
}
