package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openscribe/server/internal/document"
	"github.com/openscribe/server/internal/wire"
)

func TestApplyPatch_UnidentifiedDropsSilently(t *testing.T) {
	sessions := &fakeSessions{resolve: resolveNone()}
	doc := fakeDocument{applyPatch: func([]string) document.ApplyResult {
		t.Fatalf("unexpected apply call")
		return document.ApplyResult{}
	}}
	deps := NewDeps(doc, sessions, nil, &fakeSaver{}, 0, time.Now)

	res := ApplyPatch(deps, "c1", wire.ApplyPatchPayload{Patch: []string{"@@"}})
	require.Empty(t, res.Emits())
	require.Empty(t, res.ForceClose())
}

func TestApplyPatch_NilPatchDropsSilently(t *testing.T) {
	sessions := &fakeSessions{resolve: resolveAs("u00001")}
	doc := fakeDocument{applyPatch: func([]string) document.ApplyResult {
		t.Fatalf("unexpected apply call")
		return document.ApplyResult{}
	}}
	deps := NewDeps(doc, sessions, nil, &fakeSaver{}, 0, time.Now)

	res := ApplyPatch(deps, "c1", wire.ApplyPatchPayload{Patch: nil})
	require.Empty(t, res.Emits())
}

func TestApplyPatch_FailedRequestsResync(t *testing.T) {
	sessions := &fakeSessions{resolve: resolveAs("u00001")}
	doc := fakeDocument{applyPatch: func([]string) document.ApplyResult {
		return document.ApplyResult{Outcome: document.ApplyFailed, Reason: "patch apply failed"}
	}}
	saver := &fakeSaver{}
	deps := NewDeps(doc, sessions, nil, saver, 0, time.Now)

	res := ApplyPatch(deps, "c1", wire.ApplyPatchPayload{Patch: []string{"@@ bogus"}})

	require.Len(t, res.Emits(), 1)
	emit := res.Emits()[0]
	require.True(t, emit.IsSelf())
	require.Equal(t, "requestFullSync", emit.Event())
	require.Equal(t, wire.FullSyncDemandPayload{Reason: "patch apply failed"}, emit.Payload())
	require.Zero(t, saver.calls)
}

func TestApplyPatch_RejectedNotifiesSubmitterOnly(t *testing.T) {
	sessions := &fakeSessions{resolve: resolveAs("u00001")}
	doc := fakeDocument{applyPatch: func([]string) document.ApplyResult {
		return document.ApplyResult{Outcome: document.ApplyRejected, Reason: "document size limit exceeded"}
	}}
	saver := &fakeSaver{}
	deps := NewDeps(doc, sessions, nil, saver, 0, time.Now)

	res := ApplyPatch(deps, "c1", wire.ApplyPatchPayload{Patch: []string{"@@ big"}})

	require.Len(t, res.Emits(), 1)
	emit := res.Emits()[0]
	require.True(t, emit.IsSelf())
	require.Equal(t, "patchRejected", emit.Event())
	require.Equal(t, wire.PatchRejectedPayload{Reason: "document size limit exceeded"}, emit.Payload())
	require.Zero(t, saver.calls)
}

func TestApplyPatch_NoChangeAcknowledges(t *testing.T) {
	sessions := &fakeSessions{resolve: resolveAs("u00001")}
	doc := fakeDocument{applyPatch: func([]string) document.ApplyResult {
		return document.ApplyResult{Outcome: document.ApplyNoChange}
	}}
	saver := &fakeSaver{}
	deps := NewDeps(doc, sessions, nil, saver, 0, time.Now)

	res := ApplyPatch(deps, "c1", wire.ApplyPatchPayload{Patch: []string{""}})

	require.Len(t, res.Emits(), 1)
	emit := res.Emits()[0]
	require.True(t, emit.IsSelf())
	require.Equal(t, "contentAcknowledged", emit.Event())
	require.Zero(t, saver.calls)
}

func TestApplyPatch_AppliedBroadcastsAndAcknowledges(t *testing.T) {
	sessions := &fakeSessions{resolve: resolveAs("u00001")}
	blocks := []string{"@@ -1,4 +1,5 @@"}
	doc := fakeDocument{applyPatch: func(got []string) document.ApplyResult {
		require.Equal(t, blocks, got)
		return document.ApplyResult{Outcome: document.ApplyApplied, NewSize: 9}
	}}
	saver := &fakeSaver{}
	deps := NewDeps(doc, sessions, nil, saver, 0, time.Now)

	res := ApplyPatch(deps, "c1", wire.ApplyPatchPayload{Patch: blocks})

	require.Len(t, res.Emits(), 2)

	broadcast := res.Emits()[0]
	require.True(t, broadcast.IsOthers())
	require.Equal(t, "applyPatch", broadcast.Event())
	require.Equal(t, wire.PatchBroadcastPayload{Patch: blocks, SenderID: "u00001"}, broadcast.Payload())

	ack := res.Emits()[1]
	require.True(t, ack.IsSelf())
	require.Equal(t, "contentAcknowledged", ack.Event())

	require.Equal(t, 1, saver.calls)
}
