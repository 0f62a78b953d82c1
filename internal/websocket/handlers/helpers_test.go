package handlers

import (
	"github.com/openscribe/server/internal/document"
	"github.com/openscribe/server/internal/session"
)

type fakeDocument struct {
	applyPatch func(blocks []string) document.ApplyResult
	snapshot   func() string
}

func (f fakeDocument) ApplyPatch(blocks []string) document.ApplyResult {
	return f.applyPatch(blocks)
}

func (f fakeDocument) Snapshot() string {
	if f.snapshot == nil {
		return ""
	}
	return f.snapshot()
}

type fakeSessions struct {
	identify   func(connID, userID, name, color string) (session.IdentifyResult, error)
	disconnect func(connID string) (string, bool)
	resolve    func(connID string) (string, bool)
	get        func(userID string) (session.Session, bool)
	listOthers func(excludeUserID string) map[string]session.Peer
	touched    []string
}

func (f *fakeSessions) Identify(connID, userID, name, color string) (session.IdentifyResult, error) {
	return f.identify(connID, userID, name, color)
}

func (f *fakeSessions) Disconnect(connID string) (string, bool) {
	return f.disconnect(connID)
}

func (f *fakeSessions) Resolve(connID string) (string, bool) {
	return f.resolve(connID)
}

func (f *fakeSessions) Get(userID string) (session.Session, bool) {
	return f.get(userID)
}

func (f *fakeSessions) ListOthers(excludeUserID string) map[string]session.Peer {
	if f.listOthers == nil {
		return map[string]session.Peer{}
	}
	return f.listOthers(excludeUserID)
}

func (f *fakeSessions) Touch(connID string) {
	f.touched = append(f.touched, connID)
}

type fakeImages struct {
	process func(dataURL string) (string, error)
}

func (f fakeImages) Process(dataURL string) (string, error) {
	return f.process(dataURL)
}

type fakeSaver struct {
	calls int
}

func (f *fakeSaver) ScheduleSave() {
	f.calls++
}

func resolveAs(userID string) func(string) (string, bool) {
	return func(string) (string, bool) { return userID, true }
}

func resolveNone() func(string) (string, bool) {
	return func(string) (string, bool) { return "", false }
}
