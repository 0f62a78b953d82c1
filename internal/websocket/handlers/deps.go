package handlers

import (
	"time"

	"github.com/openscribe/server/internal/document"
	"github.com/openscribe/server/internal/session"
)

// DocumentStore is the subset of the document store used by websocket
// handlers.
type DocumentStore interface {
	ApplyPatch(blocks []string) document.ApplyResult
	Snapshot() string
}

// Sessions is the subset of the session registry used by websocket handlers.
type Sessions interface {
	Identify(connID, userID, name, color string) (session.IdentifyResult, error)
	Disconnect(connID string) (string, bool)
	Resolve(connID string) (string, bool)
	Get(userID string) (session.Session, bool)
	ListOthers(excludeUserID string) map[string]session.Peer
	Touch(connID string)
}

// ImageProcessor optimizes uploaded images.
type ImageProcessor interface {
	Process(dataURL string) (string, error)
}

// SaveScheduler receives dirty-content signals from the patch path.
type SaveScheduler interface {
	ScheduleSave()
}

// Deps holds the narrow dependencies required by websocket handlers.
type Deps struct {
	document      DocumentStore
	sessions      Sessions
	images        ImageProcessor
	saver         SaveScheduler
	cursorTimeout time.Duration
	now           func() time.Time
}

// NewDeps builds a dependency bundle for handler calls.
func NewDeps(
	document DocumentStore,
	sessions Sessions,
	images ImageProcessor,
	saver SaveScheduler,
	cursorTimeout time.Duration,
	now func() time.Time,
) Deps {
	return Deps{
		document:      document,
		sessions:      sessions,
		images:        images,
		saver:         saver,
		cursorTimeout: cursorTimeout,
		now:           now,
	}
}

func (d Deps) Document() DocumentStore      { return d.document }
func (d Deps) Sessions() Sessions           { return d.sessions }
func (d Deps) Images() ImageProcessor       { return d.images }
func (d Deps) Saver() SaveScheduler         { return d.saver }
func (d Deps) CursorTimeout() time.Duration { return d.cursorTimeout }

func (d Deps) Now() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now()
}
