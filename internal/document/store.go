package document

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
)

// DefaultContent seeds a fresh document when no file exists on disk.
const DefaultContent = "<h1>Untitled document</h1><p>Start typing to edit together.</p>"

// OversizeBanner replaces the document when the persisted file exceeds the
// size cap at load time.
const OversizeBanner = "<p><strong>The stored document exceeded the size limit and could not be loaded.</strong></p>"

// saveDebounce is the coalescing window for asynchronous saves.
const saveDebounce = 500 * time.Millisecond

// ApplyOutcome classifies the result of a patch application.
type ApplyOutcome int

const (
	// ApplyNoChange means the patch produced content identical to the
	// current document.
	ApplyNoChange ApplyOutcome = iota
	// ApplyApplied means the document was atomically replaced.
	ApplyApplied
	// ApplyFailed means at least one hunk did not apply; the document is
	// untouched and the submitter should resync.
	ApplyFailed
	// ApplyRejected means the post-state violated the size cap; the
	// document is untouched.
	ApplyRejected
)

// ApplyResult is the outcome of one ApplyPatch call.
type ApplyResult struct {
	Outcome ApplyOutcome
	// NewSize is the UTF-8 byte length of the content after an
	// ApplyApplied outcome.
	NewSize int
	// Reason is set for ApplyFailed and ApplyRejected.
	Reason string
}

// Store owns the canonical document string.
//
// All mutations go through ApplyPatch under a single mutex; readers take
// point-in-time snapshots. Disk writes never happen while the content mutex
// is held.
type Store struct {
	path     string
	maxBytes int
	logger   *zap.Logger
	dmp      *diffmatchpatch.DiffMatchPatch

	mu      sync.Mutex
	content string
	dirty   bool

	// fileMu admits one file writer at a time.
	fileMu sync.Mutex

	// saveMu guards the async-save gate; isSaving suppresses re-entry and
	// savePending coalesces requests that arrive mid-save.
	saveMu      sync.Mutex
	isSaving    bool
	savePending bool

	debounceMu sync.Mutex
	debounce   *time.Timer
}

// NewStore creates a document store persisting to path with the given byte
// cap.
func NewStore(path string, maxBytes int, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:     path,
		maxBytes: maxBytes,
		logger:   logger,
		dmp:      diffmatchpatch.New(),
		content:  DefaultContent,
	}
}

// Load reads the persisted document. A missing file initializes the default
// content and writes it back synchronously. An oversize file is not read;
// the in-memory content becomes a banner and the file is overwritten with it.
func (s *Store) Load() error {
	info, err := os.Stat(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.setContent(DefaultContent)
		if err := s.SaveSync(); err != nil {
			return fmt.Errorf("initialize document file: %w", err)
		}
		s.logger.Info("initialized new document", zap.String("path", s.path))
		return nil
	case err != nil:
		return fmt.Errorf("stat document file: %w", err)
	}

	if info.Size() > int64(s.maxBytes) {
		s.logger.Warn("persisted document exceeds size cap, replacing with banner",
			zap.Int64("fileSize", info.Size()), zap.Int("maxBytes", s.maxBytes))
		s.setContent(OversizeBanner)
		if err := s.SaveSync(); err != nil {
			s.logger.Error("failed to overwrite oversize document", zap.Error(err))
		}
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read document file: %w", err)
	}
	s.setContent(string(data))
	s.logger.Info("loaded document", zap.String("path", s.path), zap.Int("bytes", len(data)))
	return nil
}

func (s *Store) setContent(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = content
	s.dirty = false
}

// Snapshot returns the current content.
func (s *Store) Snapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

// Size returns the UTF-8 byte length of the current content.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.content)
}

// Dirty reports whether the content has changed since the last save.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// ApplyPatch applies an ordered list of diff-match-patch patch blocks to the
// current content. Application is atomic: either every hunk applies cleanly
// and the whole content is replaced, or nothing changes.
func (s *Store) ApplyPatch(blocks []string) ApplyResult {
	patches, err := s.dmp.PatchFromText(strings.Join(blocks, ""))
	if err != nil {
		return ApplyResult{Outcome: ApplyFailed, Reason: "patch apply failed"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.applyLocked(patches)
	if !ok {
		return ApplyResult{Outcome: ApplyFailed, Reason: "patch apply failed"}
	}
	if len(next) > s.maxBytes {
		return ApplyResult{Outcome: ApplyRejected, Reason: "document size limit exceeded"}
	}
	if next == s.content {
		return ApplyResult{Outcome: ApplyNoChange}
	}

	s.content = next
	s.dirty = true
	return ApplyResult{Outcome: ApplyApplied, NewSize: len(next)}
}

// applyLocked runs the fuzzy patch apply, converting panics from malformed
// patch input into a failed application.
func (s *Store) applyLocked(patches []diffmatchpatch.Patch) (next string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("patch apply panicked", zap.Any("panic", r))
			next, ok = "", false
		}
	}()

	result, hunks := s.dmp.PatchApply(patches, s.content)
	for _, applied := range hunks {
		if !applied {
			return "", false
		}
	}
	return result, true
}

// SaveSync writes the current content to disk, blocking until done. Writers
// are serialized, so a SaveSync issued during an in-flight async save waits
// for it and then persists the content current at that point.
func (s *Store) SaveSync() error {
	return s.writeSnapshot()
}

// ScheduleSave requests an asynchronous save, coalescing bursts inside the
// debounce window.
func (s *Store) ScheduleSave() {
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(saveDebounce, s.saveAsync)
}

// CancelPendingSave stops any pending debounced save.
func (s *Store) CancelPendingSave() {
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
}

func (s *Store) saveAsync() {
	s.saveMu.Lock()
	if s.isSaving {
		// A writer is already running; have it go one more round with the
		// content current at that time.
		s.savePending = true
		s.saveMu.Unlock()
		return
	}
	s.isSaving = true
	s.saveMu.Unlock()

	for {
		if err := s.writeSnapshot(); err != nil {
			s.logger.Error("async save failed", zap.Error(err))
		}

		s.saveMu.Lock()
		if !s.savePending {
			s.isSaving = false
			s.saveMu.Unlock()
			return
		}
		s.savePending = false
		s.saveMu.Unlock()
	}
}

// writeSnapshot writes a point-in-time snapshot to a temporary sibling file
// and atomically renames it over the target. The rename is the only step
// that mutates the durable path.
func (s *Store) writeSnapshot() error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	s.mu.Lock()
	content := s.content
	s.mu.Unlock()

	if len(content) > s.maxBytes {
		return fmt.Errorf("refusing to persist %d bytes over %d byte cap", len(content), s.maxBytes)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}

	s.mu.Lock()
	if s.content == content {
		s.dirty = false
	}
	s.mu.Unlock()
	return nil
}
