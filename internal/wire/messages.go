package wire

// Inbound Socket.IO payloads (client -> server).

// IdentifyPayload is the `userJoined` payload a client sends to bind its
// connection to a logical user.
type IdentifyPayload struct {
	// UserID is the client-chosen opaque user id (length >= 5).
	UserID string `json:"userId"`
	// Name is the display name shown to peers.
	Name string `json:"name"`
	// Color is the caret/selection color, typically a CSS color string.
	Color string `json:"color"`
}

// ApplyPatchPayload carries an incremental document edit.
//
// Patch is an ordered list of diff-match-patch patch blocks in their
// textual form. The server treats the blocks as opaque until apply time.
type ApplyPatchPayload struct {
	Patch []string `json:"patch"`
}

// UploadImagePayload carries an inline image for server-side optimization.
type UploadImagePayload struct {
	// PlaceholderID is the client-assigned id of the placeholder token the
	// optimized image will replace.
	PlaceholderID string `json:"placeholderId"`
	// Base64Data is a `data:image/...;base64,` data URL.
	Base64Data string `json:"base64Data"`
}

// CursorMovePayload is a caret position update in client pixel coordinates.
type CursorMovePayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
	// IsImage marks the caret as sitting on an image selection.
	IsImage bool `json:"isImage"`
}

// FullSyncRequestPayload asks the server for a complete content snapshot.
type FullSyncRequestPayload struct {
	// Reason is an optional client-supplied diagnostic string.
	Reason string `json:"reason,omitempty"`
}

// Outbound Socket.IO payloads (server -> client).

// PeerInfo describes another connected user inside an `init` payload.
type PeerInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// InitPayload is the full-state snapshot sent to a newly identified or
// resyncing client.
type InitPayload struct {
	// Content is the complete rich-text markup string.
	Content string `json:"content"`
	// Users maps user id to peer info for every other live session.
	Users map[string]PeerInfo `json:"users"`
	// CursorTimeout is the client-side cursor fade timeout in milliseconds.
	CursorTimeout int64 `json:"cursorTimeout"`
}

// PatchBroadcastPayload is an accepted patch fanned out to other clients.
type PatchBroadcastPayload struct {
	Patch []string `json:"patch"`
	// SenderID is the user id of the submitting client.
	SenderID string `json:"senderId"`
}

// PatchRejectedPayload reports a size-gated patch back to its submitter.
type PatchRejectedPayload struct {
	Reason string `json:"reason"`
}

// FullSyncDemandPayload tells a client its local state has diverged and it
// must request a fresh snapshot.
type FullSyncDemandPayload struct {
	Reason string `json:"reason"`
}

// ImageProcessedPayload is the single outcome of one image upload.
//
// Exactly one of OptimizedBase64 or Error is set.
type ImageProcessedPayload struct {
	PlaceholderID   string `json:"placeholderId"`
	OptimizedBase64 string `json:"optimizedBase64,omitempty"`
	Error           string `json:"error,omitempty"`
}

// CursorBroadcastPayload is a caret update annotated with sender identity.
type CursorBroadcastPayload struct {
	UserID  string  `json:"userId"`
	Name    string  `json:"name"`
	Color   string  `json:"color"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Height  float64 `json:"height"`
	IsImage bool    `json:"isImage"`
}

// UserJoinedPayload announces a newly identified user to its peers.
type UserJoinedPayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

// UserLeftPayload announces a departed user.
type UserLeftPayload struct {
	UserID string `json:"userId"`
}

// ServerShutdownPayload is broadcast once during graceful shutdown.
type ServerShutdownPayload struct {
	Message string `json:"message"`
}
