package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	socket "github.com/zishang520/socket.io/servers/socket/v3"
	sockettypes "github.com/zishang520/socket.io/v3/pkg/types"
	"go.uber.org/zap"

	"github.com/openscribe/server/internal/websocket/handlers"
	"github.com/openscribe/server/internal/wire"
)

// SocketIOPingInterval is how frequently the server pings clients to detect
// stale sockets.
const SocketIOPingInterval = 10 * time.Second

// SocketIOPingTimeout is how long the server waits for a pong before
// considering a socket dead. Expired sockets surface as disconnects.
const SocketIOPingTimeout = 5 * time.Second

// maxMessageBytes is the per-message transport payload ceiling.
const maxMessageBytes = 2 << 20

// SocketIOServer wraps the Socket.IO server and adapts inbound events to
// the handler layer.
type SocketIOServer struct {
	server *socket.Server
	deps   handlers.Deps
	logger *zap.Logger

	// sockets maps socket id to the live socket handle so handler results
	// can target arbitrary connections (takeover force-close).
	sockets sync.Map

	// patchMu orders patch application and its broadcast as one unit, so
	// every recipient observes accepted patches in acceptance order.
	patchMu sync.Mutex
}

// NewSocketIOServer creates a Socket.IO server wired to the handler deps.
func NewSocketIOServer(deps handlers.Deps, logger *zap.Logger) *SocketIOServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := socket.DefaultServerOptions()
	opts.SetCors(&sockettypes.Cors{
		Origin:      "*",
		Credentials: false,
	})
	opts.SetPingInterval(SocketIOPingInterval)
	opts.SetPingTimeout(SocketIOPingTimeout)
	opts.SetMaxHttpBufferSize(maxMessageBytes)

	s := &SocketIOServer{
		server: socket.NewServer(nil, opts),
		deps:   deps,
		logger: logger,
	}
	s.setupHandlers()
	return s
}

// setupHandlers configures Socket.IO event handlers.
func (s *SocketIOServer) setupHandlers() {
	s.server.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		s.handleConnection(client)
	})
}

func (s *SocketIOServer) handleConnection(client *socket.Socket) {
	connID := string(client.Id())
	s.sockets.Store(connID, client)
	s.logger.Debug("socket connected", zap.String("socketId", connID))

	client.On("userJoined", func(datas ...any) {
		var req wire.IdentifyPayload
		if err := decodeFirst(datas, &req); err != nil {
			s.logger.Warn("malformed userJoined payload", zap.String("socketId", connID), zap.Error(err))
			client.Disconnect(true)
			return
		}
		s.apply(handlers.Identify(s.deps, connID, req), client)
	})

	client.On("applyPatch", func(datas ...any) {
		var req wire.ApplyPatchPayload
		if err := decodeFirst(datas, &req); err != nil {
			return
		}
		// Apply and broadcast under one lock so broadcast order matches
		// document acceptance order.
		s.patchMu.Lock()
		defer s.patchMu.Unlock()
		s.apply(handlers.ApplyPatch(s.deps, connID, req), client)
	})

	client.On("cursorMove", func(datas ...any) {
		var req wire.CursorMovePayload
		if err := decodeFirst(datas, &req); err != nil {
			return
		}
		s.apply(handlers.CursorMove(s.deps, connID, req), client)
	})

	client.On("uploadImage", func(datas ...any) {
		var req wire.UploadImagePayload
		if err := decodeFirst(datas, &req); err != nil {
			return
		}
		taskID := uuid.NewString()
		s.logger.Debug("image upload started",
			zap.String("socketId", connID),
			zap.String("taskId", taskID),
			zap.String("placeholderId", req.PlaceholderID))
		// Image transforms are CPU-heavy; keep them off the connection's
		// event path. A submitter that disconnects mid-transform just gets
		// its reply dropped by the emit path.
		go func() {
			s.apply(handlers.UploadImage(s.deps, connID, req), client)
			s.logger.Debug("image upload finished", zap.String("taskId", taskID))
		}()
	})

	client.On("requestFullSync", func(datas ...any) {
		var req wire.FullSyncRequestPayload
		if err := decodeFirst(datas, &req); err != nil {
			return
		}
		s.apply(handlers.RequestFullSync(s.deps, connID, req), client)
	})

	client.On("disconnect", func(...any) {
		s.sockets.Delete(connID)
		s.logger.Debug("socket disconnected", zap.String("socketId", connID))
		s.apply(handlers.Disconnect(s.deps, connID), client)
	})
}

// apply executes the emissions and force-closes requested by a handler.
func (s *SocketIOServer) apply(res handlers.EventResult, self *socket.Socket) {
	selfID := string(self.Id())

	for _, emit := range res.Emits() {
		switch {
		case emit.IsSelf():
			if _, ok := s.sockets.Load(selfID); ok {
				self.Emit(emit.Event(), emit.Payload())
			}
		case emit.IsOthers():
			s.emitExcept(emit.Event(), emit.Payload(), selfID)
		case emit.IsAll():
			s.emitExcept(emit.Event(), emit.Payload(), "")
		}
	}

	for _, connID := range res.ForceClose() {
		if value, ok := s.sockets.Load(connID); ok {
			if sock, ok := value.(*socket.Socket); ok {
				s.logger.Info("force-closing connection", zap.String("socketId", connID))
				sock.Disconnect(true)
			}
		}
	}
}

func (s *SocketIOServer) emitExcept(event string, payload any, skipSocketID string) {
	s.sockets.Range(func(key, value any) bool {
		if skipSocketID != "" && key == skipSocketID {
			return true
		}
		if sock, ok := value.(*socket.Socket); ok {
			sock.Emit(event, payload)
		}
		return true
	})
}

// BroadcastShutdown notifies every connection that the server is going
// away.
func (s *SocketIOServer) BroadcastShutdown(message string) {
	s.emitExcept("serverShutdown", wire.ServerShutdownPayload{Message: message}, "")
}

// decodeFirst decodes the first event argument into out via a JSON
// round-trip, since Socket.IO delivers payloads as generic maps.
func decodeFirst(datas []any, out any) error {
	var first any
	if len(datas) > 0 {
		first = datas[0]
	}
	raw, err := json.Marshal(first)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// HandleSocketIO creates a Gin handler for the Socket.IO endpoint.
func (s *SocketIOServer) HandleSocketIO() gin.HandlerFunc {
	httpHandler := s.server.ServeHandler(nil)

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.Status(http.StatusOK)
			return
		}

		httpHandler.ServeHTTP(c.Writer, c.Request)
	}
}

// Close shuts down the Socket.IO server, closing every connection.
func (s *SocketIOServer) Close() error {
	s.server.Close(nil)
	return nil
}
