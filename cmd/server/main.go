package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openscribe/server/internal/config"
	"github.com/openscribe/server/internal/document"
	"github.com/openscribe/server/internal/image"
	"github.com/openscribe/server/internal/logging"
	"github.com/openscribe/server/internal/session"
	"github.com/openscribe/server/internal/web"
	"github.com/openscribe/server/internal/websocket"
	"github.com/openscribe/server/internal/websocket/handlers"
)

// shutdownDeadline bounds graceful shutdown; past it the process hard-exits.
const shutdownDeadline = 10 * time.Second

func main() {
	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	store := document.NewStore(cfg.DocPath, cfg.MaxDocBytes, logger)
	if err := store.Load(); err != nil {
		logger.Error("failed to load document", zap.Error(err))
		os.Exit(1)
	}

	saver, err := document.NewSaver(store, cfg.SaveInterval, logger)
	if err != nil {
		logger.Error("failed to build saver", zap.Error(err))
		os.Exit(1)
	}
	saver.Start()

	registry := session.NewRegistry()
	processor := image.NewProcessor(cfg.MaxImageBytes, cfg.ImageMaxDimension, cfg.ImageJPEGQuality, logger)

	deps := handlers.NewDeps(store, registry, processor, store, cfg.CursorTimeout, time.Now)
	sioServer := websocket.NewSocketIOServer(deps, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"*"},
		ExposeHeaders: []string{"Content-Length"},
	}))
	if cfg.Debug {
		router.Use(requestLogger(logger))
	}

	router.GET("/", func(c *gin.Context) {
		c.String(200, "Shared document server is running.")
	})
	router.GET("/doc", web.DocHandler())
	router.Any("/socket.io", sioServer.HandleSocketIO())
	router.Any("/socket.io/*any", sioServer.HandleSocketIO())

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", cfg.Addr),
			zap.String("docPath", cfg.DocPath))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)

	select {
	case err := <-errCh:
		// Listener failures before any signal are fatal.
		logger.Error("server failed", zap.Error(err))
		os.Exit(1)
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	// Past the deadline the process exits regardless of shutdown progress.
	time.AfterFunc(shutdownDeadline, func() {
		logger.Error("shutdown deadline exceeded, forcing exit")
		os.Exit(1)
	})

	saver.Stop()
	if err := store.SaveSync(); err != nil {
		logger.Error("final save failed", zap.Error(err))
	}

	sioServer.BroadcastShutdown("The server is shutting down.")
	if err := sioServer.Close(); err != nil {
		logger.Warn("socket.io close failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("listener close failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// requestLogger logs each HTTP request's method, path, status and latency
// as structured fields at debug level.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
