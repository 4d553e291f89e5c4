package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Board is what the gateway needs from the synchronizer
type Board interface {
	StateProvider
	SyncStatusProvider
	Actions
}

// Config holds configuration for the board gateway
type Config struct {
	Port             int
	ConnectionConfig ConnectionConfig
	HealthThreshold  time.Duration
	AllowedOrigins   []string
}

// DefaultConfig returns default configuration for the board gateway
func DefaultConfig() Config {
	return Config{
		Port:             8090,
		ConnectionConfig: DefaultConnectionConfig(),
		HealthThreshold:  10 * time.Second,
		AllowedOrigins:   []string{"*"},
	}
}

// Service serves the board to browsers: a WebSocket feed of rendered
// frames, REST reads and action endpoints.
type Service struct {
	config            Config
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	actionHandler     *ActionHandler
	healthChecker     *HealthChecker
}

// NewService binds cm, which must already be the synchronizer's view, to
// board. history may be nil.
func NewService(config Config, cm *ConnectionManager, board Board, history HistoryProvider, clock clockwork.Clock, probes ...Probe) *Service {
	cm.actions = board

	return &Service{
		config:            config,
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm),
		stateHandler:      NewStateHandler(board, history),
		actionHandler:     NewActionHandler(board, config.ConnectionConfig.CommandTimeout),
		healthChecker:     NewHealthChecker(board, cm, clock, config.HealthThreshold, probes...),
	}
}

// Start runs the broadcast loop until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting board gateway service")
	s.connectionManager.Start(ctx)
	log.Info().Msg("board gateway service stopped")
	return nil
}

// Routes returns the gateway's HTTP handler
func (s *Service) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})
	r.Use(c.Handler)

	r.Get("/health", s.healthChecker.ServeHTTP)
	r.Get("/ws/board", s.wsHandler.HandleBoardConnection)
	r.Get("/ws/stats", s.wsHandler.HandleConnectionStats)

	// the socket upgrade must not see a compressing writer
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })
		r.Get("/api/board", s.stateHandler.HandleGetBoard)
		r.Get("/api/history", s.stateHandler.HandleGetHistory)
		r.Route("/api/actions", s.actionHandler.RegisterRoutes)
	})

	log.Info().Msg("board gateway routes registered")
	return r
}

// Server returns an HTTP server with h2c enabled
func (s *Service) Server() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           h2c.NewHandler(s.Routes(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Service) GetStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		event := log.Debug()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}
		event.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("http request")
	})
}
