package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger  *slog.Logger
	handler http.Handler
}

func New(logger *slog.Logger, solver searchEngine) *Server {
	logger = logger.With("component", "rest")

	return &Server{
		logger:  logger,
		handler: newRouter(logger, NewHandlers(logger, solver)),
	}
}

func newRouter(logger *slog.Logger, h Handlers) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/ping", h.PingHandler).Methods(http.MethodGet)

	r.HandleFunc("/api/initial_state", h.InitialState).Methods(http.MethodGet)
	r.HandleFunc("/api/player", h.Player).Methods(http.MethodPost)
	r.HandleFunc("/api/actions", h.Actions).Methods(http.MethodPost)
	r.HandleFunc("/api/result", h.Result).Methods(http.MethodPost)
	r.HandleFunc("/api/winner", h.Winner).Methods(http.MethodPost)
	r.HandleFunc("/api/terminal", h.Terminal).Methods(http.MethodPost)
	r.HandleFunc("/api/minimax", h.Minimax).Methods(http.MethodPost)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
	)

	return handlers.CustomLoggingHandler(io.Discard, recovery(cors(r)), timing(logger))
}

// timing logs every request with how long it took to serve.
func timing(logger *slog.Logger) handlers.LogFormatter {
	return func(_ io.Writer, params handlers.LogFormatterParams) {
		logger.Info("request served",
			"method", params.Request.Method,
			"path", params.URL.Path,
			"status", params.StatusCode,
			"size", params.Size,
			"duration", time.Since(params.TimeStamp),
		)
	}
}

func (that *Server) Handler() http.Handler {
	return that.handler
}

// Start - starts HTTP server and shuts it down when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
