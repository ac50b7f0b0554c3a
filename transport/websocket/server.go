package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type roomRegistry interface {
	CreateRoom(roomID, participant string) (usecase.CreateResult, error)
	JoinRoom(roomID, participant string) (usecase.JoinResult, error)
	MakeMove(roomID, participant string, action entity.Action) (entity.RoomState, error)
	ResetRoom(roomID string) (entity.RoomState, error)
	RemoveParticipant(roomID, participant string) (usecase.RemoveResult, error)
	RoomOf(participant string) (string, bool)
}

type Server struct {
	logger *slog.Logger
	rooms  roomRegistry

	upgrader    websocket.Upgrader
	connections *connections

	handlers map[string]func(ctx context.Context, c *client, msg *Message) error
}

func New(logger *slog.Logger, rooms roomRegistry) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		rooms:  rooms,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		connections: newConnections(),

		handlers: make(map[string]func(context.Context, *client, *Message) error),
	}

	server.handlers[eventCreateRoom] = server.handleCreateRoom
	server.handlers[eventJoinRoom] = server.handleJoinRoom
	server.handlers[eventMakeMove] = server.handleMakeMove
	server.handlers[eventResetGame] = server.handleResetGame

	return server
}

// Handler serves the websocket endpoint at /ws.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	return mux
}

// Start - starts WebSocket server and shuts it down when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		that.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(uuid.NewString(), conn, that.logger)
	c.logger.Debug("client connected", "remote", r.RemoteAddr)

	go c.writePump()
	c.readPump(r.Context(), that.dispatch)

	that.handleDisconnect(c)
}

func (that *Server) dispatch(ctx context.Context, c *client, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		that.sendError(c, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err))
		return
	}

	handler, ok := that.handlers[msg.Event]
	if !ok {
		that.sendError(c, fmt.Errorf("%w: %q", apperror.ErrUnknownEvent, msg.Event))
		return
	}

	if err := handler(ctx, c, &msg); err != nil {
		c.logger.Info("event rejected", "event", msg.Event, "participant", c.participant, "error", err)
		that.sendError(c, err)
	}
}

// broadcast sends event to every connection of the given participants.
func (that *Server) broadcast(participants []string, event string, data any) {
	frame, err := encode(event, data)
	if err != nil {
		that.logger.Error("failed to encode message", "event", event, "error", err)
		return
	}

	for _, c := range that.connections.of(participants...) {
		if err = c.enqueue(frame); err != nil {
			c.logger.Warn("dropping client", "event", event, "error", err)
		}
	}
}

func (that *Server) sendError(c *client, err error) {
	frame, encodeErr := encode(eventError, messagePayload{Message: errorMessage(err)})
	if encodeErr != nil {
		that.logger.Error("failed to encode error", "error", encodeErr)
		return
	}

	if err = c.enqueue(frame); err != nil {
		c.logger.Warn("dropping client", "event", eventError, "error", err)
	}
}
