package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sketchparty/internal/broadcast"
	"sketchparty/internal/services/game"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 12 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true }, // dev-only
}

type WsServer struct {
	router     *Router
	dispatcher *broadcast.Dispatcher
	gameSvc    game.IGameService
	readLimit  int64
	pingPeriod time.Duration
}

func NewWsServer(dispatcher *broadcast.Dispatcher, gameSvc game.IGameService, readLimit int64, pingPeriod time.Duration) *WsServer {
	srv := &WsServer{
		router:     NewRouter(),
		dispatcher: dispatcher,
		gameSvc:    gameSvc,
		readLimit:  readLimit,
		pingPeriod: pingPeriod,
	}
	srv.registerHandlers() // ← all WS commands configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(s.readLimit)

	// ─────────────────── Client connected ────────────────────────
	// The mailbox exists before any command is processed, so every
	// broadcast this connection qualifies for reaches it.
	connID := uuid.NewString()
	conn := &clientConn{rawConn: rawConn}
	s.dispatcher.Register(connID, conn.write)

	go s.reader(connID, conn)
	go s.pinger(conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	Register(s.router, CmdJoinServer, func(c *ConnContext, _ EmptyRequest) error {
		return s.gameSvc.JoinServer(c.ConnID)
	})
	Register(s.router, CmdLeaveServer, func(c *ConnContext, _ EmptyRequest) error {
		s.gameSvc.LeaveServer(c.ConnID)
		return nil
	})
	Register(s.router, CmdSetUsername, func(c *ConnContext, req SetUsernameRequest) error {
		return s.gameSvc.SetUsername(c.ConnID, req.Username)
	})
	Register(s.router, CmdCreateRoom, func(c *ConnContext, req CreateRoomRequest) error {
		return s.gameSvc.CreateRoom(c.ConnID, req.RoomName)
	})
	Register(s.router, CmdJoinRoom, func(c *ConnContext, req JoinRoomRequest) error {
		return s.gameSvc.JoinRoom(c.ConnID, req.RoomID)
	})
	Register(s.router, CmdLeaveRoom, func(c *ConnContext, _ EmptyRequest) error {
		return s.gameSvc.LeaveRoom(c.ConnID)
	})
	Register(s.router, CmdSubmitGuess, func(c *ConnContext, req SubmitGuessRequest) error {
		return s.gameSvc.SubmitGuess(c.ConnID, req.Guess)
	})
}

func (s *WsServer) reader(connID string, conn *clientConn) {
	defer func() {
		// Unregister first so the dead connection's pending mail is
		// discarded while everyone else still gets the leave broadcast.
		s.dispatcher.Unregister(connID)
		s.gameSvc.Disconnect(connID)
		conn.close()
	}()

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cc := &ConnContext{ConnID: connID}

	for {
		_, raw, err := conn.rawConn.ReadMessage()
		if err != nil {
			return // client closed or errored
		}

		var env commandEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.rejectInvalid(connID, "malformed frame")
			continue
		}

		err = s.router.dispatch(cc, env.Type, raw)
		switch {
		case err == nil:
		case errors.Is(err, ErrInvalidMessage):
			s.rejectInvalid(connID, err.Error())
		default:
			// Recoverable per-command failure: no mutation happened,
			// nothing goes out, other connections are unaffected.
			zap.L().Debug("ws.command_rejected",
				zap.String("conn_id", connID),
				zap.String("type", env.Type),
				zap.Error(err))
		}
	}
}

// rejectInvalid notifies the originating connection only, through its
// mailbox so the notice keeps its place in the outbound order.
func (s *WsServer) rejectInvalid(connID, reason string) {
	data, err := json.Marshal(InvalidMessageNotice{
		Event: EventInvalidMessage,
		Error: reason,
	})
	if err != nil {
		return
	}
	s.dispatcher.Enqueue(connID, data)
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(s.pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.ping(); err != nil {
			conn.close()
			return
		}
	}
}
