package gamehandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sketchparty/internal/services/game"
)

// Handler exposes a read-only REST surface over the game service. All
// mutation goes through the WebSocket path.
type Handler struct {
	svc game.IGameService
}

func New(svc game.IGameService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/rooms", h.rooms)
	r.GET("/sessions", h.sessions)
}

func (h *Handler) rooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.RoomsInfo())
}

func (h *Handler) sessions(c *gin.Context) {
	c.JSON(http.StatusOK, SessionsResponse{SessionsCount: h.svc.SessionsCount()})
}
