package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"othello-live/internal/companion"
	"othello-live/internal/protocol"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// @Summary Suggest a move
// @Description Runs the companion search on the posted game and returns [x, y]
// @Tags Companion
// @Accept json
// @Produce json
// @Security SessionToken
// @Param request body CompanionRequest true "Game and optional depth"
// @Success 200 {object} CompanionResponse
// @Failure 400 {object} MessageResponse
// @Failure 401 {object} MessageResponse
// @Failure 422 {object} MessageResponse
// @Router /companion [post]
func CompanionHandler(proc *protocol.Processor, depth, maxDepth int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c, proc); !ok {
			return
		}
		var req CompanionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWith(c, proc, protocol.Malformed("invalid companion request: "+err.Error(), err))
			return
		}
		d := depth
		if req.Depth > 0 {
			d = min(req.Depth, maxDepth)
		}
		m, err := companion.Suggest(req.Game, d)
		if errors.Is(err, companion.ErrNoMoves) {
			abortWith(c, proc, protocol.Invalid(err))
			return
		}
		if err != nil {
			abortWith(c, proc, protocol.WrapInternal(err))
			return
		}
		c.JSON(http.StatusOK, CompanionResponse{Message: [2]int{m.X, m.Y}, Code: http.StatusOK})
	}
}

// @Summary Activate a room
// @Description Creates the live room of an accepted game, restoring its cached snapshot if any
// @Tags Room
// @Produce json
// @Security SessionToken
// @Param id path string true "Game ID (uuid)"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} MessageResponse
// @Failure 404 {object} MessageResponse
// @Failure 409 {object} MessageResponse
// @Router /games/{id}/activate [post]
func ActivateHandler(proc *protocol.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authenticate(c, proc)
		if !ok {
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			abortWith(c, proc, protocol.ErrInvalidGameID.With(err))
			return
		}
		if err := proc.Activate(c.Request.Context(), userID, id); err != nil {
			abortWith(c, proc, err)
			return
		}
		c.JSON(http.StatusCreated, MessageResponse{Message: "room is live", Code: http.StatusCreated})
	}
}

// Pinger is the part of the cache /healthz checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// @Summary Health check
// @Tags Ops
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func HealthHandler(proc *protocol.Processor, connections func() int64, cache Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := HealthResponse{
			Status:      "ok",
			Rooms:       proc.Rooms().Len(),
			Connections: connections(),
			Cache:       "ok",
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := cache.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Cache = err.Error()
		}
		c.JSON(http.StatusOK, resp)
	}
}
