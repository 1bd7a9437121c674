package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tripfolio/tripfolio/internal/app/engine"
	"github.com/tripfolio/tripfolio/internal/app/models"
)

// TripMapHandler exposes the engine's consumer contract over HTTP.
type TripMapHandler struct {
	engine engine.Service
	logger *zap.Logger
}

// NewTripMapHandler creates the handler.
func NewTripMapHandler(eng engine.Service, logger *zap.Logger) *TripMapHandler {
	return &TripMapHandler{engine: eng, logger: logger}
}

// BuildTripMap runs one resolution pass for the posted trip. The request
// context doubles as the pass's liveness flag: a client that disconnects
// cancels the pass, and nothing is emitted for it.
func (h *TripMapHandler) BuildTripMap(c *gin.Context) {
	var trip models.Trip
	if err := c.ShouldBindJSON(&trip); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip payload"})
		return
	}

	result, err := h.engine.BuildTripMap(c.Request.Context(), trip)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Caller is gone; there is nobody to answer.
			c.Abort()
			return
		}
		h.logger.Error("Resolution pass failed",
			zap.String("trip_id", trip.ID.String()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build trip map"})
		return
	}

	c.JSON(http.StatusOK, result)
}
