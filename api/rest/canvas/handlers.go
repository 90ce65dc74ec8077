package canvas

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"codeberg.org/sharedcanvas/server/canvas/coordinator"
	"codeberg.org/sharedcanvas/server/canvas/documents"
	"codeberg.org/sharedcanvas/server/canvas/rooms"
	"codeberg.org/sharedcanvas/server/internal/errors"
	"codeberg.org/sharedcanvas/server/internal/logger"
)

const (
	defaultBackupLimit = 10
	maxBackupLimit     = 100
)

// live room occupancy; implemented by the coordinator
type OccupancyReader interface {
	Occupancy() coordinator.Occupancy
}

// GetCanvas godoc
// @Summary Get the shared canvas
// @Description Returns the current canvas document with the room's member count, capacity and host
// @Tags canvas
// @Produce json
// @Success 200 {object} CanvasResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/canvas [get]
func GetCanvasHandler(docs *documents.Repository, occupancy OccupancyReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := docs.Current(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to load canvas", err)
			return
		}

		occ := occupancy.Occupancy()

		c.JSON(http.StatusOK, CanvasResponse{
			Canvas:      doc,
			MemberCount: occ.MemberCount,
			Capacity:    occ.Capacity,
			RoomFull:    occ.RoomFull,
			Host:        occ.Host,
			LastUpdated: doc.LastUpdated,
		})
	}
}

// SaveCanvas godoc
// @Summary Save the canvas manually
// @Description Replaces the current canvas with the given strokes. The previous canvas is backed up and the save is recorded in history.
// @Tags canvas
// @Accept json
// @Produce json
// @Param request body SaveCanvasRequest true "Strokes to save"
// @Success 200 {object} SaveCanvasResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/canvas/save [post]
func SaveCanvasHandler(docs *documents.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SaveCanvasRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.BadRequest(c, "invalid canvas payload", err)
			return
		}

		if req.Strokes == nil {
			errors.BadRequest(c, "canvas strokes required", nil)
			return
		}

		doc, err := docs.SaveManual(c.Request.Context(), *req.Strokes)
		if err != nil {
			errors.InternalError(c, "failed to save canvas", err)
			return
		}

		c.JSON(http.StatusOK, SaveCanvasResponse{
			Success:     true,
			SavedAt:     doc.LastUpdated,
			StrokeCount: doc.StrokeCount,
		})
	}
}

// ListBackups godoc
// @Summary List canvas backups
// @Description Returns the most recent backups (newest first) with the total backup count and the current stroke count
// @Tags canvas
// @Produce json
// @Param limit query int false "Maximum backups to return (default 10, max 100)"
// @Success 200 {object} documents.BackupList
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/canvas/backups [get]
func ListBackupsHandler(docs *documents.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultBackupLimit

		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > maxBackupLimit {
				errors.ValidationError(c, fmt.Errorf("invalid limit %q: must be between 1 and %d", raw, maxBackupLimit))
				return
			}

			limit = parsed
		}

		list, err := docs.ListBackups(c.Request.Context(), limit)
		if err != nil {
			errors.InternalError(c, "failed to list backups", err)
			return
		}

		c.JSON(http.StatusOK, list)
	}
}

// RestoreCanvas godoc
// @Summary Restore a canvas backup
// @Description Replaces the current canvas with a backup, addressed by its position in newest-first order. The canvas being replaced is backed up first. Restricted to localhost or the ops token.
// @Tags ops
// @Accept json
// @Produce json
// @Param request body RestoreCanvasRequest true "Backup to restore"
// @Security OpsToken
// @Success 200 {object} RestoreCanvasResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/canvas/restore [post]
func RestoreHandler(docs *documents.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RestoreCanvasRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.BadRequest(c, "invalid restore request", err)
			return
		}

		if req.Index == nil || *req.Index < 0 {
			errors.BadRequest(c, "a non-negative backup index is required", nil)
			return
		}

		doc, err := docs.Restore(c.Request.Context(), *req.Index)
		if err != nil {
			if stderrors.Is(err, documents.ErrBackupIndex) {
				errors.NotFound(c, "backup")
				return
			}

			errors.InternalError(c, "failed to restore canvas", err)
			return
		}

		logger.Info("canvas restored", "index", *req.Index, "stroke_count", doc.StrokeCount)

		c.JSON(http.StatusOK, RestoreCanvasResponse{
			Success:     true,
			Index:       *req.Index,
			RestoredAt:  doc.LastUpdated,
			StrokeCount: doc.StrokeCount,
		})
	}
}

// ResetCanvas godoc
// @Summary Clear the canvas
// @Description Clears the current canvas after backing it up. Backups and save history are kept. Restricted to localhost or the ops token.
// @Tags ops
// @Accept json
// @Produce json
// @Param request body ResetCanvasRequest true "Confirmation"
// @Security OpsToken
// @Success 200 {object} ResetCanvasResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/canvas/reset [post]
func ResetHandler(docs *documents.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResetCanvasRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.BadRequest(c, "invalid reset request", err)
			return
		}

		if !req.Confirm {
			errors.BadRequest(c, "reset must be confirmed", nil)
			return
		}

		doc, err := docs.Reset(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to reset canvas", err)
			return
		}

		logger.Info("canvas reset")

		c.JSON(http.StatusOK, ResetCanvasResponse{
			Success: true,
			ResetAt: doc.LastUpdated,
		})
	}
}

// Rooms godoc
// @Summary Room statistics
// @Description Returns room manager statistics and a summary of every live room
// @Tags canvas
// @Produce json
// @Success 200 {object} RoomsResponse
// @Router /api/v1/canvas/rooms [get]
func RoomsHandler(manager *rooms.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		live := manager.Rooms()

		summaries := make([]rooms.Summary, 0, len(live))
		for _, room := range live {
			summaries = append(summaries, room.Summary())
		}

		c.JSON(http.StatusOK, RoomsResponse{
			Stats: manager.Stats(),
			Rooms: summaries,
		})
	}
}
