package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/internal/store"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

func DeleteCollaborationHandler(c echo.Context) error {
	type deleteCollaborationBody struct {
		SourceID string `json:"source_id" validate:"required"`
		TargetID string `json:"target_id" validate:"required"`
		Type     string `json:"type"`
	}

	type deleteCollaborationResponse struct {
		Message string `json:"message"`
	}

	data := new(deleteCollaborationBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteCollaborationResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteCollaborationResponse{
			Message: "Invalid request body",
		})
	}
	if data.Type == "" {
		data.Type = store.RelCoAuthored
	}

	eng := c.(*middleware.AppContext).App.Engine
	err := eng.RemoveCollaboration(c.Request().Context(), data.SourceID, data.TargetID, data.Type)
	if err != nil {
		logger.Error("Failed to remove collaboration",
			"source", data.SourceID, "target", data.TargetID, "type", data.Type, "err", err)
		return c.JSON(http.StatusBadRequest, deleteCollaborationResponse{
			Message: "Invalid request body",
		})
	}

	return c.JSON(http.StatusOK, deleteCollaborationResponse{
		Message: "Collaboration removed successfully",
	})
}
