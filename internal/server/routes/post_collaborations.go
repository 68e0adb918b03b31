package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/internal/store"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// CreateCollaborationHandler records a relationship between two
// researchers. Repeated CO_AUTHORED_WITH submissions strengthen the edge
// instead of duplicating it.
func CreateCollaborationHandler(c echo.Context) error {
	type createCollaborationBody struct {
		SourceID   string         `json:"source_id" validate:"required"`
		TargetID   string         `json:"target_id" validate:"required"`
		Type       string         `json:"type"`
		Properties map[string]any `json:"properties"`
	}

	type createCollaborationResponse struct {
		Message string `json:"message"`
	}

	data := new(createCollaborationBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createCollaborationResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createCollaborationResponse{
			Message: "Invalid request body",
		})
	}
	if data.Type == "" {
		data.Type = store.RelCoAuthored
	}

	eng := c.(*middleware.AppContext).App.Engine
	err := eng.AddCollaboration(c.Request().Context(), data.SourceID, data.TargetID, data.Type, data.Properties)
	if err != nil {
		logger.Error("Failed to record collaboration",
			"source", data.SourceID, "target", data.TargetID, "type", data.Type, "err", err)
		return c.JSON(http.StatusBadRequest, createCollaborationResponse{
			Message: "Invalid request body",
		})
	}

	return c.JSON(http.StatusCreated, createCollaborationResponse{
		Message: "Collaboration recorded successfully",
	})
}
