package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// EditPublicationHandler applies a partial update. Metric changes flow to
// the analytics pipeline as a fresh event.
func EditPublicationHandler(c echo.Context) error {
	type editPublicationResponse struct {
		Message string `json:"message"`
		Updated bool   `json:"updated"`
	}

	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, editPublicationResponse{
			Message: "Invalid request params",
		})
	}

	fields := map[string]any{}
	if err := c.Bind(&fields); err != nil {
		return c.JSON(http.StatusBadRequest, editPublicationResponse{
			Message: "Invalid request body",
		})
	}
	delete(fields, "_id")
	delete(fields, "metadata")
	if len(fields) == 0 {
		return c.JSON(http.StatusBadRequest, editPublicationResponse{
			Message: "No fields to update",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	updated, err := eng.UpdatePublication(c.Request().Context(), id, fields)
	if err != nil {
		logger.Error("Failed to update publication", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, editPublicationResponse{
			Message: "Internal server error",
		})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, editPublicationResponse{
			Message: "Publication not found",
		})
	}

	return c.JSON(http.StatusOK, editPublicationResponse{
		Message: "Publication updated successfully",
		Updated: true,
	})
}
