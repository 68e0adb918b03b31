package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// EditResearcherHandler applies a partial update. The body is a flat or
// nested field map; dot paths like "collaboration_metrics.h_index" are
// passed through to the document store.
func EditResearcherHandler(c echo.Context) error {
	type editResearcherResponse struct {
		Message        string   `json:"message"`
		Updated        bool     `json:"updated"`
		DegradedStores []string `json:"degraded_stores,omitempty"`
	}

	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, editResearcherResponse{
			Message: "Invalid request params",
		})
	}

	fields := map[string]any{}
	if err := c.Bind(&fields); err != nil {
		return c.JSON(http.StatusBadRequest, editResearcherResponse{
			Message: "Invalid request body",
		})
	}
	delete(fields, "_id")
	delete(fields, "metadata")
	if len(fields) == 0 {
		return c.JSON(http.StatusBadRequest, editResearcherResponse{
			Message: "No fields to update",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	result, err := eng.UpdateResearcher(c.Request().Context(), id, fields)
	if err != nil {
		logger.Error("Failed to update researcher", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, editResearcherResponse{
			Message: "Internal server error",
		})
	}
	if !result.Updated {
		return c.JSON(http.StatusNotFound, editResearcherResponse{
			Message: "Researcher not found",
		})
	}

	return c.JSON(http.StatusOK, editResearcherResponse{
		Message:        "Researcher updated successfully",
		Updated:        true,
		DegradedStores: result.Mirror.DegradedStores(),
	})
}
