package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// DeleteResearcherHandler removes the researcher everywhere: document
// record, graph node with incident edges, and cache entries.
func DeleteResearcherHandler(c echo.Context) error {
	type deleteResearcherResponse struct {
		Message        string   `json:"message"`
		DegradedStores []string `json:"degraded_stores,omitempty"`
	}

	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, deleteResearcherResponse{
			Message: "Invalid request params",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	result, err := eng.DeleteResearcher(c.Request().Context(), id)
	if err != nil {
		logger.Error("Failed to delete researcher", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteResearcherResponse{
			Message: "Internal server error",
		})
	}
	if !result.Deleted {
		return c.JSON(http.StatusNotFound, deleteResearcherResponse{
			Message: "Researcher not found",
		})
	}

	return c.JSON(http.StatusOK, deleteResearcherResponse{
		Message:        "Researcher deleted successfully",
		DegradedStores: result.Mirror.DegradedStores(),
	})
}
