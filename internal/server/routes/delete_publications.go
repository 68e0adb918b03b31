package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

func DeletePublicationHandler(c echo.Context) error {
	type deletePublicationResponse struct {
		Message string `json:"message"`
	}

	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, deletePublicationResponse{
			Message: "Invalid request params",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	deleted, err := eng.DeletePublication(c.Request().Context(), id)
	if err != nil {
		logger.Error("Failed to delete publication", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, deletePublicationResponse{
			Message: "Internal server error",
		})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, deletePublicationResponse{
			Message: "Publication not found",
		})
	}

	return c.JSON(http.StatusOK, deletePublicationResponse{
		Message: "Publication deleted successfully",
	})
}
