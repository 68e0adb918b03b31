package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/model"
	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

func CreatePublicationHandler(c echo.Context) error {
	type createPublicationBody struct {
		Title             string                   `json:"title" validate:"required"`
		PublicationType   string                   `json:"publication_type"`
		BibliographicInfo model.BibliographicInfo  `json:"bibliographic_info"`
		Authors           []model.Author           `json:"authors" validate:"required,min=1,dive"`
		Keywords          []string                 `json:"keywords"`
		ResearchAreas     []string                 `json:"research_areas"`
		Metrics           model.PublicationMetrics `json:"metrics"`
	}

	type createPublicationResponse struct {
		Message string `json:"message"`
		ID      string `json:"id,omitempty"`
	}

	data := new(createPublicationBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createPublicationResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createPublicationResponse{
			Message: "Invalid request body",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	id, err := eng.CreatePublication(c.Request().Context(), model.Publication{
		Title:             data.Title,
		PublicationType:   data.PublicationType,
		BibliographicInfo: data.BibliographicInfo,
		Authors:           data.Authors,
		Keywords:          data.Keywords,
		ResearchAreas:     data.ResearchAreas,
		Metrics:           data.Metrics,
	})
	if err != nil {
		logger.Error("Failed to create publication", "err", err)
		return c.JSON(http.StatusInternalServerError, createPublicationResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusCreated, createPublicationResponse{
		Message: "Publication created successfully",
		ID:      id,
	})
}
