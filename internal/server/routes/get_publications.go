package routes

import (
	"errors"
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/engine"
	"github.com/atlas-collab/atlas/backend/internal/model"
	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/internal/store"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

func GetPublicationHandler(c echo.Context) error {
	type getPublicationResponse struct {
		Message     string             `json:"message"`
		Publication *model.Publication `json:"publication,omitempty"`
	}

	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, getPublicationResponse{
			Message: "Invalid request params",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	publication, err := eng.GetPublication(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getPublicationResponse{
				Message: "Publication not found",
			})
		}
		logger.Error("Failed to get publication", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, getPublicationResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getPublicationResponse{
		Message:     "Publication found",
		Publication: &publication,
	})
}

// SearchPublicationsHandler filters publications and resolves author names.
// An author filter that matches no researcher yields an empty result.
func SearchPublicationsHandler(c echo.Context) error {
	type searchPublicationsQuery struct {
		Author       string   `query:"author"`
		Journal      string   `query:"journal"`
		DateFrom     string   `query:"date_from"`
		DateTo       string   `query:"date_to"`
		Keywords     []string `query:"keywords"`
		MinCitations *int     `query:"min_citations"`
		Limit        int      `query:"limit"`
	}

	type searchPublicationsResponse struct {
		Message string                           `json:"message"`
		Count   int                              `json:"count"`
		Results []engine.PublicationSearchResult `json:"results"`
	}

	query := new(searchPublicationsQuery)
	if err := c.Bind(query); err != nil {
		return c.JSON(http.StatusBadRequest, searchPublicationsResponse{
			Message: "Invalid query params",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	results, err := eng.SearchPublications(c.Request().Context(), engine.PublicationSearchCriteria{
		AuthorName:   query.Author,
		Journal:      query.Journal,
		DateFrom:     query.DateFrom,
		DateTo:       query.DateTo,
		Keywords:     query.Keywords,
		MinCitations: query.MinCitations,
		Limit:        query.Limit,
	})
	if err != nil {
		logger.Error("Failed to search publications", "err", err)
		return c.JSON(http.StatusInternalServerError, searchPublicationsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, searchPublicationsResponse{
		Message: "Search completed",
		Count:   len(results),
		Results: results,
	})
}
