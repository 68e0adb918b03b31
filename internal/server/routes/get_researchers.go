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

func GetResearcherHandler(c echo.Context) error {
	type getResearcherParams struct {
		ID string `param:"id" validate:"required"`
	}

	type getResearcherResponse struct {
		Message    string            `json:"message"`
		Researcher *model.Researcher `json:"researcher,omitempty"`
	}

	params := new(getResearcherParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, getResearcherResponse{
			Message: "Invalid request params",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, getResearcherResponse{
			Message: "Invalid request params",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	researcher, err := eng.GetResearcher(c.Request().Context(), params.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getResearcherResponse{
				Message: "Researcher not found",
			})
		}
		logger.Error("Failed to get researcher", "id", params.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, getResearcherResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getResearcherResponse{
		Message:    "Researcher found",
		Researcher: &researcher,
	})
}

// SearchResearchersHandler filters the researcher collection. Name input is
// tokenized so "marie curie" matches first and last name in any order.
func SearchResearchersHandler(c echo.Context) error {
	type searchResearchersQuery struct {
		Name                 string   `query:"name"`
		DepartmentID         string   `query:"department_id"`
		Position             string   `query:"position"`
		Interests            []string `query:"interests"`
		MinHIndex            *int     `query:"min_h_index"`
		MaxHIndex            *int     `query:"max_h_index"`
		MinPublications      *int     `query:"min_publications"`
		MaxPublications      *int     `query:"max_publications"`
		SortBy               string   `query:"sort_by"`
		Order                string   `query:"order"`
		Limit                int      `query:"limit"`
		IncludeCollaborators bool     `query:"include_collaborators"`
	}

	type searchResearchersResponse struct {
		Message string                          `json:"message"`
		Count   int                             `json:"count"`
		Results []engine.ResearcherSearchResult `json:"results"`
	}

	query := new(searchResearchersQuery)
	if err := c.Bind(query); err != nil {
		return c.JSON(http.StatusBadRequest, searchResearchersResponse{
			Message: "Invalid query params",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	results, err := eng.SearchResearchers(c.Request().Context(), engine.ResearcherSearchCriteria{
		Name:                 query.Name,
		DepartmentID:         query.DepartmentID,
		Position:             query.Position,
		Interests:            query.Interests,
		MinHIndex:            query.MinHIndex,
		MaxHIndex:            query.MaxHIndex,
		MinPublications:      query.MinPublications,
		MaxPublications:      query.MaxPublications,
		SortBy:               query.SortBy,
		SortAscending:        query.Order == "asc",
		Limit:                query.Limit,
		IncludeCollaborators: query.IncludeCollaborators,
	})
	if err != nil {
		logger.Error("Failed to search researchers", "err", err)
		return c.JSON(http.StatusInternalServerError, searchResearchersResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, searchResearchersResponse{
		Message: "Search completed",
		Count:   len(results),
		Results: results,
	})
}
