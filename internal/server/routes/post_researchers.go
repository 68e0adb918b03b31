package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/atlas-collab/atlas/backend/internal/model"
	"github.com/atlas-collab/atlas/backend/internal/server/middleware"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// CreateResearcherHandler creates a researcher and mirrors it into the
// secondary stores. Mirror failures do not fail the request; the degraded
// stores are named in the response.
func CreateResearcherHandler(c echo.Context) error {
	type personalInfoBody struct {
		FirstName string `json:"first_name" validate:"required"`
		LastName  string `json:"last_name" validate:"required"`
		Email     string `json:"email" validate:"required,email"`
		OrcidID   string `json:"orcid_id"`
	}

	type createResearcherBody struct {
		PersonalInfo         personalInfoBody           `json:"personal_info" validate:"required"`
		AcademicProfile      model.AcademicProfile      `json:"academic_profile"`
		ResearchInterests    []string                   `json:"research_interests"`
		CollaborationMetrics model.CollaborationMetrics `json:"collaboration_metrics"`
	}

	type createResearcherResponse struct {
		Message        string   `json:"message"`
		ID             string   `json:"id,omitempty"`
		DegradedStores []string `json:"degraded_stores,omitempty"`
	}

	data := new(createResearcherBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createResearcherResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createResearcherResponse{
			Message: "Invalid request body",
		})
	}

	eng := c.(*middleware.AppContext).App.Engine
	result, err := eng.CreateResearcher(c.Request().Context(), model.Researcher{
		PersonalInfo: model.PersonalInfo{
			FirstName: data.PersonalInfo.FirstName,
			LastName:  data.PersonalInfo.LastName,
			Email:     data.PersonalInfo.Email,
			OrcidID:   data.PersonalInfo.OrcidID,
		},
		AcademicProfile:      data.AcademicProfile,
		ResearchInterests:    data.ResearchInterests,
		CollaborationMetrics: data.CollaborationMetrics,
	})
	if err != nil {
		logger.Error("Failed to create researcher", "err", err)
		return c.JSON(http.StatusInternalServerError, createResearcherResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusCreated, createResearcherResponse{
		Message:        "Researcher created successfully",
		ID:             result.ID,
		DegradedStores: result.Mirror.DegradedStores(),
	})
}
