package model

// Project statuses accepted by the API.
const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusPlanned   = "planned"
	ProjectStatusOnHold    = "on_hold"
)

// Project references researchers by value through participant lists.
// There is no foreign-key enforcement; references resolve (or not) at read time.
type Project struct {
	ID           string       `bson:"_id,omitempty" json:"_id,omitempty"`
	Title        string       `bson:"title" json:"title"`
	Description  string       `bson:"description,omitempty" json:"description,omitempty"`
	Status       string       `bson:"status" json:"status"`
	Timeline     Timeline     `bson:"timeline" json:"timeline"`
	Funding      Funding      `bson:"funding,omitempty" json:"funding,omitempty"`
	Participants Participants `bson:"participants" json:"participants"`
	Metadata     *Metadata    `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// Timeline dates are ISO-8601 strings, matching the wire format.
type Timeline struct {
	StartDate string `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate   string `bson:"end_date,omitempty" json:"end_date,omitempty"`
}

type Funding struct {
	Source   string  `bson:"source,omitempty" json:"source,omitempty"`
	Amount   float64 `bson:"amount,omitempty" json:"amount,omitempty"`
	Currency string  `bson:"currency,omitempty" json:"currency,omitempty"`
}

type Participants struct {
	PrincipalInvestigators []ParticipantRef `bson:"principal_investigators,omitempty" json:"principal_investigators,omitempty"`
	CoInvestigators        []ParticipantRef `bson:"co_investigators,omitempty" json:"co_investigators,omitempty"`
	ResearchAssistants     []ParticipantRef `bson:"research_assistants,omitempty" json:"research_assistants,omitempty"`
}

type ParticipantRef struct {
	ResearcherID string `bson:"researcher_id" json:"researcher_id"`
	Role         string `bson:"role,omitempty" json:"role,omitempty"`
}

// ValidProjectStatus reports whether s is one of the accepted statuses.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusPlanned, ProjectStatusOnHold:
		return true
	}
	return false
}
