package model

import "time"

// Collection names in the document store.
const (
	CollectionResearchers  = "researchers"
	CollectionProjects     = "projects"
	CollectionPublications = "publications"
)

// Researcher is the document-store source of truth for a researcher.
// The ID doubles as the graph node property "id" and the cache key suffix.
type Researcher struct {
	ID                   string               `bson:"_id,omitempty" json:"_id,omitempty"`
	PersonalInfo         PersonalInfo         `bson:"personal_info" json:"personal_info"`
	AcademicProfile      AcademicProfile      `bson:"academic_profile" json:"academic_profile"`
	ResearchInterests    []string             `bson:"research_interests,omitempty" json:"research_interests,omitempty"`
	CollaborationMetrics CollaborationMetrics `bson:"collaboration_metrics" json:"collaboration_metrics"`
	Metadata             *Metadata            `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type PersonalInfo struct {
	FirstName string `bson:"first_name" json:"first_name"`
	LastName  string `bson:"last_name" json:"last_name"`
	Email     string `bson:"email" json:"email"`
	OrcidID   string `bson:"orcid_id,omitempty" json:"orcid_id,omitempty"`
}

type AcademicProfile struct {
	DepartmentID string `bson:"department_id" json:"department_id"`
	Position     string `bson:"position" json:"position"`
}

type CollaborationMetrics struct {
	HIndex             int     `bson:"h_index" json:"h_index"`
	TotalPublications  int     `bson:"total_publications" json:"total_publications"`
	CitationCount      int     `bson:"citation_count" json:"citation_count"`
	CollaborationScore float64 `bson:"collaboration_score" json:"collaboration_score"`
}

// Metadata is stamped by the document store on create and update.
type Metadata struct {
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
	Status      string    `bson:"status,omitempty" json:"status,omitempty"`
	Verified    bool      `bson:"verified" json:"verified"`
}

// FullName joins first and last name the way graph node names are stored.
func (r Researcher) FullName() string {
	return r.PersonalInfo.FirstName + " " + r.PersonalInfo.LastName
}
