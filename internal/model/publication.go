package model

// Publication carries an ordered author list referencing researcher ids.
type Publication struct {
	ID                string             `bson:"_id,omitempty" json:"_id,omitempty"`
	Title             string             `bson:"title" json:"title"`
	PublicationType   string             `bson:"publication_type,omitempty" json:"publication_type,omitempty"`
	BibliographicInfo BibliographicInfo  `bson:"bibliographic_info" json:"bibliographic_info"`
	Authors           []Author           `bson:"authors" json:"authors"`
	Keywords          []string           `bson:"keywords,omitempty" json:"keywords,omitempty"`
	ResearchAreas     []string           `bson:"research_areas,omitempty" json:"research_areas,omitempty"`
	Metrics           PublicationMetrics `bson:"metrics" json:"metrics"`
	Metadata          *Metadata          `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type BibliographicInfo struct {
	Journal         string `bson:"journal,omitempty" json:"journal,omitempty"`
	PublicationDate string `bson:"publication_date,omitempty" json:"publication_date,omitempty"`
	DOI             string `bson:"doi,omitempty" json:"doi,omitempty"`
	Volume          string `bson:"volume,omitempty" json:"volume,omitempty"`
	Pages           string `bson:"pages,omitempty" json:"pages,omitempty"`
}

type Author struct {
	ResearcherID string `bson:"researcher_id" json:"researcher_id"`
	AuthorOrder  int    `bson:"author_order" json:"author_order"`
	Contribution string `bson:"contribution,omitempty" json:"contribution,omitempty"`
}

type PublicationMetrics struct {
	CitationCount int `bson:"citation_count" json:"citation_count"`
	DownloadCount int `bson:"download_count" json:"download_count"`
	ViewCount     int `bson:"view_count" json:"view_count"`
}
