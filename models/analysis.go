package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntitySet groups recognized entity surface forms by category. All four
// categories are always present; an empty category is an empty slice, never
// nil, so the wire form is always an array.
type EntitySet struct {
	Organizations []string `bson:"organizations" json:"organizations"`
	Products      []string `bson:"products" json:"products"`
	Technologies  []string `bson:"technologies" json:"technologies"`
	Markets       []string `bson:"markets" json:"markets"`
}

// NewEntitySet returns an EntitySet with all categories initialized.
func NewEntitySet() EntitySet {
	return EntitySet{
		Organizations: []string{},
		Products:      []string{},
		Technologies:  []string{},
		Markets:       []string{},
	}
}

// Analysis is the persisted record of one document analysis. It is built
// once per request and immutable after assembly; ownership transfers to the
// result store on insert.
type Analysis struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	AnalysisID      string             `bson:"analysis_id" json:"analysis_id"`
	Entities        EntitySet          `bson:"entities" json:"entities"`
	KeyTopics       []string           `bson:"key_topics" json:"key_topics"`
	Summary         string             `bson:"summary" json:"summary"`
	SummaryDegraded bool               `bson:"summary_degraded" json:"-"`
	DocumentType    string             `bson:"document_type" json:"document_type"`
	Filename        string             `bson:"filename" json:"filename"`
	Pages           int                `bson:"pages" json:"-"`
	SentenceCount   int                `bson:"sentence_count" json:"-"`
	// Extracted text, gzip-compressed, kept for reprocessing and audit.
	CompressedText  []byte    `bson:"compressed_text,omitempty" json:"-"`
	TextCompression string    `bson:"text_compression,omitempty" json:"-"`
	CreatedAt       time.Time `bson:"created_at" json:"-"`
}

// AnalysisResponse is the wire shape returned by the analyze endpoints.
type AnalysisResponse struct {
	Entities     EntitySet `json:"entities"`
	KeyTopics    []string  `json:"key_topics"`
	DocumentType string    `json:"document_type"`
	Filename     string    `json:"filename"`
	Summary      string    `json:"summary"`
}

// Response converts the stored record into its wire shape.
func (a *Analysis) Response() AnalysisResponse {
	return AnalysisResponse{
		Entities:     a.Entities,
		KeyTopics:    a.KeyTopics,
		DocumentType: a.DocumentType,
		Filename:     a.Filename,
		Summary:      a.Summary,
	}
}

// AsyncSubmitResponse is returned when an analysis is queued for background
// processing instead of being run inline.
type AsyncSubmitResponse struct {
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`
	Filename string `json:"filename"`
}
