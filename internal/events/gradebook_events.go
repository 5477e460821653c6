package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of gradebook change events
type EventType string

const (
	// Category events
	EventCategoryCreated EventType = "gradebook.category.created"
	EventCategoryUpdated EventType = "gradebook.category.updated"
	EventCategoryDeleted EventType = "gradebook.category.deleted"

	// Item events
	EventItemCreated EventType = "gradebook.item.created"
	EventItemUpdated EventType = "gradebook.item.updated"
	EventItemDeleted EventType = "gradebook.item.deleted"

	// Score events
	EventScoreRecorded EventType = "gradebook.score.recorded"

	// Aggregate events
	EventStructureChanged EventType = "gradebook.structure.changed"
	EventGradesExported   EventType = "gradebook.grades.exported"
)

// GradebookEvent is the base event structure for all gradebook events
type GradebookEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type CategoryChangedEvent struct {
	GradebookID uint     `json:"gradebook_id"`
	CategoryID  uint     `json:"category_id"`
	ParentID    *uint    `json:"parent_id,omitempty"`
	Name        string   `json:"name"`
	Weight      *float64 `json:"weight,omitempty"`
	ExtraCredit bool     `json:"extra_credit"`
	ActorID     uint     `json:"actor_id"`
}

type ItemChangedEvent struct {
	GradebookID uint     `json:"gradebook_id"`
	ItemID      uint     `json:"item_id"`
	CategoryID  *uint    `json:"category_id,omitempty"`
	Name        string   `json:"name"`
	Weight      *float64 `json:"weight,omitempty"`
	ExtraCredit bool     `json:"extra_credit"`
	MaxGrade    float64  `json:"max_grade"`
	ActorID     uint     `json:"actor_id"`
}

type ScoreRecordedEvent struct {
	GradebookID  uint    `json:"gradebook_id"`
	ItemID       uint    `json:"item_id"`
	EnrollmentID uint    `json:"enrollment_id"`
	RawScore     float64 `json:"raw_score"`
	ActorID      uint    `json:"actor_id"`
}

type StructureChangedEvent struct {
	GradebookID uint `json:"gradebook_id"`
	ActorID     uint `json:"actor_id"`
}

type GradesExportedEvent struct {
	GradebookID     uint   `json:"gradebook_id"`
	Format          string `json:"format"`
	EnrollmentCount int    `json:"enrollment_count"`
	ActorID         uint   `json:"actor_id"`
}

// NewGradebookEvent wraps a payload in the event envelope with a fresh id
// and the standard source/version markers.
func NewGradebookEvent(eventType EventType, data interface{}) *GradebookEvent {
	return &GradebookEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "gradebook-service",
		Version:   "1.0",
		Data:      data,
	}
}
