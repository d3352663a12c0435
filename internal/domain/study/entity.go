package study

import (
	"time"

	"github.com/google/uuid"
)

// Question is a single multiple-choice question
type Question struct {
	ID           uuid.UUID `json:"id"`
	Prompt       string    `json:"prompt"`
	Options      []string  `json:"options"`
	CorrectIndex int       `json:"correctIndex"`
	Explanation  string    `json:"explanation"`
}

// Quiz is a generated set of questions
type Quiz struct {
	ID        uuid.UUID  `json:"id"`
	Questions []Question `json:"questions"`
}

// Flashcard is a question-answer pair
type Flashcard struct {
	ID       uuid.UUID `json:"id"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
}

// GroundingSource is a web citation backing generated content
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// SimpleExplainer is a short summary with a diagram prompt
type SimpleExplainer struct {
	Title            string            `json:"title"`
	Points           []string          `json:"points"`
	DiagramPrompt    string            `json:"diagramPrompt"`
	DiagramURL       string            `json:"diagramUrl,omitempty"`
	GroundingSources []GroundingSource `json:"groundingSources,omitempty"`
}

// ScheduleEntry assigns a section to a study day
type ScheduleEntry struct {
	ID           uuid.UUID `json:"id"`
	SectionTitle string    `json:"sectionTitle"`
	Date         string    `json:"date"` // YYYY-MM-DD
}

// StudySchedule is a generated study plan
type StudySchedule struct {
	Entries []ScheduleEntry `json:"schedule"`
}

// CourseDraft is a course section reconstructed from a document image
type CourseDraft struct {
	CourseTitle  string `json:"courseTitle"`
	SectionTitle string `json:"sectionTitle"`
	Notes        string `json:"notes"`
}

// DateLayout is the calendar date format used by schedules
const DateLayout = time.DateOnly

// ValidDate reports whether s is a real YYYY-MM-DD calendar date
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
