package models

// FirstSectionID is the id given to the first section seen on a page.
const FirstSectionID = 1001

// FirstLessonID is the id given to the first lesson seen on a page.
const FirstLessonID = 1

// SectionRecord is one grouping header met while walking the lesson markup.
// It is never serialized on its own; lessons carry a snapshot of it.
type SectionRecord struct {
	ID              int
	Title           string
	DurationMinutes string
}

// LessonRecord is one lesson row.
type LessonRecord struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationMinutes string `json:"durationMinutes"`
	TimeRange       string `json:"timeRange"`
	LessonURL       string `json:"lessonUrl"`
	SectionID       int    `json:"sectionId"`
	SectionTitle    string `json:"sectionTitle"`
	SectionDuration string `json:"sectionDuration"`
}

// InSection returns a copy of the lesson that points at the given section.
func (l LessonRecord) InSection(s SectionRecord) LessonRecord {
	l.SectionID = s.ID
	l.SectionTitle = s.Title
	l.SectionDuration = s.DurationMinutes

	return l
}
