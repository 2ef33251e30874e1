// Package models defines the records produced by extraction and the exported payloads.
package models

// CourseRecord holds course-level metadata read from a course-detail page.
type CourseRecord struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	Tutor                string `json:"tutor"`
	TotalDurationMinutes string `json:"totalDurationMinutes"`
	PublishedDate        string `json:"publishedDate"`
	SectionCount         int    `json:"sectionCount"`
	LessonCount          int    `json:"lessonCount"`
	CanonicalURL         string `json:"canonicalUrl"`
}

// ExportPayload is the first export artifact, written as <slug>.json.
type ExportPayload struct {
	CourseData CourseRecord   `json:"courseData"`
	Lessons    []LessonRecord `json:"lessons"`
}
