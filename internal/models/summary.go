package models

// CourseSummary aggregates a payload for display.
type CourseSummary struct {
	Title                  string
	Tutor                  string
	Sections               int
	Lessons                int
	DeclaredMinutes        int
	LessonMinutes          int
	LessonsWithoutDuration int
}
