package normalizer

import (
	"errors"
	"fmt"

	"coursexport/internal/models"
)

// Validation errors.
var (
	ErrNilPayload           = errors.New("invalid payload: nil")
	ErrMissingTitle         = errors.New("missing course title")
	ErrLessonCountMismatch  = errors.New("lessonCount does not match lessons")
	ErrSectionCountMismatch = errors.New("sectionCount does not match distinct section ids")
	ErrLessonIDOutOfOrder   = errors.New("lesson ids are not contiguous from 1")
	ErrSectionIDOutOfRange  = errors.New("section id below first section id")
	ErrSectionIDDecreasing  = errors.New("section ids decrease in lesson order")
)

// Validator checks the structural invariants of an export payload.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks if the payload meets the export invariants.
func (v *Validator) Validate(payload *models.ExportPayload) error {
	if payload == nil {
		return ErrNilPayload
	}

	course := payload.CourseData
	if course.Title == "" {
		return ErrMissingTitle
	}

	if course.LessonCount != len(payload.Lessons) {
		return fmt.Errorf("%w: %d != %d", ErrLessonCountMismatch, course.LessonCount, len(payload.Lessons))
	}

	sections := make(map[int]struct{})
	prevSection := 0

	for i, lesson := range payload.Lessons {
		if lesson.ID != models.FirstLessonID+i {
			return fmt.Errorf("%w at index %d", ErrLessonIDOutOfOrder, i)
		}

		if lesson.SectionID < models.FirstSectionID {
			return fmt.Errorf("%w at index %d", ErrSectionIDOutOfRange, i)
		}

		if lesson.SectionID < prevSection {
			return fmt.Errorf("%w at index %d", ErrSectionIDDecreasing, i)
		}

		prevSection = lesson.SectionID
		sections[lesson.SectionID] = struct{}{}
	}

	if course.SectionCount != len(sections) {
		return fmt.Errorf("%w: %d != %d", ErrSectionCountMismatch, course.SectionCount, len(sections))
	}

	return nil
}
