package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"coursexport/internal/models"
)

// ErrInvalidTransformerInput is returned when there is nothing to transform.
var ErrInvalidTransformerInput = errors.New("invalid payload: nil")

// Transformer derives secondary views of an export payload.
type Transformer struct {
	numberPattern *regexp.Regexp
}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{
		numberPattern: regexp.MustCompile(`(\d+)`),
	}
}

// Transform builds the task list: one task per lesson, in lesson order.
func (t *Transformer) Transform(payload *models.ExportPayload) (*models.TaskListPayload, error) {
	if payload == nil {
		return nil, ErrInvalidTransformerInput
	}

	tasks := make([]models.Task, 0, len(payload.Lessons))
	for _, lesson := range payload.Lessons {
		tasks = append(tasks, TaskFor(lesson))
	}

	return &models.TaskListPayload{Tasks: tasks}, nil
}

// TaskFor renders one lesson as a task.
func TaskFor(lesson models.LessonRecord) models.Task {
	return models.Task{
		Content:     fmt.Sprintf("%d. %s []", lesson.ID, lesson.Title),
		Description: fmt.Sprintf("- Duration: %s min\n- Url: %s", lesson.DurationMinutes, lesson.LessonURL),
	}
}

// Summarize aggregates counts and minutes for display.
func (t *Transformer) Summarize(payload *models.ExportPayload) models.CourseSummary {
	summary := models.CourseSummary{
		Title:           payload.CourseData.Title,
		Tutor:           payload.CourseData.Tutor,
		Sections:        payload.CourseData.SectionCount,
		Lessons:         len(payload.Lessons),
		DeclaredMinutes: t.parseStatInt(payload.CourseData.TotalDurationMinutes),
	}

	for _, lesson := range payload.Lessons {
		if lesson.DurationMinutes == "" {
			summary.LessonsWithoutDuration++

			continue
		}

		summary.LessonMinutes += t.parseStatInt(lesson.DurationMinutes)
	}

	return summary
}

// parseStatInt extracts the first number found in a string.
func (t *Transformer) parseStatInt(s string) int {
	match := t.numberPattern.FindString(s)
	if match == "" {
		return 0
	}

	val, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}

	return val
}
