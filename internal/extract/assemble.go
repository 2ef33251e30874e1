package extract

import (
	"errors"
	"fmt"
	"regexp"

	"coursexport/internal/models"
	"coursexport/internal/protocol"
)

// Precondition failures. These are the only ways extraction itself can fail.
var (
	ErrNotCoursePage      = errors.New("not a course page")
	ErrCourseDataNotFound = errors.New("course data not found")
)

// The slug is the first non-empty segment after a literal "courses" segment.
var slugPattern = regexp.MustCompile(`/courses/+([^/?#]+)`)

// PreconditionError reports a page that cannot be extracted at all.
type PreconditionError struct {
	Err  error
	Path string
}

func (e *PreconditionError) Error() string {
	return e.Err.Error()
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// SlugFromPath returns the first non-empty path segment following a literal
// "courses" segment.
func SlugFromPath(path string) (string, error) {
	m := slugPattern.FindStringSubmatch(path)
	if m == nil {
		return "", &PreconditionError{Err: ErrNotCoursePage, Path: path}
	}

	return m[1], nil
}

// CanonicalURL returns origin + /courses/<slug>/.
func CanonicalURL(origin, slug string) string {
	return fmt.Sprintf("%s/courses/%s/", origin, slug)
}

// Assemble builds the export payload for the page. The location is checked before
// the document is read.
func Assemble(p *Page) (*protocol.ExtractResult, error) {
	slug, err := SlugFromPath(p.URL.Path)
	if err != nil {
		return nil, err
	}

	course := BuildCourseRecord(p)
	if course.Title == "" {
		return nil, &PreconditionError{Err: ErrCourseDataNotFound, Path: p.URL.Path}
	}

	lessons := Walk(CollectNodes(p))

	course.SectionCount = CountSections(lessons)
	course.LessonCount = len(lessons)
	course.CanonicalURL = CanonicalURL(p.Origin(), slug)

	return &protocol.ExtractResult{
		Slug: slug,
		Payload: models.ExportPayload{
			CourseData: course,
			Lessons:    lessons,
		},
	}, nil
}

// CountSections returns the number of distinct section ids referenced by lessons.
// Headers without lessons are not counted even though they consumed an id.
func CountSections(lessons []models.LessonRecord) int {
	seen := make(map[int]struct{}, len(lessons))
	for _, l := range lessons {
		seen[l.SectionID] = struct{}{}
	}

	return len(seen)
}
