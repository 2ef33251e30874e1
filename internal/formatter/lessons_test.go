package formatter

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"coursexport/internal/models"
)

func TestLessonTable(t *testing.T) {
	lessons := []models.LessonRecord{
		{ID: 1, Title: "Welcome", SectionID: 1001, DurationMinutes: "3", LessonURL: "https://e.com/1"},
		{ID: 2, Title: "Paper | brushes", SectionID: 1002, SectionTitle: "Materials", DurationMinutes: "10"},
	}

	got := LessonTable(lessons, 0)
	want := strings.Join([]string{
		"| #   | Section        | Title           | Min | URL             |",
		"| --- | -------------- | --------------- | --- | --------------- |",
		"| 1   | 1001           | Welcome         | 3   | https://e.com/1 |",
		"| 2   | 1002 Materials | Paper / brushes | 10  |                 |",
	}, "\n")

	if got != want {
		t.Errorf("LessonTable() =\n%s\nwant\n%s", got, want)
	}
}

func TestLessonTable_TruncatesWideTitles(t *testing.T) {
	lessons := []models.LessonRecord{
		{ID: 1, Title: "水彩画の基本とにじみのテクニック", SectionID: 1001},
	}

	got := LessonTable(lessons, 10)
	row := strings.Split(got, "\n")[2]
	cells := splitRow(row)

	if w := runewidth.StringWidth(cells[2]); w > 10 {
		t.Errorf("Title cell %q is %d columns wide, want at most 10", cells[2], w)
	}

	if !strings.HasSuffix(cells[2], "…") {
		t.Errorf("Title cell %q should end with an ellipsis", cells[2])
	}
}

func TestLessonTable_Empty(t *testing.T) {
	got := LessonTable(nil, DefaultTitleWidth)
	if lines := strings.Split(got, "\n"); len(lines) != 2 {
		t.Errorf("Expected header and separator only, got %d lines", len(lines))
	}
}

func TestSummary(t *testing.T) {
	payload := &models.ExportPayload{
		CourseData: models.CourseRecord{Title: "Knots"},
		Lessons:    []models.LessonRecord{{ID: 1, Title: "Bowline", SectionID: 1001}},
	}

	out := Summary(models.CourseSummary{
		Title:                  "Knots",
		Tutor:                  "Sam",
		Sections:               1,
		Lessons:                1,
		LessonsWithoutDuration: 1,
	}, payload)

	for _, want := range []string{
		"# Knots",
		"Tutor: Sam",
		"Lessons: 1",
		"Lessons without duration: 1",
		"| #   | Section | Title   | Min | URL |",
		"| --- | ------- | ------- | --- | --- |",
		"| 1   | 1001    | Bowline |     |     |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Summary() missing %q in\n%s", want, out)
		}
	}
}
