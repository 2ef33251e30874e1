package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"coursexport/internal/models"
)

// DefaultTitleWidth caps the title column of LessonTable.
const DefaultTitleWidth = 48

// LessonTable renders one row per lesson: id, section, title, minutes and URL.
// Titles wider than titleWidth display columns are cut with an ellipsis; a
// non-positive titleWidth disables the cut.
func LessonTable(lessons []models.LessonRecord, titleWidth int) string {
	return FormatMarkdown(lessonRows(lessons, titleWidth))
}

// lessonRows renders the lesson table unpadded.
func lessonRows(lessons []models.LessonRecord, titleWidth int) string {
	rows := []string{
		"| # | Section | Title | Min | URL |",
		"| --- | --- | --- | --- | --- |",
	}

	for _, l := range lessons {
		title := l.Title
		if titleWidth > 0 {
			title = runewidth.Truncate(title, titleWidth, "…")
		}

		section := strconv.Itoa(l.SectionID)
		if l.SectionTitle != "" {
			section += " " + l.SectionTitle
		}

		rows = append(rows, fmt.Sprintf("| %d | %s | %s | %s | %s |",
			l.ID, escapeCell(section), escapeCell(title), l.DurationMinutes, escapeCell(l.LessonURL)))
	}

	return strings.Join(rows, "\n")
}

// Summary renders the course heading, the totals and the lesson table as one
// markdown document, aligned by FormatMarkdown.
func Summary(summary models.CourseSummary, payload *models.ExportPayload) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", summary.Title)

	if summary.Tutor != "" {
		fmt.Fprintf(&sb, "Tutor: %s\n", summary.Tutor)
	}

	fmt.Fprintf(&sb, "Sections: %d · Lessons: %d · Declared: %d min · Lessons total: %d min\n",
		summary.Sections, summary.Lessons, summary.DeclaredMinutes, summary.LessonMinutes)

	if summary.LessonsWithoutDuration > 0 {
		fmt.Fprintf(&sb, "Lessons without duration: %d\n", summary.LessonsWithoutDuration)
	}

	sb.WriteString("\n")
	sb.WriteString(lessonRows(payload.Lessons, DefaultTitleWidth))
	sb.WriteString("\n")

	return FormatMarkdown(sb.String())
}

// escapeCell keeps a literal pipe from splitting the cell.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "/")
}
