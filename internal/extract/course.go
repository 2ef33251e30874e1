package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"coursexport/internal/models"
)

const (
	descriptionHeading = "course description"
	publishedKeyword   = "published"
)

// BuildCourseRecord reads course-level metadata from the page. Every region is
// optional here; a missing title is reported by Assemble, not by this function.
// Derived counts and the canonical URL are filled in by Assemble.
func BuildCourseRecord(p *Page) models.CourseRecord {
	root := p.Doc.Selection
	sel := p.Selectors

	return models.CourseRecord{
		Title:                textOf(root, sel.Title),
		Description:          courseDescription(p),
		Tutor:                textOf(root, sel.Tutor),
		TotalDurationMinutes: ParseDurationText(textOf(root, sel.TotalDuration)),
		PublishedDate:        publishedDate(p),
	}
}

// courseDescription returns the first paragraph of the content wrapper holding the
// "Course description" heading. Only a page without that heading falls back to the
// first paragraph of any wrapper.
func courseDescription(p *Page) string {
	sel := p.Selectors
	root := p.Doc.Selection

	var heading *goquery.Selection

	root.Find(sel.Heading).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.ToLower(CleanText(h.Text())) == descriptionHeading {
			heading = h

			return false
		}

		return true
	})

	if heading != nil {
		return textOf(heading.Closest(sel.ContentWrapper), sel.Paragraph)
	}

	return textOf(root.Find(sel.ContentWrapper), sel.Paragraph)
}

// publishedDate scans the duration-labeled meta items for the "Published: ..." entry.
func publishedDate(p *Page) string {
	var date string

	p.Doc.Find(p.Selectors.DurationLabel).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		raw := CleanText(item.Text())
		if !strings.Contains(strings.ToLower(raw), publishedKeyword) {
			return true
		}

		if _, after, found := strings.Cut(raw, ":"); found {
			raw = after
		}

		date = NormalizePublishedDate(CleanText(raw))

		return false
	})

	return date
}
