package extract

import (
	"github.com/PuerkitoBio/goquery"

	"coursexport/internal/models"
)

// NodeKind tags the two roles a node can play in the lesson markup.
type NodeKind int

// Node kinds.
const (
	KindHeader NodeKind = iota
	KindList
)

// SectionHeading is the text read from a section-header node.
type SectionHeading struct {
	Title           string
	DurationMinutes string
}

// LessonItem is the text read from one lesson inside a lesson-list node.
type LessonItem struct {
	Title       string
	Description string
	TimeRange   string
	URL         string
}

// Node is one section header or one lesson list, in document order.
type Node struct {
	Kind    NodeKind
	Heading SectionHeading
	Lessons []LessonItem
}

// CollectNodes reads every section-header and lesson-list node of the page in
// document order.
func CollectNodes(p *Page) []Node {
	sel := p.Selectors
	group := sel.SectionHeader + ", " + sel.LessonList

	var nodes []Node

	// Filtering "*" keeps document order across the two roles.
	p.Doc.Find("*").Filter(group).Each(func(_ int, s *goquery.Selection) {
		if s.Is(sel.SectionHeader) {
			nodes = append(nodes, Node{
				Kind: KindHeader,
				Heading: SectionHeading{
					Title:           textOf(s, sel.SectionTitle),
					DurationMinutes: ParseDurationText(textOf(s, sel.SectionDuration)),
				},
			})

			return
		}

		var items []LessonItem

		s.Find(sel.LessonItem).Each(func(_ int, item *goquery.Selection) {
			items = append(items, readLessonItem(p, item))
		})

		nodes = append(nodes, Node{Kind: KindList, Lessons: items})
	})

	return nodes
}

func readLessonItem(p *Page, item *goquery.Selection) LessonItem {
	sel := p.Selectors

	lessonURL := p.absoluteHref(item, sel.TitleAnchor)
	if lessonURL == "" {
		lessonURL = p.absoluteHref(item, sel.TimestampAnchor)
	}

	if lessonURL == "" {
		lessonURL = p.absoluteHref(item, sel.ThumbnailAnchor)
	}

	return LessonItem{
		Title:       textOf(item, sel.LessonTitle),
		Description: textOf(item, sel.LessonDescription),
		TimeRange:   textOf(item, sel.LessonTimeRange),
		URL:         lessonURL,
	}
}

// walkState is the accumulator of the fold in Walk.
type walkState struct {
	current       *models.SectionRecord
	nextSectionID int
	nextLessonID  int
	lessons       []models.LessonRecord
}

func (w walkState) openSection(title, duration string) walkState {
	w.current = &models.SectionRecord{
		ID:              w.nextSectionID,
		Title:           title,
		DurationMinutes: duration,
	}
	w.nextSectionID++

	return w
}

func (w walkState) step(n Node) walkState {
	switch n.Kind {
	case KindHeader:
		return w.openSection(n.Heading.Title, n.Heading.DurationMinutes)
	case KindList:
		if w.current == nil {
			w = w.openSection("", "")
		}

		section := *w.current

		for _, item := range n.Lessons {
			lesson := models.LessonRecord{
				ID:              w.nextLessonID,
				Title:           item.Title,
				Description:     item.Description,
				DurationMinutes: TimeRangeToDurationMinutes(item.TimeRange),
				TimeRange:       item.TimeRange,
				LessonURL:       item.URL,
			}
			w.lessons = append(w.lessons, lesson.InSection(section))
			w.nextLessonID++
		}
	}

	return w
}

// Walk folds the node sequence into lesson records. Section ids start at 1001 and
// lesson ids at 1; both advance in traversal order. A lesson list met before any
// header gets a synthetic untitled section that consumes one section id.
func Walk(nodes []Node) []models.LessonRecord {
	state := walkState{
		nextSectionID: models.FirstSectionID,
		nextLessonID:  models.FirstLessonID,
		lessons:       []models.LessonRecord{},
	}

	for _, n := range nodes {
		state = state.step(n)
	}

	return state.lessons
}
