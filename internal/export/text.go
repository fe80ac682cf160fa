package export

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/raphaelgruber/storyshelf/internal/library"
	"github.com/raphaelgruber/storyshelf/internal/query"
)

// plainText emits one structured description block per book: identity,
// index and page, a profile summary when present, and the tag path that
// produced the match.
func (x *Exporter) plainText(result query.Result, refs *[]library.BookRef) iter.Seq[string] {
	return func(yield func(string) bool) {
		if result == nil {
			return
		}
		n := 0
		result(func(b *library.Book, p query.Path) bool {
			n++
			*refs = append(*refs, b.Ref())
			return yield(describeBook(n, b, p))
		})
	}
}

func describeBook(n int, b *library.Book, p query.Path) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%d. %s\n", n, b.Story.Title)
	fmt.Fprintf(&sb, "   author: %s  id: %s\n", b.Story.Author, b.Story.ID)
	fmt.Fprintf(&sb, "   index: %s  page: %d\n", b.Page.Index, b.Page.Page)
	if b.Story.Published != nil {
		fmt.Fprintf(&sb, "   published: %s  views: %d\n", b.Story.Published.Format(time.DateOnly), b.Story.Views)
	}
	if b.Story.URL != "" {
		fmt.Fprintf(&sb, "   url: %s\n", b.Story.URL)
	}
	if b.Profile != nil {
		fmt.Fprintf(&sb, "   profile: %s\n", profileSummary(b.Profile))
	}
	if len(p) > 0 {
		fmt.Fprintf(&sb, "   match: %s\n", pathString(p))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func profileSummary(p *library.Profile) string {
	var parts []string
	if p.Maturity != nil {
		if p.Maturity.Restricted {
			parts = append(parts, "restricted")
		}
		if len(p.Maturity.Present) > 0 {
			parts = append(parts, "maturity["+strings.Join(p.Maturity.Present, ",")+"]")
		}
	}
	if p.Difficulty != nil {
		parts = append(parts, fmt.Sprintf("education %g years", p.Difficulty.EducationYears))
		if p.Difficulty.ReadingLevel != "" {
			parts = append(parts, p.Difficulty.ReadingLevel)
		}
	}
	for _, t := range p.Topics {
		parts = append(parts, "topic:"+t.ID)
	}
	for _, i := range p.Ideologies {
		parts = append(parts, fmt.Sprintf("ideology:%s(%.2f)", i.ID, i.Presence))
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, ", ")
}

func pathString(p query.Path) string {
	if len(p) == 0 {
		return ""
	}
	parts := []string{p[0].Source.NodeName()}
	for _, c := range p {
		parts = append(parts, c.Target.NodeName())
	}
	return strings.Join(parts, " > ")
}
