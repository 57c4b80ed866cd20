package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"WorumTop/internal/config"
	"WorumTop/internal/domain"
	"WorumTop/internal/ports"
)

// Forum extracts threads, excerpts and rubric structure from forum pages using
// the configured selector set.
type Forum struct {
	origin      *url.URL
	imageScheme string
	sel         config.SelectorConfig
}

var _ ports.ForumParser = (*Forum)(nil)

// NewForum wires selectors and the forum origin used to resolve relative links.
func NewForum(cfg config.ForumConfig) *Forum {
	origin, err := url.Parse(cfg.Origin)
	if err != nil {
		origin = &url.URL{}
	}
	scheme := cfg.ImageScheme
	if scheme == "" {
		scheme = "https:"
	}
	return &Forum{origin: origin, imageScheme: scheme, sel: cfg.Selectors}
}

// Listing returns the listing items in document order, which is rank order.
func (f *Forum) Listing(markup string) []domain.ThreadSummary {
	doc := document(markup)

	var threads []domain.ThreadSummary
	doc.Find(f.sel.Item).Each(func(_ int, item *goquery.Selection) {
		var thread domain.ThreadSummary

		thread.Title = strings.TrimSpace(item.Find(f.sel.Title).First().Text())

		if href, ok := item.Find(f.sel.Link).First().Attr("href"); ok {
			thread.Link = f.resolve(href)
		}

		img := item.Find(f.sel.Image).First()
		src, ok := img.Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			src, _ = img.Attr("data-src")
		}
		thread.ImageURL = f.resolveImage(src)

		threads = append(threads, thread)
	})

	return threads
}

// Excerpt keeps the text of the last matching node; detail pages may repeat
// the opening-post block and only the final one is authoritative.
func (f *Forum) Excerpt(markup string) domain.ThreadExcerpt {
	var excerpt domain.ThreadExcerpt
	document(markup).Find(f.sel.Excerpt).Each(func(_ int, node *goquery.Selection) {
		excerpt.Text = strings.TrimSpace(node.Text())
	})
	return excerpt
}

// RubricLinks walks the rubric index section by section. Pages without
// section wrappers fall back to a flat scan of rubric links.
func (f *Forum) RubricLinks(markup string) []domain.RubricLink {
	doc := document(markup)

	var links []domain.RubricLink
	sections := doc.Find(f.sel.RubricSection)
	if sections.Length() == 0 {
		doc.Find(f.sel.RubricLink).Each(func(_ int, a *goquery.Selection) {
			links = append(links, f.rubricLink(a, "", ""))
		})
		return links
	}

	sections.Each(func(_ int, section *goquery.Selection) {
		name := strings.TrimSpace(section.Find(f.sel.RubricSectionTitle).First().Text())
		id, _ := section.Attr(f.sel.RubricSectionIDAttr)
		section.Find(f.sel.RubricLink).Each(func(_ int, a *goquery.Selection) {
			links = append(links, f.rubricLink(a, strings.TrimSpace(id), name))
		})
	})

	return links
}

// RubricMembers returns the thread links of a rubric page in document order.
func (f *Forum) RubricMembers(markup string) []domain.RubricMemberLink {
	var members []domain.RubricMemberLink
	document(markup).Find(f.sel.RubricMember).Each(func(_ int, item *goquery.Selection) {
		href, _ := item.Find(f.sel.RubricMemberLink).First().Attr("href")
		members = append(members, domain.RubricMemberLink{
			Title: strings.TrimSpace(item.Find(f.sel.RubricMemberTitle).First().Text()),
			Path:  strings.TrimSpace(href),
		})
	})
	return members
}

// Resolve turns a site-relative path into an absolute URL on the forum origin.
func (f *Forum) Resolve(path string) string {
	return f.resolve(path)
}

func (f *Forum) rubricLink(a *goquery.Selection, sectionID, section string) domain.RubricLink {
	href, _ := a.Attr("href")
	href = strings.TrimSpace(href)
	if sectionID == "" {
		sectionID = firstSegment(href)
	}
	return domain.RubricLink{
		Label:     strings.TrimSpace(a.Text()),
		SectionID: sectionID,
		Section:   section,
		Path:      href,
	}
}

func (f *Forum) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return f.origin.ResolveReference(ref).String()
}

func (f *Forum) resolveImage(src string) string {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return ""
	case strings.HasPrefix(src, "//"):
		return f.imageScheme + src
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src
	default:
		return f.resolve(src)
	}
}

func firstSegment(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	segment, _, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	return segment
}

// document never fails: the HTML parser recovers from malformed markup, and a
// reader error leaves an empty document.
func document(markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	return doc
}
