package scraper

import (
	"strings"

	"golang.org/x/net/html"
)

// PageContent holds the pieces of a page the summarization prompt uses.
type PageContent struct {
	Title           string
	MetaDescription string
	Heading         string
	Paragraphs      []string
}

// BodyText joins the kept paragraphs and truncates to maxLen characters.
func (p PageContent) BodyText(maxLen int) string {
	joined := strings.Join(p.Paragraphs, " ")
	if maxLen > 0 && len(joined) > maxLen {
		joined = joined[:maxLen]
	}
	return joined
}

// minParagraphLength filters boilerplate: only <p> text longer than this
// is kept.
const minParagraphLength = 20

// extractContent parses markup and pulls the <title>, the description
// meta tag, the first <h1>, and paragraph text. Only the first
// maxParagraphs <p> elements are considered, and of those only the ones
// whose trimmed text exceeds minParagraphLength characters are kept.
func extractContent(markup string, maxParagraphs int) (PageContent, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return PageContent{}, err
	}

	var pc PageContent
	var pSeen int
	var h1Done bool

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if pc.Title == "" {
					pc.Title = strings.TrimSpace(nodeText(n))
				}
			case "meta":
				if pc.MetaDescription == "" && attr(n, "name") == "description" {
					pc.MetaDescription = strings.TrimSpace(attr(n, "content"))
				}
			case "h1":
				if !h1Done {
					pc.Heading = strings.TrimSpace(nodeText(n))
					h1Done = true
				}
			case "p":
				if pSeen < maxParagraphs {
					pSeen++
					if text := strings.TrimSpace(nodeText(n)); len(text) > minParagraphLength {
						pc.Paragraphs = append(pc.Paragraphs, collapseSpace(text))
					}
				}
				return // don't descend into nested elements again
			case "script", "style":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	pc.Title = collapseSpace(pc.Title)
	pc.Heading = collapseSpace(pc.Heading)
	return pc, nil
}

// nodeText returns the concatenated text content beneath a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

// collapseSpace normalizes runs of whitespace to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
