package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Article is the readable part of a fetched news page
type Article struct {
	SiteName string
	Headline string
	Text     string
}

// ExtractArticle pulls the outlet name, headline and body paragraphs out of an
// HTML page. Body text falls back to all visible text when the page has no
// paragraphs.
func ExtractArticle(htmlContent string) (Article, error) {
	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return Article{}, fmt.Errorf("parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	title := collapse(doc.Find("title").First().Text())

	article := Article{
		SiteName: firstNonEmpty(
			metaContent(doc, `meta[property="og:site_name"]`),
			metaContent(doc, `meta[name="application-name"]`),
			titleSuffix(title),
		),
		Headline: firstNonEmpty(
			metaContent(doc, `meta[property="og:title"]`),
			collapse(doc.Find("h1").First().Text()),
			title,
		),
	}

	scope := doc.Find("article")
	if scope.Length() == 0 {
		scope = doc.Selection
	}
	var paragraphs []string
	scope.Find("p").Each(func(_ int, s *goquery.Selection) {
		if p := collapse(s.Text()); p != "" {
			paragraphs = append(paragraphs, p)
		}
	})

	if len(paragraphs) > 0 {
		article.Text = strings.Join(paragraphs, "\n")
	} else {
		article.Text = collapse(visibleText(root))
	}
	return article, nil
}

// visibleText extracts text nodes from HTML, skipping scripts/styles
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return collapse(v)
}

// titleSuffix returns the outlet part of titles like "Headline - The Outlet"
func titleSuffix(title string) string {
	for _, sep := range []string{" | ", " - ", " — "} {
		if idx := strings.LastIndex(title, sep); idx > 0 {
			return strings.TrimSpace(title[idx+len(sep):])
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
