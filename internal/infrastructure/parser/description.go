package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"YourStockNews/internal/domain"
)

// CleanDescription turns the HTML snippet a news source delivered into
// plain text. Script and style content is dropped and whitespace collapsed.
// Inputs that fail to parse are returned with whitespace collapsed only.
func CleanDescription(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.ContainsAny(raw, "<&") {
		return collapse(raw)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapse(raw)
	}
	doc.Find("script, style, noscript").Remove()

	// Block elements would otherwise glue neighbouring words together.
	doc.Find("p, div, br, li, h1, h2, h3, h4, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	return collapse(doc.Text())
}

// Excerpt cuts text at a word boundary so it fits in limit runes.
func Excerpt(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	cut := string(runes[:limit])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "…"
}

// CleanArticle returns a copy of article with a plain-text description.
// A null description stays null.
func CleanArticle(article domain.Article) domain.Article {
	if article.Description == nil {
		return article
	}
	text := CleanDescription(*article.Description)
	article.Description = &text
	return article
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
