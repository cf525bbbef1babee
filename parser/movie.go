package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/aluiziolira/go-scrape-movies/models"
)

// Matcher is one extraction strategy. Strategies are tried in order by FirstMatch.
type Matcher func(doc *goquery.Selection) (string, bool)

// FirstMatch returns the first value produced by matchers.
func FirstMatch(doc *goquery.Selection, matchers ...Matcher) (string, bool) {
	for _, match := range matchers {
		if value, ok := match(doc); ok {
			return value, true
		}
	}
	return "", false
}

var (
	foreignIDPattern   = regexp.MustCompile(`tt\d+`)
	ratingValuePattern = regexp.MustCompile(`"ratingValue"\s*:\s*"?(\d+(?:\.\d+)?)"?`)
)

// ExtractTitle cascades through the heading, a nested heading span and the
// document title.
func ExtractTitle(doc *goquery.Selection, separator string) (string, bool) {
	return FirstMatch(doc,
		primaryHeading,
		nestedHeadingSpan,
		documentTitle(separator),
	)
}

func primaryHeading(doc *goquery.Selection) (string, bool) {
	heading := doc.Find("#firstHeading").First()
	var own strings.Builder
	for _, n := range heading.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				own.WriteString(c.Data)
			}
		}
	}
	return NormalizeText(own.String())
}

func nestedHeadingSpan(doc *goquery.Selection) (string, bool) {
	return NormalizeText(doc.Find("h1#firstHeading span").First().Text())
}

func documentTitle(separator string) Matcher {
	return func(doc *goquery.Selection) (string, bool) {
		title := doc.Find("title").First().Text()
		if separator != "" {
			title, _, _ = strings.Cut(title, separator)
		}
		return NormalizeText(title)
	}
}

// ExtractForeignID returns the "tt" identifier from the first link whose
// href contains marker.
func ExtractForeignID(doc *goquery.Selection, marker string) (string, bool) {
	if marker == "" {
		return "", false
	}
	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		candidate, _ := a.Attr("href")
		if strings.Contains(candidate, marker) {
			href = candidate
			return false
		}
		return true
	})
	if href == "" {
		return "", false
	}
	id := foreignIDPattern.FindString(href)
	return id, id != ""
}

// ExtractRating reads the aggregate rating from a title page, preferring the
// JSON-LD block over the rendered rating bar.
func ExtractRating(doc *goquery.Selection) (string, bool) {
	return FirstMatch(doc, jsonLDRating, renderedRating)
}

func jsonLDRating(doc *goquery.Selection) (string, bool) {
	block := doc.Find(`script[type="application/ld+json"]`).First()
	if block.Length() == 0 {
		return "", false
	}
	m := ratingValuePattern.FindStringSubmatch(block.Text())
	if m == nil {
		return "", false
	}
	return NormalizeText(m[1])
}

func renderedRating(doc *goquery.Selection) (string, bool) {
	score := doc.Find(`span[data-testid="hero-rating-bar__aggregate-rating__score"] > span`).First()
	return NormalizeText(score.Text())
}

// BuildDraft extracts every article field the profile knows about.
func BuildDraft(doc *goquery.Selection, profile Profile, foreignMarker, pageURL string) *models.Draft {
	draft := &models.Draft{URL: pageURL}
	draft.Title, _ = ExtractTitle(doc, profile.TitleSeparator)
	draft.Genre, _ = ExtractInfoboxField(doc, profile.Headers.Genre)
	draft.Director, _ = ExtractInfoboxField(doc, profile.Headers.Director)
	draft.Country, _ = ExtractInfoboxField(doc, profile.Headers.Country)
	if raw, ok := ExtractInfoboxField(doc, profile.Headers.Year); ok {
		draft.Year, _ = ExtractFirstYear(raw)
	}
	draft.ForeignID, _ = ExtractForeignID(doc, foreignMarker)
	return draft
}
