package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const infoboxSelector = "table.infobox, table.infobox_v2"

// ExtractInfoboxField reads the value cell of the first infobox row whose
// header contains one of variants. Variants are tried in order and the first
// one that matches a row decides the result, even when that row yields no
// usable text.
func ExtractInfoboxField(doc *goquery.Selection, variants []string) (string, bool) {
	rows := doc.Find(infoboxSelector).Find("tr")
	if rows.Length() == 0 {
		return "", false
	}

	for _, variant := range variants {
		want := headerKey(variant)
		if want == "" {
			continue
		}
		if cell := findValueCell(rows, want); cell != nil {
			return collectCellText(cell)
		}
	}
	return "", false
}

func findValueCell(rows *goquery.Selection, want string) *goquery.Selection {
	var cell *goquery.Selection
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		th := row.ChildrenFiltered("th")
		td := row.ChildrenFiltered("td")
		if th.Length() == 0 || td.Length() == 0 {
			return true
		}
		if strings.Contains(headerKey(th.Text()), want) {
			cell = td.First()
			return false
		}
		return true
	})
	return cell
}

func collectCellText(cell *goquery.Selection) (string, bool) {
	// Links without text (icons, flags) contribute nothing, so a cell whose
	// only links are images still falls back to its plain text.
	fragments := textNodes(cell.Find("a"))
	if len(fragments) == 0 {
		fragments = textNodes(cell)
	}

	seen := make(map[string]struct{}, len(fragments))
	parts := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		text, ok := NormalizeText(fragment)
		if !ok {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, ", "), true
}

// textNodes returns every text node below sel in document order,
// skipping script and style content.
func textNodes(sel *goquery.Selection) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			out = append(out, n.Data)
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}

// headerKey folds case and whitespace so header labels compare loosely.
func headerKey(s string) string {
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return cases.Fold().String(norm.NFC.String(s))
}
