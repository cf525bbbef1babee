package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CategoryPage is the link structure of one category listing.
type CategoryPage struct {
	Subcategories []string
	Articles      []string
	NextPage      string
}

// ParseCategoryPage collects raw hrefs from a MediaWiki category listing.
func ParseCategoryPage(doc *goquery.Selection, profile Profile) CategoryPage {
	var page CategoryPage
	doc.Find("#mw-subcategories a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		page.Subcategories = append(page.Subcategories, href)
	})
	doc.Find("#mw-pages a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		page.Articles = append(page.Articles, href)
	})
	if profile.NextPageLabel != "" {
		doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if strings.Contains(a.Text(), profile.NextPageLabel) {
				page.NextPage, _ = a.Attr("href")
				return false
			}
			return true
		})
	}
	return page
}

// DecodeHref percent-decodes the path of href so it can be compared against
// prefixes written in plain text. The original is returned on failure.
func DecodeHref(href string) string {
	decoded, err := url.PathUnescape(href)
	if err != nil {
		return href
	}
	return decoded
}

// IsCategoryLink reports whether href points into the category namespace.
func (p Profile) IsCategoryLink(href string) bool {
	return p.CategoryPrefix != "" && strings.HasPrefix(DecodeHref(href), p.CategoryPrefix)
}

// IsArticleLink reports whether href is a plain article in the main namespace.
func (p Profile) IsArticleLink(href string) bool {
	if href == "" {
		return false
	}
	decoded := DecodeHref(href)
	switch {
	case !strings.HasPrefix(decoded, p.ArticlePrefix):
		return false
	case strings.Contains(decoded, ":"):
		return false
	case p.IsCategoryLink(href):
		return false
	case strings.Contains(decoded, "#"):
		return false
	}
	return true
}
