package scraper

import (
	"net/http"

	"github.com/aluiziolira/go-scrape-movies/models"
)

// WorkKind tags what a scheduled request is for.
type WorkKind int

const (
	// CategoryVisit is a configured seed category.
	CategoryVisit WorkKind = iota
	SubcategoryVisit
	DetailVisit
	PaginationVisit
	// EnrichmentVisit fetches the rating page and carries the draft.
	EnrichmentVisit
)

func (k WorkKind) String() string {
	switch k {
	case CategoryVisit:
		return "category"
	case SubcategoryVisit:
		return "subcategory"
	case DetailVisit:
		return "detail"
	case PaginationVisit:
		return "pagination"
	case EnrichmentVisit:
		return "enrichment"
	default:
		return "unknown"
	}
}

// IsCategory reports whether responses of this kind are category listings.
func (k WorkKind) IsCategory() bool {
	return k == CategoryVisit || k == SubcategoryVisit || k == PaginationVisit
}

func parseWorkKind(s string) (WorkKind, bool) {
	for k := CategoryVisit; k <= EnrichmentVisit; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// WorkItem is one request the crawl wants the fetch engine to issue.
// URL may be relative to the page that produced it.
type WorkItem struct {
	Kind   WorkKind
	URL    string
	Draft  *models.Draft
	Header http.Header
}
