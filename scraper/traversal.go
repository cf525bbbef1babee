package scraper

import (
	"iter"

	"github.com/aluiziolira/go-scrape-movies/parser"
	"github.com/aluiziolira/go-scrape-movies/quota"
)

// Controller decides what to fetch next from a category listing.
type Controller struct {
	profile parser.Profile
	guard   *quota.Guard
	visited *VisitedSet
}

// NewController builds a controller sharing guard and visited with the crawl.
func NewController(profile parser.Profile, guard *quota.Guard, visited *VisitedSet) *Controller {
	return &Controller{profile: profile, guard: guard, visited: visited}
}

// Plan lazily yields the work for one category page: subcategories first
// (never quota gated), then article visits while the quota has room, then
// the next page if the quota still has room. Quota checks happen as items
// are pulled, so a consumer that dispatches each item before pulling the
// next one sees up-to-date quota state.
func (c *Controller) Plan(page parser.CategoryPage) iter.Seq[WorkItem] {
	return func(yield func(WorkItem) bool) {
		for _, href := range page.Subcategories {
			if !c.profile.IsCategoryLink(href) {
				continue
			}
			if c.visited != nil && !c.visited.Add(href) {
				continue
			}
			if !yield(WorkItem{Kind: SubcategoryVisit, URL: href}) {
				return
			}
		}

		for _, href := range page.Articles {
			if !c.guard.CanEmit() {
				return
			}
			if !c.profile.IsArticleLink(href) {
				continue
			}
			if !yield(WorkItem{Kind: DetailVisit, URL: href}) {
				return
			}
		}

		if page.NextPage != "" && c.guard.CanEmit() {
			yield(WorkItem{Kind: PaginationVisit, URL: page.NextPage})
		}
	}
}
