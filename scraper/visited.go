package scraper

import (
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
)

// VisitedSet remembers which categories were already scheduled. It is
// bounded, so very old entries may be forgotten on huge graphs.
type VisitedSet struct {
	cache *lru.Cache[string, struct{}]
}

// NewVisitedSet creates a set holding up to size category keys.
func NewVisitedSet(size int) (*VisitedSet, error) {
	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &VisitedSet{cache: cache}, nil
}

// Add marks href as visited and reports whether it was new.
func (v *VisitedSet) Add(href string) bool {
	found, _ := v.cache.ContainsOrAdd(categoryKey(href), struct{}{})
	return !found
}

// Len returns the number of remembered categories.
func (v *VisitedSet) Len() int {
	return v.cache.Len()
}

// categoryKey reduces a category href to its title so that absolute,
// relative and differently escaped links to one category compare equal.
func categoryKey(href string) string {
	path := href
	if u, err := url.Parse(href); err == nil {
		path = u.Path
	}
	path = strings.ReplaceAll(path, "_", " ")
	return cases.Fold().String(strings.TrimSpace(path))
}
