// Package models defines data structures for the scraper.
package models

import "time"

// Movie is a finalized record emitted by the scraper. Nil fields are absent.
type Movie struct {
	Title     *string   `json:"title"`
	Genre     *string   `json:"genre"`
	Director  *string   `json:"director"`
	Country   *string   `json:"country"`
	Year      *string   `json:"year"`
	Rating    *string   `json:"rating"`
	IMDbID    string    `json:"imdb_id,omitempty"`
	URL       string    `json:"url"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// Draft accumulates fields for one article while its request chain is in flight.
// Empty strings mean the field was not found.
type Draft struct {
	URL       string
	Title     string
	Genre     string
	Director  string
	Country   string
	Year      string
	ForeignID string
}

// Finalize turns the draft into an immutable Movie with the given rating.
func (d *Draft) Finalize(rating string) *Movie {
	return &Movie{
		Title:     Optional(d.Title),
		Genre:     Optional(d.Genre),
		Director:  Optional(d.Director),
		Country:   Optional(d.Country),
		Year:      Optional(d.Year),
		Rating:    Optional(rating),
		IMDbID:    d.ForeignID,
		URL:       d.URL,
		ScrapedAt: time.Now(),
	}
}

// Optional returns nil for an empty string.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences an optional field, returning "" when absent.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ScraperResult holds the overall result of a scraping operation
type ScraperResult struct {
	StartTime     time.Time
	EndTime       time.Time
	TotalCount    int
	EmittedCount  int
	DroppedCount  int
	EnrichedCount int
	ErrorCount    int
	FailedURLs    []string
	ErrorsByType  map[string]int
	RetryCount    int
	RequestCount  int
	CategoryCount int
	ArticleCount  int
}
