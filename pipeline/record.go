package pipeline

import (
	"time"

	"github.com/aluiziolira/go-scrape-movies/models"
)

// movieColumns is the column order shared by every tabular output.
var movieColumns = []string{"title", "genre", "director", "country", "year", "rating", "imdb_id", "url", "scraped_at"}

// optionalFields returns the fields of m that may be absent, in column order.
func optionalFields(m *models.Movie) []*string {
	return []*string{m.Title, m.Genre, m.Director, m.Country, m.Year, m.Rating}
}

// movieRow flattens m in column order. Absent fields are rendered as absent.
func movieRow(m *models.Movie, absent string) []string {
	row := make([]string, 0, len(movieColumns))
	for _, f := range optionalFields(m) {
		if f == nil {
			row = append(row, absent)
			continue
		}
		row = append(row, *f)
	}
	return append(row, m.IMDbID, m.URL, m.ScrapedAt.UTC().Format(time.RFC3339))
}

// movieValues is movieRow for SQL drivers: absent fields are nil.
func movieValues(m *models.Movie) []any {
	values := make([]any, 0, len(movieColumns))
	for _, f := range optionalFields(m) {
		if f == nil {
			values = append(values, nil)
			continue
		}
		values = append(values, *f)
	}
	return append(values, m.IMDbID, m.URL, m.ScrapedAt.UTC())
}
