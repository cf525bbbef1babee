// Package parser turns wiki and rating pages into movie fields.
package parser

import (
	"fmt"

	"github.com/aluiziolira/go-scrape-movies/models"
)

// ValidateMovie checks that a finalized record is well formed. Absent fields
// are allowed.
func ValidateMovie(m *models.Movie) error {
	if m == nil {
		return fmt.Errorf("movie is nil")
	}
	if m.URL == "" {
		return fmt.Errorf("movie missing source url")
	}
	if m.Year != nil {
		if _, ok := ExtractFirstYear(*m.Year); !ok || len(*m.Year) != 4 {
			return fmt.Errorf("movie %s has malformed year %q", m.URL, *m.Year)
		}
	}
	return nil
}
