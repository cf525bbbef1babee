package parser

import (
	"testing"

	"github.com/aluiziolira/go-scrape-movies/models"
)

func TestValidateMovie(t *testing.T) {
	tests := []struct {
		name    string
		movie   *models.Movie
		wantErr bool
	}{
		{
			name:    "full movie",
			movie:   (&models.Draft{URL: "http://example.test/wiki/A", Title: "A", Year: "1999"}).Finalize("7.1"),
			wantErr: false,
		},
		{
			name:    "every field absent",
			movie:   (&models.Draft{URL: "http://example.test/wiki/B"}).Finalize(""),
			wantErr: false,
		},
		{
			name:    "nil movie",
			movie:   nil,
			wantErr: true,
		},
		{
			name:    "missing url",
			movie:   (&models.Draft{Title: "C"}).Finalize(""),
			wantErr: true,
		},
		{
			name: "malformed year",
			movie: &models.Movie{
				URL:  "http://example.test/wiki/D",
				Year: models.Optional("1999-2001"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMovie(tt.movie)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMovie() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
