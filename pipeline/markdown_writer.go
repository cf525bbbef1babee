package pipeline

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/nao1215/markdown"

	"github.com/aluiziolira/go-scrape-movies/models"
)

// MarkdownWriter collects movies and renders them as one table on Close.
type MarkdownWriter struct {
	filename string

	mu     sync.Mutex
	movies []*models.Movie
	closed bool
}

// NewMarkdownWriter prepares a report at filename.
func NewMarkdownWriter(filename string) (*MarkdownWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	return &MarkdownWriter{filename: filename}, nil
}

// Write buffers movies until Close.
func (mw *MarkdownWriter) Write(movies []*models.Movie) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.closed {
		return ErrPipelineClosed
	}
	mw.movies = append(mw.movies, movies...)
	return nil
}

// Close renders the report, sorted by title.
func (mw *MarkdownWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.closed {
		return nil
	}
	mw.closed = true

	f, err := os.Create(mw.filename)
	if err != nil {
		return fmt.Errorf("create markdown file: %w", err)
	}

	sort.SliceStable(mw.movies, func(i, j int) bool {
		return models.Value(mw.movies[i].Title) < models.Value(mw.movies[j].Title)
	})

	rated := 0
	rows := make([][]string, 0, len(mw.movies))
	for _, m := range mw.movies {
		if m.Rating != nil {
			rated++
		}
		rows = append(rows, movieRow(m, "-"))
	}

	md := markdown.NewMarkdown(f)
	md.H1("Scraped Movies")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Movies", strconv.Itoa(len(mw.movies))},
			{"With rating", strconv.Itoa(rated)},
		},
	})
	if len(rows) > 0 {
		md.PlainText("")
		md.H2("Movies")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: movieColumns,
			Rows:   rows,
		})
	}

	if err := md.Build(); err != nil {
		f.Close()
		return fmt.Errorf("render markdown: %w", err)
	}
	return f.Close()
}

// Validate ensures the report has at least one row.
func (mw *MarkdownWriter) Validate() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if len(mw.movies) == 0 {
		return fmt.Errorf("markdown report is empty")
	}
	return nil
}
