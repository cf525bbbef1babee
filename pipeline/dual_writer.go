// Package pipeline validates, de-duplicates, and writes scraped movies.
package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aluiziolira/go-scrape-movies/models"
)

// MultiWriter fans every batch out to several writers. A failing writer does
// not stop the others from receiving the batch.
type MultiWriter struct {
	mu      sync.Mutex
	writers []OutputWriter
}

// NewMultiWriter combines writers in the given order.
func NewMultiWriter(writers ...OutputWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// NewDualWriter writes CSV and JSON lines side by side.
func NewDualWriter(csvFilename, jsonFilename string) (*MultiWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, err
	}
	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, err
	}
	return NewMultiWriter(csvWriter, jsonWriter), nil
}

func (mw *MultiWriter) Write(movies []*models.Movie) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.each(func(w OutputWriter) error { return w.Write(movies) })
}

func (mw *MultiWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.each(OutputWriter.Close)
}

func (mw *MultiWriter) Validate() error {
	return mw.each(OutputWriter.Validate)
}

func (mw *MultiWriter) each(fn func(OutputWriter) error) error {
	var errs []error
	for _, w := range mw.writers {
		if err := fn(w); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", w, err))
		}
	}
	return errors.Join(errs...)
}
