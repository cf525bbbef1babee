// Package main provides the entry point for the movie scraper CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aluiziolira/go-scrape-movies/models"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printSummary(result *models.ScraperResult, duration time.Duration, outputFile string, metrics map[string]interface{}) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")

	totalItems := int64(0)
	if processed, ok := metrics["processed_movies"].(int64); ok {
		totalItems = processed
	}
	itemsPerSec := 0.0
	if duration.Seconds() > 0 {
		itemsPerSec = float64(totalItems) / duration.Seconds()
	}

	fmt.Printf("  Movies written: %d\n", totalItems)
	fmt.Printf("  Emitted:        %d\n", result.EmittedCount)
	fmt.Printf("  Dropped:        %d\n", result.DroppedCount)
	fmt.Printf("  Rated:          %d\n", result.EnrichedCount)
	fmt.Printf("  Categories:     %d\n", result.CategoryCount)
	fmt.Printf("  Articles:       %d\n", result.ArticleCount)
	successRate := 0.0
	if result.RequestCount > 0 {
		successRate = float64(result.RequestCount-result.ErrorCount) / float64(result.RequestCount) * 100
	}
	fmt.Printf("  Success rate:   %.2f%%\n", successRate)
	fmt.Printf("  Errors:         %d\n", result.ErrorCount)
	fmt.Printf("  Retries:        %d\n", result.RetryCount)
	fmt.Printf("  Failed URLs:    %d\n", len(result.FailedURLs))
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:    %v\n", result.ErrorsByType)
	}
	if valErrors, ok := metrics["validation_errors"].(map[string]int); ok && len(valErrors) > 0 {
		fmt.Printf("  Validation:     %v\n", valErrors)
	}
	fmt.Printf("  Duration:       %v\n", duration)
	fmt.Printf("  Items/sec:      %.2f\n", itemsPerSec)
	fmt.Printf("  Output file:    %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
