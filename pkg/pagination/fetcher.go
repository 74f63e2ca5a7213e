package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests
	MaxConcurrency int
	// PageSize is the $top value used for each window
	PageSize int
	// Timeout per page fetch
	Timeout time.Duration
	// Buffer size for channels (default: estimated total pages)
	BufferSize int
}

// DefaultConfig returns safe default configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 10,
		PageSize:       100,
		Timeout:        15 * time.Second,
		BufferSize:     400,
	}
}

// PageFetcher is the interface a client must implement for single-page
// fetching. FetchPage requests one $top/$skip window of a collection and
// returns the raw page body plus the total entity count (from $count=true).
type PageFetcher interface {
	FetchPage(ctx context.Context, resource string, skip, top int) (data []byte, totalCount int64, err error)
}

// PageResult represents the result of fetching a single page
type PageResult struct {
	PageNumber int
	Data       []byte
	Error      error
}

// Fetcher handles parallel fetching of $top/$skip windows
type Fetcher struct {
	fetcher PageFetcher
	config  Config
}

// NewFetcher creates a new parallel page fetcher
func NewFetcher(fetcher PageFetcher, config Config) *Fetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}
	if config.PageSize <= 0 {
		config.PageSize = 100
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 400
	}

	return &Fetcher{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAll fetches all pages of a collection in parallel using a worker pool.
// Returns a map of pageNumber -> data for successful pages; page 1 is the
// window at $skip=0.
func (f *Fetcher) FetchAll(ctx context.Context, resource string) (map[int][]byte, error) {
	start := time.Now()

	// Fetch first window to get the total count
	firstPageData, totalCount, err := f.fetcher.FetchPage(ctx, resource, 0, f.config.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}

	totalPages := int((totalCount + int64(f.config.PageSize) - 1) / int64(f.config.PageSize))
	if totalPages < 1 {
		totalPages = 1
	}

	log.Info().
		Str("resource", resource).
		Int64("total_count", totalCount).
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	// Single page optimization
	if totalPages == 1 {
		result := map[int][]byte{1: firstPageData}
		log.Info().
			Str("resource", resource).
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return result, nil
	}

	// Create result map with first page
	results := make(map[int][]byte)
	results[1] = firstPageData
	resultsMutex := sync.Mutex{}

	// Create channels
	pageQueue := make(chan int, f.config.BufferSize)
	pageResults := make(chan PageResult, f.config.BufferSize)
	errors := make(chan error, f.config.MaxConcurrency)

	// Fill page queue (skip page 1, already fetched). Stops once the workers
	// are gone: with more pages left than the queue buffers, a send to a
	// queue nobody reads would strand this goroutine.
	workersDone := make(chan struct{})
	go func() {
		defer close(pageQueue)
		for page := 2; page <= totalPages; page++ {
			select {
			case pageQueue <- page:
			case <-workersDone:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	// Start worker pool
	var wg sync.WaitGroup
	for i := 0; i < f.config.MaxConcurrency; i++ {
		wg.Add(1)
		go f.worker(ctx, resource, pageQueue, pageResults, errors, &wg, i)
	}

	// Close results channel when all workers done
	go func() {
		wg.Wait()
		close(workersDone)
		close(pageResults)
		close(errors)
	}()

	// Collect results
	fetchedPages := 1 // First page already fetched
	for result := range pageResults {
		if result.Error != nil {
			log.Warn().
				Err(result.Error).
				Int("page", result.PageNumber).
				Msg("Page fetch failed")
			continue
		}

		resultsMutex.Lock()
		results[result.PageNumber] = result.Data
		fetchedPages++
		resultsMutex.Unlock()

		// Progress logging every 50 pages
		if fetchedPages%50 == 0 {
			log.Info().
				Int("fetched", fetchedPages).
				Int("total", totalPages).
				Float64("progress_pct", float64(fetchedPages)/float64(totalPages)*100).
				Msg("Fetch progress")
		}
	}

	// Check for errors
	select {
	case err := <-errors:
		if err != nil {
			log.Warn().
				Err(err).
				Int("fetched_pages", fetchedPages).
				Int("total_pages", totalPages).
				Msg("Worker error - returning partial results")
			return results, fmt.Errorf("worker error (partial data: %d/%d pages): %w", fetchedPages, totalPages, err)
		}
	default:
	}

	log.Info().
		Str("resource", resource).
		Int("pages", fetchedPages).
		Int("total", totalPages).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results, nil
}

// worker processes pages from the queue
func (f *Fetcher) worker(ctx context.Context, resource string, pageQueue <-chan int, results chan<- PageResult, errors chan<- error, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for pageNum := range pageQueue {
		// Check context cancellation
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		// Fetch window with timeout
		skip := (pageNum - 1) * f.config.PageSize
		pageCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
		data, _, err := f.fetcher.FetchPage(pageCtx, resource, skip, f.config.PageSize)
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("page", pageNum).
				Msg("Page fetch failed")

			// Non-blocking error send
			select {
			case errors <- err:
			default:
			}
			return
		}

		// Send result
		select {
		case results <- PageResult{
			PageNumber: pageNum,
			Data:       data,
			Error:      nil,
		}:
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled after fetch)")
			return
		}

		pagesProcessed++
	}

	if pagesProcessed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", pagesProcessed).
			Msg("Worker completed")
	}
}
