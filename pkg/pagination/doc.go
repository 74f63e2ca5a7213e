// Package pagination provides parallel page fetching for OData collections.
//
// OData v4 services page large collections two ways: client-driven paging
// with $top/$skip (the total comes from $count=true), and server-driven
// paging where each response carries an @odata.nextLink. This package
// implements a worker pool for the $top/$skip style and a sequential walker
// for nextLink chains, which must be followed in order.
//
// Example usage:
//
//	config := pagination.DefaultConfig()
//	fetcher := pagination.NewFetcher(pageSource, config)
//	results, err := fetcher.FetchAll(ctx, "Products")
//
// The fetcher:
//   - Fetches the first page to determine the total count
//   - Spawns a worker pool (default 10 workers)
//   - Distributes the remaining $skip windows across workers
//   - Collects results with progress logging
//   - Handles errors gracefully (returns partial data)
package pagination
