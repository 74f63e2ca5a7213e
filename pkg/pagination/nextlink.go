package pagination

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// LinkFetcher fetches one page of a server-driven paging chain. FetchLink
// returns the raw page body and the @odata.nextLink of the following page,
// or an empty link on the last page.
type LinkFetcher interface {
	FetchLink(ctx context.Context, link string) (data []byte, nextLink string, err error)
}

// FollowNextLinks walks an @odata.nextLink chain starting at first and
// returns the pages in order. Server-driven paging cannot be parallelized;
// each link is only known after the previous page arrives.
//
// maxPages bounds the walk; 0 means unbounded. A chain longer than maxPages
// returns the collected pages together with an error.
func FollowNextLinks(ctx context.Context, fetcher LinkFetcher, first string, maxPages int) ([][]byte, error) {
	var pages [][]byte
	link := first

	for link != "" {
		if maxPages > 0 && len(pages) >= maxPages {
			return pages, fmt.Errorf("nextLink chain exceeds %d pages", maxPages)
		}

		select {
		case <-ctx.Done():
			return pages, ctx.Err()
		default:
		}

		data, next, err := fetcher.FetchLink(ctx, link)
		if err != nil {
			return pages, fmt.Errorf("fetch page %d: %w", len(pages)+1, err)
		}
		pages = append(pages, data)

		log.Debug().
			Int("page", len(pages)).
			Bool("has_next", next != "").
			Msg("Followed nextLink")

		link = next
	}

	return pages, nil
}
