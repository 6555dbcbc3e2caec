package driven

import "context"

// Fetcher retrieves the rendered markup of a document.
type Fetcher interface {
	// Fetch returns the response body of a GET request to url.
	// Non-success statuses are errors.
	Fetch(ctx context.Context, url string) (string, error)
}
