// Package http provides an HTTP client configured for scraping nts.live and
// the pages it links to.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Timeout handling
//   - Client-side rate limiting (golang.org/x/time/rate)
//   - Uniform *FetchError values for transport and status failures
//
// # Basic Usage
//
//	client := http.NewClient(&http.Config{Timeout: 30 * time.Second})
//
//	// Fetch HTML page
//	page, err := client.Get(ctx, episodeURL)
//
//	// Fetch an image and its declared content type
//	resp, err := client.Fetch(ctx, imageURL)
//	fmt.Println(resp.ContentType)
//
// # Errors
//
// Every failure is a *FetchError:
//
//	var fetchErr *http.FetchError
//	if errors.As(err, &fetchErr) {
//	    fmt.Println(fetchErr.URL, fetchErr.StatusCode)
//	}
package http
