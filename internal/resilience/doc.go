// Package resilience groups the fault tolerance helpers used around calls to
// Wikipedia and the language model providers.
//
//   - circuitbreaker: gobreaker wrapper with per-dependency presets
//   - retry: exponential backoff with jitter for transient failures
//
// The fetcher nests them: each retry attempt goes through the breaker, and an
// open breaker ends the retry loop at once.
//
//	cb := circuitbreaker.New(circuitbreaker.WikipediaFetchConfig())
//	err := retry.WithBackoff(ctx, retry.WikipediaFetchConfig(), func() error {
//	    _, err := cb.Execute(func() (interface{}, error) {
//	        return fetch(ctx)
//	    })
//	    return err
//	})
package resilience
