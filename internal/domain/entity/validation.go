package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
const maxURLLength = 2048

// WikipediaArticlePrefix is the only URL form the pipeline accepts.
const WikipediaArticlePrefix = "https://en.wikipedia.org/wiki/"

// ValidateArticleURL checks that rawURL points at an English Wikipedia article.
// It never touches the network. The returned error is a validation QuizError.
func ValidateArticleURL(rawURL string) error {
	if rawURL == "" {
		return Invalid("url", "url is required")
	}

	// DoS protection: enforce maximum URL length
	if len(rawURL) > maxURLLength {
		return Invalid("url", fmt.Sprintf("url must not exceed %d characters", maxURLLength))
	}

	if strings.ContainsAny(rawURL, " \t\r\n") || !strings.HasPrefix(rawURL, WikipediaArticlePrefix) {
		return Invalid("url", "url must be a Wikipedia article (https://en.wikipedia.org/wiki/...)")
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.User != nil || u.Host != "en.wikipedia.org" {
		return Invalid("url", "url must be a Wikipedia article (https://en.wikipedia.org/wiki/...)")
	}

	if strings.TrimPrefix(u.Path, "/wiki/") == "" {
		return Invalid("url", "url must name an article after /wiki/")
	}

	return nil
}
