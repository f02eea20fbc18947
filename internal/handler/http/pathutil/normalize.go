package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern maps a dynamic route to its metrics label.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/api/quiz/\d+$`), Template: "/api/quiz/:id"},
}

// swaggerPrefix groups every swagger asset under one label.
const swaggerPrefix = "/swagger/"

// NormalizePath collapses IDs in request paths so metric labels stay bounded.
//
//	NormalizePath("/api/quiz/123")      // "/api/quiz/:id"
//	NormalizePath("/api/quiz/history")  // "/api/quiz/history"
//	NormalizePath("/api/quiz/7?x=1")    // "/api/quiz/:id"
//	NormalizePath("/swagger/index.html") // "/swagger/*"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if strings.HasPrefix(path, swaggerPrefix) {
		return swaggerPrefix + "*"
	}

	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return path
}
