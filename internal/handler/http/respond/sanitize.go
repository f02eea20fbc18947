package respond

import (
	"regexp"
)

var (
	// Anthropic keys must be masked before the broader OpenAI pattern runs.
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	// Does not match already-masked values (they contain '*').
	openaiKeyPattern = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)

	// user:password@ in postgres:// and redis:// URLs
	urlPasswordPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)
)

// SanitizeError returns err's message with API keys and URL passwords masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = urlPasswordPattern.ReplaceAllString(msg, "://$1:****@")

	return msg
}
