package synthesizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"wiki-quiz/internal/domain/entity"
)

var (
	// arraySpan is greedy so nested arrays stay inside the match.
	arraySpan = regexp.MustCompile(`(?s)\[.*\]`)
	// thinkBlock matches the reasoning preamble some local models emit.
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

	errNoJSONArray = errors.New("no JSON array found in model response")

	requiredQuestionFields = []string{"question", "options", "answer", "difficulty", "explanation"}
)

func stripThinking(raw string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(raw, ""))
}

// parseArray decodes the reply as a JSON array, falling back to the widest
// bracketed span when the array is wrapped in prose.
func parseArray(raw string) ([]json.RawMessage, error) {
	cleaned := stripThinking(raw)

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil {
		return items, nil
	}

	span := arraySpan.FindString(cleaned)
	if span == "" {
		return nil, errNoJSONArray
	}
	if err := json.Unmarshal([]byte(span), &items); err != nil {
		return nil, fmt.Errorf("decode bracketed span: %w", err)
	}
	return items, nil
}

// parseTopics decodes the topics reply. A well-formed JSON value that is not
// an array is reported with isArray false rather than as an error.
func parseTopics(raw string) (values []any, isArray bool, err error) {
	cleaned := stripThinking(raw)

	var v any
	if err := json.Unmarshal([]byte(cleaned), &v); err == nil {
		values, isArray = v.([]any)
		return values, isArray, nil
	}

	span := arraySpan.FindString(cleaned)
	if span == "" {
		return nil, false, errNoJSONArray
	}
	if err := json.Unmarshal([]byte(span), &values); err != nil {
		return nil, false, fmt.Errorf("decode bracketed span: %w", err)
	}
	return values, true, nil
}

// toQuestion validates one element of the questions array.
// Every required key must be present, options must hold exactly
// OptionsPerQuestion non-empty strings and the answer must name one of them.
func (s *Synthesizer) toQuestion(item json.RawMessage) (entity.Question, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return entity.Question{}, false
	}
	for _, key := range requiredQuestionFields {
		if _, ok := fields[key]; !ok {
			return entity.Question{}, false
		}
	}

	question, ok := decodeString(fields["question"])
	if !ok {
		return entity.Question{}, false
	}
	question = s.clean(question)
	if question == "" {
		return entity.Question{}, false
	}

	var rawOptions []string
	if err := json.Unmarshal(fields["options"], &rawOptions); err != nil || len(rawOptions) != entity.OptionsPerQuestion {
		return entity.Question{}, false
	}
	options := make([]string, 0, len(rawOptions))
	for _, o := range rawOptions {
		o = s.clean(o)
		if o == "" {
			return entity.Question{}, false
		}
		options = append(options, o)
	}

	answer, ok := decodeString(fields["answer"])
	if !ok {
		return entity.Question{}, false
	}
	answer, ok = matchOption(s.clean(answer), options)
	if !ok {
		return entity.Question{}, false
	}

	explanation, ok := decodeString(fields["explanation"])
	if !ok {
		return entity.Question{}, false
	}

	difficulty, _ := decodeString(fields["difficulty"])
	sectionRef, _ := decodeString(fields["section_reference"])

	return entity.Question{
		Question:         question,
		Options:          options,
		Answer:           answer,
		Difficulty:       normalizeDifficulty(difficulty),
		Explanation:      s.clean(explanation),
		SectionReference: s.clean(sectionRef),
	}, true
}

// decodeString accepts a JSON string or null. A missing value decodes as "".
func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", true
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}

// matchOption returns the option answer refers to, using the option's own text.
func matchOption(answer string, options []string) (string, bool) {
	for _, o := range options {
		if o == answer {
			return o, true
		}
	}
	for _, o := range options {
		if strings.EqualFold(o, answer) {
			return o, true
		}
	}
	return "", false
}

// normalizeDifficulty coerces any unknown label to medium.
func normalizeDifficulty(v string) entity.Difficulty {
	d := entity.Difficulty(strings.ToLower(strings.TrimSpace(v)))
	if d.Valid() {
		return d
	}
	return entity.DifficultyMedium
}

// maxSanitizePasses bounds how many layers of entity encoding are peeled off.
const maxSanitizePasses = 4

// sanitize removes all markup and returns plain text. Entity-encoded markup
// becomes real markup once unescaped, so the strip-then-unescape step repeats
// until the value stops changing. A value still changing after
// maxSanitizePasses is returned in its escaped form.
func sanitize(policy *bluemonday.Policy, v string) string {
	for range maxSanitizePasses {
		next := html.UnescapeString(policy.Sanitize(v))
		if next == v {
			return strings.TrimSpace(v)
		}
		v = next
	}
	return strings.TrimSpace(policy.Sanitize(v))
}
