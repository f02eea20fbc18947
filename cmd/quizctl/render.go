package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"wiki-quiz/internal/domain/entity"
	hquiz "wiki-quiz/internal/handler/http/quiz"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func (c *cli) printQuiz(q *entity.Quiz) error {
	switch c.format() {
	case formatJSON, formatYAML:
		return c.encode(hquiz.ToDTO(q))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n%s\n", q.ID, q.Title, q.URL)
	if q.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", q.Summary)
	}
	writeList(&b, "People", q.KeyEntities.People)
	writeList(&b, "Organizations", q.KeyEntities.Organizations)
	writeList(&b, "Locations", q.KeyEntities.Locations)
	writeList(&b, "Sections", q.Sections)

	for i, question := range q.Questions {
		fmt.Fprintf(&b, "\nQ%d [%s] %s\n", i+1, question.Difficulty, question.Question)
		for j, opt := range question.Options {
			mark := " "
			if opt == question.Answer {
				mark = "*"
			}
			fmt.Fprintf(&b, "  %s %c) %s\n", mark, 'a'+j, opt)
		}
		if question.Explanation != "" {
			fmt.Fprintf(&b, "    %s\n", question.Explanation)
		}
	}
	writeList(&b, "\nRelated topics", q.RelatedTopics)

	_, err := fmt.Fprint(c.out, b.String())
	return err
}

func (c *cli) printHistory(items []entity.QuizSummary) error {
	switch c.format() {
	case formatJSON, formatYAML:
		return c.encode(hquiz.ToHistoryDTO(items))
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(c.out, "no quizzes yet")
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQUESTIONS\tCREATED\tTITLE")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", it.ID, it.QuestionCount, it.CreatedAt.UTC().Format(time.RFC3339), it.Title)
	}
	return tw.Flush()
}

// encode writes v in the JSON API shape. YAML is produced from the JSON form
// so both formats share field names.
func (c *cli) encode(v any) error {
	if c.format() == formatJSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(c.out)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func writeList(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(values, ", "))
}
