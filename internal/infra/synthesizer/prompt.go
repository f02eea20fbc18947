package synthesizer

import "fmt"

const questionsPromptTemplate = `You are an expert educator creating a quiz based on a Wikipedia article.

ARTICLE TITLE:
%s

ARTICLE CONTENT:
%s

INSTRUCTIONS:
1. Generate EXACTLY %d multiple-choice questions.
2. Each question must include:
   - question
   - 4 options
   - answer (copied exactly from one of the options)
   - difficulty (easy / medium / hard)
   - explanation
   - section_reference (the article section the question is based on, optional)

RULES:
- Use ONLY the given article content
- Do NOT invent facts
- Mix difficulty levels
- Return VALID JSON ONLY

OUTPUT FORMAT:
[
  {
    "question": "...",
    "options": ["...", "...", "...", "..."],
    "answer": "...",
    "difficulty": "medium",
    "explanation": "...",
    "section_reference": "..."
  }
]`

const topicsPromptTemplate = `Based on the Wikipedia article below, suggest %d related topics for further reading.

ARTICLE TITLE:
%s

ARTICLE SUMMARY:
%s

Return ONLY a valid JSON array of strings:
["Topic 1", "Topic 2", "Topic 3", "Topic 4", "Topic 5"]`

func buildQuestionsPrompt(title, content string, count int) string {
	return fmt.Sprintf(questionsPromptTemplate, title, content, count)
}

func buildTopicsPrompt(title, summary string) string {
	return fmt.Sprintf(topicsPromptTemplate, MaxTopics, title, summary)
}
