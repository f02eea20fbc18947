// Package sqlite provides the SQLite implementation of repository.QuizRepository.
// The connection must have foreign keys enabled for deletes to cascade.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"wiki-quiz/internal/domain/entity"
	"wiki-quiz/internal/infra/adapter/persistence"
	"wiki-quiz/internal/repository"
)

type QuizRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewQuizRepo(db *sql.DB) repository.QuizRepository {
	return &QuizRepo{db: db, now: time.Now}
}

func (repo *QuizRepo) FindByURL(ctx context.Context, url string) (*entity.Quiz, error) {
	const query = `
SELECT id, url, title, summary, key_entities, sections, raw_html, created_at
FROM quizzes
WHERE url = ?
LIMIT 1`
	quiz, err := repo.load(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("FindByURL: %w", err)
	}
	return quiz, nil
}

func (repo *QuizRepo) FindByID(ctx context.Context, id int64) (*entity.Quiz, error) {
	const query = `
SELECT id, url, title, summary, key_entities, sections, raw_html, created_at
FROM quizzes
WHERE id = ?
LIMIT 1`
	quiz, err := repo.load(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("FindByID: %w", err)
	}
	return quiz, nil
}

// load reads one quizzes row plus its questions and topics. (nil, nil) when no row matches.
func (repo *QuizRepo) load(ctx context.Context, query string, arg any) (*entity.Quiz, error) {
	var (
		quiz     entity.Quiz
		entities []byte
		sections []byte
	)
	err := repo.db.QueryRowContext(ctx, query, arg).Scan(
		&quiz.ID, &quiz.URL, &quiz.Title, &quiz.Summary,
		&entities, &sections, &quiz.RawHTML, &quiz.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if quiz.KeyEntities, err = persistence.DecodeKeyEntities(entities); err != nil {
		return nil, err
	}
	if quiz.Sections, err = persistence.DecodeStrings(sections); err != nil {
		return nil, err
	}
	if quiz.Questions, err = repo.questions(ctx, quiz.ID); err != nil {
		return nil, err
	}
	if quiz.RelatedTopics, err = repo.topics(ctx, quiz.ID); err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (repo *QuizRepo) questions(ctx context.Context, quizID int64) ([]entity.Question, error) {
	const query = `
SELECT question, options, answer, difficulty, explanation, section_reference
FROM quiz_questions
WHERE quiz_id = ?
ORDER BY position`
	rows, err := repo.db.QueryContext(ctx, query, quizID)
	if err != nil {
		return nil, fmt.Errorf("questions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	questions := make([]entity.Question, 0, 10)
	for rows.Next() {
		var (
			q       entity.Question
			options []byte
		)
		if err := rows.Scan(&q.Question, &options, &q.Answer, &q.Difficulty, &q.Explanation, &q.SectionReference); err != nil {
			return nil, fmt.Errorf("questions: Scan: %w", err)
		}
		if q.Options, err = persistence.DecodeStrings(options); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("questions: rows.Err: %w", err)
	}
	return questions, nil
}

func (repo *QuizRepo) topics(ctx context.Context, quizID int64) ([]string, error) {
	const query = `
SELECT topic
FROM related_topics
WHERE quiz_id = ?
ORDER BY position`
	rows, err := repo.db.QueryContext(ctx, query, quizID)
	if err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	topics := make([]string, 0, 5)
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, fmt.Errorf("topics: Scan: %w", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("topics: rows.Err: %w", err)
	}
	return topics, nil
}

// Save inserts the quiz with its questions and topics in one transaction.
// created_at is stamped in Go and stored in the DATETIME column.
// A concurrent insert of the same URL surfaces as repository.ErrDuplicateURL.
func (repo *QuizRepo) Save(ctx context.Context, quiz *entity.Quiz) (saved *entity.Quiz, err error) {
	entities, err := persistence.EncodeKeyEntities(quiz.KeyEntities)
	if err != nil {
		return nil, fmt.Errorf("Save: %w", err)
	}
	sections, err := persistence.EncodeStrings(quiz.Sections)
	if err != nil {
		return nil, fmt.Errorf("Save: %w", err)
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Save: BeginTx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stored := *quiz
	stored.CreatedAt = repo.now().UTC()
	const insertQuiz = `
INSERT INTO quizzes (url, title, summary, key_entities, sections, raw_html, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, insertQuiz,
		quiz.URL, quiz.Title, quiz.Summary, string(entities), string(sections), quiz.RawHTML, stored.CreatedAt,
	)
	if err != nil {
		var liteErr sqlite3.Error
		if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("Save: %w", repository.ErrDuplicateURL)
		}
		return nil, fmt.Errorf("Save: insert quiz: %w", err)
	}
	if stored.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("Save: LastInsertId: %w", err)
	}

	const insertQuestion = `
INSERT INTO quiz_questions
       (quiz_id, position, question, options, answer, difficulty, explanation, section_reference)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for i, q := range quiz.Questions {
		var options []byte
		if options, err = persistence.EncodeStrings(q.Options); err != nil {
			return nil, fmt.Errorf("Save: %w", err)
		}
		if _, err = tx.ExecContext(ctx, insertQuestion,
			stored.ID, i, q.Question, string(options), q.Answer, string(q.Difficulty), q.Explanation, q.SectionReference,
		); err != nil {
			return nil, fmt.Errorf("Save: insert question %d: %w", i, err)
		}
	}

	const insertTopic = `INSERT INTO related_topics (quiz_id, position, topic) VALUES (?, ?, ?)`
	for i, topic := range quiz.RelatedTopics {
		if _, err = tx.ExecContext(ctx, insertTopic, stored.ID, i, topic); err != nil {
			return nil, fmt.Errorf("Save: insert topic %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("Save: Commit: %w", err)
	}
	return &stored, nil
}

// Delete removes the quiz; questions and topics go with it through ON DELETE CASCADE.
func (repo *QuizRepo) Delete(ctx context.Context, id int64) (bool, error) {
	const query = `DELETE FROM quizzes WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Delete: RowsAffected: %w", err)
	}
	return n > 0, nil
}

func (repo *QuizRepo) ListAll(ctx context.Context) ([]entity.QuizSummary, error) {
	const query = `
SELECT q.id, q.url, q.title, q.created_at, COUNT(qq.id) AS question_count
FROM quizzes q
LEFT JOIN quiz_questions qq ON qq.quiz_id = q.id
GROUP BY q.id, q.url, q.title, q.created_at
ORDER BY q.created_at DESC, q.id DESC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListAll: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := make([]entity.QuizSummary, 0, 50)
	for rows.Next() {
		var s entity.QuizSummary
		if err := rows.Scan(&s.ID, &s.URL, &s.Title, &s.CreatedAt, &s.QuestionCount); err != nil {
			return nil, fmt.Errorf("ListAll: Scan: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAll: rows.Err: %w", err)
	}
	return summaries, nil
}
