package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Cgdx/aws-certification-practice/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Catalog methods

// InsertQuestion inserts a new catalog question and returns its ID.
func (db *DB) InsertQuestion(q domain.Question, hash string, sourceID int64) (int64, error) {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return 0, fmt.Errorf("failed to encode options for question %q: %w", hash, err)
	}

	res, err := db.conn.Exec(`
		INSERT INTO questions (hash, exam_type, domain, difficulty, question_text,
		                       options, correct_answer, explanation, reference, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		hash,
		q.ExamType,
		q.Domain,
		q.Difficulty,
		q.Text,
		string(options),
		q.CorrectAnswer,
		q.Explanation,
		q.Reference,
		sourceID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert question %q: %w", hash, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert ID for question %q: %w", hash, err)
	}
	return id, nil
}

// FindQuestionByHash retrieves a question by its content hash.
// Returns (nil, nil) when no such question exists.
func (db *DB) FindQuestionByHash(hash string) (*domain.Question, error) {
	row := db.conn.QueryRow(`
		SELECT id, exam_type, domain, difficulty, question_text,
		       options, correct_answer, explanation, reference
		FROM questions WHERE hash = ?
	`, hash)

	q, err := scanQuestion(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Question not found
		}
		return nil, fmt.Errorf("failed to find question by hash %q: %w", hash, err)
	}
	return q, nil
}

// QuestionsByExam retrieves all catalog questions for an exam type,
// easiest first.
func (db *DB) QuestionsByExam(examType string) ([]domain.Question, error) {
	rows, err := db.conn.Query(`
		SELECT id, exam_type, domain, difficulty, question_text,
		       options, correct_answer, explanation, reference
		FROM questions
		WHERE exam_type = ?
		ORDER BY difficulty ASC, id ASC
	`, examType)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions for exam %q: %w", examType, err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// QuestionCount returns the number of catalog questions for an exam type.
func (db *DB) QuestionCount(examType string) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM questions WHERE exam_type = ?`, examType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions for exam %q: %w", examType, err)
	}
	return count, nil
}

// QuestionHashesBySourceID returns the content hashes of all questions
// imported from a source. Used during sync to prune orphaned questions.
func (db *DB) QuestionHashesBySourceID(sourceID int64) ([]string, error) {
	rows, err := db.conn.Query(`SELECT hash FROM questions WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question hashes for source ID %d: %w", sourceID, err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("failed to scan question hash for source ID %d: %w", sourceID, err)
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

// DeleteQuestionByHash removes a question from the catalog by its hash.
func (db *DB) DeleteQuestionByHash(hash string) error {
	_, err := db.conn.Exec(`DELETE FROM questions WHERE hash = ?`, hash)
	if err != nil {
		return fmt.Errorf("failed to delete question %q: %w", hash, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*domain.Question, error) {
	var q domain.Question
	var options string
	var explanation, reference sql.NullString

	err := row.Scan(
		&q.ID,
		&q.ExamType,
		&q.Domain,
		&q.Difficulty,
		&q.Text,
		&options,
		&q.CorrectAnswer,
		&explanation,
		&reference,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return nil, fmt.Errorf("failed to decode options for question %d: %w", q.ID, err)
	}
	q.Explanation = explanation.String
	q.Reference = reference.String
	return &q, nil
}

// Review ledger methods

// GetRecord retrieves the review record for a (question, user) pair.
// Returns (nil, nil) when the user has never reviewed the question.
func (db *DB) GetRecord(questionID, userID int64) (*domain.ReviewRecord, error) {
	var rec domain.ReviewRecord
	var lastSeen sql.NullTime

	row := db.conn.QueryRow(`
		SELECT question_id, user_id, times_seen, times_correct,
		       last_seen, ease_factor, interval_days, next_review
		FROM question_stats WHERE question_id = ? AND user_id = ?
	`, questionID, userID)

	err := row.Scan(
		&rec.QuestionID,
		&rec.UserID,
		&rec.TimesSeen,
		&rec.TimesCorrect,
		&lastSeen,
		&rec.EaseFactor,
		&rec.IntervalDays,
		&rec.NextReview,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Never reviewed
		}
		return nil, fmt.Errorf("failed to get review record (%d, %d): %w", questionID, userID, err)
	}
	rec.LastSeen = lastSeen.Time
	return &rec, nil
}

// UpsertRecord inserts or fully replaces the review record for its
// (question, user) key. The single statement keeps the write atomic per
// key; concurrent writers resolve as last-writer-wins.
func (db *DB) UpsertRecord(rec *domain.ReviewRecord) error {
	_, err := db.conn.Exec(`
		INSERT INTO question_stats
			(question_id, user_id, times_seen, times_correct, last_seen,
			 ease_factor, interval_days, next_review)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(question_id, user_id) DO UPDATE SET
			times_seen = excluded.times_seen,
			times_correct = excluded.times_correct,
			last_seen = excluded.last_seen,
			ease_factor = excluded.ease_factor,
			interval_days = excluded.interval_days,
			next_review = excluded.next_review
	`,
		rec.QuestionID,
		rec.UserID,
		rec.TimesSeen,
		rec.TimesCorrect,
		rec.LastSeen,
		rec.EaseFactor,
		rec.IntervalDays,
		rec.NextReview,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert review record (%d, %d): %w", rec.QuestionID, rec.UserID, err)
	}
	return nil
}

// RecordsByExam retrieves all review records a user holds for questions
// of the given exam type, keyed by question ID.
func (db *DB) RecordsByExam(examType string, userID int64) (map[int64]*domain.ReviewRecord, error) {
	rows, err := db.conn.Query(`
		SELECT qs.question_id, qs.user_id, qs.times_seen, qs.times_correct,
		       qs.last_seen, qs.ease_factor, qs.interval_days, qs.next_review
		FROM question_stats qs
		JOIN questions q ON qs.question_id = q.id
		WHERE q.exam_type = ? AND qs.user_id = ?
	`, examType, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review records for exam %q: %w", examType, err)
	}
	defer rows.Close()

	records := make(map[int64]*domain.ReviewRecord)
	for rows.Next() {
		var rec domain.ReviewRecord
		var lastSeen sql.NullTime
		if err := rows.Scan(
			&rec.QuestionID,
			&rec.UserID,
			&rec.TimesSeen,
			&rec.TimesCorrect,
			&lastSeen,
			&rec.EaseFactor,
			&rec.IntervalDays,
			&rec.NextReview,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review record row: %w", err)
		}
		rec.LastSeen = lastSeen.Time
		records[rec.QuestionID] = &rec
	}
	return records, rows.Err()
}

// Exam session methods

// SaveExamSession stores a completed exam run and returns its ID.
func (db *DB) SaveExamSession(s *domain.ExamSession) (int64, error) {
	weakDomains, err := json.Marshal(s.WeakDomains)
	if err != nil {
		return 0, fmt.Errorf("failed to encode weak domains: %w", err)
	}

	res, err := db.conn.Exec(`
		INSERT INTO exam_sessions (exam_type, user_id, date, score, total, time_spent, weak_domains)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		s.ExamType,
		s.UserID,
		s.Date,
		s.Score,
		s.Total,
		s.TimeSpent,
		string(weakDomains),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save exam session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert ID for exam session: %w", err)
	}
	return id, nil
}

// ExamSessions retrieves a user's most recent exam runs, newest first.
func (db *DB) ExamSessions(examType string, userID int64, limit int) ([]domain.ExamSession, error) {
	rows, err := db.conn.Query(`
		SELECT id, exam_type, user_id, date, score, total, time_spent, weak_domains
		FROM exam_sessions
		WHERE exam_type = ? AND user_id = ?
		ORDER BY date DESC
		LIMIT ?
	`, examType, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam sessions for %q: %w", examType, err)
	}
	defer rows.Close()

	var sessions []domain.ExamSession
	for rows.Next() {
		var s domain.ExamSession
		var weakDomains sql.NullString
		if err := rows.Scan(
			&s.ID,
			&s.ExamType,
			&s.UserID,
			&s.Date,
			&s.Score,
			&s.Total,
			&s.TimeSpent,
			&weakDomains,
		); err != nil {
			return nil, fmt.Errorf("failed to scan exam session row: %w", err)
		}
		if weakDomains.Valid && weakDomains.String != "" {
			if err := json.Unmarshal([]byte(weakDomains.String), &s.WeakDomains); err != nil {
				return nil, fmt.Errorf("failed to decode weak domains for session %d: %w", s.ID, err)
			}
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Source methods

// Source represents a question bank source, either a local path or a Git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string // "local" or "git"
	LastScanned sql.NullTime
}

// InsertSource inserts a new source and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type, last_scanned)
		VALUES (?, ?, ?)
	`, path, sourceType, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, type, last_scanned
		FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources from the database.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, type, last_scanned
		FROM sources
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source and all questions imported from it.
func (db *DB) DeleteSource(id int64) error {
	if _, err := db.conn.Exec(`DELETE FROM questions WHERE source_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete questions for source ID %d: %w", id, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source ID %d: %w", id, err)
	}
	return nil
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec(`
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}
