// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deep-research/internal/aggregate"
	"github.com/pdiddy/deep-research/pkg/types"
)

const dbFile = "sessions.db"

// Store persists sessions, their results, and their analyses in a SQLite
// database under the data directory.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the session database at dataDir/sessions.db and
// ensures the schema exists.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			depth TEXT NOT NULL,
			language TEXT,
			state TEXT NOT NULL,
			sources TEXT,
			queries TEXT,
			coverage TEXT,
			failure_reason TEXT,
			created_at TEXT,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			url TEXT NOT NULL,
			title TEXT,
			snippet TEXT,
			source TEXT,
			queries TEXT,
			raw_score REAL,
			fetched_at TEXT,
			relevance_score REAL,
			rank INTEGER,
			UNIQUE(session_id, url)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_session ON results(session_id)`,
		`CREATE TABLE IF NOT EXISTS analyses (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			url TEXT NOT NULL,
			type TEXT NOT NULL,
			items TEXT,
			confidence REAL,
			failed INTEGER,
			failure_reason TEXT,
			created_at TEXT,
			PRIMARY KEY (session_id, url, type)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table over result text with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='results_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE results_fts USING fts5(title, snippet, content=results, content_rowid=rowid)`,
			`CREATE TRIGGER results_ai AFTER INSERT ON results BEGIN
				INSERT INTO results_fts(rowid, title, snippet) VALUES (new.rowid, new.title, new.snippet);
			END`,
			`CREATE TRIGGER results_ad AFTER DELETE ON results BEGIN
				INSERT INTO results_fts(results_fts, rowid, title, snippet) VALUES('delete', old.rowid, old.title, old.snippet);
			END`,
			`CREATE TRIGGER results_au AFTER UPDATE ON results BEGIN
				INSERT INTO results_fts(results_fts, rowid, title, snippet) VALUES('delete', old.rowid, old.title, old.snippet);
				INSERT INTO results_fts(rowid, title, snippet) VALUES (new.rowid, new.title, new.snippet);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// Save writes the full session, replacing any previous snapshot of its
// results and analyses in one transaction.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	sourcesJSON, _ := json.Marshal(sess.Sources)
	queriesJSON, _ := json.Marshal(sess.Queries)
	coverageJSON, _ := json.Marshal(sess.Coverage)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, topic, depth, language, state, sources, queries, coverage, failure_reason, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			topic=excluded.topic, depth=excluded.depth, language=excluded.language,
			state=excluded.state, sources=excluded.sources, queries=excluded.queries,
			coverage=excluded.coverage, failure_reason=excluded.failure_reason,
			updated_at=excluded.updated_at`,
		sess.ID, sess.Topic, string(sess.Depth), sess.Language, string(sess.State),
		string(sourcesJSON), string(queriesJSON), string(coverageJSON), sess.FailureReason,
		sess.CreatedAt.Format(time.RFC3339Nano), sess.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE session_id = ?`, sess.ID); err != nil {
		return fmt.Errorf("clearing old results: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM analyses WHERE session_id = ?`, sess.ID); err != nil {
		return fmt.Errorf("clearing old analyses: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (session_id, url, title, snippet, source, queries, raw_score, fetched_at, relevance_score, rank)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range sess.Results.Results {
		rqJSON, _ := json.Marshal(r.Queries)
		_, err := stmt.ExecContext(ctx,
			sess.ID, r.URL, r.Title, r.Snippet, string(r.Source), string(rqJSON),
			r.RawScore, r.FetchedAt.Format(time.RFC3339Nano), r.RelevanceScore, r.Rank,
		)
		if err != nil {
			return fmt.Errorf("inserting result %s: %w", r.URL, err)
		}
	}

	aStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO analyses (session_id, url, type, items, confidence, failed, failure_reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing analysis insert: %w", err)
	}
	defer aStmt.Close()

	for _, a := range sess.Analyses {
		itemsJSON, _ := json.Marshal(a.Items)
		failed := 0
		if a.Failed {
			failed = 1
		}
		_, err := aStmt.ExecContext(ctx,
			sess.ID, a.URL, string(a.Type), string(itemsJSON),
			a.Confidence, failed, a.FailureReason, a.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("inserting analysis %s/%s: %w", a.URL, a.Type, err)
		}
	}

	return tx.Commit()
}

// Load reconstructs a session with its results and analyses.
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	sess := &Session{
		Results:  aggregate.NewSet(),
		Analyses: make(map[AnalysisKey]types.ContentAnalysis),
	}

	var sourcesJSON, queriesJSON, coverageJSON string
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, topic, depth, language, state, sources, queries, coverage, failure_reason, created_at, updated_at
		 FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Topic, &sess.Depth, &sess.Language, &sess.State,
		&sourcesJSON, &queriesJSON, &coverageJSON, &sess.FailureReason, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	json.Unmarshal([]byte(sourcesJSON), &sess.Sources)
	json.Unmarshal([]byte(queriesJSON), &sess.Queries)
	json.Unmarshal([]byte(coverageJSON), &sess.Coverage)
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	sess.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	if err := s.loadResults(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.loadAnalyses(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) loadResults(ctx context.Context, sess *Session) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, snippet, source, queries, raw_score, fetched_at, relevance_score, rank
		 FROM results WHERE session_id = ? ORDER BY rank`, sess.ID)
	if err != nil {
		return fmt.Errorf("loading results: %w", err)
	}
	defer rows.Close()

	var batch []types.SearchResult
	for rows.Next() {
		var r types.SearchResult
		var queriesJSON, fetchedAt string
		if err := rows.Scan(&r.URL, &r.Title, &r.Snippet, &r.Source, &queriesJSON,
			&r.RawScore, &fetchedAt, &r.RelevanceScore, &r.Rank); err != nil {
			return fmt.Errorf("scanning result: %w", err)
		}
		json.Unmarshal([]byte(queriesJSON), &r.Queries)
		r.FetchedAt, _ = time.Parse(time.RFC3339Nano, fetchedAt)
		batch = append(batch, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating results: %w", err)
	}
	sess.Results.Add(batch)
	return nil
}

func (s *Store) loadAnalyses(ctx context.Context, sess *Session) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, type, items, confidence, failed, failure_reason, created_at
		 FROM analyses WHERE session_id = ?`, sess.ID)
	if err != nil {
		return fmt.Errorf("loading analyses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a types.ContentAnalysis
		var itemsJSON, createdAt string
		var failed int
		if err := rows.Scan(&a.URL, &a.Type, &itemsJSON, &a.Confidence, &failed, &a.FailureReason, &createdAt); err != nil {
			return fmt.Errorf("scanning analysis: %w", err)
		}
		json.Unmarshal([]byte(itemsJSON), &a.Items)
		a.Failed = failed != 0
		a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		sess.PutAnalysis(a)
	}
	return rows.Err()
}

// Summary is one row of a session listing.
type Summary struct {
	ID        string
	Topic     string
	Depth     types.Depth
	State     types.SessionState
	Results   int
	UpdatedAt time.Time
}

// List returns summaries of all stored sessions, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.topic, s.depth, s.state, s.updated_at, count(r.url)
		 FROM sessions s LEFT JOIN results r ON r.session_id = s.id
		 GROUP BY s.id ORDER BY s.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var updatedAt string
		if err := rows.Scan(&sum.ID, &sum.Topic, &sum.Depth, &sum.State, &updatedAt, &sum.Results); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Match is one full-text hit across stored results.
type Match struct {
	SessionID string
	Result    types.SearchResult
}

// SearchResults runs an FTS query over stored result titles and snippets
// across all sessions.
func (s *Store) SearchResults(ctx context.Context, query string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.session_id, r.url, r.title, r.snippet, r.source, r.relevance_score, r.rank
		 FROM results_fts f JOIN results r ON r.rowid = f.rowid
		 WHERE results_fts MATCH ? ORDER BY f.rank LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("full-text search: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.SessionID, &m.Result.URL, &m.Result.Title, &m.Result.Snippet,
			&m.Result.Source, &m.Result.RelevanceScore, &m.Result.Rank); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
