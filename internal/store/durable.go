// Package store holds the two storage tiers: the authoritative SQLite
// store that survives restarts, and the volatile in-memory session cache.
//
// The durable store is the single source of truth. Every write is a
// single-row upsert keyed by user id with a last-write-wins timestamp, so
// concurrent traffic for distinct users never contends beyond the row.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is injectable for deterministic timestamps in tests.
var timeNow = time.Now

func nowISO() string {
	return timeNow().UTC().Format(time.RFC3339)
}

// --- Status enum ---

// Status tracks a user's lifecycle through the assessment. Transitions
// are forward-only except an explicit reset back to NotStarted.
type Status string

const (
	StatusNotStarted       Status = "not_started"
	StatusInProgress       Status = "in_progress"
	StatusCompletedNoShare Status = "completed_no_share"
	StatusCompletedShared  Status = "completed_shared"
)

// --- Records ---

// Contacts is the short contact form collected after the last question.
type Contacts struct {
	Name       string
	Telegram   string
	Company    string
	Revenue    string
	TgLink     string
	OfferOptIn bool
}

// ResultRecord is the persisted outcome of a finalized assessment.
type ResultRecord struct {
	AttemptID            string
	Stage                string
	SecondStage          string
	Confidence           int
	OwnerDependency      int
	ProcessFormalization int
	ManagementContour    int
	StageScoresJSON      string
	RawAnswersJSON       string
}

// --- Durable store ---

// Durable is the SQLite-backed authoritative store.
type Durable struct {
	db *sql.DB
}

// Open opens (or creates) the database at path with WAL mode and runs the
// schema migration.
func Open(path string) (*Durable, error) {
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	d := &Durable{db: db}
	if err := d.migrate(); err != nil {
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *Durable) Close() error {
	return d.db.Close()
}

func (d *Durable) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			tg_id      INTEGER PRIMARY KEY,
			username   TEXT,
			full_name  TEXT,
			status     TEXT NOT NULL DEFAULT 'not_started',
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS answers (
			tg_id       INTEGER NOT NULL,
			question_id TEXT    NOT NULL,
			option_key  TEXT    NOT NULL,
			updated_at  TEXT    NOT NULL,
			PRIMARY KEY (tg_id, question_id)
		);

		CREATE TABLE IF NOT EXISTS contacts (
			tg_id        INTEGER PRIMARY KEY,
			name         TEXT NOT NULL,
			telegram     TEXT NOT NULL,
			company      TEXT NOT NULL,
			revenue      TEXT NOT NULL,
			tg_link      TEXT,
			offer_opt_in INTEGER NOT NULL DEFAULT 0,
			updated_at   TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS results (
			tg_id                 INTEGER PRIMARY KEY,
			attempt_id            TEXT NOT NULL,
			stage                 TEXT NOT NULL,
			second_stage          TEXT NOT NULL,
			confidence            INTEGER NOT NULL,
			owner_dependency      INTEGER NOT NULL,
			process_formalization INTEGER NOT NULL,
			management_contour    INTEGER NOT NULL,
			stage_scores          TEXT NOT NULL,
			raw_answers           TEXT NOT NULL,
			updated_at            TEXT NOT NULL
		);
	`
	_, err := d.db.Exec(schema)
	return err
}

// UpsertUser records the user's profile, preserving any existing status.
func (d *Durable) UpsertUser(userID int64, username, fullName string) error {
	_, err := d.db.Exec(`
		INSERT INTO users(tg_id, username, full_name, updated_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(tg_id) DO UPDATE SET
		  username=excluded.username,
		  full_name=excluded.full_name,
		  updated_at=excluded.updated_at`,
		userID, username, fullName, nowISO())
	if err != nil {
		return fmt.Errorf("store: upsert user %d: %w", userID, err)
	}
	return nil
}

// SetStatus sets the user's lifecycle status, creating the row if needed.
func (d *Durable) SetStatus(userID int64, status Status) error {
	_, err := d.db.Exec(`
		INSERT INTO users(tg_id, username, full_name, status, updated_at)
		VALUES(?, '', '', ?, ?)
		ON CONFLICT(tg_id) DO UPDATE SET
		  status=excluded.status,
		  updated_at=excluded.updated_at`,
		userID, string(status), nowISO())
	if err != nil {
		return fmt.Errorf("store: set status for %d: %w", userID, err)
	}
	return nil
}

// GetStatus returns the user's status, or StatusNotStarted for unknown users.
func (d *Durable) GetStatus(userID int64) (Status, error) {
	var s string
	err := d.db.QueryRow(`SELECT status FROM users WHERE tg_id = ?`, userID).Scan(&s)
	if err == sql.ErrNoRows {
		return StatusNotStarted, nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get status for %d: %w", userID, err)
	}
	return Status(s), nil
}

// ClearAnswers discards every stored answer for the user. Part of Reset.
func (d *Durable) ClearAnswers(userID int64) error {
	if _, err := d.db.Exec(`DELETE FROM answers WHERE tg_id = ?`, userID); err != nil {
		return fmt.Errorf("store: clear answers for %d: %w", userID, err)
	}
	return nil
}

// UpsertAnswer records one answer; a later submission for the same
// question overwrites the earlier one.
func (d *Durable) UpsertAnswer(userID int64, questionID, optionKey string) error {
	_, err := d.db.Exec(`
		INSERT INTO answers(tg_id, question_id, option_key, updated_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(tg_id, question_id) DO UPDATE SET
		  option_key=excluded.option_key,
		  updated_at=excluded.updated_at`,
		userID, questionID, optionKey, nowISO())
	if err != nil {
		return fmt.Errorf("store: upsert answer %s for %d: %w", questionID, userID, err)
	}
	return nil
}

// GetAnswers returns all stored answers for the user. The result may be
// empty but is never nil.
func (d *Durable) GetAnswers(userID int64) (map[string]string, error) {
	rows, err := d.db.Query(`SELECT question_id, option_key FROM answers WHERE tg_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: get answers for %d: %w", userID, err)
	}
	defer rows.Close()

	answers := make(map[string]string)
	for rows.Next() {
		var qid, key string
		if err := rows.Scan(&qid, &key); err != nil {
			return nil, fmt.Errorf("store: scan answer for %d: %w", userID, err)
		}
		answers[qid] = key
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate answers for %d: %w", userID, err)
	}
	return answers, nil
}

// GetUsername returns the stored username, or "" when absent or blank.
func (d *Durable) GetUsername(userID int64) (string, error) {
	var username string
	err := d.db.QueryRow(`SELECT username FROM users WHERE tg_id = ?`, userID).Scan(&username)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get username for %d: %w", userID, err)
	}
	return username, nil
}

// UpsertContacts stores the contact form collected at finalization.
func (d *Durable) UpsertContacts(userID int64, c Contacts) error {
	_, err := d.db.Exec(`
		INSERT INTO contacts(tg_id, name, telegram, company, revenue, tg_link, offer_opt_in, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tg_id) DO UPDATE SET
		  name=excluded.name,
		  telegram=excluded.telegram,
		  company=excluded.company,
		  revenue=excluded.revenue,
		  tg_link=excluded.tg_link,
		  offer_opt_in=excluded.offer_opt_in,
		  updated_at=excluded.updated_at`,
		userID, c.Name, c.Telegram, c.Company, c.Revenue, c.TgLink, boolToInt(c.OfferOptIn), nowISO())
	if err != nil {
		return fmt.Errorf("store: upsert contacts for %d: %w", userID, err)
	}
	return nil
}

// SetOfferOptIn records the user's opt-in and contact link after the
// deferred offer. Safe to apply repeatedly.
func (d *Durable) SetOfferOptIn(userID int64, tgLink string, optIn bool) error {
	_, err := d.db.Exec(`
		INSERT INTO contacts(tg_id, name, telegram, company, revenue, tg_link, offer_opt_in, updated_at)
		VALUES(?, '', '', '', '', ?, ?, ?)
		ON CONFLICT(tg_id) DO UPDATE SET
		  tg_link=excluded.tg_link,
		  offer_opt_in=excluded.offer_opt_in,
		  updated_at=excluded.updated_at`,
		userID, tgLink, boolToInt(optIn), nowISO())
	if err != nil {
		return fmt.Errorf("store: set offer opt-in for %d: %w", userID, err)
	}
	return nil
}

// SaveResult persists the finalized classification.
func (d *Durable) SaveResult(userID int64, r ResultRecord) error {
	_, err := d.db.Exec(`
		INSERT INTO results(tg_id, attempt_id, stage, second_stage, confidence,
		                    owner_dependency, process_formalization, management_contour,
		                    stage_scores, raw_answers, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tg_id) DO UPDATE SET
		  attempt_id=excluded.attempt_id,
		  stage=excluded.stage,
		  second_stage=excluded.second_stage,
		  confidence=excluded.confidence,
		  owner_dependency=excluded.owner_dependency,
		  process_formalization=excluded.process_formalization,
		  management_contour=excluded.management_contour,
		  stage_scores=excluded.stage_scores,
		  raw_answers=excluded.raw_answers,
		  updated_at=excluded.updated_at`,
		userID, r.AttemptID, r.Stage, r.SecondStage, r.Confidence,
		r.OwnerDependency, r.ProcessFormalization, r.ManagementContour,
		r.StageScoresJSON, r.RawAnswersJSON, nowISO())
	if err != nil {
		return fmt.Errorf("store: save result for %d: %w", userID, err)
	}
	return nil
}

// GetResult returns the stored result for the user, or nil when absent.
func (d *Durable) GetResult(userID int64) (*ResultRecord, error) {
	var r ResultRecord
	err := d.db.QueryRow(`
		SELECT attempt_id, stage, second_stage, confidence,
		       owner_dependency, process_formalization, management_contour,
		       stage_scores, raw_answers
		FROM results WHERE tg_id = ?`, userID).
		Scan(&r.AttemptID, &r.Stage, &r.SecondStage, &r.Confidence,
			&r.OwnerDependency, &r.ProcessFormalization, &r.ManagementContour,
			&r.StageScoresJSON, &r.RawAnswersJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get result for %d: %w", userID, err)
	}
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
