package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/release-scraper/models"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusPartial = "partial" // finished with some failed links
	StatusNoData  = "no_data"
	StatusFailed  = "failed"
)

// ErrNoRuns is returned when a lookup finds no matching run.
var ErrNoRuns = errors.New("no runs found")

// Run is one recorded extraction.
type Run struct {
	RunID         int64
	TargetURL     string
	PageTitle     sql.NullString
	Source        string
	StartedAt     time.Time
	FinishedAt    sql.NullTime
	Status        string
	ErrorKind     sql.NullString
	ErrorMessage  sql.NullString
	SectionCount  int
	VersionCount  int
	SuccessCount  int
	FailCount     int
	LatestVersion sql.NullString
	OutputDir     sql.NullString
	ContentHash   sql.NullString
}

// RunOutcome is what FinishRun stores once a run ends.
type RunOutcome struct {
	Status        string
	ErrorKind     string
	ErrorMessage  string
	PageTitle     string
	SectionCount  int
	VersionCount  int
	SuccessCount  int
	FailCount     int
	LatestVersion string
	OutputDir     string
	ContentHash   string
}

const runColumns = `run_id, target_url, page_title, source, started_at, finished_at,
	status, error_kind, error_message, section_count, version_count,
	success_count, fail_count, latest_version, output_dir, content_hash`

// InsertRun records the start of a run and returns its run_id.
func (db *DB) InsertRun(targetURL, source string, startedAt time.Time) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO runs (target_url, source, started_at, status)
		VALUES (?, ?, ?, ?)
	`, targetURL, source, startedAt.UTC(), StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	return runID, nil
}

// FinishRun stores the outcome of a run.
func (db *DB) FinishRun(runID int64, o RunOutcome) error {
	res, err := db.Exec(`
		UPDATE runs
		SET finished_at = ?, status = ?, error_kind = ?, error_message = ?,
		    page_title = ?, section_count = ?, version_count = ?,
		    success_count = ?, fail_count = ?, latest_version = ?,
		    output_dir = ?, content_hash = ?
		WHERE run_id = ?
	`, time.Now().UTC(), o.Status, nullString(o.ErrorKind), nullString(o.ErrorMessage),
		nullString(o.PageTitle), o.SectionCount, o.VersionCount,
		o.SuccessCount, o.FailCount, nullString(o.LatestVersion),
		nullString(o.OutputDir), nullString(o.ContentHash), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d not found", runID)
	}
	return nil
}

// InsertEntries stores every entry of versions, keeping page order.
func (db *DB) InsertEntries(runID int64, versions *models.VersionMap) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	stmt, err := tx.Prepare(`
		INSERT INTO run_entries (run_id, position, version, platform, description, url, filename)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	position := 0
	for _, version := range versions.Keys() {
		entries, _ := versions.Get(version)
		for _, e := range entries {
			if _, err := stmt.Exec(runID, position, version, e.Platform, e.Description, e.URL, e.Filename); err != nil {
				return fmt.Errorf("failed to insert entry: %w", err)
			}
			position++
		}
	}

	return tx.Commit()
}

// InsertFailures stores the exhausted links of a run.
func (db *DB) InsertFailures(runID int64, failures []models.LinkFailure) error {
	if len(failures) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, f := range failures {
		_, err := tx.Exec(`
			INSERT INTO run_failures (run_id, version, section_index, link_index,
			                          platform, description, category, attempts, marker)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, f.Version, f.Section, f.Link, f.Platform, f.Description, f.Category, f.Attempts, f.Marker)
		if err != nil {
			return fmt.Errorf("failed to insert failure: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs first. limit <= 0 means all.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY run_id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}

	return runs, rows.Err()
}

// GetRun returns a run by ID, or ErrNoRuns.
func (db *DB) GetRun(runID int64) (*Run, error) {
	row := db.QueryRow("SELECT "+runColumns+" FROM runs WHERE run_id = ?", runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", runID, ErrNoRuns)
	}
	return r, err
}

// LatestSuccessfulRun returns the newest run that produced data.
func (db *DB) LatestSuccessfulRun() (*Run, error) {
	row := db.QueryRow("SELECT "+runColumns+` FROM runs
		WHERE status IN (?, ?) AND version_count > 0
		ORDER BY run_id DESC LIMIT 1`, StatusSuccess, StatusPartial)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	return r, err
}

// GetRunEntries rebuilds the version map of a run in page order.
func (db *DB) GetRunEntries(runID int64) (*models.VersionMap, error) {
	rows, err := db.Query(`
		SELECT version, platform, description, url, filename
		FROM run_entries
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run entries: %w", err)
	}
	defer rows.Close()

	versions := models.NewVersionMap()
	for rows.Next() {
		var version string
		var e models.DownloadEntry
		if err := rows.Scan(&version, &e.Platform, &e.Description, &e.URL, &e.Filename); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		versions.Add(version, e)
	}

	return versions, rows.Err()
}

// GetRunFailures returns the failed links of a run.
func (db *DB) GetRunFailures(runID int64) ([]models.LinkFailure, error) {
	rows, err := db.Query(`
		SELECT version, section_index, link_index, COALESCE(platform, ''),
		       COALESCE(description, ''), category, attempts, marker
		FROM run_failures
		WHERE run_id = ?
		ORDER BY failure_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run failures: %w", err)
	}
	defer rows.Close()

	var failures []models.LinkFailure
	for rows.Next() {
		var f models.LinkFailure
		if err := rows.Scan(&f.Version, &f.Section, &f.Link, &f.Platform,
			&f.Description, &f.Category, &f.Attempts, &f.Marker); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, f)
	}

	return failures, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	err := s.Scan(&r.RunID, &r.TargetURL, &r.PageTitle, &r.Source, &r.StartedAt, &r.FinishedAt,
		&r.Status, &r.ErrorKind, &r.ErrorMessage, &r.SectionCount, &r.VersionCount,
		&r.SuccessCount, &r.FailCount, &r.LatestVersion, &r.OutputDir, &r.ContentHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
