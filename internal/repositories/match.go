package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tunematch/internal/models"
	"github.com/desertthunder/tunematch/internal/shared"
)

const matchColumns = `id, sequence,
	source_platform, source_platform_id, source_title, source_artists, source_album,
	target_platform, target_platform_id, target_title, target_artists, target_album,
	confidence, manually_verified, last_verified, created_at, updated_at`

// MatchRepository implements [models.MatchStore] on SQLite.
//
// Saves upsert on (source_platform, source_platform_id, target_platform). Matches without a source
// id have no key and are appended. With history enabled, every save is also appended to
// track_match_history.
type MatchRepository struct {
	db      *sql.DB
	history bool
	now     func() time.Time
}

// NewMatchRepository creates a new MatchRepository with the given database connection
func NewMatchRepository(db *sql.DB, history bool) *MatchRepository {
	return &MatchRepository{db: db, history: history, now: func() time.Time { return time.Now().UTC() }}
}

// GetMatch returns the target snapshot of the most recently verified match for source on
// targetPlatform with at least minConfidence, verified within maxAge. A non-positive maxAge
// disables the age check. Sources without a platform id never match.
func (r *MatchRepository) GetMatch(source models.Track, targetPlatform string, minConfidence float64, maxAge time.Duration) (*models.Track, error) {
	if source.PlatformID == "" {
		return nil, nil
	}

	query := `SELECT ` + matchColumns + `
		FROM track_matches
		WHERE source_platform = ? AND source_platform_id = ? AND target_platform = ? AND confidence >= ?
		ORDER BY last_verified DESC
		LIMIT 1
	`

	record, err := r.scanOne(r.db.QueryRow(query, source.Platform, source.PlatformID, targetPlatform, minConfidence))
	if errors.Is(err, shared.ErrMatchNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if maxAge > 0 && r.now().Sub(record.LastVerified) > maxAge {
		return nil, nil
	}

	target := record.TargetTrack()
	return &target, nil
}

// insertMatch takes the next sequence value without advancing the counter. SaveMatch advances it
// once the row is known to be new.
const insertMatch = `
	INSERT INTO track_matches (` + matchColumns + `)
	VALUES (?, (SELECT value + 1 FROM track_matches_sequence WHERE id = 1), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const upsertMatch = insertMatch + `
	ON CONFLICT (source_platform, source_platform_id, target_platform) WHERE source_platform_id <> '' DO UPDATE SET
		source_title = excluded.source_title,
		source_artists = excluded.source_artists,
		source_album = excluded.source_album,
		manually_verified = CASE
			WHEN track_matches.target_platform_id = excluded.target_platform_id
			THEN MAX(track_matches.manually_verified, excluded.manually_verified)
			ELSE excluded.manually_verified
		END,
		target_platform_id = excluded.target_platform_id,
		target_title = excluded.target_title,
		target_artists = excluded.target_artists,
		target_album = excluded.target_album,
		confidence = excluded.confidence,
		last_verified = excluded.last_verified,
		updated_at = excluded.updated_at
`

// SaveMatch upserts the match for source on target's platform and returns the stored row.
//
// An existing row keeps its id, sequence and creation time. Its verification flag survives when
// the target is unchanged and is replaced otherwise. Sources without a platform id get a new row
// on every save.
func (r *MatchRepository) SaveMatch(source, target models.Track, confidence float64, verified bool) (*models.MatchRecord, error) {
	record := models.NewMatchRecord(source, target, confidence, verified, r.now())
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sourceArtists, err := shared.EncodeNames(record.SourceArtists)
	if err != nil {
		return nil, err
	}
	targetArtists, err := shared.EncodeNames(record.TargetArtists)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", shared.ErrStorage, err)
	}
	defer tx.Rollback()

	query := insertMatch
	if record.Keyed() {
		query = upsertMatch
	}

	id := shared.GenerateID()
	_, err = tx.Exec(query,
		id,
		record.SourcePlatform,
		record.SourcePlatformID,
		record.SourceTitle,
		sourceArtists,
		record.SourceAlbum,
		record.TargetPlatform,
		record.TargetPlatformID,
		record.TargetTitle,
		targetArtists,
		record.TargetAlbum,
		record.Confidence,
		record.ManuallyVerified,
		record.LastVerified,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to save match: %w", shared.ErrStorage, err)
	}

	var row *sql.Row
	if record.Keyed() {
		row = tx.QueryRow(`SELECT `+matchColumns+`
			FROM track_matches
			WHERE source_platform = ? AND source_platform_id = ? AND target_platform = ?`,
			record.SourcePlatform, record.SourcePlatformID, record.TargetPlatform,
		)
	} else {
		row = tx.QueryRow(`SELECT `+matchColumns+` FROM track_matches WHERE id = ?`, id)
	}
	saved, err := r.scanOne(row)
	if err != nil {
		return nil, err
	}

	// An upsert keeps the existing id, so a matching id means the row was inserted.
	if saved.ID == id {
		if _, err := NextSequence(tx, "track_matches"); err != nil {
			return nil, fmt.Errorf("%w: failed to generate sequence: %w", shared.ErrStorage, err)
		}
	}

	if r.history {
		if err := r.appendHistory(tx, saved, targetArtists); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit match: %w", shared.ErrStorage, err)
	}

	return saved, nil
}

func (r *MatchRepository) appendHistory(tx *sql.Tx, m *models.MatchRecord, targetArtists string) error {
	query := `
		INSERT INTO track_match_history (
			id, match_id, source_platform, source_platform_id, target_platform, target_platform_id,
			target_title, target_artists, target_album, confidence, manually_verified, recorded_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.Exec(query,
		shared.GenerateID(),
		m.ID,
		m.SourcePlatform,
		m.SourcePlatformID,
		m.TargetPlatform,
		m.TargetPlatformID,
		m.TargetTitle,
		targetArtists,
		m.TargetAlbum,
		m.Confidence,
		m.ManuallyVerified,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to record match history: %w", shared.ErrStorage, err)
	}
	return nil
}

// SaveFailedMatch appends a failure record for source.
func (r *MatchRepository) SaveFailedMatch(source models.Track, targetPlatform, reason string) (*models.FailedMatchRecord, error) {
	record := models.NewFailedMatchRecord(source, targetPlatform, reason, r.now())
	record.ID = shared.GenerateID()

	artists, err := shared.EncodeNames(record.SourceArtists)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO failed_matches (id, source_platform, source_platform_id, source_title, source_artists, target_platform, error_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		record.ID,
		record.SourcePlatform,
		record.SourcePlatformID,
		record.SourceTitle,
		artists,
		record.TargetPlatform,
		record.ErrorReason,
		record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to save failed match: %w", shared.ErrStorage, err)
	}

	return record, nil
}

// GetMatchStatistics counts stored matches, verified matches and failures.
func (r *MatchRepository) GetMatchStatistics() (*models.MatchStatistics, error) {
	var stats models.MatchStatistics

	query := `
		SELECT
			(SELECT COUNT(*) FROM track_matches),
			(SELECT COUNT(*) FROM track_matches WHERE manually_verified = 1),
			(SELECT COUNT(*) FROM failed_matches)
	`

	if err := r.db.QueryRow(query).Scan(&stats.TotalMatches, &stats.VerifiedMatches, &stats.FailedMatches); err != nil {
		return nil, fmt.Errorf("%w: failed to count matches: %w", shared.ErrStorage, err)
	}

	return &stats, nil
}

// UpdateMatchVerification sets the verification flag of the match with the given id and refreshes
// its last verification time. Unknown ids yield (nil, nil).
func (r *MatchRepository) UpdateMatchVerification(id string, verified bool) (*models.MatchRecord, error) {
	now := r.now()

	query := `
		UPDATE track_matches
		SET manually_verified = ?, last_verified = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, verified, now, now, id)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to update match: %w", shared.ErrStorage, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get affected rows: %w", shared.ErrStorage, err)
	}
	if rows == 0 {
		return nil, nil
	}

	return r.GetMatchByID(id)
}

// GetMatchByID retrieves a match by ID.
func (r *MatchRepository) GetMatchByID(id string) (*models.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM track_matches WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// ListMatches retrieves all matches matching the given criteria, ordered by sequence.
func (r *MatchRepository) ListMatches(criteria models.MatchCriteria) ([]*models.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM track_matches WHERE 1 = 1`
	args := []any{}

	if criteria.SourcePlatform != "" {
		query += " AND source_platform = ?"
		args = append(args, criteria.SourcePlatform)
	}

	if criteria.TargetPlatform != "" {
		query += " AND target_platform = ?"
		args = append(args, criteria.TargetPlatform)
	}

	if criteria.Verified != nil {
		query += " AND manually_verified = ?"
		args = append(args, *criteria.Verified)
	}

	if criteria.MaxConfidence > 0 {
		query += " AND confidence < ?"
		args = append(args, criteria.MaxConfidence)
	}

	query += " ORDER BY sequence ASC"

	if criteria.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, criteria.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query matches: %w", shared.ErrStorage, err)
	}
	defer rows.Close()

	var matches []*models.MatchRecord
	for rows.Next() {
		match, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %w", shared.ErrStorage, err)
	}

	return matches, nil
}

// ListFailedMatches retrieves failure records matching the given criteria, oldest first.
func (r *MatchRepository) ListFailedMatches(criteria models.FailureCriteria) ([]*models.FailedMatchRecord, error) {
	query := `
		SELECT id, source_platform, source_platform_id, source_title, source_artists, target_platform, error_reason, created_at
		FROM failed_matches
		WHERE 1 = 1
	`
	args := []any{}

	if criteria.SourcePlatform != "" {
		query += " AND source_platform = ?"
		args = append(args, criteria.SourcePlatform)
	}

	if criteria.TargetPlatform != "" {
		query += " AND target_platform = ?"
		args = append(args, criteria.TargetPlatform)
	}

	query += " ORDER BY created_at ASC, rowid ASC"

	if criteria.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, criteria.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query failed matches: %w", shared.ErrStorage, err)
	}
	defer rows.Close()

	var failures []*models.FailedMatchRecord
	for rows.Next() {
		var (
			f       models.FailedMatchRecord
			artists string
		)
		if err := rows.Scan(&f.ID, &f.SourcePlatform, &f.SourcePlatformID, &f.SourceTitle, &artists, &f.TargetPlatform, &f.ErrorReason, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan failed match: %w", shared.ErrStorage, err)
		}
		if f.SourceArtists, err = shared.DecodeNames(artists); err != nil {
			return nil, err
		}
		failures = append(failures, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %w", shared.ErrStorage, err)
	}

	return failures, nil
}

// ListMatchHistory returns every recorded save for the (source, targetPlatform) key, oldest first.
func (r *MatchRepository) ListMatchHistory(source models.Track, targetPlatform string) ([]*models.MatchHistoryEntry, error) {
	query := `
		SELECT id, match_id, source_platform, source_platform_id, target_platform, target_platform_id,
			target_title, target_artists, target_album, confidence, manually_verified, recorded_at
		FROM track_match_history
		WHERE source_platform = ? AND source_platform_id = ? AND target_platform = ?
		ORDER BY recorded_at ASC, rowid ASC
	`

	rows, err := r.db.Query(query, source.Platform, source.PlatformID, targetPlatform)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query match history: %w", shared.ErrStorage, err)
	}
	defer rows.Close()

	var entries []*models.MatchHistoryEntry
	for rows.Next() {
		var (
			e       models.MatchHistoryEntry
			artists string
		)
		if err := rows.Scan(
			&e.ID, &e.MatchID, &e.SourcePlatform, &e.SourcePlatformID, &e.TargetPlatform, &e.TargetPlatformID,
			&e.TargetTitle, &artists, &e.TargetAlbum, &e.Confidence, &e.ManuallyVerified, &e.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: failed to scan match history: %w", shared.ErrStorage, err)
		}
		if e.TargetArtists, err = shared.DecodeNames(artists); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %w", shared.ErrStorage, err)
	}

	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanOne scans a single row into a [models.MatchRecord]
func (r *MatchRepository) scanOne(row *sql.Row) (*models.MatchRecord, error) {
	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, shared.ErrMatchNotFound
	}
	return m, err
}

// scanRow scans a row from a result set into a [models.MatchRecord]
func (r *MatchRepository) scanRow(rows *sql.Rows) (*models.MatchRecord, error) {
	return scanMatch(rows)
}

func scanMatch(s rowScanner) (*models.MatchRecord, error) {
	var (
		m             models.MatchRecord
		sourceArtists string
		targetArtists string
	)

	err := s.Scan(
		&m.ID,
		&m.Sequence,
		&m.SourcePlatform,
		&m.SourcePlatformID,
		&m.SourceTitle,
		&sourceArtists,
		&m.SourceAlbum,
		&m.TargetPlatform,
		&m.TargetPlatformID,
		&m.TargetTitle,
		&targetArtists,
		&m.TargetAlbum,
		&m.Confidence,
		&m.ManuallyVerified,
		&m.LastVerified,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan match: %w", shared.ErrStorage, err)
	}

	if m.SourceArtists, err = shared.DecodeNames(sourceArtists); err != nil {
		return nil, err
	}
	if m.TargetArtists, err = shared.DecodeNames(targetArtists); err != nil {
		return nil, err
	}

	return &m, nil
}
