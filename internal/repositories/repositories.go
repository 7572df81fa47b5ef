// package repositories provides persistence layer implementations for the match store.
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/tunematch/internal/models"
	"github.com/desertthunder/tunematch/internal/shared"
)

var (
	_ models.MatchBrowser = (*MatchRepository)(nil)
	_ models.MatchBrowser = (*MemoryStore)(nil)
)

// NextSequence increments and returns the next sequence number for the given table inside tx.
//
// Sequence numbers provide human-readable ordering for matches (e.g., match #42).
// They are used for sorting listings and are not part of the match key. A rolled back tx
// releases the number.
func NextSequence(tx *sql.Tx, table string) (int, error) {
	sequenceTable := table + "_sequence"

	if _, err := tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	return sequence, nil
}

// Open returns the match store selected by cfg.Store.Engine along with a function that releases it.
//
// The sqlite engine opens [shared.DatabaseConfig.Path] and applies pending migrations.
func Open(cfg *shared.Config) (models.MatchBrowser, func() error, error) {
	switch cfg.Store.Engine {
	case "memory":
		return NewMemoryStore(cfg.Store.History), func() error { return nil }, nil
	case "sqlite", "":
		db, err := shared.OpenDatabase(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", shared.ErrStorage, err)
		}
		return NewMatchRepository(db, cfg.Store.History), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", shared.ErrUnknownStore, cfg.Store.Engine)
	}
}
