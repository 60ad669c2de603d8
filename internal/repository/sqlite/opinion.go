package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/what-to-watch/internal/apperror"
	"github.com/sakif/what-to-watch/internal/model"
	"github.com/sakif/what-to-watch/internal/repository"
)

// compile-time check that *DB implements repository.OpinionRepository
var _ repository.OpinionRepository = (*DB)(nil)

const opinionColumns = `id, title, text, source, timestamp, added_by`

// Count returns the number of stored opinions.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM opinions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting opinions: %w", err)
	}
	return n, nil
}

// Create inserts a new opinion and fills in its ID and Timestamp.
//
// TRANSACTION:
// The insert runs in its own transaction. The deferred Rollback is a no-op
// after Commit, and otherwise guarantees that an error or a panic between
// BeginTx and Commit never leaves a half-written row behind.
func (db *DB) Create(ctx context.Context, opinion *model.Opinion) error {
	opinion.Timestamp = time.Now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO opinions (title, text, source, timestamp, added_by)
		 VALUES (?, ?, ?, ?, ?)`,
		opinion.Title,
		opinion.Text,
		opinion.Source,
		opinion.Timestamp,
		opinion.AddedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("opinion", "text")
		}
		return fmt.Errorf("sqlite: creating opinion: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new opinion id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("opinion", "text")
		}
		return fmt.Errorf("sqlite: committing opinion: %w", err)
	}

	opinion.ID = id
	return nil
}

// GetByID retrieves a single opinion by its ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.Opinion, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+opinionColumns+` FROM opinions WHERE id = ?`, id)

	opinion, err := scanOpinion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("opinion", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting opinion %d: %w", id, err)
	}
	return opinion, nil
}

// GetByText looks an opinion up by its exact text. A miss is not an error:
// callers use it to pre-check duplicates.
func (db *DB) GetByText(ctx context.Context, text string) (*model.Opinion, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+opinionColumns+` FROM opinions WHERE text = ?`, text)

	opinion, err := scanOpinion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: getting opinion by text: %w", err)
	}
	return opinion, nil
}

// GetAtOffset returns the opinion at the given zero-based position when
// ordered by id. Ids may have gaps, so position and id are unrelated.
func (db *DB) GetAtOffset(ctx context.Context, offset int) (*model.Opinion, error) {
	if offset < 0 {
		return nil, apperror.NotFound("opinion at offset", strconv.Itoa(offset))
	}

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+opinionColumns+` FROM opinions ORDER BY id LIMIT 1 OFFSET ?`, offset)

	opinion, err := scanOpinion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("opinion at offset", strconv.Itoa(offset))
		}
		return nil, fmt.Errorf("sqlite: getting opinion at offset %d: %w", offset, err)
	}
	return opinion, nil
}

// scanOpinion reads one row selected with opinionColumns.
func scanOpinion(row *sql.Row) (*model.Opinion, error) {
	var o model.Opinion
	if err := row.Scan(
		&o.ID,
		&o.Title,
		&o.Text,
		&o.Source,
		&o.Timestamp,
		&o.AddedBy,
	); err != nil {
		return nil, err
	}
	o.Timestamp = o.Timestamp.UTC()
	return &o, nil
}

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		// Code is the extended result code; the primary code is its low byte.
		if sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
		if sqliteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
			return false
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
