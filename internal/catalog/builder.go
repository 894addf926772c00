package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"caterer/internal/faults"
)

type statementKind int

const (
	stmtWork statementKind = iota
	stmtParent
	stmtRating
	stmtPerson
	stmtCredit
	stmtCount
)

var builderSQL = [stmtCount]string{
	stmtWork:   `INSERT INTO works (id, title, title_type, start_year, genres) VALUES (?, ?, ?, ?, ?)`,
	stmtParent: `UPDATE works SET parent_id = ? WHERE id = ?`,
	stmtRating: `UPDATE works SET rating = ? WHERE id = ?`,
	stmtPerson: `INSERT INTO persons (id, name, born) VALUES (?, ?, ?)`,
	stmtCredit: `INSERT INTO credits (person_id, work_id, category, job) VALUES (?, ?, ?, ?)`,
}

var statementNames = [stmtCount]string{
	stmtWork:   "insert work",
	stmtParent: "set parent",
	stmtRating: "set rating",
	stmtPerson: "insert person",
	stmtCredit: "insert credit",
}

// Builder writes a fresh catalog next to the target path and swaps it into
// place on Commit, so readers never observe a half-built catalog.
type Builder struct {
	db        *sql.DB
	tx        *sql.Tx
	stmts     [stmtCount]*sql.Stmt
	path      string
	tmpPath   string
	lock      *flock.Flock
	batchSize int
	pending   int
	done      bool
}

// Create takes the exclusive catalog lock and prepares an empty catalog.
// Writes are grouped into transactions of batchSize statements.
func Create(ctx context.Context, path string, batchSize int) (*Builder, error) {
	ctx = ensureContext(ctx)
	if batchSize <= 0 {
		batchSize = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, faults.Wrap(faults.ErrStoreUnavailable, "catalog", "create", path, err)
	}

	lock := flock.New(lockPath(path))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, faults.Wrap(faults.ErrStoreUnavailable, "catalog", "lock", path, err)
	}
	if !locked {
		return nil, faults.Wrap(faults.ErrCatalogBusy, "catalog", "lock", fmt.Sprintf("%s is in use", path), nil)
	}

	tmpPath := path + ".building"
	for _, stale := range []string{tmpPath, tmpPath + "-journal"} {
		if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
			_ = lock.Unlock()
			return nil, faults.Wrap(faults.ErrStoreUnavailable, "catalog", "create", "remove stale build", err)
		}
	}

	db, err := sql.Open("sqlite", writeDSN(tmpPath))
	if err != nil {
		_ = lock.Unlock()
		return nil, faults.Wrap(faults.ErrStoreUnavailable, "catalog", "create", tmpPath, err)
	}
	db.SetMaxOpenConns(1)

	if err := createSchema(ctx, db); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		_ = lock.Unlock()
		return nil, faults.Wrap(faults.ErrStoreUnavailable, "catalog", "create", tmpPath, err)
	}

	return &Builder{
		db:        db,
		path:      path,
		tmpPath:   tmpPath,
		lock:      lock,
		batchSize: batchSize,
	}, nil
}

// PutWork inserts a work. Parent and rating are attached later.
func (b *Builder) PutWork(ctx context.Context, work WorkRow) error {
	return b.exec(ctx, stmtWork,
		int64(work.ID),
		work.Title,
		work.TitleType,
		work.StartYear,
		work.Genres,
	)
}

// SetParent marks id as a sub-work of parent. Both must already exist.
func (b *Builder) SetParent(ctx context.Context, id, parent uint64) error {
	return b.exec(ctx, stmtParent, int64(parent), int64(id))
}

// SetRating records a work's rating text.
func (b *Builder) SetRating(ctx context.Context, id uint64, rating string) error {
	return b.exec(ctx, stmtRating, nullableString(rating), int64(id))
}

// PutPerson inserts a person.
func (b *Builder) PutPerson(ctx context.Context, person PersonRow) error {
	return b.exec(ctx, stmtPerson, int64(person.ID), person.Name, person.Born)
}

// PutCredit inserts a credit edge. The person and work must already exist.
func (b *Builder) PutCredit(ctx context.Context, credit CreditRow) error {
	return b.exec(ctx, stmtCredit,
		int64(credit.PersonID),
		int64(credit.WorkID),
		credit.Category,
		credit.Job,
	)
}

// Commit flushes outstanding writes, closes the new catalog, and moves it over
// the target path.
func (b *Builder) Commit(ctx context.Context) error {
	if b.done {
		return errors.New("catalog builder already finished")
	}
	ctx = ensureContext(ctx)
	if err := b.flush(); err != nil {
		b.abort()
		return err
	}
	if _, err := b.db.ExecContext(ctx, "ANALYZE"); err != nil {
		b.abort()
		return unavailable("commit", "analyze", err)
	}
	if err := b.db.Close(); err != nil {
		b.abort()
		return unavailable("commit", "close", err)
	}
	if err := os.Rename(b.tmpPath, b.path); err != nil {
		b.abort()
		return unavailable("commit", fmt.Sprintf("rename %s", b.tmpPath), err)
	}
	b.done = true
	return b.lock.Unlock()
}

// Abort discards the partial catalog, leaving any previous catalog untouched.
// It is safe to call after Commit.
func (b *Builder) Abort() {
	if b.done {
		return
	}
	b.abort()
}

func (b *Builder) abort() {
	if b.tx != nil {
		_ = b.tx.Rollback()
		b.tx = nil
	}
	_ = b.db.Close()
	_ = os.Remove(b.tmpPath)
	_ = os.Remove(b.tmpPath + "-journal")
	_ = b.lock.Unlock()
	b.done = true
}

func (b *Builder) exec(ctx context.Context, kind statementKind, args ...any) error {
	if b.done {
		return errors.New("catalog builder already finished")
	}
	ctx = ensureContext(ctx)
	if b.tx == nil {
		if err := b.begin(ctx); err != nil {
			return err
		}
	}
	if _, err := b.stmts[kind].ExecContext(ctx, args...); err != nil {
		return unavailable("write", statementNames[kind], err)
	}
	b.pending++
	if b.pending >= b.batchSize {
		return b.flush()
	}
	return nil
}

func (b *Builder) begin(ctx context.Context) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("write", "begin", err)
	}
	for kind, query := range builderSQL {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			_ = tx.Rollback()
			return unavailable("write", "prepare", err)
		}
		b.stmts[kind] = stmt
	}
	b.tx = tx
	return nil
}

func (b *Builder) flush() error {
	if b.tx == nil {
		return nil
	}
	err := b.tx.Commit()
	b.tx = nil
	b.pending = 0
	if err != nil {
		return unavailable("write", "commit batch", err)
	}
	return nil
}
