package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"caterer/internal/faults"
)

const (
	busyTimeoutMillis = 5000
	// maxQueryParams keeps IN (...) lists well under SQLite's bound-parameter limit.
	maxQueryParams = 500
)

// Options controls how a catalog is opened for reading.
type Options struct {
	// MaxOpenConns sizes the connection pool. Zero leaves database/sql's default.
	MaxOpenConns int
}

// Store provides read access to a catalog built by a Builder.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open attaches to an existing catalog in query-only mode. It holds a shared
// lock on the catalog until Close so a concurrent build cannot swap the file.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, faults.Wrap(faults.ErrStoreUnavailable, "catalog", "open", fmt.Sprintf("no catalog at %s (run 'caterer build')", path), nil)
		}
		return nil, faults.Wrap(faults.ErrStoreUnavailable, "catalog", "open", path, err)
	}
	if info.IsDir() {
		return nil, faults.Wrap(faults.ErrStoreUnavailable, "catalog", "open", fmt.Sprintf("catalog path %s is a directory", path), nil)
	}

	lock := flock.New(lockPath(path))
	locked, err := lock.TryRLock()
	if err != nil {
		return nil, faults.Wrap(faults.ErrStoreUnavailable, "catalog", "lock", path, err)
	}
	if !locked {
		return nil, faults.Wrap(faults.ErrCatalogBusy, "catalog", "lock", fmt.Sprintf("%s is being rebuilt", path), nil)
	}

	db, err := sql.Open("sqlite", readDSN(path))
	if err != nil {
		_ = lock.Unlock()
		return nil, faults.Wrap(faults.ErrStoreUnavailable, "catalog", "open", path, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}

	if err := verifySchema(ensureContext(ctx), db); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, faults.Wrap(faults.ErrStoreUnavailable, "catalog", "open", path, err)
	}

	return &Store{db: db, path: path, lock: lock}, nil
}

// Close closes the underlying database connection and releases the catalog lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}

// Path returns the catalog file location.
func (s *Store) Path() string {
	return s.path
}

func readDSN(path string) string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMillis))
	params.Add("_pragma", "query_only(1)")
	return path + "?" + params.Encode()
}

func writeDSN(path string) string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMillis))
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "synchronous(OFF)")
	return path + "?" + params.Encode()
}

func lockPath(path string) string {
	return path + ".lock"
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func unavailable(operation, message string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return faults.Wrap(faults.ErrStoreUnavailable, "catalog", operation, message, err)
}
