package cache

import (
	"context"
	"errors"
	"log/slog"

	"fpstab/internal/canon"
	"fpstab/internal/result"
	"fpstab/internal/storage"
)

// SQLiteStore keeps results in <root>/stabilizer.db. Each operation opens
// its own connection and closes it before returning, so several processes
// can share one file.
type SQLiteStore struct {
	root   string
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a store rooted at cacheRoot. Nothing touches the
// filesystem until the first operation.
func NewSQLiteStore(cacheRoot string, logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{root: cacheRoot, logger: logger.With("component", "cache")}
}

// Root returns the cache directory.
func (s *SQLiteStore) Root() string { return s.root }

// Lookup implements Store. A missing database file is a miss and is not
// created.
func (s *SQLiteStore) Lookup(ctx context.Context, cmdin string) (result.StabilizerResult[string], bool) {
	db, err := storage.OpenExisting(ctx, s.root, s.logger)
	if errors.Is(err, storage.ErrNoDatabase) {
		s.logger.Debug("Cache database absent, treating as miss", "root", s.root)
		return result.StabilizerResult[string]{}, false
	}
	if err != nil {
		s.logger.Warn("Cache unavailable for lookup", "root", s.root, "error", err.Error())
		return result.StabilizerResult[string]{}, false
	}
	defer s.close(db)

	row, err := storage.NewResultRepository(db).Get(ctx, cmdin)
	if err != nil {
		s.logger.Warn("Cache lookup failed", "key", canon.Digest(cmdin), "error", err.Error())
		return result.StabilizerResult[string]{}, false
	}
	if row == nil {
		return result.StabilizerResult[string]{}, false
	}
	return row.Result(), true
}

// Insert implements Store.
func (s *SQLiteStore) Insert(ctx context.Context, r result.StabilizerResult[string]) {
	db, err := storage.Open(ctx, s.root, s.logger)
	if err != nil {
		s.logger.Warn("Cache unavailable, result not cached", "root", s.root, "error", err.Error())
		return
	}
	defer s.close(db)

	_, err = storage.NewResultRepository(db).Insert(ctx, r)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrDuplicate):
		s.logger.Info("Result already cached, keeping existing row", "key", canon.Digest(r.CmdIn))
	case errors.Is(err, storage.ErrUnknownMetric):
		s.logger.Debug("Not caching result with unknown metrics", "key", canon.Digest(r.CmdIn))
	default:
		s.logger.Warn("Cache insert failed", "key", canon.Digest(r.CmdIn), "error", err.Error())
	}
}

// RecordDebugInfo implements Store.
func (s *SQLiteStore) RecordDebugInfo(ctx context.Context, dbg result.DbgInfo, cmdin string) {
	db, err := storage.Open(ctx, s.root, s.logger)
	if err != nil {
		s.logger.Warn("Cache unavailable, debug info dropped", "root", s.root, "error", err.Error())
		return
	}
	defer s.close(db)

	err = storage.NewResultRepository(db).AddDebugInfo(ctx, cmdin, dbg)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrResultNotFound):
		s.logger.Warn("No cached result for debug info, dropped",
			"key", canon.Digest(cmdin),
			"module", dbg.ModuleName,
			"function", dbg.FunctionName,
		)
	default:
		s.logger.Warn("Recording debug info failed", "key", canon.Digest(cmdin), "error", err.Error())
	}
}

// View runs fn against an open repository for read-only inspection. ok is
// false when there is no database yet.
func (s *SQLiteStore) View(ctx context.Context, fn func(*storage.ResultRepository) error) (ok bool, err error) {
	db, err := storage.OpenExisting(ctx, s.root, s.logger)
	if errors.Is(err, storage.ErrNoDatabase) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer s.close(db)

	return true, fn(storage.NewResultRepository(db))
}

func (s *SQLiteStore) close(db *storage.DB) {
	if err := db.Close(); err != nil {
		s.logger.Warn("Closing cache database failed", "path", db.Path(), "error", err.Error())
	}
}
