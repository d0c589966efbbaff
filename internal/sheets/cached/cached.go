// Package cached wraps a RowStore with a read-through cache whose
// invalidation is structural: every write path drops the written sheet's
// cached ranges before the write's result is returned, so a caller's next
// read always reflects its own write. This replaces scattering manual
// cache-clear calls at each write site.
package cached

import (
	"context"
	"log/slog"
	"time"

	"expenseportal/internal/cache"
	ports "expenseportal/internal/sheets"
)

type Store struct {
	inner ports.RowStore
	cache *cache.LRUCache[[][]string]
}

var _ ports.RowStore = (*Store)(nil)

// New wraps inner with a TTL cache. maxEntries bounds memory; ttl should be
// short (the portal uses ~30s) since the store is shared across instances.
func New(inner ports.RowStore, maxEntries int, ttl time.Duration) *Store {
	return &Store{
		inner: inner,
		cache: cache.NewLRUCache[[][]string](maxEntries, ttl),
	}
}

func key(sheetID, rangeSpec string) string {
	return sheetID + "|" + rangeSpec
}

func (s *Store) GetRange(ctx context.Context, sheetID, rangeSpec string) ([][]string, error) {
	k := key(sheetID, rangeSpec)
	if rows, ok := s.cache.Get(k); ok {
		slog.DebugContext(ctx, "Row cache hit", "sheet", sheetID, "range", rangeSpec)
		return copyRows(rows), nil
	}
	rows, err := s.inner.GetRange(ctx, sheetID, rangeSpec)
	if err != nil {
		return nil, err
	}
	s.cache.Set(k, copyRows(rows))
	return rows, nil
}

func (s *Store) AppendRows(ctx context.Context, sheetID, rangeSpec string, rows [][]string) (int, error) {
	startRow, err := s.inner.AppendRows(ctx, sheetID, rangeSpec, rows)
	s.invalidate(sheetID)
	return startRow, err
}

func (s *Store) UpdateCell(ctx context.Context, sheetID, cellRef, value string) error {
	err := s.inner.UpdateCell(ctx, sheetID, cellRef, value)
	s.invalidate(sheetID)
	return err
}

func (s *Store) UpdateRange(ctx context.Context, sheetID, rangeSpec string, rows [][]string) error {
	err := s.inner.UpdateRange(ctx, sheetID, rangeSpec, rows)
	s.invalidate(sheetID)
	return err
}

// invalidate runs even when the write failed: a partial server-side write
// must not be masked by a stale cached read.
func (s *Store) invalidate(sheetID string) {
	s.cache.DeletePrefix(sheetID + "|")
}

// CleanExpired removes expired entries; wired to a periodic sweep by the server.
func (s *Store) CleanExpired() int {
	return s.cache.CleanExpired()
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
