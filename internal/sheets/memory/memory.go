package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/EleazarRC/contabilidad-personal/internal/sheets"
)

// Store is an in-process Mirror used when no spreadsheet is configured and
// in tests.
type Store struct {
	mu     sync.Mutex
	byYear map[int][]sheets.LedgerRow
}

var _ sheets.Mirror = (*Store)(nil)

func New() *Store {
	return &Store{byYear: make(map[int][]sheets.LedgerRow)}
}

// AppendRow stores the row and returns a synthetic row reference.
func (s *Store) AppendRow(_ context.Context, row sheets.LedgerRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	year := row.Date.Year()
	s.byYear[year] = append(s.byYear[year], row)
	return fmt.Sprintf("mem:%d:%d", year, len(s.byYear[year])), nil
}

func (s *Store) ListRows(_ context.Context, year int) ([]sheets.LedgerRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.byYear[year]), nil
}

func (s *Store) DeleteRow(_ context.Context, year int, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byYear[year] = slices.DeleteFunc(s.byYear[year], func(r sheets.LedgerRow) bool { return r.ID == id })
	return nil
}
