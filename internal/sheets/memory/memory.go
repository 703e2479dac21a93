package memory

import (
	"context"
	"fmt"
	"sync"

	"spendwise/internal/core"
	ports "spendwise/internal/sheets"
)

// Store keeps exported rows in memory. It stands in for Google Sheets when
// no spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	rows [][]any
	seen map[int64]int
}

var _ ports.ExpenseWriter = (*Store)(nil)

func New() *Store {
	return &Store{seen: make(map[int64]int)}
}

// Append stores the expense and returns a synthetic row reference. An
// expense exported twice keeps its first row.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.seen[e.ID]; ok && e.ID != 0 {
		return fmt.Sprintf("mem:%d", n), nil
	}
	s.rows = append(s.rows, ports.Row(e))
	s.seen[e.ID] = len(s.rows)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of the exported rows in Header order.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	copy(out, s.rows)
	return out
}
