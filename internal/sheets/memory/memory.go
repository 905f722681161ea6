// Package memory is an in-process ledger mirror used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"despesas/internal/core"
	ports "despesas/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows map[string]core.MasterTransaction
}

var _ ports.LedgerMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: make(map[string]core.MasterTransaction)}
}

func (m *Mirror) UpsertRow(_ context.Context, master core.MasterTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[master.ID] = master.Clone()
	return nil
}

func (m *Mirror) DeleteRow(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// Row returns the mirrored copy of a master, if present.
func (m *Mirror) Row(id string) (core.MasterTransaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	master, ok := m.rows[id]
	if !ok {
		return core.MasterTransaction{}, false
	}
	return master.Clone(), true
}

// Len reports the number of mirrored rows.
func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
