// Package memstore is an in-memory store.Gateway used by tests and the
// --memory development mode.
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/edupay/internal/store"
)

// UniqueIndex rejects two rows of Table with the same non-empty Key.
type UniqueIndex struct {
	Name  string
	Table store.Table
	Key   func(store.Record) string
}

// DefaultIndexes mirrors the unique constraints of the SQL schema.
func DefaultIndexes() []UniqueIndex {
	return []UniqueIndex{
		{
			Name:  store.ConstraintPaymentTransactionID,
			Table: store.TablePayments,
			Key: func(r store.Record) string {
				s, _ := r["transaction_id"].(string)
				return strings.ToLower(strings.TrimSpace(s))
			},
		},
		{
			Name:  store.ConstraintAccountantUserID,
			Table: store.TableAccountants,
			Key: func(r store.Record) string {
				s, _ := r["user_id"].(string)
				return s
			},
		},
	}
}

// Store keeps every table as an ordered slice of records.
type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	tables   map[store.Table][]store.Record
	seqs     map[string]int64
	indexes  []UniqueIndex
	failures map[store.Table]error
	clock    time.Time
	calls    map[string]int
}

// New creates an empty store with the default unique indexes.
func New() *Store {
	return &Store{
		tables:   make(map[store.Table][]store.Record),
		seqs:     make(map[string]int64),
		indexes:  DefaultIndexes(),
		failures: make(map[store.Table]error),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		calls:    make(map[string]int),
	}
}

// FailTable makes every call touching table return err until cleared with nil.
func (s *Store) FailTable(table store.Table, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, table)
		return
	}
	s.failures[table] = err
}

// Calls reports how many times op ("select", "insert", ...) hit table.
func (s *Store) Calls(op string, table store.Table) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op+":"+string(table)]
}

// Rows returns a copy of the current rows of table.
func (s *Store) Rows(table store.Table) []store.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRows(s.tables[table])
}

func (s *Store) begin(op string, table store.Table) error {
	s.calls[op+":"+string(table)]++
	if err, ok := s.failures[table]; ok {
		return &store.OpError{Op: op, Table: table, Err: err}
	}
	return nil
}

// SelectAll returns copies of every row in insertion order.
func (s *Store) SelectAll(ctx context.Context, table store.Table) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &store.OpError{Op: "select", Table: table, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("select", table); err != nil {
		return nil, err
	}
	return cloneRows(s.tables[table]), nil
}

// Insert stores a copy of rec, filling id and created_at when absent.
func (s *Store) Insert(ctx context.Context, table store.Table, rec store.Record) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &store.OpError{Op: "insert", Table: table, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("insert", table); err != nil {
		return nil, err
	}

	row := rec.Clone()
	if row == nil {
		row = store.Record{}
	}
	if id, _ := row["id"].(string); id == "" {
		row["id"] = uuid.NewString()
	}
	if _, ok := row["created_at"]; !ok {
		s.clock = s.clock.Add(time.Millisecond)
		row["created_at"] = s.clock
	}
	for _, existing := range s.tables[table] {
		if existing["id"] == row["id"] {
			return nil, &store.UniqueViolationError{Table: table, Constraint: string(table) + "_pkey"}
		}
	}
	if err := s.checkUnique(table, row, -1); err != nil {
		return nil, err
	}

	s.tables[table] = append(s.tables[table], row)
	return row.Clone(), nil
}

// Update merges values into every row matching match.
func (s *Store) Update(ctx context.Context, table store.Table, match store.Record, values store.Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &store.OpError{Op: "update", Table: table, Err: err}
	}
	if len(match) == 0 {
		return 0, fmt.Errorf("update %s: empty match", table)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("update", table); err != nil {
		return 0, err
	}

	rows := s.tables[table]
	var updated []int
	next := make([]store.Record, len(rows))
	copy(next, rows)
	for i, row := range rows {
		if !matches(row, match) {
			continue
		}
		merged := row.Clone()
		for k, v := range values.Clone() {
			merged[k] = v
		}
		next[i] = merged
		updated = append(updated, i)
	}
	for _, i := range updated {
		if err := s.checkUniqueIn(table, next, next[i], i); err != nil {
			return 0, err
		}
	}
	s.tables[table] = next
	return int64(len(updated)), nil
}

// Delete removes every row matching match.
func (s *Store) Delete(ctx context.Context, table store.Table, match store.Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &store.OpError{Op: "delete", Table: table, Err: err}
	}
	if len(match) == 0 {
		return 0, fmt.Errorf("delete %s: empty match", table)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("delete", table); err != nil {
		return 0, err
	}

	rows := s.tables[table]
	kept := make([]store.Record, 0, len(rows))
	for _, row := range rows {
		if !matches(row, match) {
			kept = append(kept, row)
		}
	}
	s.tables[table] = kept
	return int64(len(rows) - len(kept)), nil
}

// NextSequence returns 0 on the first call for name, then 1, 2, ...
func (s *Store) NextSequence(ctx context.Context, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &store.OpError{Op: "nextval " + name, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.seqs[name]
	if !ok {
		n = 0
	} else {
		n++
	}
	s.seqs[name] = n
	return n, nil
}

// WithTx runs fn and restores every table when it fails. Transactions are
// serialized against each other.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Gateway) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	saved := make(map[store.Table][]store.Record, len(s.tables))
	for t, rows := range s.tables {
		saved[t] = cloneRows(rows)
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.tables = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) checkUnique(table store.Table, row store.Record, self int) error {
	return s.checkUniqueIn(table, s.tables[table], row, self)
}

func (s *Store) checkUniqueIn(table store.Table, rows []store.Record, row store.Record, self int) error {
	for _, idx := range s.indexes {
		if idx.Table != table {
			continue
		}
		key := idx.Key(row)
		if key == "" {
			continue
		}
		for i, other := range rows {
			if i == self {
				continue
			}
			if idx.Key(other) == key {
				return &store.UniqueViolationError{Table: table, Constraint: idx.Name}
			}
		}
	}
	return nil
}

func matches(row, match store.Record) bool {
	for k, want := range match {
		if fmt.Sprint(row[k]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func cloneRows(rows []store.Record) []store.Record {
	out := make([]store.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Clone())
	}
	return out
}
