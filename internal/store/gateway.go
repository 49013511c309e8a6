// Package store is the table-level gateway to the remote data store.
package store

import (
	"context"
	"fmt"

	"github.com/yigit/edupay/internal/pkg/apperrors"
)

// Table names one logical collection of the data store.
type Table string

const (
	TableSettings       Table = "settings"
	TableCourses        Table = "courses"
	TableFeeHeads       Table = "fee_heads"
	TableStudents       Table = "students"
	TablePayments       Table = "payments"
	TableAccountants    Table = "accountants"
	TableNotifications  Table = "notifications"
	TablePendingChanges Table = "pending_changes"
)

// Tables lists every collection loaded by a refresh.
var Tables = []Table{
	TableSettings,
	TableCourses,
	TableFeeHeads,
	TableStudents,
	TablePayments,
	TableAccountants,
	TableNotifications,
	TablePendingChanges,
}

// Unique constraint names shared by the schema and the in-memory store.
const (
	ConstraintPaymentTransactionID = "payments_transaction_id_norm_key"
	ConstraintAccountantUserID     = "accountants_user_id_key"
)

// ReceiptSequence is the atomic counter behind receipt numbers.
const ReceiptSequence = "receipt_seq"

// Record is one row keyed by column name.
type Record map[string]any

// Clone returns a copy of the record that shares no slices or maps with r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		cp := make([]any, len(t))
		for i := range t {
			cp[i] = cloneValue(t[i])
		}
		return cp
	case map[string]any:
		return map[string]any(Record(t).Clone())
	case Record:
		return t.Clone()
	default:
		return v
	}
}

// Gateway is the set of calls the application makes against the data store.
// Update and Delete match rows by column equality on every key of match.
type Gateway interface {
	SelectAll(ctx context.Context, table Table) ([]Record, error)
	Insert(ctx context.Context, table Table, rec Record) (Record, error)
	Update(ctx context.Context, table Table, match Record, values Record) (int64, error)
	Delete(ctx context.Context, table Table, match Record) (int64, error)
	NextSequence(ctx context.Context, name string) (int64, error)
	// WithTx runs fn against a gateway bound to one transaction.
	WithTx(ctx context.Context, fn func(tx Gateway) error) error
}

// UniqueViolationError is returned when a write breaks a unique constraint.
type UniqueViolationError struct {
	Table      Table
	Constraint string
	Err        error
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("unique constraint %s violated on %s", e.Constraint, e.Table)
}

func (e *UniqueViolationError) Unwrap() []error {
	if e.Err == nil {
		return []error{apperrors.ErrConflict}
	}
	return []error{apperrors.ErrConflict, e.Err}
}

// OpError wraps a failed store call. It matches apperrors.ErrStoreUnavailable.
type OpError struct {
	Op    string
	Table Table
	Err   error
}

func (e *OpError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *OpError) Unwrap() []error {
	return []error{apperrors.ErrStoreUnavailable, e.Err}
}
