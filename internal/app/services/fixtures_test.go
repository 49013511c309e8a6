package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/state"
	"github.com/yigit/edupay/internal/store"
	"github.com/yigit/edupay/internal/store/memstore"
	"golang.org/x/crypto/bcrypt"

	pkgauth "github.com/yigit/edupay/internal/pkg/auth"
)

var (
	admin      = models.Session{Name: "Administrator", UserID: "admin", Role: models.RoleAdmin}
	accountant = models.Session{Name: "Priya Nair", UserID: "priya", Role: models.RoleAccountant}
	fixedNow   = time.Date(2024, 8, 1, 14, 5, 0, 0, time.UTC)
)

type fixture struct {
	ctx    context.Context
	store  *memstore.Store
	state  *state.Store
	ledger *Ledger
}

func init() {
	pkgauth.BcryptCost = bcrypt.MinCost
}

// newFixture seeds two courses, three students and two payments:
// c1 totals 75000 with s1 (no payments) and s3 enrolled; c2 totals 200000
// with s2, who paid p1 (TXN123) and p2 (150000).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	ms := memstore.New()

	insert := func(table store.Table, rec store.Record) {
		_, err := ms.Insert(ctx, table, rec)
		require.NoError(t, err)
	}
	insert(store.TableSettings, store.Record{
		"id":                   "settings",
		"institution_name":     "Digital Communique Academy",
		"address":              "12 MG Road, Pune",
		"contact_number":       "+91 98200 00000",
		"available_branches":   []string{"CSE", "ECE"},
		"available_semesters":  []string{"Sem 1", "Sem 2"},
		"available_sessions":   []string{"2024-25", "2023-24"},
	})
	insert(store.TableCourses, store.Record{"id": "c1", "course_name": "B.Tech Computer Science", "frequency": "Semester", "total_amount": decimal.NewFromInt(75000)})
	insert(store.TableFeeHeads, store.Record{"id": "h1", "course_id": "c1", "name": "Tuition Fee", "amount": decimal.NewFromInt(60000), "type": "Base"})
	insert(store.TableFeeHeads, store.Record{"id": "h2", "course_id": "c1", "name": "Library & Lab", "amount": decimal.NewFromInt(10000), "type": "Base"})
	insert(store.TableFeeHeads, store.Record{"id": "h3", "course_id": "c1", "name": "Admission Fee", "amount": decimal.NewFromInt(5000), "type": "One-Time"})
	insert(store.TableCourses, store.Record{"id": "c2", "course_name": "MBA", "frequency": "Annual", "total_amount": decimal.NewFromInt(200000)})
	insert(store.TableFeeHeads, store.Record{"id": "h4", "course_id": "c2", "name": "Tuition Fee", "amount": decimal.NewFromInt(200000), "type": "Base"})

	insert(store.TableStudents, store.Record{"id": "s1", "name": "Aarav Sharma", "roll_number": "CS-01", "course_id": "c1", "session_id": "2024-25", "phone": "98200 12345"})
	insert(store.TableStudents, store.Record{"id": "s2", "name": "Diya Patel", "roll_number": "MBA-07", "course_id": "c2", "session_id": "2024-25", "phone": "+91 99000 11111"})
	insert(store.TableStudents, store.Record{"id": "s3", "name": "Kabir Rao", "roll_number": "CS-02", "course_id": "c1", "session_id": "2024-25"})

	insert(store.TablePayments, store.Record{
		"id": "p1", "student_id": "s2", "amount": decimal.NewFromInt(20000), "date": "2024-07-01", "time": "10:00 AM",
		"payment_method": "UPI", "receipt_number": "DC-0999", "transaction_id": "TXN123", "upi_id": "diya@okaxis",
		"collected_by": "admin", "session_id": "2024-25",
	})
	insert(store.TablePayments, store.Record{
		"id": "p2", "student_id": "s2", "amount": decimal.NewFromInt(150000), "date": "2024-07-15", "time": "11:30 AM",
		"payment_method": "Bank Transfer", "receipt_number": "DC-0998", "transaction_id": "NEFT-778", "bank_account": "HDFC 0042",
		"collected_by": "priya", "session_id": "2024-25",
	})
	insert(store.TableAccountants, store.Record{"id": "a1", "name": "Priya Nair", "user_id": "priya", "password": "legacy-pass"})

	st := state.NewStore()
	refresher := state.NewRefresher(ms, st, time.Second)
	require.NoError(t, refresher.Refresh(ctx))

	ledger := NewLedger(ms, st, refresher)
	ledger.Now = func() time.Time { return fixedNow }
	return &fixture{ctx: ctx, store: ms, state: st, ledger: ledger}
}

func (f *fixture) payments() PaymentService {
	return NewPaymentService(f.ledger, ReceiptConfig{Prefix: "DC", Base: 1000})
}

func (f *fixture) reports() ReportService {
	return NewReportService(f.ledger)
}

func ptr[T any](v T) *T {
	return &v
}
