package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/pkg/apperrors"
	"github.com/yigit/edupay/internal/pkg/export"
	"github.com/yigit/edupay/internal/store"
)

func ledgerByStudent(t *testing.T, rows []LedgerRow) map[string]LedgerRow {
	t.Helper()
	out := make(map[string]LedgerRow, len(rows))
	for _, r := range rows {
		out[r.StudentID] = r
	}
	return out
}

func TestLedger_BalanceLaw(t *testing.T) {
	f := newFixture(t)
	// A payment from a student with no course at all.
	_, err := f.store.Insert(f.ctx, store.TableStudents, store.Record{"id": "s4", "name": "Walk-in"})
	require.NoError(t, err)
	_, err = f.store.Insert(f.ctx, store.TablePayments, store.Record{
		"id": "p4", "student_id": "s4", "amount": "2500", "date": "2024-07-20", "payment_method": "Cash",
	})
	require.NoError(t, err)
	require.NoError(t, f.ledger.Refresher.Refresh(f.ctx))

	rows, err := f.reports().Ledger(f.ctx, DateRange{})
	require.NoError(t, err)
	byID := ledgerByStudent(t, rows)

	snap := f.state.Current()
	for _, st := range snap.Students {
		paid := decimal.Zero
		for _, p := range snap.Payments {
			if p.StudentID == st.ID {
				paid = paid.Add(p.Amount)
			}
		}
		want := courseTotal(snap, st.CourseID).Sub(paid)
		assert.True(t, want.Equal(byID[st.ID].Balance), "student %s: want %s got %s", st.ID, want, byID[st.ID].Balance)
	}

	assert.True(t, decimal.NewFromInt(30000).Equal(byID["s2"].Balance))
	assert.True(t, decimal.NewFromInt(-2500).Equal(byID["s4"].Balance))
	assert.Equal(t, models.UnassignedCourse, byID["s4"].CourseName)
}

func TestLedger_DateRange(t *testing.T) {
	f := newFixture(t)

	rows, err := f.reports().Ledger(f.ctx, DateRange{From: "2024-07-10", To: "2024-07-31"})
	require.NoError(t, err)
	s2 := ledgerByStudent(t, rows)["s2"]
	assert.True(t, decimal.NewFromInt(150000).Equal(s2.Paid))
	assert.True(t, decimal.NewFromInt(50000).Equal(s2.Balance))

	_, err = f.reports().Ledger(f.ctx, DateRange{From: "2024-08-01", To: "2024-07-01"})
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
	_, err = f.reports().Ledger(f.ctx, DateRange{From: "01/07/2024"})
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}

func TestSummaryAndCollections(t *testing.T) {
	f := newFixture(t)
	sum := f.reports().Summary(f.ctx)

	assert.True(t, decimal.NewFromInt(350000).Equal(sum.TotalReceivable))
	assert.True(t, decimal.NewFromInt(170000).Equal(sum.TotalCollected))
	assert.True(t, decimal.NewFromInt(180000).Equal(sum.Outstanding))
	assert.Equal(t, 3, sum.Students)
	assert.Equal(t, 2, sum.Payments)
	assert.Zero(t, sum.PendingApprovals)

	byCourse := f.reports().CollectionsByCourse(f.ctx)
	require.Len(t, byCourse, 2)
	assert.True(t, byCourse[0].Collected.IsZero())
	assert.True(t, decimal.NewFromInt(170000).Equal(byCourse[1].Collected))

	dash := f.reports().Dashboard(f.ctx)
	require.Len(t, dash.Recent, 2)
	assert.Equal(t, "p2", dash.Recent[0].ID)
	assert.Equal(t, "p1", dash.Recent[1].ID)
}

func TestSearchPayments(t *testing.T) {
	f := newFixture(t)
	svc := f.reports()

	for query, want := range map[string][]string{
		"":           {"p1", "p2"},
		"txn1":       {"p1"},
		"DIYA@":      {"p1"},
		"hdfc":       {"p2"},
		"diya patel": {"p1", "p2"},
		"dc-0998":    {"p2"},
		"nothing":    {},
	} {
		rows, err := svc.SearchPayments(f.ctx, query, DateRange{})
		require.NoError(t, err)
		got := []string{}
		for _, r := range rows {
			got = append(got, r.ID)
		}
		assert.Equal(t, want, got, "query %q", query)
	}

	rows, err := svc.SearchPayments(f.ctx, "diya", DateRange{From: "2024-07-10"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p2", rows[0].ID)
}

func TestExportPayments_CSV(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Insert(f.ctx, store.TablePayments, store.Record{
		"id": "p5", "student_id": "ghost", "amount": "10", "date": "2024-07-30", "payment_method": "Cash", "receipt_number": "DC-0997",
	})
	require.NoError(t, err)
	require.NoError(t, f.ledger.Refresher.Refresh(f.ctx))

	file, err := f.reports().ExportPayments(f.ctx, export.FormatCSV, "", DateRange{})
	require.NoError(t, err)
	assert.Equal(t, "Payment_History_2024-08-01.csv", file.Name)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Receipt No", "Date", "Student", "Roll No", "Method", "Txn ID", "Amount"}, records[0])
	assert.Equal(t, []string{"DC-0999", "2024-07-01", "Diya Patel", "MBA-07", "UPI", "TXN123", "20000"}, records[1])
	assert.Equal(t, []string{"DC-0997", "2024-07-30", "Unknown", "---", "Cash", "N/A", "10"}, records[3])
}

func TestExportLedger_XLSX(t *testing.T) {
	f := newFixture(t)
	file, err := f.reports().ExportLedger(f.ctx, export.FormatXLSX, DateRange{})
	require.NoError(t, err)
	assert.Equal(t, "Fee_Ledger_2024-08-01.xlsx", file.Name)
	assert.NotEmpty(t, file.Data)
	assert.Equal(t, export.FormatXLSX.ContentType(), file.ContentType)
}

func TestShareAndReminderLinks(t *testing.T) {
	f := newFixture(t)
	svc := f.reports()

	link, err := svc.ShareLink(f.ctx, "p1")
	require.NoError(t, err)
	assert.Contains(t, link, "919900011111?text=")
	assert.Contains(t, link, "DC-0999")
	assert.NotContains(t, link, "+")

	link, err = svc.ReminderLink(f.ctx, "s2")
	require.NoError(t, err)
	assert.Contains(t, link, "919900011111?text=")
	assert.Contains(t, link, "30%2C000")

	_, err = svc.ReminderLink(f.ctx, "s3")
	assert.Equal(t, "No phone found.", apperrors.Message(err, ""))

	_, err = svc.ShareLink(f.ctx, "missing")
	assert.True(t, errors.Is(err, apperrors.ErrPaymentNotFound))
}
