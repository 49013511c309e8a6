package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/state"
	"github.com/yigit/edupay/internal/pkg/apperrors"
	"github.com/yigit/edupay/internal/pkg/export"
	"github.com/yigit/edupay/internal/pkg/messaging"
)

// Report names used in export file names.
const (
	ReportPaymentHistory = "Payment_History"
	ReportLedger         = "Fee_Ledger"
)

// DateRange is an inclusive range of ISO dates; empty bounds are open.
type DateRange struct {
	From string
	To   string
}

// Contains compares ISO dates lexicographically.
func (r DateRange) Contains(date string) bool {
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}

func (r DateRange) validate() error {
	if r.From != "" && !validDate(r.From) {
		return apperrors.Validation("From date must be YYYY-MM-DD.")
	}
	if r.To != "" && !validDate(r.To) {
		return apperrors.Validation("To date must be YYYY-MM-DD.")
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return apperrors.Validation("From date is after To date.")
	}
	return nil
}

// Summary is the financial overview.
type Summary struct {
	TotalReceivable  decimal.Decimal `json:"totalReceivable"`
	TotalCollected   decimal.Decimal `json:"totalCollected"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	Students         int             `json:"students"`
	Payments         int             `json:"payments"`
	PendingApprovals int             `json:"pendingApprovals"`
}

// LedgerRow is one student's dues.
type LedgerRow struct {
	StudentID   string          `json:"studentId"`
	StudentName string          `json:"studentName"`
	RollNumber  string          `json:"rollNumber"`
	CourseName  string          `json:"courseName"`
	SessionID   string          `json:"sessionId"`
	Phone       string          `json:"phone"`
	Receivable  decimal.Decimal `json:"receivable"`
	Paid        decimal.Decimal `json:"paid"`
	Balance     decimal.Decimal `json:"balance"`
}

// CourseCollection is the amount collected from one course's students.
type CourseCollection struct {
	CourseID   string          `json:"courseId"`
	CourseName string          `json:"courseName"`
	Collected  decimal.Decimal `json:"collected"`
}

// PaymentRow is a payment with its payer resolved.
type PaymentRow struct {
	models.Payment
	StudentName string `json:"studentName"`
	RollNumber  string `json:"rollNumber"`
	CourseName  string `json:"courseName"`
}

// Dashboard is the landing page data.
type Dashboard struct {
	Summary  Summary            `json:"summary"`
	ByCourse []CourseCollection `json:"byCourse"`
	Recent   []PaymentRow       `json:"recent"`
}

// DashboardRecent is how many payments the dashboard lists.
const DashboardRecent = 5

// ReportService defines the interface for derived views over the snapshot.
// Nothing here writes to the store.
type ReportService interface {
	Summary(ctx context.Context) Summary
	Ledger(ctx context.Context, r DateRange) ([]LedgerRow, error)
	CollectionsByCourse(ctx context.Context) []CourseCollection
	RecentActivity(ctx context.Context, n int) []PaymentRow
	SearchPayments(ctx context.Context, query string, r DateRange) ([]PaymentRow, error)
	Dashboard(ctx context.Context) Dashboard
	ExportPayments(ctx context.Context, format export.Format, query string, r DateRange) (*export.File, error)
	ExportLedger(ctx context.Context, format export.Format, r DateRange) (*export.File, error)
	ShareLink(ctx context.Context, paymentID string) (string, error)
	ReminderLink(ctx context.Context, studentID string) (string, error)
}

type reportServiceImpl struct {
	ledger *Ledger
}

// NewReportService creates a new report service instance
func NewReportService(ledger *Ledger) ReportService {
	return &reportServiceImpl{ledger: ledger}
}

func courseTotal(snap *state.Snapshot, courseID string) decimal.Decimal {
	if c, ok := snap.Course(courseID); ok {
		return c.TotalAmount
	}
	return decimal.Zero
}

func summarize(snap *state.Snapshot) Summary {
	sum := Summary{
		TotalReceivable: decimal.Zero,
		TotalCollected:  decimal.Zero,
		Students:        len(snap.Students),
		Payments:        len(snap.Payments),
	}
	for _, st := range snap.Students {
		sum.TotalReceivable = sum.TotalReceivable.Add(courseTotal(snap, st.CourseID))
	}
	for _, p := range snap.Payments {
		sum.TotalCollected = sum.TotalCollected.Add(p.Amount)
	}
	sum.PendingApprovals = snap.Pending()
	sum.Outstanding = sum.TotalReceivable.Sub(sum.TotalCollected)
	return sum
}

func (s *reportServiceImpl) Summary(ctx context.Context) Summary {
	return summarize(s.ledger.snapshot())
}

func ledgerRows(snap *state.Snapshot, r DateRange) []LedgerRow {
	paid := make(map[string]decimal.Decimal, len(snap.Students))
	for _, p := range snap.Payments {
		if !r.Contains(p.Date) {
			continue
		}
		paid[p.StudentID] = paid[p.StudentID].Add(p.Amount)
	}

	rows := make([]LedgerRow, 0, len(snap.Students))
	for _, st := range snap.Students {
		receivable := courseTotal(snap, st.CourseID)
		total := paid[st.ID]
		rows = append(rows, LedgerRow{
			StudentID:   st.ID,
			StudentName: st.Name,
			RollNumber:  st.RollNumber,
			CourseName:  snap.CourseName(st.CourseID),
			SessionID:   st.SessionID,
			Phone:       st.Phone,
			Receivable:  receivable,
			Paid:        total,
			Balance:     receivable.Sub(total),
		})
	}
	return rows
}

// Ledger computes balance = course total - payments in range for every student.
func (s *reportServiceImpl) Ledger(ctx context.Context, r DateRange) ([]LedgerRow, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	return ledgerRows(s.ledger.snapshot(), r), nil
}

func collectionsByCourse(snap *state.Snapshot) []CourseCollection {
	courseOf := make(map[string]string, len(snap.Students))
	for _, st := range snap.Students {
		courseOf[st.ID] = st.CourseID
	}
	collected := make(map[string]decimal.Decimal, len(snap.Courses))
	for _, p := range snap.Payments {
		cid := courseOf[p.StudentID]
		collected[cid] = collected[cid].Add(p.Amount)
	}

	out := make([]CourseCollection, 0, len(snap.Courses))
	for _, c := range snap.Courses {
		out = append(out, CourseCollection{CourseID: c.ID, CourseName: c.Name, Collected: collected[c.ID]})
	}
	return out
}

func (s *reportServiceImpl) CollectionsByCourse(ctx context.Context) []CourseCollection {
	return collectionsByCourse(s.ledger.snapshot())
}

func paymentRow(snap *state.Snapshot, p models.Payment) PaymentRow {
	row := PaymentRow{Payment: p, CourseName: models.UnassignedCourse}
	if st, ok := snap.Student(p.StudentID); ok {
		row.StudentName = st.Name
		row.RollNumber = st.RollNumber
		row.CourseName = snap.CourseName(st.CourseID)
	}
	return row
}

func recent(snap *state.Snapshot, n int) []PaymentRow {
	if n <= 0 {
		return []PaymentRow{}
	}
	out := make([]PaymentRow, 0, n)
	for i := len(snap.Payments) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, paymentRow(snap, snap.Payments[i]))
	}
	return out
}

// RecentActivity returns the last n payments, most recent first.
func (s *reportServiceImpl) RecentActivity(ctx context.Context, n int) []PaymentRow {
	return recent(s.ledger.snapshot(), n)
}

// matchesQuery reports whether q is a case-insensitive substring of any of
// the transaction id, UPI id, bank account, student name or receipt number.
func matchesQuery(row PaymentRow, q string) bool {
	if q == "" {
		return true
	}
	for _, field := range []string{row.TransactionID, row.UPIID, row.BankAccount, row.StudentName, row.ReceiptNumber} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func searchPayments(snap *state.Snapshot, query string, r DateRange) []PaymentRow {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]PaymentRow, 0)
	for _, p := range snap.Payments {
		if !r.Contains(p.Date) {
			continue
		}
		row := paymentRow(snap, p)
		if matchesQuery(row, q) {
			out = append(out, row)
		}
	}
	return out
}

func (s *reportServiceImpl) SearchPayments(ctx context.Context, query string, r DateRange) ([]PaymentRow, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	return searchPayments(s.ledger.snapshot(), query, r), nil
}

func (s *reportServiceImpl) Dashboard(ctx context.Context) Dashboard {
	snap := s.ledger.snapshot()
	return Dashboard{
		Summary:  summarize(snap),
		ByCourse: collectionsByCourse(snap),
		Recent:   recent(snap, DashboardRecent),
	}
}

func (s *reportServiceImpl) ExportPayments(ctx context.Context, format export.Format, query string, r DateRange) (*export.File, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	rows := searchPayments(s.ledger.snapshot(), query, r)

	table := export.Table{
		Report:  ReportPaymentHistory,
		Headers: []string{"Receipt No", "Date", "Student", "Roll No", "Method", "Txn ID", "Amount"},
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, row := range rows {
		name := row.StudentName
		if name == "" {
			name = "Unknown"
		}
		roll := row.RollNumber
		if roll == "" {
			roll = "---"
		}
		txn := row.TransactionID
		if txn == "" {
			txn = "N/A"
		}
		table.Rows = append(table.Rows, []any{
			row.ReceiptNumber, row.Date, name, roll, string(row.PaymentMethod), txn, row.Amount,
		})
	}
	return s.render(table, format)
}

func (s *reportServiceImpl) ExportLedger(ctx context.Context, format export.Format, r DateRange) (*export.File, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	rows := ledgerRows(s.ledger.snapshot(), r)

	table := export.Table{
		Report:  ReportLedger,
		Headers: []string{"Student", "Roll No", "Course", "Session", "Receivable", "Paid", "Balance"},
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, []any{
			row.StudentName, row.RollNumber, row.CourseName, row.SessionID, row.Receivable, row.Paid, row.Balance,
		})
	}
	return s.render(table, format)
}

func (s *reportServiceImpl) render(table export.Table, format export.Format) (*export.File, error) {
	file, err := export.Render(table, format, s.ledger.Now())
	if err != nil {
		return nil, fmt.Errorf("rendering %s export: %w", table.Report, err)
	}
	return file, nil
}

// ShareLink builds the receipt message deep link for the payer's phone.
func (s *reportServiceImpl) ShareLink(ctx context.Context, paymentID string) (string, error) {
	snap := s.ledger.snapshot()
	p, ok := snap.Payment(paymentID)
	if !ok {
		return "", fmt.Errorf("%w: %s", apperrors.ErrPaymentNotFound, paymentID)
	}
	st, _ := snap.Student(p.StudentID)

	link, err := messaging.WhatsAppLink(st.Phone, messaging.ReceiptMessage(messaging.ReceiptDetails{
		Institution:   snap.Settings.InstitutionName,
		ReceiptNumber: p.ReceiptNumber,
		StudentName:   st.Name,
		Amount:        p.Amount,
		Date:          p.Date,
		Method:        string(p.PaymentMethod),
		TransactionID: p.TransactionID,
	}))
	if errors.Is(err, messaging.ErrNoPhone) {
		return "", apperrors.Validation("No student phone number found.")
	}
	return link, err
}

// ReminderLink builds the pending-fee reminder deep link for a student.
func (s *reportServiceImpl) ReminderLink(ctx context.Context, studentID string) (string, error) {
	snap := s.ledger.snapshot()
	var row *LedgerRow
	for _, r := range ledgerRows(snap, DateRange{}) {
		if r.StudentID == studentID {
			row = &r
			break
		}
	}
	if row == nil {
		return "", fmt.Errorf("%w: %s", apperrors.ErrStudentNotFound, studentID)
	}

	link, err := messaging.WhatsAppLink(row.Phone, messaging.ReminderMessage(messaging.ReminderDetails{
		Institution: snap.Settings.InstitutionName,
		StudentName: row.StudentName,
		CourseName:  row.CourseName,
		SessionID:   row.SessionID,
		Balance:     row.Balance,
	}))
	if errors.Is(err, messaging.ErrNoPhone) {
		return "", apperrors.Validation("No phone found.")
	}
	return link, err
}
