package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/normalize"
	"github.com/yigit/edupay/internal/app/state"
	"github.com/yigit/edupay/internal/pkg/apperrors"
	"github.com/yigit/edupay/internal/store"
)

// Edit outcomes reported to the user.
const (
	OutcomeApplied   = "applied"
	OutcomeSubmitted = "submitted for approval"
)

// ReceiptConfig controls receipt numbering: PREFIX-(BASE+n).
type ReceiptConfig struct {
	Prefix string
	Base   int64
}

// PaymentInput is a new payment as entered in the collector form.
type PaymentInput struct {
	StudentID     string
	Amount        decimal.Decimal
	Date          string
	PaymentMethod models.PaymentMethod
	FeeHeadIDs    []string
	SessionID     string
	TransactionID string
	UPIID         string
	BankAccount   string
	Remarks       string
}

// EditResult is the outcome of an edit: applied in place, or a pending change.
type EditResult struct {
	Outcome       string                `json:"outcome"`
	Payment       *models.Payment       `json:"payment,omitempty"`
	PendingChange *models.PendingChange `json:"pendingChange,omitempty"`
}

// PendingView is a pending change with display fields resolved.
type PendingView struct {
	models.PendingChange
	StudentName   string `json:"studentName"`
	ReceiptNumber string `json:"receiptNumber"`
	RequesterName string `json:"requesterName"`
}

// Receipt is the data behind a printed receipt.
type Receipt struct {
	Payment    models.Payment   `json:"payment"`
	Student    models.Student   `json:"student"`
	CourseName string           `json:"courseName"`
	Course     *models.Course   `json:"course,omitempty"`
	Settings   models.Settings  `json:"settings"`
	Heads      []models.FeeHead `json:"heads"`
}

// PaymentService defines the interface for payment collection and approvals
type PaymentService interface {
	List(ctx context.Context) []models.Payment
	Record(ctx context.Context, actor models.Session, in PaymentInput) (models.Payment, error)
	Edit(ctx context.Context, actor models.Session, id string, patch models.PaymentPatch) (*EditResult, error)
	ListPending(ctx context.Context, actor models.Session) ([]PendingView, error)
	Approve(ctx context.Context, actor models.Session, pendingID string) (models.Payment, error)
	Reject(ctx context.Context, actor models.Session, pendingID string) error
	Receipt(ctx context.Context, id string) (*Receipt, error)
}

type paymentServiceImpl struct {
	ledger   *Ledger
	receipts ReceiptConfig
	// mu serializes payment mutations within this process.
	mu sync.Mutex
}

// NewPaymentService creates a new payment service instance
func NewPaymentService(ledger *Ledger, receipts ReceiptConfig) PaymentService {
	return &paymentServiceImpl{ledger: ledger, receipts: receipts}
}

func (s *paymentServiceImpl) List(ctx context.Context) []models.Payment {
	return s.ledger.snapshot().Payments
}

// checkDuplicate fails when another payment already uses txnID.
func checkDuplicate(snap *state.Snapshot, txnID, exceptID string) error {
	if other, ok := snap.PaymentByTransaction(txnID, exceptID); ok {
		return &apperrors.DuplicateTransactionError{
			TransactionID: strings.TrimSpace(txnID),
			PaymentID:     other.ID,
			StudentName:   snap.StudentName(other.StudentID),
		}
	}
	return nil
}

// duplicateFromStore turns a storage-level unique violation into the same
// error the pre-check produces. The conflicting row may not be in the
// snapshot yet, so the owner can be unknown.
func (s *paymentServiceImpl) duplicateFromStore(ctx context.Context, err error, txnID, exceptID string) error {
	var uv *store.UniqueViolationError
	if !errors.As(err, &uv) || uv.Constraint != store.ConstraintPaymentTransactionID {
		return err
	}
	s.ledger.refresh(ctx)
	if dup := checkDuplicate(s.ledger.snapshot(), txnID, exceptID); dup != nil {
		return dup
	}
	return &apperrors.DuplicateTransactionError{TransactionID: strings.TrimSpace(txnID)}
}

func validDate(d string) bool {
	_, err := time.Parse("2006-01-02", d)
	return err == nil
}

// Record validates and stores a new payment with a fresh receipt number.
func (s *paymentServiceImpl) Record(ctx context.Context, actor models.Session, in PaymentInput) (models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.StudentID == "" || !in.Amount.IsPositive() {
		return models.Payment{}, apperrors.Validation("Select student & amount.")
	}
	if !in.PaymentMethod.Valid() {
		return models.Payment{}, apperrors.Validation(fmt.Sprintf("Unknown payment method %q.", in.PaymentMethod))
	}
	if in.Date == "" {
		in.Date = s.ledger.today()
	} else if !validDate(in.Date) {
		return models.Payment{}, apperrors.Validation("Payment date must be YYYY-MM-DD.")
	}

	snap := s.ledger.snapshot()
	student, ok := snap.Student(in.StudentID)
	if !ok {
		return models.Payment{}, apperrors.Validation("Selected student does not exist.")
	}
	in.TransactionID = strings.TrimSpace(in.TransactionID)
	if err := checkDuplicate(snap, in.TransactionID, ""); err != nil {
		s.ledger.log.Warn().Str("transactionId", in.TransactionID).Msg("Duplicate transaction rejected")
		return models.Payment{}, err
	}

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = student.SessionID
	}
	if sessionID == "" {
		sessionID = snap.Settings.DefaultSession()
	}

	pay := models.Payment{
		StudentID:     in.StudentID,
		Amount:        in.Amount,
		Date:          in.Date,
		Time:          s.ledger.Now().Format("03:04 PM"),
		PaymentMethod: in.PaymentMethod,
		FeeHeadIDs:    nonNilStrings(in.FeeHeadIDs),
		SessionID:     sessionID,
		CollectedBy:   actor.UserID,
		TransactionID: in.TransactionID,
		UPIID:         strings.TrimSpace(in.UPIID),
		BankAccount:   strings.TrimSpace(in.BankAccount),
		Remarks:       strings.TrimSpace(in.Remarks),
	}

	err := s.ledger.Gateway.WithTx(ctx, func(tx store.Gateway) error {
		n, err := tx.NextSequence(ctx, store.ReceiptSequence)
		if err != nil {
			return fmt.Errorf("allocating receipt number: %w", err)
		}
		pay.ReceiptNumber = fmt.Sprintf("%s-%d", s.receipts.Prefix, s.receipts.Base+n)

		rec, err := tx.Insert(ctx, store.TablePayments, normalize.PaymentRecord(pay))
		if err != nil {
			return err
		}
		pay.ID = normalize.Payment(rec).ID
		return nil
	})
	if err != nil {
		return models.Payment{}, s.duplicateFromStore(ctx, err, in.TransactionID, "")
	}

	s.ledger.log.Info().
		Str("paymentId", pay.ID).
		Str("receipt", pay.ReceiptNumber).
		Str("amount", pay.Amount.String()).
		Str("collectedBy", actor.UserID).
		Msg("Payment recorded")
	s.ledger.refresh(ctx)

	if saved, ok := s.ledger.snapshot().Payment(pay.ID); ok {
		return saved, nil
	}
	return pay, nil
}

func (s *paymentServiceImpl) validatePatch(snap *state.Snapshot, id string, patch models.PaymentPatch) error {
	if patch.Empty() {
		return apperrors.Validation("Nothing to change.")
	}
	if patch.Amount != nil && !patch.Amount.IsPositive() {
		return apperrors.Validation("Select student & amount.")
	}
	if patch.PaymentMethod != nil && !patch.PaymentMethod.Valid() {
		return apperrors.Validation(fmt.Sprintf("Unknown payment method %q.", *patch.PaymentMethod))
	}
	if patch.Date != nil && !validDate(*patch.Date) {
		return apperrors.Validation("Payment date must be YYYY-MM-DD.")
	}
	if patch.TransactionID != nil {
		return checkDuplicate(snap, *patch.TransactionID, id)
	}
	return nil
}

// Edit changes an existing payment. An administrator's edit is applied in
// place; anyone else's becomes a pending change awaiting approval.
func (s *paymentServiceImpl) Edit(ctx context.Context, actor models.Session, id string, patch models.PaymentPatch) (*EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.ledger.snapshot()
	old, ok := snap.Payment(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPaymentNotFound, id)
	}
	if patch.TransactionID != nil {
		trimmed := strings.TrimSpace(*patch.TransactionID)
		patch.TransactionID = &trimmed
	}
	if err := s.validatePatch(snap, id, patch); err != nil {
		return nil, err
	}
	proposed := patch.Apply(old)

	if actor.IsAdmin() {
		values := normalize.PaymentPatchRecord(patch)
		values["is_edited"] = true
		values["edited_by"] = actor.UserID

		n, err := s.ledger.Gateway.Update(ctx, store.TablePayments, store.Record{"id": id}, values)
		if err != nil {
			return nil, s.duplicateFromStore(ctx, err, proposed.TransactionID, id)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrPaymentNotFound, id)
		}

		s.ledger.log.Info().Str("paymentId", id).Str("editedBy", actor.UserID).Msg("Payment edited")
		s.ledger.refresh(ctx)

		updated, ok := s.ledger.snapshot().Payment(id)
		if !ok {
			proposed.IsEdited, proposed.EditedBy = true, actor.UserID
			updated = proposed
		}
		return &EditResult{Outcome: OutcomeApplied, Payment: &updated}, nil
	}

	change := models.PendingChange{
		PaymentID:   id,
		RequestedBy: actor.UserID,
		OldData:     old,
		NewData:     proposed,
		Status:      models.StatusPending,
		RequestedAt: s.ledger.Now().UTC().Format(time.RFC3339),
	}
	err := s.ledger.Gateway.WithTx(ctx, func(tx store.Gateway) error {
		rec, err := tx.Insert(ctx, store.TablePendingChanges, normalize.PendingChangeRecord(change))
		if err != nil {
			return fmt.Errorf("inserting pending change: %w", err)
		}
		change.ID = normalize.PendingChange(rec).ID

		requester := actor.Name
		if requester == "" {
			requester = actor.UserID
		}
		msg := fmt.Sprintf("%s requested an edit to receipt %s.", requester, old.ReceiptNumber)
		return emitNotification(ctx, tx, models.NotificationInfo, msg)
	})
	if err != nil {
		return nil, err
	}

	s.ledger.log.Info().Str("paymentId", id).Str("requestedBy", actor.UserID).Msg("Payment edit submitted for approval")
	s.ledger.refresh(ctx)

	if saved, ok := s.ledger.snapshot().PendingChange(change.ID); ok {
		change = saved
	}
	return &EditResult{Outcome: OutcomeSubmitted, PendingChange: &change}, nil
}

func (s *paymentServiceImpl) ListPending(ctx context.Context, actor models.Session) ([]PendingView, error) {
	if err := requireAdmin(actor, "review pending changes"); err != nil {
		return nil, err
	}
	snap := s.ledger.snapshot()
	out := make([]PendingView, 0, len(snap.PendingChanges))
	for _, pc := range snap.PendingChanges {
		if pc.Status != models.StatusPending {
			continue
		}
		view := PendingView{PendingChange: pc, RequesterName: pc.RequestedBy}
		if p, ok := snap.Payment(pc.PaymentID); ok {
			view.ReceiptNumber = p.ReceiptNumber
			view.StudentName = snap.StudentName(p.StudentID)
		} else {
			view.ReceiptNumber = pc.OldData.ReceiptNumber
			view.StudentName = snap.StudentName(pc.OldData.StudentID)
		}
		if acc, ok := snap.AccountantByLogin(pc.RequestedBy); ok {
			view.RequesterName = acc.Name
		}
		out = append(out, view)
	}
	return out, nil
}

// Approve applies exactly the editable fields present in the change's new
// data, marks the payment edited by the requester and consumes the change.
func (s *paymentServiceImpl) Approve(ctx context.Context, actor models.Session, pendingID string) (models.Payment, error) {
	if err := requireAdmin(actor, "approve changes"); err != nil {
		return models.Payment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.ledger.snapshot()
	pc, ok := snap.PendingChange(pendingID)
	if !ok {
		return models.Payment{}, fmt.Errorf("%w: %s", apperrors.ErrPendingNotFound, pendingID)
	}
	if pc.Patch.TransactionID != nil {
		if err := checkDuplicate(snap, *pc.Patch.TransactionID, pc.PaymentID); err != nil {
			return models.Payment{}, err
		}
	}

	values := normalize.PaymentPatchRecord(pc.Patch)
	values["is_edited"] = true
	values["edited_by"] = pc.RequestedBy

	err := s.ledger.Gateway.WithTx(ctx, func(tx store.Gateway) error {
		n, err := tx.Update(ctx, store.TablePayments, store.Record{"id": pc.PaymentID}, values)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", apperrors.ErrPaymentNotFound, pc.PaymentID)
		}
		n, err = tx.Delete(ctx, store.TablePendingChanges, store.Record{"id": pendingID})
		if err != nil {
			return fmt.Errorf("deleting pending change: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", apperrors.ErrPendingNotFound, pendingID)
		}
		return nil
	})
	if err != nil {
		txn := ""
		if pc.Patch.TransactionID != nil {
			txn = *pc.Patch.TransactionID
		}
		return models.Payment{}, s.duplicateFromStore(ctx, err, txn, pc.PaymentID)
	}

	s.ledger.log.Info().Str("pendingId", pendingID).Str("paymentId", pc.PaymentID).Msg("Pending change approved")
	s.ledger.refresh(ctx)

	if p, ok := s.ledger.snapshot().Payment(pc.PaymentID); ok {
		return p, nil
	}
	old, _ := snap.Payment(pc.PaymentID)
	applied := pc.Patch.Apply(old)
	applied.IsEdited, applied.EditedBy = true, pc.RequestedBy
	return applied, nil
}

// Reject discards a pending change without touching the payment.
func (s *paymentServiceImpl) Reject(ctx context.Context, actor models.Session, pendingID string) error {
	if err := requireAdmin(actor, "reject changes"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.ledger.Gateway.Delete(ctx, store.TablePendingChanges, store.Record{"id": pendingID})
	if err != nil {
		return fmt.Errorf("deleting pending change: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrPendingNotFound, pendingID)
	}

	s.ledger.log.Info().Str("pendingId", pendingID).Msg("Pending change rejected")
	s.ledger.refresh(ctx)
	return nil
}

// Receipt gathers what the print surface needs for one payment.
func (s *paymentServiceImpl) Receipt(ctx context.Context, id string) (*Receipt, error) {
	snap := s.ledger.snapshot()
	p, ok := snap.Payment(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPaymentNotFound, id)
	}
	r := &Receipt{Payment: p, Settings: snap.Settings, Heads: []models.FeeHead{}}
	if st, ok := snap.Student(p.StudentID); ok {
		r.Student = st
	}
	r.CourseName = snap.CourseName(r.Student.CourseID)
	if c, ok := snap.Course(r.Student.CourseID); ok {
		r.Course = &c
		covered := make(map[string]bool, len(p.FeeHeadIDs))
		for _, hid := range p.FeeHeadIDs {
			covered[hid] = true
		}
		for _, h := range c.Heads {
			if covered[h.ID] {
				r.Heads = append(r.Heads, h)
			}
		}
	}
	return r, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
