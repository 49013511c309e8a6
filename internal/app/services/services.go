package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/state"
	"github.com/yigit/edupay/internal/pkg/apperrors"
	"github.com/yigit/edupay/internal/pkg/logger"
	"github.com/yigit/edupay/internal/store"
)

// Services defined in this package:
// - CourseService: fee structures and their heads
// - StudentService: enrollment records
// - PaymentService: collection, edits, approvals and receipts
// - ReportService: derived views and exports
// - SettingsService: institution profile, lists and logo
// - AccountantService: accountant principals
// - NotificationService: console notifications

// Ledger is shared by every service: the store gateway that writes go to,
// the snapshot that reads come from, and the refresher that reconciles the
// two after each write.
type Ledger struct {
	Gateway   store.Gateway
	State     *state.Store
	Refresher *state.Refresher
	Now       func() time.Time
	log       zerolog.Logger
}

// NewLedger creates the shared service dependencies.
func NewLedger(gateway store.Gateway, st *state.Store, refresher *state.Refresher) *Ledger {
	return &Ledger{
		Gateway:   gateway,
		State:     st,
		Refresher: refresher,
		Now:       time.Now,
		log:       logger.Component("services"),
	}
}

func (l *Ledger) snapshot() *state.Snapshot {
	return l.State.Current()
}

func (l *Ledger) today() string {
	return l.Now().Format("2006-01-02")
}

// refresh reloads the snapshot after a write. The write has already
// succeeded, so a failed reload is logged and leaves the previous snapshot.
func (l *Ledger) refresh(ctx context.Context) {
	err := l.Refresher.Refresh(context.WithoutCancel(ctx))
	if err == nil || errors.Is(err, apperrors.ErrRefreshSuperseded) {
		return
	}
	l.log.Error().Err(err).Msg("Refresh after write failed")
}

func requireAdmin(actor models.Session, action string) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbiddenError("only an administrator can " + action)
	}
	return nil
}

// emitNotification writes a notification through gw, which may be a transaction.
func emitNotification(ctx context.Context, gw store.Gateway, typ models.NotificationType, message string) error {
	_, err := gw.Insert(ctx, store.TableNotifications, normalizeNotification(typ, message))
	return err
}
