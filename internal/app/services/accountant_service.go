package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/normalize"
	"github.com/yigit/edupay/internal/pkg/apperrors"
	pkgauth "github.com/yigit/edupay/internal/pkg/auth"
	"github.com/yigit/edupay/internal/store"
)

// AccountantInput creates or changes an accountant. An empty password on
// update keeps the current one.
type AccountantInput struct {
	Name     string
	UserID   string
	Password string
}

// AccountantService defines the interface for managing accountant principals
type AccountantService interface {
	List(ctx context.Context, actor models.Session) ([]models.Accountant, error)
	Create(ctx context.Context, actor models.Session, in AccountantInput) (models.Accountant, error)
	Update(ctx context.Context, actor models.Session, id string, in AccountantInput) (models.Accountant, error)
	Delete(ctx context.Context, actor models.Session, id string) error
}

type accountantServiceImpl struct {
	ledger       *Ledger
	adminLoginID string
}

// NewAccountantService creates a new accountant service instance. The
// administrator's login id is reserved.
func NewAccountantService(ledger *Ledger, adminLoginID string) AccountantService {
	return &accountantServiceImpl{ledger: ledger, adminLoginID: adminLoginID}
}

func (s *accountantServiceImpl) List(ctx context.Context, actor models.Session) ([]models.Accountant, error) {
	if err := requireAdmin(actor, "manage accountants"); err != nil {
		return nil, err
	}
	all := s.ledger.snapshot().Accountants
	out := make([]models.Accountant, 0, len(all))
	for _, a := range all {
		a.Password = ""
		out = append(out, a)
	}
	return out, nil
}

func (s *accountantServiceImpl) checkLogin(userID, exceptID string) error {
	if userID == s.adminLoginID {
		return fmt.Errorf("%w: %s", apperrors.ErrLoginIDExists, userID)
	}
	if other, ok := s.ledger.snapshot().AccountantByLogin(userID); ok && other.ID != exceptID {
		return fmt.Errorf("%w: %s", apperrors.ErrLoginIDExists, userID)
	}
	return nil
}

func loginConflict(err error, userID string) error {
	var uv *store.UniqueViolationError
	if errors.As(err, &uv) && uv.Constraint == store.ConstraintAccountantUserID {
		return fmt.Errorf("%w: %s", apperrors.ErrLoginIDExists, userID)
	}
	return err
}

func (s *accountantServiceImpl) Create(ctx context.Context, actor models.Session, in AccountantInput) (models.Accountant, error) {
	if err := requireAdmin(actor, "manage accountants"); err != nil {
		return models.Accountant{}, err
	}
	acc := models.Accountant{
		Name:   strings.TrimSpace(in.Name),
		UserID: strings.TrimSpace(in.UserID),
	}
	password := strings.TrimSpace(in.Password)
	if acc.Name == "" || acc.UserID == "" || password == "" {
		return models.Accountant{}, apperrors.Validation("Name, login id and password are required.")
	}
	if err := s.checkLogin(acc.UserID, ""); err != nil {
		return models.Accountant{}, err
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return models.Accountant{}, fmt.Errorf("hashing password: %w", err)
	}
	acc.Password = hash

	rec, err := s.ledger.Gateway.Insert(ctx, store.TableAccountants, normalize.AccountantRecord(acc))
	if err != nil {
		return models.Accountant{}, loginConflict(err, acc.UserID)
	}
	acc.ID = normalize.Accountant(rec).ID
	acc.Password = ""

	s.ledger.log.Info().Str("accountantId", acc.ID).Str("userId", acc.UserID).Msg("Accountant created")
	s.ledger.refresh(ctx)
	return acc, nil
}

func (s *accountantServiceImpl) Update(ctx context.Context, actor models.Session, id string, in AccountantInput) (models.Accountant, error) {
	if err := requireAdmin(actor, "manage accountants"); err != nil {
		return models.Accountant{}, err
	}
	current, ok := s.ledger.snapshot().Accountant(id)
	if !ok {
		return models.Accountant{}, fmt.Errorf("%w: %s", apperrors.ErrAccountantNotFound, id)
	}

	acc := models.Accountant{
		ID:       id,
		Name:     strings.TrimSpace(in.Name),
		UserID:   strings.TrimSpace(in.UserID),
		Password: current.Password,
	}
	if acc.Name == "" || acc.UserID == "" {
		return models.Accountant{}, apperrors.Validation("Name and login id are required.")
	}
	if err := s.checkLogin(acc.UserID, id); err != nil {
		return models.Accountant{}, err
	}
	if password := strings.TrimSpace(in.Password); password != "" {
		hash, err := pkgauth.HashPassword(password)
		if err != nil {
			return models.Accountant{}, fmt.Errorf("hashing password: %w", err)
		}
		acc.Password = hash
	}

	n, err := s.ledger.Gateway.Update(ctx, store.TableAccountants, store.Record{"id": id}, normalize.AccountantRecord(acc))
	if err != nil {
		return models.Accountant{}, loginConflict(err, acc.UserID)
	}
	if n == 0 {
		return models.Accountant{}, fmt.Errorf("%w: %s", apperrors.ErrAccountantNotFound, id)
	}

	s.ledger.refresh(ctx)
	acc.Password = ""
	return acc, nil
}

// Delete removes an accountant. Sessions already issued stay valid until
// logout or expiry.
func (s *accountantServiceImpl) Delete(ctx context.Context, actor models.Session, id string) error {
	if err := requireAdmin(actor, "manage accountants"); err != nil {
		return err
	}
	n, err := s.ledger.Gateway.Delete(ctx, store.TableAccountants, store.Record{"id": id})
	if err != nil {
		return fmt.Errorf("deleting accountant: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrAccountantNotFound, id)
	}
	s.ledger.log.Info().Str("accountantId", id).Msg("Accountant deleted")
	s.ledger.refresh(ctx)
	return nil
}
