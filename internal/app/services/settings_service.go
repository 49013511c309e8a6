package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/normalize"
	"github.com/yigit/edupay/internal/pkg/apperrors"
	"github.com/yigit/edupay/internal/pkg/filestorage"
	"github.com/yigit/edupay/internal/store"
)

// logoDir is the storage subdirectory for institution logos.
const logoDir = "logos"

// ProfileUpdate changes the institution profile.
type ProfileUpdate struct {
	InstitutionName string
	Address         string
	ContactNumber   string
}

// LogoUpload is an uploaded logo image.
type LogoUpload struct {
	Filename string
	Content  io.Reader
}

// SettingsService defines the interface for institution settings
type SettingsService interface {
	Get(ctx context.Context) models.Settings
	UpdateProfile(ctx context.Context, actor models.Session, update ProfileUpdate) (models.Settings, error)
	AddListItem(ctx context.Context, actor models.Session, list models.SettingsList, value string) (models.Settings, error)
	RemoveListItem(ctx context.Context, actor models.Session, list models.SettingsList, value string) (models.Settings, error)
	UploadLogo(ctx context.Context, actor models.Session, upload LogoUpload) (models.Settings, error)
}

type settingsServiceImpl struct {
	ledger       *Ledger
	storage      filestorage.FileStorage
	maxLogoBytes int64
}

// NewSettingsService creates a new settings service instance
func NewSettingsService(ledger *Ledger, storage filestorage.FileStorage, maxLogoBytes int64) SettingsService {
	return &settingsServiceImpl{ledger: ledger, storage: storage, maxLogoBytes: maxLogoBytes}
}

func (s *settingsServiceImpl) Get(ctx context.Context) models.Settings {
	return s.ledger.snapshot().Settings
}

// current returns the settings row to edit. When the snapshot never loaded
// settings, the store is read directly so an existing row is updated rather
// than duplicated; an empty result means no row exists yet.
func (s *settingsServiceImpl) current(ctx context.Context) (models.Settings, error) {
	if settings := s.ledger.snapshot().Settings; settings.ID != "" {
		return settings, nil
	}
	rows, err := s.ledger.Gateway.SelectAll(ctx, store.TableSettings)
	if err != nil {
		return models.Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	if len(rows) == 0 {
		return models.Settings{}, nil
	}
	return normalize.Settings(rows[0]), nil
}

// save writes the singleton, creating it when the store has none yet.
func (s *settingsServiceImpl) save(ctx context.Context, settings models.Settings) (models.Settings, error) {
	rec := normalize.SettingsRecord(settings)
	if settings.ID == "" {
		if _, err := s.ledger.Gateway.Insert(ctx, store.TableSettings, rec); err != nil {
			return models.Settings{}, fmt.Errorf("creating settings: %w", err)
		}
	} else {
		n, err := s.ledger.Gateway.Update(ctx, store.TableSettings, store.Record{"id": settings.ID}, rec)
		if err != nil {
			return models.Settings{}, fmt.Errorf("updating settings: %w", err)
		}
		if n == 0 {
			return models.Settings{}, apperrors.NewResourceNotFoundError("settings not found")
		}
	}
	s.ledger.refresh(ctx)
	if got := s.ledger.snapshot().Settings; got.ID != "" {
		return got, nil
	}
	return settings, nil
}

func (s *settingsServiceImpl) UpdateProfile(ctx context.Context, actor models.Session, update ProfileUpdate) (models.Settings, error) {
	if err := requireAdmin(actor, "change settings"); err != nil {
		return models.Settings{}, err
	}
	name := strings.TrimSpace(update.InstitutionName)
	if name == "" {
		return models.Settings{}, apperrors.Validation("Institution name is required.")
	}

	settings, err := s.current(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	settings.InstitutionName = name
	settings.Address = strings.TrimSpace(update.Address)
	settings.ContactNumber = strings.TrimSpace(update.ContactNumber)
	return s.save(ctx, settings)
}

func setList(settings *models.Settings, list models.SettingsList, values []string) {
	switch list {
	case models.ListBranches:
		settings.Branches = values
	case models.ListSemesters:
		settings.Semesters = values
	case models.ListSessions:
		settings.Sessions = values
	}
}

// AddListItem appends a trimmed value unless the list already has it.
func (s *settingsServiceImpl) AddListItem(ctx context.Context, actor models.Session, list models.SettingsList, value string) (models.Settings, error) {
	if err := requireAdmin(actor, "change settings"); err != nil {
		return models.Settings{}, err
	}
	if !list.Valid() {
		return models.Settings{}, apperrors.Validation(fmt.Sprintf("Unknown list %q.", list))
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return models.Settings{}, apperrors.Validation("Value cannot be empty.")
	}

	settings, err := s.current(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	current := settings.Values(list)
	if slices.Contains(current, value) {
		return settings, nil
	}
	setList(&settings, list, append(slices.Clone(current), value))
	return s.save(ctx, settings)
}

func (s *settingsServiceImpl) RemoveListItem(ctx context.Context, actor models.Session, list models.SettingsList, value string) (models.Settings, error) {
	if err := requireAdmin(actor, "change settings"); err != nil {
		return models.Settings{}, err
	}
	if !list.Valid() {
		return models.Settings{}, apperrors.Validation(fmt.Sprintf("Unknown list %q.", list))
	}

	settings, err := s.current(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	current := settings.Values(list)
	kept := slices.DeleteFunc(slices.Clone(current), func(v string) bool { return v == strings.TrimSpace(value) })
	if len(kept) == len(current) {
		return models.Settings{}, apperrors.NewResourceNotFoundError(fmt.Sprintf("%q is not in %s", value, list))
	}
	setList(&settings, list, kept)
	return s.save(ctx, settings)
}

// UploadLogo stores an image no larger than the configured limit and points
// the settings at it. The previous logo file is removed.
func (s *settingsServiceImpl) UploadLogo(ctx context.Context, actor models.Session, upload LogoUpload) (models.Settings, error) {
	if err := requireAdmin(actor, "change settings"); err != nil {
		return models.Settings{}, err
	}
	if upload.Content == nil {
		return models.Settings{}, apperrors.Validation("Choose a logo image.")
	}

	data, err := io.ReadAll(io.LimitReader(upload.Content, s.maxLogoBytes+1))
	if err != nil {
		return models.Settings{}, fmt.Errorf("reading logo: %w", err)
	}
	if int64(len(data)) > s.maxLogoBytes {
		return models.Settings{}, apperrors.Validation("Logo must be under 1MB.")
	}
	if len(data) == 0 || !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return models.Settings{}, apperrors.Validation("Logo must be an image.")
	}

	url, err := s.storage.Save(bytes.NewReader(data), upload.Filename, logoDir)
	if err != nil {
		return models.Settings{}, fmt.Errorf("storing logo: %w", err)
	}

	settings, err := s.current(ctx)
	if err != nil {
		_ = s.storage.DeleteFile(url)
		return models.Settings{}, err
	}
	previous := settings.LogoURL
	settings.LogoURL = url
	saved, err := s.save(ctx, settings)
	if err != nil {
		_ = s.storage.DeleteFile(url)
		return models.Settings{}, err
	}
	if previous != "" && previous != url && s.storage.GetFullPath(previous) != "" {
		if err := s.storage.DeleteFile(previous); err != nil {
			s.ledger.log.Warn().Err(err).Str("logo", previous).Msg("Could not remove previous logo")
		}
	}
	return saved, nil
}
