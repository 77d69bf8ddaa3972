package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/soufiyanbenallal/track-app-sub000/internal/models"
)

// Store is the document store over the five collections. Every operation
// holds the store mutex for its whole read-modify-write cycle, so callers
// never observe a partially applied change.
type Store struct {
	backend  Backend
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
	mu       sync.Mutex
}

func New(backend Backend, log *zap.Logger) *Store {
	return &Store{
		backend:  backend,
		log:      log,
		validate: validator.New(),
		now:      time.Now,
	}
}

func loadCollection[T any](b Backend, name string) ([]T, error) {
	data, err := b.ReadCollection(name)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []T{}, nil
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding collection %s: %w", name, err)
	}
	return records, nil
}

func saveCollection[T any](b Backend, name string, records []T) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding collection %s: %w", name, err)
	}
	return b.WriteCollection(name, data)
}

func (s *Store) checkInput(in any) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// GetSettings returns the settings record, seeding the defaults on first
// run before anything reads them.
func (s *Store) GetSettings() (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSettings()
}

// UpdateSettings merges the patch into the current settings; keys the
// patch leaves nil retain their prior value.
func (s *Store) UpdateSettings(patch models.SettingsPatch) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.getSettings()
	if err != nil {
		return models.Settings{}, err
	}

	if patch.IdleTimeoutMinutes != nil {
		settings.IdleTimeoutMinutes = *patch.IdleTimeoutMinutes
	}
	if patch.HourlyRate != nil {
		settings.HourlyRate = *patch.HourlyRate
	}
	if patch.ReportRangeDays != nil {
		settings.ReportRangeDays = *patch.ReportRangeDays
	}
	if patch.SyncEnabled != nil {
		settings.SyncEnabled = *patch.SyncEnabled
	}
	if patch.SyncToken != nil {
		settings.SyncToken = *patch.SyncToken
	}

	if err := s.saveSettings(settings); err != nil {
		return models.Settings{}, err
	}
	return settings, nil
}

func (s *Store) getSettings() (models.Settings, error) {
	data, err := s.backend.ReadCollection(colSettings)
	if err != nil {
		return models.Settings{}, err
	}
	if len(data) == 0 {
		settings := models.DefaultSettings()
		if err := s.saveSettings(settings); err != nil {
			return models.Settings{}, err
		}
		s.log.Info("seeded default settings")
		return settings, nil
	}

	var settings models.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return settings, nil
}

func (s *Store) saveSettings(settings models.Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return s.backend.WriteCollection(colSettings, data)
}
