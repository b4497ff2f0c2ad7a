package service

import (
	"context"
	"fmt"

	"github.com/latihanku/latihanku-backend/internal/model"
)

// SettingAdminStore reads and writes runtime settings.
type SettingAdminStore interface {
	GetAll(ctx context.Context) ([]model.AppSetting, error)
	Upsert(ctx context.Context, key, value string) error
}

// SettingService manages global runtime settings, including the block
// enable flags the violation subsystem consults.
type SettingService struct {
	settings SettingAdminStore
}

// NewSettingService creates a new SettingService.
func NewSettingService(settings SettingAdminStore) *SettingService {
	return &SettingService{settings: settings}
}

// GetAllSettings returns every setting row.
func (s *SettingService) GetAllSettings(ctx context.Context) ([]model.AppSetting, error) {
	return s.settings.GetAll(ctx)
}

// UpdateSettings upserts the given key-value pairs.
func (s *SettingService) UpdateSettings(ctx context.Context, settings map[string]string) error {
	for key, value := range settings {
		if err := s.settings.Upsert(ctx, key, value); err != nil {
			return fmt.Errorf("upsert setting %s: %w", key, err)
		}
	}
	return nil
}
