package store

import (
	"context"

	"github.com/vrsandeep/vnshelf/internal/models"
)

// GetSettings returns the stored settings, falling back to the defaults.
func (s *Store) GetSettings(ctx context.Context) (*models.Settings, error) {
	settings := models.DefaultSettings()
	if _, err := s.getJSON(ctx, settingsKey, settings); err != nil {
		return nil, err
	}
	if settings.TagsMode == "" {
		settings.TagsMode = models.TagsModeVNDB
	}
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings *models.Settings) error {
	return s.putJSON(ctx, settingsKey, settings)
}

// GetIndexStatus returns the status of the last index job, or an idle one.
func (s *Store) GetIndexStatus(ctx context.Context) (*models.IndexStatus, error) {
	status := &models.IndexStatus{Status: models.IndexStatusIdle}
	if _, err := s.getJSON(ctx, indexStatusKey, status); err != nil {
		return nil, err
	}
	if status.Failed == nil {
		status.Failed = []string{}
	}
	return status, nil
}

func (s *Store) SaveIndexStatus(ctx context.Context, status *models.IndexStatus) error {
	return s.putJSON(ctx, indexStatusKey, status)
}
