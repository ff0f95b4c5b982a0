package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/accountd/internal/database"
)

// ensureSettings checks that the user exists and returns its settings row of one group,
// creating the row from defaults on first access.
func ensureSettings[T any](
	ctx context.Context,
	s *Service,
	userID uint,
	group string,
	ensure func(context.Context, uint) (*T, bool, error),
) (*T, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	settings, created, err := ensure(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s settings: %w", group, err)
	}
	if created {
		log.Debug("created default settings", "group", group, "user_id", userID)
	}
	return settings, nil
}

// updateSettings applies a partial update to one settings group after materialising its defaults.
func updateSettings[T any](
	ctx context.Context,
	s *Service,
	userID uint,
	group string,
	ensure func(context.Context, uint) (*T, bool, error),
	apply func(*T) error,
	save func(context.Context, *T) error,
) (*T, error) {
	settings, err := ensureSettings(ctx, s, userID, group, ensure)
	if err != nil {
		return nil, err
	}
	if err := apply(settings); err != nil {
		return nil, err
	}
	if err := save(ctx, settings); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound()
		}
		return nil, fmt.Errorf("failed to update %s settings: %w", group, err)
	}
	log.Info("updated settings", "group", group, "user_id", userID)
	return settings, nil
}

// GetNotificationSettings returns the notification settings of a user.
func (s *Service) GetNotificationSettings(ctx context.Context, userID uint) (*database.NotificationSettings, error) {
	return ensureSettings(ctx, s, userID, "notification", s.db.EnsureNotificationSettings)
}

// UpdateNotificationSettings applies a partial update to the notification settings of a user.
func (s *Service) UpdateNotificationSettings(ctx context.Context, userID uint, update NotificationUpdate) (*database.NotificationSettings, error) {
	return updateSettings(ctx, s, userID, "notification",
		s.db.EnsureNotificationSettings, update.apply, s.db.UpdateNotificationSettings)
}

// GetThemeSettings returns the theme settings of a user.
func (s *Service) GetThemeSettings(ctx context.Context, userID uint) (*database.ThemeSettings, error) {
	return ensureSettings(ctx, s, userID, "theme", s.db.EnsureThemeSettings)
}

// UpdateThemeSettings applies a partial update to the theme settings of a user.
// Unknown enum values were already dropped while decoding.
func (s *Service) UpdateThemeSettings(ctx context.Context, userID uint, update ThemeUpdate) (*database.ThemeSettings, error) {
	return updateSettings(ctx, s, userID, "theme",
		s.db.EnsureThemeSettings, update.apply, s.db.UpdateThemeSettings)
}

// GetPrivacySettings returns the privacy settings of a user.
func (s *Service) GetPrivacySettings(ctx context.Context, userID uint) (*database.PrivacySettings, error) {
	return ensureSettings(ctx, s, userID, "privacy", s.db.EnsurePrivacySettings)
}

// UpdatePrivacySettings applies a partial update to the privacy settings of a user.
func (s *Service) UpdatePrivacySettings(ctx context.Context, userID uint, update PrivacyUpdate) (*database.PrivacySettings, error) {
	return updateSettings(ctx, s, userID, "privacy",
		s.db.EnsurePrivacySettings, update.apply, s.db.UpdatePrivacySettings)
}
