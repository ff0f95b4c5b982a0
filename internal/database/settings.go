package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

type Skin string

const (
	SkinMaterial Skin = "material"
	SkinMini     Skin = "mini"
	SkinFlat     Skin = "flat"
	SkinCompact  Skin = "compact"
	SkinContrast Skin = "contrast"
	SkinWillow   Skin = "willow"
)

// Skins lists every valid Skin.
var Skins = []Skin{SkinMaterial, SkinMini, SkinFlat, SkinCompact, SkinContrast, SkinWillow}

type FontFamily string

const (
	FontFamilySystem FontFamily = "system"
	FontFamilySans   FontFamily = "sans"
	FontFamilySerif  FontFamily = "serif"
	FontFamilyMono   FontFamily = "mono"
)

// FontFamilies lists every valid FontFamily.
var FontFamilies = []FontFamily{FontFamilySystem, FontFamilySans, FontFamilySerif, FontFamilyMono}

type ProfileVisibility string

const (
	ProfileVisibilityPublic  ProfileVisibility = "public"
	ProfileVisibilityFriends ProfileVisibility = "friends"
	ProfileVisibilityPrivate ProfileVisibility = "private"
)

// ProfileVisibilities lists every valid ProfileVisibility.
var ProfileVisibilities = []ProfileVisibility{ProfileVisibilityPublic, ProfileVisibilityFriends, ProfileVisibilityPrivate}

// DefaultPrimaryColor is the primary color of a fresh theme.
const DefaultPrimaryColor = "#4b7bec"

// NotificationSettings holds the notification preferences of a user.
type NotificationSettings struct {
	ID             uint `gorm:"primaryKey"`
	UserID         uint `gorm:"uniqueIndex;not null"`
	PushMessages   bool `gorm:"not null"`
	PushComments   bool `gorm:"not null"`
	PushReminders  bool `gorm:"not null"`
	EmailNews      bool `gorm:"not null"`
	EmailMessages  bool `gorm:"not null"`
	EmailReminders bool `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ThemeSettings holds the appearance preferences of a user.
type ThemeSettings struct {
	ID           uint       `gorm:"primaryKey"`
	UserID       uint       `gorm:"uniqueIndex;not null"`
	Skin         Skin       `gorm:"size:20;not null"`
	PrimaryColor string     `gorm:"size:7;not null"`
	FontFamily   FontFamily `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PrivacySettings holds the privacy preferences of a user.
type PrivacySettings struct {
	ID                uint              `gorm:"primaryKey"`
	UserID            uint              `gorm:"uniqueIndex;not null"`
	ProfileVisibility ProfileVisibility `gorm:"size:20;not null"`
	ShowEmail         bool              `gorm:"not null"`
	DataSharing       bool              `gorm:"not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DefaultNotificationSettings returns the notification settings every user starts with.
func DefaultNotificationSettings(userID uint) NotificationSettings {
	return NotificationSettings{
		UserID:         userID,
		PushMessages:   true,
		PushComments:   true,
		PushReminders:  true,
		EmailNews:      true,
		EmailMessages:  true,
		EmailReminders: true,
	}
}

// DefaultThemeSettings returns the theme settings every user starts with.
func DefaultThemeSettings(userID uint) ThemeSettings {
	return ThemeSettings{
		UserID:       userID,
		Skin:         SkinMaterial,
		PrimaryColor: DefaultPrimaryColor,
		FontFamily:   FontFamilySystem,
	}
}

// DefaultPrivacySettings returns the privacy settings every user starts with.
// Data sharing is opt-in.
func DefaultPrivacySettings(userID uint) PrivacySettings {
	return PrivacySettings{
		UserID:            userID,
		ProfileVisibility: ProfileVisibilityPublic,
		ShowEmail:         false,
		DataSharing:       false,
	}
}

// ensureSettings returns the settings row of the user, creating it from defaults if it does not exist yet.
// The returned bool reports whether the row was created.
func ensureSettings[T any](ctx context.Context, db *gorm.DB, userID uint, defaults func(uint) T) (*T, bool, error) {
	var settings T
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if err == nil {
		return &settings, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("failed to get settings", "user_id", userID, "error", err)
		return nil, false, err
	}

	settings = defaults(userID)
	if err := db.WithContext(ctx).Create(&settings).Error; err != nil {
		if !isUniqueViolation(err) {
			log.Error("failed to create default settings", "user_id", userID, "error", err)
			return nil, false, err
		}
		// a concurrent request created the row first
		var existing T
		if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; err != nil {
			return nil, false, err
		}
		return &existing, false, nil
	}
	return &settings, true, nil
}

func (c *Client) EnsureNotificationSettings(ctx context.Context, userID uint) (*NotificationSettings, bool, error) {
	return ensureSettings(ctx, c.db, userID, DefaultNotificationSettings)
}

func (c *Client) UpdateNotificationSettings(ctx context.Context, settings *NotificationSettings) error {
	if err := updateRow(ctx, c.db, settings); err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Error("failed to update notification settings", "error", err)
		}
		return err
	}
	return nil
}

func (c *Client) EnsureThemeSettings(ctx context.Context, userID uint) (*ThemeSettings, bool, error) {
	return ensureSettings(ctx, c.db, userID, DefaultThemeSettings)
}

func (c *Client) UpdateThemeSettings(ctx context.Context, settings *ThemeSettings) error {
	if err := updateRow(ctx, c.db, settings); err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Error("failed to update theme settings", "error", err)
		}
		return err
	}
	return nil
}

func (c *Client) EnsurePrivacySettings(ctx context.Context, userID uint) (*PrivacySettings, bool, error) {
	return ensureSettings(ctx, c.db, userID, DefaultPrivacySettings)
}

func (c *Client) UpdatePrivacySettings(ctx context.Context, settings *PrivacySettings) error {
	if err := updateRow(ctx, c.db, settings); err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Error("failed to update privacy settings", "error", err)
		}
		return err
	}
	return nil
}
