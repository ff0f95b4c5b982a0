package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// User represents an account.
// Email is unique across all users. An empty PasswordHash means no password was ever set.
// ProfilePicture holds the storage key of the uploaded picture, empty if there is none.
type User struct {
	ID             uint   `gorm:"primaryKey"`
	Email          string `gorm:"size:254;uniqueIndex;not null"`
	FirstName      string `gorm:"size:100;not null"`
	LastName       string `gorm:"size:100;not null"`
	ProfilePicture string `gorm:"size:255"`
	PasswordHash   string `gorm:"size:128;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	NotificationSettings *NotificationSettings `gorm:"constraint:OnDelete:CASCADE;"`
	ThemeSettings        *ThemeSettings        `gorm:"constraint:OnDelete:CASCADE;"`
	PrivacySettings      *PrivacySettings      `gorm:"constraint:OnDelete:CASCADE;"`
}

func (c *Client) CreateUser(ctx context.Context, user *User) error {
	if err := c.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		log.Error("failed to create user", "error", err)
		return err
	}
	return nil
}

func (c *Client) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by ID", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by email", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

// GetOrCreateUser looks the user up by email and creates it from the given record if it does not exist.
// The returned bool reports whether the user was created.
func (c *Client) GetOrCreateUser(ctx context.Context, user *User) (*User, bool, error) {
	existing, err := c.GetUserByEmail(ctx, user.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	if err := c.CreateUser(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// UpdateUser persists all columns of an existing user row.
// A unique violation on email is reported as ErrDuplicateEmail and nothing is written.
// A user that was deleted in the meantime is reported as ErrNotFound and is not re-created.
func (c *Client) UpdateUser(ctx context.Context, user *User) error {
	if err := updateRow(ctx, c.db, user); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		if !errors.Is(err, ErrNotFound) {
			log.Error("failed to update user", "error", err)
		}
		return err
	}
	return nil
}

// updateRow writes every column of model to its existing row, keeping created_at.
// Unlike Save it never falls back to an insert.
func updateRow(ctx context.Context, db *gorm.DB, model any) error {
	res := db.WithContext(ctx).Model(model).Select("*").Omit(clause.Associations, "CreatedAt").Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser deletes the user together with all of its settings rows.
func (c *Client) DeleteUser(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		if err := tx.Select(clause.Associations).Delete(&user).Error; err != nil {
			log.Error("failed to delete user", "error", err)
			return err
		}
		return nil
	})
}
