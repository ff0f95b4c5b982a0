package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jon4hz/accountd/internal/avatar"
	"github.com/jon4hz/accountd/internal/database"
	"github.com/jon4hz/accountd/internal/storage"
	"github.com/samber/lo"
)

// profilePictureDir is the storage prefix of uploaded profile pictures.
const profilePictureDir = "profile_pictures"

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// PictureProcessor normalises uploaded profile pictures before they are stored.
type PictureProcessor interface {
	Process(data []byte, filename string) (*avatar.Picture, error)
}

// Upload is a file sent by the client.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Service implements the account and settings operations.
type Service struct {
	db        database.DB
	hasher    Hasher
	storage   storage.Storage
	pictures  PictureProcessor
	maxUpload int64
}

// NewService creates a new account Service.
// Uploads larger than maxUpload bytes are rejected.
func NewService(db database.DB, hasher Hasher, store storage.Storage, pictures PictureProcessor, maxUpload int64) *Service {
	return &Service{
		db:        db,
		hasher:    hasher,
		storage:   store,
		pictures:  pictures,
		maxUpload: maxUpload,
	}
}

func (s *Service) getUser(ctx context.Context, id uint) (*database.User, error) {
	user, err := s.db.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound()
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// saveUser persists user. A user deleted since it was loaded is reported as not found.
func (s *Service) saveUser(ctx context.Context, user *database.User) error {
	err := s.db.UpdateUser(ctx, user)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrDuplicateEmail):
		return errDuplicateEmail()
	case errors.Is(err, database.ErrNotFound):
		return ErrNotFound()
	default:
		return err
	}
}

// GetUser returns the user with the given id.
func (s *Service) GetUser(ctx context.Context, id uint) (*database.User, error) {
	return s.getUser(ctx, id)
}

// UpdateUser applies a partial update to the identity fields of a user.
// Validation happens before anything is written. An email owned by another
// user fails with duplicate_email and leaves the stored record untouched.
func (s *Service) UpdateUser(ctx context.Context, id uint, update UserUpdate) (*database.User, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Email != nil {
		update.Email = lo.ToPtr(strings.TrimSpace(*update.Email))
	}
	if err := validateUserUpdate(&update); err != nil {
		return nil, err
	}

	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}

	if err := s.saveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	log.Info("updated user", "user_id", user.ID)
	return user, nil
}

// ChangePassword verifies the current password of a user and replaces it.
func (s *Service) ChangePassword(ctx context.Context, id uint, req PasswordChange) error {
	if err := validatePasswordChange(&req); err != nil {
		return err
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	if user.PasswordHash == "" {
		return errNoPassword()
	}
	if !s.hasher.Verify(user.PasswordHash, req.CurrentPassword) {
		log.Warn("password change with incorrect current password", "user_id", user.ID)
		return errIncorrectCurrentPassword()
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.saveUser(ctx, user); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}

	log.Info("changed password", "user_id", user.ID)
	return nil
}

// UpdateProfilePicture stores a new profile picture for the user and deletes the previous one.
// A nil upload fails with missing_file.
func (s *Service) UpdateProfilePicture(ctx context.Context, id uint, upload *Upload) (*database.User, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if upload == nil || upload.Content == nil {
		return nil, errMissingFile()
	}
	if upload.Size > s.maxUpload {
		return nil, ErrFileTooLarge(s.maxUpload)
	}

	// the declared size is not trusted
	data, err := io.ReadAll(io.LimitReader(upload.Content, s.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxUpload {
		return nil, ErrFileTooLarge(s.maxUpload)
	}

	picture, err := s.pictures.Process(data, upload.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to process picture: %w", err)
	}

	key := profilePictureDir + "/" + uuid.NewString() + picture.Ext
	if err := s.storage.Save(ctx, key, picture.Data, picture.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store picture: %w", err)
	}

	previous := user.ProfilePicture
	user.ProfilePicture = key
	if err := s.saveUser(ctx, user); err != nil {
		if derr := s.storage.Delete(ctx, key); derr != nil {
			log.Warn("failed to remove orphaned picture", "key", key, "error", derr)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if previous != "" && previous != key {
		if err := s.storage.Delete(ctx, previous); err != nil {
			log.Warn("failed to delete previous picture", "key", previous, "error", err)
		}
	}

	log.Info("updated profile picture", "user_id", user.ID, "key", key, "size", humanize.Bytes(uint64(len(picture.Data))))
	return user, nil
}

// PictureURL returns the public URL of the profile picture of user, or "" if there is none.
func (s *Service) PictureURL(user *database.User) string {
	if user == nil || user.ProfilePicture == "" {
		return ""
	}
	return s.storage.URL(user.ProfilePicture)
}
