package account

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jon4hz/accountd/internal/avatar"
	"github.com/jon4hz/accountd/internal/database"
	"github.com/jon4hz/accountd/internal/database/mock"
	"github.com/jon4hz/accountd/internal/password"
	"github.com/jon4hz/accountd/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type ServiceTestSuite struct {
	suite.Suite
	db       *mock.MockDB
	hasher   *password.Hasher
	mediaDir string
	svc      *Service
	ctx      context.Context
	user     *database.User
}

func (s *ServiceTestSuite) SetupTest() {
	s.db = mock.NewMockDB()
	s.hasher = password.New(bcrypt.MinCost)
	s.mediaDir = s.T().TempDir()
	store, err := storage.NewLocal(s.mediaDir, "/media")
	s.Require().NoError(err)

	s.svc = NewService(s.db, s.hasher, store, avatar.NewProcessor(64, 64, 85), 1024)
	s.ctx = context.Background()

	s.user = &database.User{Email: "demo@example.com", FirstName: "Demo", LastName: "User"}
	s.Require().NoError(s.db.CreateUser(s.ctx, s.user))
}

func (s *ServiceTestSuite) requireCode(err error, code Code) *Error {
	s.Require().Error(err)
	var e *Error
	s.Require().True(errors.As(err, &e), "expected *account.Error, got %T: %v", err, err)
	s.Equal(code, e.Code)
	return e
}

func (s *ServiceTestSuite) withPassword(pw string) {
	hash, err := s.hasher.Hash(pw)
	s.Require().NoError(err)
	s.user.PasswordHash = hash
	s.Require().NoError(s.db.UpdateUser(s.ctx, s.user))
}

func (s *ServiceTestSuite) TestGetUser_Idempotent() {
	first, err := s.svc.GetUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	second, err := s.svc.GetUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *ServiceTestSuite) TestGetUser_NotFound() {
	_, err := s.svc.GetUser(s.ctx, 999)
	e := s.requireCode(err, CodeNotFound)
	s.Equal(404, e.Status)
}

func (s *ServiceTestSuite) TestGetUser_StoreError() {
	s.db.GetUserByIDError = errors.New("connection reset")
	_, err := s.svc.GetUser(s.ctx, s.user.ID)
	s.Require().Error(err)
	var e *Error
	s.False(errors.As(err, &e))
}

func (s *ServiceTestSuite) TestUpdateUser_Partial() {
	user, err := s.svc.UpdateUser(s.ctx, s.user.ID, UserUpdate{FirstName: strPtr("Jane")})
	s.Require().NoError(err)
	s.Equal("Jane", user.FirstName)
	s.Equal("User", user.LastName)
	s.Equal("demo@example.com", user.Email)
}

func (s *ServiceTestSuite) TestUpdateUser_TrimsEmail() {
	user, err := s.svc.UpdateUser(s.ctx, s.user.ID, UserUpdate{Email: strPtr("  new@example.com ")})
	s.Require().NoError(err)
	s.Equal("new@example.com", user.Email)
}

func (s *ServiceTestSuite) TestUpdateUser_InvalidEmailMutatesNothing() {
	_, err := s.svc.UpdateUser(s.ctx, s.user.ID, UserUpdate{
		Email:     strPtr("bad-email"),
		FirstName: strPtr("Changed"),
	})
	e := s.requireCode(err, CodeInvalidEmail)
	s.Equal([]string{"email"}, e.Fields)

	stored, err := s.db.GetUserByID(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal("demo@example.com", stored.Email)
	s.Equal("Demo", stored.FirstName)
}

func (s *ServiceTestSuite) TestUpdateUser_EmptyEmailIsInvalid() {
	_, err := s.svc.UpdateUser(s.ctx, s.user.ID, UserUpdate{Email: strPtr("")})
	s.requireCode(err, CodeInvalidEmail)
}

func (s *ServiceTestSuite) TestUpdateUser_NameTooLong() {
	_, err := s.svc.UpdateUser(s.ctx, s.user.ID, UserUpdate{LastName: strPtr(strings.Repeat("x", 101))})
	e := s.requireCode(err, CodeInvalidValue)
	s.Equal([]string{"last_name"}, e.Fields)
}

func (s *ServiceTestSuite) TestUpdateUser_DuplicateEmail() {
	other := &database.User{Email: "other@example.com"}
	s.Require().NoError(s.db.CreateUser(s.ctx, other))

	_, err := s.svc.UpdateUser(s.ctx, s.user.ID, UserUpdate{Email: strPtr("other@example.com"), FirstName: strPtr("X")})
	s.requireCode(err, CodeDuplicateEmail)

	stored, err := s.db.GetUserByID(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal("demo@example.com", stored.Email)
	s.Equal("Demo", stored.FirstName)

	storedOther, err := s.db.GetUserByID(s.ctx, other.ID)
	s.Require().NoError(err)
	s.Equal("other@example.com", storedOther.Email)
}

func (s *ServiceTestSuite) TestUpdateUser_SameEmailIsNotDuplicate() {
	_, err := s.svc.UpdateUser(s.ctx, s.user.ID, UserUpdate{Email: strPtr("demo@example.com")})
	s.NoError(err)
}

func (s *ServiceTestSuite) TestUpdateUser_NotFoundBeforeValidation() {
	_, err := s.svc.UpdateUser(s.ctx, 999, UserUpdate{Email: strPtr("bad-email")})
	s.requireCode(err, CodeNotFound)
}

func (s *ServiceTestSuite) TestChangePassword_Success() {
	s.withPassword("oldpass123")

	err := s.svc.ChangePassword(s.ctx, s.user.ID, PasswordChange{
		CurrentPassword: "oldpass123",
		NewPassword:     "newpass123",
		ConfirmPassword: "newpass123",
	})
	s.Require().NoError(err)

	stored, err := s.db.GetUserByID(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.True(s.hasher.Verify(stored.PasswordHash, "newpass123"))
	s.False(s.hasher.Verify(stored.PasswordHash, "oldpass123"))
}

func (s *ServiceTestSuite) TestChangePassword_Mismatch() {
	s.withPassword("oldpass123")
	before := s.user.PasswordHash

	err := s.svc.ChangePassword(s.ctx, s.user.ID, PasswordChange{
		CurrentPassword: "oldpass123",
		NewPassword:     "onepass",
		ConfirmPassword: "otherpass",
	})
	s.requireCode(err, CodePasswordMismatch)

	stored, err := s.db.GetUserByID(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(before, stored.PasswordHash)
}

func (s *ServiceTestSuite) TestChangePassword_MissingFields() {
	err := s.svc.ChangePassword(s.ctx, s.user.ID, PasswordChange{CurrentPassword: "oldpass123"})
	e := s.requireCode(err, CodeMissingFields)
	s.ElementsMatch([]string{"new_password", "confirm_password"}, e.Fields)
}

func (s *ServiceTestSuite) TestChangePassword_ValidationBeforeLookup() {
	err := s.svc.ChangePassword(s.ctx, 999, PasswordChange{})
	s.requireCode(err, CodeMissingFields)

	err = s.svc.ChangePassword(s.ctx, 999, PasswordChange{CurrentPassword: "a", NewPassword: "b", ConfirmPassword: "c"})
	s.requireCode(err, CodePasswordMismatch)

	err = s.svc.ChangePassword(s.ctx, 999, PasswordChange{CurrentPassword: "a", NewPassword: "b", ConfirmPassword: "b"})
	s.requireCode(err, CodeNotFound)
}

func (s *ServiceTestSuite) TestChangePassword_NoPassword() {
	err := s.svc.ChangePassword(s.ctx, s.user.ID, PasswordChange{
		CurrentPassword: "whatever",
		NewPassword:     "newpass123",
		ConfirmPassword: "newpass123",
	})
	s.requireCode(err, CodeNoPassword)
}

func (s *ServiceTestSuite) TestChangePassword_IncorrectCurrent() {
	s.withPassword("oldpass123")

	err := s.svc.ChangePassword(s.ctx, s.user.ID, PasswordChange{
		CurrentPassword: "wrong",
		NewPassword:     "newpass123",
		ConfirmPassword: "newpass123",
	})
	s.requireCode(err, CodeIncorrectCurrentPassword)

	stored, err := s.db.GetUserByID(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.True(s.hasher.Verify(stored.PasswordHash, "oldpass123"))
}

func (s *ServiceTestSuite) TestUpdateProfilePicture() {
	var buf bytes.Buffer
	s.Require().NoError(png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 128, 32))))
	data := buf.Bytes()

	user, err := s.svc.UpdateProfilePicture(s.ctx, s.user.ID, &Upload{
		Filename: "me.png",
		Size:     int64(len(data)),
		Content:  bytes.NewReader(data),
	})
	s.Require().NoError(err)
	s.True(strings.HasPrefix(user.ProfilePicture, "profile_pictures/"))
	s.True(strings.HasSuffix(user.ProfilePicture, ".png"))
	s.Equal("/media/"+user.ProfilePicture, s.svc.PictureURL(user))

	stored, err := os.ReadFile(filepath.Join(s.mediaDir, filepath.FromSlash(user.ProfilePicture)))
	s.Require().NoError(err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(stored))
	s.Require().NoError(err)
	s.Equal(64, cfg.Width)
	s.Equal(16, cfg.Height)

	// a second upload replaces and removes the first picture
	first := user.ProfilePicture
	user, err = s.svc.UpdateProfilePicture(s.ctx, s.user.ID, &Upload{
		Filename: "notes.txt",
		Size:     5,
		Content:  strings.NewReader("hello"),
	})
	s.Require().NoError(err)
	s.NotEqual(first, user.ProfilePicture)
	s.True(strings.HasSuffix(user.ProfilePicture, ".bin"))

	_, err = os.Stat(filepath.Join(s.mediaDir, filepath.FromSlash(first)))
	s.True(os.IsNotExist(err))
}

func (s *ServiceTestSuite) TestUpdateProfilePicture_Errors() {
	_, err := s.svc.UpdateProfilePicture(s.ctx, 999, nil)
	s.requireCode(err, CodeNotFound)

	_, err = s.svc.UpdateProfilePicture(s.ctx, s.user.ID, nil)
	s.requireCode(err, CodeMissingFile)

	_, err = s.svc.UpdateProfilePicture(s.ctx, s.user.ID, &Upload{Filename: "big.bin", Size: 2048, Content: bytes.NewReader(make([]byte, 2048))})
	s.requireCode(err, CodeFileTooLarge)

	// lying about the size does not help
	_, err = s.svc.UpdateProfilePicture(s.ctx, s.user.ID, &Upload{Filename: "big.bin", Size: 1, Content: bytes.NewReader(make([]byte, 2048))})
	s.requireCode(err, CodeFileTooLarge)

	stored, err := s.db.GetUserByID(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Empty(stored.ProfilePicture)
}

func (s *ServiceTestSuite) TestUpdateProfilePicture_StoreFailureRemovesUpload() {
	s.db.UpdateUserError = errors.New("disk full")

	_, err := s.svc.UpdateProfilePicture(s.ctx, s.user.ID, &Upload{Filename: "a.txt", Size: 1, Content: strings.NewReader("a")})
	s.Require().Error(err)

	entries, err := os.ReadDir(filepath.Join(s.mediaDir, "profile_pictures"))
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ServiceTestSuite) TestPictureURL_Empty() {
	s.Empty(s.svc.PictureURL(s.user))
	s.Empty(s.svc.PictureURL(nil))
}

func (s *ServiceTestSuite) TestGetNotificationSettings_CreatesDefaultsOnce() {
	first, err := s.svc.GetNotificationSettings(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(database.DefaultNotificationSettings(s.user.ID), withoutID(*first))

	second, err := s.svc.GetNotificationSettings(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(1, s.db.SettingsCreated)
}

func (s *ServiceTestSuite) TestSettings_NotFoundBeforeDefaulting() {
	_, err := s.svc.GetNotificationSettings(s.ctx, 999)
	s.requireCode(err, CodeNotFound)
	_, err = s.svc.UpdateThemeSettings(s.ctx, 999, ThemeUpdate{})
	s.requireCode(err, CodeNotFound)
	_, err = s.svc.GetPrivacySettings(s.ctx, 999)
	s.requireCode(err, CodeNotFound)
	s.Zero(s.db.SettingsCreated)
}

func (s *ServiceTestSuite) TestUpdateNotificationSettings_Partial() {
	settings, err := s.svc.UpdateNotificationSettings(s.ctx, s.user.ID, NotificationUpdate{
		PushMessages: boolPtr(false),
		EmailNews:    boolPtr(false),
	})
	s.Require().NoError(err)
	s.False(settings.PushMessages)
	s.False(settings.EmailNews)
	s.True(settings.PushComments)
	s.True(settings.EmailReminders)

	again, err := s.svc.GetNotificationSettings(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(settings, again)
}

func (s *ServiceTestSuite) TestUpdateThemeSettings() {
	var update ThemeUpdate
	s.Require().NoError(update.UnmarshalJSON([]byte(`{"skin":"neon","primary_color":"#000000","font_family":"mono"}`)))

	settings, err := s.svc.UpdateThemeSettings(s.ctx, s.user.ID, update)
	s.Require().NoError(err)
	s.Equal(database.SkinMaterial, settings.Skin)
	s.Equal("#000000", settings.PrimaryColor)
	s.Equal(database.FontFamilyMono, settings.FontFamily)
}

func (s *ServiceTestSuite) TestUpdateThemeSettings_ColorTooLong() {
	_, err := s.svc.UpdateThemeSettings(s.ctx, s.user.ID, ThemeUpdate{PrimaryColor: strPtr("#12345678")})
	e := s.requireCode(err, CodeInvalidValue)
	s.Equal([]string{"primary_color"}, e.Fields)

	settings, err := s.svc.GetThemeSettings(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(database.DefaultPrimaryColor, settings.PrimaryColor)
}

func (s *ServiceTestSuite) TestUpdatePrivacySettings_KeepsDataSharing() {
	_, err := s.svc.UpdatePrivacySettings(s.ctx, s.user.ID, PrivacyUpdate{DataSharing: boolPtr(true)})
	s.Require().NoError(err)

	visibility := database.ProfileVisibilityPrivate
	settings, err := s.svc.UpdatePrivacySettings(s.ctx, s.user.ID, PrivacyUpdate{
		ProfileVisibility: &visibility,
		ShowEmail:         boolPtr(true),
	})
	s.Require().NoError(err)
	s.Equal(database.ProfileVisibilityPrivate, settings.ProfileVisibility)
	s.True(settings.ShowEmail)
	s.True(settings.DataSharing)
}

func (s *ServiceTestSuite) TestUpdateSettings_StoreErrors() {
	s.db.EnsureSettingsError = errors.New("boom")
	_, err := s.svc.GetThemeSettings(s.ctx, s.user.ID)
	s.Require().Error(err)

	s.db.EnsureSettingsError = nil
	s.db.UpdateSettingsError = errors.New("boom")
	_, err = s.svc.UpdatePrivacySettings(s.ctx, s.user.ID, PrivacyUpdate{ShowEmail: boolPtr(true)})
	s.Require().Error(err)
	var e *Error
	s.False(errors.As(err, &e))
}

func (s *ServiceTestSuite) TestWrites_UserDeletedMeanwhile() {
	s.withPassword("oldpass123")
	s.db.UpdateUserError = database.ErrNotFound

	_, err := s.svc.UpdateUser(s.ctx, s.user.ID, UserUpdate{FirstName: strPtr("Jane")})
	s.requireCode(err, CodeNotFound)

	err = s.svc.ChangePassword(s.ctx, s.user.ID, PasswordChange{
		CurrentPassword: "oldpass123",
		NewPassword:     "newpass123",
		ConfirmPassword: "newpass123",
	})
	s.requireCode(err, CodeNotFound)

	_, err = s.svc.UpdateProfilePicture(s.ctx, s.user.ID, &Upload{Filename: "a.png", Size: 1, Content: strings.NewReader("a")})
	s.requireCode(err, CodeNotFound)

	s.db.UpdateUserError = nil
	s.db.UpdateSettingsError = database.ErrNotFound
	_, err = s.svc.UpdateThemeSettings(s.ctx, s.user.ID, ThemeUpdate{})
	s.requireCode(err, CodeNotFound)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "not_found: user not found", ErrNotFound().Error())
	assert.Equal(t, "invalid_email: enter a valid email address (email)", errInvalidEmail().Error())
}

func TestErrInvalidJSON_KeepsDomainError(t *testing.T) {
	inner := errInvalidFields("first_name")
	require.Same(t, inner, ErrInvalidJSON(inner))
	assert.Equal(t, CodeInvalidJSON, ErrInvalidJSON(errors.New("EOF")).Code)
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func withoutID(n database.NotificationSettings) database.NotificationSettings {
	n.ID = 0
	return n
}
