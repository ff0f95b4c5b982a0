package mock

import (
	"context"
	"sync"
	"time"

	"github.com/jon4hz/accountd/internal/database"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is an in-memory implementation of database.DB for testing.
// Records are stored by value, so callers never share memory with the store.
type MockDB struct {
	mu sync.RWMutex

	users      map[uint]database.User
	nextUserID uint

	notifications map[uint]database.NotificationSettings
	themes        map[uint]database.ThemeSettings
	privacy       map[uint]database.PrivacySettings
	nextSettingID uint

	// Error simulation
	CreateUserError     error
	GetUserByIDError    error
	UpdateUserError     error
	DeleteUserError     error
	EnsureSettingsError error
	UpdateSettingsError error

	// Call counters
	SettingsCreated int
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	m := &MockDB{}
	m.Reset()
	return m
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[uint]database.User)
	m.nextUserID = 1
	m.notifications = make(map[uint]database.NotificationSettings)
	m.themes = make(map[uint]database.ThemeSettings)
	m.privacy = make(map[uint]database.PrivacySettings)
	m.nextSettingID = 1

	m.CreateUserError = nil
	m.GetUserByIDError = nil
	m.UpdateUserError = nil
	m.DeleteUserError = nil
	m.EnsureSettingsError = nil
	m.UpdateSettingsError = nil
	m.SettingsCreated = 0
}

// User operations

func (m *MockDB) emailTaken(email string, exceptID uint) bool {
	for id, u := range m.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (m *MockDB) CreateUser(ctx context.Context, user *database.User) error {
	if m.CreateUserError != nil {
		return m.CreateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(user.Email, 0) {
		return database.ErrDuplicateEmail
	}

	now := time.Now()
	user.ID = m.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	m.nextUserID++
	m.users[user.ID] = *user
	return nil
}

func (m *MockDB) GetUserByID(ctx context.Context, id uint) (*database.User, error) {
	if m.GetUserByIDError != nil {
		return nil, m.GetUserByIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &user, nil
}

func (m *MockDB) GetUserByEmail(ctx context.Context, email string) (*database.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *MockDB) GetOrCreateUser(ctx context.Context, user *database.User) (*database.User, bool, error) {
	if existing, err := m.GetUserByEmail(ctx, user.Email); err == nil {
		return existing, false, nil
	}
	if err := m.CreateUser(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (m *MockDB) UpdateUser(ctx context.Context, user *database.User) error {
	if m.UpdateUserError != nil {
		return m.UpdateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; !ok {
		return database.ErrNotFound
	}
	if m.emailTaken(user.Email, user.ID) {
		return database.ErrDuplicateEmail
	}

	user.UpdatedAt = time.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *MockDB) DeleteUser(ctx context.Context, id uint) error {
	if m.DeleteUserError != nil {
		return m.DeleteUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.users, id)
	delete(m.notifications, id)
	delete(m.themes, id)
	delete(m.privacy, id)
	return nil
}

// Settings operations

func ensure[T any](m *MockDB, rows map[uint]T, userID uint, defaults func(uint) T, setID func(*T, uint)) (*T, bool, error) {
	if m.EnsureSettingsError != nil {
		return nil, false, m.EnsureSettingsError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if row, ok := rows[userID]; ok {
		return &row, false, nil
	}
	row := defaults(userID)
	setID(&row, m.nextSettingID)
	m.nextSettingID++
	m.SettingsCreated++
	rows[userID] = row
	return &row, true, nil
}

func store[T any](m *MockDB, rows map[uint]T, userID uint, row T) error {
	if m.UpdateSettingsError != nil {
		return m.UpdateSettingsError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := rows[userID]; !ok {
		return database.ErrNotFound
	}
	rows[userID] = row
	return nil
}

func (m *MockDB) EnsureNotificationSettings(ctx context.Context, userID uint) (*database.NotificationSettings, bool, error) {
	return ensure(m, m.notifications, userID, database.DefaultNotificationSettings,
		func(s *database.NotificationSettings, id uint) { s.ID = id })
}

func (m *MockDB) UpdateNotificationSettings(ctx context.Context, settings *database.NotificationSettings) error {
	return store(m, m.notifications, settings.UserID, *settings)
}

func (m *MockDB) EnsureThemeSettings(ctx context.Context, userID uint) (*database.ThemeSettings, bool, error) {
	return ensure(m, m.themes, userID, database.DefaultThemeSettings,
		func(s *database.ThemeSettings, id uint) { s.ID = id })
}

func (m *MockDB) UpdateThemeSettings(ctx context.Context, settings *database.ThemeSettings) error {
	return store(m, m.themes, settings.UserID, *settings)
}

func (m *MockDB) EnsurePrivacySettings(ctx context.Context, userID uint) (*database.PrivacySettings, bool, error) {
	return ensure(m, m.privacy, userID, database.DefaultPrivacySettings,
		func(s *database.PrivacySettings, id uint) { s.ID = id })
}

func (m *MockDB) UpdatePrivacySettings(ctx context.Context, settings *database.PrivacySettings) error {
	return store(m, m.privacy, settings.UserID, *settings)
}

func (m *MockDB) Close() error {
	return nil
}
