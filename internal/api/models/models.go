package models

// User is the canonical representation of an account.
type User struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// ProfilePicture is the URL of the uploaded picture, null if there is none.
	ProfilePicture *string `json:"profile_picture"`
	// GravatarURL is only set if Gravatar support is enabled.
	GravatarURL string `json:"gravatar_url,omitempty"`
}

type NotificationSettings struct {
	PushMessages   bool `json:"push_messages"`
	PushComments   bool `json:"push_comments"`
	PushReminders  bool `json:"push_reminders"`
	EmailNews      bool `json:"email_news"`
	EmailMessages  bool `json:"email_messages"`
	EmailReminders bool `json:"email_reminders"`
}

type ThemeSettings struct {
	Skin         string `json:"skin"`
	PrimaryColor string `json:"primary_color"`
	FontFamily   string `json:"font_family"`
}

type PrivacySettings struct {
	ProfileVisibility string `json:"profile_visibility"`
	ShowEmail         bool   `json:"show_email"`
	DataSharing       bool   `json:"data_sharing"`
}

// PasswordChanged is returned after a successful password change.
type PasswordChanged struct {
	ID      uint   `json:"id"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message string   `json:"message"`
	Code    string   `json:"code"`
	Fields  []string `json:"fields,omitempty"`
}
