package models

import (
	"github.com/jon4hz/accountd/internal/database"
	"github.com/samber/lo"
)

// ToUser converts a database.User to its canonical representation.
// pictureURL and gravatarURL are left out when empty.
func ToUser(u *database.User, pictureURL, gravatarURL string) User {
	return User{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: lo.EmptyableToPtr(pictureURL),
		GravatarURL:    gravatarURL,
	}
}

// ToNotificationSettings converts database.NotificationSettings to its canonical representation.
func ToNotificationSettings(s *database.NotificationSettings) NotificationSettings {
	return NotificationSettings{
		PushMessages:   s.PushMessages,
		PushComments:   s.PushComments,
		PushReminders:  s.PushReminders,
		EmailNews:      s.EmailNews,
		EmailMessages:  s.EmailMessages,
		EmailReminders: s.EmailReminders,
	}
}

// ToThemeSettings converts database.ThemeSettings to its canonical representation.
func ToThemeSettings(s *database.ThemeSettings) ThemeSettings {
	return ThemeSettings{
		Skin:         string(s.Skin),
		PrimaryColor: s.PrimaryColor,
		FontFamily:   string(s.FontFamily),
	}
}

// ToPrivacySettings converts database.PrivacySettings to its canonical representation.
func ToPrivacySettings(s *database.PrivacySettings) PrivacySettings {
	return PrivacySettings{
		ProfileVisibility: string(s.ProfileVisibility),
		ShowEmail:         s.ShowEmail,
		DataSharing:       s.DataSharing,
	}
}

// NewErrorResponse builds the error envelope.
func NewErrorResponse(code, message string, fields []string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Code:    code,
			Fields:  fields,
		},
	}
}
