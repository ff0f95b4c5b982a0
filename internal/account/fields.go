package account

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/jon4hz/accountd/internal/database"
	"github.com/samber/lo"
)

// UserUpdate is a partial update of the identity fields of a user.
// A nil field is left unchanged.
type UserUpdate struct {
	Email     *string `json:"email" validate:"omitnil,email,max=254"`
	FirstName *string `json:"first_name" validate:"omitnil,max=100"`
	LastName  *string `json:"last_name" validate:"omitnil,max=100"`
}

func (u *UserUpdate) UnmarshalJSON(data []byte) error {
	d, err := newFieldDecoder(data)
	if err != nil {
		return err
	}
	u.Email = d.text("email")
	u.FirstName = d.text("first_name")
	u.LastName = d.text("last_name")
	return d.err()
}

// PasswordChange is the request to replace the password of a user.
type PasswordChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

func (p *PasswordChange) UnmarshalJSON(data []byte) error {
	d, err := newFieldDecoder(data)
	if err != nil {
		return err
	}
	p.CurrentPassword = lo.FromPtr(d.text("current_password"))
	p.NewPassword = lo.FromPtr(d.text("new_password"))
	p.ConfirmPassword = lo.FromPtr(d.text("confirm_password"))
	return d.err()
}

// NotificationUpdate is a partial update of the notification settings.
type NotificationUpdate struct {
	PushMessages   *bool
	PushComments   *bool
	PushReminders  *bool
	EmailNews      *bool
	EmailMessages  *bool
	EmailReminders *bool
}

func (u *NotificationUpdate) UnmarshalJSON(data []byte) error {
	d, err := newFieldDecoder(data)
	if err != nil {
		return err
	}
	u.PushMessages = d.boolean("push_messages")
	u.PushComments = d.boolean("push_comments")
	u.PushReminders = d.boolean("push_reminders")
	u.EmailNews = d.boolean("email_news")
	u.EmailMessages = d.boolean("email_messages")
	u.EmailReminders = d.boolean("email_reminders")
	return d.err()
}

func (u *NotificationUpdate) apply(s *database.NotificationSettings) error {
	s.PushMessages = lo.FromPtrOr(u.PushMessages, s.PushMessages)
	s.PushComments = lo.FromPtrOr(u.PushComments, s.PushComments)
	s.PushReminders = lo.FromPtrOr(u.PushReminders, s.PushReminders)
	s.EmailNews = lo.FromPtrOr(u.EmailNews, s.EmailNews)
	s.EmailMessages = lo.FromPtrOr(u.EmailMessages, s.EmailMessages)
	s.EmailReminders = lo.FromPtrOr(u.EmailReminders, s.EmailReminders)
	return nil
}

// ThemeUpdate is a partial update of the theme settings.
// Unknown skins and font families decode to nil and are ignored.
type ThemeUpdate struct {
	Skin         *database.Skin
	PrimaryColor *string `json:"primary_color" validate:"omitnil,max=7"`
	FontFamily   *database.FontFamily
}

func (u *ThemeUpdate) UnmarshalJSON(data []byte) error {
	d, err := newFieldDecoder(data)
	if err != nil {
		return err
	}
	u.Skin = choice(d, "skin", database.Skins)
	u.PrimaryColor = d.text("primary_color")
	u.FontFamily = choice(d, "font_family", database.FontFamilies)
	return d.err()
}

func (u *ThemeUpdate) apply(s *database.ThemeSettings) error {
	if err := validateThemeUpdate(u); err != nil {
		return err
	}
	s.Skin = lo.FromPtrOr(u.Skin, s.Skin)
	s.PrimaryColor = lo.FromPtrOr(u.PrimaryColor, s.PrimaryColor)
	s.FontFamily = lo.FromPtrOr(u.FontFamily, s.FontFamily)
	return nil
}

// PrivacyUpdate is a partial update of the privacy settings.
// An unknown profile visibility decodes to nil and is ignored.
type PrivacyUpdate struct {
	ProfileVisibility *database.ProfileVisibility
	ShowEmail         *bool
	DataSharing       *bool
}

func (u *PrivacyUpdate) UnmarshalJSON(data []byte) error {
	d, err := newFieldDecoder(data)
	if err != nil {
		return err
	}
	u.ProfileVisibility = choice(d, "profile_visibility", database.ProfileVisibilities)
	u.ShowEmail = d.boolean("show_email")
	u.DataSharing = d.boolean("data_sharing")
	return d.err()
}

func (u *PrivacyUpdate) apply(s *database.PrivacySettings) error {
	s.ProfileVisibility = lo.FromPtrOr(u.ProfileVisibility, s.ProfileVisibility)
	s.ShowEmail = lo.FromPtrOr(u.ShowEmail, s.ShowEmail)
	s.DataSharing = lo.FromPtrOr(u.DataSharing, s.DataSharing)
	return nil
}

// fieldDecoder reads whitelisted keys from a JSON object.
// Keys that are absent or null decode to nil. Keys outside the whitelist are never looked at.
type fieldDecoder struct {
	obj     map[string]json.RawMessage
	invalid []string
}

func newFieldDecoder(data []byte) (*fieldDecoder, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, ErrInvalidJSON(nil)
	}
	return &fieldDecoder{obj: obj}, nil
}

func (d *fieldDecoder) err() error {
	if len(d.invalid) > 0 {
		return errInvalidFields(d.invalid...)
	}
	return nil
}

func (d *fieldDecoder) raw(key string) (json.RawMessage, bool) {
	raw, ok := d.obj[key]
	if !ok {
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	return raw, true
}

// text accepts strings as they are and renders numbers and booleans to their JSON text.
// Objects and arrays mark the key as invalid.
func (d *fieldDecoder) text(key string) *string {
	raw, ok := d.raw(key)
	if !ok {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			d.invalid = append(d.invalid, key)
			return nil
		}
		return &s
	case '{', '[':
		d.invalid = append(d.invalid, key)
		return nil
	default:
		return lo.ToPtr(string(raw))
	}
}

// boolean coerces any JSON value to its truthiness.
func (d *fieldDecoder) boolean(key string) *bool {
	raw, ok := d.raw(key)
	if !ok {
		return nil
	}
	switch raw[0] {
	case 't':
		return lo.ToPtr(true)
	case 'f':
		return lo.ToPtr(false)
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			d.invalid = append(d.invalid, key)
			return nil
		}
		if b, err := strconv.ParseBool(s); err == nil {
			return &b
		}
		return lo.ToPtr(s != "")
	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			d.invalid = append(d.invalid, key)
			return nil
		}
		return lo.ToPtr(len(arr) > 0)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			d.invalid = append(d.invalid, key)
			return nil
		}
		return lo.ToPtr(len(obj) > 0)
	default:
		n, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			d.invalid = append(d.invalid, key)
			return nil
		}
		return lo.ToPtr(n != 0)
	}
}

// choice returns the value of key if it is a string in choices, nil otherwise.
func choice[T ~string](d *fieldDecoder, key string, choices []T) *T {
	raw, ok := d.raw(key)
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if !lo.Contains(choices, T(s)) {
		return nil
	}
	return lo.ToPtr(T(s))
}
