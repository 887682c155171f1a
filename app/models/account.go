package models

// DefaultFontSize is the UI font size given to new accounts.
const DefaultFontSize = 16

// Account is a workshop owner. Email is unique across the store.
type Account struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	PasswordHash       string `json:"-"`
	WorkshopName       string `json:"workshopName"`
	FontSizePreference int    `json:"fontSizePreference"`
}

// AccountView is the user block returned by login and /api/auth/me.
type AccountView struct {
	ID       string `json:"id"`
	Name     string `json:"nombre"`
	FontSize int    `json:"fontSize"`
}

// View projects the account for the client.
func (a Account) View() AccountView {
	fs := a.FontSizePreference
	if fs == 0 {
		fs = DefaultFontSize
	}
	return AccountView{ID: a.ID, Name: a.WorkshopName, FontSize: fs}
}

// RegisterInput is the registration payload. nombreTaller is the field name
// used by older clients.
type RegisterInput struct {
	Email        string `json:"email"        validate:"required,email,max=254"`
	Password     string `json:"password"     validate:"required,min=6,max=72"`
	WorkshopName string `json:"workshopName" validate:"max=120"`
	NombreTaller string `json:"nombreTaller" validate:"max=120"`
}

// Workshop returns the display name, whichever key carried it.
func (in RegisterInput) Workshop() string {
	if in.WorkshopName != "" {
		return in.WorkshopName
	}
	return in.NombreTaller
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token string      `json:"token"`
	User  AccountView `json:"user"`
}
