// Package services holds the business rules between HTTP handlers and the
// repositories. Services return *apperr.Error values; handlers render them.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shashiranjanraj/fashioncraft/app/models"
	"github.com/shashiranjanraj/fashioncraft/app/repositories"
	"github.com/shashiranjanraj/fashioncraft/pkg/apperr"
	"github.com/shashiranjanraj/fashioncraft/pkg/auth"
	"github.com/shashiranjanraj/fashioncraft/pkg/logger"
	"github.com/shashiranjanraj/fashioncraft/pkg/metrics"
)

// TokenIssuer issues identity tokens.
type TokenIssuer interface {
	Issue(accountID string) (string, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Compare(ctx context.Context, hash, plain string) error
	CompareDummy(ctx context.Context, plain string)
}

type AuthService struct {
	accounts repositories.AccountRepository
	tokens   TokenIssuer
	hasher   PasswordHasher
}

func NewAuthService(accounts repositories.AccountRepository, tokens TokenIssuer, hasher PasswordHasher) *AuthService {
	return &AuthService{accounts: accounts, tokens: tokens, hasher: hasher}
}

// NormalizeEmail trims and lowercases an address before it is stored or
// looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. An email already on file gives
// ErrDuplicateAccount, whether caught by the lookup or by the store's unique
// index under a concurrent registration.
func (s *AuthService) Register(ctx context.Context, in models.RegisterInput) (*models.Account, error) {
	email := NormalizeEmail(in.Email)
	if len(in.Password) > auth.MaxPasswordBytes {
		metrics.RecordAuth("register", "invalid")
		return nil, passwordTooLong()
	}

	existing, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		metrics.RecordAuth("register", "error")
		return nil, apperr.ErrStore.WithCause(err)
	}
	if existing != nil {
		metrics.RecordAuth("register", "duplicate")
		return nil, apperr.ErrDuplicateAccount
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		metrics.RecordAuth("register", "invalid")
		return nil, passwordTooLong()
	}
	if err != nil {
		metrics.RecordAuth("register", "error")
		return nil, apperr.ErrStore.WithCause(err)
	}

	acc, err := s.accounts.Create(ctx, models.Account{
		Email:              email,
		PasswordHash:       hash,
		WorkshopName:       strings.TrimSpace(in.Workshop()),
		FontSizePreference: models.DefaultFontSize,
	})
	if errors.Is(err, repositories.ErrDuplicateEmail) {
		metrics.RecordAuth("register", "duplicate")
		return nil, apperr.ErrDuplicateAccount
	}
	if err != nil {
		metrics.RecordAuth("register", "error")
		return nil, apperr.ErrStore.WithCause(err)
	}

	metrics.RecordAuth("register", "ok")
	logger.WithCtx(ctx).Info("account registered", "account_id", acc.ID)
	return acc, nil
}

// Login checks credentials and issues a token. Unknown email and wrong
// password both give ErrInvalidCredentials, and both cost one bcrypt
// comparison.
func (s *AuthService) Login(ctx context.Context, in models.LoginInput) (*models.LoginResult, error) {
	acc, err := s.accounts.FindByEmail(ctx, NormalizeEmail(in.Email))
	if err != nil {
		metrics.RecordAuth("login", "error")
		return nil, apperr.ErrStore.WithCause(err)
	}
	if acc == nil {
		s.hasher.CompareDummy(ctx, in.Password)
		metrics.RecordAuth("login", "invalid")
		return nil, apperr.ErrInvalidCredentials
	}

	switch err := s.hasher.Compare(ctx, acc.PasswordHash, in.Password); {
	case errors.Is(err, auth.ErrMismatch):
		metrics.RecordAuth("login", "invalid")
		return nil, apperr.ErrInvalidCredentials
	case err != nil:
		metrics.RecordAuth("login", "error")
		return nil, apperr.ErrStore.WithCause(err)
	}

	token, err := s.tokens.Issue(acc.ID)
	if err != nil {
		metrics.RecordAuth("login", "error")
		return nil, apperr.ErrStore.WithCause(err)
	}

	metrics.RecordAuth("login", "ok")
	return &models.LoginResult{Token: token, User: acc.View()}, nil
}

// Me returns the display block of the authenticated account.
func (s *AuthService) Me(ctx context.Context, accountID string) (*models.AccountView, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, apperr.ErrStore.WithCause(err)
	}
	if acc == nil {
		return nil, apperr.ErrNotFound.WithMessage("Usuario no encontrado")
	}
	view := acc.View()
	return &view, nil
}

// passwordTooLong reports a password bcrypt cannot take. The validator's
// max counts characters, this limit counts UTF-8 bytes.
func passwordTooLong() *apperr.Error {
	return apperr.ErrValidation.WithFields(map[string]string{
		"password": fmt.Sprintf("no puede superar %d bytes", auth.MaxPasswordBytes),
	})
}
