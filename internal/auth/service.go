package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/internal/models"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/utils"
)


var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidAccount     = errors.New("invalid account data")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrWeakPassword       = errors.New("password does not meet requirements")
)

// Service authenticates accounts and manages their credentials.
type Service struct {
	store  storage.AccountStore
	jwt    *JWTService
	logger *zap.Logger
}

// NewService creates an auth service.
func NewService(store storage.AccountStore, jwt *JWTService, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, jwt: jwt, logger: logger}
}

// Login checks credentials by username or email and issues a token.
func (s *Service) Login(ctx context.Context, login, password string) (string, *models.Account, error) {
	acc, err := s.store.GetAccountByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !utils.CheckPassword(password, acc.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.jwt.Generate(acc.ID, acc.Email)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, acc, nil
}

// Token issues a token for an already verified account.
func (s *Service) Token(acc *models.Account) (string, error) {
	return s.jwt.Generate(acc.ID, acc.Email)
}

// AccountUpdate holds the account fields to change; nil keeps the current value.
type AccountUpdate struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// ValidateAccount checks username and email formats.
func ValidateAccount(a *models.Account) error {
	if a.Username == "" || utf8.RuneCountInString(a.Username) > 150 || strings.ContainsAny(a.Username, " \t\n") {
		return fmt.Errorf("%w: username must be 1-150 characters without spaces", ErrInvalidAccount)
	}
	if a.Email != "" {
		if _, err := mail.ParseAddress(a.Email); err != nil {
			return fmt.Errorf("%w: invalid email", ErrInvalidAccount)
		}
	}
	return nil
}

// UpdateAccount applies u to the viewer's account.
func (s *Service) UpdateAccount(ctx context.Context, v identity.Viewer, u AccountUpdate) (*models.Account, error) {
	if err := identity.Check(v, identity.RequireAuthenticated); err != nil {
		return nil, err
	}
	acc, err := s.store.GetAccount(ctx, v.AccountID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, identity.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if u.Username != nil {
		acc.Username = strings.TrimSpace(*u.Username)
	}
	if u.Email != nil {
		acc.Email = strings.TrimSpace(*u.Email)
	}
	if u.FirstName != nil {
		acc.FirstName = strings.TrimSpace(*u.FirstName)
	}
	if u.LastName != nil {
		acc.LastName = strings.TrimSpace(*u.LastName)
	}
	if err := ValidateAccount(acc); err != nil {
		return nil, err
	}
	err = s.store.UpdateAccount(ctx, acc)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// ChangePassword replaces the viewer's password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, v identity.Viewer, current, next string) error {
	if err := identity.Check(v, identity.RequireAuthenticated); err != nil {
		return err
	}
	acc, err := s.store.GetAccount(ctx, v.AccountID)
	if errors.Is(err, storage.ErrNotFound) {
		return identity.ErrUnauthenticated
	}
	if err != nil {
		return err
	}
	if !utils.CheckPassword(current, acc.PasswordHash) {
		return ErrWrongPassword
	}
	if err := CheckNewPassword(next); err != nil {
		return err
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, acc.ID, hash); err != nil {
		return err
	}
	s.logger.Info("password changed", zap.Int64("account_id", acc.ID))
	return nil
}

// CheckNewPassword applies the password policy, wrapping violations in ErrWeakPassword.
func CheckNewPassword(password string) error {
	if err := utils.ValidatePassword(password); err != nil {
		return fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}
	return nil
}
