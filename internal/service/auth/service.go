package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"uk.co.dudmesh.contacts/internal/boot"
	"uk.co.dudmesh.contacts/internal/crypt"
	"uk.co.dudmesh.contacts/internal/logutil"
	"uk.co.dudmesh.contacts/internal/mail"
	"uk.co.dudmesh.contacts/internal/model"
)

type Directory interface {
	CreateUser(ctx context.Context, params *model.CreateUserParams, passwordHash string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ConfirmUser(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, email string, passwordHash string) error
	UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error
}

type UserCache interface {
	Get(email string) (*model.User, bool)
	Put(email string, user *model.User)
}

type TokenService interface {
	Issue(email string, ttl time.Duration) (string, error)
	Verify(tokenString string) (string, error)
}

type Uploader interface {
	Upload(ctx context.Context, contentType string, body io.Reader) (string, error)
}

type service struct {
	config    *boot.Config
	directory Directory
	cache     UserCache
	tokens    TokenService
	mailer    mail.Sender
	uploader  Uploader
}

func New(config *boot.Config, directory Directory, cache UserCache, tokens TokenService, mailer mail.Sender, uploader Uploader) *service {
	return &service{
		config:    config,
		directory: directory,
		cache:     cache,
		tokens:    tokens,
		mailer:    mailer,
		uploader:  uploader,
	}
}

// Signup creates an unconfirmed account and dispatches a confirmation email
// carrying a token for the confirm endpoint.
func (s *service) Signup(ctx context.Context, params *model.CreateUserParams) (*model.User, error) {
	passwordHash, err := crypt.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.directory.CreateUser(ctx, params, passwordHash)
	if err != nil {
		return nil, err
	}

	confirmToken, err := s.tokens.Issue(user.Email, s.config.ResetTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issuing confirmation token: %w", err)
	}
	subject, body := mail.ConfirmationMessage(s.config.PublicBaseURL, confirmToken)
	s.dispatch(ctx, user.Email, subject, body)

	return user, nil
}

// Login verifies the password and mints a session token. An unknown email
// and a wrong password are indistinguishable to the caller.
func (s *service) Login(ctx context.Context, email string, password string) (string, error) {
	user, err := s.directory.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrorUserNotFound) {
			return "", model.ErrorInvalidEmailOrPassword
		}
		return "", fmt.Errorf("fetching user: %w", err)
	}

	if !crypt.VerifyPassword(password, user.Password) {
		return "", model.ErrorInvalidEmailOrPassword
	}

	sessionToken, err := s.tokens.Issue(user.Email, s.config.SessionTokenTTL)
	if err != nil {
		return "", fmt.Errorf("issuing session token: %w", err)
	}
	return sessionToken, nil
}

// Confirm flips the Confirmed flag for the token's subject.
func (s *service) Confirm(ctx context.Context, tokenString string) error {
	email, err := s.tokens.Verify(tokenString)
	if err != nil {
		return model.ErrorInvalidToken
	}
	return s.directory.ConfirmUser(ctx, email)
}

// Resolve turns a bearer token into the authenticated user. The cache is
// consulted first; a miss falls through to the directory and populates the
// cache. Every rejection collapses to ErrorInvalidToken so callers cannot
// tell a bad signature from an expired token or a vanished user.
func (s *service) Resolve(ctx context.Context, tokenString string) (*model.User, error) {
	email, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, model.ErrorInvalidToken
	}

	if user, ok := s.cache.Get(email); ok {
		return user, nil
	}

	user, err := s.directory.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrorUserNotFound) {
			return nil, model.ErrorInvalidToken
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}

	s.cache.Put(email, user)
	return user, nil
}

// RequestPasswordReset issues a reset token for a known email and dispatches
// it by mail. The mail send is best-effort; its failure is logged, never
// surfaced. Note the unknown-email case is reported to the caller, which
// leaks account existence; keeping the original contract here on purpose.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.directory.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	resetToken, err := s.tokens.Issue(user.Email, s.config.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("issuing reset token: %w", err)
	}

	subject, body := mail.PasswordResetMessage(s.config.PublicBaseURL, resetToken)
	s.dispatch(ctx, user.Email, subject, body)
	return nil
}

// ResetPassword redeems a reset token and overwrites the stored hash. The
// token is not invalidated afterwards; it stays redeemable until expiry.
func (s *service) ResetPassword(ctx context.Context, tokenString string, newPassword string) error {
	email, err := s.tokens.Verify(tokenString)
	if err != nil {
		return model.ErrorInvalidToken
	}

	passwordHash, err := crypt.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.directory.UpdatePassword(ctx, email, passwordHash)
}

// UpdateAvatar stores the image and persists its durable URL on the user.
func (s *service) UpdateAvatar(ctx context.Context, user *model.User, contentType string, body io.Reader) (string, error) {
	avatarURL, err := s.uploader.Upload(ctx, contentType, body)
	if err != nil {
		return "", err
	}

	if err := s.directory.UpdateAvatar(ctx, user.ID, avatarURL); err != nil {
		return "", err
	}
	return avatarURL, nil
}

func (s *service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.directory.ListUsers(ctx)
}

// dispatch sends mail on a detached goroutine so a slow or dead SMTP server
// never blocks the request.
func (s *service) dispatch(ctx context.Context, to string, subject string, body string) {
	logger := logutil.FromContext(ctx)
	go func() {
		if err := s.mailer.Send(to, subject, body); err != nil {
			logger.Error().Err(err).Str("to", to).Msg("sending email")
		}
	}()
}
