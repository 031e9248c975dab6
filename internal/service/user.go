package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/pkg/hash"
	"github.com/Skotchmaster/shop_api/pkg/logging"
	"github.com/Skotchmaster/shop_api/pkg/mail"
	"github.com/Skotchmaster/shop_api/pkg/tokens"
)

const (
	DefaultResetTTL = 10 * time.Minute

	welcomeMailTimeout = 30 * time.Second
)

type UserService struct {
	Repo     *repo.GormRepo
	Tokens   *tokens.Issuer
	Mailer   mail.Sender
	ResetTTL time.Duration
	Now      func() time.Time

	mailing sync.WaitGroup
}

type AuthResult struct {
	User  *models.User
	Token string
}

type ProfileUpdate struct {
	Name     string
	Email    string
	Password string
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *UserService) resetTTL() time.Duration {
	if s.ResetTTL > 0 {
		return s.ResetTTL
	}
	return DefaultResetTTL
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid("email is required")
	}
	addr, err := netmail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("invalid email")
	}
	return email, nil
}

func (s *UserService) issue(u *models.User) (string, error) {
	return s.Tokens.IssueDefault(tokens.Claims{UserID: u.ID, Email: u.Email, Role: u.Role})
}

func (s *UserService) SignUp(ctx context.Context, name, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "user.signup")

	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, invalid("name, email and password are required")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	digest, err := hash.HashPassword(password)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: digest,
		Role:         models.RoleUser,
		IsEnabled:    true,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("signup_error", "status", 409, "reason", "user already exists")
			return nil, ErrEmailTaken
		}
		l.Error("signup_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}

	token, err := s.issue(user)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot issue token", "error", err)
		return nil, err
	}

	// the account is committed; a failed welcome email must not undo it
	if s.Mailer != nil {
		s.sendWelcome(ctx, l, welcomeEmail(user), user.ID)
	}

	l.Info("signup_success", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// sendWelcome delivers msg in the background. The send outlives the request
// but is bounded by welcomeMailTimeout.
func (s *UserService) sendWelcome(ctx context.Context, l *slog.Logger, msg mail.Message, userID uint) {
	s.mailing.Add(1)
	go func() {
		defer s.mailing.Done()

		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), welcomeMailTimeout)
		defer cancel()
		if err := s.Mailer.Send(mctx, msg); err != nil {
			l.Warn("welcome_email_failed", "user_id", userID, "error", err)
		}
	}()
}

// Flush waits for background mail started by SignUp.
func (s *UserService) Flush() {
	s.mailing.Wait()
}

func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "user.login")

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, invalid("email and password are required")
	}
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			hash.EqualizeTiming(password)
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !user.IsEnabled {
		l.Warn("login_failed", "status", 403, "reason", "account disabled", "user_id", user.ID)
		return nil, ErrAccountDisabled
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, err := s.issue(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue token", "error", err)
		return nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

func (s *UserService) Profile(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Repo.FindUserByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, notFound("user")
	}
	return user, err
}

// UpdateProfile changes the non-empty fields of upd.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, upd ProfileUpdate) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.update_profile")

	fields := map[string]any{}
	if name := strings.TrimSpace(upd.Name); name != "" {
		fields["name"] = name
	}
	if strings.TrimSpace(upd.Email) != "" {
		email, err := normalizeEmail(upd.Email)
		if err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if upd.Password != "" {
		digest, err := hash.HashPassword(upd.Password)
		if err != nil {
			return nil, err
		}
		fields["password"] = digest
	}

	user, err := s.Repo.UpdateUser(ctx, id, fields)
	switch {
	case errors.Is(err, repo.ErrDuplicate):
		l.Warn("update_profile_error", "status", 409, "reason", "email taken", "user_id", id)
		return nil, ErrEmailTaken
	case errors.Is(err, repo.ErrNotFound):
		return nil, notFound("user")
	case err != nil:
		l.Error("update_profile_error", "status", 500, "error", err)
		return nil, err
	}

	l.Info("update_profile_success", "user_id", id)
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id uint, oldPassword, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "user.change_password")

	if oldPassword == "" || newPassword == "" {
		return invalid("old and new password are required")
	}

	user, err := s.Repo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("user")
		}
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, oldPassword) {
		l.Warn("change_password_failed", "status", 400, "reason", "old password mismatch", "user_id", id)
		return invalid("old password is incorrect")
	}

	digest, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.Repo.UpdateUser(ctx, id, map[string]any{"password": digest}); err != nil {
		l.Error("change_password_failed", "status", 500, "error", err)
		return err
	}

	l.Info("change_password_success", "user_id", id)
	return nil
}

// ForgotPassword stores a fresh reset token for the account and mails the
// link resetBaseURL/<token>. If the mail cannot be sent the token is cleared.
func (s *UserService) ForgotPassword(ctx context.Context, email, resetBaseURL string) error {
	l := logging.FromContext(ctx).With("svc", "user.forgot_password")

	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("forgot_password_failed", "status", 404, "reason", "unknown email")
			return notFound("user")
		}
		return err
	}

	tok, err := tokens.GenerateResetToken(s.now(), s.resetTTL())
	if err != nil {
		return err
	}
	if err := s.Repo.SetResetToken(ctx, user.ID, tok.Hash, tok.ExpiresAt); err != nil {
		l.Error("forgot_password_failed", "status", 500, "reason", "cannot store token", "error", err)
		return err
	}

	link := strings.TrimRight(resetBaseURL, "/") + "/" + tok.Raw
	if s.Mailer == nil {
		_ = s.Repo.ClearResetToken(ctx, user.ID)
		return errors.New("no mail sender configured")
	}
	if err := s.Mailer.Send(ctx, resetEmail(user, link, s.resetTTL())); err != nil {
		if cerr := s.Repo.ClearResetToken(ctx, user.ID); cerr != nil {
			l.Error("clear_reset_token_failed", "user_id", user.ID, "error", cerr)
		}
		l.Error("forgot_password_failed", "status", 500, "reason", "cannot send email", "user_id", user.ID, "error", err)
		return fmt.Errorf("send reset email: %w", err)
	}

	l.Info("forgot_password_sent", "user_id", user.ID)
	return nil
}

// ResetPassword consumes the raw reset token and stores the new password in
// the same transaction. A token works exactly once.
func (s *UserService) ResetPassword(ctx context.Context, rawToken, password string) error {
	l := logging.FromContext(ctx).With("svc", "user.reset_password")

	if rawToken == "" || password == "" {
		return invalid("token and password are required")
	}

	digest, err := hash.HashPassword(password)
	if err != nil {
		return err
	}

	var userID uint
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		user, err := tx.ConsumeResetToken(ctx, tokens.HashResetToken(rawToken), s.now())
		if err != nil {
			return err
		}
		userID = user.ID
		_, err = tx.UpdateUser(ctx, user.ID, map[string]any{"password": digest})
		return err
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("reset_password_failed", "status", 400, "reason", "invalid or expired token")
			return ErrInvalidResetToken
		}
		l.Error("reset_password_failed", "status", 500, "error", err)
		return err
	}

	l.Info("reset_password_success", "user_id", userID)
	return nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "user.delete")

	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("user")
		}
		l.Error("delete_user_failed", "status", 500, "error", err)
		return err
	}
	l.Info("delete_user_success", "target_id", id)
	return nil
}

func (s *UserService) SetEnabled(ctx context.Context, id uint, enabled bool) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.set_enabled")

	user, err := s.Repo.UpdateUser(ctx, id, map[string]any{"is_enabled": enabled})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, notFound("user")
		}
		l.Error("set_enabled_failed", "status", 500, "error", err)
		return nil, err
	}
	l.Info("set_enabled_success", "target_id", id, "enabled", enabled)
	return user, nil
}

// EnsureAdmin creates the admin account, or promotes and enables an existing
// account with that email. An existing password is left alone.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.ensure_admin")

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, invalid("admin password is required")
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		digest, err := hash.HashPassword(password)
		if err != nil {
			return nil, err
		}
		user = &models.User{Name: name, Email: email, PasswordHash: digest, Role: models.RoleAdmin, IsEnabled: true}
		if err := s.Repo.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		l.Info("admin_created", "user_id", user.ID)
		return user, nil
	case err != nil:
		return nil, err
	}

	if user.IsAdmin() && user.IsEnabled {
		return user, nil
	}
	user, err = s.Repo.UpdateUser(ctx, user.ID, map[string]any{"role": models.RoleAdmin, "is_enabled": true})
	if err != nil {
		return nil, err
	}
	l.Info("admin_promoted", "user_id", user.ID)
	return user, nil
}
