package auth

import (
	"MapHub-Backend/internal/blob"
	"MapHub-Backend/internal/cache"
	"MapHub-Backend/internal/config"
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/mail"
	"MapHub-Backend/internal/metrics"
	"MapHub-Backend/internal/moderation"
	"MapHub-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

// MapRemover deletes every map a user owns.
type MapRemover interface {
	DeleteOwnedBy(ctx context.Context, userID int64) (domain.CleanupReport, error)
}

// LikeRemover withdraws every like a user has given.
type LikeRemover interface {
	UnlikeAll(ctx context.Context, userID int64) error
}

// AccountDeps собирает зависимости AccountService
type AccountDeps struct {
	Storage   repository.Storage
	Passwords *PasswordService
	Tokens    *JWTService
	Throttle  *Throttle
	Cache     cache.Cache
	Mailer    mail.Sender
	Moderator moderation.Moderator
	Blobs     blob.Store
	Maps      MapRemover
	Likes     LikeRemover
	Limits    *config.Login
	// URLTTL is the lifetime of signed picture URLs in profiles.
	URLTTL time.Duration
	// ToxicityThreshold rejects user names scoring at or above it.
	ToxicityThreshold float64
	SiteURL           string
	Log               *zap.Logger
	Now               func() time.Time
}

// AccountService регистрирует, подтверждает, аутентифицирует и удаляет пользователей
type AccountService struct {
	AccountDeps
}

func NewAccountService(deps AccountDeps) *AccountService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &AccountService{AccountDeps: deps}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
	// Origin is the client network address.
	Origin    string
	UserAgent string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *domain.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func resendKey(email string) string {
	return "ResendVerification:" + email
}

// Register creates an unverified account and mails its verification link.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	if name == "" {
		return nil, domain.Validation("name", "user name is required")
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, domain.Validation("email", "invalid email address")
	}

	score, err := s.Moderator.ScoreToxicity(ctx, name)
	if err != nil {
		return nil, err
	}
	if score >= s.ToxicityThreshold {
		return nil, domain.ModerationRejected("name", "user name cannot be offensive")
	}

	if _, err := s.Storage.GetUserByEmail(ctx, email); err == nil {
		return nil, domain.Conflict("account with this email already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if _, err := s.Storage.GetUserByName(ctx, name); err == nil {
		return nil, domain.Conflict("account with this name already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to check name: %w", err)
	}

	hash, err := s.Passwords.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedDate:  domain.FormatDate(now),
	}
	if err := s.sendVerification(ctx, user); err != nil {
		return nil, err
	}

	if err := s.Storage.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.Log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("email", email))
	return user, nil
}

// Verify confirms the account holding token.
func (s *AccountService) Verify(ctx context.Context, token string) error {
	if token == "" {
		return domain.Validation("token", "verification token is required")
	}

	user, err := s.Storage.GetUserByVerificationToken(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Validation("token", "invalid verification token")
	}
	if err != nil {
		return fmt.Errorf("failed to find verification token: %w", err)
	}
	if user.VerificationExpired(s.Now()) {
		return domain.Validation("token", "verification token expired, request a new link")
	}

	user.IsVerified = true
	user.VerificationToken = nil
	user.VerificationExpiresAt = nil
	if err := s.Storage.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to verify user: %w", err)
	}

	s.Log.Info("user verified", zap.Int64("user_id", user.ID))
	return nil
}

// ResendVerification issues a fresh verification token unless one was sent
// within the cooldown.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return domain.Validation("email", "email is required")
	}

	user, err := s.Storage.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return domain.Conflict("account is already verified")
	}

	_, cooling, err := s.Cache.Get(ctx, resendKey(email))
	if err != nil {
		// Fall back to the timestamp stored on the user.
		s.Log.Warn("failed to read resend cooldown", zap.String("email", email), zap.Error(err))
		cooling = false
	}
	if !cooling && user.LastVerificationSentAt != nil {
		cooling = s.Now().Sub(*user.LastVerificationSentAt) < s.Limits.ResendCooldown
	}
	if cooling {
		return domain.Conflict("verification email was already sent, try again in a few minutes")
	}

	if err := s.sendVerification(ctx, user); err != nil {
		return err
	}
	if err := s.Storage.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	if err := s.Cache.Set(ctx, resendKey(email), "sent", s.Limits.ResendCooldown); err != nil {
		s.Log.Warn("failed to write resend cooldown", zap.String("email", email), zap.Error(err))
	}
	return nil
}

// Login checks the lockout first, then the credentials. Only wrong
// credentials count against the throttle.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (result *LoginResult, err error) {
	email := normalizeEmail(in.Email)
	origin := strings.TrimSpace(in.Origin)

	defer func() { metrics.LoginAttemptsTotal.WithLabelValues(loginOutcome(err)).Inc() }()

	if err := s.Throttle.Check(ctx, email, origin); err != nil {
		return nil, err
	}

	user, err := s.Storage.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	var credErr error
	if user == nil {
		credErr = s.Passwords.RejectUnknown(in.Password)
	} else {
		credErr = s.Passwords.VerifyPassword(user.PasswordHash, in.Password)
	}
	if credErr != nil {
		if err := s.Throttle.RecordFailure(ctx, email, origin); err != nil {
			return nil, err
		}
		return nil, domain.Unauthorized("invalid email or password")
	}

	if !user.IsVerified {
		if err := s.ResendVerification(ctx, email); err != nil && !errors.Is(err, domain.ErrConflict) {
			s.Log.Warn("failed to resend verification on login", zap.Int64("user_id", user.ID), zap.Error(err))
		}
		return nil, domain.NeedsVerification("account is not verified, check your inbox for the activation link")
	}

	if err := s.Throttle.Reset(ctx, email, origin); err != nil {
		s.Log.Warn("failed to reset login attempts", zap.String("email", email), zap.Error(err))
	}

	result, err = s.issueSession(ctx, user, origin, in.UserAgent)
	if err != nil {
		return nil, err
	}

	s.Log.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("origin", origin))
	return result, nil
}

// SetProfilePicture replaces the user's picture; nil removes it.
func (s *AccountService) SetProfilePicture(ctx context.Context, userID int64, file *domain.Upload) error {
	if file != nil {
		err := s.Moderator.CheckImage(ctx, *file)
		if errors.Is(err, moderation.ErrUnsafeImage) {
			return domain.ModerationRejected("picture", "image contains potentially inappropriate content")
		}
		if err != nil {
			return err
		}
	}

	user, err := s.Storage.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	var ref *string
	if file != nil {
		r, err := s.Blobs.Upload(ctx, *file)
		if err != nil {
			return fmt.Errorf("failed to upload picture: %w", err)
		}
		ref = &r
	}

	old := user.ProfilePicture
	user.ProfilePicture = ref
	if err := s.Storage.UpdateUser(ctx, user); err != nil {
		if ref != nil {
			s.deleteBlob(ctx, *ref)
		}
		return fmt.Errorf("failed to update picture: %w", err)
	}

	if old != nil {
		s.deleteBlob(ctx, *old)
	}
	return nil
}

// DeleteUser withdraws the user's likes, deletes every owned map and then
// the account itself.
func (s *AccountService) DeleteUser(ctx context.Context, userID int64) (domain.CleanupReport, error) {
	var report domain.CleanupReport

	user, err := s.Storage.GetUserByID(ctx, userID)
	if err != nil {
		return report, err
	}

	if err := s.Likes.UnlikeAll(ctx, userID); err != nil {
		return report, err
	}
	report, err = s.Maps.DeleteOwnedBy(ctx, userID)
	if err != nil {
		return report, err
	}
	if err := s.Storage.DeleteUser(ctx, userID); err != nil {
		return report, fmt.Errorf("failed to delete user: %w", err)
	}

	if user.ProfilePicture != nil {
		if err := s.Blobs.Delete(ctx, *user.ProfilePicture); err != nil {
			report.Failures = append(report.Failures, domain.ReleaseFailure{Ref: *user.ProfilePicture, Error: err.Error()})
		}
	}

	s.Log.Info("user deleted", zap.Int64("user_id", userID), zap.Int("release_failures", len(report.Failures)))
	return report, nil
}

// sendVerification sets a fresh token on user and mails the link. The caller persists user.
func (s *AccountService) sendVerification(ctx context.Context, user *domain.User) error {
	now := s.Now()
	token := uuid.NewString()
	expires := now.Add(s.Limits.VerificationTTL)

	body := mail.VerificationBody(s.SiteURL, user.Name, token)
	if err := s.Mailer.Send(ctx, user.Email, mail.VerificationSubject, body); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	user.VerificationToken = &token
	user.VerificationExpiresAt = &expires
	user.LastVerificationSentAt = &now
	return nil
}

func (s *AccountService) deleteBlob(ctx context.Context, ref string) {
	if err := s.Blobs.Delete(ctx, ref); err != nil {
		s.Log.Warn("failed to release blob", zap.String("ref", ref), zap.Error(err))
	}
}

func loginOutcome(err error) string {
	switch domain.KindOf(err) {
	case domain.KindLockedOut:
		return "locked_out"
	case domain.KindNeedsVerification:
		return "needs_verification"
	}
	return metrics.Outcome(err)
}
