package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	otpdomain "braintrain/backend/internal/otp/domain"
	"braintrain/backend/internal/phone"
	"braintrain/backend/internal/security"
	userdomain "braintrain/backend/internal/user/domain"
)

var (
	// ErrInvalidPhone is returned when the phone number fails validation after normalization.
	ErrInvalidPhone = errors.New("invalid phone number")
	// ErrPhoneAlreadyUsed is returned when signing up a phone that belongs to an activated account.
	ErrPhoneAlreadyUsed = errors.New("phone number already used")
	// ErrPhoneNotFound is returned when no account exists for the phone.
	ErrPhoneNotFound = errors.New("phone number not found")
	// ErrInvalidCredentials is returned when the password does not match or the account cannot log in.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserStore is the account persistence the orchestrator needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByPhone(ctx context.Context, phone string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
}

// PasscodeManager issues and verifies one-time passcodes.
type PasscodeManager interface {
	Issue(ctx context.Context, userID string) (*otpdomain.Passcode, error)
	Verify(ctx context.Context, code string) (*otpdomain.Passcode, error)
	InvalidateUnconfirmed(ctx context.Context, userID string) error
}

// TokenRegistry tracks the revocation state of issued access tokens.
type TokenRegistry interface {
	Rotate(ctx context.Context, userID, tokenValue string) error
	Deactivate(ctx context.Context, tokenValue string) (bool, error)
}

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, body string) error
}

// Initializer sets up gamification state for a newly activated account.
type Initializer interface {
	Initialize(ctx context.Context, userID string) error
}

// Recorder persists audit events. Implementations are best-effort and must not fail the caller.
type Recorder interface {
	Record(ctx context.Context, actor, action, detail string)
}

// Service orchestrates the credential and session lifecycle: signup, OTP
// verification, login, token refresh, resend, password reset, and logout.
type Service struct {
	users     UserStore
	passcodes PasscodeManager
	registry  TokenRegistry
	tokens    *security.TokenProvider
	hasher    *security.Hasher

	sender    Sender      // nil when dev OTP mode is on
	bootstrap Initializer // nil disables gamification setup
	audit     Recorder    // nil disables audit recording

	returnOTP bool // dev mode: OTP in the response body instead of an SMS
}

func NewService(users UserStore, passcodes PasscodeManager, registry TokenRegistry, tokens *security.TokenProvider, hasher *security.Hasher, returnOTP bool) *Service {
	return &Service{
		users:     users,
		passcodes: passcodes,
		registry:  registry,
		tokens:    tokens,
		hasher:    hasher,
		returnOTP: returnOTP,
	}
}

// WithSender sets the SMS sender used when dev OTP mode is off.
func (s *Service) WithSender(sender Sender) *Service {
	s.sender = sender
	return s
}

// WithBootstrap sets the gamification initializer run on account activation.
func (s *Service) WithBootstrap(b Initializer) *Service {
	s.bootstrap = b
	return s
}

// WithAudit sets the audit recorder.
func (s *Service) WithAudit(r Recorder) *Service {
	s.audit = r
	return s
}

// LoginResult is the successful outcome of Login.
type LoginResult struct {
	User         *userdomain.User
	AccessToken  string
	RefreshToken string
}

// RefreshResult is the successful outcome of Refresh. RefreshToken is the
// caller's own token echoed back; refresh tokens are not rotated.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

// Signup registers a phone number and issues an activation passcode. An
// existing unactivated account is reused: its outstanding passcode is
// invalidated and a fresh one issued, same as a resend. The returned code is
// empty unless dev OTP mode is on.
func (s *Service) Signup(ctx context.Context, rawPhone, password string) (code string, err error) {
	canonical := phone.Normalize(rawPhone)
	if !phone.Valid(canonical) {
		return "", ErrInvalidPhone
	}

	existing, err := s.users.GetByPhone(ctx, canonical)
	if err != nil {
		return "", fmt.Errorf("look up phone: %w", err)
	}

	var user *userdomain.User
	switch {
	case existing != nil && existing.Enabled:
		return "", ErrPhoneAlreadyUsed
	case existing != nil:
		user = existing
		if err := s.passcodes.InvalidateUnconfirmed(ctx, user.ID); err != nil {
			return "", fmt.Errorf("invalidate outstanding passcode: %w", err)
		}
	default:
		hash, err := s.hasher.Hash([]byte(password))
		if err != nil {
			return "", fmt.Errorf("hash password: %w", err)
		}
		now := time.Now().UTC()
		user = &userdomain.User{
			ID:           uuid.NewString(),
			Phone:        canonical,
			PasswordHash: hash,
			Role:         userdomain.RoleUser,
			Enabled:      false,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return "", fmt.Errorf("create user: %w", err)
		}
	}

	passcode, err := s.passcodes.Issue(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("issue passcode: %w", err)
	}
	s.record(ctx, user.ID, "signup", canonical)
	return s.deliver(ctx, canonical, passcode.Code)
}

// VerifyAccount confirms the passcode and activates its account. The passcode
// errors (not found, already confirmed, expired) pass through unwrapped for
// the handler to map.
func (s *Service) VerifyAccount(ctx context.Context, code string) (*userdomain.User, error) {
	passcode, err := s.passcodes.Verify(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetEnabled(ctx, passcode.UserID, true); err != nil {
		return nil, fmt.Errorf("enable user: %w", err)
	}
	if s.bootstrap != nil {
		// The code is already burnt at this point; a bootstrap failure must
		// not brick the activation.
		if err := s.bootstrap.Initialize(ctx, passcode.UserID); err != nil {
			log.Printf("gamification bootstrap for user %s: %v", passcode.UserID, err)
		}
	}
	s.record(ctx, passcode.UserID, "verify_account", "")

	user, err := s.users.GetByID(ctx, passcode.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s missing after activation", passcode.UserID)
	}
	return user, nil
}

// Login checks credentials and rotates the account's live token.
func (s *Service) Login(ctx context.Context, rawPhone, password string) (*LoginResult, error) {
	canonical := phone.Normalize(rawPhone)
	if !phone.Valid(canonical) {
		return nil, ErrInvalidPhone
	}

	user, err := s.users.GetByPhone(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("look up phone: %w", err)
	}
	if user == nil {
		return nil, ErrPhoneNotFound
	}
	if !user.Enabled || user.Locked {
		s.record(ctx, user.ID, "login_denied", "account not active")
		return nil, ErrInvalidCredentials
	}
	if s.hasher.Matches(user.PasswordHash, []byte(password)) != nil {
		s.record(ctx, user.ID, "login_denied", "password mismatch")
		return nil, ErrInvalidCredentials
	}

	access, _, err := s.tokens.IssueAccess(user.Phone)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, _, err := s.tokens.IssueRefresh(user.Phone)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.registry.Rotate(ctx, user.ID, access); err != nil {
		return nil, fmt.Errorf("rotate tokens: %w", err)
	}
	s.record(ctx, user.ID, "login", "")
	return &LoginResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh mints a new access token from a valid refresh token and rotates it
// in. Parse failures pass through as security.ErrInvalidToken or
// security.ErrTokenExpired; both are client errors, never a server fault.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	subject, err := s.tokens.Parse(refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByPhone(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("look up subject: %w", err)
	}
	if user == nil {
		// Signed by us but the account is gone.
		return nil, security.ErrInvalidToken
	}

	access, _, err := s.tokens.IssueAccess(user.Phone)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	if err := s.registry.Rotate(ctx, user.ID, access); err != nil {
		return nil, fmt.Errorf("rotate tokens: %w", err)
	}
	s.record(ctx, user.ID, "refresh_token", "")
	return &RefreshResult{AccessToken: access, RefreshToken: refreshToken}, nil
}

// ResendOTP invalidates the account's outstanding passcode and issues a new
// one. The returned code is empty unless dev OTP mode is on.
func (s *Service) ResendOTP(ctx context.Context, rawPhone string) (code string, err error) {
	canonical := phone.Normalize(rawPhone)
	user, err := s.users.GetByPhone(ctx, canonical)
	if err != nil {
		return "", fmt.Errorf("look up phone: %w", err)
	}
	if user == nil {
		return "", ErrPhoneNotFound
	}
	if err := s.passcodes.InvalidateUnconfirmed(ctx, user.ID); err != nil {
		return "", fmt.Errorf("invalidate outstanding passcode: %w", err)
	}
	passcode, err := s.passcodes.Issue(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("issue passcode: %w", err)
	}
	s.record(ctx, user.ID, "resend_otp", "")
	return s.deliver(ctx, canonical, passcode.Code)
}

// ResetPassword overwrites the account's password hash. The flow requires no
// proof of the old password; callers own that decision.
func (s *Service) ResetPassword(ctx context.Context, rawPhone, newPassword string) error {
	canonical := phone.Normalize(rawPhone)
	user, err := s.users.GetByPhone(ctx, canonical)
	if err != nil {
		return fmt.Errorf("look up phone: %w", err)
	}
	if user == nil {
		return ErrPhoneNotFound
	}
	hash, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.record(ctx, user.ID, "reset_password", "")
	return nil
}

// Logout retires the stored record for the presented token. A token with no
// record is already logged out; that is a success, not an error.
func (s *Service) Logout(ctx context.Context, tokenValue string) error {
	retired, err := s.registry.Deactivate(ctx, tokenValue)
	if err != nil {
		return fmt.Errorf("deactivate token: %w", err)
	}
	if retired {
		s.record(ctx, "", "logout", "")
	}
	return nil
}

func (s *Service) deliver(ctx context.Context, canonical, code string) (string, error) {
	if s.returnOTP {
		return code, nil
	}
	if s.sender == nil {
		return "", errors.New("no SMS sender configured")
	}
	body := fmt.Sprintf("Your BrainTrain verification code is %s. It expires in 5 minutes.", code)
	if err := s.sender.Send(ctx, canonical, body); err != nil {
		return "", fmt.Errorf("send passcode: %w", err)
	}
	return "", nil
}

func (s *Service) record(ctx context.Context, actor, action, detail string) {
	if s.audit != nil {
		s.audit.Record(ctx, actor, action, detail)
	}
}
