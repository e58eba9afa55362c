package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidCode        = errors.New("invalid or expired confirmation code")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnsupported        = errors.New("operation not supported by this provider")
	ErrInvalidInput       = errors.New("invalid input")
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         Principal `json:"user"`
}

// Provider issues and verifies sessions. Implementations publish
// signed_in and signed_out on their Events bus.
type Provider interface {
	Name() string
	CurrentUser(ctx context.Context, accessToken string) (*Principal, error)
	ExchangeCode(ctx context.Context, code string) (*Session, error)
	VerifyOTP(ctx context.Context, tokenHash, otpType string) (*Session, error)
	SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	Events() *Events
}

// PasswordProvider is implemented by providers that own credentials.
type PasswordProvider interface {
	Provider
	SignUp(ctx context.Context, email, password string) (*Principal, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
}

type codeVerifierKey struct{}

// WithCodeVerifier attaches the PKCE verifier sent alongside an auth code.
func WithCodeVerifier(ctx context.Context, verifier string) context.Context {
	return context.WithValue(ctx, codeVerifierKey{}, verifier)
}

func codeVerifier(ctx context.Context) string {
	v, _ := ctx.Value(codeVerifierKey{}).(string)
	return v
}

// OTP types accepted for signup confirmation links.
func signupOTPType(t string) bool {
	return t == "signup" || t == "email"
}
