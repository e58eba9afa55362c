package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/reelshare/backend/pkg/logger"
	"gorm.io/gorm"
)

type SupabaseConfig struct {
	URL       string
	AnonKey   string
	JWTSecret string
	JWKSURL   string
	Audience  string
	Timeout   time.Duration
}

// SupabaseProvider delegates credentials and email confirmation to a hosted
// GoTrue instance and verifies its access tokens locally.
type SupabaseProvider struct {
	db     *gorm.DB
	cfg    SupabaseConfig
	http   *http.Client
	events *Events
	keys   jwksCache
}

func NewSupabaseProvider(db *gorm.DB, cfg SupabaseConfig, events *Events) *SupabaseProvider {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.JWKSURL == "" && cfg.JWTSecret == "" && cfg.URL != "" {
		cfg.JWKSURL = cfg.URL + "/auth/v1/.well-known/jwks.json"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if events == nil {
		events = NewEvents()
	}
	return &SupabaseProvider{
		db:     db,
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		events: events,
	}
}

func (p *SupabaseProvider) Name() string { return "supabase" }

func (p *SupabaseProvider) Events() *Events { return p.events }

type supabaseClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (p *SupabaseProvider) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if p.cfg.JWTSecret == "" {
				return nil, errors.New("no shared secret configured")
			}
			return []byte(p.cfg.JWTSecret), nil
		case *jwt.SigningMethodRSA:
		default:
			return nil, fmt.Errorf("unexpected method: %v", token.Header["alg"])
		}

		if p.cfg.JWKSURL == "" {
			return nil, errors.New("no verification key")
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid")
		}
		if k, ok := p.keys.get(kid); ok {
			return k, nil
		}
		set, err := fetchJWKS(ctx, p.http, p.cfg.JWKSURL)
		if err != nil {
			return nil, err
		}
		for _, j := range set.Keys {
			if j.Kid == kid {
				k, err := decodeJWKToRSA(j)
				if err != nil {
					return nil, err
				}
				p.keys.set(kid, k)
				return k, nil
			}
		}
		return nil, errors.New("no verification key")
	}
}

func (p *SupabaseProvider) verify(ctx context.Context, accessToken string) (*Principal, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}
	opts := []jwt.ParserOption{}
	if p.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(p.cfg.Audience))
	}

	var claims supabaseClaims
	parsed, err := jwt.ParseWithClaims(accessToken, &claims, p.keyFunc(ctx), opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Principal{ID: id, Email: NormalizeEmail(claims.Email)}, nil
}

// CurrentUser verifies the token and refreshes the local profile row so
// share targets can be resolved by email.
func (p *SupabaseProvider) CurrentUser(ctx context.Context, accessToken string) (*Principal, error) {
	principal, err := p.verify(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if principal.Email != "" {
		if err := SyncProfile(ctx, p.db, principal.ID, principal.Email); err != nil {
			logger.ErrorWithUser(principal.ID.String(), "profile_sync_failed", err, nil)
		}
	}
	return principal, nil
}

type goTrueSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type goTrueError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e goTrueError) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (p *SupabaseProvider) post(ctx context.Context, path, bearer string, body any, dst any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", p.cfg.AnonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var gerr goTrueError
		_ = json.NewDecoder(res.Body).Decode(&gerr)
		if msg := gerr.text(); msg != "" {
			return fmt.Errorf("gotrue %s: %s", res.Status, msg)
		}
		return fmt.Errorf("gotrue %s", res.Status)
	}
	if dst == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(dst)
}

func (p *SupabaseProvider) adopt(ctx context.Context, gs *goTrueSession) (*Session, error) {
	principal, err := p.verify(ctx, gs.AccessToken)
	if err != nil {
		return nil, err
	}
	if principal.Email == "" {
		principal.Email = NormalizeEmail(gs.User.Email)
	}
	if err := SyncProfile(ctx, p.db, principal.ID, principal.Email); err != nil {
		return nil, err
	}

	expiresAt := time.Unix(gs.ExpiresAt, 0).UTC()
	if gs.ExpiresAt == 0 {
		expiresAt = time.Now().UTC().Add(time.Duration(gs.ExpiresIn) * time.Second)
	}
	p.events.Publish(EventSignedIn, principal.ID)
	return &Session{
		AccessToken:  gs.AccessToken,
		RefreshToken: gs.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         *principal,
	}, nil
}

// ExchangeCode trades a PKCE auth code for a session. The verifier, when the
// browser kept one, travels in the context (see WithCodeVerifier).
func (p *SupabaseProvider) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidCode
	}
	var gs goTrueSession
	body := map[string]string{"auth_code": code, "code_verifier": codeVerifier(ctx)}
	if err := p.post(ctx, "/auth/v1/token?grant_type=pkce", "", body, &gs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	return p.adopt(ctx, &gs)
}

func (p *SupabaseProvider) VerifyOTP(ctx context.Context, tokenHash, otpType string) (*Session, error) {
	if strings.TrimSpace(tokenHash) == "" || !signupOTPType(otpType) {
		return nil, ErrInvalidCode
	}
	var gs goTrueSession
	body := map[string]string{"type": otpType, "token_hash": tokenHash}
	if err := p.post(ctx, "/auth/v1/verify", "", body, &gs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	return p.adopt(ctx, &gs)
}

// SetSession adopts a token pair from a link fragment. An expired access
// token is refreshed through GoTrue.
func (p *SupabaseProvider) SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	if principal, err := p.verify(ctx, accessToken); err == nil {
		if err := SyncProfile(ctx, p.db, principal.ID, principal.Email); err != nil {
			return nil, err
		}
		var expiresAt time.Time
		var claims supabaseClaims
		if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err == nil && claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		p.events.Publish(EventSignedIn, principal.ID)
		return &Session{AccessToken: accessToken, RefreshToken: refreshToken, ExpiresAt: expiresAt, User: *principal}, nil
	}

	if refreshToken == "" {
		return nil, ErrInvalidToken
	}
	var gs goTrueSession
	if err := p.post(ctx, "/auth/v1/token?grant_type=refresh_token", "", map[string]string{"refresh_token": refreshToken}, &gs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return p.adopt(ctx, &gs)
}

func (p *SupabaseProvider) SignOut(ctx context.Context, accessToken string) error {
	principal, err := p.verify(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := p.post(ctx, "/auth/v1/logout", accessToken, nil, nil); err != nil {
		logger.WarnWithUser(principal.ID.String(), "gotrue_logout_failed", map[string]interface{}{"error": err.Error()})
	}
	p.events.Publish(EventSignedOut, principal.ID)
	return nil
}

var _ Provider = (*SupabaseProvider)(nil)
