package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/reelshare/backend/internal/models"
	"github.com/reelshare/backend/internal/validate"
	"github.com/reelshare/backend/pkg/logger"
	"github.com/reelshare/backend/pkg/utils"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type LocalConfig struct {
	RefreshTTL      time.Duration
	ConfirmationTTL time.Duration
	// PublicURL is the externally reachable base of this server; confirmation
	// links point at its /auth/callback.
	PublicURL string
}

// LocalProvider keeps credentials, confirmation codes and sessions in the
// application database. Access tokens are HS256 JWTs from pkg/utils.
type LocalProvider struct {
	db     *gorm.DB
	cfg    LocalConfig
	mailer Mailer
	events *Events
	now    func() time.Time
}

func NewLocalProvider(db *gorm.DB, cfg LocalConfig, mailer Mailer, events *Events) *LocalProvider {
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.ConfirmationTTL <= 0 {
		cfg.ConfirmationTTL = 24 * time.Hour
	}
	if mailer == nil {
		mailer = LogMailer{}
	}
	if events == nil {
		events = NewEvents()
	}
	return &LocalProvider{db: db, cfg: cfg, mailer: mailer, events: events, now: func() time.Time { return time.Now().UTC() }}
}

func (p *LocalProvider) Name() string { return "local" }

func (p *LocalProvider) Events() *Events { return p.events }

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Principal, error) {
	email = NormalizeEmail(email)
	if msg := validate.Var(email, "required,email"); msg != "" {
		return nil, fmt.Errorf("%w: email %s", ErrInvalidInput, msg)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	code, err := utils.RandomToken(32)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}

		user = models.User{Email: email}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.Credential{UserID: user.ID, PasswordHash: hash}).Error; err != nil {
			return err
		}
		return tx.Create(&models.ConfirmationCode{
			UserID:    user.ID,
			Kind:      models.ConfirmationSignup,
			CodeHash:  utils.HashToken(code),
			ExpiresAt: p.now().Add(p.cfg.ConfirmationTTL),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if err := p.mailer.SendConfirmation(ctx, user.Email, p.confirmationLink(code)); err != nil {
		logger.ErrorWithUser(user.ID.String(), "confirmation_email_failed", err, nil)
	}
	logger.InfoWithUser(user.ID.String(), "user_signed_up", map[string]interface{}{"email": user.Email})

	return &Principal{ID: user.ID, Email: user.Email}, nil
}

func (p *LocalProvider) confirmationLink(code string) string {
	q := url.Values{}
	q.Set("token_hash", code)
	q.Set("type", string(models.ConfirmationSignup))
	return strings.TrimRight(p.cfg.PublicURL, "/") + "/auth/callback?" + q.Encode()
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)

	var user models.User
	if err := p.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	var cred models.Credential
	if err := p.db.WithContext(ctx).First(&cred, "user_id = ?", user.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(password, cred.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if cred.ConfirmedAt == nil {
		return nil, ErrEmailNotConfirmed
	}

	return p.issueSession(ctx, &user)
}

// ExchangeCode accepts the one-time code from a confirmation link.
func (p *LocalProvider) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	user, err := p.consumeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return p.issueSession(ctx, user)
}

// VerifyOTP accepts the same code in the token_hash form used by older links.
func (p *LocalProvider) VerifyOTP(ctx context.Context, tokenHash, otpType string) (*Session, error) {
	if !signupOTPType(otpType) {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidCode, otpType)
	}
	return p.ExchangeCode(ctx, tokenHash)
}

func (p *LocalProvider) consumeCode(ctx context.Context, code string) (*models.User, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidCode
	}

	var user models.User
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cc models.ConfirmationCode
		if err := tx.Where("code_hash = ? AND used_at IS NULL", utils.HashToken(code)).First(&cc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidCode
			}
			return err
		}
		now := p.now()
		if now.After(cc.ExpiresAt) {
			return ErrInvalidCode
		}

		res := tx.Model(&models.ConfirmationCode{}).
			Where("id = ? AND used_at IS NULL", cc.ID).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidCode
		}

		if err := tx.Model(&models.Credential{}).
			Where("user_id = ? AND confirmed_at IS NULL", cc.UserID).
			Update("confirmed_at", now).Error; err != nil {
			return err
		}
		return tx.First(&user, "id = ?", cc.UserID).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *LocalProvider) issueSession(ctx context.Context, user *models.User) (*Session, error) {
	refresh, err := utils.RandomToken(32)
	if err != nil {
		return nil, err
	}

	row := models.Session{
		UserID:           user.ID,
		RefreshTokenHash: utils.HashToken(refresh),
		ExpiresAt:        p.now().Add(p.cfg.RefreshTTL),
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}

	access, expiresAt, err := utils.GenerateToken(user.ID, user.Email, row.ID)
	if err != nil {
		return nil, err
	}

	p.events.Publish(EventSignedIn, user.ID)
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		User:         Principal{ID: user.ID, Email: user.Email},
	}, nil
}

func (p *LocalProvider) activeSession(ctx context.Context, where string, arg any) (*models.Session, error) {
	var s models.Session
	err := p.db.WithContext(ctx).
		Where(where, arg).
		Where("revoked_at IS NULL AND expires_at > ?", p.now()).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return &s, nil
}

func (p *LocalProvider) CurrentUser(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := utils.ValidateToken(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if _, err := p.activeSession(ctx, "id = ?", claims.SessionID); err != nil {
		return nil, err
	}

	var user models.User
	if err := p.db.WithContext(ctx).First(&user, "id = ?", claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return &Principal{ID: user.ID, Email: user.Email}, nil
}

// SetSession adopts a token pair. A still-valid access token is kept;
// otherwise a fresh one is minted from the refresh token's session.
func (p *LocalProvider) SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}
	s, err := p.activeSession(ctx, "refresh_token_hash = ?", utils.HashToken(refreshToken))
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := p.db.WithContext(ctx).First(&user, "id = ?", s.UserID).Error; err != nil {
		return nil, ErrInvalidToken
	}

	if claims, err := utils.ValidateToken(accessToken); err == nil && claims.SessionID == s.ID {
		return &Session{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    claims.ExpiresAt.Time,
			User:         Principal{ID: user.ID, Email: user.Email},
		}, nil
	}

	access, expiresAt, err := utils.GenerateToken(user.ID, user.Email, s.ID)
	if err != nil {
		return nil, err
	}
	p.events.Publish(EventSignedIn, user.ID)
	return &Session{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User:         Principal{ID: user.ID, Email: user.Email},
	}, nil
}

func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	claims, err := utils.ValidateToken(accessToken)
	if err != nil {
		return ErrInvalidToken
	}
	now := p.now()
	if err := p.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", claims.SessionID).
		Update("revoked_at", now).Error; err != nil {
		return err
	}
	p.events.Publish(EventSignedOut, claims.UserID)
	return nil
}

var _ PasswordProvider = (*LocalProvider)(nil)
