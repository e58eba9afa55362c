package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/reelshare/backend/internal/models"
)

const supabaseTestSecret = "supabase-test-secret"

func mintSupabaseToken(t *testing.T, sub uuid.UUID, email string, ttl time.Duration) string {
	t.Helper()
	claims := supabaseClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.String(),
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(supabaseTestSecret))
	if err != nil {
		t.Fatalf("failed signing token: %v", err)
	}
	return signed
}

type fakeGoTrue struct {
	t        *testing.T
	userID   uuid.UUID
	email    string
	paths    []string
	lastBody map[string]string
}

func (f *fakeGoTrue) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.paths = append(f.paths, r.URL.Path+"?"+r.URL.RawQuery)
		if r.Header.Get("apikey") != "anon" {
			http.Error(w, `{"msg":"missing apikey"}`, http.StatusUnauthorized)
			return
		}
		f.lastBody = map[string]string{}
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)

		switch {
		case r.URL.Path == "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
			return
		case r.URL.Path == "/auth/v1/token" && f.lastBody["auth_code"] == "bad",
			r.URL.Path == "/auth/v1/verify" && f.lastBody["token_hash"] == "bad":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Email link is invalid or has expired"}`))
			return
		}

		access := mintSupabaseToken(f.t, f.userID, f.email, time.Hour)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"refresh_token": "refresh-1",
			"expires_in":    3600,
			"user":          map[string]string{"id": f.userID.String(), "email": f.email},
		})
	})
}

func newSupabaseForTest(t *testing.T) (*SupabaseProvider, *fakeGoTrue) {
	t.Helper()
	db := setupTestDB(t)
	fake := &fakeGoTrue{t: t, userID: uuid.New(), email: "Hosted@Example.com"}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	p := NewSupabaseProvider(db, SupabaseConfig{
		URL:       srv.URL,
		AnonKey:   "anon",
		JWTSecret: supabaseTestSecret,
		Audience:  "authenticated",
	}, NewEvents())
	return p, fake
}

func TestSupabaseExchangeCode(t *testing.T) {
	t.Run("exchanges code and syncs profile", func(t *testing.T) {
		p, fake := newSupabaseForTest(t)

		var events []Event
		p.Events().Subscribe(func(e Event) { events = append(events, e) })

		ctx := WithCodeVerifier(context.Background(), "verifier-1")
		sess, err := p.ExchangeCode(ctx, "good-code")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sess.User.ID != fake.userID || sess.User.Email != "hosted@example.com" {
			t.Fatalf("unexpected session user %+v", sess.User)
		}
		if fake.paths[0] != "/auth/v1/token?grant_type=pkce" {
			t.Fatalf("unexpected upstream call %s", fake.paths[0])
		}
		if fake.lastBody["code_verifier"] != "verifier-1" {
			t.Fatalf("expected verifier to be forwarded, got %v", fake.lastBody)
		}

		var profile models.User
		if err := p.db.First(&profile, "id = ?", fake.userID).Error; err != nil {
			t.Fatalf("expected profile row: %v", err)
		}
		if profile.Email != "hosted@example.com" {
			t.Fatalf("expected normalized profile email, got %q", profile.Email)
		}
		if len(events) != 1 || events[0].Type != EventSignedIn {
			t.Fatalf("expected signed_in event, got %+v", events)
		}
	})

	t.Run("upstream rejection maps to ErrInvalidCode", func(t *testing.T) {
		p, _ := newSupabaseForTest(t)
		_, err := p.ExchangeCode(context.Background(), "bad")
		if !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("expected ErrInvalidCode, got %v", err)
		}
	})
}

func TestSupabaseVerifyOTP(t *testing.T) {
	p, fake := newSupabaseForTest(t)

	if _, err := p.VerifyOTP(context.Background(), "hash-1", "signup"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.lastBody["token_hash"] != "hash-1" || fake.lastBody["type"] != "signup" {
		t.Fatalf("unexpected verify body %v", fake.lastBody)
	}
	if _, err := p.VerifyOTP(context.Background(), "bad", "signup"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if _, err := p.VerifyOTP(context.Background(), "hash-1", "magiclink"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected unsupported type to fail, got %v", err)
	}
}

func TestSupabaseCurrentUser(t *testing.T) {
	p, _ := newSupabaseForTest(t)
	id := uuid.New()

	principal, err := p.CurrentUser(context.Background(), mintSupabaseToken(t, id, "x@example.com", time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if principal.ID != id {
		t.Fatalf("expected subject %s, got %s", id, principal.ID)
	}

	if _, err := p.CurrentUser(context.Background(), mintSupabaseToken(t, id, "x@example.com", -time.Minute)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
	if _, err := p.CurrentUser(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected empty token to fail, got %v", err)
	}
}

func TestSupabaseSetSession(t *testing.T) {
	p, fake := newSupabaseForTest(t)

	valid := mintSupabaseToken(t, fake.userID, fake.email, time.Hour)
	sess, err := p.SetSession(context.Background(), valid, "refresh-0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.AccessToken != valid || len(fake.paths) != 0 {
		t.Fatal("expected a valid token pair to be adopted without upstream calls")
	}

	expired := mintSupabaseToken(t, fake.userID, fake.email, -time.Minute)
	sess, err = p.SetSession(context.Background(), expired, "refresh-0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.AccessToken == expired || sess.RefreshToken != "refresh-1" {
		t.Fatalf("expected refreshed session, got %+v", sess)
	}
	if fake.paths[0] != "/auth/v1/token?grant_type=refresh_token" {
		t.Fatalf("unexpected upstream call %s", fake.paths[0])
	}
}

func TestSupabaseSignOut(t *testing.T) {
	p, fake := newSupabaseForTest(t)

	var events []Event
	p.Events().Subscribe(func(e Event) { events = append(events, e) })

	if err := p.SignOut(context.Background(), mintSupabaseToken(t, fake.userID, fake.email, time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.paths[0] != "/auth/v1/logout?" {
		t.Fatalf("unexpected upstream call %s", fake.paths[0])
	}
	if len(events) != 1 || events[0].Type != EventSignedOut || events[0].UserID != fake.userID {
		t.Fatalf("expected signed_out event, got %+v", events)
	}
}

func TestSupabaseJWKSVerification(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed generating key: %v", err)
	}
	jwksSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kid": "k1",
				"kty": "RSA",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	defer jwksSrv.Close()

	db := setupTestDB(t)
	p := NewSupabaseProvider(db, SupabaseConfig{URL: "http://unused", JWKSURL: jwksSrv.URL}, nil)

	id := uuid.New()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, supabaseClaims{
		Email: "rsa@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token.Header["kid"] = "k1"
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed signing token: %v", err)
	}

	principal, err := p.CurrentUser(context.Background(), signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if principal.ID != id || principal.Email != "rsa@example.com" {
		t.Fatalf("unexpected principal %+v", principal)
	}
	if _, ok := p.keys.get("k1"); !ok {
		t.Fatal("expected fetched key to be cached")
	}

	hsToken := mintSupabaseToken(t, id, "rsa@example.com", time.Hour)
	if _, err := p.CurrentUser(context.Background(), hsToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected HS256 token to fail without shared secret, got %v", err)
	}
}
