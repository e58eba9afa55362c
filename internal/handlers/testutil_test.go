package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/reelshare/backend/internal/auth"
	"github.com/reelshare/backend/internal/cache"
	"github.com/reelshare/backend/internal/database"
	"github.com/reelshare/backend/internal/middleware"
	"github.com/reelshare/backend/internal/services"
	"github.com/reelshare/backend/internal/tmdb"
	"github.com/reelshare/backend/pkg/logger"
	"github.com/reelshare/backend/pkg/utils"
	"gorm.io/gorm"
)

const testFrontendURL = "http://localhost:3000"

type captureMailer struct {
	mu    sync.Mutex
	links map[string]string
}

func (m *captureMailer) SendConfirmation(_ context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links == nil {
		m.links = map[string]string{}
	}
	m.links[email] = link
	return nil
}

func (m *captureMailer) link(t *testing.T, email string) *url.URL {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := url.Parse(m.links[email])
	if err != nil || u.Path == "" {
		t.Fatalf("no confirmation link for %s", email)
	}
	return u
}

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	provider *auth.LocalProvider
	mailer   *captureMailer
	audit    *services.AuditService
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		logger.SetOutput(io.Discard)
		utils.ConfigureJWT("test-secret", 1)
	})

	db, err := database.OpenInMemory()
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	mailer := &captureMailer{}
	provider := auth.NewLocalProvider(db, auth.LocalConfig{PublicURL: "http://api.test"}, mailer, auth.NewEvents())

	listCache := cache.New(cache.NewMemoryStore(time.Minute), time.Minute)
	provider.Events().Subscribe(func(e auth.Event) {
		if e.Type == auth.EventSignedOut {
			listCache.ForgetUser(context.Background(), e.UserID)
		}
	})

	auditService := services.NewAuditService(db)
	t.Cleanup(auditService.Close)

	repo := services.NewListRepository(db, listCache, auditService)

	app := fiber.New()
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS([]string{testFrontendURL}))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	RegisterRoutes(app, Handlers{
		Auth:       NewAuthHandler(provider, AuthHandlerConfig{FrontendURL: testFrontendURL}),
		Lists:      NewListsHandler(repo),
		Shares:     NewSharesHandler(repo),
		Users:      NewUsersHandler(repo),
		Titles:     NewTitlesHandler(tmdb.New("")),
		Activities: NewActivitiesHandler(db),
		Audit:      NewAuditHandler(db),
	}, middleware.NewAuthMiddleware(provider))

	return &testEnv{app: app, db: db, provider: provider, mailer: mailer, audit: auditService}
}

// createTestUser signs up and confirms an account, returning its id and a
// bearer token.
func createTestUser(t *testing.T, env *testEnv, email string) (*auth.Principal, string) {
	t.Helper()

	principal, err := env.provider.SignUp(context.Background(), email, "password123")
	if err != nil {
		t.Fatalf("failed signing up %s: %v", email, err)
	}
	code := env.mailer.link(t, principal.Email).Query().Get("token_hash")
	session, err := env.provider.ExchangeCode(context.Background(), code)
	if err != nil {
		t.Fatalf("failed confirming %s: %v", email, err)
	}
	return principal, session.AccessToken
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T (%+v)", body["data"], body)
	}
	return data
}
