package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/reelshare/backend/internal/middleware"
)

func assertErrorResponse(t *testing.T, statusCode int, body map[string]any, expectedStatus int, expectedMessage string) {
	t.Helper()

	if statusCode != expectedStatus {
		t.Fatalf("expected status code %d, got %d", expectedStatus, statusCode)
	}

	success, ok := body["success"].(bool)
	if !ok {
		t.Fatalf("expected success field to be boolean, got %T", body["success"])
	}
	if success {
		t.Fatalf("expected success=false, got %v", body["success"])
	}

	errMessage, ok := body["error"].(string)
	if !ok {
		t.Fatalf("expected error field to be string, got %T", body["error"])
	}
	if errMessage != expectedMessage {
		t.Fatalf("expected error message %q, got %q", expectedMessage, errMessage)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	resp := performRequest(t, env.app, http.MethodGet, "/health", nil, nil)
	body := decodeJSONMap(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if status, _ := body["status"].(string); status != "ok" {
		t.Fatalf("expected status field ok, got %v", body["status"])
	}
}

func TestVersionEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	resp := performRequest(t, env.app, http.MethodGet, "/api/version", nil, nil)
	body := decodeJSONMap(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	data := dataMap(t, body)
	if data["version"] != Version {
		t.Fatalf("expected version %q, got %v", Version, data["version"])
	}
	if data["authProvider"] != "local" || data["searchMode"] != "fallback" {
		t.Fatalf("expected local auth with fallback search, got %v", data)
	}
}

func TestAuthMiddlewareRejections(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name            string
		headers         map[string]string
		expectedMessage string
	}{
		{
			name:            "missing token",
			expectedMessage: "authentication required",
		},
		{
			name:            "malformed token",
			headers:         map[string]string{"Authorization": "Bearer not-a-jwt"},
			expectedMessage: "invalid or expired token",
		},
		{
			name:            "non bearer scheme",
			headers:         map[string]string{"Authorization": "Basic abc"},
			expectedMessage: "authentication required",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := performRequest(t, env.app, http.MethodGet, "/api/lists", nil, tc.headers)
			body := decodeJSONMap(t, resp)
			assertErrorResponse(t, resp.StatusCode, body, http.StatusUnauthorized, tc.expectedMessage)
		})
	}
}

func TestAuthEndpoints(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("signup validates input", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/signup", map[string]any{
			"email":    "nope",
			"password": "password123",
		}, nil)
		body := decodeJSONMap(t, resp)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d (%+v)", resp.StatusCode, body)
		}
	})

	t.Run("signin before confirmation is refused", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/signup", map[string]any{
			"email":    "pending@test.com",
			"password": "password123",
		}, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		resp = performJSONRequest(t, env.app, http.MethodPost, "/api/auth/signin", map[string]any{
			"email":    "pending@test.com",
			"password": "password123",
		}, nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
	})

	t.Run("duplicate signup conflicts", func(t *testing.T) {
		createTestUser(t, env, "taken@test.com")
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/signup", map[string]any{
			"email":    "TAKEN@test.com",
			"password": "password123",
		}, nil)
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("me and signout", func(t *testing.T) {
		principal, token := createTestUser(t, env, "me@test.com")

		resp := performRequest(t, env.app, http.MethodGet, "/api/auth/me", nil, authHeaders(token))
		body := decodeJSONMap(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if id := dataMap(t, body)["id"]; id != principal.ID.String() {
			t.Fatalf("expected id %s, got %v", principal.ID, id)
		}

		resp = performRequest(t, env.app, http.MethodPost, "/api/auth/signout", nil, authHeaders(token))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 from signout, got %d", resp.StatusCode)
		}

		resp = performRequest(t, env.app, http.MethodGet, "/api/auth/me", nil, authHeaders(token))
		body = decodeJSONMap(t, resp)
		assertErrorResponse(t, resp.StatusCode, body, http.StatusUnauthorized, "invalid or expired token")
	})

	t.Run("refresh", func(t *testing.T) {
		createTestUser(t, env, "refresh@test.com")
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/signin", map[string]any{
			"email":    "refresh@test.com",
			"password": "password123",
		}, nil)
		body := decodeJSONMap(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 from signin, got %d (%+v)", resp.StatusCode, body)
		}
		refreshToken, _ := dataMap(t, body)["refresh_token"].(string)
		if refreshToken == "" {
			t.Fatalf("expected refresh token in %+v", body)
		}

		resp = performJSONRequest(t, env.app, http.MethodPost, "/api/auth/refresh", map[string]any{"refresh_token": refreshToken}, nil)
		body = decodeJSONMap(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 from refresh, got %d (%+v)", resp.StatusCode, body)
		}
		access, _ := dataMap(t, body)["access_token"].(string)
		resp = performRequest(t, env.app, http.MethodGet, "/api/auth/me", nil, authHeaders(access))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected refreshed token to authenticate, got %d", resp.StatusCode)
		}

		resp = performRequest(t, env.app, http.MethodPost, "/api/auth/refresh", nil, nil)
		body = decodeJSONMap(t, resp)
		assertErrorResponse(t, resp.StatusCode, body, http.StatusBadRequest, "refresh_token is required")

		resp = performJSONRequest(t, env.app, http.MethodPost, "/api/auth/refresh", map[string]any{"refresh_token": "bogus"}, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 for unknown refresh token, got %d", resp.StatusCode)
		}
	})
}

func TestAuthCallback(t *testing.T) {
	env := setupTestEnv(t)

	errorLocation := func(t *testing.T, resp *http.Response) string {
		t.Helper()
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("expected 302, got %d", resp.StatusCode)
		}
		loc, err := url.Parse(resp.Header.Get("Location"))
		if err != nil {
			t.Fatalf("bad location: %v", err)
		}
		if loc.Path != "/auth/auth-code-error" {
			t.Fatalf("expected redirect to error page, got %s", loc)
		}
		return loc.Query().Get("error")
	}

	t.Run("no parameters", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/auth/callback", nil, nil)
		if msg := errorLocation(t, resp); msg != "Invalid confirmation link" {
			t.Fatalf("unexpected message %q", msg)
		}
	})

	t.Run("provider error is forwarded", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/auth/callback?error=access_denied&error_description=Email+link+expired", nil, nil)
		if msg := errorLocation(t, resp); msg != "Email link expired" {
			t.Fatalf("unexpected message %q", msg)
		}
	})

	t.Run("unsupported otp type", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/auth/callback?token_hash=abc&type=recovery", nil, nil)
		if msg := errorLocation(t, resp); msg != "Invalid confirmation link" {
			t.Fatalf("unexpected message %q", msg)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/auth/callback?code=bogus", nil, nil)
		if msg := errorLocation(t, resp); msg != "Email link is invalid or has expired" {
			t.Fatalf("unexpected message %q", msg)
		}
	})

	confirmLink := func(t *testing.T, email string) url.Values {
		t.Helper()
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/signup", map[string]any{
			"email":    email,
			"password": "password123",
		}, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201 from signup, got %d", resp.StatusCode)
		}
		return env.mailer.link(t, email).Query()
	}

	t.Run("valid link signs in and redirects to next", func(t *testing.T) {
		q := confirmLink(t, "confirm@test.com")
		q.Set("next", "/lists/abc")

		resp := performRequest(t, env.app, http.MethodGet, "/auth/callback?"+q.Encode(), nil, nil)
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("expected 302, got %d", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != testFrontendURL+"/lists/abc" {
			t.Fatalf("unexpected redirect %q", loc)
		}

		var accessToken string
		for _, c := range resp.Cookies() {
			if c.Name == "access_token" {
				accessToken = c.Value
			}
		}
		if accessToken == "" {
			t.Fatal("expected access_token cookie")
		}

		resp = performRequest(t, env.app, http.MethodGet, "/api/auth/me", nil, map[string]string{
			"Cookie": "access_token=" + accessToken,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected cookie session to authenticate, got %d", resp.StatusCode)
		}
	})

	t.Run("off-site next is ignored", func(t *testing.T) {
		q := confirmLink(t, "offsite@test.com")
		q.Set("next", "//evil.example.com")

		resp := performRequest(t, env.app, http.MethodGet, "/auth/callback?"+q.Encode(), nil, nil)
		if loc := resp.Header.Get("Location"); loc != testFrontendURL+"/" {
			t.Fatalf("expected redirect to frontend root, got %q", loc)
		}
	})

	t.Run("confirm page bridges fragments", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/auth/confirm", nil, nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Fatalf("expected html, got %q", ct)
		}
	})
}

func TestListEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := createTestUser(t, env, "owner@test.com")
	_, readerToken := createTestUser(t, env, "reader@test.com")
	_, strangerToken := createTestUser(t, env, "stranger@test.com")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/lists", map[string]any{
		"name":     "Weekend",
		"category": "movies",
	}, authHeaders(ownerToken))
	body := decodeJSONMap(t, resp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%+v)", resp.StatusCode, body)
	}
	listID, _ := dataMap(t, body)["id"].(string)
	listPath := "/api/lists/" + listID

	t.Run("create validates name", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/lists", map[string]any{
			"name": "   ",
		}, authHeaders(ownerToken))
		body := decodeJSONMap(t, resp)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		fields, _ := body["fields"].(map[string]any)
		if _, ok := fields["name"]; !ok {
			t.Fatalf("expected name field error, got %+v", body)
		}
	})

	t.Run("owner adds an item", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, listPath+"/items", map[string]any{
			"tmdbId": 550,
			"type":   "movie",
			"title":  "Fight Club",
		}, authHeaders(ownerToken))
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		resp = performRequest(t, env.app, http.MethodGet, listPath, nil, authHeaders(ownerToken))
		data := dataMap(t, decodeJSONMap(t, resp))
		items, _ := data["items"].([]any)
		if len(items) != 1 {
			t.Fatalf("expected one item, got %+v", data["items"])
		}
		if data["isOwner"] != true || data["permission"] != "write" {
			t.Fatalf("expected owner view, got %+v", data)
		}
	})

	t.Run("stranger sees not found", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, listPath, nil, authHeaders(strangerToken))
		body := decodeJSONMap(t, resp)
		assertErrorResponse(t, resp.StatusCode, body, http.StatusNotFound, "list not found")
	})

	t.Run("share read access", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, listPath+"/shares", map[string]any{
			"email":      "Reader@Test.com",
			"permission": "read",
		}, authHeaders(ownerToken))
		body := decodeJSONMap(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d (%+v)", resp.StatusCode, body)
		}
		if perm := dataMap(t, body)["permission"]; perm != "read" {
			t.Fatalf("expected read permission, got %v", perm)
		}

		resp = performRequest(t, env.app, http.MethodGet, listPath, nil, authHeaders(readerToken))
		data := dataMap(t, decodeJSONMap(t, resp))
		if data["isOwner"] != false || data["permission"] != "read" {
			t.Fatalf("expected read view, got %+v", data)
		}
		if _, ok := data["shares"]; ok {
			t.Fatal("expected shares to be hidden from non-owners")
		}
	})

	t.Run("reader cannot add items", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, listPath+"/items", map[string]any{
			"tmdbId": 13,
			"type":   "movie",
			"title":  "Forrest Gump",
		}, authHeaders(readerToken))
		body := decodeJSONMap(t, resp)
		assertErrorResponse(t, resp.StatusCode, body, http.StatusForbidden, "permission denied")
	})

	t.Run("share with unknown email", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, listPath+"/shares", map[string]any{
			"email": "ghost@test.com",
		}, authHeaders(ownerToken))
		body := decodeJSONMap(t, resp)
		assertErrorResponse(t, resp.StatusCode, body, http.StatusNotFound, "user not found")
	})

	t.Run("reader lists include the shared list", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/lists", nil, authHeaders(readerToken))
		body := decodeJSONMap(t, resp)
		lists, _ := body["data"].([]any)
		if len(lists) != 1 {
			t.Fatalf("expected one visible list, got %d", len(lists))
		}
	})

	t.Run("remove item is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			resp := performRequest(t, env.app, http.MethodDelete, listPath+"/items/550", nil, authHeaders(ownerToken))
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("attempt %d: expected 200, got %d", i, resp.StatusCode)
			}
		}
		resp := performRequest(t, env.app, http.MethodDelete, listPath+"/items/abc", nil, authHeaders(ownerToken))
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for bad tmdb id, got %d", resp.StatusCode)
		}
	})

	t.Run("only the owner deletes", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, listPath, nil, authHeaders(readerToken))
		body := decodeJSONMap(t, resp)
		assertErrorResponse(t, resp.StatusCode, body, http.StatusForbidden, "permission denied")

		resp = performRequest(t, env.app, http.MethodDelete, listPath, nil, authHeaders(ownerToken))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		resp = performRequest(t, env.app, http.MethodGet, listPath, nil, authHeaders(readerToken))
		body = decodeJSONMap(t, resp)
		assertErrorResponse(t, resp.StatusCode, body, http.StatusNotFound, "list not found")
	})

	t.Run("invalid list id", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/lists/not-a-uuid", nil, authHeaders(ownerToken))
		body := decodeJSONMap(t, resp)
		assertErrorResponse(t, resp.StatusCode, body, http.StatusBadRequest, "invalid list id")
	})
}

func TestUserSearchEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env, "alice@test.com")
	createTestUser(t, env, "bob@test.com")
	createTestUser(t, env, "bobby@test.com")

	resp := performRequest(t, env.app, http.MethodGet, "/api/users/search?q=BOB", nil, authHeaders(token))
	body := decodeJSONMap(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	users, _ := body["data"].([]any)
	if len(users) != 2 {
		t.Fatalf("expected two matches, got %+v", body["data"])
	}
	first, _ := users[0].(map[string]any)
	if first["email"] != "bob@test.com" {
		t.Fatalf("expected exact match first, got %v", first["email"])
	}
}

func TestTitleEndpoints(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("search falls back without an api key", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/search?q="+url.QueryEscape("Fight Club"), nil, nil)
		body := decodeJSONMap(t, resp)
		results, _ := body["results"].([]any)
		if len(results) != 1 {
			t.Fatalf("expected one fallback result, got %+v", body)
		}
		first, _ := results[0].(map[string]any)
		if first["title"] != "Fight Club" {
			t.Fatalf("unexpected result %+v", first)
		}
	})

	t.Run("search attributes signed in callers", func(t *testing.T) {
		_, token := createTestUser(t, env, "searcher@test.com")
		for _, headers := range []map[string]string{authHeaders(token), authHeaders("not-a-token")} {
			resp := performRequest(t, env.app, http.MethodGet, "/api/search?q="+url.QueryEscape("Fight Club"), nil, headers)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected public search to succeed, got %d", resp.StatusCode)
			}
		}

		env.app.Get("/test/caller", middleware.NewAuthMiddleware(env.provider).OptionalAuth, func(c *fiber.Ctx) error {
			if p := middleware.GetPrincipal(c); p != nil {
				return c.SendString(p.Email)
			}
			return c.SendString("anonymous")
		})
		cases := map[string]map[string]string{
			"searcher@test.com": authHeaders(token),
			"anonymous":         authHeaders("not-a-token"),
		}
		for want, headers := range cases {
			resp := performRequest(t, env.app, http.MethodGet, "/test/caller", nil, headers)
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK || string(body) != want {
				t.Errorf("expected %q, got %d %q", want, resp.StatusCode, body)
			}
		}
	})

	t.Run("unknown query is empty", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/search?q=zzz-no-such-title-ever", nil, nil)
		body := decodeJSONMap(t, resp)
		results, _ := body["results"].([]any)
		if len(results) != 0 || body["total_results"] != float64(0) {
			t.Fatalf("expected empty results, got %+v", body)
		}
	})

	t.Run("details validation", func(t *testing.T) {
		cases := map[string]struct {
			status  int
			message string
		}{
			"/api/titles/book/550":  {http.StatusBadRequest, "type must be movie or tv"},
			"/api/titles/movie/abc": {http.StatusBadRequest, "invalid title id"},
			"/api/titles/movie/1":   {http.StatusNotFound, "title not found"},
		}
		for path, want := range cases {
			resp := performRequest(t, env.app, http.MethodGet, path, nil, nil)
			body := decodeJSONMap(t, resp)
			assertErrorResponse(t, resp.StatusCode, body, want.status, want.message)
		}
	})

	t.Run("details from fallback", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, fmt.Sprintf("/api/titles/movie/%d", 550), nil, nil)
		body := decodeJSONMap(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d (%+v)", resp.StatusCode, body)
		}
		if title := dataMap(t, body)["displayTitle"]; title != "Fight Club" {
			t.Fatalf("expected Fight Club, got %v", title)
		}
	})
}

func TestActivityAndAuditEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := createTestUser(t, env, "owner@test.com")
	_, friendToken := createTestUser(t, env, "friend@test.com")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/lists", map[string]any{"name": "Weekend"}, authHeaders(ownerToken))
	listID, _ := dataMap(t, decodeJSONMap(t, resp))["id"].(string)

	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/lists/"+listID+"/shares", map[string]any{
		"email": "friend@test.com",
	}, authHeaders(ownerToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from share, got %d", resp.StatusCode)
	}

	// Drain the audit queue so activities are visible.
	env.audit.Close()

	resp = performRequest(t, env.app, http.MethodGet, "/api/activities/unread-count", nil, authHeaders(friendToken))
	if count := dataMap(t, decodeJSONMap(t, resp))["count"]; count != float64(1) {
		t.Fatalf("expected one unread activity, got %v", count)
	}

	resp = performRequest(t, env.app, http.MethodGet, "/api/activities", nil, authHeaders(friendToken))
	body := decodeJSONMap(t, resp)
	activities, _ := body["data"].([]any)
	if len(activities) != 1 {
		t.Fatalf("expected one activity, got %+v", body["data"])
	}
	first, _ := activities[0].(map[string]any)
	if msg := first["message"]; msg != `owner@test.com shared "Weekend" with you` {
		t.Fatalf("unexpected activity message %v", msg)
	}

	resp = performRequest(t, env.app, http.MethodPut, "/api/activities/read-all", nil, authHeaders(friendToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from read-all, got %d", resp.StatusCode)
	}
	resp = performRequest(t, env.app, http.MethodGet, "/api/activities/unread-count", nil, authHeaders(friendToken))
	if count := dataMap(t, decodeJSONMap(t, resp))["count"]; count != float64(0) {
		t.Fatalf("expected no unread activities, got %v", count)
	}

	resp = performRequest(t, env.app, http.MethodGet, "/api/audit-log/export", nil, authHeaders(ownerToken))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from export, got %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	csvText := string(raw)
	for _, want := range []string{"Timestamp,Action", "list.create", "share.create"} {
		if !strings.Contains(csvText, want) {
			t.Errorf("expected %q in export:\n%s", want, csvText)
		}
	}
}
