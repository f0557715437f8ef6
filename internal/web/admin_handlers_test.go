package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/evcraddock/commentboard/internal/auth"
	"github.com/evcraddock/commentboard/internal/comment"
)

func TestAdminLoginPrompt(t *testing.T) {
	srv := testServer(t)

	w := do(srv, "GET", "/admin", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `type="password"`) {
		t.Error("expected login form")
	}
}

// Wrong password: 401, no cookie, still anonymous.
func TestAdminLoginWrongPassword(t *testing.T) {
	srv := testServer(t)

	w := post(srv, "/admin", url.Values{"password": {"wrong"}}, "", nil)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if c := w.Header().Get("Set-Cookie"); c != "" {
		t.Errorf("expected no cookie, got %q", c)
	}
	if !strings.Contains(w.Body.String(), "Invalid password") {
		t.Error("expected invalid credential message")
	}

	w = do(srv, "GET", "/admin", nil, nil)
	if !strings.Contains(w.Body.String(), `type="password"`) {
		t.Error("expected login prompt after failed login")
	}
}

func TestAdminLoginSuccess(t *testing.T) {
	srv := testServer(t)

	w := post(srv, "/admin", url.Values{"password": {testPassword}}, "", nil)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/admin" {
		t.Errorf("location = %q, want /admin", loc)
	}

	cookie := sessionCookie(w.Result().Cookies())
	if cookie == nil {
		t.Fatal("expected session cookie")
	}
	if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteStrictMode || cookie.MaxAge != 3600 {
		t.Errorf("unexpected cookie attributes: %+v", cookie)
	}
	if cookie.Value == testPassword {
		t.Error("cookie must not carry the password")
	}
}

func TestAdminListing(t *testing.T) {
	env := newTestEnv(t)
	insertComment(t, env.repo, "Ana", "Hola", "2.3.4")
	cookie := login(t, env.srv)

	w := do(env.srv, "GET", "/admin", nil, cookie)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, "IP: 2.3.4") {
		t.Error("expected fingerprint in admin listing")
	}
	if !strings.Contains(body, "/admin/1/edit") || !strings.Contains(body, "/admin/1/delete") {
		t.Error("expected edit and delete actions")
	}
}

func TestAdminLoginDisabledWithoutPassword(t *testing.T) {
	env := newTestEnv(t)
	env.srv.auth = auth.NewAuthenticator(auth.Config{}, auth.NewSQLiteSessionStore(env.db))

	w := post(env.srv, "/admin", url.Values{"password": {""}}, "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAdminEditForm(t *testing.T) {
	env := newTestEnv(t)
	c := insertComment(t, env.repo, "Ana", "Hola", "2.3.4")
	cookie := login(t, env.srv)

	w := do(env.srv, "GET", "/admin/"+strconv.FormatInt(c.ID, 10)+"/edit", nil, cookie)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, `value="Ana"`) || !strings.Contains(body, "Hola</textarea>") {
		t.Error("expected current values in the edit form")
	}
}

func TestAdminEditFormNotFound(t *testing.T) {
	env := newTestEnv(t)
	cookie := login(t, env.srv)

	w := do(env.srv, "GET", "/admin/999/edit", nil, cookie)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// Editing comment 3 changes only name and comment.
func TestAdminEditSubmit(t *testing.T) {
	env := newTestEnv(t)
	insertComment(t, env.repo, "One", "1", "1.1.1")
	insertComment(t, env.repo, "Two", "2", "2.2.2")
	before := insertComment(t, env.repo, "Three", "3", "3.3.3")
	if before.ID != 3 {
		t.Fatalf("id = %d, want 3", before.ID)
	}
	// Moderation and duplicate checks do not apply to edits.
	env.mod.verdict.Safe = false
	cookie := login(t, env.srv)

	w := post(env.srv, "/admin/3/edit", url.Values{"name": {"Bob"}, "comment": {"Updated"}}, "3.3.3.3", cookie)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/admin" {
		t.Errorf("location = %q, want /admin", loc)
	}

	after, err := env.repo.GetByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.Name != "Bob" || after.Text != "Updated" {
		t.Errorf("got %q/%q, want Bob/Updated", after.Name, after.Text)
	}
	if after.IPSuffix != before.IPSuffix {
		t.Errorf("ip_suffix changed: %q -> %q", before.IPSuffix, after.IPSuffix)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", before.CreatedAt, after.CreatedAt)
	}
}

func TestAdminEditSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	c := insertComment(t, env.repo, "Ana", "Hola", "2.3.4")
	cookie := login(t, env.srv)
	path := "/admin/" + strconv.FormatInt(c.ID, 10) + "/edit"

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"blank name", url.Values{"name": {" "}, "comment": {"x"}}, "Please provide both"},
		{"long comment", url.Values{"name": {"Ana"}, "comment": {strings.Repeat("x", 501)}}, "at most 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(env.srv, path, tt.form, "", cookie)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("expected %q in response", tt.want)
			}

			got, err := env.repo.GetByID(context.Background(), c.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Name != "Ana" || got.Text != "Hola" {
				t.Error("expected comment unchanged")
			}
		})
	}
}

func TestAdminEditSubmitNotFound(t *testing.T) {
	env := newTestEnv(t)
	cookie := login(t, env.srv)

	for _, form := range []url.Values{
		{"name": {"Bob"}, "comment": {"Updated"}},
		{"name": {""}, "comment": {""}},
	} {
		w := post(env.srv, "/admin/999/edit", form, "", cookie)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	}
}

func TestAdminDelete(t *testing.T) {
	env := newTestEnv(t)
	c := insertComment(t, env.repo, "Ana", "Hola", "2.3.4")
	cookie := login(t, env.srv)

	w := post(env.srv, "/admin/"+strconv.FormatInt(c.ID, 10)+"/delete", url.Values{}, "", cookie)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if _, err := env.repo.GetByID(context.Background(), c.ID); !errors.Is(err, comment.ErrNotFound) {
		t.Errorf("expected comment gone, got %v", err)
	}
}

// Deleting an absent id redirects and leaves the listing alone.
func TestAdminDeleteMissing(t *testing.T) {
	env := newTestEnv(t)
	insertComment(t, env.repo, "Ana", "Hola", "2.3.4")
	cookie := login(t, env.srv)

	w := post(env.srv, "/admin/999/delete", url.Values{}, "", cookie)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/admin" {
		t.Errorf("location = %q, want /admin", loc)
	}
	if n := len(listAll(t, env.repo)); n != 1 {
		t.Errorf("comments = %d, want 1", n)
	}
}

func TestAdminLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := login(t, env.srv)

	w := post(env.srv, "/admin/logout", url.Values{}, "", cookie)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if header := w.Header().Get("Set-Cookie"); !strings.Contains(header, "Max-Age=0") {
		t.Errorf("Set-Cookie = %q, want Max-Age=0", header)
	}

	// The old token no longer opens the admin area.
	w = do(env.srv, "GET", "/admin", nil, cookie)
	if !strings.Contains(w.Body.String(), `type="password"`) {
		t.Error("expected login prompt after logout")
	}
}

func TestAdminLogoutAnonymous(t *testing.T) {
	srv := testServer(t)

	w := post(srv, "/admin/logout", url.Values{}, "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAdminRouting(t *testing.T) {
	env := newTestEnv(t)
	insertComment(t, env.repo, "Ana", "Hola", "2.3.4")
	cookie := login(t, env.srv)

	tests := []struct {
		method string
		path   string
		authed bool
		want   int
	}{
		// Anonymous GETs anywhere under /admin get the login prompt.
		{"GET", "/admin/1/edit", false, http.StatusOK},
		{"GET", "/admin/anything", false, http.StatusOK},
		{"GET", "/admin/logout", false, http.StatusOK},
		// Anonymous non-GETs other than login and logout are unauthorized.
		{"POST", "/admin/1/edit", false, http.StatusUnauthorized},
		{"POST", "/admin/1/delete", false, http.StatusUnauthorized},
		{"POST", "/admin/anything", false, http.StatusUnauthorized},
		{"DELETE", "/admin", false, http.StatusUnauthorized},
		// Paths that merely start with /admin share the fallback.
		{"GET", "/adminfoo", false, http.StatusOK},
		{"POST", "/administrator", false, http.StatusUnauthorized},
		// Authenticated requests to unknown admin actions are forbidden.
		{"POST", "/admin", true, http.StatusForbidden},
		{"GET", "/admin/anything", true, http.StatusForbidden},
		{"GET", "/admin/logout", true, http.StatusForbidden},
		{"GET", "/admin/abc/edit", true, http.StatusForbidden},
		{"POST", "/admin/-1/delete", true, http.StatusForbidden},
		{"GET", "/admin/1/delete", true, http.StatusForbidden},
		{"DELETE", "/admin", true, http.StatusForbidden},
		{"GET", "/adminfoo", true, http.StatusForbidden},
		// Numeric ids that overflow cannot exist.
		{"GET", "/admin/99999999999999999999/edit", true, http.StatusNotFound},
		{"GET", "/admin/1/edit", true, http.StatusOK},
	}

	for _, tt := range tests {
		name := tt.method + " " + tt.path
		if tt.authed {
			name += " (authed)"
		}
		t.Run(name, func(t *testing.T) {
			var c *http.Cookie
			if tt.authed {
				c = cookie
			}
			var body *strings.Reader
			if tt.method == "POST" {
				body = strings.NewReader("")
			}
			w := do(env.srv, tt.method, tt.path, body, c)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	if n := len(listAll(t, env.repo)); n != 1 {
		t.Errorf("routing table must not mutate the store, comments = %d", n)
	}
}

func TestAdminForgedCookie(t *testing.T) {
	srv := testServer(t)

	w := do(srv, "GET", "/admin", nil, &http.Cookie{Name: auth.CookieName, Value: "forged"})
	if !strings.Contains(w.Body.String(), `type="password"`) {
		t.Error("expected login prompt for a forged cookie")
	}
}

func login(t *testing.T, srv http.Handler) *http.Cookie {
	t.Helper()
	w := post(srv, "/admin", url.Values{"password": {testPassword}}, "", nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	c := sessionCookie(w.Result().Cookies())
	if c == nil {
		t.Fatal("login did not set a session cookie")
	}
	return c
}

func sessionCookie(cookies []*http.Cookie) *http.Cookie {
	for _, c := range cookies {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return v
}
