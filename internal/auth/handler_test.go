package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/datatopup/internal/identity"
	"github.com/congo-pay/datatopup/internal/logging"
	"github.com/congo-pay/datatopup/internal/middleware"
	"github.com/congo-pay/datatopup/internal/profile"
	"github.com/congo-pay/datatopup/internal/session"
)

// stubRepo fails Get with err and otherwise delegates to the memory repository.
type stubRepo struct {
	profile.Repository
	err error
}

func (r *stubRepo) Get(ctx context.Context, id string) (profile.Profile, error) {
	if r.err != nil {
		return profile.Profile{}, r.err
	}
	return r.Repository.Get(ctx, id)
}

// recordingStore remembers every session it was asked to create.
type recordingStore struct {
	*session.MemoryStore
	created []session.Session
}

func (s *recordingStore) Create(ctx context.Context, sess session.Session) error {
	s.created = append(s.created, sess)
	return s.MemoryStore.Create(ctx, sess)
}

type fixture struct {
	app      *fiber.App
	repo     *stubRepo
	sessions *recordingStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     &stubRepo{Repository: profile.NewMemoryRepository()},
		sessions: &recordingStore{MemoryStore: session.NewMemoryStore()},
	}
	logger := logging.Discard()
	mgr, err := session.NewManager(f.sessions, session.Options{Secret: []byte("test"), TTL: time.Hour})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	profiles := profile.NewService(f.repo)
	svc := NewService(identity.NewLocalProvider(identity.NewMemoryRepository()), profiles, logger)
	h := NewHandler(svc, profiles, mgr, logger)

	f.app = fiber.New()
	f.app.Use(middleware.Session(mgr, logger))
	f.app.Get("/", h.Home)
	f.app.Get("/login", h.LoginPage)
	f.app.Post("/login", middleware.LoginRateLimit(nil, 3, h.TooManyAttempts), h.Login)
	f.app.Get("/logout", h.Logout)
	return f
}

func (f *fixture) login(t *testing.T, action, email, password string) *http.Response {
	t.Helper()
	form := url.Values{"email": {email}, "password": {password}, "action": {action}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return resp
}

func (f *fixture) get(t *testing.T, path string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	resp, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func TestSignUpThenHomeShowsZeroBalance(t *testing.T) {
	f := newFixture(t)

	resp := f.login(t, ActionSignUp, "ada@example.com", "hunter22")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
	cookie := sessionCookie(resp)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected a session cookie")
	}

	resp = f.get(t, "/", cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, `<p id="balance">0.00</p>`) || !strings.Contains(body, "ada@example.com") {
		t.Fatalf("unexpected home page: %s", body)
	}
}

func TestHomeShowsStoredBalance(t *testing.T) {
	f := newFixture(t)
	cookie := sessionCookie(f.login(t, ActionSignUp, "ada@example.com", "hunter22"))

	s := lastSession(t, f)
	profile.SeedBalance(f.repo.Repository, s.User.ID, 5_000)

	body := readBody(t, f.get(t, "/", cookie))
	if !strings.Contains(body, `<p id="balance">50.00</p>`) {
		t.Fatalf("expected balance 50.00 on page: %s", body)
	}
}

func TestHomeWithoutSessionRedirects(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/", nil)
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestHomeFailureHandling(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		status      int
		keepSession bool
	}{
		{"missing profile", profile.ErrRecordNotFound, http.StatusOK, true},
		{"upstream down", errors.Join(profile.ErrUpstreamUnavailable, errors.New("dial tcp")), http.StatusServiceUnavailable, true},
		{"credentials rejected", profile.ErrNotAuthenticated, http.StatusFound, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			cookie := sessionCookie(f.login(t, ActionSignUp, "ada@example.com", "hunter22"))
			f.repo.err = tc.err

			resp := f.get(t, "/", cookie)
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
			_, err := f.sessions.Get(context.Background(), lastSession(t, f).ID)
			if tc.keepSession && err != nil {
				t.Fatalf("expected session to survive, got %v", err)
			}
			if !tc.keepSession && !errors.Is(err, session.ErrNotFound) {
				t.Fatalf("expected session to be destroyed, got %v", err)
			}
		})
	}
}

func TestLoginFailureShowsError(t *testing.T) {
	f := newFixture(t)
	_ = f.login(t, ActionSignUp, "ada@example.com", "hunter22")

	resp := f.login(t, "login", "ada@example.com", "wrong-password")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login page, got %d", resp.StatusCode)
	}
	if sessionCookie(resp) != nil {
		t.Fatal("failed login must not set a session cookie")
	}
	if body := readBody(t, resp); !strings.Contains(body, identity.ErrInvalidCredentials.Error()) {
		t.Fatalf("expected error on page: %s", body)
	}
}

func TestLoginRateLimited(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		_ = f.login(t, "login", "ada@example.com", "nope")
	}

	resp := f.login(t, "login", "ada@example.com", "nope")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, tooManyAttempts) {
		t.Fatalf("expected rate limit message on page: %s", body)
	}
}

func TestLogoutAlwaysClearsSession(t *testing.T) {
	f := newFixture(t)
	cookie := sessionCookie(f.login(t, "signup", "ada@example.com", "hunter22"))

	resp := f.get(t, "/logout", cookie)
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
	if cleared := sessionCookie(resp); cleared == nil || cleared.Value != "" {
		t.Fatal("expected logout to clear the cookie")
	}
	if resp := f.get(t, "/", cookie); resp.StatusCode != http.StatusFound {
		t.Fatalf("expected old cookie to be rejected, got %d", resp.StatusCode)
	}

	resp = f.get(t, "/logout", nil)
	if resp.StatusCode != http.StatusFound || sessionCookie(resp) == nil {
		t.Fatal("logout without a session must still clear the cookie and redirect")
	}
}

func lastSession(t *testing.T, f *fixture) session.Session {
	t.Helper()
	if len(f.sessions.created) == 0 {
		t.Fatal("no session was created")
	}
	return f.sessions.created[len(f.sessions.created)-1]
}
