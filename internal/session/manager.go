package session

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/datatopup/internal/identity"
)

const (
	// CookieName is the name of the signed session cookie.
	CookieName = "datatopup_session"
	localsKey  = "session"
)

// Options configures a Manager.
type Options struct {
	// Secret signs session cookies. A random secret is generated when empty.
	Secret []byte
	TTL    time.Duration
	Secure bool
}

// Manager ties the session store to the request cookie.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager builds a Manager over store.
func NewManager(store Store, opts Options) (*Manager, error) {
	secret := opts.Secret
	if len(secret) == 0 {
		var err error
		if secret, err = RandomSecret(); err != nil {
			return nil, err
		}
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{store: store, secret: secret, ttl: ttl, secure: opts.Secure, now: time.Now}, nil
}

// Start creates a session for user and sets the cookie on the response.
func (m *Manager) Start(c *fiber.Ctx, user identity.User) (Session, error) {
	id, err := GenerateID()
	if err != nil {
		return Session{}, err
	}
	now := m.now()
	s := Session{ID: id, User: user, CreatedAt: now, ExpiresAt: now.Add(m.ttl)}
	if err := m.store.Create(c.UserContext(), s); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	token, err := SignToken(s.ID, s.CreatedAt, s.ExpiresAt, m.secret)
	if err != nil {
		return Session{}, err
	}
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return s, nil
}

// Load resolves the session referenced by the request cookie. It returns
// ErrNotFound when there is no cookie or no live session, and ErrInvalidToken
// when the cookie does not verify.
func (m *Manager) Load(c *fiber.Ctx) (Session, error) {
	token := c.Cookies(CookieName)
	if token == "" {
		return Session{}, ErrNotFound
	}
	id, err := ParseToken(token, m.secret, m.now())
	if err != nil {
		return Session{}, err
	}
	s, err := m.store.Get(c.UserContext(), id)
	if err != nil {
		return Session{}, err
	}
	if s.Expired(m.now()) {
		_ = m.store.Delete(c.UserContext(), id)
		return Session{}, ErrNotFound
	}
	return s, nil
}

// Destroy removes the server-side session, if any, and always clears the cookie.
func (m *Manager) Destroy(c *fiber.Ctx) error {
	var err error
	if token := c.Cookies(CookieName); token != "" {
		if id, perr := ParseToken(token, m.secret, m.now()); perr == nil {
			err = m.store.Delete(c.UserContext(), id)
		}
	}
	m.ClearCookie(c)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ClearCookie expires the session cookie on the response.
func (m *Manager) ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Attach stores s on the request for downstream handlers.
func Attach(c *fiber.Ctx, s Session) {
	c.Locals(localsKey, s)
}

// FromContext returns the session attached by the session middleware.
func FromContext(c *fiber.Ctx) (Session, bool) {
	s, ok := c.Locals(localsKey).(Session)
	return s, ok
}

